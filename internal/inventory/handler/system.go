package handler

import (
	"net/http"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/service"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

// SystemHandler serves health, API info and backups
type SystemHandler struct {
	service *service.SystemService
	logger  *logger.Logger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(svc *service.SystemService, log *logger.Logger) *SystemHandler {
	return &SystemHandler{service: svc, logger: log}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.Raw(w, http.StatusOK, h.service.Health(r.Context()))
}

func (h *SystemHandler) Info(w http.ResponseWriter, r *http.Request) {
	httputil.Raw(w, http.StatusOK, h.service.Info(r.Context()))
}

// Backup flushes the inventory to the configured backend
func (h *SystemHandler) Backup(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Backup(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("backup failed")
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Raw(w, http.StatusOK, result)
}

// BackupToS3 flushes the inventory and requires the S3 mirror
func (h *SystemHandler) BackupToS3(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.BackupToS3(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("s3 backup failed")
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Raw(w, http.StatusOK, result)
}
