// Package handler exposes the receipt pipeline over HTTP.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	invhandler "github.com/smartinventory/smartinventory-backend/internal/inventory/handler"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/importer"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/multipart"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/service"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/permissions"
)

// Image field names, in preference order.
var imageFields = []string{"receipt", "image"}

// Pipeline is the receipt service as used by the handlers.
type Pipeline interface {
	Analyze(ctx context.Context, image []byte) *service.Analysis
	AnalyzeAndImport(ctx context.Context, images [][]byte) *service.ImportResult
	StartScan(ctx context.Context, image []byte) *service.ScanJob
	Scan(ctx context.Context, jobID string) (*service.ScanJob, error)
	Import(ctx context.Context, records []importer.Record) (*importer.Report, error)
}

// ReceiptHandler handles receipt analysis and bulk import.
type ReceiptHandler struct {
	service        Pipeline
	maxUploadBytes int64
	logger         *logger.Logger
}

// NewReceiptHandler creates a receipt handler. maxUploadBytes <= 0 uses the inventory default.
func NewReceiptHandler(svc Pipeline, maxUploadBytes int64, log *logger.Logger) *ReceiptHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = invhandler.DefaultMaxUploadBytes
	}
	return &ReceiptHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
		logger:         log.WithComponent("receipt-handler"),
	}
}

// Register mounts the receipt routes on r.
func (h *ReceiptHandler) Register(r chi.Router, guard invhandler.Guard) {
	r.Group(func(r chi.Router) {
		if guard != nil {
			r.Use(guard(permissions.ItemsWrite))
		}
		r.Post("/api/analyze-receipt", h.Analyze)
		r.Post("/api/receipts/scans", h.StartScan)
		r.Get("/api/receipts/scans/{jobId}", h.GetScan)
		r.Post("/api/receipts/import", h.Import)
	})
}

// Analyze handles POST /api/analyze-receipt
func (h *ReceiptHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	parts, err := h.readParts(w, r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	image, ok := pickImage(parts)
	if !ok {
		httputil.ErrorLocalized(w, r, errors.BadRequestKey("errors.no_image_found", nil))
		return
	}

	httputil.Raw(w, http.StatusOK, h.service.Analyze(r.Context(), image.Data))
}

// StartScan handles POST /api/receipts/scans
func (h *ReceiptHandler) StartScan(w http.ResponseWriter, r *http.Request) {
	parts, err := h.readParts(w, r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	image, ok := pickImage(parts)
	if !ok {
		httputil.ErrorLocalized(w, r, errors.BadRequestKey("errors.no_image_found", nil))
		return
	}

	job := h.service.StartScan(r.Context(), image.Data)
	h.logger.Info().Str("job_id", job.JobID).Msg("receipt scan accepted")
	httputil.JSON(w, http.StatusAccepted, job)
}

// GetScan handles GET /api/receipts/scans/{jobId}
func (h *ReceiptHandler) GetScan(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.Scan(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, job)
}

// Import handles POST /api/receipts/import. Every file part is analyzed.
func (h *ReceiptHandler) Import(w http.ResponseWriter, r *http.Request) {
	parts, err := h.readParts(w, r)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	var images [][]byte
	for _, p := range parts {
		if p.Filename != "" && len(p.Data) > 0 {
			images = append(images, p.Data)
		}
	}
	if len(images) == 0 {
		httputil.ErrorLocalized(w, r, errors.BadRequestKey("errors.no_image_found", nil))
		return
	}

	httputil.Raw(w, http.StatusOK, h.service.AnalyzeAndImport(r.Context(), images))
}

type bulkRequest struct {
	Items []importer.Record `json:"items"`
}

type bulkResponse struct {
	Success    bool                   `json:"success"`
	AddedItems []domain.Item          `json:"addedItems"`
	Errors     []importer.RecordError `json:"errors,omitempty"`
}

// Bulk handles POST /api/items/bulk
func (h *ReceiptHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	report, err := h.service.Import(r.Context(), req.Items)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Raw(w, http.StatusOK, bulkResponse{
		Success:    true,
		AddedItems: report.Added,
		Errors:     report.Errors,
	})
}

// readParts reads the raw body and splits it with the receipt multipart decoder.
func (h *ReceiptHandler) readParts(w http.ResponseWriter, r *http.Request) ([]multipart.Part, error) {
	boundary, err := multipart.BoundaryFromContentType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, errors.BadRequestKey("errors.no_boundary", nil)
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errors.New("PAYLOAD_TOO_LARGE", "upload too large", http.StatusRequestEntityTooLarge)
		}
		return nil, errors.BadRequest(err.Error())
	}

	return multipart.Decode(body, boundary), nil
}

// pickImage prefers the receipt and image fields, then any file part.
func pickImage(parts []multipart.Part) (multipart.Part, bool) {
	for _, name := range imageFields {
		for _, p := range parts {
			if p.Name == name && p.Filename != "" && len(p.Data) > 0 {
				return p, true
			}
		}
	}
	p, ok := multipart.FirstFile(parts)
	if !ok || len(p.Data) == 0 {
		return multipart.Part{}, false
	}
	return p, true
}
