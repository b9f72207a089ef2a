package handler

import (
	"context"
	"net/http"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/service"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

// StockHandler handles stock movement endpoints
type StockHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(svc *service.StockService, log *logger.Logger) *StockHandler {
	return &StockHandler{service: svc, logger: log}
}

// StockIn records an incoming movement
func (h *StockHandler) StockIn(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.service.StockIn)
}

// StockOut records an outgoing movement
func (h *StockHandler) StockOut(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.service.StockOut)
}

func (h *StockHandler) move(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, req service.StockRequest) (*service.StockResult, error)) {
	var req service.StockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	result, err := op(r.Context(), req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Raw(w, http.StatusOK, result)
}

// History lists movements, optionally for one item
func (h *StockHandler) History(w http.ResponseWriter, r *http.Request) {
	itemID, err := queryInt(r, "itemId")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	history := h.service.History(r.Context(), itemID)
	httputil.JSONWithMeta(w, http.StatusOK, history, &httputil.Meta{Count: len(history)})
}

// Status reports stock levels of every item
func (h *StockHandler) Status(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, h.service.Status(r.Context()))
}
