package handler

import (
	"net/http"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/service"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
)

// SearchHandler handles natural language item search
type SearchHandler struct {
	service *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(svc *service.SearchService) *SearchHandler {
	return &SearchHandler{service: svc}
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search answers POST /api/ai-search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	result, err := h.service.Search(r.Context(), req.Query)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Raw(w, http.StatusOK, result)
}
