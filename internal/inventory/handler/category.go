package handler

import (
	"net/http"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/service"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	service *service.CategoryService
	logger  *logger.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(svc *service.CategoryService, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{service: svc, logger: log}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories := h.service.List(r.Context())
	httputil.JSONWithMeta(w, http.StatusOK, categories, &httputil.Meta{Count: len(categories)})
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	cat, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	cat, err := h.service.Create(r.Context(), in)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, cat)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	var in service.CategoryInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	cat, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]int{"id": id})
}
