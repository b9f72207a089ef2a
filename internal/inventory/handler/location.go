package handler

import (
	"net/http"
	"strings"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/service"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

// LocationHandler handles location endpoints
type LocationHandler struct {
	service        *service.LocationService
	maxUploadBytes int64
	logger         *logger.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(svc *service.LocationService, maxUploadBytes int64, log *logger.Logger) *LocationHandler {
	return &LocationHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
		logger:         log,
	}
}

// List lists locations. parentId=null selects the roots.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter service.LocationFilter

	level, err := queryInt(r, "level")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	filter.Level = level

	if strings.EqualFold(r.URL.Query().Get("parentId"), "null") {
		filter.RootsOnly = true
	} else if filter.ParentID, err = queryInt(r, "parentId"); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	locations := h.service.List(r.Context(), filter)
	httputil.JSONWithMeta(w, http.StatusOK, locations, &httputil.Meta{Count: len(locations)})
}

// Get gets a location by ID
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	loc, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, loc)
}

// Create creates a location
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateLocationInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	loc, err := h.service.Create(r.Context(), in)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, loc)
}

// Update updates a location
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	var in service.UpdateLocationInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	loc, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, loc)
}

// Delete deletes an empty location
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// UploadImage replaces the location image with the "image" file
func (h *LocationHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := parseMultipart(w, r, h.maxUploadBytes); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	image, err := formUpload(r, "image")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if image == nil {
		httputil.ErrorLocalized(w, r, errors.BadRequestKey("errors.no_image_provided", nil))
		return
	}

	loc, err := h.service.SetImage(r.Context(), id, image)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, loc)
}

// Cleanup merges duplicate locations
func (h *LocationHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Cleanup(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

// FixLevels recomputes level and type from the parent chain
func (h *LocationHandler) FixLevels(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.FixLevels(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

// Restructure moves the room locations under the home location
func (h *LocationHandler) Restructure(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Restructure(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}
