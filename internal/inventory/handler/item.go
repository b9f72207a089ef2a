package handler

import (
	"net/http"
	"strings"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/service"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

// ItemHandler handles item endpoints
type ItemHandler struct {
	service        *service.ItemService
	maxUploadBytes int64
	logger         *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(svc *service.ItemService, maxUploadBytes int64, log *logger.Logger) *ItemHandler {
	return &ItemHandler{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
		logger:         log,
	}
}

// List lists items, filtered by search, locationId and categoryId
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	locationID, err := queryInt(r, "locationId")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	categoryID, err := queryInt(r, "categoryId")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	items := h.service.List(r.Context(), service.ItemFilter{
		Search:     r.URL.Query().Get("search"),
		LocationID: locationID,
		CategoryID: categoryID,
	})
	httputil.JSONWithMeta(w, http.StatusOK, items, &httputil.Meta{Count: len(items)})
}

// Get gets an item by ID
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, item)
}

// Create creates an item from JSON or from a multipart form with an optional "image" file
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		in    service.CreateItemInput
		image *domain.Upload
		err   error
	)
	if isMultipart(r) {
		in, image, err = h.decodeItemForm(w, r)
	} else {
		err = httputil.DecodeJSON(r, &in)
	}
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	item, err := h.service.Create(r.Context(), in, image)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, item)
}

func (h *ItemHandler) decodeItemForm(w http.ResponseWriter, r *http.Request) (service.CreateItemInput, *domain.Upload, error) {
	var in service.CreateItemInput
	if err := parseMultipart(w, r, h.maxUploadBytes); err != nil {
		return in, nil, err
	}

	in.Name = r.FormValue("name")
	in.Description = r.FormValue("description")
	in.Unit = r.FormValue("unit")
	for field, dst := range map[string]**int{
		"locationId": &in.LocationID,
		"categoryId": &in.CategoryID,
		"quantity":   &in.Quantity,
		"price":      &in.Price,
	} {
		v, err := formInt(r, field)
		if err != nil {
			return in, nil, err
		}
		*dst = v
	}

	image, err := formUpload(r, "image")
	return in, image, err
}

// Update merges the JSON body into an item
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	var in service.UpdateItemInput
	if err := httputil.DecodeJSON(r, &in); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	item, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, item)
}

// Delete deletes an item and its images
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// UploadImage attaches the "image" file to the item named by the "itemId" field
func (h *ItemHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUploadBytes); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	image, err := formUpload(r, "image")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	itemID, err := formInt(r, "itemId")
	if image == nil || itemID == nil || err != nil {
		httputil.ErrorLocalized(w, r, errors.BadRequestKey("errors.missing_image_or_item", nil))
		return
	}

	img, err := h.service.UploadImage(r.Context(), *itemID, image)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, img)
}

// ListImages lists an item's images
func (h *ItemHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	images, err := h.service.Images(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, images, &httputil.Meta{Count: len(images)})
}

// DeleteImage removes one image of an item
func (h *ItemHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	filename := strings.TrimSpace(chiParam(r, "filename"))

	if err := h.service.DeleteImage(r.Context(), id, filename); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.NoContent(w)
}
