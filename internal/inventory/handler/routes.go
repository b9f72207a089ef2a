package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/smartinventory/smartinventory-backend/pkg/permissions"
)

// Guard returns middleware that requires a permission. A nil Guard allows everything.
type Guard func(permission string) func(http.Handler) http.Handler

func (g Guard) require(r chi.Router, permission string) chi.Router {
	if g == nil {
		return r
	}
	return r.With(g(permission))
}

// Handlers groups the inventory handlers for route registration.
type Handlers struct {
	Items      *ItemHandler
	Locations  *LocationHandler
	Categories *CategoryHandler
	Stock      *StockHandler
	Search     *SearchHandler
	System     *SystemHandler

	// Bulk serves POST /api/items/bulk when set.
	Bulk http.HandlerFunc
}

// Register mounts the inventory API on r.
func (h *Handlers) Register(r chi.Router, guard Guard) {
	r.Get("/", h.System.Info)

	r.Get("/api/health", h.System.Health)
	guard.require(r, permissions.FamilyManage).Post("/api/backup", h.System.Backup)
	guard.require(r, permissions.FamilyManage).Post("/api/backup-to-s3", h.System.BackupToS3)
	guard.require(r, permissions.ItemsRead).Post("/api/ai-search", h.Search.Search)

	r.Route("/api/items", func(r chi.Router) {
		read := guard.require(r, permissions.ItemsRead)
		write := guard.require(r, permissions.ItemsWrite)

		read.Get("/", h.Items.List)
		write.Post("/", h.Items.Create)
		write.Post("/upload-image", h.Items.UploadImage)
		if h.Bulk != nil {
			write.Post("/bulk", h.Bulk)
		}
		read.Get("/{id}", h.Items.Get)
		write.Put("/{id}", h.Items.Update)
		guard.require(r, permissions.ItemsDelete).Delete("/{id}", h.Items.Delete)
		read.Get("/{id}/images", h.Items.ListImages)
		write.Delete("/{id}/images/{filename}", h.Items.DeleteImage)
	})

	r.Route("/api/locations", func(r chi.Router) {
		read := guard.require(r, permissions.ItemsRead)
		manage := guard.require(r, permissions.LocationsManage)

		read.Get("/", h.Locations.List)
		manage.Post("/", h.Locations.Create)
		manage.Post("/cleanup", h.Locations.Cleanup)
		manage.Post("/fix-levels", h.Locations.FixLevels)
		manage.Post("/restructure", h.Locations.Restructure)
		read.Get("/{id}", h.Locations.Get)
		manage.Put("/{id}", h.Locations.Update)
		manage.Delete("/{id}", h.Locations.Delete)
		manage.Post("/{id}/image", h.Locations.UploadImage)
	})

	r.Route("/api/categories", func(r chi.Router) {
		read := guard.require(r, permissions.ItemsRead)
		manage := guard.require(r, permissions.CategoriesManage)

		read.Get("/", h.Categories.List)
		manage.Post("/", h.Categories.Create)
		read.Get("/{id}", h.Categories.Get)
		manage.Put("/{id}", h.Categories.Update)
		manage.Delete("/{id}", h.Categories.Delete)
	})

	r.Route("/api/inventory", func(r chi.Router) {
		read := guard.require(r, permissions.ItemsRead)
		write := guard.require(r, permissions.ItemsWrite)

		write.Post("/stock-in", h.Stock.StockIn)
		write.Post("/stock-out", h.Stock.StockOut)
		read.Get("/history", h.Stock.History)
		read.Get("/status", h.Stock.Status)
	})
}
