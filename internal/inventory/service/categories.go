package service

import (
	"context"
	"strings"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/events"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/messaging"
)

// CategoryService manages categories.
type CategoryService struct {
	store     *store.Store
	publisher *events.InventoryEventPublisher
	logger    *logger.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(st *store.Store, publisher *events.InventoryEventPublisher, log *logger.Logger) *CategoryService {
	return &CategoryService{store: st, publisher: publisher, logger: log}
}

// CategoryInput is the body of a category create or update request.
type CategoryInput struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
	Icon  string `json:"icon"`
}

// CategoryView is a category with its item count.
type CategoryView struct {
	domain.Category
	ItemCount int `json:"itemCount"`
}

// List returns all categories in id order.
func (s *CategoryService) List(ctx context.Context) []CategoryView {
	out := []CategoryView{}
	s.store.View(func(st *store.State) {
		counts := make(map[int]int)
		for _, it := range st.Items {
			if it.CategoryID != nil {
				counts[*it.CategoryID]++
			}
		}
		for _, c := range st.Categories {
			out = append(out, CategoryView{Category: *c, ItemCount: counts[c.ID]})
		}
	})
	return out
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id int) (*domain.Category, error) {
	var found *domain.Category
	s.store.View(func(st *store.State) {
		if c := st.Category(id); c != nil {
			cp := *c
			found = &cp
		}
	})
	if found == nil {
		return nil, errors.NotFound("category")
	}
	return found, nil
}

// Create adds a category with default color and icon when omitted.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := httputil.Validate(in); err != nil {
		return nil, err
	}

	var created domain.Category
	err := s.store.Update(func(st *store.State) error {
		c := &domain.Category{
			ID:    st.AllocCategoryID(),
			Name:  in.Name,
			Color: orDefault(in.Color, domain.DefaultCategoryColor),
			Icon:  orDefault(in.Icon, domain.DefaultCategoryIcon),
		}
		st.Categories = append(st.Categories, c)
		created = *c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishCategoryChanged(ctx, messaging.EventCategoryCreated, &created)
	return &created, nil
}

// Update replaces name and, when given, color and icon.
func (s *CategoryService) Update(ctx context.Context, id int, in CategoryInput) (*domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := httputil.Validate(in); err != nil {
		return nil, err
	}

	var updated domain.Category
	err := s.store.Update(func(st *store.State) error {
		c := st.Category(id)
		if c == nil {
			return errors.NotFound("category")
		}
		c.Name = in.Name
		c.Color = orDefault(in.Color, c.Color)
		c.Icon = orDefault(in.Icon, c.Icon)
		updated = *c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishCategoryChanged(ctx, messaging.EventCategoryUpdated, &updated)
	return &updated, nil
}

// Delete removes a category no item references.
func (s *CategoryService) Delete(ctx context.Context, id int) error {
	var removed domain.Category
	err := s.store.Update(func(st *store.State) error {
		pos := -1
		for i, c := range st.Categories {
			if c.ID == id {
				pos = i
				break
			}
		}
		if pos < 0 {
			return errors.NotFound("category")
		}

		inUse := 0
		for _, it := range st.Items {
			if it.CategoryID != nil && *it.CategoryID == id {
				inUse++
			}
		}
		if inUse > 0 {
			return errors.InUse("errors.category_in_use", inUse)
		}

		removed = *st.Categories[pos]
		st.Categories = append(st.Categories[:pos], st.Categories[pos+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.PublishCategoryChanged(ctx, messaging.EventCategoryDeleted, &removed)
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
