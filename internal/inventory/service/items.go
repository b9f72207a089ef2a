package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/events"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/messaging"
)

// ItemService handles item business logic
type ItemService struct {
	store     *store.Store
	images    ImageStore
	publisher *events.InventoryEventPublisher
	activity  ActivityLog
	logger    *logger.Logger
}

// NewItemService creates a new item service. images and activity may be nil.
func NewItemService(
	st *store.Store,
	images ImageStore,
	publisher *events.InventoryEventPublisher,
	activity ActivityLog,
	log *logger.Logger,
) *ItemService {
	return &ItemService{
		store:     st,
		images:    images,
		publisher: publisher,
		activity:  activity,
		logger:    log,
	}
}

// ItemView is an item enriched with its location, category and images.
type ItemView struct {
	domain.Item
	LocationName  string             `json:"locationName"`
	LocationPath  []string           `json:"locationPath"`
	CategoryName  *string            `json:"categoryName"`
	CategoryColor *string            `json:"categoryColor"`
	CategoryIcon  *string            `json:"categoryIcon"`
	Images        []domain.ItemImage `json:"images"`
	ImageCount    int                `json:"imageCount"`
}

// ItemFilter narrows List. LocationID includes every descendant location.
type ItemFilter struct {
	Search     string
	LocationID *int
	CategoryID *int
}

// CreateItemInput is the body of an item create request.
type CreateItemInput struct {
	Name         string  `json:"name" validate:"required"`
	Description  string  `json:"description"`
	LocationID   *int    `json:"locationId"`
	CategoryID   *int    `json:"categoryId"`
	Quantity     *int    `json:"quantity" validate:"omitempty,gte=0"`
	Unit         string  `json:"unit"`
	Price        *int    `json:"price" validate:"omitempty,gte=0"`
	ImageURL     *string `json:"imageUrl"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

// UpdateItemInput merges present fields into an item.
type UpdateItemInput struct {
	Name         *string    `json:"name" validate:"omitempty,min=1"`
	Description  *string    `json:"description"`
	LocationID   OptionalID `json:"locationId"`
	CategoryID   OptionalID `json:"categoryId"`
	Quantity     *int       `json:"quantity" validate:"omitempty,gte=0"`
	Unit         *string    `json:"unit"`
	Price        OptionalID `json:"price"`
	ImageURL     *string    `json:"imageUrl"`
	ThumbnailURL *string    `json:"thumbnailUrl"`
}

// Item operations

// List returns enriched items matching filter, ordered by id.
func (s *ItemService) List(ctx context.Context, filter ItemFilter) []*ItemView {
	var out []*ItemView
	s.store.View(func(st *store.State) {
		idx := st.LocationIndex()
		var scope map[int]bool
		if filter.LocationID != nil {
			scope = idx.Subtree(*filter.LocationID)
		}
		search := strings.ToLower(strings.TrimSpace(filter.Search))

		for _, it := range st.Items {
			if scope != nil && (it.LocationID == nil || !scope[*it.LocationID]) {
				continue
			}
			if filter.CategoryID != nil && !domain.SameID(it.CategoryID, filter.CategoryID) {
				continue
			}
			if search != "" && !containsFold(it.Name+" "+it.Description, search) {
				continue
			}
			out = append(out, enrichItem(st, idx, it))
		}
	})
	if out == nil {
		out = []*ItemView{}
	}
	return out
}

// Get returns one enriched item.
func (s *ItemService) Get(ctx context.Context, id int) (*ItemView, error) {
	var view *ItemView
	s.store.View(func(st *store.State) {
		if it := st.Item(id); it != nil {
			view = enrichItem(st, st.LocationIndex(), it)
		}
	})
	if view == nil {
		return nil, errors.NotFound("item")
	}
	return view, nil
}

// Create adds an item. An optional image is saved after the item exists;
// image failures are logged and do not fail the create.
func (s *ItemService) Create(ctx context.Context, in CreateItemInput, image *domain.Upload) (*ItemView, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := httputil.Validate(in); err != nil {
		return nil, err
	}

	var created domain.Item
	err := s.store.Update(func(st *store.State) error {
		if err := checkRefs(st, in.LocationID, in.CategoryID); err != nil {
			return err
		}
		now := time.Now()
		item := &domain.Item{
			ID:           st.AllocItemID(),
			Name:         in.Name,
			Description:  in.Description,
			LocationID:   in.LocationID,
			CategoryID:   in.CategoryID,
			Quantity:     1,
			Unit:         domain.DefaultUnit,
			Price:        in.Price,
			ImageURL:     in.ImageURL,
			ThumbnailURL: in.ThumbnailURL,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if in.Quantity != nil {
			item.Quantity = *in.Quantity
		}
		if u := strings.TrimSpace(in.Unit); u != "" {
			item.Unit = u
		}
		st.Items = append(st.Items, item)
		created = *item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("item_id", created.ID).Str("name", created.Name).Msg("item created")
	s.publisher.PublishItemChanged(ctx, messaging.EventItemCreated, &created)
	recordActivity(ctx, s.activity, "item.created", map[string]any{"itemId": created.ID, "name": created.Name})

	if image != nil && s.images != nil {
		img, err := s.images.SaveItemImage(ctx, created.ID, image)
		if err != nil {
			s.logger.Warn().Err(err).Int("item_id", created.ID).Msg("failed to save item image")
		} else if err := s.AttachImage(ctx, created.ID, img); err != nil {
			s.logger.Warn().Err(err).Int("item_id", created.ID).Msg("failed to attach item image")
		}
	}

	return s.Get(ctx, created.ID)
}

// Update merges in into the item. The id never changes.
func (s *ItemService) Update(ctx context.Context, id int, in UpdateItemInput) (*ItemView, error) {
	if err := httputil.Validate(in); err != nil {
		return nil, err
	}
	if in.Price.Value != nil && *in.Price.Value < 0 {
		return nil, errors.Validation(map[string]string{"price": "must be greater than or equal to 0"})
	}

	var updated domain.Item
	err := s.store.Update(func(st *store.State) error {
		it := st.Item(id)
		if it == nil {
			return errors.NotFound("item")
		}

		next := *it
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return errors.Validation(map[string]string{"name": "name is required"})
			}
			next.Name = name
		}
		if in.Description != nil {
			next.Description = strings.TrimSpace(*in.Description)
		}
		if in.LocationID.Set {
			next.LocationID = in.LocationID.Value
		}
		if in.CategoryID.Set {
			next.CategoryID = in.CategoryID.Value
		}
		if in.Quantity != nil {
			next.Quantity = *in.Quantity
		}
		if in.Unit != nil && strings.TrimSpace(*in.Unit) != "" {
			next.Unit = strings.TrimSpace(*in.Unit)
		}
		if in.Price.Set {
			next.Price = in.Price.Value
		}
		if in.ImageURL != nil {
			next.ImageURL = domain.StrPtr(*in.ImageURL)
		}
		if in.ThumbnailURL != nil {
			next.ThumbnailURL = domain.StrPtr(*in.ThumbnailURL)
		}
		if err := checkRefs(st, next.LocationID, next.CategoryID); err != nil {
			return err
		}

		next.ID = it.ID
		next.CreatedAt = it.CreatedAt
		next.UpdatedAt = time.Now()
		*it = next
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishItemChanged(ctx, messaging.EventItemUpdated, &updated)
	recordActivity(ctx, s.activity, "item.updated", map[string]any{"itemId": id, "name": updated.Name})
	return s.Get(ctx, id)
}

// Delete removes the item and its image files. History entries are kept.
func (s *ItemService) Delete(ctx context.Context, id int) error {
	var (
		removed domain.Item
		images  []domain.ItemImage
	)
	err := s.store.Update(func(st *store.State) error {
		for i, it := range st.Items {
			if it.ID == id {
				removed = *it
				st.Items = append(st.Items[:i], st.Items[i+1:]...)
				images = st.ItemImages[id]
				delete(st.ItemImages, id)
				return nil
			}
		}
		return errors.NotFound("item")
	})
	if err != nil {
		return err
	}

	if s.images != nil && len(images) > 0 {
		s.images.RemoveImages(ctx, images)
	}

	s.logger.Info().Int("item_id", id).Int("images", len(images)).Msg("item deleted")
	s.publisher.PublishItemChanged(ctx, messaging.EventItemDeleted, &removed)
	recordActivity(ctx, s.activity, "item.deleted", map[string]any{"itemId": id, "name": removed.Name})
	return nil
}

// Image operations

// AttachImage records img on the item and makes it the current image.
func (s *ItemService) AttachImage(ctx context.Context, itemID int, img *domain.ItemImage) error {
	var updated domain.Item
	err := s.store.Update(func(st *store.State) error {
		it := st.Item(itemID)
		if it == nil {
			return errors.NotFound("item")
		}
		st.ItemImages[itemID] = append(st.ItemImages[itemID], *img)
		it.ImageURL = domain.StrPtr(img.URL)
		it.ThumbnailURL = domain.StrPtr(img.Thumbnail)
		it.UpdatedAt = time.Now()
		updated = *it
		return nil
	})
	if err != nil {
		return err
	}
	s.publisher.PublishItemChanged(ctx, messaging.EventItemImage, &updated)
	return nil
}

// UploadImage saves an image file and attaches it to an existing item.
func (s *ItemService) UploadImage(ctx context.Context, itemID int, up *domain.Upload) (*domain.ItemImage, error) {
	if _, err := s.Get(ctx, itemID); err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, errors.Internal("image storage is not configured")
	}

	img, err := s.images.SaveItemImage(ctx, itemID, up)
	if err != nil {
		return nil, err
	}
	if err := s.AttachImage(ctx, itemID, img); err != nil {
		s.images.RemoveImages(ctx, []domain.ItemImage{*img})
		return nil, err
	}
	return img, nil
}

// Images lists an item's images, oldest first.
func (s *ItemService) Images(ctx context.Context, itemID int) ([]domain.ItemImage, error) {
	var (
		images []domain.ItemImage
		found  bool
	)
	s.store.View(func(st *store.State) {
		if st.Item(itemID) != nil {
			found = true
			images = append([]domain.ItemImage{}, st.ItemImages[itemID]...)
		}
	})
	if !found {
		return nil, errors.NotFound("item")
	}
	return images, nil
}

// DeleteImage removes one image by filename. The item falls back to its newest remaining image.
func (s *ItemService) DeleteImage(ctx context.Context, itemID int, filename string) error {
	var removed domain.ItemImage
	err := s.store.Update(func(st *store.State) error {
		it := st.Item(itemID)
		if it == nil {
			return errors.NotFound("item")
		}
		images := st.ItemImages[itemID]
		idx := -1
		for i, img := range images {
			if img.Filename == filename {
				idx = i
				break
			}
		}
		if idx < 0 {
			return errors.NotFound("image")
		}
		removed = images[idx]
		images = append(images[:idx:idx], images[idx+1:]...)
		st.ItemImages[itemID] = images

		if it.ImageURL != nil && *it.ImageURL == removed.URL {
			it.ImageURL, it.ThumbnailURL = nil, nil
			if n := len(images); n > 0 {
				it.ImageURL = domain.StrPtr(images[n-1].URL)
				it.ThumbnailURL = domain.StrPtr(images[n-1].Thumbnail)
			}
		}
		it.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return err
	}
	if s.images != nil {
		s.images.RemoveImages(ctx, []domain.ItemImage{removed})
	}
	return nil
}

func checkRefs(st *store.State, locationID, categoryID *int) error {
	if locationID != nil && st.Location(*locationID) == nil {
		return errors.NotFound("location")
	}
	if categoryID != nil && st.Category(*categoryID) == nil {
		return errors.NotFound("category")
	}
	return nil
}

// enrichItem must run under the store lock.
func enrichItem(st *store.State, idx *domain.LocationIndex, it *domain.Item) *ItemView {
	view := &ItemView{
		Item:         *it,
		LocationPath: idx.Path(it.LocationID),
		Images:       append([]domain.ItemImage{}, st.ItemImages[it.ID]...),
	}
	view.LocationName = strings.Join(view.LocationPath, " > ")
	view.ImageCount = len(view.Images)

	if it.CategoryID != nil {
		if c := st.Category(*it.CategoryID); c != nil {
			name, color, icon := c.Name, c.Color, c.Icon
			view.CategoryName = &name
			view.CategoryColor = &color
			view.CategoryIcon = &icon
		}
	}
	if view.ThumbnailURL == nil && view.ImageCount > 0 {
		view.ThumbnailURL = domain.StrPtr(view.Images[view.ImageCount-1].Thumbnail)
	}
	return view
}

// sortHistoryNewestFirst orders by creation time then id, both descending.
func sortHistoryNewestFirst(entries []domain.HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
}
