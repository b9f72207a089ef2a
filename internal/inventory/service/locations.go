package service

import (
	"context"
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

// HomeLocationName is the root that Restructure moves rooms under.
const HomeLocationName = "집"

// RoomNames are the rooms Restructure moves under the home location.
var RoomNames = []string{"거실", "침실", "주방", "화장실", "베란다"}

// LocationService manages the location tree.
type LocationService struct {
	store     *store.Store
	images    ImageStore
	publisher *events.InventoryEventPublisher
	logger    *logger.Logger
}

// NewLocationService creates a new location service
func NewLocationService(st *store.Store, images ImageStore, publisher *events.InventoryEventPublisher, log *logger.Logger) *LocationService {
	return &LocationService{
		store:     st,
		images:    images,
		publisher: publisher,
		logger:    log,
	}
}

// LocationView is a location with its path and usage counts.
type LocationView struct {
	domain.Location
	Path             []string `json:"path"`
	PathString       string   `json:"pathString"`
	ItemCount        int      `json:"itemCount"`
	SubLocationCount int      `json:"subLocationCount"`
	HasItems         bool     `json:"hasItems"`
	HasSubLocations  bool     `json:"hasSubLocations"`
}

// LocationFilter narrows List. RootsOnly wins over ParentID.
type LocationFilter struct {
	Level     *int
	ParentID  *int
	RootsOnly bool
}

// CreateLocationInput is the body of a location create request.
type CreateLocationInput struct {
	Name         string  `json:"name" validate:"required"`
	ParentID     *int    `json:"parentId"`
	Description  string  `json:"description"`
	ImageURL     *string `json:"imageUrl"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

// UpdateLocationInput changes present fields. An empty name is ignored.
type UpdateLocationInput struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	ImageURL     *string `json:"imageUrl"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

// LocationSummary is the compact form returned by maintenance operations.
type LocationSummary struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	ParentID *int   `json:"parentId"`
	Type     string `json:"type"`
}

// CleanupResult reports duplicate removal.
type CleanupResult struct {
	BeforeCount  int `json:"beforeCount"`
	AfterCount   int `json:"afterCount"`
	RemovedCount int `json:"removedCount"`
	ItemUpdates  int `json:"itemUpdates"`
}

// FixLevelsResult reports level repair.
type FixLevelsResult struct {
	FixedCount int               `json:"fixedCount"`
	Locations  []LocationSummary `json:"locations"`
}

// RestructureResult reports rooms moved under the home location.
type RestructureResult struct {
	UpdatedCount      int               `json:"updatedCount"`
	HomeLocationID    int               `json:"homeLocationId"`
	RestructuredRooms []string          `json:"restructuredRooms"`
	CurrentStructure  []LocationSummary `json:"currentStructure"`
}

// List returns enriched locations matching filter.
func (s *LocationService) List(ctx context.Context, filter LocationFilter) []*LocationView {
	out := []*LocationView{}
	s.store.View(func(st *store.State) {
		idx := st.LocationIndex()
		counts := itemCounts(st)
		for _, l := range st.Locations {
			if filter.Level != nil && l.Level != *filter.Level {
				continue
			}
			if filter.RootsOnly && l.ParentID != nil {
				continue
			}
			if !filter.RootsOnly && filter.ParentID != nil && !domain.SameID(l.ParentID, filter.ParentID) {
				continue
			}
			out = append(out, enrichLocation(idx, counts, l))
		}
	})
	return out
}

// Get returns one enriched location.
func (s *LocationService) Get(ctx context.Context, id int) (*LocationView, error) {
	var view *LocationView
	s.store.View(func(st *store.State) {
		if l := st.Location(id); l != nil {
			view = enrichLocation(st.LocationIndex(), itemCounts(st), l)
		}
	})
	if view == nil {
		return nil, errors.NotFound("location")
	}
	return view, nil
}

// Create adds a location below ParentID, at most four levels deep.
func (s *LocationService) Create(ctx context.Context, in CreateLocationInput) (*LocationView, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := httputil.Validate(in); err != nil {
		return nil, err
	}

	var created domain.Location
	err := s.store.Update(func(st *store.State) error {
		level := 0
		if in.ParentID != nil {
			parent := st.Location(*in.ParentID)
			if parent == nil {
				return errors.NotFound("location")
			}
			level = parent.Level + 1
		}
		if level > domain.MaxLocationLevel {
			return errors.LocationDepthExceeded()
		}

		now := time.Now()
		loc := &domain.Location{
			ID:           st.AllocLocationID(),
			Name:         in.Name,
			ParentID:     in.ParentID,
			Level:        level,
			Type:         domain.TypeForLevel(level),
			Description:  strings.TrimSpace(in.Description),
			ImageURL:     in.ImageURL,
			ThumbnailURL: in.ThumbnailURL,
			CreatedAt:    &now,
			UpdatedAt:    &now,
		}
		st.Locations = append(st.Locations, loc)
		created = *loc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("location_id", created.ID).Int("level", created.Level).Msg("location created")
	s.publisher.PublishLocationChanged(ctx, messaging.EventLocationCreated, &created)
	return s.Get(ctx, created.ID)
}

// Update changes name, description and image fields.
func (s *LocationService) Update(ctx context.Context, id int, in UpdateLocationInput) (*LocationView, error) {
	var updated domain.Location
	err := s.store.Update(func(st *store.State) error {
		l := st.Location(id)
		if l == nil {
			return errors.NotFound("location")
		}
		if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
			l.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			l.Description = strings.TrimSpace(*in.Description)
		}
		if in.ImageURL != nil {
			l.ImageURL = domain.StrPtr(*in.ImageURL)
		}
		if in.ThumbnailURL != nil {
			l.ThumbnailURL = domain.StrPtr(*in.ThumbnailURL)
		}
		now := time.Now()
		l.UpdatedAt = &now
		updated = *l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishLocationChanged(ctx, messaging.EventLocationUpdated, &updated)
	return s.Get(ctx, id)
}

// Delete removes a location that holds no items and no child locations.
func (s *LocationService) Delete(ctx context.Context, id int) error {
	var removed domain.Location
	err := s.store.Update(func(st *store.State) error {
		pos := -1
		for i, l := range st.Locations {
			if l.ID == id {
				pos = i
				break
			}
		}
		if pos < 0 {
			return errors.NotFound("location")
		}
		if n := itemCounts(st)[id]; n > 0 {
			return errors.InUse("errors.location_has_items", n)
		}
		if n := st.LocationIndex().ChildCount(id); n > 0 {
			return errors.InUse("errors.location_has_children", n)
		}
		removed = *st.Locations[pos]
		st.Locations = append(st.Locations[:pos], st.Locations[pos+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int("location_id", id).Msg("location deleted")
	s.publisher.PublishLocationChanged(ctx, messaging.EventLocationDeleted, &removed)
	return nil
}

// SetImage saves an uploaded image as the location picture.
func (s *LocationService) SetImage(ctx context.Context, id int, up *domain.Upload) (*LocationView, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, errors.Internal("image storage is not configured")
	}

	img, err := s.images.SaveLocationImage(ctx, id, up)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, id, UpdateLocationInput{ImageURL: &img.URL, ThumbnailURL: &img.Thumbnail})
}

// Maintenance operations

// Cleanup merges locations whose trimmed, case-folded names are equal.
// The survivor has the most of description, image and type set; ties go to the newest.
func (s *LocationService) Cleanup(ctx context.Context) (*CleanupResult, error) {
	res := &CleanupResult{}
	err := s.store.Update(func(st *store.State) error {
		res.BeforeCount = len(st.Locations)

		groups := make(map[string][]*domain.Location)
		var order []string
		for _, l := range st.Locations {
			key := strings.ToLower(strings.TrimSpace(l.Name))
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], l)
		}

		replace := make(map[int]int)
		for _, key := range order {
			group := groups[key]
			if len(group) < 2 {
				continue
			}
			keep := pickRepresentative(group)
			for _, l := range group {
				if l.ID != keep.ID {
					replace[l.ID] = keep.ID
				}
			}
		}
		if len(replace) == 0 {
			res.AfterCount = res.BeforeCount
			return nil
		}

		for _, it := range st.Items {
			if it.LocationID == nil {
				continue
			}
			if to, ok := replace[*it.LocationID]; ok {
				it.LocationID = domain.IntPtr(to)
				it.UpdatedAt = time.Now()
				res.ItemUpdates++
			}
		}

		kept := st.Locations[:0]
		for _, l := range st.Locations {
			if _, gone := replace[l.ID]; gone {
				continue
			}
			if l.ParentID != nil {
				if to, ok := replace[*l.ParentID]; ok {
					l.ParentID = domain.IntPtr(to)
				}
			}
			kept = append(kept, l)
		}
		st.Locations = kept

		res.AfterCount = len(st.Locations)
		res.RemovedCount = res.BeforeCount - res.AfterCount
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.RemovedCount > 0 {
		s.logger.Info().Int("removed", res.RemovedCount).Int("item_updates", res.ItemUpdates).Msg("duplicate locations merged")
		s.publisher.PublishLocationsRestructured(ctx, res.RemovedCount)
	}
	return res, nil
}

// FixLevels recomputes every level and type from the parent chain.
func (s *LocationService) FixLevels(ctx context.Context) (*FixLevelsResult, error) {
	res := &FixLevelsResult{Locations: []LocationSummary{}}
	err := s.store.Update(func(st *store.State) error {
		res.FixedCount = relevel(st, nil)
		for _, l := range st.Locations {
			res.Locations = append(res.Locations, summarize(l))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.FixedCount > 0 {
		s.publisher.PublishLocationsRestructured(ctx, res.FixedCount)
	}
	return res, nil
}

// Restructure moves the root rooms under the level-0 home location.
func (s *LocationService) Restructure(ctx context.Context) (*RestructureResult, error) {
	res := &RestructureResult{RestructuredRooms: []string{}, CurrentStructure: []LocationSummary{}}
	err := s.store.Update(func(st *store.State) error {
		var home *domain.Location
		for _, l := range st.Locations {
			if l.Name == HomeLocationName && l.Level == 0 {
				home = l
				break
			}
		}
		if home == nil {
			return errors.NotFound("home_location")
		}
		res.HomeLocationID = home.ID

		rooms := make(map[string]bool, len(RoomNames))
		for _, r := range RoomNames {
			rooms[r] = true
		}

		moved := make(map[int]bool)
		now := time.Now()
		for _, l := range st.Locations {
			if l.ID == home.ID || l.ParentID != nil || l.Level != 0 || !rooms[l.Name] {
				continue
			}
			l.ParentID = domain.IntPtr(home.ID)
			l.Level = 1
			l.Type = domain.TypeForLevel(1)
			l.UpdatedAt = &now
			moved[l.ID] = true
			res.RestructuredRooms = append(res.RestructuredRooms, l.Name)
		}
		res.UpdatedCount = len(moved)

		// descendants of moved rooms shift down one level
		if len(moved) > 0 {
			idx := st.LocationIndex()
			scope := make(map[int]bool)
			for id := range moved {
				for d := range idx.Subtree(id) {
					scope[d] = true
				}
			}
			relevel(st, scope)
		}

		for _, l := range st.Locations {
			if l.Level <= 1 {
				res.CurrentStructure = append(res.CurrentStructure, summarize(l))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.UpdatedCount > 0 {
		s.logger.Info().Int("rooms", res.UpdatedCount).Int("home_id", res.HomeLocationID).Msg("rooms moved under home")
		s.publisher.PublishLocationsRestructured(ctx, res.UpdatedCount)
	}
	return res, nil
}

// relevel recomputes level and type for locations in scope (all when nil)
// and returns how many levels changed.
func relevel(st *store.State, scope map[int]bool) int {
	idx := st.LocationIndex()
	fixed := 0
	for _, l := range st.Locations {
		if scope != nil && !scope[l.ID] {
			continue
		}
		level := idx.Depth(l.ID)
		if level != l.Level {
			fixed++
		}
		l.Level = level
		l.Type = domain.TypeForLevel(level)
	}
	return fixed
}

func pickRepresentative(group []*domain.Location) *domain.Location {
	score := func(l *domain.Location) int {
		n := 0
		if strings.TrimSpace(l.Description) != "" {
			n++
		}
		if l.ImageURL != nil {
			n++
		}
		if l.Type != "" {
			n++
		}
		return n
	}
	created := func(l *domain.Location) time.Time {
		if l.CreatedAt == nil {
			return time.Time{}
		}
		return *l.CreatedAt
	}

	best := group[0]
	for _, l := range group[1:] {
		sb, sl := score(best), score(l)
		if sl > sb || (sl == sb && !created(l).Before(created(best))) {
			best = l
		}
	}
	return best
}

func summarize(l *domain.Location) LocationSummary {
	return LocationSummary{ID: l.ID, Name: l.Name, Level: l.Level, ParentID: l.ParentID, Type: l.Type}
}

func itemCounts(st *store.State) map[int]int {
	counts := make(map[int]int)
	for _, it := range st.Items {
		if it.LocationID != nil {
			counts[*it.LocationID]++
		}
	}
	return counts
}

func enrichLocation(idx *domain.LocationIndex, counts map[int]int, l *domain.Location) *LocationView {
	path := idx.Path(&l.ID)
	view := &LocationView{
		Location:         *l,
		Path:             path,
		PathString:       strings.Join(path, " => "),
		ItemCount:        counts[l.ID],
		SubLocationCount: idx.ChildCount(l.ID),
	}
	view.HasItems = view.ItemCount > 0
	view.HasSubLocations = view.SubLocationCount > 0
	return view
}
