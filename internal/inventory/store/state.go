// Package store owns the in-memory inventory state and its persistence.
package store

import (
	"sort"
	"sync"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
)

// State is the whole inventory. Pointer fields inside entities are replaced,
// never written through, so a shallow entity copy is a safe snapshot.
type State struct {
	Items          []*domain.Item
	ItemImages     map[int][]domain.ItemImage
	Locations      []*domain.Location
	Categories     []*domain.Category
	History        []*domain.HistoryEntry
	NextItemID     int
	NextLocationID int
	NextCategoryID int
	NextHistoryID  int
}

// NewSeededState returns the cold-start state.
func NewSeededState() *State {
	return &State{
		ItemImages:     make(map[int][]domain.ItemImage),
		Locations:      domain.SeedLocations(),
		Categories:     domain.SeedCategories(),
		NextItemID:     1,
		NextLocationID: domain.SeedNextLocationID,
		NextCategoryID: domain.SeedNextCategoryID,
		NextHistoryID:  1,
	}
}

// AllocItemID returns the next item id.
func (s *State) AllocItemID() int {
	id := s.NextItemID
	s.NextItemID++
	return id
}

// AllocLocationID returns the next location id.
func (s *State) AllocLocationID() int {
	id := s.NextLocationID
	s.NextLocationID++
	return id
}

// AllocCategoryID returns the next category id.
func (s *State) AllocCategoryID() int {
	id := s.NextCategoryID
	s.NextCategoryID++
	return id
}

// AppendHistory assigns an id and appends the entry.
func (s *State) AppendHistory(e *domain.HistoryEntry) {
	e.ID = s.NextHistoryID
	s.NextHistoryID++
	s.History = append(s.History, e)
}

// Item returns the item with id, or nil.
func (s *State) Item(id int) *domain.Item {
	for _, it := range s.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// Location returns the location with id, or nil.
func (s *State) Location(id int) *domain.Location {
	for _, l := range s.Locations {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Category returns the category with id, or nil.
func (s *State) Category(id int) *domain.Category {
	for _, c := range s.Categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// LocationIndex indexes the current locations.
func (s *State) LocationIndex() *domain.LocationIndex {
	return domain.NewLocationIndex(s.Locations)
}

// Clone copies the state one level deep.
func (s *State) Clone() *State {
	out := &State{
		Items:          make([]*domain.Item, len(s.Items)),
		ItemImages:     make(map[int][]domain.ItemImage, len(s.ItemImages)),
		Locations:      make([]*domain.Location, len(s.Locations)),
		Categories:     make([]*domain.Category, len(s.Categories)),
		History:        make([]*domain.HistoryEntry, len(s.History)),
		NextItemID:     s.NextItemID,
		NextLocationID: s.NextLocationID,
		NextCategoryID: s.NextCategoryID,
		NextHistoryID:  s.NextHistoryID,
	}
	for i, it := range s.Items {
		cp := *it
		out.Items[i] = &cp
	}
	for id, imgs := range s.ItemImages {
		out.ItemImages[id] = append([]domain.ItemImage(nil), imgs...)
	}
	for i, l := range s.Locations {
		cp := *l
		out.Locations[i] = &cp
	}
	for i, c := range s.Categories {
		cp := *c
		out.Categories[i] = &cp
	}
	for i, h := range s.History {
		cp := *h
		out.History[i] = &cp
	}
	return out
}

// normalize repairs counters and nil maps after a load.
func (s *State) normalize() {
	if s.ItemImages == nil {
		s.ItemImages = make(map[int][]domain.ItemImage)
	}
	s.NextItemID = max(s.NextItemID, maxItemID(s.Items)+1)
	s.NextLocationID = max(s.NextLocationID, maxLocationID(s.Locations)+1)
	s.NextCategoryID = max(s.NextCategoryID, maxCategoryID(s.Categories)+1)
	s.NextHistoryID = max(s.NextHistoryID, maxHistoryID(s.History)+1)
	sort.SliceStable(s.Items, func(i, j int) bool { return s.Items[i].ID < s.Items[j].ID })
}

func maxItemID(items []*domain.Item) int {
	m := 0
	for _, it := range items {
		m = max(m, it.ID)
	}
	return m
}

func maxLocationID(locs []*domain.Location) int {
	m := 0
	for _, l := range locs {
		m = max(m, l.ID)
	}
	return m
}

func maxCategoryID(cats []*domain.Category) int {
	m := 0
	for _, c := range cats {
		m = max(m, c.ID)
	}
	return m
}

func maxHistoryID(hist []*domain.HistoryEntry) int {
	m := 0
	for _, h := range hist {
		m = max(m, h.ID)
	}
	return m
}

// Store guards State with a read/write lock and notifies listeners after writes.
type Store struct {
	mu        sync.RWMutex
	state     *State
	listeners []func()
}

// New wraps state. A nil state starts from the seeds.
func New(state *State) *Store {
	if state == nil {
		state = NewSeededState()
	}
	state.normalize()
	return &Store{state: state}
}

// OnChange registers fn to run after every successful Update.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// View runs fn under the read lock. fn must not retain pointers into the state.
func (s *Store) View(fn func(st *State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// Update runs fn under the write lock. Listeners fire only when fn returns nil.
func (s *Store) Update(fn func(st *State) error) error {
	s.mu.Lock()
	err := fn(s.state)
	listeners := s.listeners
	s.mu.Unlock()

	if err != nil {
		return err
	}
	for _, l := range listeners {
		l()
	}
	return nil
}

// Snapshot returns a copy safe to use without the lock.
func (s *Store) Snapshot() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}
