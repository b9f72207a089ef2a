package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
)

// Resource names, one persisted document each.
const (
	ResourceItems      = "items"
	ResourceLocations  = "locations"
	ResourceCategories = "categories"
	ResourceHistory    = "inventory_history"
)

// Resources lists every persisted resource.
var Resources = []string{ResourceItems, ResourceLocations, ResourceCategories, ResourceHistory}

// utf8BOM prefixes every file written to disk.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileName returns the on-disk file name of a resource.
func FileName(resource string) string {
	return resource + ".json"
}

// Documents maps resource name to its JSON document.
type Documents map[string][]byte

type itemsDoc struct {
	Items      []*domain.Item             `json:"items"`
	NextID     int                        `json:"nextId"`
	ItemImages map[int][]domain.ItemImage `json:"itemImages"`
	LastSaved  *time.Time                 `json:"lastSaved,omitempty"`
}

type locationsDoc struct {
	Locations      []*domain.Location `json:"locations"`
	NextLocationID int                `json:"nextLocationId"`
	LastSaved      *time.Time         `json:"lastSaved,omitempty"`
}

type categoriesDoc struct {
	Categories     []*domain.Category `json:"categories"`
	NextCategoryID int                `json:"nextCategoryId"`
	LastSaved      *time.Time         `json:"lastSaved,omitempty"`
}

type historyDoc struct {
	History   []*domain.HistoryEntry `json:"history"`
	NextID    int                    `json:"nextId"`
	LastSaved *time.Time             `json:"lastSaved,omitempty"`
}

// Encode renders the state as four 2-space indented documents without BOM.
func Encode(s *State, savedAt time.Time) (Documents, error) {
	saved := savedAt.UTC()
	items := s.Items
	if items == nil {
		items = []*domain.Item{}
	}
	history := s.History
	if history == nil {
		history = []*domain.HistoryEntry{}
	}

	docs := make(Documents, len(Resources))
	for resource, v := range map[string]any{
		ResourceItems:      itemsDoc{Items: items, NextID: s.NextItemID, ItemImages: s.ItemImages, LastSaved: &saved},
		ResourceLocations:  locationsDoc{Locations: s.Locations, NextLocationID: s.NextLocationID, LastSaved: &saved},
		ResourceCategories: categoriesDoc{Categories: s.Categories, NextCategoryID: s.NextCategoryID, LastSaved: &saved},
		ResourceHistory:    historyDoc{History: history, NextID: s.NextHistoryID, LastSaved: &saved},
	} {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", resource, err)
		}
		docs[resource] = b
	}
	return docs, nil
}

// Decode builds a state from documents. Missing items or history start empty,
// missing locations or categories start from the seeds.
func Decode(docs Documents) (*State, error) {
	s := NewSeededState()

	if b, ok := docs[ResourceItems]; ok {
		var d itemsDoc
		if err := json.Unmarshal(StripBOM(b), &d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ResourceItems, err)
		}
		s.Items = d.Items
		s.NextItemID = max(d.NextID, 1)
		if d.ItemImages != nil {
			s.ItemImages = d.ItemImages
		}
	}

	if b, ok := docs[ResourceLocations]; ok {
		var d locationsDoc
		if err := json.Unmarshal(StripBOM(b), &d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ResourceLocations, err)
		}
		if d.Locations != nil {
			s.Locations = d.Locations
			s.NextLocationID = max(d.NextLocationID, 1)
		}
	}

	if b, ok := docs[ResourceCategories]; ok {
		var d categoriesDoc
		if err := json.Unmarshal(StripBOM(b), &d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ResourceCategories, err)
		}
		if d.Categories != nil {
			s.Categories = d.Categories
			s.NextCategoryID = max(d.NextCategoryID, 1)
		}
	}

	if b, ok := docs[ResourceHistory]; ok {
		var d historyDoc
		if err := json.Unmarshal(StripBOM(b), &d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ResourceHistory, err)
		}
		s.History = d.History
		s.NextHistoryID = max(d.NextID, 1)
	}

	s.normalize()
	return s, nil
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, utf8BOM)
}

// WithBOM prefixes b with a UTF-8 byte order mark.
func WithBOM(b []byte) []byte {
	out := make([]byte, 0, len(utf8BOM)+len(b))
	out = append(out, utf8BOM...)
	return append(out, b...)
}
