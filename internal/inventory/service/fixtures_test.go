package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	mu      sync.Mutex
	saved   int
	removed []domain.ItemImage
	fail    bool
}

func (f *fakeImages) SaveItemImage(_ context.Context, itemID int, up *domain.Upload) (*domain.ItemImage, error) {
	return f.save("item", itemID, up)
}

func (f *fakeImages) SaveLocationImage(_ context.Context, id int, up *domain.Upload) (*domain.ItemImage, error) {
	return f.save("location", id, up)
}

func (f *fakeImages) save(kind string, id int, up *domain.Upload) (*domain.ItemImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("disk full")
	}
	f.saved++
	name := kind + "_" + up.Filename
	return &domain.ItemImage{URL: "/images/" + name, Thumbnail: "/thumbnails/thumb_" + name, Filename: name}, nil
}

func (f *fakeImages) RemoveImages(_ context.Context, images []domain.ItemImage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, images...)
}

type recordedActivity struct {
	mu      sync.Mutex
	actions []string
}

func (r *recordedActivity) RecordActivity(_ context.Context, action string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

// seedItems adds items directly to the store and returns their ids.
func seedItems(t *testing.T, st *store.Store, items ...domain.Item) []int {
	t.Helper()
	var ids []int
	require.NoError(t, st.Update(func(s *store.State) error {
		for _, it := range items {
			it := it
			it.ID = s.AllocItemID()
			if it.Unit == "" {
				it.Unit = domain.DefaultUnit
			}
			s.Items = append(s.Items, &it)
			ids = append(ids, it.ID)
		}
		return nil
	}))
	return ids
}
