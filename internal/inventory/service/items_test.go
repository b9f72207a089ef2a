package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/service"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItemService(t *testing.T) (*service.ItemService, *store.Store, *fakeImages) {
	t.Helper()
	st := store.New(nil)
	images := &fakeImages{}
	return service.NewItemService(st, images, nil, nil, logger.Nop()), st, images
}

func TestItemService_CreateDefaults(t *testing.T) {
	activity := &recordedActivity{}
	svc := service.NewItemService(store.New(nil), nil, nil, activity, logger.Nop())

	view, err := svc.Create(context.Background(), service.CreateItemInput{
		Name:        "  우유 ",
		Description: " 1L ",
		CategoryID:  domain.IntPtr(4),
		LocationID:  domain.IntPtr(3),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, view.ID)
	assert.Equal(t, "우유", view.Name)
	assert.Equal(t, "1L", view.Description)
	assert.Equal(t, 1, view.Quantity)
	assert.Equal(t, "개", view.Unit)
	assert.Equal(t, "식품", *view.CategoryName)
	assert.Equal(t, []string{"주방"}, view.LocationPath)
	assert.Equal(t, "주방", view.LocationName)
	assert.Equal(t, []string{"item.created"}, activity.actions)
}

func TestItemService_CreateValidation(t *testing.T) {
	svc, _, _ := newItemService(t)

	tests := []struct {
		name  string
		input service.CreateItemInput
	}{
		{"blank name", service.CreateItemInput{Name: "   "}},
		{"negative quantity", service.CreateItemInput{Name: "라면", Quantity: domain.IntPtr(-1)}},
		{"negative price", service.CreateItemInput{Name: "라면", Price: domain.IntPtr(-5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.input, nil)
			assert.True(t, errors.Is(err, errors.ErrValidation), "got %v", err)
		})
	}

	_, err := svc.Create(context.Background(), service.CreateItemInput{Name: "라면", LocationID: domain.IntPtr(99)}, nil)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestItemService_CreateWithImage(t *testing.T) {
	svc, _, images := newItemService(t)

	view, err := svc.Create(context.Background(), service.CreateItemInput{Name: "칫솔"},
		&domain.Upload{Filename: "brush.png", ContentType: "image/png", Data: []byte{1}})
	require.NoError(t, err)

	assert.Equal(t, 1, images.saved)
	assert.Equal(t, 1, view.ImageCount)
	require.NotNil(t, view.ImageURL)
	assert.Equal(t, "/images/item_brush.png", *view.ImageURL)
}

func TestItemService_CreateSurvivesImageFailure(t *testing.T) {
	svc, _, images := newItemService(t)
	images.fail = true

	view, err := svc.Create(context.Background(), service.CreateItemInput{Name: "칫솔"},
		&domain.Upload{Filename: "brush.png", Data: []byte{1}})
	require.NoError(t, err)
	assert.Zero(t, view.ImageCount)
	assert.Nil(t, view.ImageURL)
}

func TestItemService_ListFilters(t *testing.T) {
	svc, st, _ := newItemService(t)
	locs := service.NewLocationService(st, nil, nil, logger.Nop())
	fridge, err := locs.Create(context.Background(), service.CreateLocationInput{Name: "냉장고", ParentID: domain.IntPtr(3)})
	require.NoError(t, err)

	seedItems(t, st,
		domain.Item{Name: "우유", LocationID: domain.IntPtr(fridge.ID), CategoryID: domain.IntPtr(4)},
		domain.Item{Name: "프라이팬", Description: "코팅", LocationID: domain.IntPtr(3), CategoryID: domain.IntPtr(7)},
		domain.Item{Name: "소파", LocationID: domain.IntPtr(1), CategoryID: domain.IntPtr(2)},
	)

	names := func(views []*service.ItemView) []string {
		out := []string{}
		for _, v := range views {
			out = append(out, v.Name)
		}
		return out
	}

	tests := []struct {
		name   string
		filter service.ItemFilter
		want   []string
	}{
		{"all", service.ItemFilter{}, []string{"우유", "프라이팬", "소파"}},
		{"location includes descendants", service.ItemFilter{LocationID: domain.IntPtr(3)}, []string{"우유", "프라이팬"}},
		{"category", service.ItemFilter{CategoryID: domain.IntPtr(2)}, []string{"소파"}},
		{"search description", service.ItemFilter{Search: "코팅"}, []string{"프라이팬"}},
		{"no match", service.ItemFilter{Search: "없는물건"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(svc.List(context.Background(), tt.filter)))
		})
	}

	milk := svc.List(context.Background(), service.ItemFilter{Search: "우유"})[0]
	assert.Equal(t, "주방 > 냉장고", milk.LocationName)
}

func TestItemService_UpdateMerges(t *testing.T) {
	svc, st, _ := newItemService(t)
	ids := seedItems(t, st, domain.Item{Name: "라면", Quantity: 3, LocationID: domain.IntPtr(3), CategoryID: domain.IntPtr(4)})

	var in service.UpdateItemInput
	require.NoError(t, json.Unmarshal([]byte(`{"quantity": 7, "locationId": null}`), &in))

	view, err := svc.Update(context.Background(), ids[0], in)
	require.NoError(t, err)
	assert.Equal(t, ids[0], view.ID)
	assert.Equal(t, "라면", view.Name)
	assert.Equal(t, 7, view.Quantity)
	assert.Nil(t, view.LocationID)
	require.NotNil(t, view.CategoryID)
	assert.Equal(t, 4, *view.CategoryID)
	assert.False(t, view.UpdatedAt.IsZero())

	blank := ""
	_, err = svc.Update(context.Background(), ids[0], service.UpdateItemInput{Name: &blank})
	assert.Error(t, err)

	_, err = svc.Update(context.Background(), 999, service.UpdateItemInput{})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestItemService_DeleteCascadesImages(t *testing.T) {
	svc, _, images := newItemService(t)
	view, err := svc.Create(context.Background(), service.CreateItemInput{Name: "액자"},
		&domain.Upload{Filename: "a.jpg", Data: []byte{1}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), view.ID))
	assert.Len(t, images.removed, 1)

	_, err = svc.Get(context.Background(), view.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.True(t, errors.Is(svc.Delete(context.Background(), view.ID), errors.ErrNotFound))
}

func TestItemService_DeleteImageFallsBack(t *testing.T) {
	svc, _, images := newItemService(t)
	view, err := svc.Create(context.Background(), service.CreateItemInput{Name: "액자"}, nil)
	require.NoError(t, err)

	_, err = svc.UploadImage(context.Background(), view.ID, &domain.Upload{Filename: "1.jpg"})
	require.NoError(t, err)
	second, err := svc.UploadImage(context.Background(), view.ID, &domain.Upload{Filename: "2.jpg"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteImage(context.Background(), view.ID, second.Filename))

	got, err := svc.Get(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ImageCount)
	assert.Equal(t, "/images/item_1.jpg", *got.ImageURL)
	assert.Len(t, images.removed, 1)

	assert.True(t, errors.Is(svc.DeleteImage(context.Background(), view.ID, "nope.jpg"), errors.ErrNotFound))
}
