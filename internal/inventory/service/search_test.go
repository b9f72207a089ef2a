package service_test

import (
	"context"
	"testing"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/service"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeQuery(t *testing.T) {
	tests := []struct {
		query string
		want  service.QueryAnalysis
	}{
		{
			query: "냉장고에 우유 몇 개 있어",
			want: service.QueryAnalysis{
				Locations:  []string{"냉장고"},
				Categories: []string{},
				Action:     service.ActionCount,
				Keywords:   []string{"냉장고에", "우유", "있어"},
			},
		},
		{
			query: "부족한 음식 보여줘",
			want: service.QueryAnalysis{
				Locations:  []string{},
				Categories: []string{"식품"},
				Quantity:   service.QuantityLow,
				Action:     service.ActionList,
				Keywords:   []string{"부족한", "음식", "보여줘"},
			},
		},
		{
			query: "수건 충분해?",
			want: service.QueryAnalysis{
				Locations:  []string{},
				Categories: []string{"욕실용품"},
				Quantity:   service.QuantityHigh,
				Keywords:   []string{"수건", "충분해?"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, service.AnalyzeQuery(tt.query))
		})
	}
}

func TestSearchService_Search(t *testing.T) {
	st := store.New(nil)
	seedItems(t, st,
		domain.Item{Name: "우유", Quantity: 1, CategoryID: domain.IntPtr(4), LocationID: domain.IntPtr(3)},
		domain.Item{Name: "식빵", Quantity: 10, CategoryID: domain.IntPtr(4), LocationID: domain.IntPtr(3)},
		domain.Item{Name: "노트북", Description: "업무용", Quantity: 1, CategoryID: domain.IntPtr(1), LocationID: domain.IntPtr(2)},
	)
	svc := service.NewSearchService(st)
	ctx := context.Background()

	names := func(r *service.SearchResult) []string {
		out := []string{}
		for _, v := range r.Results {
			out = append(out, v.Name)
		}
		return out
	}

	res, err := svc.Search(ctx, "우유")
	require.NoError(t, err)
	assert.Equal(t, []string{"우유"}, names(res))
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, "\"우유\"에 대한 1개의 결과를 찾았습니다.", res.Message)

	res, err = svc.Search(ctx, "주방")
	require.NoError(t, err)
	assert.Equal(t, []string{"우유", "식빵"}, names(res), "location name matches")

	res, err = svc.Search(ctx, "업무용")
	require.NoError(t, err)
	assert.Equal(t, []string{"노트북"}, names(res), "description matches")

	res, err = svc.Search(ctx, "부족한 음식")
	require.NoError(t, err)
	assert.Equal(t, []string{"우유"}, names(res), "category hint narrowed by low stock")

	res, err = svc.Search(ctx, "자전거")
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.Equal(t, "\"자전거\"에 대한 검색 결과가 없습니다.", res.Message)

	_, err = svc.Search(ctx, "  ")
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}
