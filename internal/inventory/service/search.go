package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/i18n"
)

// Quantity hints
const (
	QuantityLow  = "low"
	QuantityHigh = "high"
)

// Query actions
const (
	ActionCount = "count"
	ActionCheck = "check"
	ActionList  = "list"
)

var searchLocationWords = []string{"부엌", "거실", "침실", "욕실", "베란다", "창고", "서재", "옷장", "냉장고", "서랍"}

type categoryWords struct {
	category string
	words    []string
}

var searchCategoryWords = []categoryWords{
	{"전자제품", []string{"전자", "가전", "컴퓨터", "노트북", "폰", "핸드폰"}},
	{"가구", []string{"가구", "의자", "책상", "테이블", "소파"}},
	{"의류", []string{"옷", "의류", "코트", "자켓", "바지", "셔츠"}},
	{"식품", []string{"음식", "식품", "먹을", "식료품"}},
	{"도서", []string{"책", "도서", "서적"}},
	{"문구류", []string{"문구", "펜", "연필", "노트"}},
	{"주방용품", []string{"주방", "그릇", "접시", "컵", "조리"}},
	{"욕실용품", []string{"욕실", "수건", "비누", "샴푸"}},
	{"운동용품", []string{"운동", "스포츠", "공"}},
}

var searchStopwords = map[string]bool{
	"에": true, "의": true, "를": true, "을": true, "이": true, "가": true,
	"있": true, "없": true, "뭐": true, "어디": true, "얼마나": true,
}

// QueryAnalysis is what a natural-language query asks for.
type QueryAnalysis struct {
	Locations  []string `json:"locations"`
	Categories []string `json:"categories"`
	Quantity   string   `json:"quantity,omitempty"`
	Action     string   `json:"action,omitempty"`
	Keywords   []string `json:"keywords"`
}

// SearchResult is the response of a natural-language search.
type SearchResult struct {
	Success  bool          `json:"success"`
	Query    string        `json:"query"`
	Results  []*ItemView   `json:"results"`
	Count    int           `json:"count"`
	Message  string        `json:"message"`
	Analysis QueryAnalysis `json:"analysis"`
}

// SearchService answers natural-language item queries.
type SearchService struct {
	store *store.Store
}

// NewSearchService creates a new search service
func NewSearchService(st *store.Store) *SearchService {
	return &SearchService{store: st}
}

// AnalyzeQuery extracts locations, categories, quantity and action hints from query.
func AnalyzeQuery(query string) QueryAnalysis {
	q := strings.ToLower(query)
	a := QueryAnalysis{Locations: []string{}, Categories: []string{}, Keywords: []string{}}

	for _, loc := range searchLocationWords {
		if strings.Contains(q, loc) {
			a.Locations = append(a.Locations, loc)
		}
	}
	for _, cw := range searchCategoryWords {
		for _, w := range cw.words {
			if strings.Contains(q, w) {
				a.Categories = append(a.Categories, cw.category)
				break
			}
		}
	}

	switch {
	case containsAny(q, "부족", "떨어", "없"):
		a.Quantity = QuantityLow
	case containsAny(q, "많", "충분"):
		a.Quantity = QuantityHigh
	}

	switch {
	case containsAny(q, "몇", "개수", "얼마나"):
		a.Action = ActionCount
	case containsAny(q, "있", "어디"):
		a.Action = ActionCheck
	case containsAny(q, "보여", "알려", "뭐"):
		a.Action = ActionList
	}

	locs := make(map[string]bool, len(a.Locations))
	for _, l := range a.Locations {
		locs[l] = true
	}
	for _, w := range strings.Fields(q) {
		if len([]rune(w)) > 1 && !locs[w] && !searchStopwords[w] {
			a.Keywords = append(a.Keywords, w)
		}
	}
	return a
}

// Search matches items whose name, description, category or location contains any query word.
// A quantity hint narrows the matches; a query with only a hint filters every item.
func (s *SearchService) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.BadRequestKey("errors.search_query_required", nil)
	}

	analysis := AnalyzeQuery(query)
	words := strings.Fields(strings.ToLower(query))
	wantCategory := make(map[string]bool, len(analysis.Categories))
	for _, c := range analysis.Categories {
		wantCategory[c] = true
	}

	results := []*ItemView{}
	s.store.View(func(st *store.State) {
		idx := st.LocationIndex()
		var matched []*domain.Item
		for _, it := range st.Items {
			if itemMatches(st, idx, it, words, wantCategory) {
				matched = append(matched, it)
			}
		}
		if len(matched) == 0 && analysis.Quantity != "" {
			matched = st.Items
		}

		for _, it := range matched {
			switch analysis.Quantity {
			case QuantityLow:
				if !it.IsLowStock() {
					continue
				}
			case QuantityHigh:
				if it.IsLowStock() {
					continue
				}
			}
			results = append(results, enrichItem(st, idx, it))
		}
	})

	params := map[string]string{"query": query, "count": strconv.Itoa(len(results))}
	msg := i18n.TFromContext(ctx, "search.found", params)
	if len(results) == 0 {
		msg = i18n.TFromContext(ctx, "search.empty", params)
	}

	return &SearchResult{
		Success:  true,
		Query:    query,
		Results:  results,
		Count:    len(results),
		Message:  msg,
		Analysis: analysis,
	}, nil
}

func itemMatches(st *store.State, idx *domain.LocationIndex, it *domain.Item, words []string, wantCategory map[string]bool) bool {
	text := strings.ToLower(it.Name + " " + it.Description)
	var categoryName string
	if it.CategoryID != nil {
		if c := st.Category(*it.CategoryID); c != nil {
			categoryName = strings.ToLower(c.Name)
			if wantCategory[c.Name] {
				return true
			}
		}
	}
	locationPath := strings.ToLower(strings.Join(idx.Path(it.LocationID), " "))

	for _, w := range words {
		if strings.Contains(text, w) ||
			(categoryName != "" && strings.Contains(categoryName, w)) ||
			(locationPath != "" && strings.Contains(locationPath, w)) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
