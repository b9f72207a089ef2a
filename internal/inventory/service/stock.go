package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/events"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/i18n"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

// recentHistoryLimit is how many movements the status view shows per item.
const recentHistoryLimit = 5

// StockService records stock movements.
type StockService struct {
	store     *store.Store
	publisher *events.InventoryEventPublisher
	activity  ActivityLog
	logger    *logger.Logger
}

// NewStockService creates a new stock service
func NewStockService(st *store.Store, publisher *events.InventoryEventPublisher, activity ActivityLog, log *logger.Logger) *StockService {
	return &StockService{
		store:     st,
		publisher: publisher,
		activity:  activity,
		logger:    log,
	}
}

// StockRequest is the body of a stock-in or stock-out request.
type StockRequest struct {
	ItemID   int    `json:"itemId"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
	Reason   string `json:"reason"`
}

// StockResult is returned by StockIn and StockOut.
type StockResult struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Item    domain.Item         `json:"item"`
	History domain.HistoryEntry `json:"history"`
}

// ItemStatus is an item with its stock flags and latest movements.
type ItemStatus struct {
	*ItemView
	RecentHistory []domain.HistoryEntry `json:"recentHistory"`
	IsLowStock    bool                  `json:"isLowStock"`
	IsOutOfStock  bool                  `json:"isOutOfStock"`
}

// StockStatistics summarises stock levels.
type StockStatistics struct {
	TotalItems      int `json:"totalItems"`
	LowStockItems   int `json:"lowStockItems"`
	OutOfStockItems int `json:"outOfStockItems"`
	TotalQuantity   int `json:"totalQuantity"`
}

// StockStatus is the stock overview.
type StockStatus struct {
	Items      []ItemStatus    `json:"items"`
	Statistics StockStatistics `json:"statistics"`
}

// StockIn adds quantity to an item.
func (s *StockService) StockIn(ctx context.Context, req StockRequest) (*StockResult, error) {
	return s.move(ctx, domain.StockIn, req)
}

// StockOut removes quantity from an item. Quantity never goes negative.
func (s *StockService) StockOut(ctx context.Context, req StockRequest) (*StockResult, error) {
	return s.move(ctx, domain.StockOut, req)
}

func (s *StockService) move(ctx context.Context, kind domain.HistoryType, req StockRequest) (*StockResult, error) {
	if req.ItemID <= 0 || req.Quantity <= 0 {
		return nil, errors.BadRequestKey("errors.stock_request_invalid", nil)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = domain.ReasonStockIn
		if kind == domain.StockOut {
			reason = domain.ReasonStockOut
		}
	}

	var (
		item  domain.Item
		entry domain.HistoryEntry
	)
	err := s.store.Update(func(st *store.State) error {
		it := st.Item(req.ItemID)
		if it == nil {
			return errors.NotFound("item")
		}

		prev := it.Quantity
		next := prev + req.Quantity
		if kind == domain.StockOut {
			if req.Quantity > prev {
				return errors.InsufficientStock(prev, req.Quantity, it.Unit)
			}
			next = prev - req.Quantity
		}

		now := time.Now()
		it.Quantity = next
		it.UpdatedAt = now

		e := &domain.HistoryEntry{
			ItemID:           it.ID,
			Type:             kind,
			Quantity:         req.Quantity,
			PreviousQuantity: prev,
			CurrentQuantity:  next,
			Note:             strings.TrimSpace(req.Note),
			Reason:           reason,
			CreatedAt:        now,
		}
		st.AppendHistory(e)

		item = *it
		entry = *e
		return nil
	})
	if err != nil {
		return nil, err
	}

	key := "stock.in_done"
	if kind == domain.StockOut {
		key = "stock.out_done"
	}
	msg := i18n.TFromContext(ctx, key, map[string]string{
		"name":     item.Name,
		"quantity": strconv.Itoa(req.Quantity),
		"unit":     item.Unit,
	})

	s.logger.Info().
		Int("item_id", item.ID).
		Str("type", string(kind)).
		Int("quantity", req.Quantity).
		Int("current", item.Quantity).
		Msg("stock moved")
	s.publisher.PublishStockMoved(ctx, &item, &entry)
	recordActivity(ctx, s.activity, "stock."+strings.TrimPrefix(string(kind), "stock_"), map[string]any{
		"itemId": item.ID, "name": item.Name, "quantity": req.Quantity,
	})

	return &StockResult{Success: true, Message: msg, Item: item, History: entry}, nil
}

// History lists movements newest first, optionally for one item.
func (s *StockService) History(ctx context.Context, itemID *int) []domain.HistoryEntry {
	out := []domain.HistoryEntry{}
	s.store.View(func(st *store.State) {
		for _, h := range st.History {
			if itemID != nil && h.ItemID != *itemID {
				continue
			}
			out = append(out, *h)
		}
	})
	sortHistoryNewestFirst(out)
	return out
}

// Status returns every item with stock flags plus totals.
func (s *StockService) Status(ctx context.Context) *StockStatus {
	status := &StockStatus{Items: []ItemStatus{}}
	s.store.View(func(st *store.State) {
		byItem := make(map[int][]domain.HistoryEntry)
		for _, h := range st.History {
			byItem[h.ItemID] = append(byItem[h.ItemID], *h)
		}

		idx := st.LocationIndex()
		for _, it := range st.Items {
			recent := byItem[it.ID]
			sortHistoryNewestFirst(recent)
			if len(recent) > recentHistoryLimit {
				recent = recent[:recentHistoryLimit]
			}
			if recent == nil {
				recent = []domain.HistoryEntry{}
			}

			row := ItemStatus{
				ItemView:      enrichItem(st, idx, it),
				RecentHistory: recent,
				IsLowStock:    it.IsLowStock(),
				IsOutOfStock:  it.IsOutOfStock(),
			}
			status.Items = append(status.Items, row)

			status.Statistics.TotalItems++
			status.Statistics.TotalQuantity += it.Quantity
			switch {
			case row.IsOutOfStock:
				status.Statistics.OutOfStockItems++
			case row.IsLowStock:
				status.Statistics.LowStockItems++
			}
		}
	})
	return status
}
