// Package importer turns parsed receipt lines into inventory items.
package importer

import (
	"context"
	"strings"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/events"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/pkg/i18n"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/messaging"
)

// Import sources
const (
	SourceBulk    = "bulk"
	SourceReceipt = "receipt"
)

// Record is one item to import. SuggestedLocation is the guesser's field name and
// is used when LocationID is absent.
type Record struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Quantity          *int   `json:"quantity"`
	Unit              string `json:"unit"`
	Price             *int   `json:"price"`
	CategoryID        *int   `json:"categoryId"`
	LocationID        *int   `json:"locationId"`
	SuggestedLocation *int   `json:"suggestedLocation"`
	Note              string `json:"note"`
}

// RecordError reports a rejected record by its position in the batch.
type RecordError struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Report is the outcome of one batch.
type Report struct {
	Added  []domain.Item `json:"addedItems"`
	Errors []RecordError `json:"errors,omitempty"`
}

// ActivityLog records the import for the acting user.
type ActivityLog interface {
	RecordActivity(ctx context.Context, action string, details map[string]any)
}

// Importer writes records into the store.
type Importer struct {
	store     *store.Store
	publisher *events.InventoryEventPublisher
	activity  ActivityLog
	logger    *logger.Logger
}

// New creates an importer. publisher and activity may be nil.
func New(st *store.Store, publisher *events.InventoryEventPublisher, activity ActivityLog, log *logger.Logger) *Importer {
	return &Importer{
		store:     st,
		publisher: publisher,
		activity:  activity,
		logger:    log.WithComponent("importer"),
	}
}

// Import validates each record on its own. Valid records become an item plus a
// stock_in history entry; invalid records are reported and skipped.
func (im *Importer) Import(ctx context.Context, records []Record, source string) *Report {
	report := &Report{Added: []domain.Item{}}
	var entries []domain.HistoryEntry

	_ = im.store.Update(func(st *store.State) error {
		now := time.Now()
		for i, rec := range records {
			name := strings.TrimSpace(rec.Name)
			locationID := rec.LocationID
			if locationID == nil {
				locationID = rec.SuggestedLocation
			}

			if key := check(st, name, rec, locationID); key != "" {
				report.Errors = append(report.Errors, RecordError{
					Index: i,
					Name:  name,
					Error: i18n.TFromContext(ctx, key, nil),
				})
				continue
			}

			item := &domain.Item{
				ID:          st.AllocItemID(),
				Name:        name,
				Description: strings.TrimSpace(rec.Description),
				LocationID:  locationID,
				CategoryID:  rec.CategoryID,
				Quantity:    1,
				Unit:        domain.DefaultUnit,
				Price:       rec.Price,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if rec.Quantity != nil {
				item.Quantity = *rec.Quantity
			}
			if u := strings.TrimSpace(rec.Unit); u != "" {
				item.Unit = u
			}
			st.Items = append(st.Items, item)

			entry := &domain.HistoryEntry{
				ItemID:           item.ID,
				Type:             domain.StockIn,
				Quantity:         item.Quantity,
				PreviousQuantity: 0,
				CurrentQuantity:  item.Quantity,
				Note:             strings.TrimSpace(rec.Note),
				Reason:           domain.ReasonReceiptImport,
				CreatedAt:        now,
			}
			st.AppendHistory(entry)

			report.Added = append(report.Added, *item)
			entries = append(entries, *entry)
		}
		return nil
	})

	ids := make([]int, len(report.Added))
	for i := range report.Added {
		item := &report.Added[i]
		ids[i] = item.ID
		im.publisher.PublishItemChanged(ctx, messaging.EventItemCreated, item)
		im.publisher.PublishStockMoved(ctx, item, &entries[i])
	}
	im.publisher.PublishReceiptImported(ctx, ids, len(report.Errors), source)

	if im.activity != nil && len(ids) > 0 {
		im.activity.RecordActivity(ctx, "items.imported", map[string]any{
			"count": len(ids), "failed": len(report.Errors), "source": source,
		})
	}

	im.logger.Info().
		Str("source", source).
		Int("added", len(report.Added)).
		Int("failed", len(report.Errors)).
		Msg("items imported")
	return report
}

// check returns the i18n key describing why rec cannot be imported, or "".
func check(st *store.State, name string, rec Record, locationID *int) string {
	switch {
	case name == "":
		return "import.name_required"
	case rec.Quantity != nil && *rec.Quantity < 0:
		return "import.negative_quantity"
	case rec.Price != nil && *rec.Price < 0:
		return "import.negative_price"
	case locationID != nil && st.Location(*locationID) == nil:
		return "import.unknown_location"
	case rec.CategoryID != nil && st.Category(*rec.CategoryID) == nil:
		return "import.unknown_category"
	}
	return ""
}
