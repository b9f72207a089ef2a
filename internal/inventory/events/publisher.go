// Package events publishes inventory changes to RabbitMQ and the live feed.
package events

import (
	"context"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/messaging"
)

// Source identifies this service in published events.
const Source = "inventory-server"

// Sink receives published events. *messaging.Publisher and *live.Hub implement it.
type Sink interface {
	PublishEvent(ctx context.Context, event *messaging.Event) error
}

// InventoryEventPublisher publishes inventory-related events.
// A nil publisher drops everything.
type InventoryEventPublisher struct {
	sinks  []Sink
	logger *logger.Logger
}

// NewInventoryEventPublisher fans events out to every non-nil sink.
func NewInventoryEventPublisher(log *logger.Logger, sinks ...Sink) *InventoryEventPublisher {
	p := &InventoryEventPublisher{logger: log.WithComponent("events")}
	for _, s := range sinks {
		if s != nil {
			p.sinks = append(p.sinks, s)
		}
	}
	return p
}

// NewRabbitSink declares the inventory exchange on rmq.
func NewRabbitSink(rmq *messaging.RabbitMQ, log *logger.Logger) (*messaging.Publisher, error) {
	return messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, log)
}

// PublishItemChanged publishes inventory.item.created|updated|deleted.
func (p *InventoryEventPublisher) PublishItemChanged(ctx context.Context, eventType string, item *domain.Item) {
	if p == nil {
		return
	}
	p.publish(ctx, eventType, messaging.ItemChangedEvent{
		ItemID:     item.ID,
		Name:       item.Name,
		Quantity:   item.Quantity,
		LocationID: item.LocationID,
		CategoryID: item.CategoryID,
		ActorID:    httputil.GetUserID(ctx),
	})
}

// PublishStockMoved publishes inventory.stock.in|out.
func (p *InventoryEventPublisher) PublishStockMoved(ctx context.Context, item *domain.Item, entry *domain.HistoryEntry) {
	if p == nil {
		return
	}
	eventType := messaging.EventStockIn
	if entry.Type == domain.StockOut {
		eventType = messaging.EventStockOut
	}
	p.publish(ctx, eventType, messaging.StockMovedEvent{
		ItemID:           item.ID,
		Name:             item.Name,
		Quantity:         entry.Quantity,
		PreviousQuantity: entry.PreviousQuantity,
		CurrentQuantity:  entry.CurrentQuantity,
		Reason:           entry.Reason,
		ActorID:          httputil.GetUserID(ctx),
	})
}

// PublishReceiptImported publishes a bulk import summary.
func (p *InventoryEventPublisher) PublishReceiptImported(ctx context.Context, itemIDs []int, failed int, source string) {
	if p == nil {
		return
	}
	p.publish(ctx, messaging.EventReceiptImported, messaging.ReceiptImportedEvent{
		ItemIDs: itemIDs,
		Failed:  failed,
		Source:  source,
		ActorID: httputil.GetUserID(ctx),
	})
}

// PublishLocationChanged publishes a single location change.
func (p *InventoryEventPublisher) PublishLocationChanged(ctx context.Context, eventType string, loc *domain.Location) {
	if p == nil {
		return
	}
	p.publish(ctx, eventType, messaging.LocationChangedEvent{
		LocationID: loc.ID,
		Name:       loc.Name,
		ParentID:   loc.ParentID,
		Level:      loc.Level,
		ActorID:    httputil.GetUserID(ctx),
	})
}

// PublishLocationsRestructured publishes a bulk tree maintenance result.
func (p *InventoryEventPublisher) PublishLocationsRestructured(ctx context.Context, affected int) {
	if p == nil {
		return
	}
	p.publish(ctx, messaging.EventLocationsRestructure, messaging.LocationChangedEvent{
		Affected: affected,
		ActorID:  httputil.GetUserID(ctx),
	})
}

// PublishCategoryChanged publishes inventory.category.created|updated|deleted.
func (p *InventoryEventPublisher) PublishCategoryChanged(ctx context.Context, eventType string, cat *domain.Category) {
	if p == nil {
		return
	}
	p.publish(ctx, eventType, messaging.CategoryChangedEvent{
		CategoryID: cat.ID,
		Name:       cat.Name,
		ActorID:    httputil.GetUserID(ctx),
	})
}

func (p *InventoryEventPublisher) publish(ctx context.Context, eventType string, data interface{}) {
	if len(p.sinks) == 0 {
		return
	}

	correlationID := messaging.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = httputil.GetRequestID(ctx)
	}

	event, err := messaging.NewEvent(eventType, Source, correlationID, data)
	if err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to build event")
		return
	}

	for _, s := range p.sinks {
		if err := s.PublishEvent(ctx, event); err != nil {
			p.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
		}
	}
}
