package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Item events
	EventItemCreated = "inventory.item.created"
	EventItemUpdated = "inventory.item.updated"
	EventItemDeleted = "inventory.item.deleted"
	EventItemImage   = "inventory.item.image"

	// Stock events
	EventStockIn  = "inventory.stock.in"
	EventStockOut = "inventory.stock.out"

	// Receipt events
	EventReceiptImported = "inventory.receipt.imported"

	// Location events
	EventLocationCreated      = "inventory.location.created"
	EventLocationUpdated      = "inventory.location.updated"
	EventLocationDeleted      = "inventory.location.deleted"
	EventLocationsRestructure = "inventory.location.restructured"

	// Category events
	EventCategoryCreated = "inventory.category.created"
	EventCategoryUpdated = "inventory.category.updated"
	EventCategoryDeleted = "inventory.category.deleted"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ItemChangedEvent is published when an item is created, updated or deleted
type ItemChangedEvent struct {
	ItemID     int    `json:"item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	LocationID *int   `json:"location_id,omitempty"`
	CategoryID *int   `json:"category_id,omitempty"`
	ActorID    string `json:"actor_id,omitempty"`
}

// StockMovedEvent is published on stock-in and stock-out
type StockMovedEvent struct {
	ItemID           int    `json:"item_id"`
	Name             string `json:"name"`
	Quantity         int    `json:"quantity"`
	PreviousQuantity int    `json:"previous_quantity"`
	CurrentQuantity  int    `json:"current_quantity"`
	Reason           string `json:"reason,omitempty"`
	ActorID          string `json:"actor_id,omitempty"`
}

// ReceiptImportedEvent is published after a bulk or receipt import
type ReceiptImportedEvent struct {
	ItemIDs []int  `json:"item_ids"`
	Failed  int    `json:"failed"`
	Source  string `json:"source,omitempty"`
	ActorID string `json:"actor_id,omitempty"`
}

// LocationChangedEvent is published when the location tree changes
type LocationChangedEvent struct {
	LocationID int    `json:"location_id,omitempty"`
	Name       string `json:"name,omitempty"`
	ParentID   *int   `json:"parent_id,omitempty"`
	Level      int    `json:"level"`
	Affected   int    `json:"affected,omitempty"`
	ActorID    string `json:"actor_id,omitempty"`
}

// CategoryChangedEvent is published when a category changes
type CategoryChangedEvent struct {
	CategoryID int    `json:"category_id"`
	Name       string `json:"name"`
	ActorID    string `json:"actor_id,omitempty"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.NewString()
}
