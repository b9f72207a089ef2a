package messaging_test

import (
	"context"
	"testing"

	"github.com/smartinventory/smartinventory-backend/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_RoundTripsData(t *testing.T) {
	event, err := messaging.NewEvent(messaging.EventStockOut, "inventory-server", "corr-1",
		messaging.StockMovedEvent{ItemID: 3, Name: "우유", Quantity: 1, PreviousQuantity: 2, CurrentQuantity: 1})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "inventory.stock.out", event.Type)
	assert.Equal(t, "corr-1", event.CorrelationID)

	var data messaging.StockMovedEvent
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, 3, data.ItemID)
	assert.Equal(t, 1, data.CurrentQuantity)
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	a, err := messaging.NewEvent(messaging.EventItemCreated, "s", "", nil)
	require.NoError(t, err)
	b, err := messaging.NewEvent(messaging.EventItemCreated, "s", "", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, messaging.CorrelationID(context.Background()))
	ctx := messaging.WithCorrelationID(context.Background(), "req-9")
	assert.Equal(t, "req-9", messaging.CorrelationID(ctx))
}
