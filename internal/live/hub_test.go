package live_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/smartinventory/smartinventory-backend/internal/live"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/messaging"
	"github.com/smartinventory/smartinventory-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestHub_DeliversEvents(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	hub := live.NewHub(logger.Nop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	srv := httptest.NewServer(hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	testutil.RequireEventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, "client never registered")

	event, err := messaging.NewEvent(messaging.EventStockIn, "inventory-server", "corr-1", map[string]int{"itemId": 1})
	require.NoError(t, err)
	require.NoError(t, hub.PublishEvent(ctx, event))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got messaging.Event
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, messaging.EventStockIn, got.Type)
	assert.Equal(t, "corr-1", got.CorrelationID)

	require.NoError(t, conn.Close())
	testutil.RequireEventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, "client never left")

	cancel()
	<-stopped
	srv.Close()
}

func TestHub_PublishAfterStopDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	hub := live.NewHub(logger.Nop())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	event, err := messaging.NewEvent(messaging.EventItemCreated, "inventory-server", "", nil)
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		require.NoError(t, hub.PublishEvent(context.Background(), event))
	}

	var nilHub *live.Hub
	assert.NoError(t, nilHub.PublishEvent(context.Background(), event))
}
