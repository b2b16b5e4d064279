package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/opsreport/notify"
)

func TestHub_BroadcastsToClients(t *testing.T) {
	// GIVEN: A hub with one connected WebSocket client
	// WHEN: A notification is sent
	// THEN: The client receives it as JSON

	hub := notify.NewHub(log.New(io.Discard, "", 0))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Notify(notify.Notification{Level: notify.LevelError, Message: "Saved locally, remote sync failed"})

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)

	var got notify.Notification
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, notify.LevelError, got.Level)
	assert.Equal(t, "Saved locally, remote sync failed", got.Message)
	assert.False(t, got.Timestamp.IsZero(), "hub stamps missing timestamps")
}

func TestHub_ClientDisconnectIsRemoved(t *testing.T) {
	hub := notify.NewHub(log.New(io.Discard, "", 0))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_NotifyAfterCloseDoesNotBlock(t *testing.T) {
	hub := notify.NewHub(log.New(io.Discard, "", 0))
	hub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Notify(notify.Notification{Message: "late"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked after Close")
	}
}
