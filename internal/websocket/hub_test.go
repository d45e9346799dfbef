package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func (h *Hub) connectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func waitForCount(t *testing.T, h *Hub, userID uuid.UUID, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.connectionCount(userID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("connection count for %s never reached %d", userID, want)
}

func TestSendDeliversToRegisteredClient(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	userID := uuid.New()
	client := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}
	hub.register <- client
	waitForCount(t, hub, userID, 1)

	hub.Send(userID, Frame{Type: "chat_updated", Data: map[string]string{"action": "created"}})

	select {
	case data := <-client.Send:
		assert.Contains(t, string(data), "chat_updated")
	case <-time.After(time.Second):
		t.Fatal("frame never delivered")
	}
}

func TestSendDropsStuckClientWithoutCrashingHub(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	userID := uuid.New()
	// One-slot buffer and nothing draining it: the second send finds the
	// buffer full and must evict the connection, not kill the hub.
	stuck := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 1)}
	hub.register <- stuck
	waitForCount(t, hub, userID, 1)

	hub.Send(userID, Frame{Type: "chat_updated"})
	hub.Send(userID, Frame{Type: "chat_updated"})

	waitForCount(t, hub, userID, 0)

	// The hub loop must still be alive and serving new clients.
	healthyID := uuid.New()
	healthy := &Client{Hub: hub, UserID: healthyID, Send: make(chan []byte, 4)}
	hub.register <- healthy
	waitForCount(t, hub, healthyID, 1)

	hub.Send(healthyID, Frame{Type: "chat_updated"})
	select {
	case <-healthy.Send:
	case <-time.After(time.Second):
		t.Fatal("hub stopped delivering after evicting a stuck client")
	}

	// Eviction closed the stuck channel exactly once.
	_, open := <-stuck.Send // drains the buffered frame
	assert.True(t, open)
	_, open = <-stuck.Send
	assert.False(t, open, "stuck client channel should be closed by unregister")
}

func TestBroadcastReachesAllUsers(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	a := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	b := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	hub.register <- a
	hub.register <- b
	waitForCount(t, hub, a.UserID, 1)
	waitForCount(t, hub, b.UserID, 1)

	hub.Broadcast(Frame{Type: "chat_updated"})

	for _, c := range []*Client{a, b} {
		select {
		case <-c.Send:
		case <-time.After(time.Second):
			t.Fatal("broadcast frame never delivered")
		}
	}
}
