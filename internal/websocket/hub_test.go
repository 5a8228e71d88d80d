package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"
)

// queueOnly creates a Subscriber with a queue but no connection.
func queueOnly(hub *Hub) *Subscriber {
	return &Subscriber{hub: hub, send: make(chan []byte, queueSize)}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	s1 := queueOnly(hub)
	s2 := queueOnly(hub)
	hub.Register(s1)
	hub.Register(s2)

	if got := hub.SubscriberCount(); got != 2 {
		t.Fatalf("expected 2 subscribers, got %d", got)
	}

	hub.Unregister(s1)
	hub.Unregister(s1)
	if got := hub.SubscriberCount(); got != 1 {
		t.Fatalf("expected 1 subscriber after unregister, got %d", got)
	}

	hub.Close()
	if got := hub.SubscriberCount(); got != 0 {
		t.Fatalf("expected 0 subscribers after close, got %d", got)
	}
	if _, ok := <-s2.send; ok {
		t.Error("queue should be closed")
	}
	// Unregister after Close must not double-close the queue.
	hub.Unregister(s2)
}

func TestPublish(t *testing.T) {
	hub := NewHub(nil)

	s1 := queueOnly(hub)
	s2 := queueOnly(hub)
	hub.Register(s1)
	hub.Register(s2)
	defer hub.Close()

	hub.Publish(EntityTask, ActionUpdated, "0b6c1f0e")

	for _, s := range []*Subscriber{s1, s2} {
		select {
		case data := <-s.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "task_updated" {
				t.Errorf("type = %q, want %q", got.Type, "task_updated")
			}
			if got.Entity != EntityTask || got.Action != ActionUpdated {
				t.Errorf("entity/action = %s/%s", got.Entity, got.Action)
			}
			if got.ID != "0b6c1f0e" {
				t.Errorf("id = %q, want %q", got.ID, "0b6c1f0e")
			}
			if got.Extra != nil {
				t.Errorf("extra = %v, want nil", got.Extra)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestBroadcastFullQueue(t *testing.T) {
	hub := NewHub(slog.Default())
	s := queueOnly(hub)
	hub.Register(s)
	defer hub.Close()

	for range queueSize {
		hub.Publish(EntityGoal, ActionUpdated, "g")
	}
	hub.Publish(EntityGoal, ActionDeleted, "g")

	if got := hub.Dropped(); got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
	if got := len(s.send); got != queueSize {
		t.Errorf("queued = %d, want %d", got, queueSize)
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(EntityCategory, ActionDeleted, "c1", map[string]any{"goal_id": "g1"})
	if msg.Type != "category_deleted" {
		t.Errorf("type = %q, want %q", msg.Type, "category_deleted")
	}
	if msg.Extra["goal_id"] != "g1" {
		t.Errorf("extra = %v", msg.Extra)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := queueOnly(hub)
			hub.Register(s)
			hub.Publish(EntityTask, ActionCreated, "t")
			hub.Unregister(s)
		}()
	}
	wg.Wait()

	if got := hub.SubscriberCount(); got != 0 {
		t.Errorf("expected 0 subscribers, got %d", got)
	}
}

func TestHandlerDeliversMessages(t *testing.T) {
	hub := NewHub(slog.Default())
	srv := httptest.NewServer(Handler(hub, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	for hub.SubscriberCount() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("subscriber never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	hub.Publish(EntityGoal, ActionCreated, "g1")

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "goal_created" || got.ID != "g1" {
		t.Errorf("message = %+v", got)
	}
}
