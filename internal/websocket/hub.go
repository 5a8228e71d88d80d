// Package websocket pushes change notifications to connected UI sessions.
// Messages only name what changed; subscribers refetch through the API.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

type Entity string

const (
	EntityGoal     Entity = "goal"
	EntityCategory Entity = "category"
	EntityTask     Entity = "task"
	EntitySnapshot Entity = "snapshot"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Message is one change notification. Type is "<entity>_<action>".
type Message struct {
	Type   string         `json:"type"`
	Entity Entity         `json:"entity"`
	Action Action         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

func NewMessage(entity Entity, action Action, id string, extra map[string]any) Message {
	return Message{
		Type:   string(entity) + "_" + string(action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub fans messages out to every registered subscriber. A subscriber whose
// buffer is full misses the message rather than stalling the publisher.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	logger      *slog.Logger
	dropped     atomic.Int64
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		logger:      logger,
	}
}

func (h *Hub) Register(s *Subscriber) {
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes the subscriber and closes its queue. Safe to call twice.
func (h *Hub) Unregister(s *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.send)
	}
	h.mu.Unlock()
}

func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subscribers {
		select {
		case s.send <- data:
		default:
			h.dropped.Add(1)
			h.logger.Debug("subscriber queue full, message dropped", "type", msg.Type)
		}
	}
}

// Publish broadcasts a change without extra fields.
func (h *Hub) Publish(entity Entity, action Action, id string) {
	h.Broadcast(NewMessage(entity, action, id, nil))
}

// Close unregisters every subscriber, which ends their write loops.
func (h *Hub) Close() {
	h.mu.Lock()
	for s := range h.subscribers {
		delete(h.subscribers, s)
		close(s.send)
	}
	h.mu.Unlock()
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped reports how many deliveries were skipped because a queue was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
