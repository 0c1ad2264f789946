package events

import (
	"context"
	"sync"
	"time"
)

// Topics published by the credential and pipeline layers.
const (
	TopicCredentialRotated = "credential.rotated"
	TopicCredentialsLoaded = "credentials.loaded"
	TopicPipelineFinished  = "pipeline.finished"
)

// Event is a message delivered to subscribers.
type Event struct {
	Topic     string            `json:"topic"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   any               `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// RotationPayload describes one cursor advance.
type RotationPayload struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Total  int    `json:"total"`
	Reason string `json:"reason"`
}

// Handler processes an incoming event.
type Handler func(context.Context, Event)

// Publisher is the write side of the hub.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any, metadata map[string]string)
}

// Subscriber is the read side of the hub.
type Subscriber interface {
	Subscribe(topic string, handler Handler) func()
}

// Hub is an in-process synchronous pub/sub bus.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[int64]Handler
	nextID int64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int64]Handler)}
}

// Subscribe registers handler for topic and returns its unsubscribe func.
func (h *Hub) Subscribe(topic string, handler Handler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if _, ok := h.subs[topic]; !ok {
		h.subs[topic] = make(map[int64]Handler)
	}
	h.subs[topic][id] = handler

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if listeners, ok := h.subs[topic]; ok {
			delete(listeners, id)
			if len(listeners) == 0 {
				delete(h.subs, topic)
			}
		}
	}
}

// Publish runs every handler of topic on the caller's goroutine.
// Handlers are snapshotted first so they may subscribe or unsubscribe freely.
func (h *Hub) Publish(ctx context.Context, topic string, payload any, metadata map[string]string) {
	if h == nil {
		return
	}
	evt := Event{
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
		Metadata:  metadata,
	}
	for _, handler := range h.snapshot(topic) {
		handler(ctx, evt)
	}
}

func (h *Hub) snapshot(topic string) []Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()

	listeners := h.subs[topic]
	if len(listeners) == 0 {
		return nil
	}
	out := make([]Handler, 0, len(listeners))
	for _, handler := range listeners {
		out = append(out, handler)
	}
	return out
}
