package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is the envelope pushed to every websocket subscriber.
type Event struct {
	Topic   string    `json:"topic"`
	Type    string    `json:"type"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

type reply struct {
	client *Client
	msg    []byte
}

// Hub fans events out to the clients subscribed to their topic. It is the only
// writer to, and closer of, every client's send channel.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	replies    chan reply
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		replies:    make(chan reply, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Run owns the client set until ctx is done, then disconnects everybody.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case ev := <-h.broadcast:
			h.fanOut(ev)
		case r := <-h.replies:
			h.deliver(r)
		}
	}
}

// Broadcast queues an event without blocking the caller. Events are dropped
// when the queue is full.
func (h *Hub) Broadcast(topic, kind string, payload any) {
	ev := Event{Topic: topic, Type: kind, Payload: payload, At: time.Now().UTC()}

	select {
	case h.broadcast <- ev:
	default:
		zap.L().Warn("realtime queue full, dropping event", zap.String("topic", topic), zap.String("type", kind))
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func (h *Hub) fanOut(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		zap.L().Error("failed to encode realtime event", zap.String("topic", ev.Topic), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if !c.Subscribed(ev.Topic) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			// Slow consumer.
			close(c.send)
			delete(h.clients, c)
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) deliver(r reply) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[r.client]; !ok {
		return
	}
	select {
	case r.client.send <- r.msg:
	default:
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
