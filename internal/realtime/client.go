package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// InboundMessage is what browsers may send over the socket.
type InboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// InboundHandler handles one message read from c.
type InboundHandler func(ctx context.Context, c *Client, msg InboundMessage)

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	topics map[string]struct{}

	SessionID string
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID string, topics []string) *Client {
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = struct{}{}
		}
	}

	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 64),
		topics:    set,
		SessionID: sessionID,
	}
}

func (c *Client) Subscribed(topic string) bool {
	_, ok := c.topics[topic]
	return ok
}

// Reply queues an event for this client only. It never blocks; the reply is
// dropped when the hub is busy, stopped or no longer knows the client.
func (c *Client) Reply(topic, kind string, payload any) {
	msg, err := json.Marshal(Event{Topic: topic, Type: kind, Payload: payload, At: time.Now().UTC()})
	if err != nil {
		return
	}

	select {
	case c.hub.replies <- reply{client: c, msg: msg}:
	case <-c.hub.done:
	default:
		zap.L().Debug("realtime reply dropped", zap.String("sessionID", c.SessionID))
	}
}

// Serve registers the client and pumps messages until the connection closes.
func (c *Client) Serve(ctx context.Context, onMessage InboundHandler) {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		_ = c.conn.Close()
		return
	}

	go c.writePump()
	c.readPump(ctx, onMessage)
}

func (c *Client) readPump(ctx context.Context, onMessage InboundHandler) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg InboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("websocket closed unexpectedly", zap.String("sessionID", c.SessionID), zap.Error(err))
			}
			return
		}
		if onMessage != nil {
			onMessage(ctx, c, msg)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
