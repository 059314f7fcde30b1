// Package ws implements the WebSocket adapter for live research event
// streaming. Clients subscribe to task ids over the socket and receive
// only events for tasks they follow.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/deepscout/deepscout/internal/port/notifier"
)

// Message is the envelope for all WebSocket messages in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Control message types sent by clients.
const (
	MsgSubscribe   = "subscribe"
	MsgUnsubscribe = "unsubscribe"
)

// SubscribePayload carries the task id a client wants to follow.
type SubscribePayload struct {
	TaskID string `json:"task_id"`
}

// conn wraps a single WebSocket connection and the set of task ids it
// follows.
type conn struct {
	ws     *websocket.Conn
	cancel context.CancelFunc

	mu    sync.Mutex
	tasks map[string]struct{}
}

func (c *conn) subscribed(taskID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tasks[taskID]
	return ok
}

func (c *conn) setSubscribed(taskID string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.tasks[taskID] = struct{}{}
	} else {
		delete(c.tasks, taskID)
	}
}

// Hub manages active connections and routes task events to subscribers.
type Hub struct {
	mu    sync.RWMutex
	conns map[*conn]struct{}
}

var _ notifier.Notifier = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*conn]struct{})}
}

// HandleWS upgrades the request to a WebSocket and serves its control
// messages until the client disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	// The read loop must outlive this handler: net/http cancels
	// r.Context() as soon as ServeHTTP returns, which would kill the
	// connection before the client can subscribe.
	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{ws: ws, cancel: cancel, tasks: make(map[string]struct{})}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr)

	go h.readLoop(ctx, c)
}

// readLoop consumes client control messages and detects disconnects.
func (h *Hub) readLoop(ctx context.Context, c *conn) {
	defer func() {
		h.remove(c)
		_ = c.ws.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("websocket bad message", "error", err)
			continue
		}

		switch msg.Type {
		case MsgSubscribe, MsgUnsubscribe:
			var p SubscribePayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil || p.TaskID == "" {
				continue
			}
			c.setSubscribed(p.TaskID, msg.Type == MsgSubscribe)
		default:
			slog.Debug("websocket unknown message type", "type", msg.Type)
		}
	}
}

// Publish sends an event to every connection subscribed to taskID.
func (h *Hub) Publish(ctx context.Context, taskID, event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "event", event, "error", err)
		return
	}
	data, err := json.Marshal(Message{Type: event, Payload: body})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		if !c.subscribed(taskID) {
			continue
		}
		if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("websocket write failed", "error", err)
			go h.remove(c)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected")
	}
}
