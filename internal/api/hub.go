package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	sendBuffer = 64
	maxMessage = 4096
)

// Message is the envelope for every websocket frame.
type Message struct {
	Type      string  `json:"type"`
	Data      any     `json:"data,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// subscriber owns one connection. Only its write pump writes to conn.
type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// queue hands data to the write pump without blocking. It reports false when
// the buffer is full or the subscriber is gone.
func (s *subscriber) queue(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

func (s *subscriber) queueJSON(m Message) bool {
	data, err := json.Marshal(m)
	if err != nil {
		slog.Error("marshal message", "type", m.Type, "error", err)
		return false
	}
	return s.queue(data)
}

// Hub tracks websocket subscribers and fans simulation frames out to them.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	upgrader    websocket.Upgrader
	now         func() time.Time

	pongWait   time.Duration
	sendBuffer int
}

// NewHub returns a hub whose upgrader accepts the given origins. An empty
// list accepts any origin.
func NewHub(origins []string) *Hub {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Hub{
		subscribers: make(map[string]*subscriber),
		now:         time.Now,
		pongWait:    pongWait,
		sendBuffer:  sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Len reports the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) add(conn *websocket.Conn) *subscriber {
	sub := &subscriber{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.subscribers[sub.id] = sub
	h.mu.Unlock()
	slog.Info("websocket connected", "client", sub.id, "remote", conn.RemoteAddr().String())
	return sub
}

// remove is idempotent; the first call stops the write pump and closes conn.
func (h *Hub) remove(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	delete(h.subscribers, id)
	h.mu.Unlock()
	if !ok {
		return
	}
	close(sub.done)
	if sub.conn != nil {
		sub.conn.Close()
	}
	slog.Info("websocket disconnected", "client", id)
}

// Broadcast queues m for every subscriber. It never blocks on a slow
// client: one whose buffer is full is dropped.
func (h *Hub) Broadcast(m Message) {
	h.mu.Lock()
	if len(h.subscribers) == 0 {
		h.mu.Unlock()
		return
	}
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	data, err := json.Marshal(m)
	if err != nil {
		slog.Error("marshal broadcast", "type", m.Type, "error", err)
		return
	}

	for _, sub := range subs {
		if !sub.queue(data) {
			slog.Warn("websocket client too slow", "client", sub.id)
			h.remove(sub.id)
		}
	}
}

// writePump drains the send buffer and pings the client every 9/10 of the
// pong wait so silent subscribers stay connected.
func (h *Hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(h.pongWait * 9 / 10)
	defer ticker.Stop()
	defer h.remove(sub.id)

	for {
		select {
		case <-sub.done:
			return
		case data := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Warn("websocket send failed", "client", sub.id, "error", err)
				return
			}
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Debug("websocket ping failed", "client", sub.id, "error", err)
				return
			}
		}
	}
}

// Serve upgrades r, sends initial, then answers pings until the client leaves.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial func() any) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	sub := h.add(conn)
	defer h.remove(sub.id)
	go h.writePump(sub)

	if !sub.queueJSON(Message{Type: "initial_state", Data: initial()}) {
		return
	}

	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read", "client", sub.id, "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(h.pongWait))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			ts := float64(h.now().UnixNano()) / 1e9
			if !sub.queueJSON(Message{Type: "pong", Timestamp: ts}) {
				return
			}
		}
	}
}
