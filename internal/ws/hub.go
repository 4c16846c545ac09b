// Package ws pushes server-side notifications to connected clients.
// Connections are authenticated at upgrade time with the same guard as HTTP
// requests; a user may hold several connections at once.
package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conn is the subset of a websocket connection the hub needs, kept narrow so
// tests can substitute a fake.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Notification struct {
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

type Hub struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uuid.UUID]map[Conn]struct{})}
}

// Add registers a connection for a user.
func (h *Hub) Add(userID uuid.UUID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[userID]; !ok {
		h.conns[userID] = make(map[Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
	slog.Info("ws connected", "user_id", userID, "connections", len(h.conns[userID]))
}

// Remove closes and forgets a connection.
func (h *Hub) Remove(userID uuid.UUID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(userID, conn)
}

func (h *Hub) removeLocked(userID uuid.UUID, conn Conn) {
	if conns, ok := h.conns[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.conns, userID)
		}
	}
	_ = conn.Close()
}

// Send delivers a notification to every connection of a user. Connections
// that fail to write are dropped; a user with no connections is a no-op.
func (h *Hub) Send(userID uuid.UUID, title, body string) {
	msg := Notification{Title: title, Body: body, SentAt: time.Now().UTC()}

	h.mu.Lock()
	defer h.mu.Unlock()
	var dead []Conn
	for conn := range h.conns[userID] {
		if err := conn.WriteJSON(msg); err != nil {
			dead = append(dead, conn)
		}
	}
	for _, conn := range dead {
		h.removeLocked(userID, conn)
	}
}

// ConnectionCount reports how many connections a user currently holds.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}
