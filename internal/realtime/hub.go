// Package realtime pushes order, delivery and tracking events to connected
// clients over WebSocket. Each user has a room; publishing to an absent room
// is a no-op, so emitters never need to know who is online.
package realtime

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Event types pushed to clients.
const (
	EventOrderCreated   = "order_created"
	EventDeliveryStatus = "delivery_status"
	EventLocationUpdate = "location_update"
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub fans events out to per-user rooms. It is constructed in main and
// injected wherever events are emitted; there is no package-level instance.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*websocket.Conn]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*websocket.Conn]struct{})}
}

// Register adds a connection to the user's room.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		conn.Close()
		return
	}
	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*websocket.Conn]struct{})
		h.rooms[userID] = room
	}
	room[conn] = struct{}{}
}

// Unregister removes a connection and drops the room when it empties.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[userID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, userID)
		}
	}
}

// Publish sends an event to every connection in the user's room. Connections
// that fail to write are closed and dropped.
func (h *Hub) Publish(userID string, ev Event) {
	h.mu.RLock()
	room := h.rooms[userID]
	conns := make([]*websocket.Conn, 0, len(room))
	for conn := range room {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("realtime: write to user %s: %v", userID, err)
			conn.Close()
			h.Unregister(userID, conn)
		}
	}
}

// Close shuts every connection and rejects further registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for userID, room := range h.rooms {
		for conn := range room {
			conn.Close()
		}
		delete(h.rooms, userID)
	}
}
