package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Hub tracks live connections and their room groups, and implements
// the three delivery primitives the handlers need: send to one
// connection, to a room, or to everyone. Delivery is fire-and-forget:
// a connection whose send buffer is full is dropped.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "hub"),
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

func (that *Hub) Register(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[client.id] = client
}

// Unregister removes the client from the registry and from every room
// group it joined.
func (that *Hub) Unregister(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.clients[client.id]; !ok {
		return
	}

	delete(that.clients, client.id)
	close(client.send)

	for roomID, members := range that.rooms {
		delete(members, client.id)
		if len(members) == 0 {
			delete(that.rooms, roomID)
		}
	}
}

// JoinGroup adds the client to a room group. Players and spectators
// are not distinguished here, a group is purely a delivery target.
func (that *Hub) JoinGroup(roomID string, client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	members, ok := that.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		that.rooms[roomID] = members
	}

	members[client.id] = client
}

// DropGroup forgets a room group, used once the room is destroyed.
func (that *Hub) DropGroup(roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, roomID)
}

// SendTo delivers one message to one connection.
func (that *Hub) SendTo(connID, action string, payload any) {
	data, err := envelope(action, payload)
	if err != nil {
		that.logger.Error("failed to marshal message", "action", action, "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	client, ok := that.clients[connID]
	if !ok {
		that.logger.Warn("connection not found", "connID", connID)
		return
	}

	that.push(client, data)
}

// SendToRoom delivers one message to every member of a room group,
// spectators included.
func (that *Hub) SendToRoom(roomID, action string, payload any) {
	data, err := envelope(action, payload)
	if err != nil {
		that.logger.Error("failed to marshal message", "action", action, "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, client := range that.rooms[roomID] {
		that.push(client, data)
	}
}

// Broadcast delivers one message to every live connection.
func (that *Hub) Broadcast(action string, payload any) {
	data, err := envelope(action, payload)
	if err != nil {
		that.logger.Error("failed to marshal message", "action", action, "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, client := range that.clients {
		that.push(client, data)
	}
}

// push runs with the hub lock held (shared or exclusive): Unregister
// closes send channels under the exclusive lock, so no send can race
// the close.
func (that *Hub) push(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		// slow consumer, at-most-once delivery means we drop it
		that.logger.Warn("send buffer full, dropping connection", "connID", client.id)
		client.conn.Close()
	}
}

func envelope(action string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	return data, nil
}
