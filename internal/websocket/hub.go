// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/queuewatch/internal/events"
	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/metrics"
	"github.com/tomtom215/queuewatch/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication. Lifecycle events keep their
// event type name (stateChange, queueUpdate, ...).
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// broadcastBuffer bounds the hub's inbound queue.
const broadcastBuffer = 256

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Time time.Time   `json:"time,omitempty"`
	Data interface{} `json:"data"`
}

// SnapshotFunc returns the current lifecycle snapshot.
type SnapshotFunc func() models.Snapshot

// Hub maintains the set of active dashboard clients and broadcasts
// lifecycle events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	// snapshot, when set, greets each new client with the current state.
	snapshot SnapshotFunc
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// SetSnapshotSource makes the hub send a stateChange message with the
// current snapshot to every client as it registers. Call before
// RunWithContext.
func (h *Hub) SetSnapshotSource(fn SnapshotFunc) {
	h.snapshot = fn
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// client and returns ctx.Err().
//
// Selection is prioritized: shutdown first, then client lifecycle, then
// broadcasts, so client state is settled before a message fans out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client connected")

	if h.snapshot == nil {
		return
	}
	snap := h.snapshot()
	select {
	case client.send <- Message{Type: string(events.TypeStateChange), Time: snap.UpdatedAt, Data: snap}:
		metrics.WSMessagesSent.Inc()
	default:
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client disconnected")
}

// logGracefulShutdown closes all clients and logs the shutdown. The context
// error is expected here and is not logged as an error.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// sortedClients returns the clients ordered by ID. Callers hold h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients sends message to every client in ID order. Clients
// whose send buffer is full are dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var toRemove []*Client
	for _, client := range h.sortedClients() {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSErrors.WithLabelValues("send_buffer_full").Inc()
		logging.Warn().Uint64("client_id", client.id).Msg("websocket client too slow, disconnecting")
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

// closeAllClients closes every client in ID order.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// BroadcastEvent converts a lifecycle event into a message and queues it
// for every client. It never blocks; when the hub is backed up the event
// is dropped.
func (h *Hub) BroadcastEvent(ev events.Event) {
	h.BroadcastJSON(string(ev.Type), ev.Time, eventPayload(ev))
}

func eventPayload(ev events.Event) interface{} {
	switch {
	case ev.Snapshot != nil:
		return ev.Snapshot
	case ev.Update != nil:
		return ev.Update
	case ev.Log != nil:
		return ev.Log
	default:
		return nil
	}
}

// BroadcastJSON queues a message of the given type for every client.
func (h *Hub) BroadcastJSON(messageType string, at time.Time, data interface{}) {
	message := Message{
		Type: messageType,
		Time: at,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// Attach subscribes the hub to every event on bus. The returned function
// unsubscribes.
func (h *Hub) Attach(bus *events.Bus) func() {
	return bus.Subscribe("websocket", broadcastBuffer, h.BroadcastEvent)
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
