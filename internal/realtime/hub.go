// Package realtime pushes job updates and performance controls to
// WebSocket clients.
//
// Every frame is a JSON envelope:
//
//	{"event": "job_updated", "data": {...}, "timestamp": 1700000000000}
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/cesargomez89/openkaraoke/internal/app"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/logger"
	"github.com/cesargomez89/openkaraoke/internal/metrics"
)

// Client events
const (
	EventJoinPerformance  = "join_performance"
	EventLeavePerformance = "leave_performance"
	EventUpdateControl    = "update_performance_control"
	EventPing             = "ping"
)

// Server events
const (
	EventConnected        = "connected"
	EventPerformanceState = "performance_state"
	EventControlUpdated   = "control_updated"
	EventPong             = "pong"
	EventError            = "error"
)

// RoomPerformance groups the devices sharing performance controls.
const RoomPerformance = "performance"

type Message struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// NewMessage builds an envelope stamped with the current time.
func NewMessage(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Event: event, Data: raw, Timestamp: time.Now().UnixMilli()})
}

type ControlUpdate struct {
	Control string          `json:"control"`
	Value   json.RawMessage `json:"value"`
}

type ControlUpdated struct {
	Control string                     `json:"control"`
	Value   interface{}                `json:"value"`
	State   domain.PerformanceControls `json:"state"`
}

type broadcastMessage struct {
	room    string
	message []byte
}

// Hub tracks connected clients and their rooms. Run must be started before
// anything is broadcast.
type Hub struct {
	clients     map[*Client]bool
	rooms       map[string]map[*Client]bool
	unregister  chan *Client
	broadcast   chan *broadcastMessage
	done        chan struct{}
	performance *app.PerformanceService
	logger      *logger.Logger
	mu          sync.RWMutex
	stopOnce    sync.Once
}

func NewHub(performance *app.PerformanceService, log *logger.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		unregister:  make(chan *Client),
		broadcast:   make(chan *broadcastMessage, 256),
		done:        make(chan struct{}),
		performance: performance,
		logger:      log.WithComponent("realtime"),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds c to the hub. Its Send channel is closed right away when the hub has stopped.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	select {
	case <-h.done:
		h.closeClient(c)
		h.mu.Unlock()
		return
	default:
	}
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.ClientConnected()
	h.logger.Debug("Client connected", "client_id", c.ID, "clients", count)
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// closeClient closes c.Send once. Callers hold h.mu for writing.
func (h *Hub) closeClient(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

func (h *Hub) unregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for name, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, name)
		}
	}
	h.closeClient(c)
	metrics.ClientDisconnected()
	h.logger.Debug("Client disconnected", "client_id", c.ID)
}

// deliver fans a message out to a room, or to everyone when room is empty.
// Clients whose buffer is full are dropped.
func (h *Hub) deliver(msg *broadcastMessage) {
	h.mu.RLock()
	targets := h.clients
	if msg.room != "" {
		targets = h.rooms[msg.room]
	}
	var full []*Client
	for c := range targets {
		if c.closed {
			continue
		}
		select {
		case c.Send <- msg.message:
		default:
			full = append(full, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range full {
		go h.Unregister(c)
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		h.closeClient(c)
		metrics.ClientDisconnected()
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
}

// Broadcast queues data for every client in room ("" for all clients).
func (h *Hub) Broadcast(room string, data []byte) {
	select {
	case h.broadcast <- &broadcastMessage{room: room, message: data}:
	case <-h.done:
	}
}

// PublishJob broadcasts a job lifecycle event to every client.
func (h *Hub) PublishJob(event string, job *domain.Job) {
	if job == nil {
		return
	}
	data, err := NewMessage(event, job)
	if err != nil {
		h.logger.Warn("Failed to encode job event", "event", event, "error", err)
		return
	}
	h.Broadcast("", data)
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) inRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[room][c]
}

// RoomSize returns the number of clients in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handle executes one client message.
func (h *Hub) handle(c *Client, msg *Message) {
	switch msg.Event {
	case EventPing:
		c.send(EventPong, struct{}{})

	case EventJoinPerformance:
		h.join(c, RoomPerformance)
		c.send(EventPerformanceState, h.performance.State())

	case EventLeavePerformance:
		h.leave(c, RoomPerformance)

	case EventUpdateControl:
		var req ControlUpdate
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.Control == "" {
			c.sendError("update_performance_control requires {control, value}")
			return
		}
		value, state, err := h.performance.Update(req.Control, req.Value)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		data, err := NewMessage(EventControlUpdated, ControlUpdated{Control: req.Control, Value: value, State: state})
		if err != nil {
			return
		}
		if !h.inRoom(c, RoomPerformance) {
			c.sendRaw(data)
		}
		h.Broadcast(RoomPerformance, data)

	default:
		c.sendError("unknown event: " + msg.Event)
	}
}
