package ws

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgProgressUpdate MessageType = "progress_update"
	MsgError          MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub tracks the open progress connections per user
type Hub struct {
	// userID -> connections; a user may watch from several tabs
	conns map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	logger *logrus.Logger
}

// Connection represents one WebSocket subscriber
type Connection struct {
	UserID string
	Send   chan []byte
	Hub    *Hub
}

// NewHub creates a new WebSocket hub
func NewHub(logger *logrus.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.UserID] == nil {
				h.conns[conn.UserID] = make(map[*Connection]bool)
			}
			h.conns[conn.UserID][conn] = true
			h.mu.Unlock()
			h.logger.WithField("user_id", conn.UserID).Debug("Progress subscriber connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.conns[conn.UserID]; ok && conns[conn] {
				delete(conns, conn)
				if len(conns) == 0 {
					delete(h.conns, conn.UserID)
				}
				close(conn.Send)
			}
			h.mu.Unlock()
			h.logger.WithField("user_id", conn.UserID).Debug("Progress subscriber disconnected")
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Envelope marshals payload into the wire envelope. Marshal failures return
// nil, which Push treats as a no-op.
func Envelope(msgType MessageType, payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	msg, err := json.Marshal(&Message{Type: msgType, Payload: data})
	if err != nil {
		return nil
	}
	return msg
}

// Push queues a message on one connection, dropping it if the buffer is full.
func (c *Connection) Push(msg []byte) {
	if msg == nil {
		return
	}
	select {
	case c.Send <- msg:
	default:
	}
}
