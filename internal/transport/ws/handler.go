package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/smita-2184/llm-eval/internal/model"
	"github.com/smita-2184/llm-eval/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler handles the live progress WebSocket
type Handler struct {
	hub      *Hub
	authSvc  *service.AuthService
	progress *service.ProgressService
	logger   *logrus.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, progress *service.ProgressService, logger *logrus.Logger) *Handler {
	return &Handler{
		hub:      hub,
		authSvc:  authSvc,
		progress: progress,
		logger:   logger,
	}
}

// ProgressWS handles GET /v1/ws/progress?token=. Each connection gets its
// own live subscription: an immediate snapshot, then one update per
// evaluation write.
func (h *Handler) ProgressWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	conn := &Connection{
		UserID: claims.UserID,
		Send:   make(chan []byte, 256),
		Hub:    h.hub,
	}
	h.hub.Register(conn)

	// The request context dies with this handler; the subscription must
	// outlive it and is torn down by the read pump instead.
	ctx, cancel := context.WithCancel(context.Background())

	cancelSub, err := h.progress.Subscribe(ctx, claims.UserID,
		func(activity *model.UserActivity) {
			conn.Push(Envelope(MsgProgressUpdate, activity))
		},
		func(err error) {
			conn.Push(Envelope(MsgError, map[string]string{"error": err.Error()}))
		},
	)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", claims.UserID).Warn("Progress subscription failed")
		cancel()
		h.hub.Unregister(conn)
		wsConn.Close()
		return
	}

	h.logger.WithField("user_id", claims.UserID).Info("Progress stream opened")

	teardown := func() {
		cancelSub()
		cancel()
	}

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn, teardown)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection, teardown func()) {
	defer func() {
		teardown()
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).Debug("WebSocket read error")
			}
			break
		}
		// Incoming frames are ignored; the stream is push-only.
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
