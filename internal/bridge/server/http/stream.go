package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autopeer-io/carbridge/internal/bridge/status"
	"github.com/autopeer-io/carbridge/pkg/log"
)

const (
	streamBuffer = 64
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamMessage is one frame of the change stream.
// Type is "snapshot", "field" or "status".
type StreamMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type streamSnapshot struct {
	Fields map[string]any  `json:"fields"`
	Status status.Snapshot `json:"status"`
}

// handleStream pushes a snapshot followed by every field and status change.
// Slow clients miss intermediate changes rather than blocking the bridge.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(err, "Failed to upgrade connection")
		return
	}
	defer conn.Close()

	updates, cancelUpdates := s.deps.Fields.Subscribe(streamBuffer)
	defer cancelUpdates()
	changes, cancelChanges := s.deps.Status.Subscribe(streamBuffer)
	defer cancelChanges()

	logger := log.WithValues("remote", r.RemoteAddr)
	logger.Info("Stream client connected")
	defer logger.Info("Stream client disconnected")

	closed := make(chan struct{})
	go readPump(conn, closed)

	send := func(msg StreamMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			logger.Debug("Stream write failed", "error", err.Error())
			return false
		}
		return true
	}

	if !send(StreamMessage{Type: "snapshot", Data: streamSnapshot{
		Fields: s.deps.Fields.Snapshot(),
		Status: s.deps.Status.Snapshot(),
	}}) {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case u, ok := <-updates:
			if !ok || !send(StreamMessage{Type: "field", Data: u}) {
				return
			}
		case c, ok := <-changes:
			if !ok || !send(StreamMessage{Type: "status", Data: c}) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// readPump discards client frames and closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("Stream read failed", "error", err.Error())
			}
			return
		}
	}
}
