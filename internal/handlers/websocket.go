package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/services/chat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// WSMessage is one frame sent to a websocket client. Progress frames carry
// the generator's stream event; the final frame carries the answer.
type WSMessage struct {
	Type   string            `json:"type"`
	Event  *chat.StreamEvent `json:"event,omitempty"`
	Result *QueryResponse    `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// WebSocket frame types
const (
	WSTypeProgress = "progress"
	WSTypeResult   = "result"
	WSTypeError    = "error"
)

// WebSocketHandler answers queries over a websocket, streaming tool activity
// before the final answer. Each connection handles one query at a time.
type WebSocketHandler struct {
	query       *QueryHandler
	idleTimeout time.Duration
	logger      arbor.ILogger
}

func NewWebSocketHandler(query *QueryHandler, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		query:       query,
		idleTimeout: wsPongTimeout,
		logger:      logger,
	}
}

// HandleWebSocket handles /ws/query
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.logger.Debug().Str("remote", r.RemoteAddr).Msg("WebSocket client connected")

	conn.SetReadDeadline(time.Now().Add(h.idleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.idleTimeout))
	})

	ctx := r.Context()
	writes := make(chan WSMessage, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(conn, writes)
	}()
	// Queued frames are flushed before the connection closes
	defer func() {
		close(writes)
		<-writerDone
	}()

	for {
		var req QueryRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket read failed")
			}
			return
		}

		// Pongs are only processed inside reads, so no deadline applies while answering
		conn.SetReadDeadline(time.Time{})

		resp, err := h.query.answer(ctx, &req, func(event *chat.StreamEvent) {
			if event.Type == chat.EventAnswer {
				return
			}
			writes <- WSMessage{Type: WSTypeProgress, Event: event}
		})
		if err != nil {
			writes <- WSMessage{Type: WSTypeError, Error: err.Error()}
		} else {
			writes <- WSMessage{Type: WSTypeResult, Result: resp}
		}

		conn.SetReadDeadline(time.Now().Add(h.idleTimeout))
	}
}

// writeLoop is the connection's only writer: it forwards frames until writes
// is closed and keeps the connection alive with pings
func (h *WebSocketHandler) writeLoop(conn *websocket.Conn, writes <-chan WSMessage) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-writes:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn().Err(err).Msg("WebSocket write failed")
				conn.Close()
				drain(writes)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				drain(writes)
				return
			}
		}
	}
}

// drain discards frames until the reader closes writes so it never blocks on a dead connection
func drain(writes <-chan WSMessage) {
	for range writes {
	}
}
