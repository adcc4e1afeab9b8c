package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/ocrbot/backend/internal/logger"
	"github.com/ocrbot/backend/internal/session"
)

// WebSocket message types for the state stream
const (
	// Client -> Server messages
	MsgTypePing = "ping"
	MsgTypeDrag = "drag"

	// Server -> Client messages
	MsgTypeState = "state"
	MsgTypeError = "error"
	MsgTypePong  = "pong"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// WSMessage is the envelope for every frame in both directions
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// DragPayload carries drag-hover updates from the page
type DragPayload struct {
	Dragging bool `json:"dragging"`
}

// WSErrorResponse is the payload of an error frame
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler streams widget state to the page after every change
type WebSocketHandler struct {
	sessions SessionManager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new state stream handler
func NewWebSocketHandler(sessions SessionManager) StateStreamHandler {
	return &WebSocketHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// CORS middleware already governs which pages reach the API
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

// HandleStateStream upgrades the connection and pushes a snapshot on connect and
// after each state change until the client leaves or the session closes.
func (wsh *WebSocketHandler) HandleStateStream(c echo.Context) error {
	state, err := lookupSession(c, wsh.sessions)
	if err != nil {
		return err
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	id := shortID(state.ID)
	logger.Debug("state stream connected", "session", id)

	changes, unsubscribe := state.Controller.Subscribe()
	defer unsubscribe()

	conn := &wsConn{ws: ws}
	if err := conn.sendState(state); err != nil {
		return nil
	}

	// Reader goroutine: handles client frames and reports disconnects
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		wsh.readPump(conn, state)
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case _, ok := <-changes:
			if !ok {
				// session closed
				conn.close(websocket.CloseGoingAway, "session closed")
				return nil
			}
			if err := conn.sendState(state); err != nil {
				logger.Debug("state stream write failed", "session", id, "error", err)
				return nil
			}
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return nil
			}
		case <-gone:
			logger.Debug("state stream disconnected", "session", id)
			return nil
		}
	}
}

func (wsh *WebSocketHandler) readPump(conn *wsConn, state *session.SessionState) {
	ws := conn.ws
	ws.SetReadLimit(4 * 1024)
	ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("state stream read error", "session", shortID(state.ID), "error", err)
			}
			return
		}

		switch msg.Type {
		case MsgTypePing:
			// keep the session out of cleanup while the page is open
			wsh.sessions.Touch(state.ID)
			conn.send(WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		case MsgTypeDrag:
			var payload DragPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				conn.sendError("Invalid drag payload: "+err.Error(), "INVALID_PAYLOAD")
				continue
			}
			state.Controller.SetDragging(payload.Dragging)
		default:
			conn.sendError("Unknown message type: "+msg.Type, "INVALID_TYPE")
		}
	}
}

// wsConn serializes writes; gorilla allows one concurrent writer
type wsConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) send(msg WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.ws.WriteJSON(msg)
}

func (c *wsConn) sendState(state *session.SessionState) error {
	return c.send(WSMessage{
		Type:      MsgTypeState,
		ID:        state.ID,
		Timestamp: time.Now().UnixMilli(),
		Payload:   mustJSON(state.Snapshot()),
	})
}

func (c *wsConn) sendError(message, code string) error {
	return c.send(WSMessage{
		Type:      MsgTypeError,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSErrorResponse{
			Type:    MsgTypeError,
			Message: message,
			Code:    code,
		}),
	})
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

func (c *wsConn) close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsWriteWait))
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
