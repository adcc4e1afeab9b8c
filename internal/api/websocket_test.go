package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ocrbot/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStateStream(t *testing.T, env *testEnv, sessionID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.echo)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + sessionID + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) WSMessage {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

// readStateUntil reads state frames until match accepts one
func readStateUntil(t *testing.T, ws *websocket.Conn, match func(models.WidgetState) bool) models.WidgetState {
	t.Helper()
	for {
		msg := readFrame(t, ws)
		if msg.Type != MsgTypeState {
			continue
		}
		var state models.WidgetState
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		if match(state) {
			return state
		}
	}
}

func TestStateStream_PushesChanges(t *testing.T) {
	env := newTestEnv(t, demoOptions())
	state, err := env.sessions.Create()
	require.NoError(t, err)

	ws := dialStateStream(t, env, state.ID)

	first := readFrame(t, ws)
	assert.Equal(t, MsgTypeState, first.Type)
	assert.Equal(t, state.ID, first.ID)

	require.NoError(t, ws.WriteJSON(WSMessage{Type: MsgTypeDrag, Payload: mustJSON(DragPayload{Dragging: true})}))
	readStateUntil(t, ws, func(s models.WidgetState) bool { return s.Dragging })

	require.NoError(t, state.Controller.SelectFile(models.NewBytesArtifact("a.pdf", "application/pdf", []byte("a"))))
	got := readStateUntil(t, ws, func(s models.WidgetState) bool { return s.File != nil })
	assert.Equal(t, "a.pdf", got.File.Name)
	assert.False(t, got.Dragging)
}

func TestStateStream_PingAndUnknownType(t *testing.T) {
	env := newTestEnv(t, demoOptions())
	state, _ := env.sessions.Create()
	ws := dialStateStream(t, env, state.ID)
	readFrame(t, ws)

	require.NoError(t, ws.WriteJSON(WSMessage{Type: MsgTypePing}))
	assert.Equal(t, MsgTypePong, readFrame(t, ws).Type)

	require.NoError(t, ws.WriteJSON(WSMessage{Type: "bogus"}))
	msg := readFrame(t, ws)
	require.Equal(t, MsgTypeError, msg.Type)
	var payload WSErrorResponse
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "INVALID_TYPE", payload.Code)
}

func TestStateStream_ClosesWithSession(t *testing.T) {
	env := newTestEnv(t, demoOptions())
	state, _ := env.sessions.Create()
	ws := dialStateStream(t, env, state.ID)
	readFrame(t, ws)

	require.NoError(t, env.sessions.Delete(state.ID))

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	err := ws.ReadJSON(&msg)
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
}

func TestStateStream_UnknownSession(t *testing.T) {
	env := newTestEnv(t, demoOptions())
	srv := httptest.NewServer(env.echo)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}
