package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/sketchguess/internal/model"
	"github.com/mcoot/sketchguess/internal/testutil"
	"github.com/mcoot/sketchguess/internal/web/ws"
)

type call struct {
	kind     string
	roomID   model.RoomID
	playerID model.PlayerID
	data     string
}

type recordingIntake struct {
	mu    sync.Mutex
	calls []call
}

func (r *recordingIntake) record(c call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	return nil
}

func (r *recordingIntake) SubmitFrame(roomID model.RoomID, playerID model.PlayerID, data string) error {
	return r.record(call{"frame", roomID, playerID, data})
}

func (r *recordingIntake) SubmitGuess(roomID model.RoomID, playerID model.PlayerID, text string) error {
	return r.record(call{"guess", roomID, playerID, text})
}

func (r *recordingIntake) SubmitChat(roomID model.RoomID, playerID model.PlayerID, text string) error {
	return r.record(call{"chat", roomID, playerID, text})
}

func (r *recordingIntake) Disconnect(roomID model.RoomID, playerID model.PlayerID) {
	_ = r.record(call{kind: "disconnect", roomID: roomID, playerID: playerID})
}

func (r *recordingIntake) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

// serve starts a socket server; the room comes from the "room" query value
func serve(t *testing.T) (*ws.Hub, *recordingIntake, string) {
	t.Helper()
	hub := ws.NewHub(testutil.NopLogger())
	intake := &recordingIntake{}
	server := ws.NewServer(hub, intake, testutil.NopLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		server.Serve(w, r, model.RoomID(q.Get("room")), model.PlayerID(q.Get("player_id")))
	}))
	t.Cleanup(srv.Close)
	return hub, intake, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, baseURL string, roomID model.RoomID, playerID model.PlayerID) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := baseURL + "?room=" + string(roomID) + "&player_id=" + string(playerID)
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func setup(t *testing.T) (*ws.Hub, *recordingIntake, *websocket.Conn) {
	t.Helper()
	hub, intake, baseURL := serve(t)
	conn := dial(t, baseURL, "ROOM01", "p1")

	require.Eventually(t, func() bool {
		return hub.Subscribers(model.RoomTopic("ROOM01")) == 1
	}, time.Second, 5*time.Millisecond)
	return hub, intake, conn
}

func TestServe_RoutesInboundMessages(t *testing.T) {
	_, intake, conn := setup(t)
	ctx := context.Background()

	for _, in := range []ws.Inbound{
		{Type: ws.MessageFrame, Data: "data:image/png;base64,AAAA"},
		{Type: ws.MessageGuess, Data: "apple"},
		{Type: ws.MessageChat, Data: "hello"},
		{Type: "bogus", Data: "ignored"},
	} {
		payload, err := json.Marshal(in)
		require.NoError(t, err)
		require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))
	}
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("not json")))

	require.Eventually(t, func() bool { return len(intake.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	calls := intake.snapshot()
	assert.Equal(t, call{"frame", "ROOM01", "p1", "data:image/png;base64,AAAA"}, calls[0])
	assert.Equal(t, call{"guess", "ROOM01", "p1", "apple"}, calls[1])
	assert.Equal(t, call{"chat", "ROOM01", "p1", "hello"}, calls[2])
}

func TestServe_DeliversSubscribedTopics(t *testing.T) {
	hub, _, conn := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub.Publish(model.RoomTopic("OTHER1"), model.Event{Type: model.EventCanvas})
	hub.Publish(model.PlayerTopic("p1"), model.Event{
		Type:    model.EventDrawingTurn,
		RoomID:  "ROOM01",
		Payload: model.DrawingTurnPayload{IsDrawing: true, Word: "apple"},
	})

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)

	var decoded struct {
		Type    string                   `json:"type"`
		Payload model.DrawingTurnPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, string(model.EventDrawingTurn), decoded.Type)
	assert.True(t, decoded.Payload.IsDrawing)
	assert.Equal(t, "apple", decoded.Payload.Word)
}

func TestServe_CloseDisconnectsPlayer(t *testing.T) {
	hub, intake, conn := setup(t)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))

	require.Eventually(t, func() bool {
		calls := intake.snapshot()
		return len(calls) == 1 && calls[0] == call{kind: "disconnect", roomID: "ROOM01", playerID: "p1"}
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return hub.Subscribers(model.RoomTopic("ROOM01")) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestServe_SecondSocketKeepsPlayerSeated(t *testing.T) {
	hub, intake, baseURL := serve(t)
	first := dial(t, baseURL, "ROOM01", "p1")
	second := dial(t, baseURL, "ROOM01", "p1")
	other := dial(t, baseURL, "ROOM02", "p1")
	require.Eventually(t, func() bool {
		return hub.Subscribers(model.RoomTopic("ROOM01")) == 2 && hub.Subscribers(model.RoomTopic("ROOM02")) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, first.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool {
		return hub.Subscribers(model.RoomTopic("ROOM01")) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, other.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return len(intake.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, call{kind: "disconnect", roomID: "ROOM02", playerID: "p1"}, intake.snapshot()[0])

	require.NoError(t, second.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return len(intake.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, call{kind: "disconnect", roomID: "ROOM01", playerID: "p1"}, intake.snapshot()[1])
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := ws.NewHub(testutil.NopLogger())
	hub.Publish(model.LobbyTopic, model.Event{Type: model.EventRooms})
	assert.Equal(t, 0, hub.Subscribers(model.LobbyTopic))
}
