package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/sketchguess/internal/model"
	"github.com/mcoot/sketchguess/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "test-event",
			data:      "hello world",
			expected:  "event: test-event\ndata: hello world\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "messages",
			data:      "{\n  \"a\": 1\n}",
			expected:  "event: messages\ndata: {\ndata:   \"a\": 1\ndata: }\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%q, %q)\ngot:  %q\nwant: %q",
					tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "single line", input: "hello", expected: []string{"hello"}},
		{name: "two lines", input: "line1\nline2", expected: []string{"line1", "line2"}},
		{name: "trailing newline", input: "line1\n", expected: []string{"line1"}},
		{name: "empty string", input: "", expected: []string{""}},
		{name: "crlf line endings", input: "line1\r\nline2\r\n", expected: []string{"line1", "line2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitLines(tt.input))
		})
	}
}

func receive(t *testing.T, client *Client) string {
	t.Helper()
	select {
	case msg := <-client.Messages():
		return string(msg)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client did not receive message")
		return ""
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub("room:ABC123", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient("player1")
	hub.Register(client)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastEvent("test-event", "test data")
	assert.Equal(t, "event: test-event\ndata: test data\n\n", receive(t, client))
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub("room:ABC123", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient("player1")
	hub.Register(client)
	hub.Unregister(client)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastToMultipleClients(t *testing.T) {
	hub := NewHub("rooms", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	clients := []*Client{NewClient("player1"), NewClient("player2"), NewClient("player3")}
	for _, c := range clients {
		hub.Register(c)
	}
	assert.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 5*time.Millisecond)

	hub.BroadcastEvent("update", "data")
	for _, c := range clients {
		assert.Equal(t, "event: update\ndata: data\n\n", receive(t, c))
	}
}

func TestHub_CloseSignalsClients(t *testing.T) {
	hub := NewHub("rooms", testutil.NopLogger())
	go hub.Run()

	client := NewClient("player1")
	hub.Register(client)
	hub.Close()
	hub.Close()

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatal("client was not told the hub closed")
	}

	// Operations on a closed hub must not block
	hub.Unregister(client)
	late := NewClient("player2")
	hub.Register(late)
	<-late.Done()
}

func TestHub_FullClientBufferDrops(t *testing.T) {
	client := NewClient("player1")
	for i := 0; i < sendBufferSize; i++ {
		require.True(t, client.deliver([]byte("x")))
	}
	assert.False(t, client.deliver([]byte("overflow")))
}

func TestHubManager_GetOrCreateHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	hub1 := manager.GetOrCreateHub("room:ABC123")
	require.NotNil(t, hub1)
	assert.Same(t, hub1, manager.GetOrCreateHub("room:ABC123"))
	assert.NotSame(t, hub1, manager.GetOrCreateHub("room:XYZ789"))
	assert.Same(t, hub1, manager.GetHub("room:ABC123"))
	assert.Nil(t, manager.GetHub("room:NOTEXIST"))
}

func TestHubManager_RemoveHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	manager.GetOrCreateHub("room:ABC123")
	manager.RemoveHub("room:ABC123")
	assert.Nil(t, manager.GetHub("room:ABC123"))

	// Removing non-existent hub should not panic
	manager.RemoveHub("room:NOTEXIST")
}

func TestHubManager_LastUnsubscribeClosesHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	first := NewClient("player1")
	second := NewClient("player2")
	hub := manager.Subscribe("room:ABC123", first)
	assert.Same(t, hub, manager.Subscribe("room:ABC123", second))

	manager.Unsubscribe(hub, first)
	assert.Same(t, hub, manager.GetHub("room:ABC123"))

	manager.Unsubscribe(hub, second)
	assert.Nil(t, manager.GetHub("room:ABC123"))
	select {
	case <-hub.done:
	default:
		t.Fatal("hub still running")
	}
}

func TestHubManager_RemoveHubEndsSubscribers(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	client := NewClient("player1")
	hub := manager.Subscribe("room:ABC123", client)
	manager.RemoveHub("room:ABC123")

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatal("client not closed")
	}

	// A hub created later for the same topic outlives the old subscription
	replacement := manager.Subscribe("room:ABC123", NewClient("player2"))
	manager.Unsubscribe(hub, client)
	assert.Same(t, replacement, manager.GetHub("room:ABC123"))
}

func TestHubManager_PublishEncodesEvent(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	client := NewClient("player1")
	manager.GetOrCreateHub(model.RoomTopic("ABC123")).Register(client)

	manager.Publish(model.RoomTopic("ABC123"), model.Event{
		Type:      model.EventLeftRoom,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		RoomID:    "ABC123",
		Payload:   model.LeftRoomPayload{RoomID: "ABC123"},
	})

	msg := receive(t, client)
	require.True(t, strings.HasPrefix(msg, "event: left_room\ndata: "))
	body := strings.TrimSuffix(strings.TrimPrefix(msg, "event: left_room\ndata: "), "\n\n")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	assert.Equal(t, "left_room", decoded["type"])
	assert.Equal(t, "ABC123", decoded["room_id"])
}

func TestHubManager_PublishWithoutSubscribersIsNoop(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	manager.Publish("room:NOBODY", model.Event{Type: model.EventRooms})
	assert.Nil(t, manager.GetHub("room:NOBODY"))
}

func TestServeSSE_StreamsSubscribedTopics(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, manager, "p1", []string{model.LobbyTopic, model.PlayerTopic("p1")})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEventName := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "event: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "event: "))
			}
		}
	}

	assert.Equal(t, "connected", readEventName())

	manager.Publish(model.PlayerTopic("p1"), model.Event{Type: model.EventRoomJoined})
	assert.Equal(t, "room_joined", readEventName())

	manager.Publish(model.PlayerTopic("p2"), model.Event{Type: model.EventLeftRoom})
	manager.Publish(model.LobbyTopic, model.Event{Type: model.EventRooms})
	assert.Equal(t, "rooms", readEventName())
}

func TestServeSSE_ReleasesHubsWhenStreamEnds(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, manager, "p1", []string{model.RoomTopic("ABC123"), model.PlayerTopic("p1")})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)
	assert.NotNil(t, manager.GetHub(model.PlayerTopic("p1")))

	cancel()
	_ = resp.Body.Close()

	assert.Eventually(t, func() bool {
		return manager.GetHub(model.PlayerTopic("p1")) == nil && manager.GetHub(model.RoomTopic("ABC123")) == nil
	}, time.Second, 10*time.Millisecond)
}
