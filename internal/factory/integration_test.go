package factory

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/sketchguess/internal/model"
	"github.com/mcoot/sketchguess/internal/services/game"
	redisstorage "github.com/mcoot/sketchguess/internal/storage/redis"
	"github.com/mcoot/sketchguess/internal/web/sse"
)

type IntegrationSuite struct {
	suite.Suite
	app    *TestApp
	ctx    context.Context
	roomID model.RoomID
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.ctx = context.Background()

	cfg := game.DefaultConfig()
	cfg.TotalRounds = 2
	cfg.BotsPerGame = 0
	s.app = NewTestApp(cfg)
	s.Require().NoError(s.app.LoadTestWords())

	s.app.MockRandom.QueueString("ROOM01")
	room, err := s.app.GameController.CreateRoom("integration", 0)
	s.Require().NoError(err)
	s.roomID = room.ID
}

func (s *IntegrationSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.NoError(s.app.Close(ctx))
}

func (s *IntegrationSuite) join(id model.PlayerID, name string) {
	_, err := s.app.GameController.JoinRoom(s.ctx, s.roomID, model.Player{ID: id, DisplayName: name})
	s.Require().NoError(err)
}

// settle waits for the room to drain its inbox
func (s *IntegrationSuite) settle() {
	_, err := s.app.GameController.Messages(s.ctx, s.roomID)
	s.Require().NoError(err)
}

func (s *IntegrationSuite) advance(d time.Duration) {
	s.app.MockClock.Advance(d)
	s.settle()
}

func (s *IntegrationSuite) session(viewer model.PlayerID) model.Session {
	view, err := s.app.GameController.Session(s.ctx, s.roomID, viewer)
	s.Require().NoError(err)
	return view
}

// Test: a two-round game from start to final scoreboard
func (s *IntegrationSuite) TestCompleteGameFlow() {
	s.join("alice", "Alice")
	s.join("bob", "Bob")

	// Round 1: Alice draws, Bob guesses
	s.Require().NoError(s.app.GameController.Start(s.roomID, "alice"))
	s.settle()

	view := s.session("alice")
	s.Equal(model.PhaseRoundInProgress, view.Phase)
	s.Require().NotNil(view.CurrentWord)
	s.Equal("apple", *view.CurrentWord)

	s.Require().NoError(s.app.GameController.SubmitGuess(s.roomID, "bob", "APPLE "))
	s.settle()
	s.Equal(10, s.session("bob").Scores["bob"])

	s.advance(120 * time.Second)
	s.Equal(model.PhaseRoundOver, s.session("bob").Phase)
	s.advance(5 * time.Second)

	// Round 2: Bob draws, Alice guesses
	view = s.session("alice")
	s.Equal(2, view.RoundNumber)
	s.Require().NotNil(view.CurrentDrawerID)
	s.Equal(model.PlayerID("bob"), *view.CurrentDrawerID)

	s.Require().NoError(s.app.GameController.SubmitGuess(s.roomID, "alice", "apple"))
	s.settle()

	s.advance(120 * time.Second)
	s.advance(5 * time.Second)

	_, err := s.app.GameController.Session(s.ctx, s.roomID, "alice")
	s.ErrorIs(err, model.ErrNoSession)

	room, err := s.app.GameController.Room(s.roomID)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusWaiting, room.Status)

	players, err := s.app.GameController.Players(s.roomID)
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	for _, p := range players {
		s.Equal(10, p.Score, "player %s", p.ID)
	}
}

// Test: room events reach SSE subscribers through the fanout
func (s *IntegrationSuite) TestRoomEventsReachSSEClients() {
	hub := s.app.HubManager.GetOrCreateHub(model.RoomTopic(s.roomID))
	client := sse.NewClient("observer")
	hub.Register(client)
	s.Eventually(func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	s.join("alice", "Alice")
	s.join("bob", "Bob")
	s.Require().NoError(s.app.GameController.Start(s.roomID, "alice"))
	s.settle()

	var received strings.Builder
	s.Eventually(func() bool {
		for {
			select {
			case msg := <-client.Messages():
				received.Write(msg)
			default:
				text := received.String()
				return strings.Contains(text, "event: players") &&
					strings.Contains(text, "event: game_state")
			}
		}
	}, time.Second, 10*time.Millisecond)

	// The room topic never carries the word
	s.NotContains(received.String(), `"current_word"`)
}

// Test: the drawer's word only goes to the drawer's own topic
func (s *IntegrationSuite) TestDrawingTurnPrivateToDrawer() {
	hub := s.app.HubManager.GetOrCreateHub(model.PlayerTopic("alice"))
	client := sse.NewClient("alice")
	hub.Register(client)
	s.Eventually(func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	s.join("alice", "Alice")
	s.join("bob", "Bob")
	s.Require().NoError(s.app.GameController.Start(s.roomID, "alice"))
	s.settle()

	var received strings.Builder
	s.Eventually(func() bool {
		for {
			select {
			case msg := <-client.Messages():
				received.Write(msg)
			default:
				return strings.Contains(received.String(), `"word":"apple"`)
			}
		}
	}, time.Second, 10*time.Millisecond)
}

// Test: a seated bot guesses from the drawer's frames
func (s *IntegrationSuite) TestBotGuessesThroughApp() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Require().NoError(s.app.Close(ctx))

	cfg := game.DefaultConfig()
	cfg.BotsPerGame = 1
	s.app = NewTestApp(cfg)
	s.Require().NoError(s.app.LoadTestWords())
	s.app.MockClassifier.SetProbabilities(map[string]float64{"apple": 0.8, "dog": 0.2})

	s.app.MockRandom.QueueString("ROOM02")
	room, err := s.app.GameController.CreateRoom("bots", 0)
	s.Require().NoError(err)
	s.roomID = room.ID

	s.join("alice", "Alice")
	s.Require().NoError(s.app.GameController.Start(s.roomID, "alice"))
	s.settle()

	bots, err := s.app.GameController.Bots(s.ctx, s.roomID)
	s.Require().NoError(err)
	s.Require().Len(bots, 1)
	botID := bots[0].ID

	s.Require().NoError(s.app.GameController.SubmitFrame(s.roomID, "alice", "data:image/png;base64,AAAA"))

	s.Eventually(func() bool {
		return s.session("alice").Scores[botID] == 10
	}, time.Second, 10*time.Millisecond)
	s.Equal([]string{"data:image/png;base64,AAAA"}, s.app.MockClassifier.Frames())
}

type RedisBroadcastSuite struct {
	suite.Suite
	mini *miniredis.Miniredis
}

func TestRedisBroadcastSuite(t *testing.T) {
	suite.Run(t, new(RedisBroadcastSuite))
}

func (s *RedisBroadcastSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
}

func (s *RedisBroadcastSuite) redisConfig() *redisstorage.Config {
	cfg := redisstorage.DefaultConfig()
	cfg.URL = "redis://" + s.mini.Addr()
	return &cfg
}

func (s *RedisBroadcastSuite) TestEventsPublishedToRedis() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	app, err := New(Config{
		BroadcastType: BroadcastTypeRedis,
		RedisConfig:   s.redisConfig(),
	})
	s.Require().NoError(err)
	defer func() { _ = app.Close(context.Background()) }()

	client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	defer func() { _ = client.Close() }()

	sub := client.Subscribe(ctx, "sketchguess:rooms")
	defer func() { _ = sub.Close() }()
	_, err = sub.Receive(ctx)
	s.Require().NoError(err)

	_, err = app.GameController.CreateRoom("over redis", 0)
	s.Require().NoError(err)

	msg, err := sub.ReceiveMessage(ctx)
	s.Require().NoError(err)

	var ev struct {
		Type    model.EventType    `json:"type"`
		Payload model.RoomsPayload `json:"payload"`
	}
	s.Require().NoError(json.Unmarshal([]byte(msg.Payload), &ev))
	s.Equal(model.EventRooms, ev.Type)
	s.Require().Len(ev.Payload.Rooms, 1)
	s.Equal("over redis", ev.Payload.Rooms[0].Name)
}

func (s *RedisBroadcastSuite) TestRedisStorageSharesConnection() {
	app, err := New(Config{
		StorageType:   StorageTypeRedis,
		BroadcastType: BroadcastTypeRedis,
		RedisConfig:   s.redisConfig(),
	})
	s.Require().NoError(err)
	defer func() { _ = app.Close(context.Background()) }()

	// One Redis connection, plus the publisher that rides on it
	s.Len(app.closers, 2)
	s.Require().NoError(app.Storage.SaveWords(context.Background(), []string{"kite"}))
	s.Require().NoError(app.WordBank.LoadFromStorage(context.Background()))
	s.Equal(1, app.WordBank.WordCount())
}

func (s *RedisBroadcastSuite) TestRedisWithoutConfigFails() {
	_, err := New(Config{BroadcastType: BroadcastTypeRedis})
	s.Error(err)
}

func (s *RedisBroadcastSuite) TestInvalidTypesRejected() {
	_, err := New(Config{StorageType: "sqlite"})
	s.Error(err)

	_, err = New(Config{BroadcastType: "kafka"})
	s.Error(err)
}
