package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/sketchguess/internal/dependencies/mocks"
	"github.com/mcoot/sketchguess/internal/model"
	"github.com/mcoot/sketchguess/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	broadcaster *mocks.RecordingBroadcaster
	registry    *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.broadcaster = mocks.NewRecordingBroadcaster()
	s.registry = New(s.broadcaster, s.clock, s.random, DefaultConfig(), testutil.NopLogger())
}

func (s *RegistrySuite) createRoom(id string) model.Room {
	s.random.QueueString(id)
	return s.registry.CreateRoom("Room "+id, 0)
}

func human(id string) model.Player {
	return model.Player{ID: model.PlayerID(id), DisplayName: id}
}

func bot(id string) model.Player {
	return model.Player{ID: model.PlayerID(id), DisplayName: id, IsAutomated: true}
}

// CreateRoom tests

func (s *RegistrySuite) TestCreateRoom() {
	room := s.createRoom("ABC123")

	s.Equal(model.RoomID("ABC123"), room.ID)
	s.Equal("Room ABC123", room.Name)
	s.Equal(model.DefaultRoomCapacity, room.Capacity)
	s.Equal(0, room.Occupancy)
	s.Equal(model.RoomStatusWaiting, room.Status)
}

func (s *RegistrySuite) TestCreateRoomPublishesRoomList() {
	s.createRoom("ABC123")

	event, ok := s.broadcaster.Last(model.LobbyTopic, model.EventRooms)
	s.Require().True(ok)
	payload := event.Payload.(model.RoomsPayload)
	s.Len(payload.Rooms, 1)
	s.Equal(model.RoomID("ABC123"), payload.Rooms[0].ID)
}

func (s *RegistrySuite) TestCreateRoomRetriesOnCollision() {
	s.createRoom("ABC123")
	s.random.QueueString("ABC123", "XYZ789")

	room := s.registry.CreateRoom("second", 4)
	s.Equal(model.RoomID("XYZ789"), room.ID)
	s.Equal(4, room.Capacity)
}

func (s *RegistrySuite) TestCreateRoomFallsBackWhenCodesExhausted() {
	room := s.registry.CreateRoom("no codes", 0)
	s.NotEmpty(room.ID)
}

func (s *RegistrySuite) TestRoomsInCreationOrder() {
	s.createRoom("AAAAAA")
	s.createRoom("BBBBBB")

	rooms := s.registry.Rooms()
	s.Require().Len(rooms, 2)
	s.Equal(model.RoomID("AAAAAA"), rooms[0].ID)
	s.Equal(model.RoomID("BBBBBB"), rooms[1].ID)
}

// JoinRoom tests

func (s *RegistrySuite) TestJoinRoom() {
	room := s.createRoom("ABC123")

	result, err := s.registry.JoinRoom(room.ID, human("p1"))
	s.Require().NoError(err)
	s.Equal(1, result.Room.Occupancy)
	s.True(result.Player.Online)
	s.Nil(result.Left)

	roomID, ok := s.registry.RoomOf("p1")
	s.True(ok)
	s.Equal(room.ID, roomID)
}

func (s *RegistrySuite) TestJoinRoomConfirmsToJoinerOnly() {
	room := s.createRoom("ABC123")
	_, err := s.registry.JoinRoom(room.ID, human("p1"))
	s.Require().NoError(err)

	joined := s.broadcaster.OfType(model.PlayerTopic("p1"), model.EventRoomJoined)
	s.Len(joined, 1)
	s.Empty(s.broadcaster.OfType(model.RoomTopic(room.ID), model.EventRoomJoined))

	players, ok := s.broadcaster.Last(model.RoomTopic(room.ID), model.EventPlayers)
	s.Require().True(ok)
	s.Len(players.Payload.(model.PlayersPayload).Players, 1)
}

func (s *RegistrySuite) TestJoinUnknownRoom() {
	_, err := s.registry.JoinRoom("NOPE", human("p1"))
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *RegistrySuite) TestJoinFullRoom() {
	s.random.QueueString("SMALL1")
	room := s.registry.CreateRoom("small", 1)
	_, err := s.registry.JoinRoom(room.ID, human("p1"))
	s.Require().NoError(err)

	_, err = s.registry.JoinRoom(room.ID, human("p2"))
	s.ErrorIs(err, model.ErrRoomFull)
	s.Len(s.registry.PlayersIn(room.ID), 1)
}

func (s *RegistrySuite) TestJoinPlayingRoomRejectsHumans() {
	room := s.createRoom("ABC123")
	_, _ = s.registry.JoinRoom(room.ID, human("p1"))
	s.Require().NoError(s.registry.SetStatus(room.ID, model.RoomStatusPlaying))

	_, err := s.registry.JoinRoom(room.ID, human("p2"))
	s.ErrorIs(err, model.ErrRoomNotJoinable)
}

func (s *RegistrySuite) TestJoinPlayingRoomAllowsAutomated() {
	room := s.createRoom("ABC123")
	_, _ = s.registry.JoinRoom(room.ID, human("p1"))
	s.Require().NoError(s.registry.SetStatus(room.ID, model.RoomStatusPlaying))

	_, err := s.registry.JoinRoom(room.ID, bot("bot-1"))
	s.Require().NoError(err)
	s.Len(s.registry.PlayersIn(room.ID), 2)
}

func (s *RegistrySuite) TestJoinSameRoomTwiceIsIdempotent() {
	room := s.createRoom("ABC123")
	_, _ = s.registry.JoinRoom(room.ID, human("p1"))

	result, err := s.registry.JoinRoom(room.ID, human("p1"))
	s.Require().NoError(err)
	s.Equal(1, result.Room.Occupancy)
	s.Len(s.registry.PlayersIn(room.ID), 1)
}

func (s *RegistrySuite) TestJoinOtherRoomReseats() {
	first := s.createRoom("AAAAAA")
	second := s.createRoom("BBBBBB")
	_, _ = s.registry.JoinRoom(first.ID, human("p1"))
	s.Require().NoError(s.registry.SetStatus(first.ID, model.RoomStatusPlaying))

	result, err := s.registry.JoinRoom(second.ID, human("p1"))
	s.Require().NoError(err)
	s.Require().NotNil(result.Left)
	s.Equal(first.ID, result.Left.RoomID)
	s.True(result.Left.Emptied)

	s.Empty(s.registry.PlayersIn(first.ID))
	s.Len(s.registry.PlayersIn(second.ID), 1)

	old, _ := s.registry.Room(first.ID)
	s.Equal(0, old.Occupancy)
	s.Equal(model.RoomStatusWaiting, old.Status)

	left := s.broadcaster.OfType(model.PlayerTopic("p1"), model.EventLeftRoom)
	s.Len(left, 1)
}

func (s *RegistrySuite) TestPlayersInJoinOrder() {
	room := s.createRoom("ABC123")
	_, _ = s.registry.JoinRoom(room.ID, human("p1"))
	_, _ = s.registry.JoinRoom(room.ID, human("p2"))
	_, _ = s.registry.JoinRoom(room.ID, human("p3"))

	players := s.registry.PlayersIn(room.ID)
	s.Require().Len(players, 3)
	s.Equal(model.PlayerID("p1"), players[0].ID)
	s.Equal(model.PlayerID("p2"), players[1].ID)
	s.Equal(model.PlayerID("p3"), players[2].ID)
}

// LeaveRoom tests

func (s *RegistrySuite) TestLeaveRoomNotSeatedIsNoop() {
	_, left := s.registry.LeaveRoom("ghost")
	s.False(left)
	s.Empty(s.broadcaster.All())
}

func (s *RegistrySuite) TestLeaveRoom() {
	room := s.createRoom("ABC123")
	_, _ = s.registry.JoinRoom(room.ID, human("p1"))
	_, _ = s.registry.JoinRoom(room.ID, human("p2"))

	result, left := s.registry.LeaveRoom("p1")
	s.True(left)
	s.Equal(room.ID, result.RoomID)
	s.Equal(1, result.HumansRemaining)
	s.False(result.Emptied)

	r, _ := s.registry.Room(room.ID)
	s.Equal(1, r.Occupancy)
	_, seated := s.registry.RoomOf("p1")
	s.False(seated)
}

func (s *RegistrySuite) TestLastHumanLeavingRevertsToWaiting() {
	room := s.createRoom("ABC123")
	_, _ = s.registry.JoinRoom(room.ID, human("p1"))
	_, _ = s.registry.JoinRoom(room.ID, bot("bot-1"))
	s.Require().NoError(s.registry.SetStatus(room.ID, model.RoomStatusPlaying))

	result, _ := s.registry.LeaveRoom("p1")
	s.True(result.Emptied)
	s.Equal(0, result.HumansRemaining)

	r, _ := s.registry.Room(room.ID)
	s.Equal(model.RoomStatusWaiting, r.Status)
	s.Equal(1, r.Occupancy)
}

func (s *RegistrySuite) TestBotLeavingNeverEmpties() {
	room := s.createRoom("ABC123")
	_, _ = s.registry.JoinRoom(room.ID, bot("bot-1"))

	result, _ := s.registry.LeaveRoom("bot-1")
	s.False(result.Emptied)
	s.Empty(s.broadcaster.OfType(model.PlayerTopic("bot-1"), model.EventLeftRoom))
}

func (s *RegistrySuite) TestEmptyRoomPersists() {
	room := s.createRoom("ABC123")
	_, _ = s.registry.JoinRoom(room.ID, human("p1"))
	_, _ = s.registry.LeaveRoom("p1")

	_, err := s.registry.Room(room.ID)
	s.NoError(err)
}

// Host, score and deletion tests

func (s *RegistrySuite) TestHostSkipsAutomated() {
	room := s.createRoom("ABC123")
	_, _ = s.registry.JoinRoom(room.ID, bot("bot-1"))
	_, _ = s.registry.JoinRoom(room.ID, human("p1"))

	host, ok := s.registry.Host(room.ID)
	s.True(ok)
	s.Equal(model.PlayerID("p1"), host.ID)
}

func (s *RegistrySuite) TestAddAndResetScores() {
	room := s.createRoom("ABC123")
	_, _ = s.registry.JoinRoom(room.ID, human("p1"))

	s.Require().NoError(s.registry.AddScore("p1", 10))
	s.Require().NoError(s.registry.AddScore("p1", 10))
	p, err := s.registry.Player("p1")
	s.Require().NoError(err)
	s.Equal(20, p.Score)

	s.Require().NoError(s.registry.ResetScores(room.ID))
	p, _ = s.registry.Player("p1")
	s.Equal(0, p.Score)
}

func (s *RegistrySuite) TestAddScoreUnknownPlayer() {
	err := s.registry.AddScore("ghost", 10)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *RegistrySuite) TestDeleteRoom() {
	room := s.createRoom("ABC123")
	_, _ = s.registry.JoinRoom(room.ID, human("p1"))

	evicted, err := s.registry.DeleteRoom(room.ID)
	s.Require().NoError(err)
	s.Len(evicted, 1)

	_, err = s.registry.Room(room.ID)
	s.ErrorIs(err, model.ErrRoomNotFound)
	_, seated := s.registry.RoomOf("p1")
	s.False(seated)
	s.Empty(s.registry.Rooms())
}

func (s *RegistrySuite) TestDeleteUnknownRoom() {
	_, err := s.registry.DeleteRoom("NOPE")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// Concurrency

func (s *RegistrySuite) TestOccupancyMatchesPlayersUnderConcurrency() {
	s.random.QueueString("BIG001")
	room := s.registry.CreateRoom("big", 64)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("p%d", i)
			_, _ = s.registry.JoinRoom(room.ID, human(id))
			if i%3 == 0 {
				_, _ = s.registry.LeaveRoom(model.PlayerID(id))
			}
		}(i)
	}
	wg.Wait()

	r, _ := s.registry.Room(room.ID)
	s.Equal(len(s.registry.PlayersIn(room.ID)), r.Occupancy)
	s.Equal(33, r.Occupancy)
}
