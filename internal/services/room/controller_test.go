package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/hostcard/pokerroom/internal/dependencies/mocks"
	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/services/hands"
	"github.com/hostcard/pokerroom/internal/storage/memory"
	"github.com/hostcard/pokerroom/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.storage, hands.New(testutil.NopLogger()), s.clock, s.random)
	s.ctx = context.Background()
}

// createRoom makes a room with code 1234. The mock random returns 0 for
// every unqueued Intn call, so the deck stays in base order: community is
// 2♠ 3♠ 4♠ 5♠ 6♠ and hole cards come off the diamond end of the deck.
func (s *ControllerSuite) createRoom() *model.Room {
	s.random.QueueString("1234")
	room, err := s.controller.CreateRoom(s.ctx, 100)
	s.Require().NoError(err)
	return room
}

func (s *ControllerSuite) addPlayer(id, name string) *model.Player {
	player := &model.Player{
		ID:        model.PlayerID(id),
		RoomID:    "1234",
		Name:      name,
		Hand:      []model.Card{},
		Status:    model.StatusActive,
		CreatedAt: s.clock.Now(),
	}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))
	return player
}

func (s *ControllerSuite) advance() *model.Room {
	room, err := s.controller.Advance(s.ctx, "1234")
	s.Require().NoError(err)
	return room
}

// CreateRoom tests

func (s *ControllerSuite) TestCreateRoomSucceeds() {
	room := s.createRoom()

	s.Equal(model.RoomCode("1234"), room.ID)
	s.Equal(model.StageWaiting, room.Stage)
	s.Len(room.CommunityCards, 5)
	s.Len(room.Deck, 47)
	s.Empty(room.Winners)
	s.Equal(100, room.ShuffleFactor)
	s.Equal(int64(1), room.Version)
}

func (s *ControllerSuite) TestCreateRoomRejectsInvalidShuffle() {
	_, err := s.controller.CreateRoom(s.ctx, 101)
	s.ErrorIs(err, model.ErrInvalidShuffle)

	_, err = s.controller.CreateRoom(s.ctx, -1)
	s.ErrorIs(err, model.ErrInvalidShuffle)
}

func (s *ControllerSuite) TestCreateRoomRegeneratesCodeOnCollision() {
	s.createRoom()

	s.random.QueueString("1234", "5678")
	room, err := s.controller.CreateRoom(s.ctx, 100)
	s.Require().NoError(err)
	s.Equal(model.RoomCode("5678"), room.ID)
}

// Advance tests

func (s *ControllerSuite) TestStageLadder() {
	s.createRoom()

	expected := []model.Stage{
		model.StagePreflop,
		model.StageFlop,
		model.StageTurn,
		model.StageRiver,
		model.StageShowdown,
	}
	for _, stage := range expected {
		s.Equal(stage, s.advance().Stage)
	}

	// Advancing out of showdown resets the round
	room := s.advance()
	s.Equal(model.StageWaiting, room.Stage)
	s.Equal(1, room.RoundCount)
}

func (s *ControllerSuite) TestAdvanceDealsHoleCardsFromDeckTail() {
	s.createRoom()
	s.addPlayer("p1", "Alice")
	s.addPlayer("p2", "Bob")

	room := s.advance()

	s.Equal(model.StagePreflop, room.Stage)
	s.Len(room.Deck, 43)

	p1, err := s.storage.GetPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	p2, err := s.storage.GetPlayer(s.ctx, "p2")
	s.Require().NoError(err)

	s.Require().Len(p1.Hand, 2)
	s.Require().Len(p2.Hand, 2)

	// Base order deck: the tail is the high diamonds
	s.Equal("A♦", p1.Hand[0].ID)
	s.Equal("K♦", p1.Hand[1].ID)
	s.Equal("Q♦", p2.Hand[0].ID)
	s.Equal("J♦", p2.Hand[1].ID)
}

func (s *ControllerSuite) TestAdvanceSkipsFoldedPlayersAtDeal() {
	s.createRoom()
	s.addPlayer("p1", "Alice")
	s.addPlayer("p2", "Bob")
	_, err := s.controller.Fold(s.ctx, "1234", "p1")
	s.Require().NoError(err)

	room := s.advance()
	s.Len(room.Deck, 45)

	p1, _ := s.storage.GetPlayer(s.ctx, "p1")
	p2, _ := s.storage.GetPlayer(s.ctx, "p2")
	s.Empty(p1.Hand)
	s.Len(p2.Hand, 2)
}

func (s *ControllerSuite) TestShowdownResolvesWinners() {
	s.createRoom()
	s.addPlayer("p1", "Alice")
	s.addPlayer("p2", "Bob")

	// waiting -> preflop -> flop -> turn -> river -> showdown
	var room *model.Room
	for i := 0; i < 5; i++ {
		room = s.advance()
	}

	s.Equal(model.StageShowdown, room.Stage)
	// The base-order board 2♠-6♠ is a straight flush, so both players
	// play the board and tie.
	s.Require().Len(room.Winners, 2)
	s.Equal(model.PlayerID("p1"), room.Winners[0].PlayerID)
	s.Equal(model.PlayerID("p2"), room.Winners[1].PlayerID)
}

func (s *ControllerSuite) TestResetClearsRoundState() {
	s.createRoom()
	s.addPlayer("p1", "Alice")
	s.addPlayer("p2", "Bob")

	for i := 0; i < 5; i++ {
		s.advance()
	}
	_, err := s.controller.Fold(s.ctx, "1234", "p2")
	s.Require().NoError(err)

	room := s.advance()

	s.Equal(model.StageWaiting, room.Stage)
	s.Empty(room.Winners)
	s.Len(room.CommunityCards, 5)
	s.Len(room.Deck, 47)
	s.Equal(1, room.RoundCount)
	s.Equal(1, room.DealerIndex)

	for _, id := range []model.PlayerID{"p1", "p2"} {
		p, err := s.storage.GetPlayer(s.ctx, id)
		s.Require().NoError(err)
		s.Empty(p.Hand)
		s.Equal(model.StatusActive, p.Status)
		s.False(p.IsRevealed)
	}
}

func (s *ControllerSuite) TestDealerIndexAdvancesAcrossResets() {
	s.createRoom()
	s.addPlayer("p1", "Alice")
	s.addPlayer("p2", "Bob")

	// Two full rounds: 6 advances per cycle back to waiting
	var room *model.Room
	for i := 0; i < 12; i++ {
		room = s.advance()
	}

	s.Equal(model.StageWaiting, room.Stage)
	s.Equal(2, room.RoundCount)
	s.Equal(2, room.DealerIndex)
}

func (s *ControllerSuite) TestDealerIndexAdvancesInEmptyRoom() {
	s.createRoom()

	for i := 0; i < 6; i++ {
		s.advance()
	}

	room, err := s.storage.GetRoom(s.ctx, "1234")
	s.Require().NoError(err)
	s.Equal(1, room.RoundCount)
	s.Equal(1, room.DealerIndex)
}

func (s *ControllerSuite) TestAdvanceMissingRoom() {
	_, err := s.controller.Advance(s.ctx, "0000")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// Player action tests

func (s *ControllerSuite) TestFold() {
	s.createRoom()
	s.addPlayer("p1", "Alice")

	_, err := s.controller.Fold(s.ctx, "1234", "p1")
	s.Require().NoError(err)

	p1, _ := s.storage.GetPlayer(s.ctx, "p1")
	s.Equal(model.StatusFolded, p1.Status)
}

func (s *ControllerSuite) TestFoldWrongRoom() {
	s.createRoom()
	s.addPlayer("p1", "Alice")

	_, err := s.controller.Fold(s.ctx, "9999", "p1")
	s.ErrorIs(err, model.ErrNotInRoom)
}

func (s *ControllerSuite) TestToggleReveal() {
	s.createRoom()
	s.addPlayer("p1", "Alice")

	p1, err := s.controller.ToggleReveal(s.ctx, "1234", "p1")
	s.Require().NoError(err)
	s.True(p1.IsRevealed)

	p1, err = s.controller.ToggleReveal(s.ctx, "1234", "p1")
	s.Require().NoError(err)
	s.False(p1.IsRevealed)
}

// Host control tests

func (s *ControllerSuite) TestSetShuffleFactor() {
	s.createRoom()

	room, err := s.controller.SetShuffleFactor(s.ctx, "1234", 30)
	s.Require().NoError(err)
	s.Equal(30, room.ShuffleFactor)

	_, err = s.controller.SetShuffleFactor(s.ctx, "1234", 101)
	s.ErrorIs(err, model.ErrInvalidShuffle)
}

func (s *ControllerSuite) TestSetQRUrl() {
	s.createRoom()

	room, err := s.controller.SetQRUrl(s.ctx, "1234", "https://example.com/join/1234")
	s.Require().NoError(err)
	s.Equal("https://example.com/join/1234", room.QRUrl)
}

func (s *ControllerSuite) TestEndRoomCascades() {
	s.createRoom()
	s.addPlayer("p1", "Alice")

	s.Require().NoError(s.controller.EndRoom(s.ctx, "1234"))

	_, err := s.controller.GetRoom(s.ctx, "1234")
	s.ErrorIs(err, model.ErrRoomNotFound)
	_, err = s.storage.GetPlayer(s.ctx, "p1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}
