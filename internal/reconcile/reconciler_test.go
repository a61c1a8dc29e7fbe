package reconcile

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hostcard/pokerroom/internal/model"
)

type MirrorSuite struct {
	suite.Suite
	mirror *Mirror
}

func TestMirrorSuite(t *testing.T) {
	suite.Run(t, new(MirrorSuite))
}

func (s *MirrorSuite) SetupTest() {
	s.mirror = NewMirror(nil, nil)
}

func room(stage model.Stage, version int64) *model.Room {
	return &model.Room{
		ID:             "1234",
		Stage:          stage,
		CommunityCards: model.BaseDeck()[:5],
		Deck:           model.BaseDeck()[5:],
		ShuffleFactor:  100,
		Winners:        []model.Winner{},
		Version:        version,
	}
}

func roomEvent(kind model.ChangeKind, r *model.Room) model.ChangeEvent {
	ev := model.ChangeEvent{
		Entity: model.EntityRoom,
		Kind:   kind,
		RoomID: "1234",
	}
	if r != nil {
		ev.Room = r
		ev.RoomVersion = r.Version
	}
	return ev
}

func playerEvent(kind model.ChangeKind, p *model.Player) model.ChangeEvent {
	ev := model.ChangeEvent{
		Entity: model.EntityPlayer,
		Kind:   kind,
		RoomID: "1234",
	}
	if p != nil {
		ev.Player = p
		ev.PlayerID = p.ID
	}
	return ev
}

func newPlayer(id, name string) *model.Player {
	return &model.Player{
		ID:     model.PlayerID(id),
		RoomID: "1234",
		Name:   name,
		Hand:   []model.Card{},
		Status: model.StatusActive,
	}
}

// Room event tests

func (s *MirrorSuite) TestRoomUpdateReplacesSnapshot() {
	s.mirror.Apply(roomEvent(model.ChangeInsert, room(model.StageWaiting, 1)))
	s.mirror.Apply(roomEvent(model.ChangeUpdate, room(model.StageFlop, 3)))

	s.Equal(model.StageFlop, s.mirror.Room().Stage)
	s.Equal(int64(3), s.mirror.Room().Version)
}

func (s *MirrorSuite) TestStaleRoomSnapshotDropped() {
	s.mirror.Apply(roomEvent(model.ChangeInsert, room(model.StageFlop, 3)))

	notices := s.mirror.Apply(roomEvent(model.ChangeUpdate, room(model.StageWaiting, 2)))

	s.Empty(notices)
	s.Equal(model.StageFlop, s.mirror.Room().Stage)
}

func (s *MirrorSuite) TestRoomUpdateReplayIsIdempotent() {
	ev := roomEvent(model.ChangeUpdate, room(model.StageFlop, 3))
	s.mirror.Apply(roomEvent(model.ChangeInsert, room(model.StageWaiting, 1)))

	first := s.mirror.Apply(ev)
	second := s.mirror.Apply(ev)

	s.NotEmpty(first)
	s.Empty(second)
}

func (s *MirrorSuite) TestRoomDeleteEndsSession() {
	s.mirror.Apply(roomEvent(model.ChangeInsert, room(model.StageWaiting, 1)))
	s.mirror.Apply(playerEvent(model.ChangeInsert, newPlayer("p1", "Alice")))

	notices := s.mirror.Apply(roomEvent(model.ChangeDelete, nil))

	s.Require().Len(notices, 1)
	s.Equal(model.NoticeSessionEnded, notices[0].Kind)
	s.True(s.mirror.Ended())
	s.Nil(s.mirror.Room())
	s.Empty(s.mirror.Players())

	// Nothing applies after the session ended
	s.Empty(s.mirror.Apply(roomEvent(model.ChangeInsert, room(model.StageWaiting, 1))))
	s.Nil(s.mirror.Room())
}

// Notice derivation tests

func (s *MirrorSuite) TestDealNotice() {
	s.mirror.Apply(roomEvent(model.ChangeInsert, room(model.StageWaiting, 1)))

	notices := s.mirror.Apply(roomEvent(model.ChangeUpdate, room(model.StagePreflop, 2)))

	s.Require().Len(notices, 1)
	s.Equal(model.NoticeDeal, notices[0].Kind)
}

func (s *MirrorSuite) TestStageChangeNotice() {
	s.mirror.Apply(roomEvent(model.ChangeInsert, room(model.StagePreflop, 2)))

	notices := s.mirror.Apply(roomEvent(model.ChangeUpdate, room(model.StageFlop, 3)))

	s.Require().Len(notices, 1)
	s.Equal(model.NoticeStageChanged, notices[0].Kind)
	s.Equal(model.StageFlop, notices[0].Stage)
}

func (s *MirrorSuite) TestShowdownNoticeCarriesWinners() {
	s.mirror.Apply(roomEvent(model.ChangeInsert, room(model.StageRiver, 5)))

	next := room(model.StageShowdown, 6)
	next.Winners = []model.Winner{{PlayerID: "p1", Name: "Alice", Description: "Two Pair"}}
	notices := s.mirror.Apply(roomEvent(model.ChangeUpdate, next))

	s.Require().Len(notices, 1)
	s.Equal(model.NoticeShowdown, notices[0].Kind)
	s.Require().Len(notices[0].Winners, 1)
	s.Contains(notices[0].Text, "Alice")
}

func (s *MirrorSuite) TestNewRoundNotice() {
	showdown := room(model.StageShowdown, 6)
	s.mirror.Apply(roomEvent(model.ChangeInsert, showdown))

	next := room(model.StageWaiting, 7)
	next.RoundCount = 1
	notices := s.mirror.Apply(roomEvent(model.ChangeUpdate, next))

	s.Require().Len(notices, 1)
	s.Equal(model.NoticeNewRound, notices[0].Kind)
}

// Player event tests

func (s *MirrorSuite) TestPlayerInsertIsIdempotent() {
	ev := playerEvent(model.ChangeInsert, newPlayer("p1", "Alice"))

	first := s.mirror.Apply(ev)
	second := s.mirror.Apply(ev)

	s.Require().Len(first, 1)
	s.Equal(model.NoticePlayerJoined, first[0].Kind)
	s.Empty(second)
	s.Len(s.mirror.Players(), 1)
}

func (s *MirrorSuite) TestPlayerUpdateReplacesById() {
	s.mirror.Apply(playerEvent(model.ChangeInsert, newPlayer("p1", "Alice")))

	folded := newPlayer("p1", "Alice")
	folded.Status = model.StatusFolded
	notices := s.mirror.Apply(playerEvent(model.ChangeUpdate, folded))

	s.Require().Len(notices, 1)
	s.Equal(model.NoticeFold, notices[0].Kind)
	s.Equal(model.StatusFolded, s.mirror.Player("p1").Status)
}

func (s *MirrorSuite) TestPlayerUpdateUnknownIgnored() {
	notices := s.mirror.Apply(playerEvent(model.ChangeUpdate, newPlayer("p1", "Alice")))

	s.Empty(notices)
	s.Empty(s.mirror.Players())
}

func (s *MirrorSuite) TestRevealNotice() {
	s.mirror.Apply(playerEvent(model.ChangeInsert, newPlayer("p1", "Alice")))

	revealed := newPlayer("p1", "Alice")
	revealed.IsRevealed = true
	notices := s.mirror.Apply(playerEvent(model.ChangeUpdate, revealed))

	s.Require().Len(notices, 1)
	s.Equal(model.NoticeReveal, notices[0].Kind)
}

func (s *MirrorSuite) TestPlayerDelete() {
	s.mirror.Apply(playerEvent(model.ChangeInsert, newPlayer("p1", "Alice")))

	ev := model.ChangeEvent{
		Entity:   model.EntityPlayer,
		Kind:     model.ChangeDelete,
		RoomID:   "1234",
		PlayerID: "p1",
	}
	notices := s.mirror.Apply(ev)

	s.Require().Len(notices, 1)
	s.Equal(model.NoticePlayerLeft, notices[0].Kind)
	s.Empty(s.mirror.Players())

	// Redelivery is a no-op
	s.Empty(s.mirror.Apply(ev))
}

// Ordering tolerance

func (s *MirrorSuite) TestStageFlipBeforeOwnHandUpdate() {
	s.mirror.Apply(roomEvent(model.ChangeInsert, room(model.StageWaiting, 1)))
	s.mirror.Apply(playerEvent(model.ChangeInsert, newPlayer("p1", "Alice")))

	// The room row flips to preflop before the player's hand row lands
	s.mirror.Apply(roomEvent(model.ChangeUpdate, room(model.StagePreflop, 2)))
	s.True(s.mirror.HandPending("p1"))

	dealt := newPlayer("p1", "Alice")
	dealt.Hand = []model.Card{
		model.NewCard(model.Diamonds, "A"),
		model.NewCard(model.Diamonds, "K"),
	}
	s.mirror.Apply(playerEvent(model.ChangeUpdate, dealt))
	s.False(s.mirror.HandPending("p1"))
}

func (s *MirrorSuite) TestSeededMirror() {
	m := NewMirror(room(model.StageFlop, 3), []*model.Player{newPlayer("p1", "Alice")})

	s.Equal(model.StageFlop, m.Room().Stage)
	s.Len(m.Players(), 1)

	// A snapshot at or below the seed version is stale
	s.Empty(m.Apply(roomEvent(model.ChangeUpdate, room(model.StageWaiting, 3))))
	s.Equal(model.StageFlop, m.Room().Stage)
}
