package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/storage/memory"
	"github.com/hostcard/pokerroom/internal/testutil"
)

type HubSuite struct {
	suite.Suite
	storage *memory.Storage
	hub     *Hub
	ctx     context.Context
}

func TestHubSuite(t *testing.T) {
	suite.Run(t, new(HubSuite))
}

func (s *HubSuite) SetupTest() {
	s.storage = memory.New()
	s.hub = NewHub("1234", s.storage, testutil.NopLogger())
	go s.hub.Run()
	s.ctx = context.Background()
}

func (s *HubSuite) TearDownTest() {
	s.hub.Close()
}

func (s *HubSuite) saveRoom() {
	room := &model.Room{
		ID:             "1234",
		Stage:          model.StageWaiting,
		CommunityCards: model.BaseDeck()[:5],
		Deck:           model.BaseDeck()[5:],
		Winners:        []model.Winner{},
	}
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room, 0))
}

func (s *HubSuite) TestClientReceivesFeedEvents() {
	client := NewClient(s.hub, "p1")
	s.Require().True(s.hub.Register(client))

	s.saveRoom()

	select {
	case message := <-client.send:
		s.Contains(string(message), "event: change\n")
		s.Contains(string(message), `"room_id":"1234"`)
	case <-time.After(time.Second):
		s.Fail("no message received")
	}
}

func (s *HubSuite) TestUnregisterClosesSend() {
	client := NewClient(s.hub, "p1")
	s.Require().True(s.hub.Register(client))

	s.hub.Unregister(client)

	select {
	case _, open := <-client.send:
		s.False(open)
	case <-time.After(time.Second):
		s.Fail("send channel not closed")
	}
}

func (s *HubSuite) TestCloseDisconnectsClients() {
	client := NewClient(s.hub, "p1")
	s.Require().True(s.hub.Register(client))

	s.hub.Close()

	select {
	case _, open := <-client.send:
		s.False(open)
	case <-time.After(time.Second):
		s.Fail("send channel not closed")
	}

	// Registration against a stopped hub is refused
	s.False(s.hub.Register(NewClient(s.hub, "p2")))
}

func (s *HubSuite) TestFormatMessage() {
	message := FormatMessage("change", `{"a":1}`)
	s.Equal("event: change\ndata: {\"a\":1}\n\n", string(message))
}

func (s *HubSuite) TestFormatMessageMultiline() {
	message := FormatMessage("change", "line1\nline2")
	s.Equal("event: change\ndata: line1\ndata: line2\n\n", string(message))
}

func (s *HubSuite) TestHubManagerReusesHubs() {
	manager := NewHubManager(s.storage, testutil.NopLogger())

	a := manager.GetOrCreateHub("1234")
	b := manager.GetOrCreateHub("1234")
	s.Same(a, b)

	manager.RemoveHub("1234")
	c := manager.GetOrCreateHub("1234")
	s.NotSame(a, c)
	manager.RemoveHub("1234")
}
