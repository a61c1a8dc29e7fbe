// Package reconcile maintains a client-side mirror of one room from the
// store's change feed. The feed is at-least-once and only loosely
// ordered across rows, so Apply is written as an idempotent reducer:
// replaying an event, or seeing a room snapshot older than one already
// applied, changes nothing.
package reconcile

import (
	"fmt"

	"github.com/hostcard/pokerroom/internal/model"
)

// Mirror is one observer's local copy of a room and its players. It is
// not safe for concurrent use; feed consumers apply events from a single
// goroutine.
type Mirror struct {
	room           *model.Room
	players        []*model.Player
	appliedVersion int64
	ended          bool
}

// NewMirror creates an empty mirror, optionally seeded with an initial
// full snapshot fetched before subscribing.
func NewMirror(room *model.Room, players []*model.Player) *Mirror {
	m := &Mirror{}
	if room != nil {
		m.room = room
		m.appliedVersion = room.Version
	}
	for _, p := range players {
		m.players = append(m.players, p)
	}
	return m
}

// Room returns the mirrored room, or nil before the first snapshot
func (m *Mirror) Room() *model.Room {
	return m.room
}

// Players returns the mirrored players in arrival order
func (m *Mirror) Players() []*model.Player {
	return m.players
}

// Ended reports whether the session has been torn down
func (m *Mirror) Ended() bool {
	return m.ended
}

// Player returns the mirrored player by id, or nil
func (m *Mirror) Player(id model.PlayerID) *model.Player {
	for _, p := range m.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// HandPending reports whether the round has been dealt but this player's
// own hand update hasn't arrived yet. The room row and the player row
// travel separately, so a device can see the preflop stage flip first;
// that window renders as "waiting for deal", not an error.
func (m *Mirror) HandPending(id model.PlayerID) bool {
	if m.room == nil || m.room.Stage == model.StageWaiting {
		return false
	}
	p := m.Player(id)
	return p != nil && p.Status == model.StatusActive && !p.HasHoleCards()
}

// Apply folds one change event into the mirror and returns the notices
// the transition produced. Notices are per-observer; an event that
// changes nothing (a replay, a stale snapshot) produces none.
func (m *Mirror) Apply(event model.ChangeEvent) []model.Notice {
	if m.ended {
		return nil
	}

	switch event.Entity {
	case model.EntityRoom:
		return m.applyRoom(event)
	case model.EntityPlayer:
		return m.applyPlayer(event)
	}
	return nil
}

func (m *Mirror) applyRoom(event model.ChangeEvent) []model.Notice {
	if event.Kind == model.ChangeDelete {
		m.room = nil
		m.players = nil
		m.ended = true
		return []model.Notice{{
			Kind: model.NoticeSessionEnded,
			Text: "session ended",
		}}
	}

	if event.Room == nil {
		return nil
	}
	// Replays and out-of-order snapshots carry a version we've already
	// applied (or older); drop them.
	if event.RoomVersion != 0 && event.RoomVersion <= m.appliedVersion {
		return nil
	}

	prev := m.room
	m.room = event.Room
	m.appliedVersion = event.RoomVersion
	return m.roomNotices(prev, event.Room)
}

func (m *Mirror) roomNotices(prev, next *model.Room) []model.Notice {
	if prev == nil || prev.Stage == next.Stage {
		return nil
	}

	switch {
	case next.Stage == model.StagePreflop && prev.Stage == model.StageWaiting:
		return []model.Notice{{
			Kind:  model.NoticeDeal,
			Text:  "hole cards dealt",
			Stage: next.Stage,
		}}
	case next.Stage == model.StageShowdown:
		return []model.Notice{{
			Kind:    model.NoticeShowdown,
			Text:    showdownText(next.Winners),
			Stage:   next.Stage,
			Winners: next.Winners,
		}}
	case next.Stage == model.StageWaiting && next.RoundCount > prev.RoundCount:
		return []model.Notice{{
			Kind:  model.NoticeNewRound,
			Text:  fmt.Sprintf("round %d ready", next.RoundCount+1),
			Stage: next.Stage,
		}}
	default:
		return []model.Notice{{
			Kind:  model.NoticeStageChanged,
			Text:  fmt.Sprintf("stage: %s", next.Stage),
			Stage: next.Stage,
		}}
	}
}

func showdownText(winners []model.Winner) string {
	switch len(winners) {
	case 0:
		return "showdown"
	case 1:
		return fmt.Sprintf("%s wins (%s)", winners[0].Name, winners[0].Description)
	default:
		names := ""
		for i, w := range winners {
			if i > 0 {
				names += ", "
			}
			names += w.Name
		}
		return fmt.Sprintf("split pot: %s (%s)", names, winners[0].Description)
	}
}

func (m *Mirror) applyPlayer(event model.ChangeEvent) []model.Notice {
	switch event.Kind {
	case model.ChangeInsert:
		if event.Player == nil || m.Player(event.Player.ID) != nil {
			return nil
		}
		m.players = append(m.players, event.Player)
		return []model.Notice{{
			Kind:   model.NoticePlayerJoined,
			Text:   fmt.Sprintf("%s joined", event.Player.Name),
			Player: event.Player.ID,
		}}

	case model.ChangeUpdate:
		if event.Player == nil {
			return nil
		}
		for i, p := range m.players {
			if p.ID != event.Player.ID {
				continue
			}
			m.players[i] = event.Player
			return playerNotices(p, event.Player)
		}
		// Update for a player we never saw inserted; ignored, the next
		// full fetch covers it.
		return nil

	case model.ChangeDelete:
		for i, p := range m.players {
			if p.ID != event.PlayerID {
				continue
			}
			m.players = append(m.players[:i], m.players[i+1:]...)
			return []model.Notice{{
				Kind:   model.NoticePlayerLeft,
				Text:   fmt.Sprintf("%s left", p.Name),
				Player: p.ID,
			}}
		}
		return nil
	}
	return nil
}

func playerNotices(prev, next *model.Player) []model.Notice {
	var notices []model.Notice
	if prev.Status != model.StatusFolded && next.Status == model.StatusFolded {
		notices = append(notices, model.Notice{
			Kind:   model.NoticeFold,
			Text:   fmt.Sprintf("%s folded", next.Name),
			Player: next.ID,
		})
	}
	if !prev.IsRevealed && next.IsRevealed {
		notices = append(notices, model.Notice{
			Kind:   model.NoticeReveal,
			Text:   fmt.Sprintf("%s revealed their hand", next.Name),
			Player: next.ID,
		})
	}
	return notices
}
