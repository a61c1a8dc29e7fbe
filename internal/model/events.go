package model

import "time"

// ChangeEntity identifies which table a change event belongs to
type ChangeEntity string

const (
	EntityRoom   ChangeEntity = "room"
	EntityPlayer ChangeEntity = "player"
)

// ChangeKind is the kind of row change
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangeEvent is one row-change notification from the store's feed.
// Delivery is at-least-once and per-room; cross-row ordering between the
// room record and its players is best effort only. RoomVersion carries
// the room's version at the time of the write so receivers can discard
// stale room snapshots.
type ChangeEvent struct {
	Entity      ChangeEntity `json:"entity"`
	Kind        ChangeKind   `json:"kind"`
	RoomID      RoomCode     `json:"room_id"`
	RoomVersion int64        `json:"room_version,omitempty"`
	Room        *Room        `json:"room,omitempty"`
	Player      *Player      `json:"player,omitempty"`
	PlayerID    PlayerID     `json:"player_id,omitempty"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

// NoticeKind classifies a user-visible notice derived from state diffs
type NoticeKind string

const (
	NoticeStageChanged NoticeKind = "stage_changed"
	NoticeDeal         NoticeKind = "deal"
	NoticeShowdown     NoticeKind = "showdown"
	NoticeNewRound     NoticeKind = "new_round"
	NoticePlayerJoined NoticeKind = "player_joined"
	NoticePlayerLeft   NoticeKind = "player_left"
	NoticeFold         NoticeKind = "fold"
	NoticeReveal       NoticeKind = "reveal"
	NoticeSessionEnded NoticeKind = "session_ended"
)

// Notice is a per-observer event derived by the reconciler from diffing
// consecutive snapshots. Notices are local to the observing device and
// intentionally not deduplicated across devices.
type Notice struct {
	Kind    NoticeKind
	Text    string
	Stage   Stage    // set for stage_changed
	Player  PlayerID // set for player-scoped notices
	Winners []Winner // set for showdown
}
