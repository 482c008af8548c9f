package domain

import "time"

type ActionKind string

const (
	ActionChat  ActionKind = "chat"
	ActionJoin  ActionKind = "join"
	ActionLeave ActionKind = "leave"
	ActionVote  ActionKind = "vote"
)

// RoomAction is one entry in a room's append-only action log. Actions are
// immutable once appended; Id is unique and used to reject replayed
// duplicates. UserId references the user directory, profiles are never
// embedded here.
type RoomAction struct {
	Id        string     `json:"id"`
	Kind      ActionKind `json:"kind"`
	UserId    string     `json:"user_id"`
	Timestamp time.Time  `json:"timestamp"`
	Text      string     `json:"text,omitempty"`
	TrackId   string     `json:"track_id,omitempty"`
}
