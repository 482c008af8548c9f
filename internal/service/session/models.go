package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/soundroom/client/internal/domain"
	"github.com/soundroom/client/pkg/validator"
)

// -- inbound payloads --

type UserPayload struct {
	Id          string `json:"id" validate:"required"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

func (p UserPayload) toDomain() domain.User {
	return domain.User{
		Id:          p.Id,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
	}
}

type AuthOkPayload struct {
	User UserPayload `json:"user" validate:"required"`
}

type ActionPayload struct {
	Id          string `json:"id" validate:"required"`
	Kind        string `json:"kind" validate:"required"`
	UserId      string `json:"user_id"`
	Text        string `json:"text"`
	TrackId     string `json:"track_id"`
	TimestampMs int64  `json:"timestamp_ms"`
}

func (p ActionPayload) toDomain() domain.RoomAction {
	return domain.RoomAction{
		Id:        p.Id,
		Kind:      domain.ActionKind(p.Kind),
		UserId:    p.UserId,
		Text:      p.Text,
		TrackId:   p.TrackId,
		Timestamp: time.UnixMilli(p.TimestampMs),
	}
}

type EntryPayload struct {
	TrackId string   `json:"track_id" validate:"required"`
	Votes   []string `json:"votes"`
}

type TrackPayload struct {
	Id         string `json:"id" validate:"required"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	DurationMs int64  `json:"duration_ms"`
}

func (p TrackPayload) toDomain() domain.Track {
	return domain.Track{
		Id:       p.Id,
		Title:    p.Title,
		Artist:   p.Artist,
		Duration: time.Duration(p.DurationMs) * time.Millisecond,
	}
}

type RoomConfigPayload struct {
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}

// RoomSnapshotPayload is the full-room snapshot carried by room.create.ok,
// which acknowledges both creates and joins.
type RoomSnapshotPayload struct {
	Id         string            `json:"id" validate:"required"`
	Config     RoomConfigPayload `json:"config"`
	Listeners  []string          `json:"listeners"`
	Playlist   []EntryPayload    `json:"playlist" validate:"dive"`
	ActionLog  []ActionPayload   `json:"action_log" validate:"dive"`
	Users      []UserPayload     `json:"users" validate:"dive"`
	Tracks     []TrackPayload    `json:"tracks" validate:"dive"`
	ProgressMs int64             `json:"progress_ms"`
	Version    uint64            `json:"version"`
}

type ChatEventPayload struct {
	Id          string `json:"id" validate:"required"`
	UserId      string `json:"user_id" validate:"required"`
	Text        string `json:"text" validate:"required"`
	TimestampMs int64  `json:"timestamp_ms"`
	Version     uint64 `json:"version"`
}

type VoteEventPayload struct {
	Id      string `json:"id" validate:"required"`
	UserId  string `json:"user_id" validate:"required"`
	TrackId string `json:"track_id" validate:"required"`
	Version uint64 `json:"version"`
}

type ListenerJoinPayload struct {
	Id      string      `json:"id" validate:"required"`
	User    UserPayload `json:"user" validate:"required"`
	Version uint64      `json:"version"`
}

type ListenerLeavePayload struct {
	Id      string `json:"id" validate:"required"`
	UserId  string `json:"user_id" validate:"required"`
	Version uint64 `json:"version"`
}

type ProgressPayload struct {
	ProgressMs int64 `json:"progress_ms" validate:"gte=0"`
}

type TrackEndPayload struct {
	TrackId string `json:"track_id"`
	Version uint64 `json:"version"`
}

type TrackMetaPayload struct {
	Tracks []TrackPayload `json:"tracks" validate:"dive"`
}

// -- outbound payloads --

type RoomCreateOut struct {
	Config domain.RoomConfig `json:"config"`
}

type RoomJoinRequestOut struct {
	RoomId string `json:"room_id"`
}

// RoomEventIntent is the user intent wrapped into an outbound room.event.
type RoomEventIntent struct {
	Type     string   `json:"type"`
	Text     string   `json:"text,omitempty"`
	TrackIds []string `json:"track_ids,omitempty"`
}

const (
	intentChat      = "chat"
	intentAddOrVote = "addOrVote"
)

type RoomEventOut struct {
	RoomId string          `json:"room_id"`
	Event  RoomEventIntent `json:"event"`
}

type SyncRequestOut struct {
	RoomId string `json:"room_id"`
}

// -- read-time views --

type UserView struct {
	Id          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type PlaylistEntryView struct {
	TrackId    string     `json:"track_id"`
	Title      string     `json:"title"`
	Artist     string     `json:"artist"`
	DurationMs int64      `json:"duration_ms"`
	Votes      []UserView `json:"votes"`
	CanVote    bool       `json:"can_vote"`
	HasVoted   bool       `json:"has_voted"`
}

type ChatMessageView struct {
	Id                string    `json:"id"`
	Text              string    `json:"text"`
	Timestamp         time.Time `json:"timestamp"`
	User              UserView  `json:"user"`
	SentByCurrentUser bool      `json:"sent_by_current_user"`
}

// Snapshot is the read-only view handed to the UI layer. Everything in it is
// a copy; rendering code never mutates session state.
type Snapshot struct {
	Connection      domain.ConnectionState `json:"connection"`
	JoinState       string                 `json:"join_state"`
	TargetRoomId    string                 `json:"target_room_id"`
	RoomId          string                 `json:"room_id"`
	RoomName        string                 `json:"room_name"`
	Colors          []string               `json:"colors"`
	Listeners       []UserView             `json:"listeners"`
	Playlist        []PlaylistEntryView    `json:"playlist"`
	ProgressPercent float64                `json:"progress_percent"`
	Sync            domain.SyncState       `json:"sync"`
	DraftChat       string                 `json:"draft_chat"`
	CurrentUser     UserView               `json:"current_user"`
}

func unmarshalValid(v *validator.Validator, payload json.RawMessage, out any) error {
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if err := v.Err(out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	return nil
}
