package domain

import "time"

// ConnError is a transport-level connection failure surfaced to the UI as
// display data, never as a panic.
type ConnError struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

func (e *ConnError) Error() string {
	return e.Message
}

// ConnectionState holds the socket lifecycle flags. At most one of
// IsConnected/IsConnecting is true; Err is set only while neither is.
type ConnectionState struct {
	IsConnected  bool       `json:"is_connected"`
	IsConnecting bool       `json:"is_connecting"`
	Err          *ConnError `json:"error,omitempty"`
}

type RoomConfig struct {
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}

// Room is the identity, membership and playback-clock slice of the active
// session. The playlist and action log live in their owning components.
// Version is the server's monotonic sequence number for this room; snapshots
// and deltas carry it so a late full snapshot cannot clobber newer deltas.
type Room struct {
	Id                 string        `json:"id"`
	Config             RoomConfig    `json:"config"`
	Listeners          []string      `json:"listeners"`
	NowPlayingProgress time.Duration `json:"now_playing_progress"`
	Version            uint64        `json:"version"`
}

type User struct {
	Id          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type Track struct {
	Id       string        `json:"id"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Duration time.Duration `json:"duration"`
}

// SyncState reports whether the local playback clock follows the server's
// authoritative progress ticks.
type SyncState struct {
	IsSynced bool `json:"is_synced"`
}
