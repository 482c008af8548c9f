package domain

import "strings"

// Connection lifecycle events, synthesized by the connection manager and
// dispatched through the same registry as server events.
const (
	EventConnectBegin = "connect.begin"
	EventConnectOk    = "connect.ok"
	EventConnectError = "connect.error"
)

// Server events with fixed names.
const (
	EventAuthOk       = "auth.ok"
	EventRoomCreateOk = "room.create.ok"
)

// Outbound event names.
const (
	EventRoomCreate      = "room.create"
	EventRoomJoinRequest = "room.join.request"
	EventRoomEvent       = "room.event"
	EventSyncRequest     = "sync.request"
)

// RoomEventKind enumerates the room-scoped delta events. Dispatch is a
// switch over this enumeration, not a name-to-handler map.
type RoomEventKind string

const (
	RoomEventChat          RoomEventKind = "chat"
	RoomEventVote          RoomEventKind = "vote"
	RoomEventListenerJoin  RoomEventKind = "listenerJoin"
	RoomEventListenerLeave RoomEventKind = "listenerLeave"
	RoomEventProgress      RoomEventKind = "progress"
	RoomEventTrackEnd      RoomEventKind = "trackEnd"
	RoomEventTrackMeta     RoomEventKind = "trackMeta"
)

func (k RoomEventKind) Valid() bool {
	switch k {
	case RoomEventChat, RoomEventVote, RoomEventListenerJoin,
		RoomEventListenerLeave, RoomEventProgress, RoomEventTrackEnd,
		RoomEventTrackMeta:
		return true
	}

	return false
}

// ParseRoomEvent splits a "room.<roomId>.<kind>" event name. Names that do
// not match the shape, or carry an unknown kind, report ok=false.
func ParseRoomEvent(name string) (roomId string, kind RoomEventKind, ok bool) {
	rest, found := strings.CutPrefix(name, "room.")
	if !found {
		return "", "", false
	}

	index := strings.LastIndex(rest, ".")
	if index <= 0 || index == len(rest)-1 {
		return "", "", false
	}

	roomId, kind = rest[:index], RoomEventKind(rest[index+1:])
	if !kind.Valid() {
		return "", "", false
	}

	return roomId, kind, true
}

// RoomEventName builds the wire name for a room-scoped event.
func RoomEventName(roomId string, kind RoomEventKind) string {
	return "room." + roomId + "." + string(kind)
}
