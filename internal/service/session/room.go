package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/soundroom/client/internal/domain"
)

// RequestJoin targets a room and emits the join request. No local state is
// mutated optimistically; while joining, Snapshot reports JoinState
// "joining" and the UI renders a loading affordance. Re-requesting the room
// that is already targeted is a no-op, so mount races cannot cause join
// storms. Targeting a different room supersedes any pending join.
func (s *service) RequestJoin(roomId string) error {
	if roomId == "" {
		return ErrEmptyRoomId
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.targetRoomId == roomId && s.state != stateUnjoined {
		s.logger.Debug("already targeting room", "roomId", roomId, "state", string(s.state))
		return nil
	}

	s.targetRoomId = roomId
	s.pendingCreate = false
	s.state = stateJoining

	s.logger.Info("joining room", "roomId", roomId)

	if err := s.conn.Send(domain.EventRoomJoinRequest, RoomJoinRequestOut{RoomId: roomId}); err != nil {
		// fire-and-forget: state stays Joining and handleConnectOk re-issues
		// the join once the socket is up
		s.logger.Debug("failed to send join request", "err", err)
	}

	return nil
}

// CreateRoom emits a room.create; the server answers with a full snapshot
// adopted on arrival.
func (s *service) CreateRoom(config domain.RoomConfig) error {
	s.mu.Lock()
	s.pendingCreate = true
	s.mu.Unlock()

	if err := s.conn.Send(domain.EventRoomCreate, RoomCreateOut{Config: config}); err != nil {
		return fmt.Errorf("failed to send room create: %w", err)
	}

	return nil
}

// EmitRoomEvent wraps a user intent with the current room id and forwards it
// to the server. Valid only while joined; callers gate on join state, the
// state machine ignores and logs violations rather than crashing.
func (s *service) EmitRoomEvent(event RoomEventIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.emitRoomEventLocked(event)
}

func (s *service) emitRoomEventLocked(event RoomEventIntent) error {
	if s.state != stateJoined {
		s.logger.Info("ignoring room event while not joined", "type", event.Type, "state", string(s.state))
		return ErrNotJoined
	}

	if err := s.conn.Send(domain.EventRoomEvent, RoomEventOut{RoomId: s.room.Id, Event: event}); err != nil {
		s.logger.Debug("failed to send room event", "type", event.Type, "err", err)
	}

	return nil
}

// handleRoomOk applies a full-room snapshot. Which rooms are acceptable
// depends on where the state machine is: a snapshot for the currently
// targeted room completes the join, a repeat snapshot for the joined room is
// merged without clobbering newer deltas, a snapshot after a create adopts
// the server-assigned id. Anything else is a superseded join and is
// discarded.
func (s *service) handleRoomOk(_ string, payload json.RawMessage) {
	var snap RoomSnapshotPayload
	if err := unmarshalValid(s.validate, payload, &snap); err != nil {
		s.logger.Info("dropping malformed room snapshot", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == stateJoining && snap.Id == s.targetRoomId:
		s.replaceRoom(&snap)
	case s.state == stateJoined && snap.Id == s.room.Id:
		s.mergeRoom(&snap)
	case s.pendingCreate:
		s.pendingCreate = false
		s.targetRoomId = snap.Id
		s.replaceRoom(&snap)
	default:
		s.logger.Debug("discarding snapshot for superseded room", "roomId", snap.Id)
	}
}

func (s *service) replaceRoom(snap *RoomSnapshotPayload) {
	s.room = domain.Room{
		Id: snap.Id,
		Config: domain.RoomConfig{
			Name:   snap.Config.Name,
			Colors: snap.Config.Colors,
		},
		Listeners:          append([]string(nil), snap.Listeners...),
		NowPlayingProgress: time.Duration(snap.ProgressMs) * time.Millisecond,
		Version:            snap.Version,
	}
	s.state = stateJoined

	entries := make([]domain.PlaylistEntry, 0, len(snap.Playlist))
	for _, entry := range snap.Playlist {
		entries = append(entries, domain.PlaylistEntry{
			TrackId: entry.TrackId,
			Votes:   append([]string(nil), entry.Votes...),
		})
	}
	s.playlist = domain.NewPlaylist(entries)

	s.actionLog.Reset()
	s.appendSnapshotData(snap)

	s.logger.Info("joined room", "roomId", snap.Id, "version", snap.Version)
}

// mergeRoom handles a repeat snapshot for the already-joined room. A
// snapshot at least as new as the local version includes every delta applied
// so far and may be adopted for playlist and membership; an older one only
// contributes additively (unseen actions, unknown tracks and profiles) so it
// cannot roll back deltas that arrived after it was captured.
func (s *service) mergeRoom(snap *RoomSnapshotPayload) {
	if snap.Version >= s.room.Version {
		s.room.Config = domain.RoomConfig{
			Name:   snap.Config.Name,
			Colors: snap.Config.Colors,
		}
		s.room.Listeners = append([]string(nil), snap.Listeners...)
		s.room.NowPlayingProgress = time.Duration(snap.ProgressMs) * time.Millisecond
		s.room.Version = snap.Version

		entries := make([]domain.PlaylistEntry, 0, len(snap.Playlist))
		for _, entry := range snap.Playlist {
			entries = append(entries, domain.PlaylistEntry{
				TrackId: entry.TrackId,
				Votes:   append([]string(nil), entry.Votes...),
			})
		}
		s.playlist = domain.NewPlaylist(entries)
	}

	s.appendSnapshotData(snap)

	s.logger.Debug("merged repeat snapshot", "roomId", snap.Id, "version", snap.Version)
}

// appendSnapshotData replays the snapshot's action log through the
// dedup-guarded store and feeds the user and track directories.
func (s *service) appendSnapshotData(snap *RoomSnapshotPayload) {
	for _, action := range snap.ActionLog {
		if err := s.actionLog.Append(action.toDomain()); err != nil {
			s.logger.Debug("skipping snapshot action", "actionId", action.Id, "err", err)
		}
	}
	for _, user := range snap.Users {
		s.users.Put(user.toDomain())
	}
	for _, track := range snap.Tracks {
		s.tracks.Put(track.toDomain())
	}
}

// handleRoomScoped fans room-scoped deltas out to the action log, the
// playlist and the playback clock. Events for any room other than the one
// currently joined are stale (the user already navigated away) and are
// silently discarded.
func (s *service) handleRoomScoped(event string, payload json.RawMessage) {
	roomId, kind, ok := domain.ParseRoomEvent(event)
	if !ok {
		s.logger.Debug("dropping unknown inbound event", "event", event)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateJoined || roomId != s.room.Id {
		s.logger.Debug("discarding event for stale room", "event", event)
		return
	}

	switch kind {
	case domain.RoomEventChat:
		s.applyChat(payload)
	case domain.RoomEventVote:
		s.applyVote(payload)
	case domain.RoomEventListenerJoin:
		s.applyListenerJoin(payload)
	case domain.RoomEventListenerLeave:
		s.applyListenerLeave(payload)
	case domain.RoomEventProgress:
		s.applyProgress(payload)
	case domain.RoomEventTrackEnd:
		s.applyTrackEnd(payload)
	case domain.RoomEventTrackMeta:
		s.applyTrackMeta(payload)
	}
}

func (s *service) applyListenerJoin(payload json.RawMessage) {
	var input ListenerJoinPayload
	if err := unmarshalValid(s.validate, payload, &input); err != nil {
		s.logger.Info("dropping malformed listener join", "err", err)
		return
	}

	if !s.advanceVersion(input.Version) {
		return
	}

	s.users.Put(input.User.toDomain())

	found := false
	for _, id := range s.room.Listeners {
		if id == input.User.Id {
			found = true
			break
		}
	}
	if !found {
		s.room.Listeners = append(s.room.Listeners, input.User.Id)
	}

	if err := s.actionLog.Append(domain.RoomAction{
		Id:        input.Id,
		Kind:      domain.ActionJoin,
		UserId:    input.User.Id,
		Timestamp: time.Now(),
	}); err != nil {
		s.logger.Debug("skipping join action", "actionId", input.Id, "err", err)
	}
}

func (s *service) applyListenerLeave(payload json.RawMessage) {
	var input ListenerLeavePayload
	if err := unmarshalValid(s.validate, payload, &input); err != nil {
		s.logger.Info("dropping malformed listener leave", "err", err)
		return
	}

	if !s.advanceVersion(input.Version) {
		return
	}

	listeners := s.room.Listeners[:0]
	for _, id := range s.room.Listeners {
		if id != input.UserId {
			listeners = append(listeners, id)
		}
	}
	s.room.Listeners = listeners

	if err := s.actionLog.Append(domain.RoomAction{
		Id:        input.Id,
		Kind:      domain.ActionLeave,
		UserId:    input.UserId,
		Timestamp: time.Now(),
	}); err != nil {
		s.logger.Debug("skipping leave action", "actionId", input.Id, "err", err)
	}
}

func (s *service) listenerViews() []UserView {
	views := make([]UserView, 0, len(s.room.Listeners))
	for _, id := range s.room.Listeners {
		views = append(views, s.userView(id))
	}

	return views
}

// userView joins a user id against the directory at read time, so profile
// edits reflect retroactively. Unknown ids degrade to an id-only view.
func (s *service) userView(userId string) UserView {
	user, err := s.users.Get(userId)
	if err != nil {
		return UserView{Id: userId}
	}

	return UserView{
		Id:          user.Id,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}
}

// Snapshot renders the full session state as a deep copy.
func (s *service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Connection:      s.conn.State(),
		JoinState:       string(s.state),
		TargetRoomId:    s.targetRoomId,
		RoomId:          s.room.Id,
		RoomName:        s.room.Config.Name,
		Colors:          append([]string(nil), s.room.Config.Colors...),
		Listeners:       s.listenerViews(),
		Playlist:        s.playlistViews(),
		ProgressPercent: s.progressPercentLocked(),
		Sync:            s.syncState,
		DraftChat:       s.draftChat,
		CurrentUser:     s.userView(s.currentUserId),
	}
}
