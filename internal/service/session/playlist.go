package session

import (
	"encoding/json"
	"time"

	"github.com/soundroom/client/internal/domain"
)

// Vote emits an add-or-vote intent for a single track. Whether the server
// treats it as a vote or a retraction depends on the user's current vote,
// mirrored locally when the confirmation delta arrives.
func (s *service) Vote(trackId string) error {
	if trackId == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.emitRoomEventLocked(RoomEventIntent{Type: intentAddOrVote, TrackIds: []string{trackId}})
}

// AddTracks emits an add-or-vote intent for a batch of track ids, the path
// used when the UI layer drops a list of tracks into the room.
func (s *service) AddTracks(trackIds []string) error {
	ids := make([]string, 0, len(trackIds))
	for _, id := range trackIds {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.emitRoomEventLocked(RoomEventIntent{Type: intentAddOrVote, TrackIds: ids})
}

func (s *service) applyVote(payload json.RawMessage) {
	var input VoteEventPayload
	if err := unmarshalValid(s.validate, payload, &input); err != nil {
		s.logger.Info("dropping malformed vote event", "err", err)
		return
	}

	if !s.advanceVersion(input.Version) {
		return
	}

	s.playlist.ApplyAddOrVote(input.UserId, []string{input.TrackId})

	if err := s.actionLog.Append(domain.RoomAction{
		Id:        input.Id,
		Kind:      domain.ActionVote,
		UserId:    input.UserId,
		TrackId:   input.TrackId,
		Timestamp: time.Now(),
	}); err != nil {
		s.logger.Debug("skipping vote action", "actionId", input.Id, "err", err)
	}
}

func (s *service) applyTrackEnd(payload json.RawMessage) {
	var input TrackEndPayload
	if err := json.Unmarshal(payload, &input); err != nil {
		s.logger.Info("dropping malformed track end", "err", err)
		return
	}

	if !s.advanceVersion(input.Version) {
		return
	}

	next, ok := s.playlist.Advance()
	s.room.NowPlayingProgress = 0

	if ok {
		s.logger.Debug("advanced playlist", "trackId", next.TrackId)
	}
}

func (s *service) applyTrackMeta(payload json.RawMessage) {
	var input TrackMetaPayload
	if err := unmarshalValid(s.validate, payload, &input); err != nil {
		s.logger.Info("dropping malformed track metadata", "err", err)
		return
	}

	for _, track := range input.Tracks {
		s.tracks.Put(track.toDomain())
	}
}

// playlistViews joins playlist entries with track metadata and voter
// profiles at read time. Vote eligibility is computed for the current user:
// position 0 is never eligible, and HasVoted carries the separate
// "already voted" boolean the UI renders.
func (s *service) playlistViews() []PlaylistEntryView {
	entries := s.playlist.Entries()
	views := make([]PlaylistEntryView, 0, len(entries))

	for _, entry := range entries {
		view := PlaylistEntryView{
			TrackId:  entry.TrackId,
			Votes:    make([]UserView, 0, len(entry.Votes)),
			CanVote:  s.playlist.CanVote(entry.TrackId),
			HasVoted: s.currentUserId != "" && entry.HasVote(s.currentUserId),
		}

		if track, err := s.tracks.Get(entry.TrackId); err == nil {
			view.Title = track.Title
			view.Artist = track.Artist
			view.DurationMs = track.Duration.Milliseconds()
		}

		for _, userId := range entry.Votes {
			view.Votes = append(view.Votes, s.userView(userId))
		}

		views = append(views, view)
	}

	return views
}
