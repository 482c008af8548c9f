package session

import (
	"encoding/json"
	"time"

	"github.com/soundroom/client/internal/domain"
)

// StartSync re-attaches the local playback clock to the server's
// authoritative progress and asks for a fresh tick.
func (s *service) StartSync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateJoined {
		s.logger.Info("ignoring sync start while not joined")
		return ErrNotJoined
	}

	s.syncState.IsSynced = true

	if err := s.conn.Send(domain.EventSyncRequest, SyncRequestOut{RoomId: s.room.Id}); err != nil {
		s.logger.Debug("failed to send sync request", "err", err)
	}

	return nil
}

// StopSync records a manual local override (seek or pause); progress ticks
// are ignored until the user re-initiates sync.
func (s *service) StopSync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncState.IsSynced = false
}

func (s *service) applyProgress(payload json.RawMessage) {
	var input ProgressPayload
	if err := unmarshalValid(s.validate, payload, &input); err != nil {
		s.logger.Info("dropping malformed progress tick", "err", err)
		return
	}

	if !s.syncState.IsSynced {
		return
	}

	s.room.NowPlayingProgress = time.Duration(input.ProgressMs) * time.Millisecond
}

// ProgressPercent reports the now-playing completion in [0, 100]. Without
// resolved track metadata the duration is unknown and the percent is 0.
func (s *service) ProgressPercent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.progressPercentLocked()
}

func (s *service) progressPercentLocked() float64 {
	entry, ok := s.playlist.NowPlaying()
	if !ok {
		return 0
	}

	track, err := s.tracks.Get(entry.TrackId)
	if err != nil || track.Duration <= 0 {
		return 0
	}

	percent := float64(s.room.NowPlayingProgress) / float64(track.Duration) * 100
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}

	return percent
}
