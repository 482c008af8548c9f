package inmemory

import (
	"sync"

	"github.com/soundroom/client/internal/domain"
	"github.com/soundroom/client/internal/repository/tracks"
)

// repo holds resolved track metadata keyed by track id. Playlist entries
// reference tracks by id only; duration and display fields are looked up
// here when a snapshot is built.
type repo struct {
	byId map[string]domain.Track
	mu   sync.RWMutex
}

func NewRepo() *repo {
	return &repo{byId: make(map[string]domain.Track)}
}

func (r *repo) Put(track domain.Track) {
	if track.Id == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byId[track.Id] = track
}

func (r *repo) Get(trackId string) (domain.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	track, ok := r.byId[trackId]
	if !ok {
		return domain.Track{}, tracks.ErrNotFound
	}

	return track, nil
}
