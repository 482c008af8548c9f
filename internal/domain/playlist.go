package domain

import (
	"errors"
	"sort"
)

var ErrTrackNotFound = errors.New("track not found")

type PlaylistEntry struct {
	TrackId string   `json:"track_id"`
	Votes   []string `json:"votes"`

	// insertion sequence, tiebreak for equal vote counts
	seq int
}

func (e PlaylistEntry) HasVote(userId string) bool {
	for _, id := range e.Votes {
		if id == userId {
			return true
		}
	}

	return false
}

// Playlist is the ordered track queue of a room. Entries are unique by track
// id. The entry at position 0 is now playing and keeps its position until
// Advance; the rest are ordered by descending vote count, insertion order on
// ties.
type Playlist struct {
	entries []PlaylistEntry
	lastSeq int
}

// NewPlaylist builds a playlist from snapshot entries in the given order.
// Entries repeating a track id are skipped, the first occurrence wins.
func NewPlaylist(entries []PlaylistEntry) *Playlist {
	p := Playlist{entries: make([]PlaylistEntry, 0, len(entries))}
	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		if _, ok := seen[entry.TrackId]; ok {
			continue
		}
		seen[entry.TrackId] = struct{}{}

		entry.seq = len(p.entries)
		p.entries = append(p.entries, entry)
	}
	p.lastSeq = len(p.entries)

	return &p
}

func (p Playlist) Length() int {
	return len(p.entries)
}

// Entries returns a copy, vote slices included.
func (p Playlist) Entries() []PlaylistEntry {
	entries := make([]PlaylistEntry, len(p.entries))
	copy(entries, p.entries)
	for i := range entries {
		votes := make([]string, len(entries[i].Votes))
		copy(votes, entries[i].Votes)
		entries[i].Votes = votes
	}

	return entries
}

func (p Playlist) NowPlaying() (PlaylistEntry, bool) {
	if len(p.entries) == 0 {
		return PlaylistEntry{}, false
	}

	return p.entries[0], true
}

func (p Playlist) GetByTrackId(trackId string) (PlaylistEntry, int, error) {
	for index, entry := range p.entries {
		if entry.TrackId == trackId {
			return entry, index, nil
		}
	}

	return PlaylistEntry{}, 0, ErrTrackNotFound
}

// ApplyAddOrVote applies one user's add-or-vote over the given track ids:
// unknown tracks are appended with the user's vote, known tracks without the
// user's vote gain it, known tracks with it lose it (toggle). The queue is
// re-sorted afterwards.
func (p *Playlist) ApplyAddOrVote(userId string, trackIds []string) {
	for _, trackId := range trackIds {
		if trackId == "" {
			continue
		}

		_, index, err := p.GetByTrackId(trackId)
		if err != nil {
			p.entries = append(p.entries, PlaylistEntry{
				TrackId: trackId,
				Votes:   []string{userId},
				seq:     p.lastSeq,
			})
			p.lastSeq++
			continue
		}

		p.entries[index] = toggleVote(p.entries[index], userId)
	}

	p.resort()
}

// Advance drops the now-playing entry and promotes the highest-voted
// remaining one. Called on the external track-completion signal only.
func (p *Playlist) Advance() (PlaylistEntry, bool) {
	if len(p.entries) == 0 {
		return PlaylistEntry{}, false
	}

	p.entries = p.entries[1:]
	p.resortAll()

	return p.NowPlaying()
}

// CanVote reports whether the vote intent is currently invocable for the
// track: never for the now-playing entry or an empty playlist. A present
// vote does not block, re-invoking is the retraction path.
func (p Playlist) CanVote(trackId string) bool {
	if len(p.entries) == 0 {
		return false
	}
	if p.entries[0].TrackId == trackId {
		return false
	}

	_, _, err := p.GetByTrackId(trackId)
	return err == nil
}

func (p Playlist) HasVoted(trackId, userId string) bool {
	entry, _, err := p.GetByTrackId(trackId)
	if err != nil {
		return false
	}

	return entry.HasVote(userId)
}

// resort keeps position 0 pinned while it plays.
func (p *Playlist) resort() {
	if len(p.entries) < 3 {
		return
	}

	rest := p.entries[1:]
	sortEntries(rest)
}

func (p *Playlist) resortAll() {
	sortEntries(p.entries)
}

func sortEntries(entries []PlaylistEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if len(entries[i].Votes) != len(entries[j].Votes) {
			return len(entries[i].Votes) > len(entries[j].Votes)
		}

		return entries[i].seq < entries[j].seq
	})
}

func toggleVote(entry PlaylistEntry, userId string) PlaylistEntry {
	for index, id := range entry.Votes {
		if id == userId {
			entry.Votes = append(entry.Votes[:index], entry.Votes[index+1:]...)
			return entry
		}
	}

	entry.Votes = append(entry.Votes, userId)
	return entry
}
