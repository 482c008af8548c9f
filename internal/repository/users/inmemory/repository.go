package inmemory

import (
	"sync"

	"golang.org/x/exp/maps"

	"github.com/soundroom/client/internal/domain"
	"github.com/soundroom/client/internal/repository/users"
)

// repo is the user directory. Profiles are stored once and joined into
// chat/vote views at query time, so a later profile update shows up in
// already-rendered history.
type repo struct {
	byId map[string]domain.User
	mu   sync.RWMutex
}

func NewRepo() *repo {
	return &repo{byId: make(map[string]domain.User)}
}

func (r *repo) Put(user domain.User) {
	if user.Id == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byId[user.Id] = user
}

func (r *repo) Get(userId string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byId[userId]
	if !ok {
		return domain.User{}, users.ErrNotFound
	}

	return user, nil
}

func (r *repo) All() []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Values(r.byId)
}
