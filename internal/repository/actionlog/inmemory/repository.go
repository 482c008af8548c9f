package inmemory

import (
	"log/slog"
	"sync"

	"github.com/soundroom/client/internal/domain"
	"github.com/soundroom/client/internal/repository/actionlog"
)

// repo is the append-only room action log. Arrival order is preserved,
// duplicate ids are rejected so replayed events after a reconnect are
// harmless.
type repo struct {
	actions []domain.RoomAction
	seen    map[string]struct{}
	mu      sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		actions: make([]domain.RoomAction, 0),
		seen:    make(map[string]struct{}),
	}
}

func (r *repo) Append(action domain.RoomAction) error {
	funcName := "actionlog.inmemory.Append"
	r.mu.Lock()
	defer r.mu.Unlock()

	if action.Id == "" {
		slog.Info(funcName, "error", actionlog.ErrEmptyActionId)
		return actionlog.ErrEmptyActionId
	}

	if _, ok := r.seen[action.Id]; ok {
		slog.Debug(funcName, "error", actionlog.ErrDuplicateAction, "actionId", action.Id)
		return actionlog.ErrDuplicateAction
	}

	r.seen[action.Id] = struct{}{}
	r.actions = append(r.actions, action)

	slog.Debug(funcName, "actionId", action.Id, "kind", action.Kind)
	return nil
}

func (r *repo) Has(actionId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.seen[actionId]
	return ok
}

func (r *repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.actions)
}

// All returns the log in arrival order as a copy.
func (r *repo) All() []domain.RoomAction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]domain.RoomAction, len(r.actions))
	copy(actions, r.actions)

	return actions
}

// ByKind projects the log to one action kind, arrival order preserved. The
// result is a fresh slice; user joins happen at query time in the caller.
func (r *repo) ByKind(kind domain.ActionKind) []domain.RoomAction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]domain.RoomAction, 0)
	for _, action := range r.actions {
		if action.Kind == kind {
			actions = append(actions, action)
		}
	}

	return actions
}

// Reset drops the log, used when the active room is replaced.
func (r *repo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions = r.actions[:0]
	r.seen = make(map[string]struct{})
}
