// Package session is the room session state machine: it sequences the join
// protocol, fans inbound server events out to the action log, the playlist
// and the playback clock, and turns local user intents into outbound events.
package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/soundroom/client/internal/connection"
	"github.com/soundroom/client/internal/domain"
	"github.com/soundroom/client/pkg/validator"
)

var (
	ErrNotJoined   = errors.New("not joined to a room")
	ErrEmptyRoomId = errors.New("empty room id")
)

type joinState string

const (
	stateUnjoined joinState = "unjoined"
	stateJoining  joinState = "joining"
	stateJoined   joinState = "joined"
)

type iConnection interface {
	On(event string, handler connection.Handler)
	OnUnhandled(handler connection.Handler)
	Send(event string, payload any) error
	State() domain.ConnectionState
}

type iActionLog interface {
	Append(domain.RoomAction) error
	All() []domain.RoomAction
	ByKind(domain.ActionKind) []domain.RoomAction
	Len() int
	Reset()
}

type iUserRepo interface {
	Put(domain.User)
	Get(userId string) (domain.User, error)
}

type iTrackRepo interface {
	Put(domain.Track)
	Get(trackId string) (domain.Track, error)
}

type service struct {
	conn      iConnection
	actionLog iActionLog
	users     iUserRepo
	tracks    iTrackRepo
	validate  *validator.Validator
	logger    *slog.Logger

	// mu serializes every state mutation: inbound events arrive one at a
	// time from the connection's delivery goroutine, intents take the same
	// lock.
	mu            sync.Mutex
	state         joinState
	targetRoomId  string
	pendingCreate bool
	room          domain.Room
	playlist      *domain.Playlist
	syncState     domain.SyncState
	currentUserId string
	draftChat     string
}

func NewService(conn iConnection, actionLog iActionLog, users iUserRepo, tracks iTrackRepo, logger *slog.Logger) *service {
	s := service{
		conn:      conn,
		actionLog: actionLog,
		users:     users,
		tracks:    tracks,
		validate:  validator.NewValidator(),
		logger:    logger,
		state:     stateUnjoined,
		playlist:  domain.NewPlaylist(nil),
	}

	s.conn.On(domain.EventAuthOk, s.handleAuthOk)
	s.conn.On(domain.EventConnectOk, s.handleConnectOk)
	s.conn.On(domain.EventRoomCreateOk, s.handleRoomOk)
	s.conn.OnUnhandled(s.handleRoomScoped)

	return &s
}

// handleConnectOk re-establishes the room session on a fresh socket. The
// server only broadcasts to sockets that joined, so a reconnect leaves the
// session wedged unless the join request is re-issued for the target room.
// The resulting repeat room.create.ok is safe: the version-gated merge
// cannot roll back deltas applied before the drop.
func (s *service) handleConnectOk(_ string, _ json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateUnjoined || s.targetRoomId == "" {
		return
	}

	s.logger.Info("re-joining room after reconnect", "roomId", s.targetRoomId)

	if err := s.conn.Send(domain.EventRoomJoinRequest, RoomJoinRequestOut{RoomId: s.targetRoomId}); err != nil {
		s.logger.Debug("failed to send join request", "err", err)
	}
}

func (s *service) handleAuthOk(_ string, payload json.RawMessage) {
	var input AuthOkPayload
	if err := unmarshalValid(s.validate, payload, &input); err != nil {
		s.logger.Info("dropping malformed auth.ok", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentUserId = input.User.Id
	s.users.Put(input.User.toDomain())

	s.logger.Debug("authenticated", "userId", s.currentUserId)
}

// advanceVersion is the snapshot-vs-delta ordering gate: deltas carry the
// room's monotonic sequence number, anything at or below the locally applied
// version already took effect (or was folded into a snapshot) and must not
// re-apply. Unversioned events pass through.
func (s *service) advanceVersion(version uint64) bool {
	if version == 0 {
		return true
	}
	if version <= s.room.Version {
		return false
	}

	s.room.Version = version
	return true
}
