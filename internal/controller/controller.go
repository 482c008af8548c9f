// Package controller exposes the engine to the UI layer over a local HTTP
// surface: read-only state snapshots and intent endpoints. It holds no
// synchronization logic of its own.
package controller

import (
	"log/slog"

	"github.com/soundroom/client/internal/domain"
	"github.com/soundroom/client/internal/service/session"
	"github.com/soundroom/client/pkg/validator"
)

type iSessionService interface {
	RequestJoin(roomId string) error
	CreateRoom(config domain.RoomConfig) error
	SendChat(text string) error
	SetDraftChat(text string)
	ClearDraftChat()
	Vote(trackId string) error
	AddTracks(trackIds []string) error
	StartSync() error
	StopSync()
	Snapshot() session.Snapshot
	ChatLog() []session.ChatMessageView
}

type controller struct {
	sessionService iSessionService
	validate       *validator.Validator
	logger         *slog.Logger
}

func NewController(sessionService iSessionService, logger *slog.Logger) *controller {
	return &controller{
		sessionService: sessionService,
		validate:       validator.NewValidator(),
		logger:         logger,
	}
}
