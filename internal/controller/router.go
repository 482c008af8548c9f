package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c controller) Mux() http.Handler {
	r := chi.NewRouter()

	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)

	r.Get("/api/state", c.handleState)
	r.Get("/api/chat", c.handleChatLog)

	r.Post("/api/join", c.handleJoin)
	r.Post("/api/room", c.handleCreateRoom)
	r.Post("/api/chat", c.handleSendChat)
	r.Post("/api/chat/draft", c.handleDraftChat)
	r.Delete("/api/chat/draft", c.handleClearDraftChat)
	r.Post("/api/vote", c.handleVote)
	r.Post("/api/tracks", c.handleAddTracks)
	r.Post("/api/sync", c.handleStartSync)
	r.Delete("/api/sync", c.handleStopSync)

	return r
}
