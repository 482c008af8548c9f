package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soundroom/client/internal/domain"
	"github.com/soundroom/client/internal/service/session"
	"github.com/soundroom/client/pkg/validator"
)

func (c controller) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Info("failed to write response", "err", err)
	}
}

func (c controller) writeValidationErrors(w http.ResponseWriter, fieldErrors []validator.ValidationError) {
	c.writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fieldErrors})
}

func (c controller) decode(w http.ResponseWriter, r *http.Request, input any) bool {
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		c.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return false
	}

	if fieldErrors, ok := c.validate.Validate(input); !ok {
		c.writeValidationErrors(w, fieldErrors)
		return false
	}

	return true
}

// writeIntentResult maps intent errors: not-joined is the caller's gating
// bug, reported as a conflict; everything else in this surface is
// fire-and-forget and acknowledged immediately.
func (c controller) writeIntentResult(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotJoined) {
		c.writeJSON(w, http.StatusConflict, map[string]string{"error": "not joined"})
		return
	}
	if err != nil {
		c.logger.Info("intent failed", "err", err)
	}

	c.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (c controller) handleState(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, c.sessionService.Snapshot())
}

func (c controller) handleChatLog(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, map[string]any{"chat": c.sessionService.ChatLog()})
}

type JoinInput struct {
	RoomId string `json:"room_id" validate:"required"`
}

func (c controller) handleJoin(w http.ResponseWriter, r *http.Request) {
	var input JoinInput
	if !c.decode(w, r, &input) {
		return
	}

	c.writeIntentResult(w, c.sessionService.RequestJoin(input.RoomId))
}

type CreateRoomInput struct {
	Name   string   `json:"name" validate:"required,max=64"`
	Colors []string `json:"colors"`
}

func (c controller) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var input CreateRoomInput
	if !c.decode(w, r, &input) {
		return
	}

	c.writeIntentResult(w, c.sessionService.CreateRoom(domain.RoomConfig{
		Name:   input.Name,
		Colors: input.Colors,
	}))
}

type SendChatInput struct {
	Text string `json:"text" validate:"required,max=2000"`
}

func (c controller) handleSendChat(w http.ResponseWriter, r *http.Request) {
	var input SendChatInput
	if !c.decode(w, r, &input) {
		return
	}

	c.writeIntentResult(w, c.sessionService.SendChat(input.Text))
}

type DraftChatInput struct {
	Text string `json:"text"`
}

func (c controller) handleDraftChat(w http.ResponseWriter, r *http.Request) {
	var input DraftChatInput
	if !c.decode(w, r, &input) {
		return
	}

	c.sessionService.SetDraftChat(input.Text)
	c.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c controller) handleClearDraftChat(w http.ResponseWriter, r *http.Request) {
	c.sessionService.ClearDraftChat()
	c.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type VoteInput struct {
	TrackId string `json:"track_id" validate:"required"`
}

func (c controller) handleVote(w http.ResponseWriter, r *http.Request) {
	var input VoteInput
	if !c.decode(w, r, &input) {
		return
	}

	c.writeIntentResult(w, c.sessionService.Vote(input.TrackId))
}

type AddTracksInput struct {
	TrackIds []string `json:"track_ids" validate:"required,min=1"`
}

func (c controller) handleAddTracks(w http.ResponseWriter, r *http.Request) {
	var input AddTracksInput
	if !c.decode(w, r, &input) {
		return
	}

	c.writeIntentResult(w, c.sessionService.AddTracks(input.TrackIds))
}

func (c controller) handleStartSync(w http.ResponseWriter, r *http.Request) {
	c.writeIntentResult(w, c.sessionService.StartSync())
}

func (c controller) handleStopSync(w http.ResponseWriter, r *http.Request) {
	c.sessionService.StopSync()
	c.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
