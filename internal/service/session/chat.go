package session

import (
	"encoding/json"

	"github.com/soundroom/client/internal/domain"
)

// SendChat emits a chat intent for the joined room. Empty text is a no-op,
// matching the send button's behavior. The message appears in the log only
// once the server broadcasts it back.
func (s *service) SendChat(text string) error {
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.emitRoomEventLocked(RoomEventIntent{Type: intentChat, Text: text})
}

// SendDraftChat sends the held draft and clears it.
func (s *service) SendDraftChat() error {
	s.mu.Lock()
	text := s.draftChat
	s.mu.Unlock()

	if text == "" {
		return nil
	}
	if err := s.SendChat(text); err != nil {
		return err
	}

	s.ClearDraftChat()
	return nil
}

func (s *service) SetDraftChat(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draftChat = text
}

func (s *service) ClearDraftChat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draftChat = ""
}

func (s *service) applyChat(payload json.RawMessage) {
	var input ChatEventPayload
	if err := unmarshalValid(s.validate, payload, &input); err != nil {
		s.logger.Info("dropping malformed chat event", "err", err)
		return
	}

	if !s.advanceVersion(input.Version) {
		return
	}

	action := ActionPayload{
		Id:          input.Id,
		Kind:        string(domain.ActionChat),
		UserId:      input.UserId,
		Text:        input.Text,
		TimestampMs: input.TimestampMs,
	}
	if err := s.actionLog.Append(action.toDomain()); err != nil {
		s.logger.Debug("skipping chat action", "actionId", input.Id, "err", err)
	}
}

// ChatLog projects the action log to chat messages with user profiles joined
// at query time.
func (s *service) ChatLog() []ChatMessageView {
	s.mu.Lock()
	defer s.mu.Unlock()

	actions := s.actionLog.ByKind(domain.ActionChat)
	views := make([]ChatMessageView, 0, len(actions))
	for _, action := range actions {
		views = append(views, ChatMessageView{
			Id:                action.Id,
			Text:              action.Text,
			Timestamp:         action.Timestamp,
			User:              s.userView(action.UserId),
			SentByCurrentUser: s.currentUserId != "" && action.UserId == s.currentUserId,
		})
	}

	return views
}
