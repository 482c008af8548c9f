package controller

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundroom/client/internal/domain"
	"github.com/soundroom/client/internal/service/session"
)

type stubService struct {
	joined  []string
	chats   []string
	votes   []string
	drafts  []string
	cleared int
	synced  int
	joinErr error
	voteErr error
}

func (s *stubService) RequestJoin(roomId string) error {
	s.joined = append(s.joined, roomId)
	return s.joinErr
}

func (s *stubService) CreateRoom(config domain.RoomConfig) error { return nil }

func (s *stubService) SendChat(text string) error {
	s.chats = append(s.chats, text)
	return nil
}

func (s *stubService) SetDraftChat(text string) { s.drafts = append(s.drafts, text) }
func (s *stubService) ClearDraftChat()          { s.cleared++ }

func (s *stubService) Vote(trackId string) error {
	s.votes = append(s.votes, trackId)
	return s.voteErr
}

func (s *stubService) AddTracks(trackIds []string) error { return nil }

func (s *stubService) StartSync() error {
	s.synced++
	return nil
}

func (s *stubService) StopSync() {}

func (s *stubService) Snapshot() session.Snapshot {
	return session.Snapshot{JoinState: "joined", RoomId: "r1"}
}

func (s *stubService) ChatLog() []session.ChatMessageView {
	return []session.ChatMessageView{{Id: "a1", Text: "hi"}}
}

func newTestServer(t *testing.T, stub *stubService) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(NewController(stub, slog.Default()).Mux())
	t.Cleanup(srv.Close)

	return srv
}

func TestGetState(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestGetChatLog(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	resp, err := http.Get(srv.URL + "/api/chat")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJoinIntent(t *testing.T) {
	stub := &stubService{}
	srv := newTestServer(t, stub)

	resp, err := http.Post(srv.URL+"/api/join", "application/json", strings.NewReader(`{"room_id":"r1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{"r1"}, stub.joined)
}

func TestJoinValidation(t *testing.T) {
	stub := &stubService{}
	srv := newTestServer(t, stub)

	resp, err := http.Post(srv.URL+"/api/join", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, stub.joined)

	resp, err = http.Post(srv.URL+"/api/join", "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVoteWhileNotJoined(t *testing.T) {
	stub := &stubService{voteErr: session.ErrNotJoined}
	srv := newTestServer(t, stub)

	resp, err := http.Post(srv.URL+"/api/vote", "application/json", strings.NewReader(`{"track_id":"t1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestChatIntent(t *testing.T) {
	stub := &stubService{}
	srv := newTestServer(t, stub)

	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"text":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{"hi"}, stub.chats)
}
