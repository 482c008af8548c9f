package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundroom/client/internal/connection"
	"github.com/soundroom/client/internal/domain"
	actionlogInmemory "github.com/soundroom/client/internal/repository/actionlog/inmemory"
	tracksInmemory "github.com/soundroom/client/internal/repository/tracks/inmemory"
	usersInmemory "github.com/soundroom/client/internal/repository/users/inmemory"
	"github.com/soundroom/client/pkg/wsclient"
)

// fakeRoomServer speaks just enough of the room protocol for an end-to-end
// session: it authenticates on connect, answers join requests with a
// snapshot and echoes chat intents back as broadcasts. Like the real server
// it broadcasts only to sockets that joined the room, and room membership is
// per socket, so a reconnected client is deaf until it re-joins.
type fakeRoomServer struct {
	srv     *httptest.Server
	version uint64

	mu    sync.Mutex
	conns []*websocket.Conn
	joins int
}

func newFakeRoomServer(t *testing.T) *fakeRoomServer {
	t.Helper()

	upgrader := websocket.Upgrader{}
	frs := &fakeRoomServer{version: 1}

	frs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		frs.mu.Lock()
		frs.conns = append(frs.conns, conn)
		frs.mu.Unlock()

		joined := make(map[string]bool)

		require.NoError(t, wsclient.Write(conn, domain.EventAuthOk, map[string]any{
			"user": map[string]string{"id": "u1", "display_name": "Dee"},
		}))

		for {
			var msg wsclient.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}

			switch msg.Type {
			case domain.EventRoomJoinRequest:
				var req struct {
					RoomId string `json:"room_id"`
				}
				require.NoError(t, json.Unmarshal(msg.Payload, &req))

				joined[req.RoomId] = true

				frs.mu.Lock()
				frs.version++
				frs.joins++
				version := frs.version
				frs.mu.Unlock()

				wsclient.Write(conn, domain.EventRoomCreateOk, map[string]any{
					"id":         req.RoomId,
					"config":     map[string]any{"name": "integration"},
					"listeners":  []string{"u1"},
					"playlist":   []any{},
					"action_log": []any{},
					"users":      []any{map[string]string{"id": "u1", "display_name": "Dee"}},
					"version":    version,
				})

			case domain.EventRoomEvent:
				var out struct {
					RoomId string `json:"room_id"`
					Event  struct {
						Type string `json:"type"`
						Text string `json:"text"`
					} `json:"event"`
				}
				require.NoError(t, json.Unmarshal(msg.Payload, &out))

				if out.Event.Type == "chat" && joined[out.RoomId] {
					frs.mu.Lock()
					frs.version++
					version := frs.version
					frs.mu.Unlock()

					wsclient.Write(conn, domain.RoomEventName(out.RoomId, domain.RoomEventChat), map[string]any{
						"id":      uuid.NewString(),
						"user_id": "u1",
						"text":    out.Event.Text,
						"version": version,
					})
				}
			}
		}
	}))
	t.Cleanup(frs.srv.Close)

	return frs
}

func (frs *fakeRoomServer) url() string {
	return "ws" + strings.TrimPrefix(frs.srv.URL, "http")
}

func (frs *fakeRoomServer) connCount() int {
	frs.mu.Lock()
	defer frs.mu.Unlock()

	return len(frs.conns)
}

func (frs *fakeRoomServer) joinCount() int {
	frs.mu.Lock()
	defer frs.mu.Unlock()

	return frs.joins
}

// dropAll severs every client socket server-side, simulating a network cut.
func (frs *fakeRoomServer) dropAll() {
	frs.mu.Lock()
	defer frs.mu.Unlock()

	for _, conn := range frs.conns {
		conn.Close()
	}
	frs.conns = frs.conns[:0]
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal("condition not met in time")
}

func TestEndToEndChat(t *testing.T) {
	srv := newFakeRoomServer(t)

	manager := connection.NewManager(connection.Config{
		URL:          srv.url(),
		ReconnectMin: 10 * time.Millisecond,
		ReconnectMax: 50 * time.Millisecond,
	}, slog.Default())

	s := NewService(
		manager,
		actionlogInmemory.NewRepo(),
		usersInmemory.NewRepo(),
		tracksInmemory.NewRepo(),
		slog.Default(),
	)

	manager.Connect(context.Background())
	defer manager.Disconnect()
	waitUntil(t, time.Second, func() bool { return manager.State().IsConnected })

	require.NoError(t, s.RequestJoin("r1"))
	waitUntil(t, time.Second, func() bool {
		return s.Snapshot().JoinState == string(stateJoined)
	})

	snap := s.Snapshot()
	assert.Equal(t, "r1", snap.RoomId)
	assert.Equal(t, "integration", snap.RoomName)
	assert.Equal(t, "u1", snap.CurrentUser.Id)
	require.Len(t, snap.Listeners, 1)
	assert.Equal(t, "Dee", snap.Listeners[0].DisplayName)

	require.NoError(t, s.SendChat("hello room"))
	waitUntil(t, time.Second, func() bool { return len(s.ChatLog()) == 1 })

	log := s.ChatLog()
	assert.Equal(t, "hello room", log[0].Text)
	assert.True(t, log[0].SentByCurrentUser)
}

func TestEndToEndRejoinAfterReconnect(t *testing.T) {
	srv := newFakeRoomServer(t)

	manager := connection.NewManager(connection.Config{
		URL:          srv.url(),
		ReconnectMin: 10 * time.Millisecond,
		ReconnectMax: 50 * time.Millisecond,
	}, slog.Default())

	s := NewService(
		manager,
		actionlogInmemory.NewRepo(),
		usersInmemory.NewRepo(),
		tracksInmemory.NewRepo(),
		slog.Default(),
	)

	manager.Connect(context.Background())
	defer manager.Disconnect()
	waitUntil(t, time.Second, func() bool { return manager.State().IsConnected })

	require.NoError(t, s.RequestJoin("r1"))
	waitUntil(t, time.Second, func() bool {
		return s.Snapshot().JoinState == string(stateJoined)
	})

	require.NoError(t, s.SendChat("before the cut"))
	waitUntil(t, time.Second, func() bool { return len(s.ChatLog()) == 1 })

	// sever server-side: the manager reconnects and the session must join
	// the new socket, since the server only broadcasts to joined sockets
	srv.dropAll()
	waitUntil(t, 2*time.Second, func() bool {
		return manager.State().IsConnected && srv.connCount() == 1
	})

	// wait for the server to process the re-join before chatting
	waitUntil(t, time.Second, func() bool { return srv.joinCount() == 2 })

	require.NoError(t, s.SendChat("after the cut"))
	waitUntil(t, 2*time.Second, func() bool { return len(s.ChatLog()) == 2 })

	log := s.ChatLog()
	assert.Equal(t, "before the cut", log[0].Text)
	assert.Equal(t, "after the cut", log[1].Text)

	snap := s.Snapshot()
	assert.Equal(t, string(stateJoined), snap.JoinState)
	assert.Equal(t, "r1", snap.RoomId)

	// re-joining the joined room stays a no-op and must not disturb the
	// session
	require.NoError(t, s.RequestJoin("r1"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "r1", s.Snapshot().RoomId)
}
