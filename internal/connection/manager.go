// Package connection owns the socket to the room server: lifecycle state,
// automatic reconnect and the typed inbound event stream everything else
// subscribes to.
package connection

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soundroom/client/internal/domain"
	"github.com/soundroom/client/pkg/backoff"
	"github.com/soundroom/client/pkg/wsclient"
)

var ErrNotConnected = errors.New("not connected")

const writeWait = 10 * time.Second

// Handler receives one inbound event. Handlers for the same event run in
// subscription order, always from the single delivery goroutine.
type Handler func(event string, payload json.RawMessage)

type Config struct {
	URL          string
	Credentials  string
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

type Manager struct {
	cfg    Config
	logger *slog.Logger
	dialer *websocket.Dialer

	mu       sync.Mutex
	conn     *websocket.Conn
	state    domain.ConnectionState
	handlers map[string][]Handler
	fallback []Handler
	cancel   context.CancelFunc
	running  bool
	// gen increments on every Connect and Disconnect; a run loop whose gen
	// is stale stops touching shared state and exits
	gen int

	wmu sync.Mutex
}

func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = 250 * time.Millisecond
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = 10 * time.Second
	}

	return &Manager{
		cfg:      cfg,
		logger:   logger,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		handlers: make(map[string][]Handler),
	}
}

// On registers a handler for one event name. Registration is expected before
// Connect; multiple handlers per name are dispatched in subscription order.
func (m *Manager) On(event string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[event] = append(m.handlers[event], handler)
}

// OnUnhandled registers a fallback for events without an exact-name handler,
// such as the room-scoped "room.<roomId>.<kind>" family.
func (m *Manager) OnUnhandled(handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fallback = append(m.fallback, handler)
}

func (m *Manager) State() domain.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Connect starts the connection loop. Idempotent: calling it while already
// connecting or connected is a no-op.
func (m *Manager) Connect(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.gen++
	gen := m.gen

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	go m.run(runCtx, gen)
}

// Disconnect tears the connection down and suppresses reconnection until the
// next Connect. State is reset clean synchronously, so a Connect issued
// right after always starts a new loop.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	cancel := m.cancel
	conn := m.conn
	m.cancel = nil
	m.conn = nil
	m.running = false
	m.gen++
	m.state = domain.ConnectionState{}
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

// Send writes one outbound event. When not connected the event is dropped,
// not queued: callers are fire-and-forget and observe completion only via a
// later inbound confirmation.
func (m *Manager) Send(event string, payload any) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		m.logger.Debug("dropping outbound event, not connected", "event", event)
		return ErrNotConnected
	}

	m.wmu.Lock()
	defer m.wmu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := wsclient.Write(conn, event, payload); err != nil {
		m.logger.Info("failed to write event", "event", event, "err", err)
		return err
	}

	return nil
}

func (m *Manager) run(ctx context.Context, gen int) {
	defer func() {
		m.mu.Lock()
		if m.gen == gen {
			m.running = false
			m.state = domain.ConnectionState{}
		}
		m.mu.Unlock()
	}()

	bo := backoff.New(m.cfg.ReconnectMin, m.cfg.ReconnectMax)

	for {
		if !m.beginAttempt(gen) {
			return
		}

		header := http.Header{}
		if m.cfg.Credentials != "" {
			header.Set("Authorization", "Bearer "+m.cfg.Credentials)
		}

		conn, resp, err := m.dialer.DialContext(ctx, m.cfg.URL, header)
		if err != nil {
			if resp != nil {
				resp.Body.Close()
			}
			if ctx.Err() != nil {
				return
			}

			if !m.failAttempt(err, gen) {
				return
			}

			select {
			case <-time.After(bo.Next()):
			case <-ctx.Done():
				return
			}
			continue
		}

		if !m.establish(conn, gen) {
			conn.Close()
			return
		}
		bo.Reset()

		err = m.readLoop(conn)

		m.mu.Lock()
		if m.conn == conn {
			m.conn = nil
		}
		m.mu.Unlock()
		conn.Close()

		if ctx.Err() != nil {
			return
		}

		// unexpected drop, surface the error and retry
		if !m.failAttempt(err, gen) {
			return
		}

		select {
		case <-time.After(bo.Next()):
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) readLoop(conn *websocket.Conn) error {
	for {
		msg, err := wsclient.Read(conn)
		if err != nil {
			return err
		}

		m.dispatch(msg.Type, msg.Payload)
	}
}

func (m *Manager) beginAttempt(gen int) bool {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return false
	}
	m.state = domain.ConnectionState{IsConnecting: true}
	m.mu.Unlock()

	m.logger.Debug("connecting", "url", m.cfg.URL)
	m.dispatch(domain.EventConnectBegin, nil)
	return true
}

func (m *Manager) establish(conn *websocket.Conn, gen int) bool {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return false
	}
	m.conn = conn
	m.state = domain.ConnectionState{IsConnected: true}
	m.mu.Unlock()

	m.logger.Info("connected", "url", m.cfg.URL)
	m.dispatch(domain.EventConnectOk, nil)
	return true
}

func (m *Manager) failAttempt(err error, gen int) bool {
	connErr := &domain.ConnError{Message: err.Error()}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return false
	}
	m.state = domain.ConnectionState{Err: connErr}
	m.mu.Unlock()

	m.logger.Info("connection error", "err", err)

	payload, _ := json.Marshal(connErr)
	m.dispatch(domain.EventConnectError, payload)
	return true
}

func (m *Manager) dispatch(event string, payload json.RawMessage) {
	m.mu.Lock()
	handlers := m.handlers[event]
	if len(handlers) == 0 {
		handlers = m.fallback
	}
	handlers = append([]Handler(nil), handlers...)
	m.mu.Unlock()

	for _, handler := range handlers {
		handler(event, payload)
	}
}
