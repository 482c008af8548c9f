package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dusted-go/logging/prettylog"

	"github.com/soundroom/client/internal/connection"
	"github.com/soundroom/client/internal/controller"
	actionlogInmemory "github.com/soundroom/client/internal/repository/actionlog/inmemory"
	tracksInmemory "github.com/soundroom/client/internal/repository/tracks/inmemory"
	usersInmemory "github.com/soundroom/client/internal/repository/users/inmemory"
	"github.com/soundroom/client/internal/service/session"
	"github.com/soundroom/client/pkg/ctxlogger"
)

type AppConfig struct {
	ServerURL      string `json:"server_url"`
	Credentials    string `json:"-"`
	Host           string `json:"host"`
	Port           int    `json:"port"`
	LogLevel       string `json:"log_level"`
	LogFormat      string `json:"log_format"`
	ReconnectMinMs int    `json:"reconnect_min_ms"`
	ReconnectMaxMs int    `json:"reconnect_max_ms"`
	RoomId         string `json:"room_id"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.ServerURL == "" {
		return fmt.Errorf("server url must be set")
	}
	if !strings.HasPrefix(cfg.ServerURL, "ws://") && !strings.HasPrefix(cfg.ServerURL, "wss://") {
		return fmt.Errorf("server url must be a ws:// or wss:// endpoint")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535")
	}
	if cfg.ReconnectMinMs > 0 && cfg.ReconnectMaxMs > 0 && cfg.ReconnectMaxMs < cfg.ReconnectMinMs {
		return fmt.Errorf("reconnect max must not be below reconnect min")
	}

	return nil
}

func newLogger(cfg *AppConfig) *slog.Logger {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = prettylog.NewHandler(&slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
	}

	return slog.New(ctxlogger.ContextHandler{Handler: handler})
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)

	conn := connection.NewManager(connection.Config{
		URL:          cfg.ServerURL,
		Credentials:  cfg.Credentials,
		ReconnectMin: time.Duration(cfg.ReconnectMinMs) * time.Millisecond,
		ReconnectMax: time.Duration(cfg.ReconnectMaxMs) * time.Millisecond,
	}, logger)

	actionLogRepo := actionlogInmemory.NewRepo()
	userRepo := usersInmemory.NewRepo()
	trackRepo := tracksInmemory.NewRepo()
	sessionService := session.NewService(conn, actionLogRepo, userRepo, trackRepo, logger)
	controller := controller.NewController(sessionService, logger)

	conn.Connect(ctx)
	defer conn.Disconnect()

	if cfg.RoomId != "" {
		if err := sessionService.RequestJoin(cfg.RoomId); err != nil {
			return fmt.Errorf("failed to request join: %w", err)
		}
	}

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.Mux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting local api", "address", server.Addr, "server_url", cfg.ServerURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
