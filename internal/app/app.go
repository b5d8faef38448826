package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-unix/internal/config"
	"github.com/vovakirdan/wirechat-unix/internal/core"
	"github.com/vovakirdan/wirechat-unix/internal/server"
	"github.com/vovakirdan/wirechat-unix/internal/store"
	"github.com/vovakirdan/wirechat-unix/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirechat-unix/internal/transport/http"
)

// App wires together the event loop, the session journal and the admin surface.
type App struct {
	socketPath      string
	listener        net.Listener
	loop            *server.Loop
	admin           *stdhttp.Server
	store           store.SessionStore
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New validates cfg, opens the journal and binds the listening socket.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var st store.SessionStore = store.Nop{}
	if cfg.DatabasePath != "" {
		sqliteStore, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		st = sqliteStore
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("session journal initialized")
	}

	ln, err := listen(cfg.SocketPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	registry := core.NewRegistry(cfg.MaxClients, cfg.BufferSize, cfg.NicknameMax)
	hub := core.NewHub(registry, core.HubOptions{
		Policy:       core.SendPolicy(cfg.SendPolicy),
		WriteTimeout: cfg.WriteTimeout,
	}, logger)
	loop := server.NewLoop(ln, hub, st, server.Options{LineRateLimit: cfg.LineRateLimit}, logger)

	a := &App{
		socketPath:      cfg.SocketPath,
		listener:        ln,
		loop:            loop,
		store:           st,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}
	if cfg.AdminAddr != "" {
		a.admin = transporthttp.NewServer(cfg.AdminAddr, loop, st, logger)
	}
	return a, nil
}

// listen binds a Unix stream socket at path, removing a stale socket file first.
func listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	return ln, nil
}

// Run serves until ctx is cancelled or a fatal error occurs, then tears
// everything down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	adminErr := make(chan error, 1)
	if a.admin != nil {
		go func() {
			a.log.Info().Str("addr", a.admin.Addr).Msg("admin http listening")
			if err := a.admin.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				adminErr <- err
			}
		}()
	}

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- a.loop.Run(ctx)
	}()

	var err error
	select {
	case err = <-loopErr:
	case err = <-adminErr:
		err = fmt.Errorf("admin http: %w", err)
		cancel()
		<-loopErr
	}

	a.cleanup()
	return err
}

// cleanup closes the listener, removes the socket path, stops the admin
// server and closes the store.
func (a *App) cleanup() {
	if err := a.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		a.log.Warn().Err(err).Msg("failed to close listener")
	}
	if err := os.Remove(a.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		a.log.Warn().Err(err).Str("path", a.socketPath).Msg("failed to remove socket")
	}

	if a.admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down admin http server")
		if err := a.admin.Shutdown(shutdownCtx); err != nil {
			a.log.Warn().Err(err).Msg("failed to shut down admin http server")
		}
	}

	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	} else {
		a.log.Info().Msg("store closed")
	}
}
