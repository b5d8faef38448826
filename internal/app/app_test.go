package app

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-unix/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()

	dir, err := os.MkdirTemp("", "wca")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	cfg := config.Default()
	cfg.SocketPath = filepath.Join(dir, "chat.sock")
	cfg.DatabasePath = filepath.Join(dir, "journal.db")
	cfg.AdminAddr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func TestAppServesAndRemovesSocketOnShutdown(t *testing.T) {
	cfg := testConfig(t)
	// a leftover socket file from a previous run must not block startup
	require.NoError(t, os.WriteFile(cfg.SocketPath, nil, 0o600))

	logger := zerolog.Nop()
	application, err := New(cfg, &logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	alice, err := net.Dial("unix", cfg.SocketPath)
	require.NoError(t, err)
	defer alice.Close()
	bob, err := net.Dial("unix", cfg.SocketPath)
	require.NoError(t, err)
	defer bob.Close()

	_, err = bob.Write([]byte("NICK bob\nJOIN 1\n"))
	require.NoError(t, err)

	// wait until bob's join is applied before alice joins
	require.Eventually(t, func() bool {
		infos, snapErr := application.loop.Snapshot(context.Background())
		return snapErr == nil && len(infos) == 2 && infos[1].Room == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = alice.Write([]byte("NICK alice\nJOIN 1\nMSG hello\n"))
	require.NoError(t, err)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(2*time.Second)))
	r := bufio.NewReader(bob)
	for _, want := range []string{"[server] JOIN alice\n", "alice: hello\n"} {
		line, readErr := r.ReadString('\n')
		require.NoError(t, readErr)
		require.Equal(t, want, line)
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop")
	}

	_, err = os.Stat(cfg.SocketPath)
	require.True(t, errors.Is(err, os.ErrNotExist), "socket path should be removed, got %v", err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.SendPolicy = "sometimes"

	logger := zerolog.Nop()
	_, err := New(cfg, &logger)
	require.Error(t, err)

	_, statErr := os.Stat(cfg.SocketPath)
	require.True(t, errors.Is(statErr, os.ErrNotExist))
}
