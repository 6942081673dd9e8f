package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestWatcher(t *testing.T, path, dir string) <-chan *Config {
	t.Helper()

	reloads := make(chan *Config, 4)
	w, err := NewWatcher(path, dir, func(c *Config) { reloads <- c }, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)

	return reloads
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dashboard:\n  upcoming_limit: 5\n"), 0o644))

	reloads := startTestWatcher(t, path, dir)

	require.NoError(t, os.WriteFile(path, []byte("dashboard:\n  upcoming_limit: 2\n"), 0o644))

	select {
	case got := <-reloads:
		assert.Equal(t, 2, got.Dashboard.UpcomingLimit)
		assert.Equal(t, dir, got.DataDir)
	case <-time.After(3 * time.Second):
		t.Fatal("edit was not reloaded")
	}
}

func TestWatcher_InvalidEditKeepsLastGoodConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dashboard:\n  upcoming_limit: 5\n"), 0o644))

	reloads := startTestWatcher(t, path, dir)

	require.NoError(t, os.WriteFile(path, []byte("dashboard: ["), 0o644))
	time.Sleep(3 * reloadDebounce)

	require.NoError(t, os.WriteFile(path, []byte("dashboard:\n  upcoming_limit: 3\n"), 0o644))

	select {
	case got := <-reloads:
		assert.Equal(t, 3, got.Dashboard.UpcomingLimit, "the invalid edit must never reach a subscriber")
	case <-time.After(3 * time.Second):
		t.Fatal("valid edit after an invalid one was not reloaded")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dashboard:\n  upcoming_limit: 5\n"), 0o644))

	reloads := startTestWatcher(t, path, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not config"), 0o644))
	time.Sleep(3 * reloadDebounce)

	select {
	case <-reloads:
		t.Fatal("a sibling file edit must not trigger a reload")
	default:
	}
}
