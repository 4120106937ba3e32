package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchPublishesReloadedConfigOnWrite(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuffy.yaml")
	require.NoError(t, os.WriteFile(p, []byte("log_level: info\n"), 0o644))

	updates, stop, err := Watch(p)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(p, []byte("log_level: debug\n"), 0o644))

	select {
	case c := <-updates:
		require.Equal(t, "debug", c.LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a reloaded config")
	}
}

func TestWatchSkipsInvalidRewriteWithoutClosing(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuffy.yaml")
	require.NoError(t, os.WriteFile(p, []byte("log_level: info\n"), 0o644))

	updates, stop, err := Watch(p)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(p, []byte("log_level: bogus\n"), 0o644))
	require.NoError(t, os.WriteFile(p, []byte("log_level: warn\n"), 0o644))

	select {
	case c := <-updates:
		require.Equal(t, "warn", c.LogLevel, "the invalid rewrite should have been skipped, not delivered")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the valid rewrite")
	}
}
