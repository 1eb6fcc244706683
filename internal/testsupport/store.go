package testsupport

import (
	"context"
	"os"
	"testing"

	"loomvale/internal/backlog"
	"loomvale/internal/config"
)

// MustOpenStore opens a backlog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *backlog.Store {
	t.Helper()

	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatalf("create data dir: %v", err)
	}
	store, err := backlog.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("backlog.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewRow appends a seeded row for tests using the provided store.
func NewRow(t testing.TB, store *backlog.Store, topic string, mode backlog.Mode) *backlog.Row {
	t.Helper()

	row, err := store.NewRow(context.Background(), topic, mode)
	if err != nil {
		t.Fatalf("store.NewRow: %v", err)
	}
	return row
}
