package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/darkpan/internal/infrastructure/sqlite"
	"github.com/zjrosen/darkpan/internal/paths"
	"github.com/zjrosen/darkpan/internal/store"
)

// Repository is an initialized on-disk repository in a temp directory.
type Repository struct {
	Layout paths.Layout
	DB     *sqlite.DB
	Store  *store.FileStore
}

// NewRepository creates a migrated database and a file store under a
// fresh temp root. Both are cleaned up with t.
func NewRepository(t testing.TB) *Repository {
	t.Helper()
	layout, err := paths.NewLayout(t.TempDir())
	require.NoError(t, err)

	db, err := sqlite.NewDB(layout.DBPath())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fs := store.NewFileStore(layout)
	require.NoError(t, fs.Initialize(context.Background()))
	return &Repository{Layout: layout, DB: db, Store: fs}
}
