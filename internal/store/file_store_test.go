package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/darkpan/internal/digest"
	"github.com/zjrosen/darkpan/internal/fileutil"
	"github.com/zjrosen/darkpan/internal/paths"
)

func newTestLayout(t *testing.T) paths.Layout {
	t.Helper()
	layout, err := paths.NewLayout(t.TempDir())
	require.NoError(t, err)
	return layout
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "Foo-1.00.tar.gz")
	require.NoError(t, os.WriteFile(src, []byte(content), 0o600))
	return src
}

func TestFileStore_AddArchive(t *testing.T) {
	layout := newTestLayout(t)
	s := NewFileStore(layout)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	src := writeSource(t, "archive")
	require.NoError(t, s.AddArchive(ctx, src, "A/AL/ALICE/Foo-1.00.tar.gz"))

	target := filepath.Join(layout.Root(), "authors", "id", "A", "AL", "ALICE", "Foo-1.00.tar.gz")
	require.Equal(t, target, s.Location("A/AL/ALICE/Foo-1.00.tar.gz"))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "archive", string(data))
	require.True(t, s.Exists("A/AL/ALICE/Foo-1.00.tar.gz"))

	// The source is copied, not moved.
	_, err = os.Stat(src)
	require.NoError(t, err)

	sum, err := s.Digest("A/AL/ALICE/Foo-1.00.tar.gz")
	require.NoError(t, err)
	require.Equal(t, digest.Bytes([]byte("archive")), sum)
}

func TestFileStore_AddArchive_MissingSource(t *testing.T) {
	s := NewFileStore(newTestLayout(t))
	err := s.AddArchive(context.Background(), filepath.Join(t.TempDir(), "nope.tar.gz"), "A/AL/ALICE/nope.tar.gz")
	require.Error(t, err)
	require.False(t, s.Exists("A/AL/ALICE/nope.tar.gz"))
}

func TestFileStore_AddArchive_InPlace(t *testing.T) {
	s := NewFileStore(newTestLayout(t))
	ctx := context.Background()

	target := s.Location("A/AL/ALICE/Foo-1.00.tar.gz")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o750))
	require.NoError(t, os.WriteFile(target, []byte("in place"), 0o600))

	require.NoError(t, s.AddArchive(ctx, target, "A/AL/ALICE/Foo-1.00.tar.gz"))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "in place", string(data))
}

func TestFileStore_AddStagedArchive(t *testing.T) {
	s := NewFileStore(newTestLayout(t))
	ctx := context.Background()

	err := s.AddStagedArchive(ctx, "B/BO/BOB/Bar-1.0.tar.gz")
	require.Error(t, err, "nothing staged yet")

	target := s.Location("B/BO/BOB/Bar-1.0.tar.gz")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o750))
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o600))
	require.NoError(t, s.AddStagedArchive(ctx, "B/BO/BOB/Bar-1.0.tar.gz"))
}

func TestFileStore_RemoveArchive_PrunesDirs(t *testing.T) {
	layout := newTestLayout(t)
	s := NewFileStore(layout)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	require.NoError(t, s.AddArchive(ctx, writeSource(t, "a"), "A/AL/ALICE/Foo-1.00.tar.gz"))
	require.NoError(t, s.AddArchive(ctx, writeSource(t, "b"), "A/AN/ANNE/Bar-1.0.tar.gz"))

	require.NoError(t, s.RemoveArchive(ctx, "A/AL/ALICE/Foo-1.00.tar.gz"))
	require.False(t, s.Exists("A/AL/ALICE/Foo-1.00.tar.gz"))

	_, err := os.Stat(filepath.Join(layout.AuthorsDir(), "A", "AL"))
	require.True(t, os.IsNotExist(err), "empty author directories should be pruned")
	_, err = os.Stat(filepath.Join(layout.AuthorsDir(), "A", "AN", "ANNE"))
	require.NoError(t, err, "sibling author untouched")
	_, err = os.Stat(layout.AuthorsDir())
	require.NoError(t, err, "authors directory itself is kept")

	// Removing again is not an error.
	require.NoError(t, s.RemoveArchive(ctx, "A/AL/ALICE/Foo-1.00.tar.gz"))
}

func TestFileStore_ListArchives(t *testing.T) {
	layout := newTestLayout(t)
	s := NewFileStore(layout)
	ctx := context.Background()

	archives, err := s.ListArchives(ctx)
	require.NoError(t, err)
	require.Empty(t, archives, "missing authors dir lists nothing")

	require.NoError(t, s.AddArchive(ctx, writeSource(t, "b"), "B/BO/BOB/Bar-1.0.tar.gz"))
	require.NoError(t, s.AddArchive(ctx, writeSource(t, "a"), "A/AL/ALICE/Foo-1.00.tar.gz"))

	// In-progress writes are ignored.
	stray := filepath.Join(layout.AuthorsDir(), "A", "AL", "ALICE", fileutil.TempPrefix+"123")
	require.NoError(t, os.WriteFile(stray, []byte("partial"), 0o600))

	archives, err = s.ListArchives(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"A/AL/ALICE/Foo-1.00.tar.gz", "B/BO/BOB/Bar-1.0.tar.gz"}, archives)
}

func TestFileStore_CommitTagNoop(t *testing.T) {
	s := NewFileStore(newTestLayout(t))
	require.NoError(t, s.Commit(context.Background(), "msg"))
	commit, err := s.Tag(context.Background(), "v1")
	require.NoError(t, err)
	require.Empty(t, commit)
}

func TestFileStore_DigestMissing(t *testing.T) {
	s := NewFileStore(newTestLayout(t))
	_, err := s.Digest("A/AL/ALICE/missing.tar.gz")
	require.ErrorIs(t, err, os.ErrNotExist)
}
