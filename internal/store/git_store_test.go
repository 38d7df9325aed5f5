package store

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/darkpan/internal/config"
	"github.com/zjrosen/darkpan/internal/git"
	"github.com/zjrosen/darkpan/internal/mocks"
)

func TestGitStore_StagesWrites(t *testing.T) {
	layout := newTestLayout(t)
	executor := mocks.NewGitExecutor(t)
	s := NewGitStore(layout, executor)
	ctx := context.Background()

	executor.On("IsGitRepo").Return(false).Once()
	executor.On("Init", ctx).Return(nil).Once()
	require.NoError(t, s.Initialize(ctx))

	executor.On("Add", ctx, []string{"authors/id/A/AL/ALICE/Foo-1.00.tar.gz"}).Return(nil).Once()
	require.NoError(t, s.AddArchive(ctx, writeSource(t, "a"), "A/AL/ALICE/Foo-1.00.tar.gz"))

	executor.On("Commit", ctx, "add A/AL/ALICE/Foo-1.00.tar.gz").Return(nil).Once()
	require.NoError(t, s.Commit(ctx, "add A/AL/ALICE/Foo-1.00.tar.gz"))

	executor.On("Remove", ctx, []string{"authors/id/A/AL/ALICE/Foo-1.00.tar.gz"}).Return(nil).Once()
	require.NoError(t, s.RemoveArchive(ctx, "A/AL/ALICE/Foo-1.00.tar.gz"))
	require.False(t, s.Exists("A/AL/ALICE/Foo-1.00.tar.gz"))
}

func TestGitStore_InitializeExistingRepo(t *testing.T) {
	executor := mocks.NewGitExecutor(t)
	s := NewGitStore(newTestLayout(t), executor)

	executor.On("IsGitRepo").Return(true).Once()
	require.NoError(t, s.Initialize(context.Background()))
}

func TestGitStore_CommitNothingIsNotError(t *testing.T) {
	executor := mocks.NewGitExecutor(t)
	s := NewGitStore(newTestLayout(t), executor)

	executor.On("Commit", mock.Anything, "msg").Return(git.ErrNothingToCommit).Once()
	require.NoError(t, s.Commit(context.Background(), "msg"))
}

func TestGitStore_StagingFailure(t *testing.T) {
	executor := mocks.NewGitExecutor(t)
	s := NewGitStore(newTestLayout(t), executor)
	boom := errors.New("index.lock exists")

	executor.On("Add", mock.Anything, mock.Anything).Return(boom).Once()
	err := s.AddArchive(context.Background(), writeSource(t, "a"), "A/AL/ALICE/Foo-1.00.tar.gz")
	require.ErrorIs(t, err, boom)
}

func TestGitStore_Tag(t *testing.T) {
	executor := mocks.NewGitExecutor(t)
	s := NewGitStore(newTestLayout(t), executor)

	executor.On("Tag", mock.Anything, "release-1", "darkpan release-1").Return(nil).Once()
	executor.On("HeadCommit", mock.Anything).Return("9f2c1e0d4b7a", nil).Once()

	commit, err := s.Tag(context.Background(), "release-1")
	require.NoError(t, err)
	require.Equal(t, "9f2c1e0d4b7a", commit)
}

func TestGitStore_TagHeadFailure(t *testing.T) {
	executor := mocks.NewGitExecutor(t)
	s := NewGitStore(newTestLayout(t), executor)

	executor.On("Tag", mock.Anything, "release-1", "darkpan release-1").Return(nil).Once()
	executor.On("HeadCommit", mock.Anything).Return("", errors.New("no HEAD")).Once()

	_, err := s.Tag(context.Background(), "release-1")
	require.ErrorContains(t, err, "resolving tagged commit")
}

// TestGitStore_RealGit runs the full cycle against the git binary.
func TestGitStore_RealGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	layout := newTestLayout(t)
	executor := git.NewRealExecutor(layout.Root(), git.Identity{Name: "Test", Email: "test@example.com"})
	s := NewGitStore(layout, executor)
	ctx := context.Background()

	require.NoError(t, s.Initialize(ctx))
	require.NoError(t, s.AddArchive(ctx, writeSource(t, "a"), "A/AL/ALICE/Foo-1.00.tar.gz"))
	require.NoError(t, s.Commit(ctx, "add Foo"))
	tagged, err := s.Tag(ctx, "snapshot-1")
	require.NoError(t, err)
	head, err := executor.HeadCommit(ctx)
	require.NoError(t, err)
	require.Equal(t, head, tagged)

	require.NoError(t, s.RemoveArchive(ctx, "A/AL/ALICE/Foo-1.00.tar.gz"))
	require.NoError(t, s.Commit(ctx, "remove Foo"))

	staged, err := executor.HasStagedChanges(ctx)
	require.NoError(t, err)
	require.False(t, staged)
}

func TestNew_SelectsVariant(t *testing.T) {
	layout := newTestLayout(t)

	s, err := New(config.StoreConfig{Type: config.StoreFile}, layout)
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)

	s, err = New(config.StoreConfig{}, layout)
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)

	s, err = New(config.StoreConfig{Type: config.StoreGit}, layout)
	require.NoError(t, err)
	require.IsType(t, &GitStore{}, s)

	_, err = New(config.StoreConfig{Type: "s3"}, layout)
	require.Error(t, err)
}
