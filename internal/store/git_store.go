package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/zjrosen/darkpan/internal/git"
	"github.com/zjrosen/darkpan/internal/log"
	"github.com/zjrosen/darkpan/internal/paths"
	"github.com/zjrosen/darkpan/internal/repository/domain"
)

// GitStore is a FileStore whose authors tree is versioned with git.
// Writes are staged immediately; Commit and Tag record them.
type GitStore struct {
	*FileStore
	git git.GitExecutor
}

var _ domain.ArchiveStore = (*GitStore)(nil)

// NewGitStore creates a GitStore rooted at layout.Root, driving git through executor.
func NewGitStore(layout paths.Layout, executor git.GitExecutor) *GitStore {
	return &GitStore{FileStore: NewFileStore(layout), git: executor}
}

// Initialize creates the authors directory and, if needed, the git repository.
func (s *GitStore) Initialize(ctx context.Context) error {
	if err := s.FileStore.Initialize(ctx); err != nil {
		return err
	}
	if s.git.IsGitRepo() {
		return nil
	}
	if err := s.git.Init(ctx); err != nil {
		return fmt.Errorf("initializing git repository: %w", err)
	}
	log.Info(log.CatStore, "git repository initialized", "root", s.layout.Root())
	return nil
}

// AddArchive writes the archive and stages it.
func (s *GitStore) AddArchive(ctx context.Context, src, dest string) error {
	if err := s.FileStore.AddArchive(ctx, src, dest); err != nil {
		return err
	}
	return s.stage(ctx, dest)
}

// AddStagedArchive stages an archive already written into place.
func (s *GitStore) AddStagedArchive(ctx context.Context, path string) error {
	if err := s.FileStore.AddStagedArchive(ctx, path); err != nil {
		return err
	}
	return s.stage(ctx, path)
}

// RemoveArchive deletes the archive and stages the deletion.
func (s *GitStore) RemoveArchive(ctx context.Context, path string) error {
	if err := s.FileStore.RemoveArchive(ctx, path); err != nil {
		return err
	}
	if err := s.git.Remove(ctx, s.relative(path)); err != nil {
		return fmt.Errorf("staging removal of %s: %w", path, err)
	}
	return nil
}

// Commit records staged changes. A clean index is not an error.
func (s *GitStore) Commit(ctx context.Context, message string) error {
	err := s.git.Commit(ctx, message)
	if errors.Is(err, git.ErrNothingToCommit) {
		log.Debug(log.CatStore, "nothing to commit", "message", message)
		return nil
	}
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	log.Debug(log.CatStore, "committed", "message", message)
	return nil
}

// Tag labels HEAD with name and returns the tagged commit.
func (s *GitStore) Tag(ctx context.Context, name string) (string, error) {
	if err := s.git.Tag(ctx, name, "darkpan "+name); err != nil {
		return "", fmt.Errorf("tagging %s: %w", name, err)
	}
	commit, err := s.git.HeadCommit(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving tagged commit: %w", err)
	}
	log.Info(log.CatStore, "tagged", "name", name, "commit", commit)
	return commit, nil
}

func (s *GitStore) stage(ctx context.Context, path string) error {
	if err := s.git.Add(ctx, s.relative(path)); err != nil {
		return fmt.Errorf("staging %s: %w", path, err)
	}
	return nil
}

// relative returns the archive location relative to the git work tree.
func (s *GitStore) relative(path string) string {
	rel, err := filepath.Rel(s.layout.Root(), s.Location(path))
	if err != nil {
		return s.Location(path)
	}
	return filepath.ToSlash(rel)
}
