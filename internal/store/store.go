package store

import (
	"fmt"

	"github.com/zjrosen/darkpan/internal/config"
	"github.com/zjrosen/darkpan/internal/git"
	"github.com/zjrosen/darkpan/internal/paths"
	"github.com/zjrosen/darkpan/internal/repository/domain"
)

// New returns the archive store selected by cfg.Store.Type.
func New(cfg config.StoreConfig, layout paths.Layout) (domain.ArchiveStore, error) {
	switch cfg.Type {
	case "", config.StoreFile:
		return NewFileStore(layout), nil
	case config.StoreGit:
		executor := git.NewRealExecutor(layout.Root(), git.Identity{
			Name:  cfg.Git.AuthorName,
			Email: cfg.Git.AuthorEmail,
		})
		return NewGitStore(layout, executor), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}
