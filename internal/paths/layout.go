// Package paths provides the on-disk layout of a darkpan repository.
//
// A repository root looks like:
//
//	<root>/
//	  .darkpan/config.yaml
//	  .darkpan/db/darkpan.db
//	  .darkpan/cache/      mirror indexes
//	  .darkpan/log/
//	  authors/id/A/AL/ALICE/Foo-1.00.tar.gz
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	controlDir = ".darkpan"
	authorsDir = "authors/id"
)

// Layout resolves locations within one repository root.
type Layout struct {
	root string
}

// NewLayout returns the layout rooted at root, made absolute.
// An empty root means the current directory.
func NewLayout(root string) (Layout, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolving repository root: %w", err)
	}
	return Layout{root: abs}, nil
}

// Root returns the repository root.
func (l Layout) Root() string { return l.root }

// ControlDir returns the directory holding darkpan's own state.
func (l Layout) ControlDir() string { return filepath.Join(l.root, controlDir) }

// ConfigPath returns the repository-local config file.
func (l Layout) ConfigPath() string { return filepath.Join(l.ControlDir(), "config.yaml") }

// DBPath returns the metadata database file.
func (l Layout) DBPath() string { return filepath.Join(l.ControlDir(), "db", "darkpan.db") }

// CacheDir returns the mirror index cache directory.
func (l Layout) CacheDir() string { return filepath.Join(l.ControlDir(), "cache") }

// LogPath returns the default log file.
func (l Layout) LogPath() string { return filepath.Join(l.ControlDir(), "log", "darkpan.log") }

// AuthorsDir returns the directory under which archives are stored.
func (l Layout) AuthorsDir() string { return filepath.Join(l.root, filepath.FromSlash(authorsDir)) }

// ArchivePath maps a repository path (A/AL/ALICE/Foo.tar.gz) to its file.
func (l Layout) ArchivePath(distPath string) string {
	return filepath.Join(l.AuthorsDir(), filepath.FromSlash(distPath))
}

// RepositoryPath maps a file under AuthorsDir back to its repository path.
func (l Layout) RepositoryPath(file string) (string, error) {
	rel, err := filepath.Rel(l.AuthorsDir(), file)
	if err != nil {
		return "", err
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", file, l.AuthorsDir())
	}
	return filepath.ToSlash(rel), nil
}

// IsInitialized reports whether the control directory exists.
func (l Layout) IsInitialized() bool {
	info, err := os.Stat(l.ControlDir())
	return err == nil && info.IsDir()
}
