// Package store keeps archive files in the repository's authors tree.
//
// FileStore writes plain files; GitStore additionally stages every change
// in a git repository rooted at the repository root so that Commit and Tag
// record history. New picks the variant from configuration.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zjrosen/darkpan/internal/digest"
	"github.com/zjrosen/darkpan/internal/fileutil"
	"github.com/zjrosen/darkpan/internal/log"
	"github.com/zjrosen/darkpan/internal/paths"
	"github.com/zjrosen/darkpan/internal/repository/domain"
)

// FileStore stores archives as plain files under the authors directory.
type FileStore struct {
	layout paths.Layout
}

var _ domain.ArchiveStore = (*FileStore)(nil)

// NewFileStore creates a FileStore for layout.
func NewFileStore(layout paths.Layout) *FileStore {
	return &FileStore{layout: layout}
}

// Initialize creates the authors directory.
func (s *FileStore) Initialize(_ context.Context) error {
	if err := os.MkdirAll(s.layout.AuthorsDir(), 0o750); err != nil {
		return fmt.Errorf("creating authors directory: %w", err)
	}
	return nil
}

// AddArchive copies src to the location of dest. The copy is written to a
// temporary file in the destination directory and renamed into place.
func (s *FileStore) AddArchive(ctx context.Context, src, dest string) error {
	target := s.Location(dest)
	if sameFile(src, target) {
		return s.AddStagedArchive(ctx, dest)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(src) //nolint:gosec // G304: archive supplied by the operator
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	//nolint:gosec // G302: archives are served to package clients
	if _, err := fileutil.WriteAtomic(target, in, 0o644); err != nil {
		return err
	}

	log.Debug(log.CatStore, "archive added", "path", dest)
	return nil
}

// AddStagedArchive checks that path was already written into place.
func (s *FileStore) AddStagedArchive(_ context.Context, path string) error {
	info, err := os.Stat(s.Location(path))
	if err != nil {
		return fmt.Errorf("staged archive %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("staged archive %s is not a regular file", path)
	}
	log.Debug(log.CatStore, "staged archive registered", "path", path)
	return nil
}

// RemoveArchive deletes the archive and any author directories it leaves
// empty. Removing an absent archive succeeds.
func (s *FileStore) RemoveArchive(_ context.Context, path string) error {
	target := s.Location(path)
	if err := os.Remove(target); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", path, err)
		}
		log.Warn(log.CatStore, "archive already absent", "path", path)
	}
	s.pruneEmptyDirs(filepath.Dir(target))
	log.Debug(log.CatStore, "archive removed", "path", path)
	return nil
}

// pruneEmptyDirs removes empty directories from dir up to, not including,
// the authors directory.
func (s *FileStore) pruneEmptyDirs(dir string) {
	stop := s.layout.AuthorsDir()
	for dir != stop && strings.HasPrefix(dir, stop+string(filepath.Separator)) {
		if err := os.Remove(dir); err != nil {
			// non-empty or already gone
			return
		}
		dir = filepath.Dir(dir)
	}
}

// Commit is a no-op; plain files keep no history.
func (s *FileStore) Commit(_ context.Context, _ string) error { return nil }

// Tag is a no-op; plain files keep no history.
func (s *FileStore) Tag(_ context.Context, _ string) (string, error) { return "", nil }

// Location returns the file for a repository path.
func (s *FileStore) Location(path string) string {
	return s.layout.ArchivePath(path)
}

// Exists reports whether a regular file is stored at path.
func (s *FileStore) Exists(path string) bool {
	info, err := os.Stat(s.Location(path))
	return err == nil && info.Mode().IsRegular()
}

// Digest hashes the stored archive.
func (s *FileStore) Digest(path string) (string, error) {
	sum, _, err := digest.File(s.Location(path))
	if err != nil {
		return "", fmt.Errorf("digesting %s: %w", path, err)
	}
	return sum, nil
}

// ListArchives walks the authors directory and returns every archive's
// repository path, sorted.
func (s *FileStore) ListArchives(ctx context.Context) ([]string, error) {
	root := s.layout.AuthorsDir()
	var archives []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == root {
				return filepath.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !d.Type().IsRegular() || fileutil.IsTempFile(p) {
			return nil
		}
		rel, err := s.layout.RepositoryPath(p)
		if err != nil {
			return err
		}
		archives = append(archives, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}
	sort.Strings(archives)
	return archives, nil
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
