// Package fileutil holds the file-writing helpers shared by the archive
// store and the fetcher.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// TempPrefix marks partially written files.
const TempPrefix = ".darkpan-tmp-"

// IsTempFile reports whether name is an in-progress write.
func IsTempFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), TempPrefix)
}

// WriteAtomic streams r into target through a temp file in the same
// directory, so readers never observe a partial file. Parent directories
// are created as needed. Returns the number of bytes written.
func WriteAtomic(target string, r io.Reader, perm os.FileMode) (int64, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		cleanup()
		return n, fmt.Errorf("writing %s: %w", target, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return n, fmt.Errorf("syncing %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return n, fmt.Errorf("closing %s: %w", target, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return n, fmt.Errorf("setting permissions on %s: %w", target, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return n, fmt.Errorf("renaming into %s: %w", target, err)
	}
	return n, nil
}
