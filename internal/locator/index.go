package locator

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// IndexEntry is one line of a mirror's package index.
type IndexEntry struct {
	Version string
	Path    string // repository path of the providing distribution
}

// Index maps package names to their entry on one mirror.
type Index map[string]IndexEntry

// ParseIndex reads an uncompressed 02packages.details.txt stream: a block
// of "Header: value" lines, a blank line, then one
// "Package  Version  A/AL/ALICE/Dist.tar.gz" line per package.
func ParseIndex(r io.Reader) (Index, error) {
	idx := make(Index)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	inHeader := true
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if inHeader {
			if line == "" {
				inHeader = false
			}
			continue
		}
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("index line %d: expected 3 fields, got %d", lineNo, len(fields))
		}
		idx[fields[0]] = IndexEntry{Version: fields[1], Path: fields[2]}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return idx, nil
}

// ParseIndexFile reads a gzip-compressed index file.
func ParseIndexFile(path string) (Index, error) {
	f, err := os.Open(path) //nolint:gosec // G304: cache path derived from the repository layout
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	defer func() { _ = gz.Close() }()

	return ParseIndex(gz)
}
