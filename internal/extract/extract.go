// Package extract discovers the packages a distribution archive provides.
//
// Archives are tarballs compressed with gzip, bzip2 or zstd (or not at
// all). The extractor prefers the provides section of META.json, then
// META.yml, and falls back to scanning lib/**/*.pm for package and
// $VERSION declarations.
package extract

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/zjrosen/darkpan/internal/digest"
	"github.com/zjrosen/darkpan/internal/log"
	"github.com/zjrosen/darkpan/internal/repository/domain"
)

const (
	maxMetaBytes   = 1 << 20
	maxModuleBytes = 4 << 20
)

// ErrUnsupportedFormat is returned for archives that are not tarballs.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Extractor implements domain.Extractor for tarball distributions.
type Extractor struct{}

var _ domain.Extractor = (*Extractor)(nil)

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// contents collects what the tar walk found.
type contents struct {
	metaJSON []byte
	metaYML  []byte
	modules  []moduleFile
}

type moduleFile struct {
	name string
	data []byte
}

// Extract digests the archive and reports its packages. An archive with
// no discoverable packages yields an empty, non-nil manifest.
func (e *Extractor) Extract(ctx context.Context, archivePath string) (*domain.Manifest, error) {
	sum, size, err := digest.File(archivePath)
	if err != nil {
		return nil, fmt.Errorf("digesting archive: %w", err)
	}

	found, err := walkArchive(ctx, archivePath)
	if err != nil {
		return nil, err
	}

	packages, origin, err := found.packages()
	if err != nil {
		return nil, err
	}

	log.Debug(log.CatExtract, "archive extracted",
		"archive", path.Base(archivePath), "packages", len(packages), "from", origin)

	return &domain.Manifest{
		Packages: packages,
		Digest:   sum,
		Size:     size,
	}, nil
}

func (c *contents) packages() ([]domain.PackageSpec, string, error) {
	if c.metaJSON != nil {
		pkgs, err := parseMetaJSON(c.metaJSON)
		if err == nil && len(pkgs) > 0 {
			return pkgs, "META.json", nil
		}
		if err != nil {
			log.Warn(log.CatExtract, "ignoring unreadable META.json", "error", err)
		}
	}
	if c.metaYML != nil {
		pkgs, err := parseMetaYAML(c.metaYML)
		if err == nil && len(pkgs) > 0 {
			return pkgs, "META.yml", nil
		}
		if err != nil {
			log.Warn(log.CatExtract, "ignoring unreadable META.yml", "error", err)
		}
	}

	seen := make(map[string]bool)
	pkgs := []domain.PackageSpec{}
	for _, mod := range c.modules {
		for _, spec := range scanModule(mod.data) {
			if seen[spec.Name] {
				continue
			}
			seen[spec.Name] = true
			pkgs = append(pkgs, spec)
		}
	}
	return pkgs, "lib", nil
}

// walkArchive opens the archive, picks a decompressor from its leading
// bytes and collects the metadata files and modules.
func walkArchive(ctx context.Context, archivePath string) (*contents, error) {
	f, err := os.Open(archivePath) //nolint:gosec // G304: archive path resolved by the coordinator
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	r, closeFn, err := decompress(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}
	defer closeFn()

	found := &contents{}
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return nil, fmt.Errorf("%w: reading tar entry: %v", ErrUnsupportedFormat, nextErr)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		rel := stripTopDir(hdr.Name)
		switch {
		case rel == "META.json":
			if found.metaJSON, err = readLimited(tr, hdr.Name, maxMetaBytes); err != nil {
				return nil, err
			}
		case rel == "META.yml":
			if found.metaYML, err = readLimited(tr, hdr.Name, maxMetaBytes); err != nil {
				return nil, err
			}
		case strings.HasPrefix(rel, "lib/") && strings.HasSuffix(rel, ".pm"):
			data, err := readLimited(tr, hdr.Name, maxModuleBytes)
			if err != nil {
				return nil, err
			}
			found.modules = append(found.modules, moduleFile{name: rel, data: data})
		}
	}
	return found, nil
}

func decompress(br *bufio.Reader) (io.Reader, func(), error) {
	head, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("reading archive header: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return gz, func() { _ = gz.Close() }, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		return zr, zr.Close, nil
	case bytes.HasPrefix(head, bzip2Magic):
		return bzip2.NewReader(br), func() {}, nil
	default:
		return br, func() {}, nil
	}
}

// stripTopDir drops the leading Foo-1.00/ directory tarballs conventionally carry.
func stripTopDir(name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// readLimited reads at most limit bytes of entry name. Longer entries are
// truncated with a warning; anything declared past the cut is not seen.
func readLimited(r io.Reader, name string, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading archive entry %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		log.Warn(log.CatExtract, "archive entry truncated", "entry", name, "limit", limit)
		return data[:limit], nil
	}
	return data, nil
}
