// Package testutil builds distribution archives and repositories for tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

// ArchiveBuilder accumulates files for a distribution tarball.
type ArchiveBuilder struct {
	t           testing.TB
	name        string
	version     string
	compression Compression
	flat        bool
	files       []fileData
}

// NewArchive starts an archive named <name>-<version>.
func NewArchive(t testing.TB, name, version string, opts ...ArchiveOption) *ArchiveBuilder {
	t.Helper()
	b := &ArchiveBuilder{t: t, name: name, version: version}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FileName returns the archive file name, e.g. Foo-1.00.tar.gz.
func (b *ArchiveBuilder) FileName() string {
	return b.name + "-" + b.version + b.compression.Extension()
}

// WithFile adds a file at name relative to the distribution's top directory.
func (b *ArchiveBuilder) WithFile(name, body string) *ArchiveBuilder {
	b.files = append(b.files, fileData{name: name, body: body})
	return b
}

// WithModule adds lib/<Pkg/Path>.pm declaring pkg with version.
func (b *ArchiveBuilder) WithModule(pkg, version string) *ArchiveBuilder {
	body := fmt.Sprintf("package %s;\nuse strict;\nour $VERSION = '%s';\n1;\n", pkg, version)
	return b.WithFile("lib/"+strings.ReplaceAll(pkg, "::", "/")+".pm", body)
}

// WithMetaJSON adds a META.json whose provides section lists pkgs, each
// at the archive version.
func (b *ArchiveBuilder) WithMetaJSON(pkgs ...string) *ArchiveBuilder {
	sorted := append([]string(nil), pkgs...)
	sort.Strings(sorted)
	entries := make([]string, 0, len(sorted))
	for _, p := range sorted {
		entries = append(entries, fmt.Sprintf("%q: {\"file\": %q, \"version\": %q}",
			p, "lib/"+strings.ReplaceAll(p, "::", "/")+".pm", b.version))
	}
	meta := fmt.Sprintf("{\"name\": %q, \"version\": %q, \"provides\": {%s}}\n",
		b.name, b.version, strings.Join(entries, ", "))
	return b.WithFile("META.json", meta)
}

// Bytes returns the encoded archive.
func (b *ArchiveBuilder) Bytes() []byte {
	b.t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	top := b.name + "-" + b.version + "/"
	for _, f := range b.files {
		name := f.name
		if !b.flat {
			name = top + name
		}
		require.NoError(b.t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(f.body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(f.body))
		require.NoError(b.t, err)
	}
	require.NoError(b.t, tw.Close())
	return compress(b.t, b.compression, buf.Bytes())
}

// Write stores the archive in dir (created if needed) and returns its path.
func (b *ArchiveBuilder) Write(dir string) string {
	b.t.Helper()
	require.NoError(b.t, os.MkdirAll(dir, 0o750))
	p := filepath.Join(dir, b.FileName())
	require.NoError(b.t, os.WriteFile(p, b.Bytes(), 0o600))
	return p
}

// Gzipped compresses data with gzip.
func Gzipped(t testing.TB, data []byte) []byte {
	t.Helper()
	return compress(t, Gzip, data)
}

func compress(t testing.TB, c Compression, data []byte) []byte {
	t.Helper()
	switch c {
	case Plain:
		return data
	case Zstd:
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		defer func() { _ = enc.Close() }()
		return enc.EncodeAll(data, nil)
	default:
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		_, err := gw.Write(data)
		require.NoError(t, err)
		require.NoError(t, gw.Close())
		return buf.Bytes()
	}
}
