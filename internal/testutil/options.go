package testutil

// Compression selects how an archive's tar stream is wrapped.
type Compression int

const (
	Gzip Compression = iota
	Zstd
	Plain
)

// Extension returns the file suffix for c.
func (c Compression) Extension() string {
	switch c {
	case Zstd:
		return ".tar.zst"
	case Plain:
		return ".tar"
	default:
		return ".tar.gz"
	}
}

// fileData is one regular file inside the archive, relative to its top
// directory.
type fileData struct {
	name string
	body string
}

// ArchiveOption configures an ArchiveBuilder.
type ArchiveOption func(*ArchiveBuilder)

// WithCompression sets the archive compression (default Gzip).
func WithCompression(c Compression) ArchiveOption {
	return func(b *ArchiveBuilder) {
		b.compression = c
	}
}

// WithoutTopDir stores entries at the archive root instead of under
// <name>-<version>/.
func WithoutTopDir() ArchiveOption {
	return func(b *ArchiveBuilder) {
		b.flat = true
	}
}
