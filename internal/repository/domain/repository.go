package domain

import "context"

// PackageFilter selects packages for FindPackages. Empty fields match all.
type PackageFilter struct {
	Name   string
	Source Source
	// Limit restricts the number of records returned. If 0, no limit.
	Limit int
}

// MetadataBackend stores distribution and package records.
// Implementations must make CreateDistributionWithPackages atomic and must
// reject a second distribution at an existing path even under concurrent
// callers; the coordinator relies on that for path uniqueness.
type MetadataBackend interface {
	// FindDistributionByPath returns the distribution at path with its
	// packages, or DistributionNotFoundError.
	FindDistributionByPath(ctx context.Context, path string) (*Distribution, error)

	// FindPackages returns matching packages joined with their owning
	// distribution, newest distribution first.
	FindPackages(ctx context.Context, filter PackageFilter) ([]PackageRecord, error)

	// CreateDistributionWithPackages persists dist and all its packages in
	// one transaction, assigning IDs. Returns DuplicatePathError when the
	// path is taken.
	CreateDistributionWithPackages(ctx context.Context, dist *Distribution) (*Distribution, error)

	// DeleteDistribution removes dist and, by cascade, its packages.
	DeleteDistribution(ctx context.Context, dist *Distribution) error

	// ListDistributions returns every distribution ordered by path.
	ListDistributions(ctx context.Context) ([]*Distribution, error)
}

// ArchiveStore persists archive files by repository path.
type ArchiveStore interface {
	// Initialize prepares the store on disk. Safe to call repeatedly.
	Initialize(ctx context.Context) error

	// AddArchive copies the file at src into the store at dest.
	AddArchive(ctx context.Context, src, dest string) error

	// AddStagedArchive registers a file that was already written to its
	// final location inside the store (see Location).
	AddStagedArchive(ctx context.Context, path string) error

	// RemoveArchive deletes the archive at path.
	RemoveArchive(ctx context.Context, path string) error

	// Commit records pending changes. A no-op for stores without history.
	Commit(ctx context.Context, message string) error

	// Tag labels the current state and returns the commit it points at.
	// Stores without history do nothing and return "".
	Tag(ctx context.Context, name string) (string, error)

	// Location returns the absolute file location of path.
	Location(path string) string

	// Exists reports whether an archive is stored at path.
	Exists(path string) bool

	// Digest returns the BLAKE3 hex digest of the archive at path.
	Digest(path string) (string, error)

	// ListArchives returns the repository paths of every stored archive.
	ListArchives(ctx context.Context) ([]string, error)
}

// Extractor inspects an archive and reports the packages it provides.
type Extractor interface {
	// Extract returns the archive manifest. Packages may be empty.
	Extract(ctx context.Context, archivePath string) (*Manifest, error)
}

// Fetcher retrieves a remote URL into a local file.
type Fetcher interface {
	// Fetch downloads url to dest. Failures are FetchError.
	Fetch(ctx context.Context, url, dest string) error
}

// Criteria selects a package on upstream mirrors.
type Criteria struct {
	Name string
	// Version is the minimum acceptable version; empty accepts any.
	Version string
}

// Location is where a package can be fetched from upstream.
type Location struct {
	Package string
	Version string
	Path    string // repository path, e.g. A/AL/ALICE/Foo-1.00.tar.gz
	URL     string // full archive URL
	Source  Source // mirror base URL
}

// Locator resolves packages to upstream archive locations.
type Locator interface {
	// Locate returns the best location for criteria, or nil when no mirror
	// provides a satisfying version.
	Locate(ctx context.Context, criteria Criteria) (*Location, error)
}
