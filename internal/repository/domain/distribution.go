// Package domain provides the pure domain layer for the package repository.
//
// It defines the Distribution and Package entities, the rules that derive
// repository paths from author identifiers and import URLs, the interfaces
// of the collaborators the coordinator drives (metadata backend, archive
// store, extractor, fetcher, remote locator), and the domain error types.
// Nothing here touches a database, the file system or the network.
package domain

import (
	"path"
	"time"
)

// Source identifies where a distribution came from.
type Source string

// SourceLocal marks distributions added directly to this repository.
const SourceLocal Source = "LOCAL"

// IsLocal reports whether s is the local source.
func (s Source) IsLocal() bool {
	return s == SourceLocal
}

// String returns the source identifier.
func (s Source) String() string {
	return string(s)
}

// Distribution identifies one package archive in the repository.
type Distribution struct {
	ID       int64
	Path     string // repository-relative, e.g. A/AL/ALICE/Foo-1.00.tar.gz
	Source   Source
	Author   string
	Digest   string // BLAKE3 hex digest of the archive bytes
	Size     int64
	AddedAt  time.Time
	Packages []Package
}

// NewDistribution builds an unpersisted distribution from extractor output.
// Every package inherits the distribution's source.
func NewDistribution(distPath string, source Source, author string, manifest *Manifest) *Distribution {
	d := &Distribution{
		Path:    distPath,
		Source:  source,
		Author:  author,
		AddedAt: time.Now().UTC().Truncate(time.Second),
	}
	if manifest == nil {
		return d
	}
	d.Digest = manifest.Digest
	d.Size = manifest.Size
	d.Packages = make([]Package, 0, len(manifest.Packages))
	for _, spec := range manifest.Packages {
		d.Packages = append(d.Packages, Package{
			Name:    spec.Name,
			Version: spec.Version,
			Source:  source,
		})
	}
	return d
}

// Archive returns the archive filename.
func (d *Distribution) Archive() string {
	return path.Base(d.Path)
}

// PackageNames returns the names of the provided packages in order.
func (d *Distribution) PackageNames() []string {
	names := make([]string, 0, len(d.Packages))
	for _, p := range d.Packages {
		names = append(names, p.Name)
	}
	return names
}

// Package is one named, versioned unit provided by a distribution.
type Package struct {
	ID             int64
	Name           string
	Version        string
	Source         Source
	DistributionID int64
}

// String formats the package as Name@Version.
func (p Package) String() string {
	return p.Name + "@" + p.Version
}

// PackageSpec is a package as reported by the extractor.
type PackageSpec struct {
	Name    string
	Version string
}

// Manifest is what the extractor learns about an archive.
type Manifest struct {
	Packages []PackageSpec
	Digest   string
	Size     int64
}

// PackageRecord pairs a package with its owning distribution.
type PackageRecord struct {
	Package      Package
	Distribution Distribution
}
