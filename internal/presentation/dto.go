package presentation

import (
	"time"

	"github.com/zjrosen/darkpan/internal/repository/domain"
)

// DistributionDTO represents a distribution for presentation
type DistributionDTO struct {
	Path     string       `json:"path"`
	Source   string       `json:"source"`
	Author   string       `json:"author"`
	Digest   string       `json:"digest,omitempty"`
	Size     int64        `json:"size"`
	AddedAt  time.Time    `json:"added_at"`
	Packages []PackageDTO `json:"packages"` // always present, empty when none
}

// PackageDTO represents one provided package
type PackageDTO struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// LocationDTO represents a package located on an upstream mirror
type LocationDTO struct {
	Package string `json:"package"`
	Version string `json:"version"`
	Path    string `json:"path"`
	URL     string `json:"url"`
	Source  string `json:"source"`
}

// FromDomainDistribution converts a domain distribution to a DTO.
func FromDomainDistribution(d *domain.Distribution) DistributionDTO {
	dto := DistributionDTO{
		Path:     d.Path,
		Source:   d.Source.String(),
		Author:   d.Author,
		Digest:   d.Digest,
		Size:     d.Size,
		AddedAt:  d.AddedAt,
		Packages: make([]PackageDTO, 0, len(d.Packages)),
	}
	for _, p := range d.Packages {
		dto.Packages = append(dto.Packages, PackageDTO{Name: p.Name, Version: p.Version})
	}
	return dto
}

// FromDomainDistributions converts a slice of domain distributions to DTOs.
func FromDomainDistributions(dists []*domain.Distribution) []DistributionDTO {
	dtos := make([]DistributionDTO, 0, len(dists))
	for _, d := range dists {
		dtos = append(dtos, FromDomainDistribution(d))
	}
	return dtos
}

// FromDomainLocation converts a located package to a DTO.
func FromDomainLocation(l *domain.Location) LocationDTO {
	return LocationDTO{
		Package: l.Package,
		Version: l.Version,
		Path:    l.Path,
		URL:     l.URL,
		Source:  l.Source.String(),
	}
}
