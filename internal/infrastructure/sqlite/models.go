package sqlite

import (
	"time"

	"github.com/zjrosen/darkpan/internal/repository/domain"
)

// DistributionModel represents a row of the distributions table.
type DistributionModel struct {
	ID      int64
	Path    string
	Source  string
	Author  string
	Digest  string
	Size    int64
	AddedAt int64 // Unix timestamp
}

// PackageModel represents a row of the packages table.
type PackageModel struct {
	ID             int64
	Name           string
	Version        string
	Source         string
	DistributionID int64
}

func toDistributionModel(d *domain.Distribution) *DistributionModel {
	return &DistributionModel{
		ID:      d.ID,
		Path:    d.Path,
		Source:  string(d.Source),
		Author:  d.Author,
		Digest:  d.Digest,
		Size:    d.Size,
		AddedAt: d.AddedAt.Unix(),
	}
}

func (m *DistributionModel) toDomain() *domain.Distribution {
	return &domain.Distribution{
		ID:      m.ID,
		Path:    m.Path,
		Source:  domain.Source(m.Source),
		Author:  m.Author,
		Digest:  m.Digest,
		Size:    m.Size,
		AddedAt: time.Unix(m.AddedAt, 0).UTC(),
	}
}

func (m *PackageModel) toDomain() domain.Package {
	return domain.Package{
		ID:             m.ID,
		Name:           m.Name,
		Version:        m.Version,
		Source:         domain.Source(m.Source),
		DistributionID: m.DistributionID,
	}
}
