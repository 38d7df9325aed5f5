package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zjrosen/darkpan/internal/repository/domain"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

func register(t testingT, m interface {
	Test(mock.TestingT)
	AssertExpectations(mock.TestingT) bool
}) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// MetadataBackend mocks domain.MetadataBackend.
type MetadataBackend struct {
	mock.Mock
}

var _ domain.MetadataBackend = (*MetadataBackend)(nil)

func NewMetadataBackend(t testingT) *MetadataBackend {
	m := &MetadataBackend{}
	register(t, m)
	return m
}

func (m *MetadataBackend) FindDistributionByPath(ctx context.Context, path string) (*domain.Distribution, error) {
	args := m.Called(ctx, path)
	d, _ := args.Get(0).(*domain.Distribution)
	return d, args.Error(1)
}

func (m *MetadataBackend) FindPackages(ctx context.Context, filter domain.PackageFilter) ([]domain.PackageRecord, error) {
	args := m.Called(ctx, filter)
	r, _ := args.Get(0).([]domain.PackageRecord)
	return r, args.Error(1)
}

// CreateDistributionWithPackages accepts either static return values or a
// single func(context.Context, *domain.Distribution) (*domain.Distribution, error).
func (m *MetadataBackend) CreateDistributionWithPackages(ctx context.Context, dist *domain.Distribution) (*domain.Distribution, error) {
	args := m.Called(ctx, dist)
	if fn, ok := args.Get(0).(func(context.Context, *domain.Distribution) (*domain.Distribution, error)); ok {
		return fn(ctx, dist)
	}
	d, _ := args.Get(0).(*domain.Distribution)
	return d, args.Error(1)
}

func (m *MetadataBackend) DeleteDistribution(ctx context.Context, dist *domain.Distribution) error {
	return m.Called(ctx, dist).Error(0)
}

func (m *MetadataBackend) ListDistributions(ctx context.Context) ([]*domain.Distribution, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).([]*domain.Distribution)
	return d, args.Error(1)
}

// ArchiveStore mocks domain.ArchiveStore.
type ArchiveStore struct {
	mock.Mock
}

var _ domain.ArchiveStore = (*ArchiveStore)(nil)

func NewArchiveStore(t testingT) *ArchiveStore {
	m := &ArchiveStore{}
	register(t, m)
	return m
}

func (m *ArchiveStore) Initialize(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *ArchiveStore) AddArchive(ctx context.Context, src, dest string) error {
	return m.Called(ctx, src, dest).Error(0)
}

func (m *ArchiveStore) AddStagedArchive(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *ArchiveStore) RemoveArchive(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *ArchiveStore) Commit(ctx context.Context, message string) error {
	return m.Called(ctx, message).Error(0)
}

func (m *ArchiveStore) Tag(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *ArchiveStore) Location(path string) string {
	return m.Called(path).String(0)
}

func (m *ArchiveStore) Exists(path string) bool {
	return m.Called(path).Bool(0)
}

func (m *ArchiveStore) Digest(path string) (string, error) {
	args := m.Called(path)
	return args.String(0), args.Error(1)
}

func (m *ArchiveStore) ListArchives(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]string)
	return p, args.Error(1)
}

// Extractor mocks domain.Extractor.
type Extractor struct {
	mock.Mock
}

var _ domain.Extractor = (*Extractor)(nil)

func NewExtractor(t testingT) *Extractor {
	m := &Extractor{}
	register(t, m)
	return m
}

func (m *Extractor) Extract(ctx context.Context, archivePath string) (*domain.Manifest, error) {
	args := m.Called(ctx, archivePath)
	man, _ := args.Get(0).(*domain.Manifest)
	return man, args.Error(1)
}

// Fetcher mocks domain.Fetcher.
type Fetcher struct {
	mock.Mock
}

var _ domain.Fetcher = (*Fetcher)(nil)

func NewFetcher(t testingT) *Fetcher {
	m := &Fetcher{}
	register(t, m)
	return m
}

func (m *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	return m.Called(ctx, url, dest).Error(0)
}

// Locator mocks domain.Locator.
type Locator struct {
	mock.Mock
}

var _ domain.Locator = (*Locator)(nil)

func NewLocator(t testingT) *Locator {
	m := &Locator{}
	register(t, m)
	return m
}

func (m *Locator) Locate(ctx context.Context, criteria domain.Criteria) (*domain.Location, error) {
	args := m.Called(ctx, criteria)
	loc, _ := args.Get(0).(*domain.Location)
	return loc, args.Error(1)
}
