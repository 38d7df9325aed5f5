package repository

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/darkpan/internal/log"
	"github.com/zjrosen/darkpan/internal/mocks"
	"github.com/zjrosen/darkpan/internal/pubsub"
	"github.com/zjrosen/darkpan/internal/repository/domain"
	"github.com/zjrosen/darkpan/internal/tracing"
)

const (
	fooPath = "A/AL/ALICE/Foo-1.00.tar.gz"
	barURL  = "https://cpan.example.org/authors/id/B/BO/BOB/Bar-1.0.tar.gz"
	barPath = "B/BO/BOB/Bar-1.0.tar.gz"
	barFile = "/repo/authors/id/B/BO/BOB/Bar-1.0.tar.gz"
)

type fixture struct {
	meta      *mocks.MetadataBackend
	store     *mocks.ArchiveStore
	extractor *mocks.Extractor
	fetcher   *mocks.Fetcher
	locator   *mocks.Locator
	broker    *pubsub.Broker[*domain.Distribution]
	coord     *Coordinator
	calls     []string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		meta:      mocks.NewMetadataBackend(t),
		store:     mocks.NewArchiveStore(t),
		extractor: mocks.NewExtractor(t),
		fetcher:   mocks.NewFetcher(t),
		locator:   mocks.NewLocator(t),
		broker:    pubsub.NewBroker[*domain.Distribution](),
	}
	t.Cleanup(f.broker.Close)
	opts = append([]Option{
		WithPublisher(f.broker),
		WithIDGenerator(func() string { return "op-test" }),
	}, opts...)
	f.coord = NewCoordinator(f.meta, f.store, f.extractor, f.fetcher, f.locator, opts...)
	return f
}

// record returns a Run function that appends name to the call log.
func (f *fixture) record(name string) func(mock.Arguments) {
	return func(mock.Arguments) { f.calls = append(f.calls, name) }
}

func writeArchive(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("archive"), 0o600))
	return p
}

func notFound(path string) error {
	return &domain.DistributionNotFoundError{Path: path}
}

func manifestOf(pkgs ...string) *domain.Manifest {
	m := &domain.Manifest{Packages: []domain.PackageSpec{}, Digest: "d1", Size: 7}
	for _, name := range pkgs {
		m.Packages = append(m.Packages, domain.PackageSpec{Name: name, Version: "1.00"})
	}
	return m
}

// persist mimics the backend assigning IDs.
func persist(_ context.Context, d *domain.Distribution) (*domain.Distribution, error) {
	out := *d
	out.ID = 1
	out.Packages = append([]domain.Package(nil), d.Packages...)
	for i := range out.Packages {
		out.Packages[i].ID = int64(i + 1)
		out.Packages[i].DistributionID = 1
	}
	return &out, nil
}

func localFilter(name string) domain.PackageFilter {
	return domain.PackageFilter{Name: name, Source: domain.SourceLocal, Limit: 1}
}

func ownedBy(name, author string) []domain.PackageRecord {
	return []domain.PackageRecord{{
		Package:      domain.Package{Name: name, Version: "0.9", Source: domain.SourceLocal},
		Distribution: domain.Distribution{Path: domain.DistributionPath(author, name+"-0.9.tar.gz"), Author: author, Source: domain.SourceLocal},
	}}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.InitWriter(&buf, log.LevelDebug)
	t.Cleanup(log.Reset)
	return &buf
}

// expectAddPrecheck sets up a free path and an extractor result for fooPath.
func (f *fixture) expectAddPrecheck(archive string, manifest *domain.Manifest) {
	f.meta.On("FindDistributionByPath", mock.Anything, fooPath).Return(nil, notFound(fooPath)).Once()
	f.extractor.On("Extract", mock.Anything, archive).Return(manifest, nil).Once()
}

func TestAdd_Example(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	archive := writeArchive(t, "Foo-1.00.tar.gz")
	events := f.broker.Subscribe(ctx)

	f.expectAddPrecheck(archive, manifestOf("Foo"))
	f.meta.On("FindPackages", mock.Anything, localFilter("Foo")).Return(nil, nil).Once()
	f.meta.On("CreateDistributionWithPackages", mock.Anything, mock.Anything).
		Run(f.record("metadata")).Return(persist).Once()
	f.store.On("AddArchive", mock.Anything, archive, fooPath).Run(f.record("store")).Return(nil).Once()
	f.store.On("Commit", mock.Anything, "add A/AL/ALICE/Foo-1.00.tar.gz (Foo@1.00)").
		Run(f.record("commit")).Return(nil).Once()

	dist, err := f.coord.Add(ctx, archive, "alice")
	require.NoError(t, err)

	require.Equal(t, fooPath, dist.Path)
	require.Equal(t, domain.SourceLocal, dist.Source)
	require.Equal(t, "ALICE", dist.Author)
	require.Len(t, dist.Packages, 1)
	require.Equal(t, "Foo@1.00", dist.Packages[0].String())
	require.Equal(t, domain.SourceLocal, dist.Packages[0].Source)
	require.Equal(t, []string{"metadata", "store", "commit"}, f.calls, "metadata is written before the archive")

	select {
	case evt := <-events:
		require.Equal(t, pubsub.AddedEvent, evt.Type)
		require.Equal(t, fooPath, evt.Payload.Path)
	case <-time.After(time.Second):
		t.Fatal("expected added event")
	}
}

func TestAdd_ArchiveUnavailable(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Add(context.Background(), filepath.Join(t.TempDir(), "Missing-1.0.tar.gz"), "ALICE")
	require.ErrorIs(t, err, domain.ErrArchiveUnavailable)

	_, err = f.coord.Add(context.Background(), t.TempDir(), "ALICE")
	require.ErrorIs(t, err, domain.ErrArchiveUnavailable, "directories are not archives")
}

func TestAdd_InvalidAuthor(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Add(context.Background(), writeArchive(t, "Foo-1.00.tar.gz"), "al ice")
	require.ErrorIs(t, err, domain.ErrInvalidAuthor)
}

func TestAdd_DuplicatePath(t *testing.T) {
	f := newFixture(t)
	archive := writeArchive(t, "Foo-1.00.tar.gz")

	f.meta.On("FindDistributionByPath", mock.Anything, fooPath).
		Return(&domain.Distribution{ID: 7, Path: fooPath}, nil).Once()

	_, err := f.coord.Add(context.Background(), archive, "ALICE")
	require.ErrorIs(t, err, domain.ErrDuplicatePath)

	var dup *domain.DuplicatePathError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, fooPath, dup.Path)

	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
	f.meta.AssertNotCalled(t, "CreateDistributionWithPackages", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "AddArchive", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdd_LookupFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("database is locked")

	f.meta.On("FindDistributionByPath", mock.Anything, fooPath).Return(nil, boom).Once()

	_, err := f.coord.Add(context.Background(), writeArchive(t, "Foo-1.00.tar.gz"), "ALICE")
	require.ErrorIs(t, err, boom)
}

func TestAdd_ExtractFailure(t *testing.T) {
	f := newFixture(t)
	archive := writeArchive(t, "Foo-1.00.tar.gz")

	f.meta.On("FindDistributionByPath", mock.Anything, fooPath).Return(nil, notFound(fooPath)).Once()
	f.extractor.On("Extract", mock.Anything, archive).Return(nil, errors.New("not a tarball")).Once()

	_, err := f.coord.Add(context.Background(), archive, "ALICE")
	require.ErrorIs(t, err, domain.ErrArchiveUnavailable)
}

func TestAdd_OwnershipConflict(t *testing.T) {
	f := newFixture(t)
	archive := writeArchive(t, "Foo-1.00.tar.gz")

	f.expectAddPrecheck(archive, manifestOf("Foo::Util", "Foo"))
	f.meta.On("FindPackages", mock.Anything, localFilter("Foo::Util")).Return(nil, nil).Once()
	f.meta.On("FindPackages", mock.Anything, localFilter("Foo")).Return(ownedBy("Foo", "BOB"), nil).Once()

	_, err := f.coord.Add(context.Background(), archive, "ALICE")
	require.ErrorIs(t, err, domain.ErrOwnershipConflict)

	var conflict *domain.OwnershipConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "Foo", conflict.Package)
	require.Equal(t, "BOB", conflict.Owner)
	require.Equal(t, "ALICE", conflict.Author)

	f.meta.AssertNotCalled(t, "CreateDistributionWithPackages", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "AddArchive", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdd_SameAuthorUpdate(t *testing.T) {
	f := newFixture(t)
	archive := writeArchive(t, "Foo-1.00.tar.gz")

	f.expectAddPrecheck(archive, manifestOf("Foo"))
	f.meta.On("FindPackages", mock.Anything, localFilter("Foo")).Return(ownedBy("Foo", "ALICE"), nil).Once()
	f.meta.On("CreateDistributionWithPackages", mock.Anything, mock.Anything).Return(persist).Once()
	f.store.On("AddArchive", mock.Anything, archive, fooPath).Return(nil).Once()
	f.store.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.coord.Add(context.Background(), archive, "ALICE")
	require.NoError(t, err)
}

func TestAdd_NoPackagesWarns(t *testing.T) {
	buf := captureLog(t)
	f := newFixture(t)
	archive := writeArchive(t, "Foo-1.00.tar.gz")

	f.expectAddPrecheck(archive, manifestOf())
	f.meta.On("CreateDistributionWithPackages", mock.Anything, mock.Anything).Return(persist).Once()
	f.store.On("AddArchive", mock.Anything, archive, fooPath).Return(nil).Once()
	f.store.On("Commit", mock.Anything, "add "+fooPath).Return(nil).Once()

	dist, err := f.coord.Add(context.Background(), archive, "ALICE")
	require.NoError(t, err)
	require.Empty(t, dist.Packages)
	require.Contains(t, buf.String(), "[WARN]")
	require.Contains(t, buf.String(), "archive provides no packages")
	require.Contains(t, buf.String(), "op=op-test")
}

func TestAdd_MetadataWriteFailed(t *testing.T) {
	f := newFixture(t)
	archive := writeArchive(t, "Foo-1.00.tar.gz")
	boom := errors.New("disk full")

	f.expectAddPrecheck(archive, manifestOf("Foo"))
	f.meta.On("FindPackages", mock.Anything, localFilter("Foo")).Return(nil, nil).Once()
	f.meta.On("CreateDistributionWithPackages", mock.Anything, mock.Anything).Return(nil, boom).Once()

	_, err := f.coord.Add(context.Background(), archive, "ALICE")
	require.ErrorIs(t, err, domain.ErrMetadataWriteFailed)
	require.ErrorIs(t, err, boom)
	f.store.AssertNotCalled(t, "AddArchive", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdd_ConcurrentDuplicateAtInsert(t *testing.T) {
	f := newFixture(t)
	archive := writeArchive(t, "Foo-1.00.tar.gz")

	f.expectAddPrecheck(archive, manifestOf("Foo"))
	f.meta.On("FindPackages", mock.Anything, localFilter("Foo")).Return(nil, nil).Once()
	f.meta.On("CreateDistributionWithPackages", mock.Anything, mock.Anything).
		Return(nil, &domain.DuplicatePathError{Path: fooPath}).Once()

	_, err := f.coord.Add(context.Background(), archive, "ALICE")
	require.ErrorIs(t, err, domain.ErrDuplicatePath)
	require.NotErrorIs(t, err, domain.ErrMetadataWriteFailed)
}

func TestAdd_StoreWriteFailedKeepsMetadata(t *testing.T) {
	f := newFixture(t)
	archive := writeArchive(t, "Foo-1.00.tar.gz")
	boom := errors.New("permission denied")

	f.expectAddPrecheck(archive, manifestOf("Foo"))
	f.meta.On("FindPackages", mock.Anything, localFilter("Foo")).Return(nil, nil).Once()
	f.meta.On("CreateDistributionWithPackages", mock.Anything, mock.Anything).Return(persist).Once()
	f.store.On("AddArchive", mock.Anything, archive, fooPath).Return(boom).Once()

	_, err := f.coord.Add(context.Background(), archive, "ALICE")
	require.ErrorIs(t, err, domain.ErrStoreWriteFailed)
	require.ErrorIs(t, err, boom)

	f.meta.AssertNotCalled(t, "DeleteDistribution", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestAdd_CommitFailure(t *testing.T) {
	f := newFixture(t)
	archive := writeArchive(t, "Foo-1.00.tar.gz")

	f.expectAddPrecheck(archive, manifestOf("Foo"))
	f.meta.On("FindPackages", mock.Anything, localFilter("Foo")).Return(nil, nil).Once()
	f.meta.On("CreateDistributionWithPackages", mock.Anything, mock.Anything).Return(persist).Once()
	f.store.On("AddArchive", mock.Anything, archive, fooPath).Return(nil).Once()
	f.store.On("Commit", mock.Anything, mock.Anything).Return(errors.New("index.lock")).Once()

	_, err := f.coord.Add(context.Background(), archive, "ALICE")
	require.ErrorIs(t, err, domain.ErrStoreWriteFailed)
}

func TestImport_Success(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := f.broker.Subscribe(ctx)

	f.meta.On("FindDistributionByPath", mock.Anything, barPath).Return(nil, notFound(barPath)).Once()
	f.store.On("Location", barPath).Return(barFile)
	f.fetcher.On("Fetch", mock.Anything, barURL, barFile).Run(f.record("fetch")).Return(nil).Once()
	f.extractor.On("Extract", mock.Anything, barFile).Return(manifestOf("Bar"), nil).Once()
	f.meta.On("CreateDistributionWithPackages", mock.Anything, mock.MatchedBy(func(d *domain.Distribution) bool {
		return d.Source == "https://cpan.example.org" && d.Author == "BOB" && d.Packages[0].Source == d.Source
	})).Run(f.record("metadata")).Return(persist).Once()
	f.store.On("AddStagedArchive", mock.Anything, barPath).Run(f.record("store")).Return(nil).Once()
	f.store.On("Commit", mock.Anything, "import B/BO/BOB/Bar-1.0.tar.gz (Bar@1.00) from https://cpan.example.org").
		Return(nil).Once()

	dist, err := f.coord.Import(ctx, barURL)
	require.NoError(t, err)
	require.Equal(t, barPath, dist.Path)
	require.Equal(t, domain.Source("https://cpan.example.org"), dist.Source)
	require.Equal(t, []string{"fetch", "metadata", "store"}, f.calls)

	// Imports never consult package ownership.
	f.meta.AssertNotCalled(t, "FindPackages", mock.Anything, mock.Anything)

	select {
	case evt := <-events:
		require.Equal(t, pubsub.ImportedEvent, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("expected imported event")
	}
}

func TestImport_DuplicatePathSkipsFetch(t *testing.T) {
	f := newFixture(t)

	f.meta.On("FindDistributionByPath", mock.Anything, barPath).
		Return(&domain.Distribution{Path: barPath}, nil).Once()

	_, err := f.coord.Import(context.Background(), barURL)
	require.ErrorIs(t, err, domain.ErrDuplicatePath)
	f.fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestImport_InvalidURL(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Import(context.Background(), "https://cpan.example.org/no/authors/here.tar.gz")
	require.ErrorIs(t, err, domain.ErrInvalidURL)
}

func TestImport_FetchFailed(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"fetch error", &domain.FetchError{URL: barURL, Err: errors.New("connection refused")}},
		{"bare error", errors.New("connection reset")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.meta.On("FindDistributionByPath", mock.Anything, barPath).Return(nil, notFound(barPath)).Once()
			f.store.On("Location", barPath).Return(barFile)
			f.fetcher.On("Fetch", mock.Anything, barURL, barFile).Return(tc.err).Once()

			_, err := f.coord.Import(context.Background(), barURL)
			require.ErrorIs(t, err, domain.ErrFetchFailed)
			f.meta.AssertNotCalled(t, "CreateDistributionWithPackages", mock.Anything, mock.Anything)
		})
	}
}

func TestImport_MetadataFailureDiscardsStaged(t *testing.T) {
	f := newFixture(t)

	f.meta.On("FindDistributionByPath", mock.Anything, barPath).Return(nil, notFound(barPath)).Once()
	f.store.On("Location", barPath).Return(barFile)
	f.fetcher.On("Fetch", mock.Anything, barURL, barFile).Return(nil).Once()
	f.extractor.On("Extract", mock.Anything, barFile).Return(manifestOf("Bar"), nil).Once()
	f.meta.On("CreateDistributionWithPackages", mock.Anything, mock.Anything).Return(nil, errors.New("disk full")).Once()
	f.store.On("RemoveArchive", mock.Anything, barPath).Return(nil).Once()

	_, err := f.coord.Import(context.Background(), barURL)
	require.ErrorIs(t, err, domain.ErrMetadataWriteFailed)
	f.store.AssertNotCalled(t, "AddStagedArchive", mock.Anything, mock.Anything)
}

func TestImport_StoreWriteFailed(t *testing.T) {
	f := newFixture(t)

	f.meta.On("FindDistributionByPath", mock.Anything, barPath).Return(nil, notFound(barPath)).Once()
	f.store.On("Location", barPath).Return(barFile)
	f.fetcher.On("Fetch", mock.Anything, barURL, barFile).Return(nil).Once()
	f.extractor.On("Extract", mock.Anything, barFile).Return(manifestOf("Bar"), nil).Once()
	f.meta.On("CreateDistributionWithPackages", mock.Anything, mock.Anything).Return(persist).Once()
	f.store.On("AddStagedArchive", mock.Anything, barPath).Return(errors.New("git add failed")).Once()

	_, err := f.coord.Import(context.Background(), barURL)
	require.ErrorIs(t, err, domain.ErrStoreWriteFailed)
	f.meta.AssertNotCalled(t, "DeleteDistribution", mock.Anything, mock.Anything)
}

func TestRemove_Success(t *testing.T) {
	f := newFixture(t)
	existing := &domain.Distribution{ID: 3, Path: fooPath, Packages: []domain.Package{{Name: "Foo", Version: "1.00"}}}

	f.meta.On("FindDistributionByPath", mock.Anything, fooPath).Return(existing, nil).Once()
	f.meta.On("DeleteDistribution", mock.Anything, existing).Run(f.record("metadata")).Return(nil).Once()
	f.store.On("RemoveArchive", mock.Anything, fooPath).Run(f.record("store")).Return(nil).Once()
	f.store.On("Commit", mock.Anything, "remove A/AL/ALICE/Foo-1.00.tar.gz (Foo@1.00)").Return(nil).Once()

	removed, err := f.coord.Remove(context.Background(), fooPath)
	require.NoError(t, err)
	require.Same(t, existing, removed)
	require.Equal(t, []string{"metadata", "store"}, f.calls, "metadata is deleted before the archive")
}

func TestRemove_NotFound(t *testing.T) {
	f := newFixture(t)

	f.meta.On("FindDistributionByPath", mock.Anything, fooPath).Return(nil, notFound(fooPath)).Once()

	_, err := f.coord.Remove(context.Background(), fooPath)
	require.ErrorIs(t, err, domain.ErrNotFound)
	f.meta.AssertNotCalled(t, "DeleteDistribution", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "RemoveArchive", mock.Anything, mock.Anything)
}

func TestRemove_StoreFailureAfterDelete(t *testing.T) {
	f := newFixture(t)
	existing := &domain.Distribution{ID: 3, Path: fooPath}

	f.meta.On("FindDistributionByPath", mock.Anything, fooPath).Return(existing, nil).Once()
	f.meta.On("DeleteDistribution", mock.Anything, existing).Return(nil).Once()
	f.store.On("RemoveArchive", mock.Anything, fooPath).Return(errors.New("busy")).Once()

	_, err := f.coord.Remove(context.Background(), fooPath)
	require.ErrorIs(t, err, domain.ErrStoreWriteFailed)
}

func TestRemove_MetadataFailure(t *testing.T) {
	f := newFixture(t)
	existing := &domain.Distribution{ID: 3, Path: fooPath}

	f.meta.On("FindDistributionByPath", mock.Anything, fooPath).Return(existing, nil).Once()
	f.meta.On("DeleteDistribution", mock.Anything, existing).Return(errors.New("locked")).Once()

	_, err := f.coord.Remove(context.Background(), fooPath)
	require.ErrorIs(t, err, domain.ErrMetadataWriteFailed)
	f.store.AssertNotCalled(t, "RemoveArchive", mock.Anything, mock.Anything)
}

func TestLocate_Passthrough(t *testing.T) {
	f := newFixture(t)
	want := &domain.Location{Package: "Foo", Version: "1.00", Path: fooPath}

	f.locator.On("Locate", mock.Anything, domain.Criteria{Name: "Foo", Version: "1.0"}).Return(want, nil).Once()
	f.locator.On("Locate", mock.Anything, domain.Criteria{Name: "Nope"}).Return(nil, nil).Once()

	got, err := f.coord.Locate(context.Background(), domain.Criteria{Name: "Foo", Version: "1.0"})
	require.NoError(t, err)
	require.Same(t, want, got)

	got, err = f.coord.Locate(context.Background(), domain.Criteria{Name: "Nope"})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestVerify(t *testing.T) {
	f := newFixture(t)

	f.meta.On("ListDistributions", mock.Anything).Return([]*domain.Distribution{
		{Path: "A/AL/ALICE/Good-1.0.tar.gz", Digest: "good"},
		{Path: "A/AL/ALICE/Gone-1.0.tar.gz", Digest: "gone"},
		{Path: "A/AL/ALICE/Bad-1.0.tar.gz", Digest: "expected"},
		{Path: "A/AL/ALICE/NoDigest-1.0.tar.gz"},
	}, nil).Once()
	f.store.On("ListArchives", mock.Anything).Return([]string{
		"A/AL/ALICE/Bad-1.0.tar.gz",
		"A/AL/ALICE/Good-1.0.tar.gz",
		"A/AL/ALICE/NoDigest-1.0.tar.gz",
		"Z/ZE/ZED/Stray-1.0.tar.gz",
	}, nil).Once()
	f.store.On("Digest", "A/AL/ALICE/Good-1.0.tar.gz").Return("good", nil).Once()
	f.store.On("Digest", "A/AL/ALICE/Bad-1.0.tar.gz").Return("actual", nil).Once()

	report, err := f.coord.Verify(context.Background())
	require.NoError(t, err)
	require.False(t, report.OK())
	require.Equal(t, []string{"A/AL/ALICE/Gone-1.0.tar.gz"}, report.Missing)
	require.Equal(t, []string{"Z/ZE/ZED/Stray-1.0.tar.gz"}, report.Orphaned)
	require.Equal(t, []string{"A/AL/ALICE/Bad-1.0.tar.gz"}, report.Corrupt)
}

func TestTag(t *testing.T) {
	f := newFixture(t)

	f.store.On("Tag", mock.Anything, "release-1").Return("0123abcd", nil).Once()
	f.store.On("Tag", mock.Anything, "release-1").Return("", errors.New("tag exists")).Once()

	commit, err := f.coord.Tag(context.Background(), "release-1")
	require.NoError(t, err)
	require.Equal(t, "0123abcd", commit)

	_, err = f.coord.Tag(context.Background(), "release-1")
	require.ErrorIs(t, err, domain.ErrStoreWriteFailed)
}

func TestCoordinator_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	f := newFixture(t, WithTracer(tp.Tracer("test")))

	f.meta.On("FindDistributionByPath", mock.Anything, fooPath).Return(nil, notFound(fooPath)).Once()

	_, err := f.coord.Remove(context.Background(), fooPath)
	require.ErrorIs(t, err, domain.ErrNotFound)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, tracing.SpanRemove, spans[0].Name)
	require.Equal(t, codes.Error, spans[0].Status.Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	require.Equal(t, "op-test", attrs[tracing.AttrOperationID])
	require.Equal(t, "not_found", attrs[tracing.AttrErrorType])
}

func TestErrorType(t *testing.T) {
	require.Equal(t, "", errorType(nil))
	require.Equal(t, "duplicate_path", errorType(&domain.DuplicatePathError{}))
	require.Equal(t, "fetch_failed", errorType(&domain.FetchError{Err: errors.New("x")}))
	require.Equal(t, "internal", errorType(errors.New("x")))
}
