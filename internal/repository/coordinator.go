// Package repository coordinates the metadata backend and the archive store
// so that every distribution in the index has an archive and vice versa.
//
// Add, Import and Remove are short pipelines: validation gates first, then
// the metadata write, then the archive write (reversed for Remove). There
// is no compensation across backends; Verify reports any inconsistency a
// failed store write leaves behind.
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/darkpan/internal/log"
	"github.com/zjrosen/darkpan/internal/pubsub"
	"github.com/zjrosen/darkpan/internal/repository/domain"
	"github.com/zjrosen/darkpan/internal/tracing"
)

// Coordinator drives the repository's collaborators. It holds no state
// between calls.
type Coordinator struct {
	metadata  domain.MetadataBackend
	store     domain.ArchiveStore
	extractor domain.Extractor
	fetcher   domain.Fetcher
	locator   domain.Locator

	tracer    trace.Tracer
	publisher pubsub.Publisher[*domain.Distribution]
	newID     func() string
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithTracer records a span per operation.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithPublisher publishes an event after each successful change.
func WithPublisher(p pubsub.Publisher[*domain.Distribution]) Option {
	return func(c *Coordinator) {
		c.publisher = p
	}
}

// WithIDGenerator replaces the operation id source.
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewCoordinator creates a Coordinator over the given collaborators.
func NewCoordinator(
	metadata domain.MetadataBackend,
	store domain.ArchiveStore,
	extractor domain.Extractor,
	fetcher domain.Fetcher,
	locator domain.Locator,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		metadata:  metadata,
		store:     store,
		extractor: extractor,
		fetcher:   fetcher,
		locator:   locator,
		tracer:    tracing.Noop(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add puts a local archive into the repository under author's directory.
//
// Checks, in order: the archive is readable (ErrArchiveUnavailable), its
// path is free (ErrDuplicatePath), and no LOCAL package it provides is
// owned by another author (ErrOwnershipConflict). An archive with no
// packages is accepted with a warning. Metadata is written before the
// archive; a store failure after that is ErrStoreWriteFailed and leaves
// the metadata in place.
func (c *Coordinator) Add(ctx context.Context, archivePath, author string) (_ *domain.Distribution, err error) {
	opID := c.newID()
	ctx, span := tracing.StartOperation(ctx, c.tracer, tracing.SpanAdd, opID,
		attribute.String(tracing.AttrAuthor, author))
	defer func() { tracing.EndOperation(span, err, errorType(err)) }()

	if err := checkReadable(archivePath); err != nil {
		return nil, err
	}

	authorID, err := domain.NormalizeAuthor(author)
	if err != nil {
		return nil, err
	}
	distPath := domain.DistributionPath(authorID, filepath.Base(archivePath))
	span.SetAttributes(attribute.String(tracing.AttrPath, distPath))

	if err := c.ensurePathFree(ctx, distPath); err != nil {
		return nil, err
	}

	manifest, err := c.extract(ctx, span, archivePath, distPath)
	if err != nil {
		return nil, err
	}

	if err := c.checkOwnership(ctx, authorID, manifest); err != nil {
		return nil, err
	}

	dist, err := c.persist(ctx, span, domain.NewDistribution(distPath, domain.SourceLocal, authorID, manifest))
	if err != nil {
		return nil, err
	}

	if err := c.store.AddArchive(ctx, archivePath, distPath); err != nil {
		log.ErrorErr(log.CatRepo, "archive store write failed after metadata commit", err, "op", opID, "path", distPath)
		return nil, &domain.StoreError{Op: "add", Path: distPath, Err: err}
	}
	if err := c.commit(ctx, span, "add "+describe(dist)); err != nil {
		return nil, err
	}

	log.Info(log.CatRepo, "distribution added", "op", opID, "path", dist.Path, "author", authorID, "packages", len(dist.Packages))
	c.publish(pubsub.AddedEvent, dist)
	return dist, nil
}

// Import fetches an upstream archive by URL and records it under the
// source the URL names. The path check happens before any download;
// ownership is not checked for imports.
func (c *Coordinator) Import(ctx context.Context, rawURL string) (_ *domain.Distribution, err error) {
	opID := c.newID()
	ctx, span := tracing.StartOperation(ctx, c.tracer, tracing.SpanImport, opID,
		attribute.String(tracing.AttrURL, domain.RedactURL(rawURL)))
	defer func() { tracing.EndOperation(span, err, errorType(err)) }()

	target, err := domain.ParseImportURL(rawURL)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String(tracing.AttrPath, target.Path),
		attribute.String(tracing.AttrSource, string(target.Source)),
	)

	if err := c.ensurePathFree(ctx, target.Path); err != nil {
		return nil, err
	}

	staged := c.store.Location(target.Path)
	if err := c.fetcher.Fetch(ctx, target.URL, staged); err != nil {
		var fetchErr *domain.FetchError
		if !errors.As(err, &fetchErr) {
			err = &domain.FetchError{URL: target.URL, Err: err}
		}
		return nil, err
	}
	span.AddEvent(tracing.EventFetched)

	manifest, err := c.extract(ctx, span, staged, target.Path)
	if err != nil {
		c.discardStaged(ctx, target.Path)
		return nil, err
	}

	dist, err := c.persist(ctx, span, domain.NewDistribution(target.Path, target.Source, target.Author, manifest))
	if err != nil {
		// A concurrent import of the same path owns the file now.
		if !errors.Is(err, domain.ErrDuplicatePath) {
			c.discardStaged(ctx, target.Path)
		}
		return nil, err
	}

	if err := c.store.AddStagedArchive(ctx, target.Path); err != nil {
		log.ErrorErr(log.CatRepo, "archive store write failed after metadata commit", err, "op", opID, "path", target.Path)
		return nil, &domain.StoreError{Op: "import", Path: target.Path, Err: err}
	}
	if err := c.commit(ctx, span, fmt.Sprintf("import %s from %s", describe(dist), dist.Source)); err != nil {
		return nil, err
	}

	log.Info(log.CatRepo, "distribution imported", "op", opID, "path", dist.Path, "source", dist.Source, "packages", len(dist.Packages))
	c.publish(pubsub.ImportedEvent, dist)
	return dist, nil
}

// Remove deletes the distribution at distPath: metadata first, then the
// archive. Returns the removed, detached record.
func (c *Coordinator) Remove(ctx context.Context, distPath string) (_ *domain.Distribution, err error) {
	opID := c.newID()
	ctx, span := tracing.StartOperation(ctx, c.tracer, tracing.SpanRemove, opID,
		attribute.String(tracing.AttrPath, distPath))
	defer func() { tracing.EndOperation(span, err, errorType(err)) }()

	dist, err := c.metadata.FindDistributionByPath(ctx, distPath)
	if err != nil {
		return nil, err
	}

	if err := c.metadata.DeleteDistribution(ctx, dist); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, &domain.MetadataError{Op: "delete", Path: distPath, Err: err}
	}
	span.AddEvent(tracing.EventMetadataDeleted)

	if err := c.store.RemoveArchive(ctx, distPath); err != nil {
		log.ErrorErr(log.CatRepo, "archive removal failed after metadata delete", err, "op", opID, "path", distPath)
		return nil, &domain.StoreError{Op: "remove", Path: distPath, Err: err}
	}
	if err := c.commit(ctx, span, "remove "+describe(dist)); err != nil {
		return nil, err
	}

	log.Info(log.CatRepo, "distribution removed", "op", opID, "path", distPath)
	c.publish(pubsub.RemovedEvent, dist)
	return dist, nil
}

// Locate asks the remote locator for criteria and returns its answer
// unchanged. A nil location with a nil error means no mirror has it.
func (c *Coordinator) Locate(ctx context.Context, criteria domain.Criteria) (_ *domain.Location, err error) {
	ctx, span := tracing.StartOperation(ctx, c.tracer, tracing.SpanLocate, c.newID(),
		attribute.String(tracing.AttrPackage, criteria.Name))
	defer func() { tracing.EndOperation(span, err, errorType(err)) }()

	return c.locator.Locate(ctx, criteria)
}

// Verify compares the two backends without changing either.
func (c *Coordinator) Verify(ctx context.Context) (_ *domain.VerifyReport, err error) {
	ctx, span := tracing.StartOperation(ctx, c.tracer, tracing.SpanVerify, c.newID())
	defer func() { tracing.EndOperation(span, err, errorType(err)) }()

	dists, err := c.metadata.ListDistributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing distributions: %w", err)
	}
	archives, err := c.store.ListArchives(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}

	stored := make(map[string]bool, len(archives))
	for _, a := range archives {
		stored[a] = true
	}

	report := &domain.VerifyReport{}
	known := make(map[string]bool, len(dists))
	for _, d := range dists {
		known[d.Path] = true
		if !stored[d.Path] {
			report.Missing = append(report.Missing, d.Path)
			continue
		}
		if d.Digest == "" {
			continue
		}
		sum, err := c.store.Digest(d.Path)
		if err != nil || sum != d.Digest {
			report.Corrupt = append(report.Corrupt, d.Path)
		}
	}
	for _, a := range archives {
		if !known[a] {
			report.Orphaned = append(report.Orphaned, a)
		}
	}
	sort.Strings(report.Missing)
	sort.Strings(report.Orphaned)
	sort.Strings(report.Corrupt)

	if !report.OK() {
		log.Warn(log.CatRepo, "repository inconsistent",
			"missing", len(report.Missing), "orphaned", len(report.Orphaned), "corrupt", len(report.Corrupt))
	}
	return report, nil
}

// List returns every distribution, ordered by path.
func (c *Coordinator) List(ctx context.Context) ([]*domain.Distribution, error) {
	return c.metadata.ListDistributions(ctx)
}

// Tag labels the current store state. It returns the tagged commit, or ""
// when the store keeps no history.
func (c *Coordinator) Tag(ctx context.Context, name string) (string, error) {
	commit, err := c.store.Tag(ctx, name)
	if err != nil {
		return "", &domain.StoreError{Op: "tag", Path: name, Err: err}
	}
	return commit, nil
}

func checkReadable(archivePath string) error {
	f, err := os.Open(archivePath) //nolint:gosec // G304: archive supplied by the operator
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrArchiveUnavailable, archivePath, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrArchiveUnavailable, archivePath, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", domain.ErrArchiveUnavailable, archivePath)
	}
	return nil
}

// ensurePathFree fails with DuplicatePathError if distPath is taken.
func (c *Coordinator) ensurePathFree(ctx context.Context, distPath string) error {
	existing, err := c.metadata.FindDistributionByPath(ctx, distPath)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("looking up %s: %w", distPath, err)
	case existing != nil:
		return &domain.DuplicatePathError{Path: distPath}
	}
	return nil
}

func (c *Coordinator) extract(ctx context.Context, span trace.Span, archivePath, distPath string) (*domain.Manifest, error) {
	manifest, err := c.extractor.Extract(ctx, archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: extracting %s: %w", domain.ErrArchiveUnavailable, distPath, err)
	}
	if manifest == nil {
		manifest = &domain.Manifest{}
	}
	span.AddEvent(tracing.EventExtracted, trace.WithAttributes(attribute.Int(tracing.AttrPackages, len(manifest.Packages))))

	if len(manifest.Packages) == 0 {
		log.Warn(log.CatRepo, "archive provides no packages", "op", tracing.OperationIDFromContext(ctx), "path", distPath)
		span.AddEvent(tracing.EventNoPackages)
	}
	return manifest, nil
}

// checkOwnership rejects manifests that claim a LOCAL package currently
// owned by a different author.
func (c *Coordinator) checkOwnership(ctx context.Context, author string, manifest *domain.Manifest) error {
	for _, spec := range manifest.Packages {
		records, err := c.metadata.FindPackages(ctx, domain.PackageFilter{
			Name:   spec.Name,
			Source: domain.SourceLocal,
			Limit:  1,
		})
		if err != nil {
			return fmt.Errorf("looking up package %s: %w", spec.Name, err)
		}
		if len(records) == 0 {
			continue
		}
		if owner := records[0].Distribution.Author; owner != author {
			return &domain.OwnershipConflictError{Package: spec.Name, Owner: owner, Author: author}
		}
	}
	return nil
}

func (c *Coordinator) persist(ctx context.Context, span trace.Span, dist *domain.Distribution) (*domain.Distribution, error) {
	created, err := c.metadata.CreateDistributionWithPackages(ctx, dist)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePath) {
			return nil, err
		}
		return nil, &domain.MetadataError{Op: "create", Path: dist.Path, Err: err}
	}
	span.AddEvent(tracing.EventMetadataWritten)
	return created, nil
}

func (c *Coordinator) commit(ctx context.Context, span trace.Span, message string) error {
	if err := c.store.Commit(ctx, message); err != nil {
		return &domain.StoreError{Op: "commit", Path: message, Err: err}
	}
	span.AddEvent(tracing.EventStoreWritten)
	return nil
}

// discardStaged drops a fetched archive that never made it into metadata.
func (c *Coordinator) discardStaged(ctx context.Context, distPath string) {
	if err := c.store.RemoveArchive(ctx, distPath); err != nil {
		log.Warn(log.CatRepo, "failed to discard staged archive", "path", distPath, "error", err)
	}
}

func (c *Coordinator) publish(eventType pubsub.EventType, dist *domain.Distribution) {
	if c.publisher != nil {
		c.publisher.Publish(eventType, dist)
	}
}

// describe renders a distribution for commit messages.
func describe(d *domain.Distribution) string {
	if len(d.Packages) == 0 {
		return d.Path
	}
	names := make([]string, 0, len(d.Packages))
	for _, p := range d.Packages {
		names = append(names, p.String())
	}
	return d.Path + " (" + strings.Join(names, ", ") + ")"
}

// errorType classifies err for span attributes.
func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrArchiveUnavailable):
		return "archive_unavailable"
	case errors.Is(err, domain.ErrDuplicatePath):
		return "duplicate_path"
	case errors.Is(err, domain.ErrOwnershipConflict):
		return "ownership_conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrFetchFailed):
		return "fetch_failed"
	case errors.Is(err, domain.ErrStoreWriteFailed):
		return "store_write_failed"
	case errors.Is(err, domain.ErrMetadataWriteFailed):
		return "metadata_write_failed"
	case errors.Is(err, domain.ErrInvalidAuthor):
		return "invalid_author"
	case errors.Is(err, domain.ErrInvalidURL):
		return "invalid_url"
	default:
		return "internal"
	}
}
