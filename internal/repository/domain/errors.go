package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the coordinator. Callers match with errors.Is.
var (
	ErrArchiveUnavailable  = errors.New("archive unavailable")
	ErrDuplicatePath       = errors.New("distribution already exists")
	ErrOwnershipConflict   = errors.New("package owned by another author")
	ErrNotFound            = errors.New("distribution not found")
	ErrFetchFailed         = errors.New("fetch failed")
	ErrStoreWriteFailed    = errors.New("archive store write failed")
	ErrMetadataWriteFailed = errors.New("metadata write failed")
	ErrInvalidAuthor       = errors.New("invalid author")
	ErrInvalidURL          = errors.New("invalid import url")
)

// DuplicatePathError reports a distribution already occupying Path.
type DuplicatePathError struct {
	Path string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("distribution %s already exists", e.Path)
}

// Is matches ErrDuplicatePath.
func (e *DuplicatePathError) Is(target error) bool {
	return target == ErrDuplicatePath
}

// OwnershipConflictError reports that Author tried to supersede Package,
// which Owner currently controls.
type OwnershipConflictError struct {
	Package string
	Owner   string
	Author  string
}

func (e *OwnershipConflictError) Error() string {
	return fmt.Sprintf("author %s cannot update %s (owned by %s)", e.Author, e.Package, e.Owner)
}

// Is matches ErrOwnershipConflict.
func (e *OwnershipConflictError) Is(target error) bool {
	return target == ErrOwnershipConflict
}

// DistributionNotFoundError reports a missing distribution.
type DistributionNotFoundError struct {
	Path string
}

func (e *DistributionNotFoundError) Error() string {
	return fmt.Sprintf("distribution %s not found", e.Path)
}

// Is matches ErrNotFound.
func (e *DistributionNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FetchError wraps a transport failure for URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", RedactURL(e.URL), e.Err)
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches ErrFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// StoreError wraps an archive store failure during Op.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying store error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches ErrStoreWriteFailed.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreWriteFailed
}

// MetadataError wraps a metadata backend failure during Op.
type MetadataError struct {
	Op   string
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying backend error.
func (e *MetadataError) Unwrap() error {
	return e.Err
}

// Is matches ErrMetadataWriteFailed.
func (e *MetadataError) Is(target error) bool {
	return target == ErrMetadataWriteFailed
}

// VerifyReport lists inconsistencies between the two backends.
type VerifyReport struct {
	Missing  []string // metadata without an archive
	Orphaned []string // archives without metadata
	Corrupt  []string // archive digest differs from metadata
}

// OK reports whether no inconsistency was found.
func (r *VerifyReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Orphaned) == 0 && len(r.Corrupt) == 0
}

// String summarizes the report one problem per line.
func (r *VerifyReport) String() string {
	var b strings.Builder
	for _, p := range r.Missing {
		fmt.Fprintf(&b, "missing archive: %s\n", p)
	}
	for _, p := range r.Orphaned {
		fmt.Fprintf(&b, "orphaned archive: %s\n", p)
	}
	for _, p := range r.Corrupt {
		fmt.Fprintf(&b, "corrupt archive: %s\n", p)
	}
	return b.String()
}
