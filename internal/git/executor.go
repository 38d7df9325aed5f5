// Package git drives the git command line for repositories whose archive
// tree is kept under version control.
package git

import "context"

// Identity is the author recorded on commits and annotated tags.
type Identity struct {
	Name  string
	Email string
}

// GitExecutor runs git operations inside one working tree.
type GitExecutor interface {
	// IsGitRepo reports whether the working directory is inside a repository.
	IsGitRepo() bool

	// Init creates a repository in the working directory.
	Init(ctx context.Context) error

	// Add stages the given paths, relative to the working directory.
	Add(ctx context.Context, paths ...string) error

	// Remove stages the deletion of the given paths. Missing paths are ignored.
	Remove(ctx context.Context, paths ...string) error

	// HasStagedChanges reports whether the index differs from HEAD.
	HasStagedChanges(ctx context.Context) (bool, error)

	// Commit records the index with message. Returns ErrNothingToCommit
	// when the index is clean.
	Commit(ctx context.Context, message string) error

	// Tag creates an annotated tag at HEAD. Returns ErrTagExists when the
	// name is taken.
	Tag(ctx context.Context, name, message string) error

	// HeadCommit returns the full hash of HEAD.
	HeadCommit(ctx context.Context) (string, error)
}
