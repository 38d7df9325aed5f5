package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrNotGitRepo indicates the directory is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrNothingToCommit indicates the index has no staged changes.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrTagExists indicates the tag name is already used.
	ErrTagExists = errors.New("tag already exists")

	// ErrGitNotInstalled indicates the git binary could not be found.
	ErrGitNotInstalled = errors.New("git executable not found")
)

// Compile-time check that RealExecutor implements GitExecutor.
var _ GitExecutor = (*RealExecutor)(nil)

// RealExecutor implements GitExecutor by executing actual git commands.
type RealExecutor struct {
	workDir  string
	identity Identity
}

// NewRealExecutor creates a new RealExecutor. A zero identity leaves the
// user's git configuration in charge of authorship.
func NewRealExecutor(workDir string, identity Identity) *RealExecutor {
	return &RealExecutor{workDir: workDir, identity: identity}
}

// runGit executes a git command and returns an error if it fails.
func (e *RealExecutor) runGit(ctx context.Context, args ...string) error {
	_, err := e.runGitOutput(ctx, args...)
	return err
}

// runGitOutput executes a git command and returns stdout and any error.
func (e *RealExecutor) runGitOutput(ctx context.Context, args ...string) (string, error) {
	full := make([]string, 0, len(args)+4)
	if e.identity.Name != "" {
		full = append(full, "-c", "user.name="+e.identity.Name)
	}
	if e.identity.Email != "" {
		full = append(full, "-c", "user.email="+e.identity.Email)
	}
	full = append(full, args...)

	//nolint:gosec // G204: args come from controlled sources
	cmd := exec.CommandContext(ctx, "git", full...)
	if e.workDir != "" {
		cmd.Dir = e.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", ErrGitNotInstalled
		}
		// git commit reports a clean index on stdout
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr == "" {
			stderrStr = strings.TrimSpace(stdout.String())
		}
		if stderrStr != "" {
			return "", parseGitError(stderrStr, err)
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// parseGitError converts git output to specific error types.
func parseGitError(stderr string, originalErr error) error {
	stderrLower := strings.ToLower(stderr)

	// fatal: tag 'v1' already exists
	if strings.Contains(stderrLower, "tag") && strings.Contains(stderrLower, "already exists") {
		return fmt.Errorf("%w: %s", ErrTagExists, stderr)
	}

	if strings.Contains(stderrLower, "nothing to commit") ||
		strings.Contains(stderrLower, "no changes added to commit") {
		return fmt.Errorf("%w: %s", ErrNothingToCommit, stderr)
	}

	if strings.Contains(stderrLower, "not a git repository") {
		return fmt.Errorf("%w: %s", ErrNotGitRepo, stderr)
	}

	return fmt.Errorf("git error: %s: %w", stderr, originalErr)
}

// IsGitRepo checks if the working directory is a git repository.
func (e *RealExecutor) IsGitRepo() bool {
	err := e.runGit(context.Background(), "rev-parse", "--git-dir")
	return err == nil
}

// Init creates a repository in the working directory.
func (e *RealExecutor) Init(ctx context.Context) error {
	return e.runGit(ctx, "init", "--quiet")
}

// Add stages paths. Paths are passed after "--" so names beginning with a
// dash are not read as options.
func (e *RealExecutor) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	return e.runGit(ctx, append([]string{"add", "--"}, paths...)...)
}

// Remove stages the deletion of paths whether or not they remain on disk.
func (e *RealExecutor) Remove(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"rm", "--cached", "--quiet", "--ignore-unmatch", "--"}, paths...)
	return e.runGit(ctx, args...)
}

// HasStagedChanges reports whether the index differs from HEAD.
func (e *RealExecutor) HasStagedChanges(ctx context.Context) (bool, error) {
	output, err := e.runGitOutput(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(output, "\n") {
		// First column is the index status; space means unstaged only.
		if len(line) > 0 && line[0] != ' ' && line[0] != '?' {
			return true, nil
		}
	}
	return false, nil
}

// Commit records the index with message.
func (e *RealExecutor) Commit(ctx context.Context, message string) error {
	staged, err := e.HasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if !staged {
		return ErrNothingToCommit
	}
	return e.runGit(ctx, "commit", "--quiet", "--no-verify", "-m", message)
}

// Tag creates an annotated tag at HEAD.
func (e *RealExecutor) Tag(ctx context.Context, name, message string) error {
	if message == "" {
		message = name
	}
	return e.runGit(ctx, "tag", "-a", name, "-m", message)
}

// HeadCommit returns the full hash of HEAD.
func (e *RealExecutor) HeadCommit(ctx context.Context) (string, error) {
	return e.runGitOutput(ctx, "rev-parse", "HEAD")
}
