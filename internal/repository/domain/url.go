package domain

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// authorsMarker separates the mirror base from the repository path in an
// upstream archive URL.
const authorsMarker = "/authors/id/"

// ImportTarget is what an upstream archive URL decomposes into.
type ImportTarget struct {
	URL    string
	Source Source
	Path   string
	Author string
}

// ParseImportURL splits an upstream URL such as
// https://cpan.example.org/authors/id/A/AL/ALICE/Foo-1.00.tar.gz into its
// source (https://cpan.example.org), repository path
// (A/AL/ALICE/Foo-1.00.tar.gz) and author (ALICE).
func ParseImportURL(raw string) (*ImportTarget, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: %q has no scheme", ErrInvalidURL, raw)
	}

	idx := strings.LastIndex(u.Path, authorsMarker)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q has no %s segment", ErrInvalidURL, raw, authorsMarker)
	}
	distPath := path.Clean(u.Path[idx+len(authorsMarker):])

	segments := strings.Split(distPath, "/")
	if len(segments) != 4 || strings.HasPrefix(distPath, "..") {
		return nil, fmt.Errorf("%w: %q is not an author/archive path", ErrInvalidURL, distPath)
	}
	author, err := NormalizeAuthor(segments[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if canonical := DistributionPath(author, segments[3]); canonical != distPath {
		return nil, fmt.Errorf("%w: %q does not match author directory %q", ErrInvalidURL, distPath, AuthorDir(author))
	}

	base := *u
	base.User = nil
	base.Path = u.Path[:idx]
	base.RawPath = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &ImportTarget{
		URL:    u.String(),
		Source: Source(strings.TrimRight(base.String(), "/")),
		Path:   distPath,
		Author: author,
	}, nil
}

// RedactURL hides the password of a URL carrying credentials so it can be
// logged or recorded. Unparseable input is returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
