package domain

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var authorPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]*$`)

// NormalizeAuthor upper-cases and validates an author identifier.
func NormalizeAuthor(author string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(author))
	if !authorPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAuthor, author)
	}
	return id, nil
}

// AuthorDir returns the nested directory for an author: the first
// character, the first two characters, then the full identifier
// (ALICE -> A/AL/ALICE). The last segment is the whole id, so distinct
// authors never share a directory.
func AuthorDir(author string) string {
	first := author[:1]
	second := author
	if len(author) > 2 {
		second = author[:2]
	}
	return path.Join(first, second, author)
}

// DistributionPath returns the canonical repository path for an archive
// added by author.
func DistributionPath(author, archive string) string {
	return path.Join(AuthorDir(author), path.Base(archive))
}
