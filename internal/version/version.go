// Package version parses and orders Perl module versions.
//
// Two notations exist. Decimal versions ("1.002003") are split into groups
// of three fractional digits, so 1.002003 is the same as v1.2.3. Dotted
// versions ("v1.2.3" or "1.2.3" with at least two dots) are taken as-is.
// Underscores mark developer releases and are ignored for ordering.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed version as a sequence of integer components.
type Version struct {
	raw   string
	parts []int
}

// Zero is the version of a package that declares none ("undef").
var Zero = Version{raw: "undef", parts: []int{0}}

// Parse parses a Perl version string. Empty strings and "undef" parse to Zero.
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	if raw == "" || raw == "undef" {
		return Zero, nil
	}

	clean := strings.ReplaceAll(raw, "_", "")
	dotted := strings.HasPrefix(clean, "v") || strings.Count(clean, ".") >= 2
	clean = strings.TrimPrefix(clean, "v")
	if clean == "" {
		return Version{}, fmt.Errorf("invalid version %q", raw)
	}

	if dotted {
		parts, err := parseDotted(clean)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", raw, err)
		}
		return Version{raw: raw, parts: parts}, nil
	}

	parts, err := parseDecimal(clean)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	return Version{raw: raw, parts: parts}, nil
}

// MustParse is Parse that panics on error. Intended for constants in tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseDotted(s string) ([]int, error) {
	fields := strings.Split(s, ".")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := atoi(f)
		if err != nil {
			return nil, err
		}
		parts = append(parts, n)
	}
	return parts, nil
}

func parseDecimal(s string) ([]int, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	n, err := atoi(whole)
	if err != nil {
		return nil, err
	}
	parts := []int{n}

	for len(frac)%3 != 0 {
		frac += "0"
	}
	for i := 0; i < len(frac); i += 3 {
		g, err := atoi(frac[i : i+3])
		if err != nil {
			return nil, err
		}
		parts = append(parts, g)
	}
	return parts, nil
}

func atoi(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty component")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric component %q", s)
		}
	}
	return strconv.Atoi(s)
}

// String returns the version as originally written.
func (v Version) String() string {
	if v.raw == "" {
		return Zero.raw
	}
	return v.raw
}

// Normal returns the dotted-decimal form, e.g. "v1.2.3".
func (v Version) Normal() string {
	parts := v.parts
	if len(parts) == 0 {
		parts = Zero.parts
	}
	strs := make([]string, 0, max(len(parts), 3))
	for _, p := range parts {
		strs = append(strs, strconv.Itoa(p))
	}
	for len(strs) < 3 {
		strs = append(strs, "0")
	}
	return "v" + strings.Join(strs, ".")
}

// Compare returns -1, 0 or 1. Missing trailing components count as zero.
func (v Version) Compare(o Version) int {
	n := max(len(v.parts), len(o.parts))
	for i := 0; i < n; i++ {
		a, b := component(v.parts, i), component(o.parts, i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

func component(parts []int, i int) int {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

// Compare parses and compares two version strings. Unparseable versions
// sort below every parseable one.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return va.Compare(vb)
}

// AtLeast reports whether have >= want. An empty want is always satisfied.
func AtLeast(have, want string) bool {
	if strings.TrimSpace(want) == "" {
		return true
	}
	return Compare(have, want) >= 0
}
