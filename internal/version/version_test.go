package version

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse_Decimal(t *testing.T) {
	v, err := Parse("1.002003")
	require.NoError(t, err)
	require.Equal(t, "v1.2.3", v.Normal())
	require.Equal(t, "1.002003", v.String())

	v, err = Parse("1.00")
	require.NoError(t, err)
	require.Equal(t, "v1.0.0", v.Normal())
}

func TestParse_Dotted(t *testing.T) {
	for _, s := range []string{"v1.2.3", "1.2.3"} {
		v, err := Parse(s)
		require.NoError(t, err, s)
		require.Equal(t, "v1.2.3", v.Normal(), s)
	}
}

func TestParse_UndefAndEmpty(t *testing.T) {
	for _, s := range []string{"", "undef", "  "} {
		v, err := Parse(s)
		require.NoError(t, err)
		require.Equal(t, 0, v.Compare(Zero))
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"abc", "1.x", "v", "1..2"} {
		_, err := Parse(s)
		require.Error(t, err, s)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.10", "1.9", -1},
		{"1.002003", "v1.2.3", 0},
		{"2.0", "1.99", 1},
		{"1.00_01", "1.0001", 0},
		{"undef", "0.01", -1},
		{"v1.2", "v1.2.0", 0},
		{"junk", "0.01", -1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_vs_%s", tt.a, tt.b), func(t *testing.T) {
			require.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

func TestAtLeast(t *testing.T) {
	require.True(t, AtLeast("1.00", ""))
	require.True(t, AtLeast("1.02", "1.01"))
	require.False(t, AtLeast("1.00", "1.01"))
}

func genDotted() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		n := rapid.IntRange(1, 4).Draw(t, "n")
		s := "v"
		for i := 0; i < n; i++ {
			if i > 0 {
				s += "."
			}
			s += fmt.Sprint(rapid.IntRange(0, 999).Draw(t, fmt.Sprintf("c%d", i)))
		}
		return s
	})
}

func TestCompare_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := MustParse(genDotted().Draw(t, "a"))
		b := MustParse(genDotted().Draw(t, "b"))
		c := MustParse(genDotted().Draw(t, "c"))

		if a.Compare(a) != 0 {
			t.Fatalf("%s not equal to itself", a)
		}
		if a.Compare(b) != -b.Compare(a) {
			t.Fatalf("compare not antisymmetric for %s, %s", a, b)
		}
		if a.Compare(b) <= 0 && b.Compare(c) <= 0 && a.Compare(c) > 0 {
			t.Fatalf("compare not transitive for %s, %s, %s", a, b, c)
		}
	})
}

func TestDecimalMatchesDotted_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		major := rapid.IntRange(0, 99).Draw(t, "major")
		minor := rapid.IntRange(0, 999).Draw(t, "minor")
		patch := rapid.IntRange(0, 999).Draw(t, "patch")

		decimal := fmt.Sprintf("%d.%03d%03d", major, minor, patch)
		dotted := fmt.Sprintf("v%d.%d.%d", major, minor, patch)
		if Compare(decimal, dotted) != 0 {
			t.Fatalf("%s and %s should be equal", decimal, dotted)
		}
	})
}
