package extract

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/zjrosen/darkpan/internal/repository/domain"
)

var (
	packagePattern = regexp.MustCompile(`^\s*package\s+([A-Za-z_][\w]*(?:::\w+)*)(?:\s+(v?[\d][\d._]*))?\s*[;{]`)
	versionPattern = regexp.MustCompile(`\$(?:[\w:]*::)?VERSION\s*=\s*(?:version->declare\(\s*|qv\(\s*)?['"]?(v?[\d][\d._]*)['"]?`)
	podStart       = regexp.MustCompile(`^=[a-zA-Z]`)
)

// scanModule reports the packages declared in Perl source, in order. A
// $VERSION assignment applies to the package most recently declared.
func scanModule(src []byte) []domain.PackageSpec {
	var specs []domain.PackageSpec
	index := make(map[string]int)
	current := -1
	inPod := false

	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), maxModuleBytes)
	for sc.Scan() {
		line := sc.Text()

		if inPod {
			if strings.HasPrefix(line, "=cut") {
				inPod = false
			}
			continue
		}
		if podStart.MatchString(line) {
			inPod = true
			continue
		}
		if line == "__END__" || line == "__DATA__" {
			break
		}

		if m := packagePattern.FindStringSubmatch(line); m != nil {
			name := m[1]
			if name == "main" || name == "DB" {
				current = -1
				continue
			}
			i, ok := index[name]
			if !ok {
				i = len(specs)
				index[name] = i
				specs = append(specs, domain.PackageSpec{Name: name, Version: undefVersion})
			}
			current = i
			if m[2] != "" {
				specs[i].Version = m[2]
			}
			continue
		}

		if current >= 0 && specs[current].Version == undefVersion {
			if m := versionPattern.FindStringSubmatch(line); m != nil {
				specs[current].Version = m[1]
			}
		}
	}
	return specs
}
