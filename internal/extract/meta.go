package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/darkpan/internal/repository/domain"
)

// undefVersion is recorded for packages that declare no version.
const undefVersion = "undef"

type metaJSON struct {
	Provides map[string]struct {
		File    string          `json:"file"`
		Version json.RawMessage `json:"version"`
	} `json:"provides"`
}

type metaYAML struct {
	Provides map[string]struct {
		File    string `yaml:"file"`
		Version string `yaml:"version"`
	} `yaml:"provides"`
}

func parseMetaJSON(data []byte) ([]domain.PackageSpec, error) {
	var meta metaJSON
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing META.json: %w", err)
	}
	versions := make(map[string]string, len(meta.Provides))
	for name, p := range meta.Provides {
		versions[name] = jsonVersion(p.Version)
	}
	return sortedSpecs(versions), nil
}

// jsonVersion accepts both "1.00" and 1.00; numbers keep their literal text.
func jsonVersion(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return undefVersion
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return normalizeVersion(s)
	}
	return normalizeVersion(string(raw))
}

func parseMetaYAML(data []byte) ([]domain.PackageSpec, error) {
	var meta metaYAML
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing META.yml: %w", err)
	}
	versions := make(map[string]string, len(meta.Provides))
	for name, p := range meta.Provides {
		versions[name] = normalizeVersion(p.Version)
	}
	return sortedSpecs(versions), nil
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == "~" || v == "null" {
		return undefVersion
	}
	return v
}

func sortedSpecs(versions map[string]string) []domain.PackageSpec {
	names := make([]string, 0, len(versions))
	for name := range versions {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	specs := make([]domain.PackageSpec, 0, len(names))
	for _, name := range names {
		specs = append(specs, domain.PackageSpec{Name: name, Version: versions[name]})
	}
	return specs
}
