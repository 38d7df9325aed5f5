// Package presentation renders repository data for the command line.
package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/zjrosen/darkpan/internal/repository/domain"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatDistributions formats a list of distributions as JSON
func (f *Formatter) FormatDistributions(dists []DistributionDTO) error {
	return f.encode(dists)
}

// FormatLocation formats a located package as JSON
func (f *Formatter) FormatLocation(loc LocationDTO) error {
	return f.encode(loc)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Change writes a one-line summary: "verb path (Pkg@Ver, ...) [from source]".
func (f *Formatter) Change(verb string, d *domain.Distribution) {
	_, _ = fmt.Fprintf(f.writer, "%s %s", verb, d.Path)
	if len(d.Packages) > 0 {
		_, _ = fmt.Fprintf(f.writer, " (%s)", strings.Join(packageStrings(d), ", "))
	}
	if !d.Source.IsLocal() {
		_, _ = fmt.Fprintf(f.writer, " from %s", d.Source)
	}
	_, _ = fmt.Fprintln(f.writer)
}

// Table writes distributions as aligned columns.
func (f *Formatter) Table(dists []*domain.Distribution) error {
	tw := tabwriter.NewWriter(f.writer, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PATH\tSOURCE\tPACKAGES")
	for _, d := range dists {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Path, d.Source, strings.Join(packageStrings(d), " "))
	}
	return tw.Flush()
}

// Location writes "Package Version URL".
func (f *Formatter) Location(loc *domain.Location) {
	_, _ = fmt.Fprintf(f.writer, "%s %s %s\n", loc.Package, loc.Version, loc.URL)
}

func packageStrings(d *domain.Distribution) []string {
	names := make([]string, 0, len(d.Packages))
	for _, p := range d.Packages {
		names = append(names, p.String())
	}
	return names
}
