// Package exporter turns the favorites list into files.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/artpar/liftoff/internal/core"
)

// Common errors
var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrExportFailed  = errors.New("export failed")
)

// Format represents a supported export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCurl Format = "curl"
)

// Exporter converts launches to one output format.
type Exporter interface {
	// Name returns the name of this exporter.
	Name() string

	// Format returns the format this exporter produces.
	Format() Format

	// FileExtension returns the file extension for exported files.
	FileExtension() string

	// Export converts the launches to the target format.
	Export(ctx context.Context, launches []core.Launch) ([]byte, error)
}

// ExportResult contains the result of an export operation.
type ExportResult struct {
	Content       []byte
	Format        Format
	FileExtension string
	Count         int
}

// Registry holds all registered exporters.
type Registry struct {
	exporters map[Format]Exporter
}

// NewRegistry creates a new exporter registry.
func NewRegistry() *Registry {
	return &Registry{
		exporters: make(map[Format]Exporter),
	}
}

// DefaultRegistry returns a registry with every built-in exporter.
// upstreamURL is used by the curl exporter.
func DefaultRegistry(upstreamURL string) *Registry {
	r := NewRegistry()
	r.Register(NewJSONExporter())
	r.Register(NewYAMLExporter())
	r.Register(NewCurlExporter(upstreamURL))
	return r
}

// Register adds an exporter to the registry.
func (r *Registry) Register(exp Exporter) {
	r.exporters[exp.Format()] = exp
}

// Get returns an exporter by format.
func (r *Registry) Get(format Format) (Exporter, bool) {
	exp, ok := r.exporters[format]
	return exp, ok
}

// Export exports the launches using the specified format.
func (r *Registry) Export(ctx context.Context, format Format, launches []core.Launch) (*ExportResult, error) {
	exp, ok := r.exporters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	content, err := exp.Export(ctx, launches)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	return &ExportResult{
		Content:       content,
		Format:        format,
		FileExtension: exp.FileExtension(),
		Count:         len(launches),
	}, nil
}

// ListFormats returns all registered formats, sorted.
func (r *Registry) ListFormats() []Format {
	formats := make([]Format, 0, len(r.exporters))
	for f := range r.exporters {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
