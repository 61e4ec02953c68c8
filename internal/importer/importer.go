// Package importer reads launch lists written by the exporter back in,
// for restoring or merging favorites.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artpar/liftoff/internal/core"
)

// Common errors
var (
	ErrInvalidFormat   = errors.New("invalid format")
	ErrMissingRequired = errors.New("missing required field")
	ErrParseError      = errors.New("parse error")
)

// Format represents a supported import format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Importer parses one input format.
type Importer interface {
	// Format returns the format this importer handles.
	Format() Format

	// FileExtensions returns the file extensions this importer can handle.
	FileExtensions() []string

	// DetectFormat checks if the content matches this importer's format.
	DetectFormat(content []byte) bool

	// Import parses the content into launches.
	Import(ctx context.Context, content []byte) ([]core.Launch, error)
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Launches     []core.Launch
	SourceFormat Format
}

// Registry holds all registered importers. Detection tries them in
// registration order.
type Registry struct {
	importers map[Format]Importer
	order     []Format
}

// NewRegistry creates a new importer registry.
func NewRegistry() *Registry {
	return &Registry{
		importers: make(map[Format]Importer),
	}
}

// DefaultRegistry returns a registry with the JSON and YAML importers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&JSONImporter{})
	r.Register(&YAMLImporter{})
	return r
}

// Register adds an importer to the registry.
func (r *Registry) Register(imp Importer) {
	if _, ok := r.importers[imp.Format()]; !ok {
		r.order = append(r.order, imp.Format())
	}
	r.importers[imp.Format()] = imp
}

// Get returns an importer by format.
func (r *Registry) Get(format Format) (Importer, bool) {
	imp, ok := r.importers[format]
	return imp, ok
}

// FormatForFile picks a format from the file extension, or FormatAuto.
func (r *Registry) FormatForFile(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range r.order {
		for _, e := range r.importers[f].FileExtensions() {
			if e == ext {
				return f
			}
		}
	}
	return FormatAuto
}

// Import imports content using the specified format.
func (r *Registry) Import(ctx context.Context, format Format, content []byte) (*ImportResult, error) {
	if format == FormatAuto {
		return r.DetectAndImport(ctx, content)
	}

	imp, ok := r.importers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
	return run(ctx, imp, content)
}

// DetectAndImport automatically detects the format and imports the content.
func (r *Registry) DetectAndImport(ctx context.Context, content []byte) (*ImportResult, error) {
	for _, f := range r.order {
		imp := r.importers[f]
		if imp.DetectFormat(content) {
			return run(ctx, imp, content)
		}
	}
	return nil, ErrInvalidFormat
}

func run(ctx context.Context, imp Importer, content []byte) (*ImportResult, error) {
	launches, err := imp.Import(ctx, content)
	if err != nil {
		return nil, err
	}
	for i, l := range launches {
		if l.FlightNumber <= 0 {
			return nil, fmt.Errorf("%w: flight_number of entry %d", ErrMissingRequired, i)
		}
	}
	return &ImportResult{Launches: launches, SourceFormat: imp.Format()}, nil
}

// JSONImporter reads a JSON array of launches.
type JSONImporter struct{}

func (i *JSONImporter) Format() Format           { return FormatJSON }
func (i *JSONImporter) FileExtensions() []string { return []string{".json"} }

// DetectFormat implements Importer.
func (i *JSONImporter) DetectFormat(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	return len(trimmed) > 0 && trimmed[0] == '[' && json.Valid(trimmed)
}

// Import implements Importer.
func (i *JSONImporter) Import(ctx context.Context, content []byte) ([]core.Launch, error) {
	var launches []core.Launch
	if err := json.Unmarshal(content, &launches); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	if launches == nil {
		launches = []core.Launch{}
	}
	return launches, nil
}

// YAMLImporter reads a YAML sequence of launches.
type YAMLImporter struct{}

func (i *YAMLImporter) Format() Format           { return FormatYAML }
func (i *YAMLImporter) FileExtensions() []string { return []string{".yaml", ".yml"} }

// DetectFormat implements Importer.
func (i *YAMLImporter) DetectFormat(content []byte) bool {
	var node yaml.Node
	if err := yaml.Unmarshal(content, &node); err != nil || len(node.Content) == 0 {
		return false
	}
	return node.Content[0].Kind == yaml.SequenceNode
}

// Import implements Importer.
func (i *YAMLImporter) Import(ctx context.Context, content []byte) ([]core.Launch, error) {
	var launches []core.Launch
	if err := yaml.Unmarshal(content, &launches); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	if launches == nil {
		launches = []core.Launch{}
	}
	return launches, nil
}
