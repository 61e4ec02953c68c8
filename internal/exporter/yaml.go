package exporter

import (
	"bytes"
	"context"

	"gopkg.in/yaml.v3"

	"github.com/artpar/liftoff/internal/core"
)

// YAMLExporter writes launches as a YAML sequence.
type YAMLExporter struct{}

// NewYAMLExporter creates a YAML exporter.
func NewYAMLExporter() *YAMLExporter {
	return &YAMLExporter{}
}

func (e *YAMLExporter) Name() string          { return "YAML" }
func (e *YAMLExporter) Format() Format        { return FormatYAML }
func (e *YAMLExporter) FileExtension() string { return ".yaml" }

// Export implements Exporter.
func (e *YAMLExporter) Export(ctx context.Context, launches []core.Launch) ([]byte, error) {
	if launches == nil {
		launches = []core.Launch{}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(launches); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
