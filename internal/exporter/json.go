package exporter

import (
	"context"
	"encoding/json"

	"github.com/artpar/liftoff/internal/core"
)

// JSONExporter writes launches as an indented JSON array, the same
// shape the favorites are stored in.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

func (e *JSONExporter) Name() string          { return "JSON" }
func (e *JSONExporter) Format() Format        { return FormatJSON }
func (e *JSONExporter) FileExtension() string { return ".json" }

// Export implements Exporter.
func (e *JSONExporter) Export(ctx context.Context, launches []core.Launch) ([]byte, error) {
	if launches == nil {
		launches = []core.Launch{}
	}
	data, err := json.MarshalIndent(launches, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
