package exporter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/artpar/liftoff/internal/core"
)

// CurlExporter writes a shell script that refetches every launch from
// the upstream service, one curl command per launch.
type CurlExporter struct {
	BaseURL string
	Pretty  bool // Use line continuations for readability
}

// NewCurlExporter creates a new curl exporter for the upstream at baseURL.
func NewCurlExporter(baseURL string) *CurlExporter {
	return &CurlExporter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Pretty:  true,
	}
}

func (c *CurlExporter) Name() string {
	return "curl command"
}

func (c *CurlExporter) Format() Format {
	return FormatCurl
}

func (c *CurlExporter) FileExtension() string {
	return ".sh"
}

// Export implements Exporter.
func (c *CurlExporter) Export(ctx context.Context, launches []core.Launch) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString("#!/bin/bash\n")
	sb.WriteString(fmt.Sprintf("# Favorite launches: %d\n\n", len(launches)))

	for _, l := range launches {
		sb.WriteString(fmt.Sprintf("# #%d %s\n", l.FlightNumber, l.MissionName))
		sb.WriteString(c.command(l))
		sb.WriteString("\n\n")
	}

	return []byte(sb.String()), nil
}

func (c *CurlExporter) command(l core.Launch) string {
	parts := []string{
		"curl",
		"-H", "Accept: application/json",
		c.BaseURL + "/launches/" + strconv.Itoa(l.FlightNumber),
	}
	if c.Pretty {
		return formatPrettyCurl(parts)
	}
	return formatInlineCurl(parts)
}

func formatInlineCurl(parts []string) string {
	var result strings.Builder
	for i, part := range parts {
		if i > 0 {
			result.WriteString(" ")
		}
		result.WriteString(shellQuote(part))
	}
	return result.String()
}

func formatPrettyCurl(parts []string) string {
	var result strings.Builder
	result.WriteString("curl")

	for i := 1; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "-") && i+1 < len(parts) && !strings.HasPrefix(parts[i+1], "-") {
			result.WriteString(" \\\n  ")
			result.WriteString(shellQuote(part))
			result.WriteString(" ")
			i++
			result.WriteString(shellQuote(parts[i]))
		} else {
			result.WriteString(" \\\n  ")
			result.WriteString(shellQuote(part))
		}
	}

	return result.String()
}

func shellQuote(s string) string {
	if !strings.ContainsAny(s, " \t\n\"'$`\\!*?[]{}()<>|&;") {
		return s
	}
	// Single quotes, with embedded single quotes closed and re-opened
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
