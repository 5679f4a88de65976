package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/amosWeiskopf/companyscope/internal/models"
)

// Supported output formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

// Writer renders a report to its output.
type Writer interface {
	Write(report *models.Report) error
}

// New returns the writer for format.
func New(format string, output io.Writer) (Writer, error) {
	switch format {
	case FormatJSON, "":
		return &JSONWriter{output: output}, nil
	case FormatYAML:
		return &YAMLWriter{output: output}, nil
	case FormatMarkdown:
		return &MarkdownWriter{output: output}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// JSONWriter prints the report indented by four spaces with non-ASCII and
// HTML characters left as they are.
type JSONWriter struct {
	output io.Writer
}

func (w *JSONWriter) Write(report *models.Report) error {
	enc := json.NewEncoder(w.output)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// YAMLWriter prints the report as a YAML document.
type YAMLWriter struct {
	output io.Writer
}

func (w *YAMLWriter) Write(report *models.Report) error {
	enc := yaml.NewEncoder(w.output)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
