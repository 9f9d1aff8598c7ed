package render

import (
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
)

// Format is an output format for a forest.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON, FormatYAML:
		return Format(s), nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
}

// Forest writes the forest in the given format.
func Forest(w io.Writer, forest []*codebase.Node, format Format, opts TextOptions) error {
	switch format {
	case FormatJSON:
		return JSON(w, forest, true)
	case FormatYAML:
		return YAML(w, forest)
	default:
		return Text(w, forest, opts)
	}
}

// JSON writes v as JSON followed by a newline.
func JSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// YAML writes v as a YAML document.
func YAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// Summary writes a one-line, locale-formatted summary of the forest stats.
func Summary(w io.Writer, s codebase.Summary) error {
	p := message.NewPrinter(language.English)
	_, err := p.Fprintf(w, "%d %s, %d %s, %d %s (max depth %d)\n",
		s.Directories, plural(int64(s.Directories), "directory", "directories"),
		s.Files, plural(int64(s.Files), "file", "files"),
		s.TotalBytes, plural(s.TotalBytes, "byte", "bytes"),
		s.MaxDepth)
	return err
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
