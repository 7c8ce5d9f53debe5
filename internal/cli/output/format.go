// Package output renders command results on stdout and status lines on
// stderr.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format represents the output format type.
type Format string

const (
	// FormatText outputs indented "key: value" blocks.
	FormatText Format = "text"
	// FormatTable outputs data in a formatted table.
	FormatTable Format = "table"
	// FormatJSON outputs data as JSON.
	FormatJSON Format = "json"
	// FormatYAML outputs data as YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat parses a string into a Format, returning an error if invalid.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: text, table, json, yaml)", s)
	}
}

func (f Format) String() string {
	return string(f)
}

// TextRenderer is implemented by results with a plain text form.
type TextRenderer interface {
	RenderText(w io.Writer) error
}

// Printer writes results to out and status messages to status.
type Printer struct {
	out    io.Writer
	status io.Writer
	format Format
	color  bool
}

// NewPrinter creates a new Printer with the given options.
func NewPrinter(out, status io.Writer, format Format, color bool) *Printer {
	return &Printer{
		out:    out,
		status: status,
		format: format,
		color:  color,
	}
}

// DefaultPrinter writes results to stdout and status to stderr, with color
// when stderr is a terminal.
func DefaultPrinter(format Format, noColor bool) *Printer {
	color := !noColor && term.IsTerminal(int(os.Stderr.Fd()))
	return NewPrinter(os.Stdout, os.Stderr, format, color)
}

// Format returns the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}

// Writer returns the result writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Status returns the status writer.
func (p *Printer) Status() io.Writer {
	return p.status
}

// ColorEnabled returns whether color output is enabled.
func (p *Printer) ColorEnabled() bool {
	return p.color
}

// Print outputs data in the configured format. Text falls back to a
// table, and a table to JSON, when data has no such rendering.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatText:
		if renderer, ok := data.(TextRenderer); ok {
			return renderer.RenderText(p.out)
		}
		fallthrough
	case FormatTable:
		if renderer, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, renderer)
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// Println prints a result line.
func (p *Printer) Println(args ...any) {
	_, _ = fmt.Fprintln(p.out, args...)
}

// Success prints a success message on the status writer.
func (p *Printer) Success(msg string) {
	p.statusLine("\033[32m", msg)
}

// Error prints an error message on the status writer.
func (p *Printer) Error(msg string) {
	p.statusLine("\033[31m", msg)
}

// Warning prints a warning message on the status writer.
func (p *Printer) Warning(msg string) {
	p.statusLine("\033[33m", msg)
}

// Info prints an uncolored message on the status writer.
func (p *Printer) Info(msg string) {
	_, _ = fmt.Fprintln(p.status, msg)
}

func (p *Printer) statusLine(color, msg string) {
	if p.color {
		_, _ = fmt.Fprintf(p.status, "%s%s\033[0m\n", color, msg)
	} else {
		_, _ = fmt.Fprintln(p.status, msg)
	}
}

// PrintJSON writes data as formatted JSON to the writer.
func PrintJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// PrintYAML writes data as YAML to the writer.
func PrintYAML(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer func() { _ = encoder.Close() }()
	return encoder.Encode(data)
}
