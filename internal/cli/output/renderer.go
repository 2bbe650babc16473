// Package output renders command results as text, markdown, JSON or YAML.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/careweather/oneil/internal/diag"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// Mode selects how results are rendered.
type Mode string

// Output modes.
const (
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
	ModeYAML     Mode = "yaml"
)

// Renderer writes results to out and diagnostics to errOut.
type Renderer struct {
	out     io.Writer
	errOut  io.Writer
	mode    Mode
	sigfigs int
}

// NewRenderer creates a renderer. Unknown modes render as text.
func NewRenderer(out, errOut io.Writer, mode Mode, sigfigs int) *Renderer {
	switch mode {
	case ModeText, ModeMarkdown, ModeJSON, ModeYAML:
	default:
		mode = ModeText
	}
	return &Renderer{out: out, errOut: errOut, mode: mode, sigfigs: sigfigs}
}

// Mode returns the output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Sigfigs returns the significant figures values are shown with.
func (r *Renderer) Sigfigs() int { return r.sigfigs }

// Structured reports whether results are encoded as JSON or YAML.
func (r *Renderer) Structured() bool {
	return r.mode == ModeJSON || r.mode == ModeYAML
}

// Writer returns the result writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Println writes a line to the result writer.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the result writer.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section header.
func (r *Renderer) Header(level int, text string) {
	if r.mode == ModeMarkdown {
		r.Println(FormatHeader(level, text))
		r.Println()
		return
	}
	r.Println(text)
	if level <= 1 {
		r.Println(strings.Repeat("─", len([]rune(text))))
	}
}

// KeyValue writes a labelled value.
func (r *Renderer) KeyValue(key, value string) {
	if r.mode == ModeMarkdown {
		r.Println(FormatKeyValue(key, value))
		return
	}
	r.Printf("  %-12s %s\n", key+":", value)
}

// Table writes rows under a header; a light box table in text mode and a
// pipe table in markdown mode.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	hdr := make(table.Row, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	t.AppendHeader(hdr)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}

	if r.mode == ModeMarkdown {
		r.Println(t.RenderMarkdown())
	} else {
		r.Println(t.Render())
	}
}

// Tree writes nested items as a connected tree in text mode and a nested
// bullet list in markdown mode.
func (r *Renderer) Tree(items []TreeItem) {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedLight)
	var add func(item TreeItem)
	add = func(item TreeItem) {
		l.AppendItem(item.Text)
		if len(item.Children) == 0 {
			return
		}
		l.Indent()
		for _, child := range item.Children {
			add(child)
		}
		l.UnIndent()
	}
	for _, item := range items {
		add(item)
	}

	if r.mode == ModeMarkdown {
		r.Println(l.RenderMarkdown())
	} else {
		r.Println(l.Render())
	}
}

// TreeItem is a line of a rendered tree.
type TreeItem struct {
	Text     string
	Children []TreeItem
}

// Encode writes v as indented JSON in JSON mode and as YAML otherwise.
func (r *Renderer) Encode(v any) error {
	if r.mode == ModeJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Diagnostics writes err to the diagnostic writer, one block per diagnostic
// with its source line and notes.
func (r *Renderer) Diagnostics(err error) {
	if err == nil {
		return
	}
	for _, d := range Flatten(err) {
		_, _ = fmt.Fprintln(r.errOut, FormatDiagnostic(d))
	}
}

// Errorf writes a plain message to the diagnostic writer.
func (r *Renderer) Errorf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.errOut, format+"\n", a...)
}

// Flatten returns the diagnostics carried by err. An error that is not a
// diagnostic is returned as a diagnostic without kind information.
func Flatten(err error) []*diag.Error {
	var list diag.List
	if errors.As(err, &list) {
		return list
	}
	var d *diag.Error
	if errors.As(err, &d) {
		return []*diag.Error{d}
	}
	return []*diag.Error{{Kind: -1, Message: err.Error()}}
}

// FormatDiagnostic renders a diagnostic as its headline, the offending
// source line and its notes, outermost note last.
func FormatDiagnostic(d *diag.Error) string {
	var b strings.Builder
	b.WriteString(d.Error())
	if d.Source != "" {
		b.WriteString("\n    | ")
		b.WriteString(strings.TrimRight(d.Source, "\n"))
	}
	for _, note := range d.Notes {
		b.WriteString("\n    = note: ")
		b.WriteString(note)
	}
	return b.String()
}

// FormatHeader formats a markdown header.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue formats a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}
