package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles groups the lipgloss styles used by the renderer. When color is
// disabled every style degrades to a passthrough.
type styles struct {
	enabled bool
	err     lipgloss.Style
	pos     lipgloss.Style
	gutter  lipgloss.Style
	label   lipgloss.Style
	help    lipgloss.Style
}

func newStyles(color bool) styles {
	return styles{
		enabled: color,
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		pos:     lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		gutter:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		help:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

func (s styles) render(st lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return st.Render(text)
}

// Render writes every diagnostic in the report to w, annotated against the
// report's source. Set color to false for plain output.
func (r *Report) Render(w io.Writer, color bool) {
	st := newStyles(color)
	for i, d := range r.Diagnostics {
		if i > 0 {
			fmt.Fprintln(w)
		}
		r.renderOne(w, st, d)
	}
}

func (r *Report) renderOne(w io.Writer, st styles, d Diagnostic) {
	fmt.Fprintf(w, "%s %s\n", st.render(st.err, "error:"), d.Message)

	for _, label := range d.Labels {
		line, col := r.position(label.Span.Start)
		fmt.Fprintf(w, "  %s %s\n",
			st.render(st.gutter, "-->"),
			st.render(st.pos, fmt.Sprintf("%s:%d:%d", r.Filename, line, col)))

		text, lineStart := r.line(label.Span.Start)
		gutter := fmt.Sprintf("%4d | ", line)
		fmt.Fprintf(w, "%s%s\n", st.render(st.gutter, gutter), text)

		// Caret underline, clamped to the labeled line.
		width := label.Span.End - label.Span.Start
		if avail := len(text) - (label.Span.Start - lineStart); width > avail {
			width = avail
		}
		if width < 1 {
			width = 1
		}
		pad := strings.Repeat(" ", label.Span.Start-lineStart)
		carets := strings.Repeat("^", width)
		fmt.Fprintf(w, "%s%s%s %s\n",
			st.render(st.gutter, strings.Repeat(" ", len(gutter))),
			pad,
			st.render(st.label, carets),
			st.render(st.label, label.Message))
	}

	if d.Help != "" {
		fmt.Fprintf(w, "  %s %s\n", st.render(st.help, "help:"), d.Help)
	}
}

// position resolves a byte offset to a 1-based line and column.
func (r *Report) position(offset int) (line, col int) {
	if offset > len(r.Source) {
		offset = len(r.Source)
	}
	line, col = 1, 1
	for _, b := range []byte(r.Source[:offset]) {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// line returns the full source line containing the byte offset and the
// offset at which that line starts.
func (r *Report) line(offset int) (text string, start int) {
	if offset > len(r.Source) {
		offset = len(r.Source)
	}
	start = strings.LastIndexByte(r.Source[:offset], '\n') + 1
	end := strings.IndexByte(r.Source[offset:], '\n')
	if end < 0 {
		end = len(r.Source)
	} else {
		end += offset
	}
	return r.Source[start:end], start
}
