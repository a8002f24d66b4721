// Package diag holds labeled source diagnostics and their terminal
// renderer. A diagnostic points at one or more byte spans in the checked
// file; the renderer resolves spans to lines and draws caret underlines
// with the label text next to them.
package diag

// Span is a half-open byte range [Start, End) in the source.
type Span struct {
	Start int
	End   int
}

// Label attaches a message to a span of the source.
type Label struct {
	Span    Span
	Message string
}

// Diagnostic is a single finding against the source.
type Diagnostic struct {
	Message string
	Labels  []Label
	Help    string
}

// Report binds a set of diagnostics to the named source they were found in.
type Report struct {
	Filename    string
	Source      string
	Diagnostics []Diagnostic
}

// NewReport returns a Report for the given file.
func NewReport(filename, source string, diags []Diagnostic) *Report {
	return &Report{Filename: filename, Source: source, Diagnostics: diags}
}
