// Package check validates printf-family call sites and builds the
// intermediate representation the rewrites are rendered from.
//
// Every site is examined even after a finding, so one run reports
// everything wrong with a file. A file with findings has no IR; rewrites
// are only defined over clean input.
package check

import (
	"context"

	"printguard/internal/csource"
	"printguard/internal/diag"
	"printguard/internal/format"
	"printguard/internal/logging"
)

// FormatValue pairs an argument with the specifier that formats it and the
// literal chunk that precedes the specifier in the format string.
type FormatValue struct {
	Chunk       string
	Arg         string
	TypeChecked bool
	Specifier   format.Specifier
}

// Site is a validated call site: the interleaved chunks and values of its
// format string plus the trailing literal text.
type Site struct {
	Kind    csource.Kind
	Span    diag.Span
	PreArgs []string
	Pairs   []FormatValue
	Last    string
}

// Analysis is the IR of a clean file: every site in source order, with the
// interstitial text recoverable from the original source by span.
type Analysis struct {
	Source string
	Sites  []Site
}

// Checker validates C source files. Not safe for concurrent use; create
// one Checker per goroutine.
type Checker struct {
	parser *csource.Parser
	funcs  map[string]bool
}

// NewChecker returns a Checker that validates calls to the given function
// names. Names without printf semantics are ignored.
func NewChecker(functions []string) *Checker {
	funcs := make(map[string]bool, len(functions))
	for _, name := range functions {
		if _, ok := csource.KindOf(name); ok {
			funcs[name] = true
		}
	}
	return &Checker{
		parser: csource.NewParser(),
		funcs:  funcs,
	}
}

// Close releases the underlying parser.
func (c *Checker) Close() {
	c.parser.Close()
}

// Analyze validates source. On a clean file it returns the IR and a nil
// diagnostic slice; otherwise it returns every finding. The error is
// non-nil only when parsing itself fails.
func (c *Checker) Analyze(ctx context.Context, source string) (*Analysis, []diag.Diagnostic, error) {
	calls, err := c.parser.Calls(ctx, []byte(source), func(name string) bool {
		return c.funcs[name]
	})
	if err != nil {
		return nil, nil, err
	}

	var diags []diag.Diagnostic
	sites := make([]Site, 0, len(calls))

	for _, call := range calls {
		site, siteDiags := analyzeCall(call)
		if len(siteDiags) > 0 {
			diags = append(diags, siteDiags...)
			continue
		}
		sites = append(sites, site)
	}

	logging.Get(logging.CategoryChecker).Debugf("analyzed %d sites, %d findings", len(calls), len(diags))

	if len(diags) > 0 {
		return nil, diags, nil
	}
	return &Analysis{Source: source, Sites: sites}, nil, nil
}

// analyzeCall validates one call site and builds its IR on success.
func analyzeCall(call csource.Call) (Site, []diag.Diagnostic) {
	pre := call.Kind.PreArgs()
	if len(call.Args) < pre+1 {
		return Site{}, []diag.Diagnostic{missingFunctionArgs(call.ArgsSpan)}
	}

	site := Site{
		Kind: call.Kind,
		Span: call.Span,
	}
	for _, arg := range call.Args[:pre] {
		site.PreArgs = append(site.PreArgs, arg.Text)
	}

	formatArg := call.Args[pre]
	if !formatArg.StringLit {
		return Site{}, []diag.Diagnostic{nonliteralFormat(formatArg)}
	}

	var diags []diag.Diagnostic
	values := call.Args[pre+1:]
	sc := format.NewScanner(formatArg.StringValue)

	i := 0
	for {
		spec, haveSpec := sc.Next()

		switch {
		case haveSpec && i < len(values):
			arg := values[i]
			switch {
			case arg.Cast != nil && arg.Cast.Type != spec.Type:
				start, end := sc.Span()
				diags = append(diags, specifierCastMismatch(
					literalSpan(formatArg, start, end),
					spec.Type, arg.Cast.Span, arg.Cast.Type))
			default:
				site.Pairs = append(site.Pairs, FormatValue{
					Chunk:       sc.Before(),
					Arg:         arg.Text,
					TypeChecked: arg.Cast != nil,
					Specifier:   spec,
				})
			}
			i++

		case haveSpec:
			// A specifier with no argument to consume.
			diags = append(diags, excessSpecifiers(formatArg.Span, call.ArgsSpan, sc.Count()+1))
			return Site{}, diags

		case i < len(values):
			// An argument with no specifier to consume.
			diags = append(diags, excessArgs(formatArg.Span, call.ArgsSpan, len(values)-i))
			return Site{}, diags

		default:
			site.Last = sc.Remainder()
			if len(diags) > 0 {
				return Site{}, diags
			}
			return site, nil
		}
	}
}

// literalSpan maps a byte range within a merged format body back to the
// source bytes of the literal piece it starts in. Adjacent literals are
// not contiguous in the source, so a range is clamped to its first piece.
func literalSpan(arg csource.Arg, start, end int) diag.Span {
	off := 0
	for _, p := range arg.Pieces {
		if start < off+p.Len {
			s := p.Start + (start - off)
			length := end - start
			if rem := p.Len - (start - off); length > rem {
				length = rem
			}
			return diag.Span{Start: s, End: s + length}
		}
		off += p.Len
	}
	return diag.Span{Start: arg.Span.Start + 1 + start, End: arg.Span.Start + 1 + end}
}
