// Package csource extracts printf-family call sites from C source using
// tree-sitter. Parsing the real grammar is what lets the checker ignore
// occurrences of printf inside comments and string literals, and bare
// references that never call the function (such as assigning printf to a
// function pointer).
package csource

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"printguard/internal/diag"
	"printguard/internal/format"
	"printguard/internal/logging"
)

// Kind identifies which formatting function a call site invokes.
type Kind int

const (
	KindPrintf Kind = iota
	KindSprintf
	KindSnprintf
)

// String returns the C function name for the kind.
func (k Kind) String() string {
	switch k {
	case KindPrintf:
		return "printf"
	case KindSprintf:
		return "sprintf"
	case KindSnprintf:
		return "snprintf"
	}
	return "unknown"
}

// PreArgs returns how many arguments precede the format string: none for
// printf, the buffer for sprintf, the buffer and its size for snprintf.
func (k Kind) PreArgs() int {
	switch k {
	case KindSprintf:
		return 1
	case KindSnprintf:
		return 2
	}
	return 0
}

// KindOf maps a function name to its Kind.
func KindOf(name string) (Kind, bool) {
	switch name {
	case "printf":
		return KindPrintf, true
	case "sprintf":
		return KindSprintf, true
	case "snprintf":
		return KindSnprintf, true
	}
	return 0, false
}

// Cast is an explicit top-level type cast on an argument, limited to the
// three castable format types.
type Cast struct {
	Type format.CType
	Span diag.Span
}

// StringPiece maps a stretch of a merged literal value back to its source
// bytes, so offsets into the value can be reported against the file.
type StringPiece struct {
	// Start is the source byte offset of the piece's first content byte
	// (just past the opening quote).
	Start int
	// Len is the content length of the piece.
	Len int
}

// Arg is one argument in a call site.
type Arg struct {
	// Text is the argument exactly as written, including any cast.
	Text string
	Span diag.Span

	// Cast is set when the argument is a cast expression to int, float,
	// or char*.
	Cast *Cast

	// StringLit reports whether the argument is a string literal;
	// StringValue then holds the text between the quotes, escapes left as
	// written. Adjacent literals are concatenated, with Pieces recording
	// where each literal's content lives in the source.
	StringLit   bool
	StringValue string
	Pieces      []StringPiece

	// Ident holds the identifier text when the argument is a lone
	// identifier, used for suggestion messages.
	Ident string
}

// Call is a single call site of a checked function.
type Call struct {
	Kind Kind

	// Span covers the whole call expression, from the function name to
	// the closing parenthesis.
	Span diag.Span

	// ArgsSpan covers the interior of the argument list.
	ArgsSpan diag.Span

	// Args are all arguments in source order, pre-args included.
	Args []Arg
}

// Parser finds checked call sites in C source. Not safe for concurrent
// use; create one Parser per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// NewParser returns a Parser with the C grammar loaded.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(c.GetLanguage())
	return &Parser{parser: p}
}

// Close releases the parser.
func (p *Parser) Close() {
	p.parser.Close()
}

// Calls parses src and returns every call to a function for which checked
// returns true, in source order. Checked calls nested inside another
// checked call's arguments are treated as part of the enclosing argument,
// matching how the rewrites splice whole call spans.
func (p *Parser) Calls(ctx context.Context, src []byte, checked func(name string) bool) ([]Call, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		logging.Get(logging.CategoryParser).Errorf("tree-sitter parse failed: %v", err)
		return nil, err
	}
	defer tree.Close()

	var calls []Call

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "call_expression" {
			if call, ok := p.call(n, src, checked); ok {
				calls = append(calls, call)
				return
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())

	logging.Get(logging.CategoryParser).Debugf("found %d checked call sites", len(calls))
	return calls, nil
}

// call converts a call_expression node into a Call if it invokes a checked
// function.
func (p *Parser) call(n *sitter.Node, src []byte, checked func(string) bool) (Call, bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return Call{}, false
	}
	name := fn.Content(src)
	if !checked(name) {
		return Call{}, false
	}
	kind, ok := KindOf(name)
	if !ok {
		return Call{}, false
	}

	argList := n.ChildByFieldName("arguments")
	if argList == nil {
		return Call{}, false
	}

	call := Call{
		Kind: kind,
		Span: span(n),
		ArgsSpan: diag.Span{
			Start: int(argList.StartByte()) + 1,
			End:   int(argList.EndByte()) - 1,
		},
	}

	for i := 0; i < int(argList.NamedChildCount()); i++ {
		child := argList.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		call.Args = append(call.Args, argOf(child, src))
	}

	return call, true
}

// argOf classifies a single argument node.
func argOf(n *sitter.Node, src []byte) Arg {
	arg := Arg{
		Text: n.Content(src),
		Span: span(n),
	}

	switch n.Type() {
	case "string_literal":
		arg.StringLit = true
		arg.StringValue = unquote(arg.Text)
		arg.Pieces = []StringPiece{
			{Start: int(n.StartByte()) + 1, Len: len(arg.StringValue)},
		}
	case "concatenated_string":
		arg.StringLit = true
		var parts []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			piece := n.NamedChild(i)
			if piece.Type() == "string_literal" {
				content := unquote(piece.Content(src))
				parts = append(parts, content)
				arg.Pieces = append(arg.Pieces, StringPiece{
					Start: int(piece.StartByte()) + 1,
					Len:   len(content),
				})
			}
		}
		arg.StringValue = strings.Join(parts, "")
	case "identifier":
		arg.Ident = arg.Text
	case "cast_expression":
		if typeNode := n.ChildByFieldName("type"); typeNode != nil {
			if ctype, ok := castType(typeNode.Content(src)); ok {
				arg.Cast = &Cast{
					Type: ctype,
					Span: diag.Span{Start: int(n.StartByte()), End: int(typeNode.EndByte()) + 1},
				}
			}
		}
	}

	return arg
}

// castType maps a type_descriptor spelling to a format type. Only the
// three castable types are recognized; anything else is not a format cast.
func castType(text string) (format.CType, bool) {
	switch strings.Join(strings.Fields(text), "") {
	case "int":
		return format.Int, true
	case "float":
		return format.Float, true
	case "char*":
		return format.String, true
	}
	return 0, false
}

// unquote strips the surrounding quotes from a string literal, leaving
// escape sequences as written.
func unquote(text string) string {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return text[1 : len(text)-1]
	}
	return text
}

func span(n *sitter.Node) diag.Span {
	return diag.Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}
