package check

import (
	"fmt"

	"printguard/internal/csource"
	"printguard/internal/diag"
	"printguard/internal/format"
)

// Diagnostic constructors. Wording is part of the tool's contract: tests
// and downstream tooling match on these messages.

func missingFunctionArgs(span diag.Span) diag.Diagnostic {
	return diag.Diagnostic{
		Message: "Missing function arguments.",
		Labels: []diag.Label{
			{Span: span, Message: "not enough arguments in function call"},
		},
		Help: "Supply enough arguments for the function call.",
	}
}

func nonliteralFormat(arg csource.Arg) diag.Diagnostic {
	help := `Use a string literal as the first argument, like ` + "`" + `printf("hello")` + "`" + `.`
	if arg.Ident != "" {
		help = fmt.Sprintf("To safely print a string, use `printf(\"%%s\", %s)` instead.", arg.Ident)
	}
	return diag.Diagnostic{
		Message: "Format string isn't a string literal, this is potentially an overflow vulnerability!",
		Labels: []diag.Label{
			{Span: arg.Span, Message: "not a string literal"},
		},
		Help: help,
	}
}

func specifierCastMismatch(specSpan diag.Span, specType format.CType, castSpan diag.Span, castType format.CType) diag.Diagnostic {
	return diag.Diagnostic{
		Message: "Incorrect specifier for type casted argument.",
		Labels: []diag.Label{
			{Span: specSpan, Message: fmt.Sprintf("format string expects `%s` value", specType)},
			{Span: castSpan, Message: fmt.Sprintf("argument is casted as `%s`", castType)},
		},
		Help: fmt.Sprintf("Change the specifier to `%%%c`, or change the cast to `(%s)`.",
			castType.SpecifierChar(), specType),
	}
}

func excessSpecifiers(formatSpan, argsSpan diag.Span, additional int) diag.Diagnostic {
	help := "Add an argument or remove a specifier."
	if additional != 1 {
		help = fmt.Sprintf("Add %d arguments or remove %d specifiers.", additional, additional)
	}
	return diag.Diagnostic{
		Message: "Excess specifiers, this will read arbitrary data off the stack!",
		Labels: []diag.Label{
			{Span: formatSpan, Message: fmt.Sprintf("%d too many specifiers", additional)},
			{Span: argsSpan, Message: "not enough arguments"},
		},
		Help: help,
	}
}

func excessArgs(formatSpan, argsSpan diag.Span, additional int) diag.Diagnostic {
	help := "Add a specifier or remove an argument."
	if additional != 1 {
		help = fmt.Sprintf("Add %d specifiers or remove %d arguments.", additional, additional)
	}
	return diag.Diagnostic{
		Message: "Excess arguments.",
		Labels: []diag.Label{
			{Span: formatSpan, Message: "not enough specifiers"},
			{Span: argsSpan, Message: fmt.Sprintf("%d too many arguments", additional)},
		},
		Help: help,
	}
}
