package check

import (
	"fmt"
	"strings"

	"printguard/internal/csource"
	"printguard/internal/format"
)

// RenderOptimize returns the source with every site rewritten to the
// safe_printf family: a leading argument count, then for every pair the
// literal chunk, a pointer to the argument, and the formatter function for
// its type, then the trailing chunk.
func (a *Analysis) RenderOptimize() string {
	return a.render(func(b *strings.Builder, site Site) {
		switch site.Kind {
		case csource.KindPrintf:
			b.WriteString("safe_printf(")
		case csource.KindSprintf:
			fmt.Fprintf(b, "safe_sprintf((char* restrict) (%s), ", site.PreArgs[0])
		case csource.KindSnprintf:
			fmt.Fprintf(b, "safe_snprintf((char* restrict) (%s), (size_t) (%s), ",
				site.PreArgs[0], site.PreArgs[1])
		}

		fmt.Fprintf(b, "%d", len(site.Pairs)*3+1)

		for _, pair := range site.Pairs {
			amp := "&"
			if pair.Specifier.Type == format.String {
				amp = ""
			}
			fmt.Fprintf(b, ", \"%s\", (void*) %s(%s), %s",
				pair.Chunk, amp, pair.Arg, pair.Specifier.Type.FormatFn())
		}

		fmt.Fprintf(b, ", \"%s\")", site.Last)
	})
}

// RenderTypecast returns the source with every site reconstructed: the
// format string normalized to canonical conversion characters and an
// explicit cast added to every argument that was not already cast.
func (a *Analysis) RenderTypecast() string {
	return a.render(func(b *strings.Builder, site Site) {
		switch site.Kind {
		case csource.KindPrintf:
			b.WriteString(`printf("`)
		case csource.KindSprintf:
			fmt.Fprintf(b, `sprintf((char* restrict) (%s), "`, site.PreArgs[0])
		case csource.KindSnprintf:
			fmt.Fprintf(b, `snprintf((char* restrict) (%s), (size_t) (%s), "`,
				site.PreArgs[0], site.PreArgs[1])
		}

		for _, pair := range site.Pairs {
			b.WriteString(pair.Chunk)
			fmt.Fprintf(b, "%%%s%c", pair.Specifier.Options, pair.Specifier.Type.SpecifierChar())
		}
		fmt.Fprintf(b, "%s\"", site.Last)

		for _, pair := range site.Pairs {
			if pair.TypeChecked {
				fmt.Fprintf(b, ", %s", pair.Arg)
			} else {
				fmt.Fprintf(b, ", (%s) (%s)", pair.Specifier.Type, pair.Arg)
			}
		}

		b.WriteString(")")
	})
}

// render splices the rewritten sites between the untouched stretches of
// the original source.
func (a *Analysis) render(site func(*strings.Builder, Site)) string {
	var b strings.Builder
	prev := 0
	for _, s := range a.Sites {
		b.WriteString(a.Source[prev:s.Span.Start])
		site(&b, s)
		prev = s.Span.End
	}
	b.WriteString(a.Source[prev:])
	return b.String()
}
