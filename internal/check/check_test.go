package check

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var checkedFunctions = []string{"printf", "sprintf", "snprintf"}

func analyze(t *testing.T, src string) (*Analysis, []string) {
	t.Helper()
	c := NewChecker(checkedFunctions)
	t.Cleanup(c.Close)

	analysis, diags, err := c.Analyze(context.Background(), src)
	require.NoError(t, err)

	messages := make([]string, 0, len(diags))
	for _, d := range diags {
		messages = append(messages, d.Message)
	}
	return analysis, messages
}

func TestFixtureIsClean(t *testing.T) {
	data, err := os.ReadFile("testdata/readme.c")
	require.NoError(t, err)

	analysis, messages := analyze(t, string(data))
	require.Empty(t, messages, "fixture must validate cleanly")
	require.NotNil(t, analysis)
	require.Len(t, analysis.Sites, 5)
}

func TestFixtureRewrites(t *testing.T) {
	data, err := os.ReadFile("testdata/readme.c")
	require.NoError(t, err)

	analysis, messages := analyze(t, string(data))
	require.Empty(t, messages)

	optimize := analysis.RenderOptimize()
	for _, want := range []string{
		`safe_printf(1, "Hello, world!")`,
		`safe_printf(4, "Balance: $", (void*) &(100), fmt_int, ".")`,
		`safe_printf(4, " s p a c e ", (void*) &(100), fmt_int, " ")`,
		`safe_snprintf((char* restrict) (input), (size_t) (1023), 4, "Hello, ", (void*) (name), fmt_string, "!")`,
		`safe_printf(4, "", (void*) (input), fmt_string, "")`,
	} {
		if !strings.Contains(optimize, want) {
			t.Errorf("optimize output missing %q", want)
		}
	}

	typecast := analysis.RenderTypecast()
	for _, want := range []string{
		`printf("Hello, world!")`,
		`printf("Balance: $%d.", (int) (100))`,
		`snprintf((char* restrict) (input), (size_t) (1023), "Hello, %s!", (char*) (name))`,
		`printf("%s", (char*) (input))`,
	} {
		if !strings.Contains(typecast, want) {
			t.Errorf("typecast output missing %q", want)
		}
	}

	// Everything outside the call sites survives untouched.
	for _, want := range []string{
		"#include <stdio.h>",
		"void* function_ptr = printf;",
		`// printf in comments is ignored`,
		`char in_a_string[] = "printf(\"hello\")";`,
	} {
		if !strings.Contains(optimize, want) || !strings.Contains(typecast, want) {
			t.Errorf("interstitial text missing: %q", want)
		}
	}
}

func TestRenderTypecastSplicing(t *testing.T) {
	src := `int main() {
    printf("a: %d", x);
    int y = 2;
    printf("b: %s", s);
}
`
	analysis, messages := analyze(t, src)
	require.Empty(t, messages)

	want := `int main() {
    printf("a: %d", (int) (x));
    int y = 2;
    printf("b: %s", (char*) (s));
}
`
	if diff := cmp.Diff(want, analysis.RenderTypecast()); diff != "" {
		t.Errorf("typecast mismatch (-want +got):\n%s", diff)
	}
}

func TestTypecastKeepsExistingCasts(t *testing.T) {
	src := `int main() { printf("%d and %d", (int) a, b); }`
	analysis, messages := analyze(t, src)
	require.Empty(t, messages)

	out := analysis.RenderTypecast()
	if !strings.Contains(out, `printf("%d and %d", (int) a, (int) (b))`) {
		t.Errorf("unexpected typecast output:\n%s", out)
	}
}

func TestTypecastNormalizesSpecifiers(t *testing.T) {
	// %i becomes %d; options survive.
	src := `int main() { printf("%i %-2.3f", a, b); }`
	analysis, messages := analyze(t, src)
	require.Empty(t, messages)

	out := analysis.RenderTypecast()
	if !strings.Contains(out, `printf("%d %-2.3f", (int) (a), (float) (b))`) {
		t.Errorf("unexpected typecast output:\n%s", out)
	}
}

func TestOptimizeCountsArguments(t *testing.T) {
	src := `int main() { printf("x %d y %s z", a, b); }`
	analysis, messages := analyze(t, src)
	require.Empty(t, messages)

	out := analysis.RenderOptimize()
	if !strings.Contains(out, `safe_printf(7, "x ", (void*) &(a), fmt_int, " y ", (void*) (b), fmt_string, " z")`) {
		t.Errorf("unexpected optimize output:\n%s", out)
	}
}

func TestSprintfRewrite(t *testing.T) {
	src := `int main() { sprintf(buf, "%d", n); }`
	analysis, messages := analyze(t, src)
	require.Empty(t, messages)

	out := analysis.RenderOptimize()
	if !strings.Contains(out, `safe_sprintf((char* restrict) (buf), 4, "", (void*) &(n), fmt_int, "")`) {
		t.Errorf("unexpected optimize output:\n%s", out)
	}
}

func TestNonliteralFormat(t *testing.T) {
	src := `int main() { printf(fmt); }`
	analysis, messages := analyze(t, src)
	require.Nil(t, analysis)
	require.Len(t, messages, 1)
	require.Contains(t, messages[0], "isn't a string literal")
}

func TestNonliteralFormatHelpSuggestsWrapper(t *testing.T) {
	src := `int main() { printf(fmt); }`
	c := NewChecker(checkedFunctions)
	t.Cleanup(c.Close)

	_, diags, err := c.Analyze(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	require.Equal(t, `To safely print a string, use `+"`"+`printf("%s", fmt)`+"`"+` instead.`, diags[0].Help)
}

func TestMissingFunctionArgs(t *testing.T) {
	src := `int main() { snprintf(buf); }`
	analysis, messages := analyze(t, src)
	require.Nil(t, analysis)
	require.Equal(t, []string{"Missing function arguments."}, messages)
}

func TestExcessArgs(t *testing.T) {
	src := `int main() { printf("%d", 1, 2, 3); }`
	c := NewChecker(checkedFunctions)
	t.Cleanup(c.Close)

	_, diags, err := c.Analyze(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	require.Equal(t, "Excess arguments.", diags[0].Message)
	require.Equal(t, "Add 2 specifiers or remove 2 arguments.", diags[0].Help)
}

func TestExcessSpecifiers(t *testing.T) {
	src := `int main() { printf("%d %s %f", 1); }`
	c := NewChecker(checkedFunctions)
	t.Cleanup(c.Close)

	_, diags, err := c.Analyze(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	require.Equal(t, "Excess specifiers, this will read arbitrary data off the stack!", diags[0].Message)
	require.Equal(t, "Add 2 arguments or remove 2 specifiers.", diags[0].Help)
}

func TestSpecifierCastMismatch(t *testing.T) {
	src := `int main() { printf("%d", (float) x); }`
	c := NewChecker(checkedFunctions)
	t.Cleanup(c.Close)

	_, diags, err := c.Analyze(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	require.Equal(t, "Incorrect specifier for type casted argument.", diags[0].Message)
	require.Equal(t, "Change the specifier to `%f`, or change the cast to `(int)`.", diags[0].Help)
	require.Len(t, diags[0].Labels, 2)

	idx := strings.Index(src, "%d")
	require.Equal(t, idx, diags[0].Labels[0].Span.Start)
	require.Equal(t, idx+2, diags[0].Labels[0].Span.End)
}

func TestCastMismatchInConcatenatedFormat(t *testing.T) {
	// The offending specifier lives in the second literal; its label must
	// point at the source bytes of that literal, not at an offset into
	// the first one.
	src := `int main() { printf("a: %d" " b: %s", (int) x, (int) y); }`
	c := NewChecker(checkedFunctions)
	t.Cleanup(c.Close)

	_, diags, err := c.Analyze(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	require.Equal(t, "Incorrect specifier for type casted argument.", diags[0].Message)

	idx := strings.Index(src, "%s")
	require.Equal(t, idx, diags[0].Labels[0].Span.Start)
	require.Equal(t, idx+2, diags[0].Labels[0].Span.End)
}

func TestFindingsAccumulateAcrossSites(t *testing.T) {
	src := `int main() {
    printf(fmt);
    printf("%d", 1, 2);
    printf("ok: %d", 3);
}
`
	analysis, messages := analyze(t, src)
	require.Nil(t, analysis)
	require.Len(t, messages, 2)
}

func TestMatchingCastIsTypeChecked(t *testing.T) {
	src := `int main() { printf("%f", (float) f); }`
	analysis, messages := analyze(t, src)
	require.Empty(t, messages)
	require.Len(t, analysis.Sites, 1)
	require.True(t, analysis.Sites[0].Pairs[0].TypeChecked)
}
