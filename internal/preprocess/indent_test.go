package preprocess

import (
	"testing"

	"github.com/glint-lang/glint/internal/diag"
)

// TestIndentDedentBalance is spec.md §8's preprocessing-invertibility
// property applied to structure: every opened INDENT has a matching DEDENT
// by end of input, even when the source never dedents explicitly.
func TestIndentDedentBalance(t *testing.T) {
	source := "if x:\n    y = 1\n    if z:\n        w = 2\n"
	result, errs := Preprocess(source)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	indents := countOccurrences(result.Transformed, IndentMarker)
	dedents := countOccurrences(result.Transformed, DedentMarker)
	if indents != dedents {
		t.Fatalf("unbalanced markers: %d INDENT vs %d DEDENT", indents, dedents)
	}
	if indents != 2 {
		t.Fatalf("expected 2 indents for the nested block, got %d", indents)
	}
}

func TestMixedIndentationRejected(t *testing.T) {
	source := "if x:\n \ty = 1\n"
	_, errs := Preprocess(source)
	if len(errs) == 0 {
		t.Fatalf("expected a MixedIndentation error")
	}
	if errs[0].Kind != diag.KindMixedIndentation {
		t.Fatalf("expected MixedIndentation, got %s", errs[0].Kind)
	}
}

func TestReverseMapRoundTripsRealBytes(t *testing.T) {
	source := "let x = 1\n    let y = 2\n"
	result, errs := Preprocess(source)
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	// Find "let y" in the transformed text (after the synthetic INDENT) and
	// confirm MapSpanBack recovers its real position in the original source.
	idx := indexOf(result.Transformed, "let y")
	if idx < 0 {
		t.Fatalf("could not find %q in transformed text %q", "let y", result.Transformed)
	}
	origStart, origEnd, ok := result.MapSpanBack(idx, idx+5)
	if !ok {
		t.Fatalf("expected a real byte range for a non-synthetic span")
	}
	if source[origStart:origEnd] != "let y" {
		t.Fatalf("expected original slice %q, got %q", "let y", source[origStart:origEnd])
	}
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
			i += len(sub) - 1
		}
	}
	return n
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
