package analysis

import (
	"testing"

	"github.com/glint-lang/glint/internal/diag"
	"github.com/glint-lang/glint/internal/lexer"
	"github.com/glint-lang/glint/internal/parser"
	"github.com/glint-lang/glint/internal/preprocess"
)

func parseForAnalysis(t *testing.T, source string) []parser.Stmt {
	t.Helper()
	result, perrs := preprocess.Preprocess(source)
	if len(perrs) > 0 {
		t.Fatalf("preprocess: %v", perrs)
	}
	tokens, lerrs := lexer.Lex(result.Transformed)
	if len(lerrs) > 0 {
		t.Fatalf("lex: %v", lerrs)
	}
	stmts, perrs2 := parser.Parse(tokens)
	if len(perrs2) > 0 {
		t.Fatalf("parse: %v", perrs2)
	}
	return stmts
}

func TestAnalyzeReadOfUndefinedVariableReported(t *testing.T) {
	stmts := parseForAnalysis(t, "let x = y + 1\n")
	ctx := Analyze(stmts)
	found := false
	for _, e := range ctx.Errors() {
		if e.Kind == diag.KindReadUndefinedVariable {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a ReadUndefinedVariable diagnostic, got %v", ctx.Errors())
	}
	if _, err := ctx.TypedIR(); err == nil {
		t.Fatalf("expected TypedIR to refuse to concretize while errors remain")
	}
}

func TestAnalyzeAssignToUndefinedVariableReported(t *testing.T) {
	stmts := parseForAnalysis(t, "x = 1\n")
	ctx := Analyze(stmts)
	found := false
	for _, e := range ctx.Errors() {
		if e.Kind == diag.KindAssignUndefinedVar {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an AssignUndefinedVariable diagnostic, got %v", ctx.Errors())
	}
}

// TestVarIDsAreDenseAndIncreasing is spec.md §8's "dense, increasing
// statement/variable ids" universal property.
func TestVarIDsAreDenseAndIncreasing(t *testing.T) {
	stmts := parseForAnalysis(t, "let a = 1\nlet b = 2\nlet c = a + b\n")
	ctx := Analyze(stmts)
	vars := ctx.Vars()
	if len(vars) != ctx.VarCount() {
		t.Fatalf("Vars() length %d does not match VarCount() %d", len(vars), ctx.VarCount())
	}
	for i, v := range vars {
		if int(v.ID) != i {
			t.Fatalf("variable at index %d has id %d, ids must be dense and increasing", i, v.ID)
		}
	}
}

func TestTypedIRConcretizesCleanProgram(t *testing.T) {
	stmts := parseForAnalysis(t, "let a = 1\nlet b = a + 2\n")
	ctx := Analyze(stmts)
	if len(ctx.Errors()) > 0 {
		t.Fatalf("unexpected errors: %v", ctx.Errors())
	}
	typed, err := ctx.TypedIR()
	if err != nil {
		t.Fatalf("TypedIR: %v", err)
	}
	if len(typed) == 0 {
		t.Fatalf("expected a non-empty typed instruction list")
	}
}
