package parser

import (
	"testing"

	"github.com/glint-lang/glint/internal/lexer"
	"github.com/glint-lang/glint/internal/preprocess"
)

func parseSource(t *testing.T, source string) []Stmt {
	t.Helper()
	result, perrs := preprocess.Preprocess(source)
	if len(perrs) > 0 {
		t.Fatalf("preprocess: %v", perrs)
	}
	tokens, lerrs := lexer.Lex(result.Transformed)
	if len(lerrs) > 0 {
		t.Fatalf("lex: %v", lerrs)
	}
	stmts, perrs2 := Parse(tokens)
	if len(perrs2) > 0 {
		t.Fatalf("parse: %v", perrs2)
	}
	return stmts
}

func TestParseVarDecl(t *testing.T) {
	stmts := parseSource(t, "let x = 1 + 2\n")
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	decl, ok := stmts[0].(*VarDecl)
	if !ok {
		t.Fatalf("expected *VarDecl, got %T", stmts[0])
	}
	if decl.Name != "x" {
		t.Fatalf("expected name %q, got %q", "x", decl.Name)
	}
	bin, ok := decl.Init.(*Binary)
	if !ok {
		t.Fatalf("expected *Binary init expr, got %T", decl.Init)
	}
	if bin.Op != OpAdd {
		t.Fatalf("expected OpAdd, got %v", bin.Op)
	}
}

func TestParseIfElifElse(t *testing.T) {
	source := "if x:\n    y = 1\nelif z:\n    y = 2\nelse:\n    y = 3\n"
	stmts := parseSource(t, source)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	ifStmt, ok := stmts[0].(*If)
	if !ok {
		t.Fatalf("expected *If, got %T", stmts[0])
	}
	if len(ifStmt.Elifs) != 1 {
		t.Fatalf("expected 1 elif branch, got %d", len(ifStmt.Elifs))
	}
	if ifStmt.Else == nil {
		t.Fatalf("expected an else branch")
	}
}

func TestParseWhileLoop(t *testing.T) {
	source := "while x < 5:\n    x = x + 1\n"
	stmts := parseSource(t, source)
	whileStmt, ok := stmts[0].(*While)
	if !ok {
		t.Fatalf("expected *While, got %T", stmts[0])
	}
	if len(whileStmt.Body) != 1 {
		t.Fatalf("expected 1 statement in the loop body, got %d", len(whileStmt.Body))
	}
}

// TestParseMalformedDeclarationReportsError checks that a syntactically
// broken declaration yields at least one diagnostic rather than silently
// dropping the defect.
func TestParseMalformedDeclarationReportsError(t *testing.T) {
	result, perrs := preprocess.Preprocess("let = 1\n")
	if len(perrs) > 0 {
		t.Fatalf("preprocess: %v", perrs)
	}
	tokens, lerrs := lexer.Lex(result.Transformed)
	if len(lerrs) > 0 {
		t.Fatalf("lex: %v", lerrs)
	}
	_, errs := Parse(tokens)
	if len(errs) == 0 {
		t.Fatalf("expected at least one parse error for a malformed declaration")
	}
}

func TestParseBreakContinue(t *testing.T) {
	source := "while true:\n    break\n    continue\n"
	stmts := parseSource(t, source)
	whileStmt := stmts[0].(*While)
	if len(whileStmt.Body) != 2 {
		t.Fatalf("expected 2 statements in the loop body, got %d", len(whileStmt.Body))
	}
	if _, ok := whileStmt.Body[0].(*Break); !ok {
		t.Fatalf("expected *Break, got %T", whileStmt.Body[0])
	}
	if _, ok := whileStmt.Body[1].(*Continue); !ok {
		t.Fatalf("expected *Continue, got %T", whileStmt.Body[1])
	}
}
