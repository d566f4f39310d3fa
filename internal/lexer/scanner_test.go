package lexer

import (
	"testing"

	"github.com/glint-lang/glint/internal/preprocess"
)

func typesOf(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestLexBasicDeclaration(t *testing.T) {
	tokens, errs := Lex(`let x = 1 + 2` + "\n")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []TokenType{TokenLet, TokenIdent, TokenEqual, TokenInt, TokenPlus, TokenInt, TokenNewline, TokenEOF}
	got := typesOf(tokens)
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
}

// TestLexRecognizesPreprocessorMarkers confirms the lexer and preprocessor
// agree on the synthetic INDENT/DEDENT marker text rather than each package
// hardcoding its own copy.
func TestLexRecognizesPreprocessorMarkers(t *testing.T) {
	result, perrs := preprocess.Preprocess("if x:\n    y = 1\n")
	if len(perrs) > 0 {
		t.Fatalf("preprocess: %v", perrs)
	}
	tokens, errs := Lex(result.Transformed)
	if len(errs) > 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	foundIndent, foundDedent := false, false
	for _, tok := range tokens {
		if tok.Type == TokenIndent {
			foundIndent = true
		}
		if tok.Type == TokenDedent {
			foundDedent = true
		}
	}
	if !foundIndent || !foundDedent {
		t.Fatalf("expected both INDENT and DEDENT tokens, got %v", typesOf(tokens))
	}
}

func TestLexAlwaysTerminatesWithEOF(t *testing.T) {
	for _, source := range []string{"", "let x = 1\n", "# just a comment\n", "\"unterminated"} {
		tokens, _ := Lex(source)
		if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenEOF {
			t.Fatalf("source %q: expected token stream to end in EOF, got %v", source, typesOf(tokens))
		}
	}
}

func TestLexInvalidCharacterReported(t *testing.T) {
	_, errs := Lex("let x = 1 $ 2\n")
	if len(errs) == 0 {
		t.Fatalf("expected an InvalidCharacter diagnostic for '$'")
	}
}

func TestLexKeywordsAndIdentifiersDiffer(t *testing.T) {
	tokens, errs := Lex("while loop\n")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if tokens[0].Type != TokenWhile {
		t.Fatalf("expected %q to lex as WHILE, got %s", "while", tokens[0].Type)
	}
	if tokens[1].Type != TokenIdent {
		t.Fatalf("expected %q to lex as IDENT, got %s", "loop", tokens[1].Type)
	}
}

func TestLexStringEscapes(t *testing.T) {
	tokens, errs := Lex(`"a \"quoted\" word"` + "\n")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if tokens[0].Type != TokenString {
		t.Fatalf("expected STRING_LIT, got %s", tokens[0].Type)
	}
	if tokens[0].Lexeme != `a "quoted" word` {
		t.Fatalf("expected unescaped lexeme %q, got %q", `a "quoted" word`, tokens[0].Lexeme)
	}
}

func TestLexFloatVsInt(t *testing.T) {
	tokens, errs := Lex("3.14 42\n")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if tokens[0].Type != TokenFloat {
		t.Fatalf("expected FLOAT_LIT for 3.14, got %s", tokens[0].Type)
	}
	if tokens[1].Type != TokenInt {
		t.Fatalf("expected INT_LIT for 42, got %s", tokens[1].Type)
	}
}
