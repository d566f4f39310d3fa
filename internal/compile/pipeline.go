// Package compile threads a Glint source file through every pipeline stage
// spec.md names — indentation preprocessing, lexing, parsing, semantic
// analysis, and bytecode generation — in the shape of sentra's
// internal/compiler.Compiler, but driving the stage-separated packages this
// repo actually has rather than one monolithic AST-walking compiler.
package compile

import (
	"fmt"

	"github.com/glint-lang/glint/internal/analysis"
	"github.com/glint-lang/glint/internal/bytecode"
	"github.com/glint-lang/glint/internal/diag"
	"github.com/glint-lang/glint/internal/lexer"
	"github.com/glint-lang/glint/internal/parser"
	"github.com/glint-lang/glint/internal/preprocess"
)

// Result is everything a caller needs after a source file makes it all the
// way to bytecode: the code, its constants table, and the Context the
// analyzer built (exposed so commands like "ast"/"tokens" can inspect
// earlier stages without re-running them).
type Result struct {
	Preprocessed *preprocess.Result
	Tokens       []lexer.Token
	Stmts        []parser.Stmt
	Context      *analysis.Context
	Code         []byte
	Constants    [][]byte
}

// StageError reports which stage produced a fatal diag.List, so a CLI
// command can print "preprocess: ..." style output without re-deriving it
// from the errors themselves.
type StageError struct {
	Stage  diag.Stage
	Errors diag.List
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Errors.Error())
}

// ToBytecode runs every stage through bytecode generation. It stops at the
// first stage producing diagnostics, matching the teacher's behavior of not
// attempting to compile a program that failed to parse or resolve.
func ToBytecode(source string) (*Result, error) {
	r := &Result{}

	pre, errs := preprocess.Preprocess(source)
	if len(errs) > 0 {
		return r, &StageError{Stage: diag.StagePreprocess, Errors: errs}
	}
	r.Preprocessed = pre

	tokens, errs := lexer.Lex(pre.Transformed)
	if len(errs) > 0 {
		return r, &StageError{Stage: diag.StageLexer, Errors: errs}
	}
	r.Tokens = tokens

	stmts, errs := parser.Parse(tokens)
	if len(errs) > 0 {
		return r, &StageError{Stage: diag.StageParser, Errors: errs}
	}
	r.Stmts = stmts

	ctx := analysis.Analyze(stmts)
	r.Context = ctx
	if errs := ctx.Errors(); len(errs) > 0 {
		return r, &StageError{Stage: diag.StageAnalyzer, Errors: errs}
	}

	typedIR, err := ctx.TypedIR()
	if err != nil {
		return r, err
	}

	code, constants, err := bytecode.Generate(typedIR, ctx.Vars(), ctx.VarCount())
	if err != nil {
		return r, err
	}
	r.Code = code
	r.Constants = constants
	return r, nil
}

// ToTokens runs only the preprocess+lex stages, for the "tokens" command.
func ToTokens(source string) ([]lexer.Token, error) {
	pre, errs := preprocess.Preprocess(source)
	if len(errs) > 0 {
		return nil, &StageError{Stage: diag.StagePreprocess, Errors: errs}
	}
	tokens, errs := lexer.Lex(pre.Transformed)
	if len(errs) > 0 {
		return nil, &StageError{Stage: diag.StageLexer, Errors: errs}
	}
	return tokens, nil
}

// ToAST runs preprocess+lex+parse, for the "ast" command.
func ToAST(source string) ([]parser.Stmt, error) {
	pre, errs := preprocess.Preprocess(source)
	if len(errs) > 0 {
		return nil, &StageError{Stage: diag.StagePreprocess, Errors: errs}
	}
	tokens, errs := lexer.Lex(pre.Transformed)
	if len(errs) > 0 {
		return nil, &StageError{Stage: diag.StageLexer, Errors: errs}
	}
	stmts, errs := parser.Parse(tokens)
	if len(errs) > 0 {
		return nil, &StageError{Stage: diag.StageParser, Errors: errs}
	}
	return stmts, nil
}
