// cmd/glint/commands/inspect.go
package commands

import (
	"fmt"
	"os"

	"github.com/glint-lang/glint/internal/compile"
)

// TokensCommand prints every token the lexer produces for a source file,
// one per line, in the teacher's debug-dump style (cmd/sentra/main.go's
// commented-out "===== TOKENS =====" dump, made into a real command here).
func TokensCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no filename provided to tokens command")
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("could not read file: %w", err)
	}
	tokens, err := compile.ToTokens(string(source))
	if err != nil {
		return err
	}
	for _, t := range tokens {
		fmt.Println(t)
	}
	return nil
}

// ASTCommand prints the parsed statement tree for a source file.
func ASTCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no filename provided to ast command")
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("could not read file: %w", err)
	}
	stmts, err := compile.ToAST(string(source))
	if err != nil {
		return err
	}
	printer := &astPrinter{}
	for _, s := range stmts {
		printer.printStmt(s, 0)
	}
	return nil
}
