// Package repl is the thinnest possible interactive front end for the
// pipeline: a readline-backed line editor, grounded on the teacher's
// internal/repl (github.com/chzyer/readline for editing/history), compiling
// and running each line as a one-statement program. spec.md lists the REPL
// harness as an external collaborator (interface only), so this package
// exists to give that collaborator a concrete entry point, not to add
// session state (variables, multi-line blocks) the spec never asks for.
package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/glint-lang/glint/internal/compile"
)

const prompt = "glint> "

// Start runs the REPL loop until EOF (Ctrl-D) or an interrupt (Ctrl-C).
func Start() error {
	rl, err := readline.New(prompt)
	if err != nil {
		return fmt.Errorf("could not start line editor: %w", err)
	}
	defer rl.Close()

	fmt.Println("Glint REPL — Ctrl-D to exit")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runLine(line)
	}
}

func runLine(source string) {
	result, err := compile.ToBytecode(source + "\n")
	if err != nil {
		fmt.Println(err)
		return
	}
	if _, herr := compile.Run(result.Code, result.Constants); herr != nil {
		fmt.Printf("%s: %s\n", herr.Kind, herr.Message)
	}
}
