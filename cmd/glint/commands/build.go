// cmd/glint/commands/build.go
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/glint-lang/glint/internal/compile"
)

// BuildCommand compiles a source file to a standalone .glntc bytecode
// module, the counterpart of sentra's BuildCommand/.snc output.
func BuildCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no filename provided to build command")
	}
	filename := args[0]

	source, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("could not read file: %w", err)
	}

	result, err := compile.ToBytecode(string(source))
	if err != nil {
		return err
	}

	out := outputName(filename)
	module := compile.EncodeModule(result.Code, result.Constants)
	if err := os.WriteFile(out, module, 0644); err != nil {
		return fmt.Errorf("could not write module: %w", err)
	}
	fmt.Printf("compiled %s -> %s (%d bytes)\n", filename, out, len(module))
	return nil
}

func outputName(filename string) string {
	if idx := strings.LastIndexByte(filename, '.'); idx >= 0 {
		return filename[:idx] + ".glntc"
	}
	return filename + ".glntc"
}
