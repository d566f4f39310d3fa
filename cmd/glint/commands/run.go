// cmd/glint/commands/run.go
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/glint-lang/glint/internal/compile"
)

// RunCommand compiles and executes a single source file, in the shape of
// sentra's "run" handling in cmd/sentra/main.go but driving this repo's
// stage-separated pipeline instead of sentra's tree-walking interpreter. A
// ".glntc" file is loaded as a precompiled module instead of recompiled,
// mirroring the teacher's runCompiledBytecode fast path for .snc/.snb.
func RunCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no filename provided to run command")
	}
	filename := args[0]

	var code []byte
	var constants [][]byte

	if strings.HasSuffix(filename, ".glntc") {
		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("could not read module: %w", err)
		}
		c, k, err := compile.DecodeModule(data)
		if err != nil {
			return err
		}
		code, constants = c, k
	} else {
		source, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("could not read file: %w", err)
		}
		result, err := compile.ToBytecode(string(source))
		if err != nil {
			return err
		}
		code, constants = result.Code, result.Constants
	}

	exitCode, herr := compile.Run(code, constants)
	if herr != nil {
		return fmt.Errorf("%s: %s", herr.Kind, herr.Message)
	}
	if exitCode != 0 {
		os.Exit(int(exitCode))
	}
	return nil
}
