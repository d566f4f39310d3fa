package compile

import "github.com/glint-lang/glint/internal/vm"

// Run executes code (as produced by ToBytecode) to completion on a fresh VM
// with the given constants table and default stack depth.
func Run(code []byte, constants [][]byte) (exitCode byte, herr *vm.HardError) {
	machine := vm.New(constants, 0)
	return machine.Run(code)
}
