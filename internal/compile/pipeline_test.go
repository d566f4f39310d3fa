package compile

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/glint-lang/glint/internal/diag"
	"github.com/glint-lang/glint/internal/ir"
	"github.com/glint-lang/glint/internal/vm"
)

// findRegister reports whether any register in frame holds want,
// without committing to exactly which one the allocator chose — the
// allocator's assignment is an implementation detail, not part of the
// contract these scenarios (spec.md §8) describe.
func findRegister(frame [128]uint64, want uint64) bool {
	for _, v := range frame {
		if v == want {
			return true
		}
	}
	return false
}

func compileAndRun(t *testing.T, source string) *Result {
	t.Helper()
	result, err := ToBytecode(source)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return result
}

// runCode runs result's bytecode to completion on a fresh VM and returns
// the final top frame's register file.
func runCode(t *testing.T, result *Result) ([128]uint64, *vm.HardError) {
	t.Helper()
	machine := vm.New(result.Constants, 0)
	if _, herr := machine.Run(result.Code); herr != nil {
		return [128]uint64{}, herr
	}
	return machine.Frames.Current().Registers, nil
}

func TestArithmeticConstantFolding(t *testing.T) {
	result := compileAndRun(t, "let x = 1 + 2 * 3\n")

	// The Typed IR must bind x to the folded constant 7 before any
	// bytecode runs at all.
	typed, err := result.Context.TypedIR()
	if err != nil {
		t.Fatalf("typed IR: %v", err)
	}
	foundConst := false
	for _, inst := range typed {
		if inst.Kind == ir.InstAssign && inst.Value.Kind == ir.ExprConstInt && inst.Value.Int == 7 {
			foundConst = true
		}
	}
	if !foundConst {
		t.Fatalf("expected a folded assignment of constant 7 in typed IR, got %+v", typed)
	}

	machine, herr := runCode(t, result)
	if herr != nil {
		t.Fatalf("vm: %v", herr)
	}
	if !findRegister(machine, 7) {
		t.Fatalf("expected register holding i64 7, frame = %v", machine)
	}
}

func TestConditional(t *testing.T) {
	result := compileAndRun(t, "let y = 0\nif 2 > 1:\n    y = 5\nelse:\n    y = 9\n")
	frame, herr := runCode(t, result)
	if herr != nil {
		t.Fatalf("vm: %v", herr)
	}
	if !findRegister(frame, 5) {
		t.Fatalf("expected register holding i64 5 (y), frame = %v", frame)
	}
	if findRegister(frame, 9) {
		t.Fatalf("y must not hold the else branch's value 9, frame = %v", frame)
	}
}

func TestLoopAccumulatorFoldGuard(t *testing.T) {
	source := "let i = 0\nlet s = 0\nwhile i < 5:\n    s = s + i\n    i = i + 1\n"
	result := compileAndRun(t, source)

	typed, err := result.Context.TypedIR()
	if err != nil {
		t.Fatalf("typed IR: %v", err)
	}
	// i and s each get exactly one constant assignment: their initial
	// declaration (`let i = 0`/`let s = 0`), lowered before the loop exists
	// at all, so nothing guards it yet. Every subsequent assignment to the
	// same variable happens from inside the loop body and must NOT be
	// folded to a constant — that's what the fold guard exists to prevent.
	seenConstAssign := map[ir.VarID]bool{}
	for _, inst := range typed {
		if inst.Kind != ir.InstAssign || inst.Value.Kind != ir.ExprConstInt {
			continue
		}
		if seenConstAssign[inst.Target] {
			t.Fatalf("loop-carried variable folded to a constant more than once, fold guard violated: %+v", inst)
		}
		seenConstAssign[inst.Target] = true
	}

	frame, herr := runCode(t, result)
	if herr != nil {
		t.Fatalf("vm: %v", herr)
	}
	if !findRegister(frame, 5) {
		t.Fatalf("expected i == 5, frame = %v", frame)
	}
	if !findRegister(frame, 10) {
		t.Fatalf("expected s == 10, frame = %v", frame)
	}
}

func TestMixedIndentationStopsAtPreprocess(t *testing.T) {
	source := "if x:\n y = 1\n\ty = 2\n"
	_, err := ToBytecode(source)
	if err == nil {
		t.Fatalf("expected a MixedIndentation error, compile succeeded")
	}
	stageErr, ok := err.(*StageError)
	if !ok {
		t.Fatalf("expected *StageError, got %T: %v", err, err)
	}
	if stageErr.Stage != diag.StagePreprocess {
		t.Fatalf("expected preprocess-stage error, got stage %s", stageErr.Stage)
	}
	found := false
	for _, e := range stageErr.Errors {
		if e.Kind == diag.KindMixedIndentation {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a MixedIndentation diagnostic, got %v", stageErr.Errors)
	}
}

func TestStringConcatenation(t *testing.T) {
	result := compileAndRun(t, `let greeting = "hello " + "world"`+"\n")

	machine := vm.New(result.Constants, 0)
	if _, herr := machine.Run(result.Code); herr != nil {
		t.Fatalf("vm: %v", herr)
	}

	data, hErr := machine.Heap.ReadAt(1, 0, 19)
	if hErr != nil {
		t.Fatalf("reading heap section 1: %v", hErr)
	}
	length := binary.BigEndian.Uint64(data[:8])
	if length != 11 {
		t.Fatalf("expected length header 11, got %d", length)
	}
	if string(data[8:]) != "hello world" {
		t.Fatalf("expected payload %q, got %q", "hello world", string(data[8:]))
	}
}

func TestBreakOutOfWhile(t *testing.T) {
	source := "let i = 0\nwhile true:\n    if i == 3:\n        break\n    i = i + 1\n"
	result := compileAndRun(t, source)
	frame, herr := runCode(t, result)
	if herr != nil {
		t.Fatalf("vm: %v", herr)
	}
	if !findRegister(frame, 3) {
		t.Fatalf("expected i == 3, frame = %v", frame)
	}
}

func TestEncodeDecodeModuleRoundTrip(t *testing.T) {
	result := compileAndRun(t, "let x = 1 + 2\n")
	module := EncodeModule(result.Code, result.Constants)
	code, constants, err := DecodeModule(module)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(code) != string(result.Code) {
		t.Fatalf("code mismatch after round trip")
	}
	if len(constants) != len(result.Constants) {
		t.Fatalf("constants count mismatch: got %d want %d", len(constants), len(result.Constants))
	}
}

func TestDecodeModuleRejectsGarbage(t *testing.T) {
	_, _, err := DecodeModule([]byte("not a module"))
	if err == nil {
		t.Fatalf("expected an error decoding a non-module payload")
	}
	if !strings.Contains(err.Error(), "not a glint module") {
		t.Fatalf("unexpected error: %v", err)
	}
}
