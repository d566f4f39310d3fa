package vm

import "github.com/glint-lang/glint/internal/bytecode"
import "testing"

func assembleHalt(t *testing.T, build func(em *bytecode.Emitter)) []byte {
	t.Helper()
	em := bytecode.NewEmitter()
	build(em)
	em.Halt(0)
	if err := em.Link(); err != nil {
		t.Fatalf("link: %v", err)
	}
	return em.Code
}

func TestAddOverflowSetsErrorCodeWithoutHalting(t *testing.T) {
	code := assembleHalt(t, func(em *bytecode.Emitter) {
		em.LoadImmediate(bytecode.I8, 11, uint64(int8(120))&0xff)
		em.LoadImmediate(bytecode.I8, 12, uint64(int8(100))&0xff)
		em.Arith3(bytecode.AddOp(bytecode.I8), 13, 11, 12)
	})

	machine := New(nil, 0)
	if _, herr := machine.Run(code); herr != nil {
		t.Fatalf("unexpected hard error: %v", herr)
	}
	if machine.LastError != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %s", machine.LastError)
	}
}

func TestDivisionByZeroSetsErrorCode(t *testing.T) {
	code := assembleHalt(t, func(em *bytecode.Emitter) {
		em.LoadImmediate(bytecode.I64, 11, 10)
		em.LoadImmediate(bytecode.I64, 12, 0)
		em.Arith3(bytecode.DivideOp(bytecode.I64), 13, 11, 12)
	})

	machine := New(nil, 0)
	if _, herr := machine.Run(code); herr != nil {
		t.Fatalf("unexpected hard error: %v", herr)
	}
	if machine.LastError != ErrDivisionByZero {
		t.Fatalf("expected ErrDivisionByZero, got %s", machine.LastError)
	}
}

func TestHeapAllocateDeallocateInvariant(t *testing.T) {
	h := NewHeap()
	idx := h.Allocate(16)
	if err := h.Deallocate(idx); err != nil {
		t.Fatalf("deallocate: %v", err)
	}
	before := len(h.sections) - len(h.free)
	idx2 := h.Allocate(8)
	if err := h.Deallocate(idx2); err != nil {
		t.Fatalf("deallocate: %v", err)
	}
	after := len(h.sections) - len(h.free)
	if before != after {
		t.Fatalf("allocate/deallocate with no intermediate use changed live section count: %d -> %d", before, after)
	}
}

func TestHeapAccessAfterDeallocateFaults(t *testing.T) {
	h := NewHeap()
	idx := h.Allocate(4)
	if err := h.Deallocate(idx); err != nil {
		t.Fatalf("deallocate: %v", err)
	}
	if _, err := h.ReadAt(idx, 0, 1); err == nil {
		t.Fatalf("expected a fault reading a deallocated section")
	}
}

func TestHeapZeroLengthSectionIsNull(t *testing.T) {
	h := NewHeap()
	idx := h.Allocate(0)
	_, err := h.ReadAt(idx, 0, 0)
	if err == nil || err.Kind != HardNullPointerException {
		t.Fatalf("expected NullPointerException reading a zero-length section, got %v", err)
	}
}

func TestStackOverflow(t *testing.T) {
	fs := NewFrameStack(2)
	if _, err := fs.Push(); err != nil {
		t.Fatalf("first push: %v", err)
	}
	if _, err := fs.Push(); err != nil {
		t.Fatalf("second push: %v", err)
	}
	if _, err := fs.Push(); err == nil || err.Kind != HardStackOverflow {
		t.Fatalf("expected StackOverflow at max depth, got %v", err)
	}
}

func TestJumpHandlerSkipsForward(t *testing.T) {
	em := bytecode.NewEmitter()
	em.LoadImmediate(bytecode.I64, 11, 1)
	em.Jump("end")
	em.LoadImmediate(bytecode.I64, 11, 99)
	em.Label("end")
	em.Halt(0)
	if err := em.Link(); err != nil {
		t.Fatalf("link: %v", err)
	}

	machine := New(nil, 0)
	if _, herr := machine.Run(em.Code); herr != nil {
		t.Fatalf("unexpected hard error: %v", herr)
	}
	if machine.Frames.Current().Registers[11] != 1 {
		t.Fatalf("expected register 11 to remain 1 (jump skipped the overwrite), got %d",
			machine.Frames.Current().Registers[11])
	}
}

func TestWrappingShiftMatchesWidth(t *testing.T) {
	if got := wrappingShift(8, 1); got != 0 {
		t.Fatalf("shift by 8 on an 8-bit value should wrap to 0, got %d", got)
	}
	if got := wrappingShift(9, 1); got != 1 {
		t.Fatalf("shift by 9 on an 8-bit value should wrap to 1, got %d", got)
	}
}
