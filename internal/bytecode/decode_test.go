package bytecode

import "testing"

// TestEncodeDecodeRoundTrip exercises the register-operand Emitter shapes
// (not StoreConstantArray or the jump shapes) and checks ParseArgs
// recovers the same operands — the
// "preprocessing invertibility" property of spec.md §8, applied at the
// wire-format layer the VM decodes instead of at the preprocessor layer.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	em := NewEmitter()
	em.Arith3(AddOp(I64), 20, 21, 22)
	em.Unary2(MoveOp(U64), 23, 24)
	em.IncDec(IncrementOp(I32), I32, 25, 3)
	em.LoadImmediate(I64, 26, 42)
	em.LoadIndirect(27, 28)
	em.LoadIndirectWithOffset(29, 30, 31)
	em.StoreIndirectWithOffset(32, 33, 34)
	em.Allocate(35, 36)
	em.Deallocate(37)
	em.Memcpy(38, 39, 40, 41, 42)
	em.Halt(7)
	if err := em.Link(); err != nil {
		t.Fatalf("link: %v", err)
	}

	pos := 0
	checkNext := func(wantOp Opcode, wantRegs []Reg) {
		t.Helper()
		if pos+2 > len(em.Code) {
			t.Fatalf("ran out of code at offset %d", pos)
		}
		raw := uint16(em.Code[pos])<<8 | uint16(em.Code[pos+1])
		op := Opcode(raw)
		if op != wantOp {
			t.Fatalf("at offset %d: expected opcode %s, got %s", pos, wantOp, op)
		}
		argLen := ArgLen(op)
		args := em.Code[pos+2 : pos+2+argLen]
		regs, _, _ := ParseArgs(op, args)
		if len(regs) != len(wantRegs) {
			t.Fatalf("opcode %s: expected %d registers, got %d", op, len(wantRegs), len(regs))
		}
		for i := range regs {
			if regs[i] != wantRegs[i] {
				t.Fatalf("opcode %s: register %d mismatch: got %d want %d", op, i, regs[i], wantRegs[i])
			}
		}
		pos += 2 + argLen
	}

	checkNext(AddOp(I64), []Reg{20, 21, 22})
	checkNext(MoveOp(U64), []Reg{23, 24})
	checkNext(IncrementOp(I32), []Reg{25})
	checkNext(LoadImmediateOp(I64), []Reg{26})
	checkNext(LoadIndirectOp(), []Reg{27, 28})
	checkNext(LoadIndirectWithOffsetOp(), []Reg{29, 30, 31})
	checkNext(StoreIndirectWithOffsetOp(), []Reg{32, 33, 34})
	checkNext(AllocateOp(), []Reg{35, 36})
	checkNext(DeallocateOp(), []Reg{37})
	checkNext(MemcpyOp(), []Reg{38, 39, 40, 41, 42})
	checkNext(HaltOp(), nil)
}

func TestIsJumpTarget(t *testing.T) {
	if !IsJumpTarget(JumpOp()) {
		t.Fatalf("Jump must be a jump target")
	}
	if IsJumpTarget(AddOp(I64)) {
		t.Fatalf("Add must not be a jump target")
	}
}
