package bytecode

import "encoding/binary"

// Reg is a register index, 0..127 (spec.md §4.E register layout). One byte
// on the wire.
type Reg uint8

// Emitter accumulates the binary instruction stream and the constants
// table spec.md §4.E/§6 describe, in the role sentra's bytecode.Chunk
// plays for the stack VM: a byte buffer plus helper methods per operand
// shape, rather than a slice of structured Instruction values (the VM
// expects the flat §4.F wire format, not a Go struct stream).
type Emitter struct {
	Code      []byte
	Constants [][]byte

	// labelFixups records, for each not-yet-resolved label reference, the
	// byte offset of its 8-byte target argument and the label name; Link
	// walks these once every label's byte offset is known (spec.md §4.E:
	// "the VM preprocessor will later resolve" — but the generator must
	// still turn a label *name* into the byte offset the VM's preprocessor
	// expects to find there).
	labelFixups []labelFixup
	labelPos    map[string]int
}

type labelFixup struct {
	codeOffset int
	label      string
}

func NewEmitter() *Emitter {
	return &Emitter{labelPos: make(map[string]int)}
}

// Offset returns the current write position — the byte offset a jump
// target pointing "here" should resolve to.
func (e *Emitter) Offset() int { return len(e.Code) }

func (e *Emitter) writeOpcode(op Opcode) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(op))
	e.Code = append(e.Code, b[:]...)
}

func (e *Emitter) writeReg(r Reg) { e.Code = append(e.Code, byte(r)) }

func (e *Emitter) writeU64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.Code = append(e.Code, b[:]...)
}

// writeImmediate writes a numeric immediate of the width NumType t
// requires, reinterpreting bits the way the VM's typed register reads do.
func (e *Emitter) writeImmediate(t NumType, bits uint64) {
	switch t.Width() {
	case 1:
		e.Code = append(e.Code, byte(bits))
	case 2:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(bits))
		e.Code = append(e.Code, b[:]...)
	case 4:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(bits))
		e.Code = append(e.Code, b[:]...)
	default:
		e.writeU64(bits)
	}
}

// Label marks the current offset as the target for any jump/call that
// references name. It only records the offset; Link patches the fixups.
func (e *Emitter) Label(name string) {
	e.labelPos[name] = e.Offset()
}

// ---------------------------------------------------------------------
// Per-shape emit helpers.
// ---------------------------------------------------------------------

func (e *Emitter) Arith3(op Opcode, dest, a, b Reg) {
	e.writeOpcode(op)
	e.writeReg(dest)
	e.writeReg(a)
	e.writeReg(b)
}

func (e *Emitter) Unary2(op Opcode, dest, src Reg) {
	e.writeOpcode(op)
	e.writeReg(dest)
	e.writeReg(src)
}

func (e *Emitter) IncDec(op Opcode, t NumType, reg Reg, immBits uint64) {
	e.writeOpcode(op)
	e.writeReg(reg)
	e.writeImmediate(t, immBits)
}

func (e *Emitter) LoadImmediate(t NumType, dest Reg, bits uint64) {
	e.writeOpcode(LoadImmediateOp(t))
	e.writeReg(dest)
	e.writeImmediate(t, bits)
}

func (e *Emitter) LoadIndirect(dest, ptr Reg) {
	e.writeOpcode(LoadIndirectOp())
	e.writeReg(dest)
	e.writeReg(ptr)
}

func (e *Emitter) LoadIndirectWithOffset(dest, ptr, offset Reg) {
	e.writeOpcode(LoadIndirectWithOffsetOp())
	e.writeReg(dest)
	e.writeReg(ptr)
	e.writeReg(offset)
}

func (e *Emitter) StoreIndirectWithOffset(ptr, offset, src Reg) {
	e.writeOpcode(StoreIndirectWithOffsetOp())
	e.writeReg(ptr)
	e.writeReg(offset)
	e.writeReg(src)
}

// StoreConstantArray pushes raw onto the constants table and emits the
// instruction that will materialize it into a fresh heap section at
// runtime (spec.md §4.E/§6).
func (e *Emitter) StoreConstantArray(dest Reg, raw []byte) {
	id := uint64(len(e.Constants))
	e.Constants = append(e.Constants, raw)
	e.writeOpcode(StoreConstantArrayOp())
	e.writeReg(dest)
	e.writeU64(id)
}

func (e *Emitter) Allocate(dest, size Reg) {
	e.writeOpcode(AllocateOp())
	e.writeReg(dest)
	e.writeReg(size)
}

func (e *Emitter) Deallocate(ptr Reg) {
	e.writeOpcode(DeallocateOp())
	e.writeReg(ptr)
}

func (e *Emitter) Memcpy(destPtr, destOff, srcPtr, srcOff, size Reg) {
	e.writeOpcode(MemcpyOp())
	e.writeReg(destPtr)
	e.writeReg(destOff)
	e.writeReg(srcPtr)
	e.writeReg(srcOff)
	e.writeReg(size)
}

// Jump-family helpers take a label name; the byte offset is unknown until
// Link, so a placeholder is reserved and recorded as a fixup.
func (e *Emitter) jumpLabel(op Opcode, label string) {
	e.writeOpcode(op)
	e.labelFixups = append(e.labelFixups, labelFixup{codeOffset: e.Offset(), label: label})
	e.writeU64(0)
}

func (e *Emitter) Jump(label string) { e.jumpLabel(JumpOp(), label) }

func (e *Emitter) JumpIf(label string, cond Reg) {
	e.writeOpcode(JumpIfOp())
	e.labelFixups = append(e.labelFixups, labelFixup{codeOffset: e.Offset(), label: label})
	e.writeU64(0)
	e.writeReg(cond)
}

func (e *Emitter) JumpIfFalse(label string, cond Reg) {
	e.writeOpcode(JumpIfFalseOp())
	e.labelFixups = append(e.labelFixups, labelFixup{codeOffset: e.Offset(), label: label})
	e.writeU64(0)
	e.writeReg(cond)
}

func (e *Emitter) Halt(exitCode byte) {
	e.writeOpcode(HaltOp())
	e.Code = append(e.Code, exitCode)
}

// Link patches every recorded label fixup with the label's resolved byte
// offset, once all labels have been emitted. Returns an error naming the
// first undefined label, which would indicate a generator bug (every
// label the generator references must also be emitted by it).
func (e *Emitter) Link() error {
	for _, fx := range e.labelFixups {
		pos, ok := e.labelPos[fx.label]
		if !ok {
			return &UndefinedLabelError{Label: fx.label}
		}
		binary.BigEndian.PutUint64(e.Code[fx.codeOffset:fx.codeOffset+8], uint64(pos))
	}
	return nil
}

type UndefinedLabelError struct{ Label string }

func (e *UndefinedLabelError) Error() string { return "undefined label: " + e.Label }
