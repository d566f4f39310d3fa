package vm

import (
	"encoding/binary"

	"github.com/glint-lang/glint/internal/bytecode"
)

// DecodedInst is one instruction after preprocess_bytecode's three passes:
// its opcode, its register operands in encounter order, its single
// non-register operand (if its shape has one), and the handler closure
// bound to its opcode (spec.md §6).
type DecodedInst struct {
	Op      bytecode.Opcode
	Regs    []bytecode.Reg
	Field   bytecode.Field
	Value   uint64 // immediate bits, constant id, or (post rewrite) an instruction-vector index
	Handler instrHandler
}

// Preprocess implements spec.md §6's `preprocess_bytecode(bytes)`: a
// sequential decode pass building a byte-offset-to-instruction-index table,
// a second pass rewriting every jump/call's byte-offset target to that
// instruction index, and a third pass binding each decoded instruction to
// its pre-built handler closure so the execute loop never dispatches on the
// opcode again.
func Preprocess(code []byte) ([]DecodedInst, *HardError) {
	var decoded []DecodedInst
	offsetToIndex := make(map[int]int)

	pos := 0
	for pos < len(code) {
		offsetToIndex[pos] = len(decoded)
		if pos+2 > len(code) {
			return nil, unexpectedEOF(pos, 2, len(code)-pos)
		}
		raw := binary.BigEndian.Uint16(code[pos : pos+2])
		op := bytecode.Opcode(raw)
		if !op.Valid() {
			return nil, invalidOpCode(pos, raw)
		}
		argLen := bytecode.ArgLen(op)
		start := pos + 2
		if start+argLen > len(code) {
			return nil, unexpectedEOF(pos, argLen, len(code)-start)
		}
		args := code[start : start+argLen]
		regs, field, value := bytecode.ParseArgs(op, args)
		decoded = append(decoded, DecodedInst{Op: op, Regs: regs, Field: field, Value: value})
		pos = start + argLen
	}

	for i := range decoded {
		d := &decoded[i]
		if !bytecode.IsJumpTarget(d.Op) {
			continue
		}
		idx, ok := offsetToIndex[int(d.Value)]
		if !ok {
			return nil, invalidOpCode(i, uint16(d.Op))
		}
		d.Value = uint64(idx)
	}

	for i := range decoded {
		decoded[i].Handler = handlerFor(decoded[i].Op)
	}

	return decoded, nil
}
