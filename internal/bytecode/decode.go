package bytecode

import "encoding/binary"

// Field tags the single non-register operand an opcode's shape may carry,
// so the VM's decoder (which lives in a different package, since it also
// needs the heap/frame machinery) doesn't need to re-derive the wire layout
// ArgLen already encodes here.
type Field int

const (
	FieldNone Field = iota
	FieldImmediate
	FieldU64
	FieldByte
)

// ParseArgs decodes the ArgLen(op)-byte argument slice for op into its
// register operands, in encounter order, plus the single non-register
// field the shape carries (if any). It is the mirror image of Emitter's
// per-shape Arith3/Unary2/LoadImmediate/... methods: same byte order, read
// instead of written.
func ParseArgs(op Opcode, args []byte) (regs []Reg, field Field, value uint64) {
	switch op.family() {
	case famAdd, famSubtract, famMultiply, famDivide, famModulo,
		famBitwiseAnd, famBitwiseOr, famBitwiseXor,
		famShiftLeft, famShiftRight,
		famEqual, famNotEqual, famGreaterThan, famGreaterThanOrEqual, famLessThan, famLessThanOrEqual,
		famLogicalAnd, famLogicalOr, famLogicalXor:
		return []Reg{Reg(args[0]), Reg(args[1]), Reg(args[2])}, FieldNone, 0
	case famBitwiseNot, famLogicalNot, famMove:
		return []Reg{Reg(args[0]), Reg(args[1])}, FieldNone, 0
	case famIncrement, famDecrement:
		return []Reg{Reg(args[0])}, FieldImmediate, readImmediate(op.typeIndex(), args[1:])
	case famLoadImmediate:
		return []Reg{Reg(args[0])}, FieldImmediate, readImmediate(op.typeIndex(), args[1:])
	case famLoadIndirect:
		return []Reg{Reg(args[0]), Reg(args[1])}, FieldNone, 0
	case famLoadIndirectWithOffset:
		return []Reg{Reg(args[0]), Reg(args[1]), Reg(args[2])}, FieldNone, 0
	case famLoadFromImmediate:
		return []Reg{Reg(args[0]), Reg(args[1])}, FieldU64, binary.BigEndian.Uint64(args[2:10])
	case famStoreIndirectWithOffset:
		return []Reg{Reg(args[0]), Reg(args[1]), Reg(args[2])}, FieldNone, 0
	case famStoreFromImmediateWithOffset:
		off := binary.BigEndian.Uint64(args[1:9])
		return []Reg{Reg(args[0]), Reg(args[9])}, FieldU64, off
	case famStoreConstantArray:
		return []Reg{Reg(args[0])}, FieldU64, binary.BigEndian.Uint64(args[1:9])
	case famAllocate:
		return []Reg{Reg(args[0]), Reg(args[1])}, FieldNone, 0
	case famDeallocate:
		return []Reg{Reg(args[0])}, FieldNone, 0
	case famMemSet:
		return []Reg{Reg(args[0]), Reg(args[1]), Reg(args[2])}, FieldNone, 0
	case famMemcpy:
		return []Reg{Reg(args[0]), Reg(args[1]), Reg(args[2]), Reg(args[3]), Reg(args[4])}, FieldNone, 0
	case famJump:
		return nil, FieldU64, binary.BigEndian.Uint64(args[0:8])
	case famJumpIf, famJumpIfFalse:
		target := binary.BigEndian.Uint64(args[0:8])
		return []Reg{Reg(args[8])}, FieldU64, target
	case famCallFunction:
		return nil, FieldU64, binary.BigEndian.Uint64(args[0:8])
	case famReturn:
		return nil, FieldNone, 0
	case famHalt:
		return nil, FieldByte, uint64(args[0])
	case famDebugPrint:
		return []Reg{Reg(args[0])}, FieldNone, 0
	case famDebugPrintRaw:
		return []Reg{Reg(args[0])}, FieldNone, 0
	case famPrint:
		return []Reg{Reg(args[0]), Reg(args[1]), Reg(args[2])}, FieldNone, 0
	default:
		return nil, FieldNone, 0
	}
}

func readImmediate(t NumType, b []byte) uint64 {
	switch t.Width() {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	default:
		return binary.BigEndian.Uint64(b)
	}
}

// IsJumpTarget reports whether op's Field value is a byte offset that the
// VM's preprocessing pass must rewrite to an instruction-vector index
// before execution (spec.md §6).
func IsJumpTarget(op Opcode) bool {
	switch op.family() {
	case famJump, famJumpIf, famJumpIfFalse, famCallFunction:
		return true
	default:
		return false
	}
}

// Family exposes the opcode's family as a small opaque comparable value, for
// callers (the VM's handler-binding pass) that need to group opcodes by
// family without duplicating spec.md's catalogue of family names.
type Family = family

func (op Opcode) FamilyID() Family { return op.family() }

var (
	FamAdd                          = famAdd
	FamSubtract                     = famSubtract
	FamMultiply                     = famMultiply
	FamDivide                       = famDivide
	FamModulo                       = famModulo
	FamIncrement                    = famIncrement
	FamDecrement                    = famDecrement
	FamBitwiseAnd                   = famBitwiseAnd
	FamBitwiseOr                    = famBitwiseOr
	FamBitwiseXor                   = famBitwiseXor
	FamBitwiseNot                   = famBitwiseNot
	FamShiftLeft                    = famShiftLeft
	FamShiftRight                   = famShiftRight
	FamEqual                        = famEqual
	FamNotEqual                     = famNotEqual
	FamGreaterThan                  = famGreaterThan
	FamGreaterThanOrEqual           = famGreaterThanOrEqual
	FamLessThan                     = famLessThan
	FamLessThanOrEqual              = famLessThanOrEqual
	FamLogicalAnd                   = famLogicalAnd
	FamLogicalOr                    = famLogicalOr
	FamLogicalXor                   = famLogicalXor
	FamLogicalNot                   = famLogicalNot
	FamMove                         = famMove
	FamLoadImmediate                = famLoadImmediate
	FamLoadIndirect                 = famLoadIndirect
	FamLoadIndirectWithOffset       = famLoadIndirectWithOffset
	FamLoadFromImmediate            = famLoadFromImmediate
	FamStoreIndirectWithOffset      = famStoreIndirectWithOffset
	FamStoreFromImmediateWithOffset = famStoreFromImmediateWithOffset
	FamStoreConstantArray           = famStoreConstantArray
	FamAllocate                     = famAllocate
	FamDeallocate                   = famDeallocate
	FamMemSet                       = famMemSet
	FamMemcpy                       = famMemcpy
	FamJump                         = famJump
	FamJumpIf                       = famJumpIf
	FamJumpIfFalse                  = famJumpIfFalse
	FamCallFunction                 = famCallFunction
	FamReturn                       = famReturn
	FamHalt                         = famHalt
	FamDebugPrint                   = famDebugPrint
	FamDebugPrintRaw                = famDebugPrintRaw
	FamPrint                        = famPrint
)

// TypeIndex exposes the NumType an opcode with per-type variants is
// specialized for.
func (op Opcode) TypeIndex() NumType { return op.typeIndex() }
