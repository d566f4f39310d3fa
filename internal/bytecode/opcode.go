package bytecode

import "fmt"

// Opcode is the 16-bit big-endian tag spec.md §4.F/§6 fixes for every
// instruction record. Rather than hand-writing the ~230 near-identical
// (operation, numeric type) variants spec.md §9 warns against, each family
// of opcodes (Add, Subtract, BitwiseAnd, Equal, ...) occupies a fixed-width
// band of the opcode space; the concrete numeric type, when the family has
// one, is the band offset. This is the Go-generics-era equivalent of the
// sentra-style per-type template: one family constant, one formula, no
// duplication, and decode is a division and a modulo rather than a lookup
// table — the constant-time dispatch contract of spec.md §9 starts here.
type Opcode uint16

// family is the band index; opFamilyWidth is generous headroom (AllNumTypes
// has 10 members, IntegerTypes 8) so a family's opcodes never collide with
// the next family's band.
type family uint16

const opFamilyWidth = 16

const (
	famAdd family = iota
	famSubtract
	famMultiply
	famDivide
	famModulo
	famIncrement
	famDecrement

	famBitwiseAnd
	famBitwiseOr
	famBitwiseXor
	famBitwiseNot
	famShiftLeft
	famShiftRight

	famEqual
	famNotEqual
	famGreaterThan
	famGreaterThanOrEqual
	famLessThan
	famLessThanOrEqual

	famLogicalAnd
	famLogicalOr
	famLogicalXor
	famLogicalNot

	famMove
	famLoadImmediate

	famLoadIndirect
	famLoadIndirectWithOffset
	famLoadFromImmediate
	famStoreIndirectWithOffset
	famStoreFromImmediateWithOffset
	famStoreConstantArray

	famAllocate
	famDeallocate
	famMemSet
	famMemcpy

	famJump
	famJumpIf
	famJumpIfFalse
	famCallFunction
	famReturn
	famHalt

	famDebugPrint
	famDebugPrintRaw
	famPrint

	familyCount
)

func (f family) base() Opcode { return Opcode(f) * opFamilyWidth }

// forType builds the opcode for a per-numeric-type family.
func (f family) forType(t NumType) Opcode { return f.base() + Opcode(t) }

// plain builds the opcode for a family with no type variants.
func (f family) plain() Opcode { return f.base() }

func (op Opcode) family() family { return family(op / opFamilyWidth) }
func (op Opcode) typeIndex() NumType { return NumType(op % opFamilyWidth) }

// Per-family constructors, named after the spec.md §4.F catalogue.
func AddOp(t NumType) Opcode      { return famAdd.forType(t) }
func SubtractOp(t NumType) Opcode { return famSubtract.forType(t) }
func MultiplyOp(t NumType) Opcode { return famMultiply.forType(t) }
func DivideOp(t NumType) Opcode   { return famDivide.forType(t) }
func ModuloOp(t NumType) Opcode   { return famModulo.forType(t) }
func IncrementOp(t NumType) Opcode { return famIncrement.forType(t) }
func DecrementOp(t NumType) Opcode { return famDecrement.forType(t) }

func BitwiseAndOp(t NumType) Opcode { return famBitwiseAnd.forType(t) }
func BitwiseOrOp(t NumType) Opcode  { return famBitwiseOr.forType(t) }
func BitwiseXorOp(t NumType) Opcode { return famBitwiseXor.forType(t) }
func BitwiseNotOp(t NumType) Opcode { return famBitwiseNot.forType(t) }
func ShiftLeftOp(t NumType) Opcode  { return famShiftLeft.forType(t) }
func ShiftRightOp(t NumType) Opcode { return famShiftRight.forType(t) }

func EqualOp(t NumType) Opcode              { return famEqual.forType(t) }
func NotEqualOp(t NumType) Opcode           { return famNotEqual.forType(t) }
func GreaterThanOp(t NumType) Opcode        { return famGreaterThan.forType(t) }
func GreaterThanOrEqualOp(t NumType) Opcode { return famGreaterThanOrEqual.forType(t) }
func LessThanOp(t NumType) Opcode           { return famLessThan.forType(t) }
func LessThanOrEqualOp(t NumType) Opcode    { return famLessThanOrEqual.forType(t) }

func LogicalAndOp() Opcode { return famLogicalAnd.plain() }
func LogicalOrOp() Opcode  { return famLogicalOr.plain() }
func LogicalXorOp() Opcode { return famLogicalXor.plain() }
func LogicalNotOp() Opcode { return famLogicalNot.plain() }

func MoveOp(t NumType) Opcode          { return famMove.forType(t) }
func LoadImmediateOp(t NumType) Opcode { return famLoadImmediate.forType(t) }

func LoadIndirectOp() Opcode               { return famLoadIndirect.plain() }
func LoadIndirectWithOffsetOp() Opcode     { return famLoadIndirectWithOffset.plain() }
func LoadFromImmediateOp() Opcode          { return famLoadFromImmediate.plain() }
func StoreIndirectWithOffsetOp() Opcode    { return famStoreIndirectWithOffset.plain() }
func StoreFromImmediateWithOffsetOp() Opcode { return famStoreFromImmediateWithOffset.plain() }
func StoreConstantArrayOp() Opcode         { return famStoreConstantArray.plain() }

func AllocateOp() Opcode   { return famAllocate.plain() }
func DeallocateOp() Opcode { return famDeallocate.plain() }
func MemSetOp() Opcode     { return famMemSet.plain() }
func MemcpyOp() Opcode     { return famMemcpy.plain() }

func JumpOp() Opcode         { return famJump.plain() }
func JumpIfOp() Opcode       { return famJumpIf.plain() }
func JumpIfFalseOp() Opcode  { return famJumpIfFalse.plain() }
func CallFunctionOp() Opcode { return famCallFunction.plain() }
func ReturnOp() Opcode       { return famReturn.plain() }
func HaltOp() Opcode         { return famHalt.plain() }

func DebugPrintOp(t NumType) Opcode { return famDebugPrint.forType(t) }
func DebugPrintRawOp() Opcode       { return famDebugPrintRaw.plain() }
func PrintOp() Opcode               { return famPrint.plain() }

var familyNames = map[family]string{
	famAdd: "Add", famSubtract: "Subtract", famMultiply: "Multiply", famDivide: "Divide",
	famModulo: "Modulo", famIncrement: "Increment", famDecrement: "Decrement",
	famBitwiseAnd: "BitwiseAnd", famBitwiseOr: "BitwiseOr", famBitwiseXor: "BitwiseXor",
	famBitwiseNot: "BitwiseNot", famShiftLeft: "ShiftLeft", famShiftRight: "ShiftRight",
	famEqual: "Equal", famNotEqual: "NotEqual", famGreaterThan: "GreaterThan",
	famGreaterThanOrEqual: "GreaterThanOrEqual", famLessThan: "LessThan",
	famLessThanOrEqual: "LessThanOrEqual",
	famLogicalAnd: "LogicalAnd", famLogicalOr: "LogicalOr", famLogicalXor: "LogicalXor",
	famLogicalNot: "LogicalNot",
	famMove: "Move", famLoadImmediate: "LoadImmediate",
	famLoadIndirect: "LoadIndirect", famLoadIndirectWithOffset: "LoadIndirectWithOffset",
	famLoadFromImmediate: "LoadFromImmediate",
	famStoreIndirectWithOffset: "StoreIndirectWithOffset",
	famStoreFromImmediateWithOffset: "StoreFromImmediateWithOffset",
	famStoreConstantArray: "StoreConstantArray",
	famAllocate: "Allocate", famDeallocate: "Deallocate", famMemSet: "MemSet", famMemcpy: "Memcpy",
	famJump: "Jump", famJumpIf: "JumpIf", famJumpIfFalse: "JumpIfFalse",
	famCallFunction: "CallFunction", famReturn: "Return", famHalt: "Halt",
	famDebugPrint: "DebugPrint", famDebugPrintRaw: "DebugPrintRaw", famPrint: "Print",
}

// perTypeFamily reports whether a family's opcodes are specialized per
// NumType (so its String() should append the type suffix).
var perTypeFamily = map[family]bool{
	famAdd: true, famSubtract: true, famMultiply: true, famDivide: true, famModulo: true,
	famIncrement: true, famDecrement: true,
	famBitwiseAnd: true, famBitwiseOr: true, famBitwiseXor: true, famBitwiseNot: true,
	famShiftLeft: true, famShiftRight: true,
	famEqual: true, famNotEqual: true, famGreaterThan: true, famGreaterThanOrEqual: true,
	famLessThan: true, famLessThanOrEqual: true,
	famMove: true, famLoadImmediate: true, famDebugPrint: true,
}

// String renders an opcode the way a disassembler or the (external)
// documentation generator would: "AddI64", "JumpIfFalse", "Halt".
func (op Opcode) String() string {
	f := op.family()
	name, ok := familyNames[f]
	if !ok {
		return fmt.Sprintf("Opcode(%d)", uint16(op))
	}
	if perTypeFamily[f] {
		return name + capitalize(op.typeIndex().String())
	}
	return name
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// Valid reports whether op decodes to a known family with, for per-type
// families, a type index within the family's valid set — the check the
// VM's preprocessing pass (spec.md §4.F) uses to raise InvalidOpCode.
func (op Opcode) Valid() bool {
	f := op.family()
	if f >= familyCount {
		return false
	}
	if !perTypeFamily[f] {
		return op.typeIndex() == 0
	}
	t := op.typeIndex()
	if f == famBitwiseAnd || f == famBitwiseOr || f == famBitwiseXor || f == famBitwiseNot ||
		f == famShiftLeft || f == famShiftRight {
		for _, it := range IntegerTypes {
			if it == t {
				return true
			}
		}
		return false
	}
	for _, nt := range AllNumTypes {
		if nt == t {
			return true
		}
	}
	return false
}

// Catalogue lists every valid opcode with its argument byte length, the
// interface spec.md §1 reserves for an external documentation generator
// (solid-snake-vm's bin/docgen.rs played this role in the original).
func Catalogue() []CatalogueEntry {
	var out []CatalogueEntry
	for f := family(0); f < familyCount; f++ {
		if !perTypeFamily[f] {
			op := f.plain()
			out = append(out, CatalogueEntry{Opcode: op, Name: op.String(), ArgBytes: ArgLen(op)})
			continue
		}
		types := AllNumTypes
		switch f {
		case famBitwiseAnd, famBitwiseOr, famBitwiseXor, famBitwiseNot, famShiftLeft, famShiftRight:
			types = IntegerTypes
		}
		for _, t := range types {
			op := f.forType(t)
			out = append(out, CatalogueEntry{Opcode: op, Name: op.String(), ArgBytes: ArgLen(op)})
		}
	}
	return out
}

type CatalogueEntry struct {
	Opcode   Opcode
	Name     string
	ArgBytes int
}

// ArgLen returns the fixed argument byte length for op, per the per-opcode
// layout spec.md §4.F/§6 fixes. Register arguments are 1 byte; numeric
// immediates match the opcode's NumType width; constant/jump-target
// references are 8 bytes.
func ArgLen(op Opcode) int {
	const reg = 1
	const u64 = 8
	f := op.family()
	switch f {
	case famAdd, famSubtract, famMultiply, famDivide, famModulo,
		famBitwiseAnd, famBitwiseOr, famBitwiseXor,
		famShiftLeft, famShiftRight,
		famEqual, famNotEqual, famGreaterThan, famGreaterThanOrEqual, famLessThan, famLessThanOrEqual,
		famLogicalAnd, famLogicalOr, famLogicalXor:
		return 3 * reg // dest, src1, src2
	case famBitwiseNot, famLogicalNot, famMove:
		return 2 * reg // dest, src
	case famIncrement, famDecrement:
		return reg + op.typeIndex().Width() // regsrc, imm
	case famLoadImmediate:
		return reg + op.typeIndex().Width() // dest, imm
	case famLoadIndirect:
		return 2 * reg // dest, ptrReg
	case famLoadIndirectWithOffset:
		return 3 * reg // dest, ptrReg, offsetReg
	case famLoadFromImmediate:
		return 2*reg + u64 // dest, ptrReg, immOffset
	case famStoreIndirectWithOffset:
		return 3 * reg // ptrReg, offsetReg, srcReg
	case famStoreFromImmediateWithOffset:
		return 2*reg + u64 // ptrReg, immOffset, srcReg
	case famStoreConstantArray:
		return reg + u64 // destReg, constID
	case famAllocate:
		return 2 * reg // destReg, sizeReg
	case famDeallocate:
		return reg // ptrReg
	case famMemSet:
		return 3 * reg // ptrReg, valReg, sizeReg
	case famMemcpy:
		return 5 * reg // destPtr, destOff, srcPtr, srcOff, sizeReg
	case famJump:
		return u64 // target
	case famJumpIf, famJumpIfFalse:
		return u64 + reg // target, reg
	case famCallFunction:
		return u64 // target
	case famReturn:
		return 0
	case famHalt:
		return 1 // exit code, u8
	case famDebugPrint:
		return reg
	case famDebugPrintRaw:
		return reg
	case famPrint:
		return 3 * reg // sectionReg, offsetReg, lengthReg
	default:
		return 0
	}
}
