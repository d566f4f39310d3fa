package vm

import (
	"math"

	"github.com/glint-lang/glint/internal/bytecode"
)

// This file is the generics-based per-NumType instruction handler builder
// spec.md §9 calls for: one generic implementation per arithmetic category
// (signed, unsigned, float), instantiated once per concrete width rather
// than the 110 hand-duplicated (operation, type) bodies (five arithmetic
// and six comparison operations over ten types) a non-generic
// encoding would need. Register storage is always the raw 64-bit pattern;
// these helpers reinterpret the low N bits of that pattern as the concrete
// Go numeric type a NumType names, compute, and widen the result back.

type numSigned interface{ ~int8 | ~int16 | ~int32 | ~int64 }
type numUnsigned interface{ ~uint8 | ~uint16 | ~uint32 | ~uint64 }
type numFloat interface{ ~float32 | ~float64 }

func signedOfBits[T numSigned](bits uint64) T {
	switch any(T(0)).(type) {
	case int8:
		return T(int8(bits))
	case int16:
		return T(int16(bits))
	case int32:
		return T(int32(bits))
	default:
		return T(int64(bits))
	}
}

func unsignedOfBits[T numUnsigned](bits uint64) T {
	switch any(T(0)).(type) {
	case uint8:
		return T(uint8(bits))
	case uint16:
		return T(uint16(bits))
	case uint32:
		return T(uint32(bits))
	default:
		return T(uint64(bits))
	}
}

func floatOfBits[T numFloat](bits uint64) T {
	switch any(T(0)).(type) {
	case float32:
		return T(math.Float32frombits(uint32(bits)))
	default:
		return T(math.Float64frombits(bits))
	}
}

func bitsOfFloat[T numFloat](v T) uint64 {
	switch x := any(v).(type) {
	case float32:
		return uint64(math.Float32bits(x))
	default:
		return math.Float64bits(float64(v))
	}
}

// ---------------------------------------------------------------------
// Signed integer arithmetic — overflow/underflow detected by sign-of-result
// comparison, which is width-agnostic (no per-width MaxInt/MinInt needed).
// ---------------------------------------------------------------------

func addSigned[T numSigned](a, b T) (T, ErrorCode) {
	sum := a + b
	if (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0) {
		if a >= 0 {
			return sum, ErrOverflow
		}
		return sum, ErrUnderflow
	}
	return sum, ErrNone
}

func subSigned[T numSigned](a, b T) (T, ErrorCode) {
	d := a - b
	if (a >= 0) != (b >= 0) && (d >= 0) != (a >= 0) {
		if a >= 0 {
			return d, ErrOverflow
		}
		return d, ErrUnderflow
	}
	return d, ErrNone
}

func mulSigned[T numSigned](a, b T) (T, ErrorCode) {
	p := a * b
	if a != 0 && p/a != b {
		return p, ErrOverflow
	}
	return p, ErrNone
}

func divSigned[T numSigned](a, b T) (T, ErrorCode) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	if b == -1 && -a == a && a != 0 {
		return a, ErrOverflow // MinInt / -1: no positive counterpart exists at this width
	}
	return a / b, ErrNone
}

func modSigned[T numSigned](a, b T) (T, ErrorCode) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a % b, ErrNone
}

// ---------------------------------------------------------------------
// Unsigned integer arithmetic — overflow/underflow detected by wraparound.
// ---------------------------------------------------------------------

func addUnsigned[T numUnsigned](a, b T) (T, ErrorCode) {
	sum := a + b
	if sum < a {
		return sum, ErrOverflow
	}
	return sum, ErrNone
}

func subUnsigned[T numUnsigned](a, b T) (T, ErrorCode) {
	if b > a {
		return a - b, ErrUnderflow
	}
	return a - b, ErrNone
}

func mulUnsigned[T numUnsigned](a, b T) (T, ErrorCode) {
	p := a * b
	if a != 0 && p/a != b {
		return p, ErrOverflow
	}
	return p, ErrNone
}

func divUnsigned[T numUnsigned](a, b T) (T, ErrorCode) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, ErrNone
}

func modUnsigned[T numUnsigned](a, b T) (T, ErrorCode) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a % b, ErrNone
}

// ---------------------------------------------------------------------
// Float arithmetic — NaN/Inf results are reported via FloatInvalidResult
// rather than DivisionByZero, including for x/0.
// ---------------------------------------------------------------------

func floatResult[T numFloat](v T) (T, ErrorCode) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return v, ErrFloatInvalidResult
	}
	return v, ErrNone
}

func addFloat[T numFloat](a, b T) (T, ErrorCode) { return floatResult(a + b) }
func subFloat[T numFloat](a, b T) (T, ErrorCode) { return floatResult(a - b) }
func mulFloat[T numFloat](a, b T) (T, ErrorCode) { return floatResult(a * b) }
func divFloat[T numFloat](a, b T) (T, ErrorCode) { return floatResult(a / b) }
func modFloat[T numFloat](a, b T) (T, ErrorCode) {
	return floatResult(T(math.Mod(float64(a), float64(b))))
}

// ---------------------------------------------------------------------
// arithFn is the uniform, bits-in-bits-out shape every concrete
// instantiation above is wrapped into, so the opcode dispatch table in
// vm.go can hold one function-value per (family, NumType) pair regardless
// of which category built it.
// ---------------------------------------------------------------------

type arithFn func(aBits, bBits uint64) (uint64, ErrorCode)

func wrapSigned[T numSigned](f func(a, b T) (T, ErrorCode)) arithFn {
	return func(aBits, bBits uint64) (uint64, ErrorCode) {
		r, code := f(signedOfBits[T](aBits), signedOfBits[T](bBits))
		return uint64(r), code
	}
}

func wrapUnsigned[T numUnsigned](f func(a, b T) (T, ErrorCode)) arithFn {
	return func(aBits, bBits uint64) (uint64, ErrorCode) {
		r, code := f(unsignedOfBits[T](aBits), unsignedOfBits[T](bBits))
		return uint64(r), code
	}
}

func wrapFloat[T numFloat](f func(a, b T) (T, ErrorCode)) arithFn {
	return func(aBits, bBits uint64) (uint64, ErrorCode) {
		r, code := f(floatOfBits[T](aBits), floatOfBits[T](bBits))
		return bitsOfFloat(r), code
	}
}

// arithTable maps (family, NumType) to its bits-in-bits-out implementation.
// Built once, at package init, by instantiating each generic category
// across its concrete widths — the "per-type handler builder" of spec.md §9.
type arithTable map[bytecode.NumType]arithFn

var addTable, subTable, mulTable, divTable, modTable arithTable

func init() {
	addTable = map[bytecode.NumType]arithFn{
		bytecode.I8:  wrapSigned[int8](addSigned[int8]),
		bytecode.I16: wrapSigned[int16](addSigned[int16]),
		bytecode.I32: wrapSigned[int32](addSigned[int32]),
		bytecode.I64: wrapSigned[int64](addSigned[int64]),
		bytecode.U8:  wrapUnsigned[uint8](addUnsigned[uint8]),
		bytecode.U16: wrapUnsigned[uint16](addUnsigned[uint16]),
		bytecode.U32: wrapUnsigned[uint32](addUnsigned[uint32]),
		bytecode.U64: wrapUnsigned[uint64](addUnsigned[uint64]),
		bytecode.F32: wrapFloat[float32](addFloat[float32]),
		bytecode.F64: wrapFloat[float64](addFloat[float64]),
	}
	subTable = map[bytecode.NumType]arithFn{
		bytecode.I8:  wrapSigned[int8](subSigned[int8]),
		bytecode.I16: wrapSigned[int16](subSigned[int16]),
		bytecode.I32: wrapSigned[int32](subSigned[int32]),
		bytecode.I64: wrapSigned[int64](subSigned[int64]),
		bytecode.U8:  wrapUnsigned[uint8](subUnsigned[uint8]),
		bytecode.U16: wrapUnsigned[uint16](subUnsigned[uint16]),
		bytecode.U32: wrapUnsigned[uint32](subUnsigned[uint32]),
		bytecode.U64: wrapUnsigned[uint64](subUnsigned[uint64]),
		bytecode.F32: wrapFloat[float32](subFloat[float32]),
		bytecode.F64: wrapFloat[float64](subFloat[float64]),
	}
	mulTable = map[bytecode.NumType]arithFn{
		bytecode.I8:  wrapSigned[int8](mulSigned[int8]),
		bytecode.I16: wrapSigned[int16](mulSigned[int16]),
		bytecode.I32: wrapSigned[int32](mulSigned[int32]),
		bytecode.I64: wrapSigned[int64](mulSigned[int64]),
		bytecode.U8:  wrapUnsigned[uint8](mulUnsigned[uint8]),
		bytecode.U16: wrapUnsigned[uint16](mulUnsigned[uint16]),
		bytecode.U32: wrapUnsigned[uint32](mulUnsigned[uint32]),
		bytecode.U64: wrapUnsigned[uint64](mulUnsigned[uint64]),
		bytecode.F32: wrapFloat[float32](mulFloat[float32]),
		bytecode.F64: wrapFloat[float64](mulFloat[float64]),
	}
	divTable = map[bytecode.NumType]arithFn{
		bytecode.I8:  wrapSigned[int8](divSigned[int8]),
		bytecode.I16: wrapSigned[int16](divSigned[int16]),
		bytecode.I32: wrapSigned[int32](divSigned[int32]),
		bytecode.I64: wrapSigned[int64](divSigned[int64]),
		bytecode.U8:  wrapUnsigned[uint8](divUnsigned[uint8]),
		bytecode.U16: wrapUnsigned[uint16](divUnsigned[uint16]),
		bytecode.U32: wrapUnsigned[uint32](divUnsigned[uint32]),
		bytecode.U64: wrapUnsigned[uint64](divUnsigned[uint64]),
		bytecode.F32: wrapFloat[float32](divFloat[float32]),
		bytecode.F64: wrapFloat[float64](divFloat[float64]),
	}
	modTable = map[bytecode.NumType]arithFn{
		bytecode.I8:  wrapSigned[int8](modSigned[int8]),
		bytecode.I16: wrapSigned[int16](modSigned[int16]),
		bytecode.I32: wrapSigned[int32](modSigned[int32]),
		bytecode.I64: wrapSigned[int64](modSigned[int64]),
		bytecode.U8:  wrapUnsigned[uint8](modUnsigned[uint8]),
		bytecode.U16: wrapUnsigned[uint16](modUnsigned[uint16]),
		bytecode.U32: wrapUnsigned[uint32](modUnsigned[uint32]),
		bytecode.U64: wrapUnsigned[uint64](modUnsigned[uint64]),
		bytecode.F32: wrapFloat[float32](modFloat[float32]),
		bytecode.F64: wrapFloat[float64](modFloat[float64]),
	}
}

// ---------------------------------------------------------------------
// Comparisons: always produce a U8 0/1, regardless of operand width.
// ---------------------------------------------------------------------

type compareFn func(aBits, bBits uint64) bool

func wrapCompareSigned[T numSigned](f func(a, b T) bool) compareFn {
	return func(aBits, bBits uint64) bool { return f(signedOfBits[T](aBits), signedOfBits[T](bBits)) }
}
func wrapCompareUnsigned[T numUnsigned](f func(a, b T) bool) compareFn {
	return func(aBits, bBits uint64) bool { return f(unsignedOfBits[T](aBits), unsignedOfBits[T](bBits)) }
}
func wrapCompareFloat[T numFloat](f func(a, b T) bool) compareFn {
	return func(aBits, bBits uint64) bool { return f(floatOfBits[T](aBits), floatOfBits[T](bBits)) }
}

var eqTable, neqTable, ltTable, gtTable, leTable, geTable map[bytecode.NumType]compareFn

func init() {
	eqTable = map[bytecode.NumType]compareFn{
		bytecode.I8:  wrapCompareSigned[int8](func(a, b int8) bool { return a == b }),
		bytecode.I16: wrapCompareSigned[int16](func(a, b int16) bool { return a == b }),
		bytecode.I32: wrapCompareSigned[int32](func(a, b int32) bool { return a == b }),
		bytecode.I64: wrapCompareSigned[int64](func(a, b int64) bool { return a == b }),
		bytecode.U8:  wrapCompareUnsigned[uint8](func(a, b uint8) bool { return a == b }),
		bytecode.U16: wrapCompareUnsigned[uint16](func(a, b uint16) bool { return a == b }),
		bytecode.U32: wrapCompareUnsigned[uint32](func(a, b uint32) bool { return a == b }),
		bytecode.U64: wrapCompareUnsigned[uint64](func(a, b uint64) bool { return a == b }),
		bytecode.F32: wrapCompareFloat[float32](func(a, b float32) bool { return a == b }),
		bytecode.F64: wrapCompareFloat[float64](func(a, b float64) bool { return a == b }),
	}
	neqTable = map[bytecode.NumType]compareFn{
		bytecode.I8:  wrapCompareSigned[int8](func(a, b int8) bool { return a != b }),
		bytecode.I16: wrapCompareSigned[int16](func(a, b int16) bool { return a != b }),
		bytecode.I32: wrapCompareSigned[int32](func(a, b int32) bool { return a != b }),
		bytecode.I64: wrapCompareSigned[int64](func(a, b int64) bool { return a != b }),
		bytecode.U8:  wrapCompareUnsigned[uint8](func(a, b uint8) bool { return a != b }),
		bytecode.U16: wrapCompareUnsigned[uint16](func(a, b uint16) bool { return a != b }),
		bytecode.U32: wrapCompareUnsigned[uint32](func(a, b uint32) bool { return a != b }),
		bytecode.U64: wrapCompareUnsigned[uint64](func(a, b uint64) bool { return a != b }),
		bytecode.F32: wrapCompareFloat[float32](func(a, b float32) bool { return a != b }),
		bytecode.F64: wrapCompareFloat[float64](func(a, b float64) bool { return a != b }),
	}
	ltTable = map[bytecode.NumType]compareFn{
		bytecode.I8:  wrapCompareSigned[int8](func(a, b int8) bool { return a < b }),
		bytecode.I16: wrapCompareSigned[int16](func(a, b int16) bool { return a < b }),
		bytecode.I32: wrapCompareSigned[int32](func(a, b int32) bool { return a < b }),
		bytecode.I64: wrapCompareSigned[int64](func(a, b int64) bool { return a < b }),
		bytecode.U8:  wrapCompareUnsigned[uint8](func(a, b uint8) bool { return a < b }),
		bytecode.U16: wrapCompareUnsigned[uint16](func(a, b uint16) bool { return a < b }),
		bytecode.U32: wrapCompareUnsigned[uint32](func(a, b uint32) bool { return a < b }),
		bytecode.U64: wrapCompareUnsigned[uint64](func(a, b uint64) bool { return a < b }),
		bytecode.F32: wrapCompareFloat[float32](func(a, b float32) bool { return a < b }),
		bytecode.F64: wrapCompareFloat[float64](func(a, b float64) bool { return a < b }),
	}
	gtTable = map[bytecode.NumType]compareFn{
		bytecode.I8:  wrapCompareSigned[int8](func(a, b int8) bool { return a > b }),
		bytecode.I16: wrapCompareSigned[int16](func(a, b int16) bool { return a > b }),
		bytecode.I32: wrapCompareSigned[int32](func(a, b int32) bool { return a > b }),
		bytecode.I64: wrapCompareSigned[int64](func(a, b int64) bool { return a > b }),
		bytecode.U8:  wrapCompareUnsigned[uint8](func(a, b uint8) bool { return a > b }),
		bytecode.U16: wrapCompareUnsigned[uint16](func(a, b uint16) bool { return a > b }),
		bytecode.U32: wrapCompareUnsigned[uint32](func(a, b uint32) bool { return a > b }),
		bytecode.U64: wrapCompareUnsigned[uint64](func(a, b uint64) bool { return a > b }),
		bytecode.F32: wrapCompareFloat[float32](func(a, b float32) bool { return a > b }),
		bytecode.F64: wrapCompareFloat[float64](func(a, b float64) bool { return a > b }),
	}
	leTable = map[bytecode.NumType]compareFn{
		bytecode.I8:  wrapCompareSigned[int8](func(a, b int8) bool { return a <= b }),
		bytecode.I16: wrapCompareSigned[int16](func(a, b int16) bool { return a <= b }),
		bytecode.I32: wrapCompareSigned[int32](func(a, b int32) bool { return a <= b }),
		bytecode.I64: wrapCompareSigned[int64](func(a, b int64) bool { return a <= b }),
		bytecode.U8:  wrapCompareUnsigned[uint8](func(a, b uint8) bool { return a <= b }),
		bytecode.U16: wrapCompareUnsigned[uint16](func(a, b uint16) bool { return a <= b }),
		bytecode.U32: wrapCompareUnsigned[uint32](func(a, b uint32) bool { return a <= b }),
		bytecode.U64: wrapCompareUnsigned[uint64](func(a, b uint64) bool { return a <= b }),
		bytecode.F32: wrapCompareFloat[float32](func(a, b float32) bool { return a <= b }),
		bytecode.F64: wrapCompareFloat[float64](func(a, b float64) bool { return a <= b }),
	}
	geTable = map[bytecode.NumType]compareFn{
		bytecode.I8:  wrapCompareSigned[int8](func(a, b int8) bool { return a >= b }),
		bytecode.I16: wrapCompareSigned[int16](func(a, b int16) bool { return a >= b }),
		bytecode.I32: wrapCompareSigned[int32](func(a, b int32) bool { return a >= b }),
		bytecode.I64: wrapCompareSigned[int64](func(a, b int64) bool { return a >= b }),
		bytecode.U8:  wrapCompareUnsigned[uint8](func(a, b uint8) bool { return a >= b }),
		bytecode.U16: wrapCompareUnsigned[uint16](func(a, b uint16) bool { return a >= b }),
		bytecode.U32: wrapCompareUnsigned[uint32](func(a, b uint32) bool { return a >= b }),
		bytecode.U64: wrapCompareUnsigned[uint64](func(a, b uint64) bool { return a >= b }),
		bytecode.F32: wrapCompareFloat[float32](func(a, b float32) bool { return a >= b }),
		bytecode.F64: wrapCompareFloat[float64](func(a, b float64) bool { return a >= b }),
	}
}

// ---------------------------------------------------------------------
// Bitwise/shift: width determines masking, not signedness, so these work
// directly on the raw bit pattern rather than through the numeric
// categories above.
// ---------------------------------------------------------------------

func maskToWidth(bits uint64, width int) uint64 {
	if width >= 8 {
		return bits
	}
	return bits & ((uint64(1) << (uint64(width) * 8)) - 1)
}

// wrappingShift matches spec.md's Open Question decision: a shift amount at
// or beyond the operand's bit width wraps modulo that width (the original
// Rust implementation's wrapping_shl/wrapping_shr), rather than Go's native
// "shift by >= width yields zero" rule.
func wrappingShift(count uint32, width int) uint32 {
	bits := uint32(width) * 8
	return count % bits
}
