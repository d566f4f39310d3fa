package vm

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/glint-lang/glint/internal/bytecode"
)

// instrHandler is the pre-bound closure shape every decoded instruction
// carries (spec.md §6). A handler mutates VM state directly (registers,
// heap, pc, the non-fatal error code) and returns a *HardError only for a
// fatal condition; a nil return means "continue". Control-flow handlers
// (Jump/JumpIf/JumpIfFalse/CallFunction/Return) set vm.pc themselves; every
// other handler leaves it untouched and the execute loop advances it by one.
type instrHandler func(vm *VM, d *DecodedInst) *HardError

// VM is the register-based virtual machine: a heap of sections, a growable
// call-frame stack, and the execute loop. Grounded on the shape of
// sentra's RegisterVM (pc, registers-via-frame, frames) but carrying
// spec.md's heap/spill/error-code model instead of sentra's dynamic Value
// interpreter.
type VM struct {
	Frames    *FrameStack
	Heap      *Heap
	Constants [][]byte

	pc       int
	halted   bool
	exitCode byte

	// LastError is the non-fatal error code of the most recent register or
	// heap instruction: arithmetic handlers set it from their result and
	// the other register/heap handlers reset it to ErrNone. Jump, call,
	// return, halt and debug handlers leave it unchanged.
	LastError ErrorCode

	// RunID tags this VM instance for log correlation across a run,
	// SPEC_FULL.md's ambient use of github.com/google/uuid.
	RunID uuid.UUID
}

// New constructs a VM with an initial call frame. maxStackDepth <= 0 uses
// spec.md §5's default of roughly two million frames.
func New(constants [][]byte, maxStackDepth int) *VM {
	vm := &VM{
		Frames:    NewFrameStack(maxStackDepth),
		Heap:      NewHeap(),
		Constants: constants,
		RunID:     uuid.New(),
	}
	vm.Frames.Push()
	return vm
}

func (vm *VM) reg(r bytecode.Reg) uint64      { return vm.Frames.Current().Registers[r] }
func (vm *VM) setReg(r bytecode.Reg, v uint64) { vm.Frames.Current().Registers[r] = v }

// Run decodes code and executes it to completion, returning the exit code
// Halt set (0 if the program fell off the end of the instruction stream,
// which spec.md §6 treats as ordinary termination alongside Halt, not a
// fault).
func (vm *VM) Run(code []byte) (byte, *HardError) {
	decoded, err := Preprocess(code)
	if err != nil {
		return 0, err
	}
	return vm.Execute(decoded)
}

// Execute implements spec.md §6's `execute_processed_bytecode`.
func (vm *VM) Execute(decoded []DecodedInst) (byte, *HardError) {
	vm.pc = 0
	for vm.pc >= 0 && vm.pc < len(decoded) {
		d := &decoded[vm.pc]
		prevPC := vm.pc
		if herr := d.Handler(vm, d); herr != nil {
			return vm.exitCode, herr
		}
		if vm.halted {
			break
		}
		if vm.pc == prevPC {
			vm.pc++
		}
	}
	return vm.exitCode, nil
}

// ---------------------------------------------------------------------
// Handler construction (spec.md §9's generics-based per-type builders,
// wired to concrete opcode families here).
// ---------------------------------------------------------------------

func handlerFor(op bytecode.Opcode) instrHandler {
	switch op.FamilyID() {
	case bytecode.FamAdd:
		return arithHandler(addTable)
	case bytecode.FamSubtract:
		return arithHandler(subTable)
	case bytecode.FamMultiply:
		return arithHandler(mulTable)
	case bytecode.FamDivide:
		return arithHandler(divTable)
	case bytecode.FamModulo:
		return arithHandler(modTable)
	case bytecode.FamIncrement:
		return incDecHandler(addTable)
	case bytecode.FamDecrement:
		return incDecHandler(subTable)
	case bytecode.FamBitwiseAnd:
		return bitwiseHandler(func(a, b uint64) uint64 { return a & b })
	case bytecode.FamBitwiseOr:
		return bitwiseHandler(func(a, b uint64) uint64 { return a | b })
	case bytecode.FamBitwiseXor:
		return bitwiseHandler(func(a, b uint64) uint64 { return a ^ b })
	case bytecode.FamBitwiseNot:
		return bitwiseNotHandler
	case bytecode.FamShiftLeft:
		return shiftHandler(true)
	case bytecode.FamShiftRight:
		return shiftHandler(false)
	case bytecode.FamEqual:
		return compareHandler(eqTable)
	case bytecode.FamNotEqual:
		return compareHandler(neqTable)
	case bytecode.FamGreaterThan:
		return compareHandler(gtTable)
	case bytecode.FamGreaterThanOrEqual:
		return compareHandler(geTable)
	case bytecode.FamLessThan:
		return compareHandler(ltTable)
	case bytecode.FamLessThanOrEqual:
		return compareHandler(leTable)
	case bytecode.FamLogicalAnd:
		return logicalBinHandler(func(a, b bool) bool { return a && b })
	case bytecode.FamLogicalOr:
		return logicalBinHandler(func(a, b bool) bool { return a || b })
	case bytecode.FamLogicalXor:
		return logicalBinHandler(func(a, b bool) bool { return a != b })
	case bytecode.FamLogicalNot:
		return logicalNotHandler
	case bytecode.FamMove:
		return moveHandler
	case bytecode.FamLoadImmediate:
		return loadImmediateHandler
	case bytecode.FamLoadIndirect:
		return loadIndirectHandler
	case bytecode.FamLoadIndirectWithOffset:
		return loadIndirectWithOffsetHandler
	case bytecode.FamLoadFromImmediate:
		return loadFromImmediateHandler
	case bytecode.FamStoreIndirectWithOffset:
		return storeIndirectWithOffsetHandler
	case bytecode.FamStoreFromImmediateWithOffset:
		return storeFromImmediateWithOffsetHandler
	case bytecode.FamStoreConstantArray:
		return storeConstantArrayHandler
	case bytecode.FamAllocate:
		return allocateHandler
	case bytecode.FamDeallocate:
		return deallocateHandler
	case bytecode.FamMemSet:
		return memSetHandler
	case bytecode.FamMemcpy:
		return memcpyHandler
	case bytecode.FamJump:
		return jumpHandler
	case bytecode.FamJumpIf:
		return jumpIfHandler
	case bytecode.FamJumpIfFalse:
		return jumpIfFalseHandler
	case bytecode.FamCallFunction:
		return callFunctionHandler
	case bytecode.FamReturn:
		return returnHandler
	case bytecode.FamHalt:
		return haltHandler
	case bytecode.FamDebugPrint:
		return debugPrintHandler
	case bytecode.FamDebugPrintRaw:
		return debugPrintRawHandler
	case bytecode.FamPrint:
		return printHandler
	default:
		return func(vm *VM, d *DecodedInst) *HardError { return invalidOpCode(vm.pc, uint16(d.Op)) }
	}
}

// ---------------------------------------------------------------------
// Arithmetic / comparison / bitwise / logical handlers.
// ---------------------------------------------------------------------

func arithHandler(table arithTable) instrHandler {
	return func(vm *VM, d *DecodedInst) *HardError {
		fn, ok := table[d.Op.TypeIndex()]
		if !ok {
			return segmentationFault("no arithmetic handler for numeric type %s", d.Op.TypeIndex())
		}
		result, code := fn(vm.reg(d.Regs[1]), vm.reg(d.Regs[2]))
		vm.setReg(d.Regs[0], result)
		vm.LastError = code
		return nil
	}
}

func incDecHandler(table arithTable) instrHandler {
	return func(vm *VM, d *DecodedInst) *HardError {
		fn, ok := table[d.Op.TypeIndex()]
		if !ok {
			return segmentationFault("no increment/decrement handler for numeric type %s", d.Op.TypeIndex())
		}
		result, code := fn(vm.reg(d.Regs[0]), d.Value)
		vm.setReg(d.Regs[0], result)
		vm.LastError = code
		return nil
	}
}

func compareHandler(table map[bytecode.NumType]compareFn) instrHandler {
	return func(vm *VM, d *DecodedInst) *HardError {
		fn, ok := table[d.Op.TypeIndex()]
		if !ok {
			return segmentationFault("no comparator for numeric type %s", d.Op.TypeIndex())
		}
		var bits uint64
		if fn(vm.reg(d.Regs[1]), vm.reg(d.Regs[2])) {
			bits = 1
		}
		vm.setReg(d.Regs[0], bits)
		vm.LastError = ErrNone
		return nil
	}
}

func bitwiseHandler(op func(a, b uint64) uint64) instrHandler {
	return func(vm *VM, d *DecodedInst) *HardError {
		width := d.Op.TypeIndex().Width()
		a := maskToWidth(vm.reg(d.Regs[1]), width)
		b := maskToWidth(vm.reg(d.Regs[2]), width)
		vm.setReg(d.Regs[0], maskToWidth(op(a, b), width))
		vm.LastError = ErrNone
		return nil
	}
}

func bitwiseNotHandler(vm *VM, d *DecodedInst) *HardError {
	width := d.Op.TypeIndex().Width()
	a := maskToWidth(vm.reg(d.Regs[1]), width)
	vm.setReg(d.Regs[0], maskToWidth(^a, width))
	vm.LastError = ErrNone
	return nil
}

func shiftHandler(left bool) instrHandler {
	return func(vm *VM, d *DecodedInst) *HardError {
		width := d.Op.TypeIndex().Width()
		a := maskToWidth(vm.reg(d.Regs[1]), width)
		count := wrappingShift(uint32(vm.reg(d.Regs[2])), width)
		var r uint64
		if left {
			r = a << count
		} else {
			r = a >> count
		}
		vm.setReg(d.Regs[0], maskToWidth(r, width))
		vm.LastError = ErrNone
		return nil
	}
}

func truthy(bits uint64) bool { return bits != 0 }

func logicalBinHandler(op func(a, b bool) bool) instrHandler {
	return func(vm *VM, d *DecodedInst) *HardError {
		var bits uint64
		if op(truthy(vm.reg(d.Regs[1])), truthy(vm.reg(d.Regs[2]))) {
			bits = 1
		}
		vm.setReg(d.Regs[0], bits)
		vm.LastError = ErrNone
		return nil
	}
}

func logicalNotHandler(vm *VM, d *DecodedInst) *HardError {
	var bits uint64
	if !truthy(vm.reg(d.Regs[1])) {
		bits = 1
	}
	vm.setReg(d.Regs[0], bits)
	vm.LastError = ErrNone
	return nil
}

func moveHandler(vm *VM, d *DecodedInst) *HardError {
	vm.setReg(d.Regs[0], vm.reg(d.Regs[1]))
	vm.LastError = ErrNone
	return nil
}

// ---------------------------------------------------------------------
// Memory / data-movement handlers.
// ---------------------------------------------------------------------

func loadImmediateHandler(vm *VM, d *DecodedInst) *HardError {
	vm.setReg(d.Regs[0], d.Value)
	vm.LastError = ErrNone
	return nil
}

func loadIndirectHandler(vm *VM, d *DecodedInst) *HardError {
	v, err := vm.Heap.ReadU64At(vm.reg(d.Regs[1]), 0)
	if err != nil {
		return err
	}
	vm.setReg(d.Regs[0], v)
	vm.LastError = ErrNone
	return nil
}

func loadIndirectWithOffsetHandler(vm *VM, d *DecodedInst) *HardError {
	v, err := vm.Heap.ReadU64At(vm.reg(d.Regs[1]), vm.reg(d.Regs[2]))
	if err != nil {
		return err
	}
	vm.setReg(d.Regs[0], v)
	vm.LastError = ErrNone
	return nil
}

func loadFromImmediateHandler(vm *VM, d *DecodedInst) *HardError {
	v, err := vm.Heap.ReadU64At(vm.reg(d.Regs[1]), d.Value)
	if err != nil {
		return err
	}
	vm.setReg(d.Regs[0], v)
	vm.LastError = ErrNone
	return nil
}

func storeIndirectWithOffsetHandler(vm *VM, d *DecodedInst) *HardError {
	if err := vm.Heap.WriteU64At(vm.reg(d.Regs[0]), vm.reg(d.Regs[1]), vm.reg(d.Regs[2])); err != nil {
		return err
	}
	vm.LastError = ErrNone
	return nil
}

func storeFromImmediateWithOffsetHandler(vm *VM, d *DecodedInst) *HardError {
	if err := vm.Heap.WriteU64At(vm.reg(d.Regs[0]), d.Value, vm.reg(d.Regs[1])); err != nil {
		return err
	}
	vm.LastError = ErrNone
	return nil
}

func storeConstantArrayHandler(vm *VM, d *DecodedInst) *HardError {
	if d.Value >= uint64(len(vm.Constants)) {
		return segmentationFault("constant id %d out of range (%d constants)", d.Value, len(vm.Constants))
	}
	vm.setReg(d.Regs[0], vm.Heap.Store(vm.Constants[d.Value]))
	vm.LastError = ErrNone
	return nil
}

func allocateHandler(vm *VM, d *DecodedInst) *HardError {
	vm.setReg(d.Regs[0], vm.Heap.Allocate(vm.reg(d.Regs[1])))
	vm.LastError = ErrNone
	return nil
}

func deallocateHandler(vm *VM, d *DecodedInst) *HardError {
	if err := vm.Heap.Deallocate(vm.reg(d.Regs[0])); err != nil {
		return err
	}
	vm.LastError = ErrNone
	return nil
}

func memSetHandler(vm *VM, d *DecodedInst) *HardError {
	if err := vm.Heap.Set(vm.reg(d.Regs[0]), byte(vm.reg(d.Regs[1])), vm.reg(d.Regs[2])); err != nil {
		return err
	}
	vm.LastError = ErrNone
	return nil
}

func memcpyHandler(vm *VM, d *DecodedInst) *HardError {
	destPtr, destOff := vm.reg(d.Regs[0]), vm.reg(d.Regs[1])
	srcPtr, srcOff, size := vm.reg(d.Regs[2]), vm.reg(d.Regs[3]), vm.reg(d.Regs[4])
	data, err := vm.Heap.ReadAt(srcPtr, srcOff, size)
	if err != nil {
		return err
	}
	buf := append([]byte(nil), data...)
	if err := vm.Heap.WriteAt(destPtr, destOff, buf); err != nil {
		return err
	}
	vm.LastError = ErrNone
	return nil
}

// ---------------------------------------------------------------------
// Control-flow handlers. These, uniquely, set vm.pc themselves.
// ---------------------------------------------------------------------

func jumpHandler(vm *VM, d *DecodedInst) *HardError {
	vm.pc = int(d.Value)
	return nil
}

func jumpIfHandler(vm *VM, d *DecodedInst) *HardError {
	if truthy(vm.reg(d.Regs[0])) {
		vm.pc = int(d.Value)
	} else {
		vm.pc++
	}
	return nil
}

func jumpIfFalseHandler(vm *VM, d *DecodedInst) *HardError {
	if !truthy(vm.reg(d.Regs[0])) {
		vm.pc = int(d.Value)
	} else {
		vm.pc++
	}
	return nil
}

// callFunctionHandler implements spec.md §9's R1-R3 argument-passing
// convention; the front end never emits CallFunction today (no functions to
// call), but the VM still honors it for the textual-bytecode assembler.
func callFunctionHandler(vm *VM, d *DecodedInst) *HardError {
	caller := vm.Frames.Current()
	a1 := caller.Registers[bytecode.RegArgFirst]
	a2 := caller.Registers[bytecode.RegArgFirst+1]
	a3 := caller.Registers[bytecode.RegArgLast]
	returnPC := vm.pc + 1

	callee, err := vm.Frames.Push()
	if err != nil {
		return err
	}
	callee.Registers[bytecode.RegArgFirst] = a1
	callee.Registers[bytecode.RegArgFirst+1] = a2
	callee.Registers[bytecode.RegArgLast] = a3
	callee.ReturnPC = returnPC
	vm.pc = int(d.Value)
	return nil
}

func returnHandler(vm *VM, d *DecodedInst) *HardError {
	callee := vm.Frames.Current()
	retVal := callee.Registers[bytecode.RegReturn]
	returnPC := callee.ReturnPC
	if err := vm.Frames.Pop(); err != nil {
		return err
	}
	caller := vm.Frames.Current()
	if caller == nil {
		return stackUnderflow()
	}
	caller.Registers[bytecode.RegReturn] = retVal
	vm.pc = returnPC
	return nil
}

func haltHandler(vm *VM, d *DecodedInst) *HardError {
	vm.halted = true
	vm.exitCode = byte(d.Value)
	return nil
}

// ---------------------------------------------------------------------
// Debug/IO handlers.
// ---------------------------------------------------------------------

func debugPrintHandler(vm *VM, d *DecodedInst) *HardError {
	fmt.Println(formatTyped(d.Op.TypeIndex(), vm.reg(d.Regs[0])))
	return nil
}

func debugPrintRawHandler(vm *VM, d *DecodedInst) *HardError {
	fmt.Printf("0x%016x\n", vm.reg(d.Regs[0]))
	return nil
}

func printHandler(vm *VM, d *DecodedInst) *HardError {
	data, err := vm.Heap.ReadAt(vm.reg(d.Regs[0]), vm.reg(d.Regs[1]), vm.reg(d.Regs[2]))
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func formatTyped(nt bytecode.NumType, bits uint64) string {
	switch nt {
	case bytecode.F32:
		return fmt.Sprintf("%v", math.Float32frombits(uint32(bits)))
	case bytecode.F64:
		return fmt.Sprintf("%v", math.Float64frombits(bits))
	case bytecode.I8:
		return fmt.Sprintf("%d", int8(bits))
	case bytecode.I16:
		return fmt.Sprintf("%d", int16(bits))
	case bytecode.I32:
		return fmt.Sprintf("%d", int32(bits))
	case bytecode.I64:
		return fmt.Sprintf("%d", int64(bits))
	case bytecode.U8:
		return fmt.Sprintf("%d", uint8(bits))
	case bytecode.U16:
		return fmt.Sprintf("%d", uint16(bits))
	case bytecode.U32:
		return fmt.Sprintf("%d", uint32(bits))
	default:
		return fmt.Sprintf("%d", bits)
	}
}
