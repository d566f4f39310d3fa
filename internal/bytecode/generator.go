package bytecode

import (
	"math"

	"github.com/glint-lang/glint/internal/diag"
	"github.com/glint-lang/glint/internal/ir"
)

// Generate lowers Typed IR to the binary instruction stream plus constants
// table, spec.md §6's `lower_ir_to_bytecode(typed_ir, var_count)` entry
// point. It plays the role sentra's compregister.Compiler plays for the
// stack-of-locals compiler, rebuilt around spec.md §4.E's fixed register
// layout and spill table instead of sentra's unbounded local-slot model.
func Generate(instructions []ir.Inst, vars []ir.Var, varCount int) ([]byte, [][]byte, error) {
	g := newGenerator(vars, varCount)
	g.emitSpillTableInit()
	for _, inst := range instructions {
		if err := g.emitInst(inst); err != nil {
			return nil, nil, err
		}
	}
	g.emitSpillTableTeardown()
	g.em.Halt(0)
	if err := g.em.Link(); err != nil {
		return nil, nil, err
	}
	return g.em.Code, g.em.Constants, nil
}

type generator struct {
	em      *Emitter
	vars    []ir.Var
	alloc   *allocator
	scratch *scratchPool
}

func newGenerator(vars []ir.Var, varCount int) *generator {
	return &generator{
		em:      NewEmitter(),
		vars:    vars,
		alloc:   newAllocator(varCount),
		scratch: newScratchPool(),
	}
}

func ice(format string, args ...interface{}) error {
	return diag.InternalCompilerError(diag.StageBytecode, diag.Span{}, format, args...)
}

// ---------------------------------------------------------------------
// Register allocator (spec.md §4.E).
// ---------------------------------------------------------------------

// allocator assigns every variable id, in id order, either a usable
// register (R11..R127, LIFO) or a spill-table offset once the register
// pool runs dry — the "linear register allocation with spill-table
// support" of spec.md §2's bytecode-generator row. There is no eviction:
// once assigned, an id's home never changes.
type allocator struct {
	free      []Reg
	reg       map[ir.VarID]Reg
	spill     map[ir.VarID]int
	nextSpill int
}

func newAllocator(varCount int) *allocator {
	a := &allocator{reg: make(map[ir.VarID]Reg), spill: make(map[ir.VarID]int)}
	for r := Reg(RegUsableTo); r >= Reg(RegUsableFrom); r-- {
		a.free = append(a.free, r)
	}
	for id := 0; id < varCount; id++ {
		a.assign(ir.VarID(id))
	}
	return a
}

func (a *allocator) assign(id ir.VarID) {
	if n := len(a.free); n > 0 {
		a.reg[id] = a.free[n-1]
		a.free = a.free[:n-1]
		return
	}
	a.spill[id] = a.nextSpill
	a.nextSpill++
}

// scratchPool is the six-slot R4..R9 LIFO pool spec.md §4.E reserves for
// address computation, length counters, and paging spilled variables in
// and out of the spill table.
type scratchPool struct{ free []Reg }

func newScratchPool() *scratchPool {
	return &scratchPool{free: []Reg{RegScratchTo, RegScratchTo - 1, RegScratchTo - 2, RegScratchTo - 3, RegScratchTo - 4, RegScratchFrom}}
}

func (p *scratchPool) alloc() (Reg, error) {
	if len(p.free) == 0 {
		return 0, ice("scratch register pool exhausted")
	}
	r := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return r, nil
}

func (p *scratchPool) release(r Reg) { p.free = append(p.free, r) }

// readReg materializes id's current value into a register, per spec.md
// §4.E's get_var_register: direct if id owns a register, otherwise paged
// in from the spill table through a transient offset scratch into a
// persistent-for-this-use value scratch. The caller must invoke the
// returned release once done reading.
func (g *generator) readReg(id ir.VarID) (Reg, func(), error) {
	if r, ok := g.alloc.reg[id]; ok {
		return r, func() {}, nil
	}
	off, ok := g.alloc.spill[id]
	if !ok {
		return 0, nil, ice("variable %d has neither a register nor a spill slot", id)
	}
	offReg, err := g.scratch.alloc()
	if err != nil {
		return 0, nil, err
	}
	g.em.LoadImmediate(U64, offReg, uint64(off*8))
	valReg, err := g.scratch.alloc()
	if err != nil {
		g.scratch.release(offReg)
		return 0, nil, err
	}
	g.em.LoadIndirectWithOffset(valReg, Reg(RegSpillTable), offReg)
	g.scratch.release(offReg)
	return valReg, func() { g.scratch.release(valReg) }, nil
}

// writeTarget returns a register to compute id's new value into and a
// commit function that, for a spilled id, pages the computed value back
// out to the spill table. For a register-resident id the register IS the
// permanent home, so commit is a no-op.
func (g *generator) writeTarget(id ir.VarID) (Reg, func() error, error) {
	if r, ok := g.alloc.reg[id]; ok {
		return r, func() error { return nil }, nil
	}
	off, ok := g.alloc.spill[id]
	if !ok {
		return 0, nil, ice("variable %d has neither a register nor a spill slot", id)
	}
	valReg, err := g.scratch.alloc()
	if err != nil {
		return 0, nil, err
	}
	commit := func() error {
		offReg, err := g.scratch.alloc()
		if err != nil {
			return err
		}
		g.em.LoadImmediate(U64, offReg, uint64(off*8))
		g.em.StoreIndirectWithOffset(Reg(RegSpillTable), offReg, valReg)
		g.scratch.release(offReg)
		g.scratch.release(valReg)
		return nil
	}
	return valReg, commit, nil
}

// ---------------------------------------------------------------------
// Spill-table lifecycle (spec.md §4.E).
// ---------------------------------------------------------------------

func (g *generator) emitSpillTableInit() {
	scratch, _ := g.scratch.alloc()
	g.em.LoadImmediate(U64, scratch, uint64(g.alloc.nextSpill*8))
	g.em.Allocate(Reg(RegSpillTable), scratch)
	g.scratch.release(scratch)
}

func (g *generator) emitSpillTableTeardown() {
	g.em.Deallocate(Reg(RegSpillTable))
}

// ---------------------------------------------------------------------
// Instruction lowering.
// ---------------------------------------------------------------------

func (g *generator) emitInst(inst ir.Inst) error {
	switch inst.Kind {
	case ir.InstAssign:
		return g.emitAssign(inst)
	case ir.InstDrop:
		return g.emitDrop(inst)
	case ir.InstLabel:
		g.em.Label(inst.Label)
		return nil
	case ir.InstJump:
		g.em.Jump(inst.Label)
		return nil
	case ir.InstJumpIfTrue:
		cond, release, err := g.readReg(inst.Condition)
		if err != nil {
			return err
		}
		g.em.JumpIf(inst.Label, cond)
		release()
		return nil
	case ir.InstJumpIfFalse:
		cond, release, err := g.readReg(inst.Condition)
		if err != nil {
			return err
		}
		g.em.JumpIfFalse(inst.Label, cond)
		release()
		return nil
	case ir.InstCall, ir.InstReturn:
		return ice("the front end does not emit Call/Return (spec.md §9)")
	default:
		return ice("unhandled IR instruction kind %d", inst.Kind)
	}
}

// emitDrop frees the heap section backing a string-typed variable (the
// only Processed type codegen backs by a heap allocation). Every other
// type's Drop is a bookkeeping no-op at the bytecode layer: the
// allocator never recycles a register or spill slot mid-program
// (spec.md §4.E: "no eviction scheme").
func (g *generator) emitDrop(inst ir.Inst) error {
	if int(inst.Var) >= len(g.vars) || g.vars[inst.Var].Type.Kind != ir.TypeString {
		return nil
	}
	ptr, release, err := g.readReg(inst.Var)
	if err != nil {
		return err
	}
	g.em.Deallocate(ptr)
	release()
	return nil
}

func (g *generator) emitAssign(inst ir.Inst) error {
	dest, commit, err := g.writeTarget(inst.Target)
	if err != nil {
		return err
	}
	if err := g.emitExprInto(dest, inst.Target, inst.Value); err != nil {
		return err
	}
	return commit()
}

func (g *generator) varType(id ir.VarID) ir.Type {
	if int(id) < len(g.vars) {
		return g.vars[id].Type
	}
	return ir.Indeterminate()
}

func (g *generator) emitExprInto(dest Reg, targetID ir.VarID, e ir.Expr) error {
	switch e.Kind {
	case ir.ExprConstBool:
		g.em.LoadImmediate(U8, dest, boolBits(e.Bool))
		return nil
	case ir.ExprConstInt:
		g.em.LoadImmediate(I64, dest, uint64(e.Int))
		return nil
	case ir.ExprConstUInt:
		g.em.LoadImmediate(U64, dest, e.UInt)
		return nil
	case ir.ExprConstFloat:
		g.em.LoadImmediate(F64, dest, math.Float64bits(e.Float))
		return nil
	case ir.ExprConstString:
		g.em.StoreConstantArray(dest, encodeStringConstant(e.Str))
		return nil
	case ir.ExprVar:
		src, release, err := g.readReg(e.Var)
		if err != nil {
			return err
		}
		nt, ok := numTypeOf(g.varType(e.Var))
		if !ok {
			nt = U64
		}
		g.em.Unary2(MoveOp(nt), dest, src)
		release()
		return nil
	case ir.ExprBinary:
		return g.emitBinaryInto(dest, targetID, e)
	case ir.ExprUnary:
		return g.emitUnaryInto(dest, e)
	case ir.ExprVague:
		return ice("unresolved placeholder expression reached code generation")
	default:
		return ice("unhandled IR expression kind %d", e.Kind)
	}
}

func (g *generator) emitBinaryInto(dest Reg, targetID ir.VarID, e ir.Expr) error {
	leftType := g.varType(e.Left)
	rightType := g.varType(e.Right)

	if e.BinOp == ir.BAdd && leftType.Kind == ir.TypeString && rightType.Kind == ir.TypeString {
		left, lrelease, err := g.readReg(e.Left)
		if err != nil {
			return err
		}
		right, rrelease, err := g.readReg(e.Right)
		if err != nil {
			lrelease()
			return err
		}
		err = g.emitStringConcat(dest, left, right)
		rrelease()
		lrelease()
		return err
	}

	left, lrelease, err := g.readReg(e.Left)
	if err != nil {
		return err
	}
	right, rrelease, err := g.readReg(e.Right)
	if err != nil {
		lrelease()
		return err
	}
	defer lrelease()
	defer rrelease()

	if e.BinOp.IsComparison() {
		nt, ok := numTypeOf(leftType)
		if !ok {
			return ice("no comparison opcode for operand type %s", leftType.String())
		}
		op, ok := comparisonOpcode(e.BinOp, nt)
		if !ok {
			return ice("unhandled comparison operator %s", e.BinOp)
		}
		g.em.Arith3(op, dest, left, right)
		return nil
	}

	if leftType.Kind == ir.TypeBoolean && rightType.Kind == ir.TypeBoolean {
		switch e.BinOp {
		case ir.BAnd:
			g.em.Arith3(LogicalAndOp(), dest, left, right)
			return nil
		case ir.BOr:
			g.em.Arith3(LogicalOrOp(), dest, left, right)
			return nil
		}
	}

	nt, ok := numTypeOf(leftType)
	if !ok {
		return ice("no arithmetic opcode for operand type %s", leftType.String())
	}
	op, ok := arithmeticOpcode(e.BinOp, nt)
	if !ok {
		return ice("unhandled binary operator %s for type %s", e.BinOp, leftType.String())
	}
	g.em.Arith3(op, dest, left, right)
	return nil
}

func (g *generator) emitUnaryInto(dest Reg, e ir.Expr) error {
	operandType := g.varType(e.Operand)
	src, release, err := g.readReg(e.Operand)
	if err != nil {
		return err
	}
	defer release()

	switch e.UnOp {
	case ir.UNot:
		g.em.Unary2(LogicalNotOp(), dest, src)
		return nil
	case ir.UNeg:
		nt, ok := numTypeOf(operandType)
		if !ok {
			return ice("no negation opcode for operand type %s", operandType.String())
		}
		zero, err := g.scratch.alloc()
		if err != nil {
			return err
		}
		g.em.LoadImmediate(nt, zero, 0)
		op, _ := arithmeticOpcode(ir.BSub, nt)
		g.em.Arith3(op, dest, zero, src)
		g.scratch.release(zero)
		return nil
	default:
		return ice("unhandled unary operator %s", e.UnOp)
	}
}

// emitStringConcat implements spec.md §4.E's special-cased string +
// string: allocate a destination section whose first 8 bytes are the
// combined length, then Memcpy each operand's payload (skipping its own
// 8-byte header) after that.
//
// Peak scratch usage is held to four registers (leftLen, rightLen, a
// sum/offset register, and a header/skip-distance register) by reusing
// registers across roles instead of giving each intermediate value its own
// slot: sum holds totalLen, is bumped to allocSize with an in-place IncDec
// (spec.md §4.E's IncDec encodes an arbitrary immediate, not just ±1) for
// Allocate, then bumped back down to totalLen for the length header store;
// off holds 0 for that store and is reloaded to 8 for both Memcpy calls;
// leftLen is overwritten with the second Memcpy's dest offset once its own
// value is no longer needed. Even so, a caller that already holds dest/
// left/right in the scratch pool (the fully-spilled case) can still push
// the pool past its six slots; alloc's ice("scratch register pool
// exhausted") is the deliberate, surfaced failure for that edge case
// rather than silently miscompiling.
func (g *generator) emitStringConcat(dest, left, right Reg) error {
	leftLen, err := g.scratch.alloc()
	if err != nil {
		return err
	}
	g.em.LoadIndirect(leftLen, left)
	rightLen, err := g.scratch.alloc()
	if err != nil {
		return err
	}
	g.em.LoadIndirect(rightLen, right)

	sum, err := g.scratch.alloc()
	if err != nil {
		return err
	}
	g.em.Arith3(AddOp(U64), sum, leftLen, rightLen) // sum = totalLen
	g.em.IncDec(IncrementOp(U64), U64, sum, 8)       // sum = allocSize
	g.em.Allocate(dest, sum)
	g.em.IncDec(DecrementOp(U64), U64, sum, 8) // sum = totalLen again

	off, err := g.scratch.alloc()
	if err != nil {
		return err
	}
	g.em.LoadImmediate(U64, off, 0)
	g.em.StoreIndirectWithOffset(dest, off, sum)
	g.scratch.release(sum)

	g.em.LoadImmediate(U64, off, 8) // off now holds the 8-byte header skip
	g.em.Memcpy(dest, off, left, off, leftLen)

	g.em.Arith3(AddOp(U64), leftLen, off, leftLen) // leftLen now holds destOff2
	g.em.Memcpy(dest, leftLen, right, off, rightLen)

	g.scratch.release(off)
	g.scratch.release(rightLen)
	g.scratch.release(leftLen)
	return nil
}

// ---------------------------------------------------------------------
// Type/opcode mapping helpers.
// ---------------------------------------------------------------------

// numTypeOf maps a Processed source type to the VM numeric type codegen
// backs it with. The front end's Type lattice is coarse (Int/UInt/Float
// rather than distinct bit widths), so it always resolves to the widest
// variant of its family; the narrower NumType variants exist for the
// catalogue's other producer, the textual-bytecode assembler (spec.md §1).
func numTypeOf(t ir.Type) (NumType, bool) {
	switch t.Kind {
	case ir.TypeInt:
		return I64, true
	case ir.TypeUInt:
		return U64, true
	case ir.TypeFloat:
		return F64, true
	case ir.TypeByte:
		return U8, true
	case ir.TypeBoolean:
		return U8, true
	default:
		return 0, false
	}
}

func arithmeticOpcode(op ir.BinOp, t NumType) (Opcode, bool) {
	switch op {
	case ir.BAdd:
		return AddOp(t), true
	case ir.BSub:
		return SubtractOp(t), true
	case ir.BMul:
		return MultiplyOp(t), true
	case ir.BDiv:
		return DivideOp(t), true
	case ir.BMod:
		return ModuloOp(t), true
	default:
		return 0, false
	}
}

func comparisonOpcode(op ir.BinOp, t NumType) (Opcode, bool) {
	switch op {
	case ir.BEq:
		return EqualOp(t), true
	case ir.BNeq:
		return NotEqualOp(t), true
	case ir.BLt:
		return LessThanOp(t), true
	case ir.BGt:
		return GreaterThanOp(t), true
	case ir.BLe:
		return LessThanOrEqualOp(t), true
	case ir.BGe:
		return GreaterThanOrEqualOp(t), true
	default:
		return 0, false
	}
}

func boolBits(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// encodeStringConstant matches the Constants Table format of spec.md §3:
// an 8-byte big-endian length followed by the UTF-8 bytes.
func encodeStringConstant(s string) []byte {
	out := make([]byte, 8+len(s))
	for i := 0; i < 8; i++ {
		out[i] = byte(uint64(len(s)) >> (8 * (7 - i)))
	}
	copy(out[8:], s)
	return out
}
