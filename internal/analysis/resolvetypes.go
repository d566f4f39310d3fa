package analysis

import (
	"github.com/glint-lang/glint/internal/diag"
	"github.com/glint-lang/glint/internal/ir"
)

// resolveTypes is the post-pass walk spec.md §4.D calls "the resolving
// pass": every Assign's right-hand side type is recomputed against the
// current Type Map and unified with the target's recorded type, comparison
// targets are forced to Boolean, and every jump condition must already be
// Boolean. It runs once, after the whole program has been lowered, so that
// a variable's final type reflects every assignment to it, not just its
// first.
func (c *Context) resolveTypes() {
	for _, inst := range c.instructions {
		switch inst.Kind {
		case ir.InstAssign:
			c.resolveAssign(inst)
		case ir.InstJumpIfTrue, ir.InstJumpIfFalse:
			c.requireBoolean(inst.Condition, inst.Span)
		}
	}
	for i := range c.vars {
		v := &c.vars[i]
		if v.IsTemp() {
			continue
		}
		info := c.typeMap[v.ID]
		if info == nil || info.Current.Kind == ir.TypeIndeterminate || info.Current.Kind == ir.TypeNumber {
			c.errors.Add(diag.UntypedVariable(v.Span, v.Name))
		}
	}
}

func (c *Context) resolveAssign(inst ir.Inst) {
	rhs := c.exprType(inst.Value)
	if inst.Value.Kind == ir.ExprBinary && inst.Value.BinOp.IsComparison() {
		rhs = ir.Boolean()
	}
	info := c.typeMap[inst.Target]
	if info == nil {
		return
	}
	u, ok := unify(info.Current, rhs)
	if !ok {
		c.errors.Add(diag.TypeMismatch(inst.Span, info.Current.String(), rhs.String()))
		return
	}
	info.Current = u
	info.LastAccessed = inst.Stmt
}

func (c *Context) requireBoolean(cond ir.VarID, span diag.Span) {
	info := c.typeMap[cond]
	if info == nil {
		return
	}
	if info.Current.Kind != ir.TypeBoolean && info.Current.Kind != ir.TypeIndeterminate {
		c.errors.Add(diag.TypeMismatch(span, "Bool", info.Current.String()))
		return
	}
	info.Current = ir.Boolean()
}

// exprType computes the type an IR expression currently evaluates to,
// consulting the Type Map for variable operands.
func (c *Context) exprType(e ir.Expr) ir.Type {
	switch e.Kind {
	case ir.ExprConstBool:
		return ir.Boolean()
	case ir.ExprConstInt:
		return ir.Int()
	case ir.ExprConstUInt:
		return ir.UInt()
	case ir.ExprConstFloat:
		return ir.Float()
	case ir.ExprConstString:
		return ir.String()
	case ir.ExprVague:
		return ir.Indeterminate()
	case ir.ExprVar:
		if info := c.typeMap[e.Var]; info != nil {
			return info.Current
		}
		return ir.Indeterminate()
	case ir.ExprBinary:
		lt := c.varType(e.Left)
		rt := c.varType(e.Right)
		t, ok := binaryResultType(e.BinOp, lt, rt)
		if !ok {
			return ir.Indeterminate()
		}
		return t
	case ir.ExprUnary:
		t := c.varType(e.Operand)
		if e.UnOp == ir.UNot {
			return ir.Boolean()
		}
		return t
	default:
		return ir.Indeterminate()
	}
}

func (c *Context) varType(id ir.VarID) ir.Type {
	if info := c.typeMap[id]; info != nil {
		return info.Current
	}
	return ir.Indeterminate()
}
