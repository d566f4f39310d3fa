package analysis

import "github.com/glint-lang/glint/internal/ir"

// markLoopWrite implements spec.md §4.D's "Fold-guard rule for loops": when
// assigning to a variable from inside a repeated scope whose declaring
// scope lies outside that loop, record the loop's statement id as the
// earliest point at which later reads must stop trusting the constant —
// but only the first time this happens for that variable.
func (c *Context) markLoopWrite(id ir.VarID, atStmt ir.StmtID) {
	if len(c.loopStmtStack) == 0 {
		return
	}
	info := c.typeMap[id]
	if info == nil {
		return
	}
	declScope := c.vars[id].Scope
	if c.scopes[declScope].Repeated {
		// Declared inside the loop already; the guard is about variables
		// that outlive the loop body.
		return
	}
	loopStmt := c.loopStmtStack[len(c.loopStmtStack)-1]
	if !info.hasRepeatEntered {
		info.RepeatEnteredAt = loopStmt
		info.hasRepeatEntered = true
	}
	if !info.hasRepeatWrite {
		info.RepeatWriteAt = loopStmt
		info.hasRepeatWrite = true
	}
	_ = atStmt
}

// foldable reports whether id's currently-recorded constant may still be
// substituted at statement atStmt, honoring the fold guard.
func (c *Context) foldable(id ir.VarID, atStmt ir.StmtID) (ir.ConstValue, bool) {
	cv, ok := c.constMap[id]
	if !ok {
		return ir.ConstValue{}, false
	}
	if info := c.typeMap[id]; info != nil && info.hasRepeatEntered {
		if atStmt >= info.RepeatEnteredAt {
			return ir.ConstValue{}, false
		}
	}
	return *cv, true
}

// foldConstants is the deferred constant-substitution pass spec.md §4.D
// describes as running after every scope/guard marker has already been
// recorded by lowering — the teacher-original's `resolve_types` folds only
// after `create_scopes_map_ast` has walked the whole tree, so `foldable`
// never has to answer for a `RepeatEnteredAt` that hasn't been set yet.
// Lowering itself only emits; it never substitutes. This walks the emitted
// instruction vector front-to-back, replaying constant propagation now that
// markLoopWrite has already recorded every loop's guard for the entire
// program, not just the statements lowered so far.
func (c *Context) foldConstants() {
	c.constMap = make(map[ir.VarID]*ir.ConstValue)
	for i := range c.instructions {
		inst := &c.instructions[i]
		if inst.Kind != ir.InstAssign {
			continue
		}
		if cv, ok := constFromExpr(inst.Value); ok {
			c.constMap[inst.Target] = &cv
			continue
		}
		if folded, ok := c.tryFold(inst.Target, inst.Value, inst.Stmt); ok {
			inst.Value = folded
			if cv, ok := constFromExpr(folded); ok {
				c.constMap[inst.Target] = &cv
			}
			continue
		}
		delete(c.constMap, inst.Target)
	}
}

// tryFold attempts to fold an Assign whose value is a binary/unary op on
// IR variables, per spec.md §4.D. On success it returns the folded literal
// Expr and true; the caller replaces the instruction's Value and records
// the result in the const-value map under target.
func (c *Context) tryFold(target ir.VarID, value ir.Expr, atStmt ir.StmtID) (ir.Expr, bool) {
	switch value.Kind {
	case ir.ExprVar:
		cv, ok := c.foldable(value.Var, atStmt)
		if !ok {
			return value, false
		}
		return constValueToExpr(cv), true
	case ir.ExprBinary:
		l, lok := c.foldable(value.Left, atStmt)
		r, rok := c.foldable(value.Right, atStmt)
		if !lok || !rok {
			return value, false
		}
		return foldBinary(value.BinOp, l, r)
	case ir.ExprUnary:
		v, ok := c.foldable(value.Operand, atStmt)
		if !ok {
			return value, false
		}
		return foldUnary(value.UnOp, v)
	default:
		return value, false
	}
}

func foldBinary(op ir.BinOp, l, r ir.ConstValue) (ir.Expr, bool) {
	if op.IsComparison() {
		return foldComparison(op, l, r)
	}
	if l.Kind == ir.ConstString || r.Kind == ir.ConstString {
		if op == ir.BAdd && l.Kind == ir.ConstString && r.Kind == ir.ConstString {
			return ir.ConstStringExpr(l.S + r.S), true
		}
		return ir.Expr{}, false
	}
	switch {
	case l.Kind == ir.ConstFloat || r.Kind == ir.ConstFloat:
		lf, rf := asFloat(l), asFloat(r)
		var out float64
		switch op {
		case ir.BAdd:
			out = lf + rf
		case ir.BSub:
			out = lf - rf
		case ir.BMul:
			out = lf * rf
		case ir.BDiv:
			if rf == 0 {
				return ir.Expr{}, false
			}
			out = lf / rf
		case ir.BMod:
			return ir.Expr{}, false
		default:
			return ir.Expr{}, false
		}
		if isNaNOrInf(out) {
			return ir.Expr{}, false
		}
		return ir.ConstFloatExpr(out), true
	case l.Kind == ir.ConstUInt && r.Kind == ir.ConstUInt:
		lu, ru := l.U, r.U
		var out uint64
		switch op {
		case ir.BAdd:
			out = lu + ru // two's-complement wrap
		case ir.BSub:
			out = lu - ru
		case ir.BMul:
			out = lu * ru
		case ir.BDiv:
			if ru == 0 {
				return ir.Expr{}, false
			}
			out = lu / ru
		case ir.BMod:
			if ru == 0 {
				return ir.Expr{}, false
			}
			out = lu % ru
		default:
			return ir.Expr{}, false
		}
		return ir.ConstUIntExpr(out), true
	case l.Kind == ir.ConstInt && r.Kind == ir.ConstInt:
		li, ri := l.I, r.I
		var out int64
		switch op {
		case ir.BAdd:
			out = li + ri
		case ir.BSub:
			out = li - ri
		case ir.BMul:
			out = li * ri
		case ir.BDiv:
			if ri == 0 {
				return ir.Expr{}, false
			}
			out = li / ri
		case ir.BMod:
			if ri == 0 {
				return ir.Expr{}, false
			}
			out = li % ri
		default:
			return ir.Expr{}, false
		}
		return ir.ConstIntExpr(out), true
	case l.Kind == ir.ConstBool && r.Kind == ir.ConstBool:
		var out bool
		switch op {
		case ir.BAnd:
			out = l.B && r.B
		case ir.BOr:
			out = l.B || r.B
		default:
			return ir.Expr{}, false
		}
		return ir.ConstBoolExpr(out), true
	default:
		return ir.Expr{}, false
	}
}

func foldComparison(op ir.BinOp, l, r ir.ConstValue) (ir.Expr, bool) {
	cmp := func(less, equal bool) bool {
		switch op {
		case ir.BEq:
			return equal
		case ir.BNeq:
			return !equal
		case ir.BLt:
			return less
		case ir.BGt:
			return !less && !equal
		case ir.BLe:
			return less || equal
		case ir.BGe:
			return !less
		}
		return false
	}
	switch {
	case l.Kind == ir.ConstFloat || r.Kind == ir.ConstFloat:
		lf, rf := asFloat(l), asFloat(r)
		return ir.ConstBoolExpr(cmp(lf < rf, lf == rf)), true
	case l.Kind == ir.ConstUInt && r.Kind == ir.ConstUInt:
		return ir.ConstBoolExpr(cmp(l.U < r.U, l.U == r.U)), true
	case l.Kind == ir.ConstInt && r.Kind == ir.ConstInt:
		return ir.ConstBoolExpr(cmp(l.I < r.I, l.I == r.I)), true
	case l.Kind == ir.ConstBool && r.Kind == ir.ConstBool:
		return ir.ConstBoolExpr(cmp(!l.B && r.B, l.B == r.B)), true
	case l.Kind == ir.ConstString && r.Kind == ir.ConstString:
		return ir.ConstBoolExpr(cmp(l.S < r.S, l.S == r.S)), true
	default:
		return ir.Expr{}, false
	}
}

func foldUnary(op ir.UnOp, v ir.ConstValue) (ir.Expr, bool) {
	switch op {
	case ir.UNeg:
		switch v.Kind {
		case ir.ConstInt:
			return ir.ConstIntExpr(-v.I), true
		case ir.ConstFloat:
			out := -v.F
			if isNaNOrInf(out) {
				return ir.Expr{}, false
			}
			return ir.ConstFloatExpr(out), true
		default:
			return ir.Expr{}, false
		}
	case ir.UNot:
		if v.Kind == ir.ConstBool {
			return ir.ConstBoolExpr(!v.B), true
		}
		return ir.Expr{}, false
	default:
		return ir.Expr{}, false
	}
}

func asFloat(v ir.ConstValue) float64 {
	switch v.Kind {
	case ir.ConstFloat:
		return v.F
	case ir.ConstInt:
		return float64(v.I)
	case ir.ConstUInt:
		return float64(v.U)
	default:
		return 0
	}
}

func isNaNOrInf(f float64) bool {
	return f != f || f > 1.7976931348623157e+308 || f < -1.7976931348623157e+308
}

// constValueToExpr builds the literal Expr that carries cv.
func constValueToExpr(cv ir.ConstValue) ir.Expr {
	switch cv.Kind {
	case ir.ConstBool:
		return ir.ConstBoolExpr(cv.B)
	case ir.ConstInt:
		return ir.ConstIntExpr(cv.I)
	case ir.ConstUInt:
		return ir.ConstUIntExpr(cv.U)
	case ir.ConstFloat:
		return ir.ConstFloatExpr(cv.F)
	case ir.ConstString:
		return ir.ConstStringExpr(cv.S)
	default:
		return ir.Expr{}
	}
}

// constFromExpr extracts a ConstValue from a just-built literal Expr, for
// recording into the const-value map after a successful fold or a direct
// literal assignment.
func constFromExpr(e ir.Expr) (ir.ConstValue, bool) {
	switch e.Kind {
	case ir.ExprConstBool:
		return ir.ConstValue{Kind: ir.ConstBool, B: e.Bool}, true
	case ir.ExprConstInt:
		return ir.ConstValue{Kind: ir.ConstInt, I: e.Int}, true
	case ir.ExprConstUInt:
		return ir.ConstValue{Kind: ir.ConstUInt, U: e.UInt}, true
	case ir.ExprConstFloat:
		return ir.ConstValue{Kind: ir.ConstFloat, F: e.Float}, true
	case ir.ExprConstString:
		return ir.ConstValue{Kind: ir.ConstString, S: e.Str}, true
	default:
		return ir.ConstValue{}, false
	}
}
