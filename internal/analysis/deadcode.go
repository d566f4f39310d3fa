package analysis

import "github.com/glint-lang/glint/internal/ir"

// eliminateDeadCode is the reverse live-variable walk of spec.md §4.D:
// walking the Typed IR back to front, a variable becomes live the moment
// something downstream reads it (a jump condition, a call argument, a
// return value, or another Assign's value), and an Assign is only worth
// keeping if its target is a user variable or was already live. A Drop for
// a variable nothing ever read is elided along with the dead Assign that
// produced it. The instruction list is rebuilt back-to-front and reversed
// once at the end to restore program order.
func (c *Context) eliminateDeadCode(instructions []ir.Inst) []ir.Inst {
	live := make(map[ir.VarID]bool, len(c.vars))
	kept := make([]ir.Inst, 0, len(instructions))

	isUser := func(id ir.VarID) bool {
		if int(id) < 0 || int(id) >= len(c.vars) {
			return false
		}
		return !c.vars[id].IsTemp()
	}

	markExpr := func(e ir.Expr) {
		switch e.Kind {
		case ir.ExprVar:
			live[e.Var] = true
		case ir.ExprBinary:
			live[e.Left] = true
			live[e.Right] = true
		case ir.ExprUnary:
			live[e.Operand] = true
		}
	}

	for i := len(instructions) - 1; i >= 0; i-- {
		inst := instructions[i]
		switch inst.Kind {
		case ir.InstJumpIfTrue, ir.InstJumpIfFalse:
			live[inst.Condition] = true
			kept = append(kept, inst)

		case ir.InstCall:
			for _, a := range inst.Args {
				live[a] = true
			}
			live[inst.Dest] = true
			kept = append(kept, inst)

		case ir.InstReturn:
			if inst.HasValue {
				live[inst.RetValue] = true
			}
			kept = append(kept, inst)

		case ir.InstDrop:
			if live[inst.Var] || isUser(inst.Var) {
				kept = append(kept, inst)
			}

		case ir.InstAssign:
			if !isUser(inst.Target) && !live[inst.Target] {
				continue // dead store to a temp nothing read; drop the def
			}
			kept = append(kept, inst)
			markExpr(inst.Value)
			if !isUser(inst.Target) {
				// A temp's liveness is fully accounted for by this, its
				// only definition; clear it so an earlier redefinition
				// (shouldn't happen for temps, but cheap to guard) starts
				// from a clean slate.
				delete(live, inst.Target)
			}

		default: // Label, Jump
			kept = append(kept, inst)
		}
	}

	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
