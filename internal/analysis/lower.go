package analysis

import (
	"github.com/glint-lang/glint/internal/diag"
	"github.com/glint-lang/glint/internal/ir"
	"github.com/glint-lang/glint/internal/parser"
)

// lowerStmt dispatches on the AST node's concrete type, the same type-switch
// idiom sentra's register compiler uses for compileStmt rather than the
// visitor double-dispatch its own AST package offers.
func (c *Context) lowerStmt(s parser.Stmt) {
	switch n := s.(type) {
	case *parser.VarDecl:
		c.lowerVarDecl(n)
	case *parser.Assign:
		c.lowerAssign(n)
	case *parser.If:
		c.lowerIf(n)
	case *parser.While:
		c.lowerWhile(n)
	case *parser.Break:
		c.lowerBreak(n)
	case *parser.Continue:
		c.lowerContinue(n)
	case *parser.TypeDef:
		// Type definitions only extend the surface type vocabulary; they
		// emit no IR (spec.md's Typed IR has no statement kind for them).
	case *parser.Comment:
		// Comments carry no runtime meaning.
	}
}

func (c *Context) stmtIDFor(s parser.Stmt) ir.StmtID {
	return ir.StmtID(s.ID())
}

func (c *Context) lowerVarDecl(n *parser.VarDecl) {
	stmt := c.stmtIDFor(n)
	if n.Init == nil {
		c.declare(n.Name, stmt, n.Span(), ir.Indeterminate())
		return
	}
	val, typ, temps := c.lowerExpr(n.Init, stmt)
	id := c.declare(n.Name, stmt, n.Span(), typ)
	c.emitAssign(id, ir.VarExpr(val), n.Span(), stmt)
	c.dropTemps(temps, n.Span(), stmt)
}

func (c *Context) lowerAssign(n *parser.Assign) {
	stmt := c.stmtIDFor(n)
	info, ok := c.lookup(n.Name)
	if !ok {
		c.errors.Add(diag.AssignUndefinedVariable(n.Span(), n.Name))
		// Still lower the RHS for downstream diagnostics, into a throwaway
		// temp, so a typo doesn't cascade into spurious errors.
		_, _, temps := c.lowerExpr(n.Value, stmt)
		c.dropTemps(temps, n.Span(), stmt)
		return
	}
	val, _, temps := c.lowerExpr(n.Value, stmt)
	info.LastWrite = stmt
	c.emitAssign(info.ID, ir.VarExpr(val), n.Span(), stmt)
	c.dropTemps(temps, n.Span(), stmt)
}

// emitAssign builds the Assign instruction and applies the loop fold-guard
// bookkeeping, per spec.md §4.D. Constant substitution itself is deferred to
// foldConstants, which runs once lowering has finished and every loop's
// guard marker has been recorded — substituting here, mid-walk, would let a
// read fold before the write that should have guarded it is ever seen.
func (c *Context) emitAssign(target ir.VarID, value ir.Expr, span diag.Span, stmt ir.StmtID) {
	c.emit(ir.Assign(target, value, span, stmt, c.currentScope))
	c.markLoopWrite(target, stmt)
}

func (c *Context) dropTemps(temps []ir.VarID, span diag.Span, stmt ir.StmtID) {
	for _, t := range temps {
		c.emit(ir.Drop(t, span, stmt, c.currentScope))
	}
}

func (c *Context) lowerBreak(n *parser.Break) {
	stmt := c.stmtIDFor(n)
	if len(c.loopBreakLabels) == 0 {
		c.errors.Add(diag.SyntaxError(n.Span(), "'break' outside of loop"))
		return
	}
	label := c.loopBreakLabels[len(c.loopBreakLabels)-1]
	c.emit(ir.Jump(label, n.Span(), stmt, c.currentScope))
}

func (c *Context) lowerContinue(n *parser.Continue) {
	stmt := c.stmtIDFor(n)
	if len(c.loopContinueLabels) == 0 {
		c.errors.Add(diag.SyntaxError(n.Span(), "'continue' outside of loop"))
		return
	}
	label := c.loopContinueLabels[len(c.loopContinueLabels)-1]
	c.emit(ir.Jump(label, n.Span(), stmt, c.currentScope))
}

// lowerIf implements spec.md §4.D's if-chain lowering: allocate `end`; each
// branch tests into its body label; fall through to else/end; bodies under
// their labels; `end` label last.
func (c *Context) lowerIf(n *parser.If) {
	stmt := c.stmtIDFor(n)
	end := c.freshLabel("end")

	branches := append([]parser.Branch{n.Primary}, n.Elifs...)
	bodyLabels := make([]string, len(branches))

	for i, br := range branches {
		kind := "if"
		if i > 0 {
			kind = "elif"
		}
		bodyLabels[i] = c.freshLabel(kind)
		c.pushScope(false) // the condition gets its own scope (spec.md §4.D)
		cond, _, temps := c.lowerExpr(br.Cond, stmt)
		c.emit(ir.JumpIfTrue(cond, bodyLabels[i], br.Span, stmt, c.currentScope))
		c.dropTemps(temps, br.Span, stmt)
		c.popScope(br.Span, stmt)
	}

	var elseLabel string
	if n.Else != nil {
		elseLabel = c.freshLabel("else")
		c.emit(ir.Jump(elseLabel, n.Span(), stmt, c.currentScope))
	} else {
		c.emit(ir.Jump(end, n.Span(), stmt, c.currentScope))
	}

	for i, br := range branches {
		c.emit(ir.Label(bodyLabels[i], br.Span, stmt, c.currentScope))
		c.pushScope(false)
		for _, bs := range br.Body {
			c.lowerStmt(bs)
		}
		c.popScope(br.Span, stmt)
		c.emit(ir.Jump(end, br.Span, stmt, c.currentScope))
	}

	if n.Else != nil {
		c.emit(ir.Label(elseLabel, n.Else.Span, stmt, c.currentScope))
		c.pushScope(false)
		for _, bs := range n.Else.Body {
			c.lowerStmt(bs)
		}
		c.popScope(n.Else.Span, stmt)
		c.emit(ir.Jump(end, n.Else.Span, stmt, c.currentScope))
	}

	c.emit(ir.Label(end, n.Span(), stmt, c.currentScope))
}

// lowerWhile implements spec.md §4.D's while-loop lowering.
func (c *Context) lowerWhile(n *parser.While) {
	stmt := c.stmtIDFor(n)
	loop := c.freshLabel("loop")
	end := c.freshLabel("end")

	c.emit(ir.Label(loop, n.Span(), stmt, c.currentScope))
	c.pushScope(false)
	cond, _, condTemps := c.lowerExpr(n.Cond, stmt)
	c.emit(ir.JumpIfFalse(cond, end, n.Span(), stmt, c.currentScope))
	c.dropTemps(condTemps, n.Span(), stmt)

	c.loopBreakLabels = append(c.loopBreakLabels, end)
	c.loopContinueLabels = append(c.loopContinueLabels, loop)
	c.loopStmtStack = append(c.loopStmtStack, stmt)

	c.pushScope(true)
	for _, bs := range n.Body {
		c.lowerStmt(bs)
	}
	c.popScope(n.Span(), stmt)

	c.loopStmtStack = c.loopStmtStack[:len(c.loopStmtStack)-1]
	c.loopContinueLabels = c.loopContinueLabels[:len(c.loopContinueLabels)-1]
	c.loopBreakLabels = c.loopBreakLabels[:len(c.loopBreakLabels)-1]

	c.emit(ir.Jump(loop, n.Span(), stmt, c.currentScope))
	c.popScope(n.Span(), stmt) // the condition's own scope
	c.emit(ir.Label(end, n.Span(), stmt, c.currentScope))
}

// ---------------------------------------------------------------------
// Expression flattening (spec.md §4.D).
// ---------------------------------------------------------------------

// lowerExpr flattens expr into a straight-line sequence of IR instructions,
// returning the VarID holding its value, the value's type, and the list of
// freshly allocated temps (in creation order) the caller must Drop at the
// end of the enclosing statement.
func (c *Context) lowerExpr(e parser.Expr, stmt ir.StmtID) (ir.VarID, ir.Type, []ir.VarID) {
	switch n := e.(type) {
	case *parser.Literal:
		return c.lowerLiteral(n, stmt)
	case *parser.Identifier:
		return c.lowerIdentifier(n, stmt)
	case *parser.Binary:
		return c.lowerBinary(n, stmt)
	case *parser.Unary:
		return c.lowerUnary(n, stmt)
	case *parser.Invalid:
		id := c.newTemp(stmt, ir.Indeterminate(), n.Span())
		c.emit(ir.Assign(id, ir.Expr{Kind: ir.ExprVague}, n.Span(), stmt, c.currentScope))
		return id, ir.Indeterminate(), []ir.VarID{id}
	default:
		id := c.newTemp(stmt, ir.Indeterminate(), e.Span())
		return id, ir.Indeterminate(), []ir.VarID{id}
	}
}

func (c *Context) lowerLiteral(n *parser.Literal, stmt ir.StmtID) (ir.VarID, ir.Type, []ir.VarID) {
	var expr ir.Expr
	var typ ir.Type
	switch n.Kind {
	case parser.LitBool:
		expr = ir.ConstBoolExpr(n.Text == "true")
		typ = ir.Boolean()
	case parser.LitString:
		expr = ir.ConstStringExpr(n.Text)
		typ = ir.String()
	case parser.LitInt:
		if iv, err := parser.ParseIntLiteral(n.Text); err == nil {
			expr = ir.ConstIntExpr(iv)
			typ = ir.Int()
		} else if uv, err := parser.ParseUintLiteral(n.Text); err == nil {
			expr = ir.ConstUIntExpr(uv)
			typ = ir.UInt()
		} else if fv, err := parser.ParseFloatLiteral(n.Text); err == nil {
			expr = ir.ConstFloatExpr(fv)
			typ = ir.Float()
		} else {
			c.errors.Add(diag.InternalCompilerError(diag.StageAnalyzer, n.Span(), "literal %q parses under no numeric type", n.Text))
		}
	case parser.LitFloat:
		fv, _ := parser.ParseFloatLiteral(n.Text)
		expr = ir.ConstFloatExpr(fv)
		typ = ir.Float()
	}
	id := c.newTemp(stmt, typ, n.Span())
	c.emit(ir.Assign(id, expr, n.Span(), stmt, c.currentScope))
	return id, typ, []ir.VarID{id}
}

func (c *Context) lowerIdentifier(n *parser.Identifier, stmt ir.StmtID) (ir.VarID, ir.Type, []ir.VarID) {
	info, ok := c.lookup(n.Name)
	if !ok {
		c.errors.Add(diag.ReadUndefinedVariable(n.Span(), n.Name))
		id := c.newTemp(stmt, ir.Indeterminate(), n.Span())
		return id, ir.Indeterminate(), nil
	}
	info.LastRead = stmt
	return info.ID, c.typeMap[info.ID].Current, nil
}

func (c *Context) lowerBinary(n *parser.Binary, stmt ir.StmtID) (ir.VarID, ir.Type, []ir.VarID) {
	lv, lt, ltemps := c.lowerExpr(n.Left, stmt)
	rv, rt, rtemps := c.lowerExpr(n.Right, stmt)
	op := toIRBinOp(n.Op)
	typ, ok := binaryResultType(op, lt, rt)
	if !ok {
		c.errors.Add(diag.TypeMismatch(n.Span(), lt.String(), rt.String()))
		typ = ir.Indeterminate()
	}
	id := c.newTemp(stmt, typ, n.Span())
	c.emitAssign(id, ir.BinaryExpr(op, lv, rv), n.Span(), stmt)
	temps := append(append(ltemps, rtemps...), id)
	return id, typ, temps
}

func (c *Context) lowerUnary(n *parser.Unary, stmt ir.StmtID) (ir.VarID, ir.Type, []ir.VarID) {
	v, t, temps := c.lowerExpr(n.Operand, stmt)
	op := toIRUnOp(n.Op)
	id := c.newTemp(stmt, t, n.Span())
	c.emitAssign(id, ir.UnaryExpr(op, v), n.Span(), stmt)
	return id, t, append(temps, id)
}

func toIRBinOp(op parser.BinaryOp) ir.BinOp { return ir.BinOp(op) }
func toIRUnOp(op parser.UnaryOp) ir.UnOp {
	if op == parser.OpNot {
		return ir.UNot
	}
	return ir.UNeg
}
