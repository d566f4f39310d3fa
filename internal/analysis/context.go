// Package analysis is the semantic analyzer / IR builder spec.md §4.D
// calls "the design's algorithmic core": scope-tree construction, variable
// resolution, bidirectional type-hint unification, lowering to the linear
// IR (recording each loop's fold-guard marker as it goes), a deferred
// constant-folding pass over the complete instruction list, a post-pass type
// resolution walk, conversion to Typed IR, and dead-code elimination.
//
// Every cross-reference (scope parent/children, a variable's owning scope)
// is stored as an integer id into an arena slice rather than a pointer, the
// "borrow-and-id" discipline spec.md §9 calls out — this keeps the whole
// structure value-copyable, the same discipline sentra's compiler package
// follows for its Scope chain (if less strictly: sentra uses parent
// pointers since it has no cyclic-ownership constraint; we follow spec.md's
// stricter arena requirement here instead).
package analysis

import (
	"github.com/glint-lang/glint/internal/diag"
	"github.com/glint-lang/glint/internal/ir"
	"github.com/glint-lang/glint/internal/parser"
)

// VarInfo is the per-scope, per-name bookkeeping record spec.md §3 names
// "Variable Info".
type VarInfo struct {
	ID          ir.VarID
	DeclSpan    diag.Span
	DeclStmt    ir.StmtID
	LastRead    ir.StmtID
	LastWrite   ir.StmtID
	Moved       bool
	Scope       ir.ScopeID
	IsInitScope bool
	Shadowed    bool
}

// Scope is one arena entry in the scope tree (spec.md §3).
type Scope struct {
	ID       ir.ScopeID
	Parent   int // -1 for the root
	Names    map[string]*VarInfo
	Children []ir.ScopeID
	Repeated bool
}

// TypeInfo is the per-variable entry of the analyzer's Type Map.
type TypeInfo struct {
	Current         ir.Type
	LastAccessed    ir.StmtID
	RepeatEnteredAt ir.StmtID // meaningful only when hasRepeatEntered is set; statement ids start at 0
	RepeatWriteAt   ir.StmtID
	Scope           ir.ScopeID
	hasRepeatEntered bool
	hasRepeatWrite   bool
}

// Context is the Analysis Context of spec.md §4.D.
type Context struct {
	scopes       []Scope
	currentScope ir.ScopeID

	stmtCounter ir.StmtID
	varCounter  ir.VarID

	typeMap  map[ir.VarID]*TypeInfo
	constMap map[ir.VarID]*ir.ConstValue
	vars     []ir.Var // indexed by VarID

	instructions []ir.Inst
	errors       diag.List

	labels Labels

	loopBreakLabels    []string
	loopContinueLabels []string

	// loopStmtStack holds the statement ids of the loops currently being
	// lowered, innermost last; used by the fold guard.
	loopStmtStack []ir.StmtID
}

// NewContext constructs an Analysis Context with a single root scope.
func NewContext() *Context {
	c := &Context{
		typeMap:  make(map[ir.VarID]*TypeInfo),
		constMap: make(map[ir.VarID]*ir.ConstValue),
	}
	c.scopes = []Scope{{ID: 0, Parent: -1, Names: make(map[string]*VarInfo)}}
	c.currentScope = 0
	return c
}

func (c *Context) nextStmtID() ir.StmtID {
	c.stmtCounter++
	return c.stmtCounter
}

func (c *Context) freshVar(name string, declaredAt ir.StmtID, typ ir.Type, span diag.Span) ir.VarID {
	id := c.varCounter
	c.varCounter++
	c.vars = append(c.vars, ir.Var{
		ID: id, Name: name, DeclaredAt: declaredAt, Scope: c.currentScope, Type: typ, Span: span,
	})
	c.typeMap[id] = &TypeInfo{Current: typ, LastAccessed: declaredAt, Scope: c.currentScope}
	return id
}

// newTemp allocates an analyzer-synthesized temp variable (spec.md §3).
func (c *Context) newTemp(declaredAt ir.StmtID, typ ir.Type, span diag.Span) ir.VarID {
	return c.freshVar("", declaredAt, typ, span)
}

// VarCount returns the dense variable-id count, for spec.md §6's
// `var_count()` accessor.
func (c *Context) VarCount() int { return int(c.varCounter) }

func (c *Context) emit(inst ir.Inst) {
	c.instructions = append(c.instructions, inst)
}

// ---------------------------------------------------------------------
// Scope construction (spec.md §4.D).
// ---------------------------------------------------------------------

// pushScope creates a child of the current scope and switches into it.
func (c *Context) pushScope(repeated bool) ir.ScopeID {
	parent := c.currentScope
	id := ir.ScopeID(len(c.scopes))
	// A child of a repeated scope is repeated too (spec.md §3 invariant).
	repeated = repeated || c.scopes[parent].Repeated
	c.scopes = append(c.scopes, Scope{ID: id, Parent: int(parent), Names: make(map[string]*VarInfo), Repeated: repeated})
	c.scopes[parent].Children = append(c.scopes[parent].Children, id)
	c.currentScope = id
	return id
}

// popScope emits a Drop for every un-moved variable declared in the scope
// being left, then switches back to its parent.
func (c *Context) popScope(span diag.Span, stmt ir.StmtID) {
	scope := &c.scopes[c.currentScope]
	for _, name := range orderedNames(scope) {
		info := scope.Names[name]
		if info.Moved {
			continue
		}
		c.emit(ir.Drop(info.ID, span, stmt, c.currentScope))
	}
	if scope.Parent >= 0 {
		c.currentScope = ir.ScopeID(scope.Parent)
	}
}

// orderedNames is a small helper so Drop emission order is deterministic
// (insertion order isn't preserved by a Go map); declaration order is
// approximated by variable id, which is monotonic.
func orderedNames(s *Scope) []string {
	type kv struct {
		name string
		id   ir.VarID
	}
	kvs := make([]kv, 0, len(s.Names))
	for n, info := range s.Names {
		kvs = append(kvs, kv{n, info.ID})
	}
	for i := 1; i < len(kvs); i++ {
		for j := i; j > 0 && kvs[j-1].id > kvs[j].id; j-- {
			kvs[j-1], kvs[j] = kvs[j], kvs[j-1]
		}
	}
	out := make([]string, len(kvs))
	for i, k := range kvs {
		out[i] = k.name
	}
	return out
}

// declare introduces a new user variable into the current scope, shadowing
// any outer variable of the same name (spec.md §4.D).
func (c *Context) declare(name string, declStmt ir.StmtID, span diag.Span, typ ir.Type) ir.VarID {
	id := c.freshVar(name, declStmt, typ, span)
	scope := &c.scopes[c.currentScope]
	shadowed := false
	if _, ok := c.lookup(name); ok {
		shadowed = true
	}
	scope.Names[name] = &VarInfo{
		ID: id, DeclSpan: span, DeclStmt: declStmt, Scope: c.currentScope, Shadowed: shadowed,
	}
	return id
}

// lookup walks the scope chain upward from the current scope, the
// `var_access_from_scope` of spec.md §4.D.
func (c *Context) lookup(name string) (*VarInfo, bool) {
	return c.lookupFrom(c.currentScope, name)
}

func (c *Context) lookupFrom(scope ir.ScopeID, name string) (*VarInfo, bool) {
	for s := int(scope); s >= 0; {
		if info, ok := c.scopes[s].Names[name]; ok {
			return info, true
		}
		s = c.scopes[s].Parent
	}
	return nil, false
}

// inRepeatedScope reports whether the current scope is inside a loop body.
func (c *Context) inRepeatedScope() bool {
	return c.scopes[c.currentScope].Repeated
}

// Analyze runs the full AST -> Typed IR pipeline spec.md §6 calls
// `analyze_ast`, returning a Context whose accessors expose ir()/typed_ir()
// /errors()/var_count().
func Analyze(stmts []parser.Stmt) *Context {
	c := NewContext()
	for _, s := range stmts {
		c.lowerStmt(s)
	}
	c.foldConstants()
	c.resolveTypes()
	return c
}

// IR exposes the untyped (pre dead-code-elimination, pre-concretization)
// instruction vector spec.md §6 calls `ir()`.
func (c *Context) IR() []ir.Inst { return c.instructions }

// Errors exposes the accumulated recoverable error list.
func (c *Context) Errors() diag.List { return c.errors }

// TypedIR converts the analyzed IR to its Typed form and runs dead-code
// elimination, spec.md §6's `typed_ir()` accessor. Any recoverable error
// accumulated during lowering or resolution (TypeMismatch, UntypedVariable,
// undefined-variable references, ...) blocks concretization, since Typed IR
// promises every variable is fully resolved.
func (c *Context) TypedIR() ([]ir.Inst, error) {
	if len(c.errors) > 0 {
		return nil, c.errors
	}
	typed, err := c.concretize()
	if err != nil {
		return nil, err
	}
	return c.eliminateDeadCode(typed), nil
}

// Vars returns the IR variable table, indexed by VarID.
func (c *Context) Vars() []ir.Var { return c.vars }
