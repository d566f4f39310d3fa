package ir

import "github.com/glint-lang/glint/internal/diag"

// VarID is a dense, zero-based variable identifier (spec.md §3 invariant:
// "Variable ids are dense starting at zero").
type VarID int

// StmtID mirrors parser.StmtID; duplicated here (rather than imported) so
// this package has no dependency on the parser — the analyzer is the only
// place that needs both.
type StmtID int

// ScopeID indexes into the analyzer's scope arena.
type ScopeID int

// Var is an IR variable: either a user variable (has a source Name) or an
// analyzer-synthesized temp (Name == "").
type Var struct {
	ID          VarID
	Name        string // "" for temps
	DeclaredAt  StmtID
	Scope       ScopeID
	Type        Type
	Span        diag.Span
}

func (v Var) IsTemp() bool { return v.Name == "" }

// ConstKind/ConstValue hold a folded constant, keyed by variable id in the
// analyzer's const-value map (spec.md §3).
type ConstKind int

const (
	ConstBool ConstKind = iota
	ConstInt
	ConstUInt
	ConstFloat
	ConstString
)

type ConstValue struct {
	Kind ConstKind
	B    bool
	I    int64
	U    uint64
	F    float64
	S    string
}

// ExprKind tags an IR expression's variant.
type ExprKind int

const (
	ExprConstBool ExprKind = iota
	ExprConstInt
	ExprConstUInt
	ExprConstFloat
	ExprConstString
	ExprVar
	ExprBinary
	ExprUnary
	ExprVague // pre-resolution placeholder literal (spec.md §3)
)

// BinOp / UnOp mirror parser.BinaryOp/UnaryOp at the IR layer so this
// package stays independent of the parser package.
type BinOp string

const (
	BAdd BinOp = "+"
	BSub BinOp = "-"
	BMul BinOp = "*"
	BDiv BinOp = "/"
	BMod BinOp = "%"
	BAnd BinOp = "and"
	BOr  BinOp = "or"
	BEq  BinOp = "=="
	BNeq BinOp = "!="
	BLt  BinOp = "<"
	BGt  BinOp = ">"
	BLe  BinOp = "<="
	BGe  BinOp = ">="
)

type UnOp string

const (
	UNeg UnOp = "-"
	UNot UnOp = "not"
)

func (op BinOp) IsComparison() bool {
	switch op {
	case BEq, BNeq, BLt, BGt, BLe, BGe:
		return true
	default:
		return false
	}
}

// Expr is a sum type over IR expression variants. Exactly one of the
// fields below is meaningful, selected by Kind — the same discipline
// sentra's tagged Value/Opcode enums use.
type Expr struct {
	Kind  ExprKind
	Bool  bool
	Int   int64
	UInt  uint64
	Float float64
	Str   string
	Var   VarID

	BinOp BinOp
	Left  VarID
	Right VarID

	UnOp    UnOp
	Operand VarID
}

func ConstBoolExpr(b bool) Expr    { return Expr{Kind: ExprConstBool, Bool: b} }
func ConstIntExpr(i int64) Expr    { return Expr{Kind: ExprConstInt, Int: i} }
func ConstUIntExpr(u uint64) Expr  { return Expr{Kind: ExprConstUInt, UInt: u} }
func ConstFloatExpr(f float64) Expr { return Expr{Kind: ExprConstFloat, Float: f} }
func ConstStringExpr(s string) Expr { return Expr{Kind: ExprConstString, Str: s} }
func VarExpr(id VarID) Expr        { return Expr{Kind: ExprVar, Var: id} }
func BinaryExpr(op BinOp, l, r VarID) Expr { return Expr{Kind: ExprBinary, BinOp: op, Left: l, Right: r} }
func UnaryExpr(op UnOp, v VarID) Expr      { return Expr{Kind: ExprUnary, UnOp: op, Operand: v} }

// InstKind tags an IR instruction's statement kind (spec.md §3).
type InstKind int

const (
	InstAssign InstKind = iota
	InstDrop
	InstLabel
	InstJump
	InstJumpIfTrue
	InstJumpIfFalse
	InstCall
	InstReturn
)

// Inst is a single IR instruction, carrying its span/statement id/scope id
// as spec.md requires for every instruction.
type Inst struct {
	Kind  InstKind
	Span  diag.Span
	Stmt  StmtID
	Scope ScopeID

	// InstAssign
	Target VarID
	Value  Expr

	// InstDrop
	Var VarID

	// InstLabel / InstJump / InstJumpIfTrue / InstJumpIfFalse
	Label     string
	Condition VarID

	// InstCall
	Func TypeID     // placeholder function identifier (VM-only today, spec.md §9)
	Args []VarID
	Dest VarID

	// InstReturn
	HasValue bool
	RetValue VarID
}

// TypeID is a placeholder function identifier; the front end never emits
// Call (spec.md §9: "the compiler does not yet emit Calls").
type TypeID int

func Assign(target VarID, value Expr, span diag.Span, stmt StmtID, scope ScopeID) Inst {
	return Inst{Kind: InstAssign, Target: target, Value: value, Span: span, Stmt: stmt, Scope: scope}
}

func Drop(v VarID, span diag.Span, stmt StmtID, scope ScopeID) Inst {
	return Inst{Kind: InstDrop, Var: v, Span: span, Stmt: stmt, Scope: scope}
}

func Label(name string, span diag.Span, stmt StmtID, scope ScopeID) Inst {
	return Inst{Kind: InstLabel, Label: name, Span: span, Stmt: stmt, Scope: scope}
}

func Jump(label string, span diag.Span, stmt StmtID, scope ScopeID) Inst {
	return Inst{Kind: InstJump, Label: label, Span: span, Stmt: stmt, Scope: scope}
}

func JumpIfTrue(cond VarID, label string, span diag.Span, stmt StmtID, scope ScopeID) Inst {
	return Inst{Kind: InstJumpIfTrue, Condition: cond, Label: label, Span: span, Stmt: stmt, Scope: scope}
}

func JumpIfFalse(cond VarID, label string, span diag.Span, stmt StmtID, scope ScopeID) Inst {
	return Inst{Kind: InstJumpIfFalse, Condition: cond, Label: label, Span: span, Stmt: stmt, Scope: scope}
}

// Program is the output of lowering: the flat instruction vector plus the
// variable table it indexes into by VarID.
type Program struct {
	Instructions []Inst
	Vars         []Var // indexed by VarID
}
