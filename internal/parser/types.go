package parser

import "github.com/glint-lang/glint/internal/diag"

// TypeExprKind tags the surface-syntax type-expression variants spec.md
// §4.C names (distinct from the intermediate/processed Type lattice the
// analyzer builds — this is still source-level syntax).
type TypeExprKind int

const (
	TypePrimitive TypeExprKind = iota
	TypeCustom
	TypeList
	TypeArray
	TypeTuple
	TypeObject
	TypeEnum
)

// TypeExpr is the parsed form of a type annotation.
type TypeExpr struct {
	Kind   TypeExprKind
	Name   string // primitive keyword lexeme or custom name
	Elem   *TypeExpr // List[T] / Array[T] element type
	Fields []ObjectField // TypeObject
	Elems  []TypeExpr    // TypeTuple
	Variants []EnumVariant // TypeEnum
	Span   diag.Span
}

// ObjectField is one `name: Type` entry of an object type.
type ObjectField struct {
	Name string
	Type TypeExpr
}

// EnumVariantKind tags an enum variant's payload shape.
type EnumVariantKind int

const (
	VariantUnit EnumVariantKind = iota
	VariantTuple
	VariantStruct
)

// EnumVariant is one `Name` / `Name(T1, T2)` / `Name{f1: T1}` alternative.
type EnumVariant struct {
	Name   string
	Kind   EnumVariantKind
	Tuple  []TypeExpr
	Struct []ObjectField
}
