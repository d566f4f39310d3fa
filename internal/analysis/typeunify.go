package analysis

import "github.com/glint-lang/glint/internal/ir"

// unify implements the bidirectional type-hint unification rules of
// spec.md §4.D. ok is false iff the types are genuinely incompatible
// (TypeMismatch); the zero Type is returned in that case.
func unify(a, b ir.Type) (ir.Type, bool) {
	if ir.Equal(a, b) {
		return a, true
	}
	if a.Kind == ir.TypeIndeterminate {
		return b, true
	}
	if b.Kind == ir.TypeIndeterminate {
		return a, true
	}
	if a.Kind == ir.TypeNumber && isConcreteNumeric(b.Kind) {
		return b, true
	}
	if b.Kind == ir.TypeNumber && isConcreteNumeric(a.Kind) {
		return a, true
	}
	if a.Kind == ir.TypeObject && b.Kind == ir.TypeObject {
		return unifyObjects(a, b)
	}
	if a.Kind == ir.TypeTuple && b.Kind == ir.TypeTuple {
		return unifyElemwise(a, b, ir.TypeTuple)
	}
	if a.Kind == ir.TypeList && b.Kind == ir.TypeList {
		return unifyInner(a, b, ir.TypeList)
	}
	if a.Kind == ir.TypeArray && b.Kind == ir.TypeArray {
		return unifyInner(a, b, ir.TypeArray)
	}
	return ir.Type{}, false
}

func isConcreteNumeric(k ir.TypeKind) bool {
	return k == ir.TypeInt || k == ir.TypeUInt || k == ir.TypeFloat
}

func unifyObjects(a, b ir.Type) (ir.Type, bool) {
	if len(a.Fields) != len(b.Fields) {
		return ir.Type{}, false
	}
	out := ir.Type{Kind: ir.TypeObject, Fields: make([]ir.FieldType, len(a.Fields))}
	for i := range a.Fields {
		if a.Fields[i].Name != b.Fields[i].Name {
			return ir.Type{}, false
		}
		u, ok := unify(a.Fields[i].Type, b.Fields[i].Type)
		if !ok {
			return ir.Type{}, false
		}
		out.Fields[i] = ir.FieldType{Name: a.Fields[i].Name, Type: u}
	}
	return out, true
}

func unifyElemwise(a, b ir.Type, kind ir.TypeKind) (ir.Type, bool) {
	if len(a.Elems) != len(b.Elems) {
		return ir.Type{}, false
	}
	out := ir.Type{Kind: kind, Elems: make([]ir.Type, len(a.Elems))}
	for i := range a.Elems {
		u, ok := unify(a.Elems[i], b.Elems[i])
		if !ok {
			return ir.Type{}, false
		}
		out.Elems[i] = u
	}
	return out, true
}

func unifyInner(a, b ir.Type, kind ir.TypeKind) (ir.Type, bool) {
	if a.Elem == nil || b.Elem == nil {
		return ir.Type{}, false
	}
	u, ok := unify(*a.Elem, *b.Elem)
	if !ok {
		return ir.Type{}, false
	}
	return ir.Type{Kind: kind, Elem: &u}, true
}

// binaryResultType implements spec.md §4.D's "Type inference over binary
// ops": comparisons always produce Boolean; everything else is the
// unification of the operand types.
func binaryResultType(op ir.BinOp, left, right ir.Type) (ir.Type, bool) {
	if op.IsComparison() {
		return ir.Boolean(), true
	}
	return unify(left, right)
}
