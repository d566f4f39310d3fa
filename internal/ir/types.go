// Package ir defines the typed, linear three-address intermediate
// representation spec.md §3 describes: a flat instruction list with
// labels/jumps, temp variables, and a tagged-variant Type lattice. It plays
// the role sentra's bytecode.Chunk/vmregister types play for the teacher,
// but sits one layer above bytecode — nothing here is register- or
// opcode-shaped yet.
package ir

// TypeKind is the tagged-variant discriminator for the Type lattice
// (spec.md §3). All consumers switch on Kind exhaustively, the same
// discipline sentra's ObjectType/OpCode enums follow.
type TypeKind int

const (
	TypeIndeterminate TypeKind = iota // unresolved state; dropped by Processed forms
	TypeNumber                        // unresolved numeric; dropped by Processed forms
	TypeBoolean
	TypeString
	TypeInt
	TypeUInt
	TypeFloat
	TypeByte
	TypeCustom
	TypeArray
	TypeList
	TypeObject
	TypeTuple
	TypeEnum
	TypeIndirect
)

// Type is the intermediate type-lattice form. Array/List/Indirect carry one
// Elem; Tuple carries Elems; Object carries an ordered Fields map (kept as
// a slice to preserve declaration order, per spec.md's "ordered map");
// Enum carries ordered Variants; Custom/primitive kinds carry only Name
// (empty for non-Custom primitives).
type Type struct {
	Kind     TypeKind
	Name     string // Custom type name
	Elem     *Type
	Elems    []Type
	Fields   []FieldType
	Variants []VariantType
}

type FieldType struct {
	Name string
	Type Type
}

type VariantKind int

const (
	VariantUnit VariantKind = iota
	VariantTuple
	VariantStruct
)

type VariantType struct {
	Name   string
	Kind   VariantKind
	Tuple  []Type
	Struct []FieldType
}

func Boolean() Type { return Type{Kind: TypeBoolean} }
func Int() Type     { return Type{Kind: TypeInt} }
func UInt() Type    { return Type{Kind: TypeUInt} }
func Float() Type   { return Type{Kind: TypeFloat} }
func Byte() Type    { return Type{Kind: TypeByte} }
func String() Type  { return Type{Kind: TypeString} }
func Number() Type  { return Type{Kind: TypeNumber} }
func Indeterminate() Type { return Type{Kind: TypeIndeterminate} }

// IsConcrete reports whether t contains no Indeterminate/Number — the
// requirement for a Processed-form type (spec.md §3).
func (t Type) IsConcrete() bool {
	switch t.Kind {
	case TypeIndeterminate, TypeNumber:
		return false
	case TypeArray, TypeList, TypeIndirect:
		return t.Elem == nil || t.Elem.IsConcrete()
	case TypeTuple:
		for _, e := range t.Elems {
			if !e.IsConcrete() {
				return false
			}
		}
		return true
	case TypeObject:
		for _, f := range t.Fields {
			if !f.Type.IsConcrete() {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String returns a human-readable type name for diagnostics.
func (t Type) String() string {
	switch t.Kind {
	case TypeIndeterminate:
		return "<indeterminate>"
	case TypeNumber:
		return "Number"
	case TypeBoolean:
		return "Bool"
	case TypeString:
		return "String"
	case TypeInt:
		return "Int"
	case TypeUInt:
		return "UInt"
	case TypeFloat:
		return "Float"
	case TypeByte:
		return "Byte"
	case TypeCustom:
		return t.Name
	case TypeArray:
		return "Array[" + elemName(t.Elem) + "]"
	case TypeList:
		return "List[" + elemName(t.Elem) + "]"
	case TypeIndirect:
		return "Indirect[" + elemName(t.Elem) + "]"
	case TypeTuple:
		s := "("
		for i, e := range t.Elems {
			if i > 0 {
				s += ", "
			}
			s += e.String()
		}
		return s + ")"
	case TypeObject:
		s := "{"
		for i, f := range t.Fields {
			if i > 0 {
				s += ", "
			}
			s += f.Name + ": " + f.Type.String()
		}
		return s + "}"
	case TypeEnum:
		return "enum"
	default:
		return "?"
	}
}

func elemName(t *Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

// Equal reports structural equality between two Types.
func Equal(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TypeCustom:
		return a.Name == b.Name
	case TypeArray, TypeList, TypeIndirect:
		if a.Elem == nil || b.Elem == nil {
			return a.Elem == b.Elem
		}
		return Equal(*a.Elem, *b.Elem)
	case TypeTuple:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case TypeObject:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !Equal(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
