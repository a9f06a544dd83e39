package compiler

import "fmt"

// TypeKind is the category of a static type.
type TypeKind uint8

// Static type categories. Any is an unknown type and never causes a
// diagnostic.
const (
	AnyType TypeKind = iota
	VoidType
	NumberType
	TextType
	BooleanType
	GroupType
	ClosureType
)

// Type is the static type the translator infers for an expression. It is used
// for diagnostics only and does not survive compilation.
type Type struct {
	Kind TypeKind
	Size int // members of a group
	Fn   int // function index of a closure
}

// Frequently used types.
var (
	Any     = Type{Kind: AnyType}
	Void    = Type{Kind: VoidType}
	Number  = Type{Kind: NumberType}
	Text    = Type{Kind: TextType}
	Boolean = Type{Kind: BooleanType}
)

// GroupOf is the type of an n-valued group.
func GroupOf(n int) Type {
	return Type{Kind: GroupType, Size: n}
}

// ClosureOf is the type of a closure over function fn.
func ClosureOf(fn int) Type {
	return Type{Kind: ClosureType, Fn: fn}
}

// Known is false for Any.
func (t Type) Known() bool {
	return t.Kind != AnyType
}

func (t Type) String() string {
	switch t.Kind {
	case AnyType:
		return "any"
	case VoidType:
		return "void"
	case NumberType:
		return "number"
	case TextType:
		return "text"
	case BooleanType:
		return "boolean"
	case GroupType:
		return fmt.Sprintf("group(%d)", t.Size)
	case ClosureType:
		return fmt.Sprintf("closure(#%d)", t.Fn)
	}
	return "?"
}
