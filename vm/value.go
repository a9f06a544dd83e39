package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type of a runtime value.
type Kind uint8

// Value kinds. The zero Value is Void.
const (
	VoidKind Kind = iota
	NumberKind
	TextKind
	BooleanKind
	ClosureKind
	GroupKind
)

var kindNames = [...]string{"void", "number", "text", "boolean", "closure", "group"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Value is a runtime value. Values are copied by value; the members of groups
// and the captures of closures are never modified after construction.
type Value struct {
	Kind    Kind
	Num     float64
	Str     string
	Bool    bool
	Fn      int     // function index of a closure
	Members []Value // members of a group, captures of a closure
}

// Void is the absent value.
func Void() Value { return Value{} }

// Number creates a number value.
func Number(n float64) Value {
	return Value{Kind: NumberKind, Num: n}
}

// Text creates a text value.
func Text(s string) Value {
	return Value{Kind: TextKind, Str: s}
}

// Boolean creates a Boolean value.
func Boolean(b bool) Value {
	return Value{Kind: BooleanKind, Bool: b}
}

// Group creates a group of values.
func Group(members ...Value) Value {
	return Value{Kind: GroupKind, Members: members}
}

// Closure creates a closure over function fn with captured values.
func Closure(fn int, captures []Value) Value {
	return Value{Kind: ClosureKind, Fn: fn, Members: captures}
}

// IsVoid is a predicate: is v the absent value?
func (v Value) IsVoid() bool {
	return v.Kind == VoidKind
}

// IsZero is true for the number 0, for false and for void. Conditional
// branches test for zero.
func (v Value) IsZero() bool {
	switch v.Kind {
	case VoidKind:
		return true
	case NumberKind:
		return v.Num == 0
	case BooleanKind:
		return !v.Bool
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case VoidKind:
		return "void"
	case NumberKind:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case TextKind:
		return v.Str
	case BooleanKind:
		return strconv.FormatBool(v.Bool)
	case ClosureKind:
		return fmt.Sprintf("<closure #%d/%d>", v.Fn, len(v.Members))
	case GroupKind:
		parts := make([]string, len(v.Members))
		for i, m := range v.Members {
			if m.Kind == TextKind {
				parts[i] = strconv.Quote(m.Str)
			} else {
				parts[i] = m.String()
			}
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return "?"
}

// Compare orders two values: -1, 0 or +1. Numbers, texts and Booleans compare
// with their own kind, groups member by member. Everything else returns
// ErrIncomparable.
func Compare(a, b Value) (int, error) {
	if a.Kind != b.Kind {
		return 0, ErrIncomparable
	}
	switch a.Kind {
	case NumberKind:
		switch {
		case a.Num < b.Num:
			return -1, nil
		case a.Num > b.Num:
			return 1, nil
		}
		return 0, nil
	case TextKind:
		return strings.Compare(a.Str, b.Str), nil
	case BooleanKind:
		switch {
		case a.Bool == b.Bool:
			return 0, nil
		case !a.Bool:
			return -1, nil
		}
		return 1, nil
	case GroupKind:
		for i := 0; i < len(a.Members) && i < len(b.Members); i++ {
			c, err := Compare(a.Members[i], b.Members[i])
			if err != nil || c != 0 {
				return c, err
			}
		}
		switch {
		case len(a.Members) < len(b.Members):
			return -1, nil
		case len(a.Members) > len(b.Members):
			return 1, nil
		}
		return 0, nil
	case VoidKind:
		return 0, nil
	}
	return 0, ErrIncomparable
}

// Equal tests two values for equality. Values of different kinds are not
// equal; closures cannot be compared.
func Equal(a, b Value) (bool, error) {
	if a.Kind == ClosureKind || b.Kind == ClosureKind {
		return false, ErrIncomparable
	}
	if a.Kind != b.Kind {
		return false, nil
	}
	if a.Kind == GroupKind {
		if len(a.Members) != len(b.Members) {
			return false, nil
		}
		for i := range a.Members {
			if eq, err := Equal(a.Members[i], b.Members[i]); err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	}
	c, err := Compare(a, b)
	return c == 0, err
}
