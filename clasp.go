package clasp

import "fmt"

// TokType categorizes the tokens of clasp source text. The categories are
// defined in package syntax.
type TokType int

// Span locates a piece of source text as a half-open range of byte offsets.
// Nodes of a syntax forest and compiler diagnostics carry spans so errors can
// be reported at their source position.
type Span [2]uint64

// From is the offset of the first byte covered.
func (s Span) From() uint64 {
	return s[0]
}

// To is the offset just behind the last byte covered.
func (s Span) To() uint64 {
	return s[1]
}

// IsNull is true for the zero span, which covers nothing.
func (s Span) IsNull() bool {
	return s == Span{}
}

// Extend returns the smallest span covering both s and other. The zero span
// is neutral.
func (s Span) Extend(other Span) Span {
	switch {
	case s.IsNull():
		return other
	case other.IsNull():
		return s
	}
	if other[0] < s[0] {
		s[0] = other[0]
	}
	if other[1] > s[1] {
		s[1] = other[1]
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("%d…%d", s[0], s[1])
}
