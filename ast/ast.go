/*
Package ast defines the syntax forest the compiler consumes.

A forest is an ordered collection of expression nodes. Nodes refer to their
children by index, so a forest is a flat table and may be built by any front end,
not only by package syntax. The top-level statements of a script are the roots of
the forest.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package ast

import (
	"fmt"
	"strings"

	"github.com/npillmayer/clasp"
)

// NodeID addresses a node within a forest.
type NodeID int32

// NoNode is the invalid node reference.
const NoNode NodeID = -1

// Kind is the category of a node.
type Kind uint8

// Node kinds. The comment gives the expected children.
const (
	Number      Kind = iota // –
	Text                    // –
	Boolean                 // –
	Identifier              // –
	Unary                   // operand
	Binary                  // lhs, rhs
	Define                  // target, value
	Conditional             // condition, then, else
	Call                    // callee, argument group
	Group                   // members…
	Block                   // statements…
	Send                    // destination, message
)

var kindNames = [...]string{"number", "text", "boolean", "identifier", "unary", "binary",
	"define", "conditional", "call", "group", "block", "send"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Node is an expression node. Lexeme holds the literal text for literals, the
// name for identifiers and the operator for unary and binary nodes.
type Node struct {
	Kind     Kind
	Lexeme   string
	Span     clasp.Span
	Children []NodeID
}

// Forest is an ordered forest of expression nodes.
type Forest struct {
	nodes []Node
	roots []NodeID
}

// NewForest creates an empty forest.
func NewForest() *Forest {
	return &Forest{
		nodes: make([]Node, 0, 64),
	}
}

// Add appends a node and returns its ID.
func (f *Forest) Add(kind Kind, lexeme string, span clasp.Span, children ...NodeID) NodeID {
	id := NodeID(len(f.nodes))
	f.nodes = append(f.nodes, Node{
		Kind:     kind,
		Lexeme:   lexeme,
		Span:     span,
		Children: children,
	})
	return id
}

// AddRoot appends a top-level statement.
func (f *Forest) AddRoot(id NodeID) {
	f.roots = append(f.roots, id)
}

// Node returns the node for id, or nil if id is not part of the forest.
func (f *Forest) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(f.nodes) {
		return nil
	}
	return &f.nodes[id]
}

// Roots returns the top-level statements in source order.
func (f *Forest) Roots() []NodeID {
	return f.roots
}

// Len is the number of nodes in the forest.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// Walk visits the subtree at id depth-first, parents before children.
func (f *Forest) Walk(id NodeID, visit func(level int, n *Node)) {
	f.walk(id, 0, visit)
}

func (f *Forest) walk(id NodeID, level int, visit func(int, *Node)) {
	n := f.Node(id)
	if n == nil {
		return
	}
	visit(level, n)
	for _, ch := range n.Children {
		f.walk(ch, level+1, visit)
	}
}

// String returns an s-expression for the subtree at id, e.g. `(- (+ 4 40) 2)`.
func (f *Forest) String(id NodeID) string {
	var b strings.Builder
	f.format(&b, id)
	return b.String()
}

func (f *Forest) format(b *strings.Builder, id NodeID) {
	n := f.Node(id)
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	switch n.Kind {
	case Number, Text, Boolean, Identifier:
		b.WriteString(n.Lexeme)
		return
	}
	b.WriteByte('(')
	switch n.Kind {
	case Unary, Binary:
		b.WriteString(n.Lexeme)
	default:
		b.WriteString(n.Kind.String())
	}
	for _, ch := range n.Children {
		b.WriteByte(' ')
		f.format(b, ch)
	}
	b.WriteByte(')')
}

// Dump returns one s-expression per root, separated by newlines.
func (f *Forest) Dump() string {
	lines := make([]string, len(f.roots))
	for i, r := range f.roots {
		lines[i] = f.String(r)
	}
	return strings.Join(lines, "\n")
}
