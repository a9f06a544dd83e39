package compiler

import (
	"github.com/npillmayer/clasp/ast"
	"github.com/npillmayer/clasp/bytecode"
)

// define compiles `target = value`. The operator declares if the target is
// unbound and compares otherwise:
//
//    x = …         x unbound: bind x
//    f(a, b) = …   f unbound: define function f
//    anything else compares both sides for equality
func (t *translator) define(n *ast.Node) Type {
	if !t.shape(n, 2) {
		return Any
	}
	if target := t.forest.Node(n.Children[0]); target != nil {
		switch target.Kind {
		case ast.Identifier:
			return t.assign(n, target)
		case ast.Call:
			if t.isSignature(target) {
				return t.function(n, target)
			}
		}
	}
	return t.compare(n)
}

func (t *translator) compare(n *ast.Node) Type {
	lhs := t.value(n.Children[0])
	rhs := t.value(n.Children[1])
	t.equatable(n, lhs, rhs)
	t.emit(bytecode.OpEqual)
	return Boolean
}

// declare prepares the local a definition of name binds. It returns nil if
// name is bound already or is being initialized.
func (t *translator) declare(n *ast.Node, name string) *Local {
	cur := t.scopes.Current()
	l := cur.ResolveLocal(name)
	switch {
	case l == nil:
		return t.defineLocal(cur, name, Declared)
	case l.State == Declared:
		t.report(ScopeError, n.Span, "initializer of %s references itself", name)
		return nil
	case l.State == Referenced:
		l.State = Declared
		return l
	}
	return nil
}

// initialize completes a binding: the value on top of the stack is stored into
// l and stays on the stack.
func (t *translator) initialize(l *Local, typ Type) Type {
	t.emit(bytecode.OpSetLocal, l.Offset)
	l.State = Initialized
	l.Depth = t.scopes.Current().Depth
	l.Type = typ
	return typ
}

func (t *translator) assign(n *ast.Node, target *ast.Node) Type {
	name := target.Lexeme
	if t.bound(name) {
		return t.compare(n)
	}
	l := t.declare(n, name)
	if l == nil {
		t.value(n.Children[1])
		return Any
	}
	typ := t.value(n.Children[1])
	return t.initialize(l, typ)
}

// isSignature checks for `name(param, …)` with identifiers only.
func (t *translator) isSignature(call *ast.Node) bool {
	if len(call.Children) != 2 {
		return false
	}
	callee, params := t.forest.Node(call.Children[0]), t.forest.Node(call.Children[1])
	if callee == nil || callee.Kind != ast.Identifier || params == nil || params.Kind != ast.Group {
		return false
	}
	for _, p := range params.Children {
		if pn := t.forest.Node(p); pn == nil || pn.Kind != ast.Identifier {
			return false
		}
	}
	return true
}

// function compiles a function definition `name(params) = body`. The body is
// compiled in a new scope where slot 0 is bound to name and the parameters
// follow. Afterwards a closure is built in the enclosing function, sourcing
// one value per capture of the new function, and bound to name.
func (t *translator) function(n *ast.Node, signature *ast.Node) Type {
	callee := t.forest.Node(signature.Children[0])
	params := t.forest.Node(signature.Children[1]).Children
	name := callee.Lexeme
	if t.bound(name) {
		t.report(ScopeError, n.Span, "function %s re-initialized", name)
		return Any
	}
	l := t.declare(n, name)
	if l == nil {
		return Any
	}
	sc := t.openScope(name, len(params))
	if len(params) > bytecode.MaxIndex {
		t.capacity("parameters", sc, len(params), bytecode.MaxIndex)
	}
	for _, p := range params {
		param := sc.DefineLocal(t.forest.Node(p).Lexeme, Initialized)
		param.Depth = sc.Depth
	}
	t.body(n.Children[1])
	t.emit(bytecode.OpReturn)
	if t.closeScope() == nil {
		return Any
	}
	operands := make([]int, 0, 2+len(sc.captures))
	operands = append(operands, sc.Function, len(sc.captures))
	for _, c := range sc.captures {
		operands = append(operands, c.Slot)
	}
	t.emit(bytecode.OpClosure, operands...)
	return t.initialize(l, ClosureOf(sc.Function))
}

// body compiles a function body, which is either a block or an expression.
func (t *translator) body(id ast.NodeID) {
	b := t.forest.Node(id)
	if b == nil || b.Kind != ast.Block {
		t.expr(id)
		return
	}
	if len(b.Children) == 0 {
		t.report(ShapeError, b.Span, "empty block")
		return
	}
	outer := t.span
	t.span = b.Span
	t.statements(b.Children)
	t.span = outer
}

// --- Calls -----------------------------------------------------------------

// call compiles `callee(args)`. If the callee is known at compile time, its
// arity decides how a parenthesized argument is passed:
//
//    f((a, b))   f takes 2: a and b are passed as arguments
//    f((a, b))   f takes 1: the group is passed as one argument
//    f(g)        g is a known 2-group and f takes 2: g is separated
func (t *translator) call(n *ast.Node) Type {
	if !t.shape(n, 2) {
		return Any
	}
	callee := t.value(n.Children[0])
	arity := -1
	switch callee.Kind {
	case ClosureType:
		arity = t.arities[callee.Fn]
	case AnyType:
	default:
		t.report(TypeError, n.Span, "cannot call a %s", callee)
	}
	args := t.forest.Node(n.Children[1])
	if args == nil || args.Kind != ast.Group {
		t.report(ShapeError, n.Span, "malformed call: arguments are not a group")
		return Any
	}
	argc := t.arguments(n, args, arity)
	if argc > bytecode.MaxIndex {
		t.capacity("arguments", t.scopes.Current(), argc, bytecode.MaxIndex)
	}
	t.emit(bytecode.OpCall, argc)
	return Any
}

// arguments pushes the arguments of a call and returns their count. arity is
// -1 for unknown callees.
func (t *translator) arguments(n *ast.Node, args *ast.Node, arity int) int {
	if len(args.Children) == 1 {
		m := t.forest.Node(args.Children[0])
		if m != nil && m.Kind == ast.Group {
			return t.groupArgument(n, args.Children[0], m, arity)
		}
		typ := t.value(args.Children[0])
		if typ.Kind == GroupType && arity >= 0 && arity != 1 {
			if typ.Size != arity {
				t.mismatch(n, arity, typ.Size)
			}
			t.emit(bytecode.OpSeparate, typ.Size)
			return typ.Size
		}
		if arity >= 0 && arity != 1 {
			t.mismatch(n, arity, 1)
		}
		return 1
	}
	for _, a := range args.Children {
		t.value(a)
	}
	if arity >= 0 && len(args.Children) != arity {
		t.mismatch(n, arity, len(args.Children))
	}
	return len(args.Children)
}

// groupArgument handles `f((…))`. The inner group is forwarded member by member
// if its size matches the callee's arity, and packed otherwise.
func (t *translator) groupArgument(n *ast.Node, id ast.NodeID, g *ast.Node, arity int) int {
	if len(g.Children) == 1 {
		t.report(ShapeError, g.Span, "unnecessary parenthesis")
	}
	if len(g.Children) > 1 && len(g.Children) == arity {
		tracer().Debugf("forwarding group of %d as arguments", arity)
		for _, m := range g.Children {
			t.value(m)
		}
		return arity
	}
	t.value(id)
	if arity >= 0 && arity != 1 {
		t.mismatch(n, arity, 1)
	}
	return 1
}

func (t *translator) mismatch(n *ast.Node, arity, argc int) {
	name := "function"
	if callee := t.forest.Node(n.Children[0]); callee != nil && callee.Kind == ast.Identifier {
		name = callee.Lexeme
	}
	t.report(TypeError, n.Span, "%s expects %d arguments, have %d", name, arity, argc)
}
