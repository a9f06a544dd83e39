package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/npillmayer/clasp"
	"github.com/npillmayer/clasp/ast"
	"github.com/npillmayer/clasp/bytecode"
)

// translator holds the state of one compilation.
type translator struct {
	forest    *ast.Forest
	scopes    *scopeStack
	functions []*bytecode.Function
	arities   []int
	numbers   *pool
	texts     *pool
	errors    *multierror.Error
	span      clasp.Span // span of the node being translated
}

func newTranslator(forest *ast.Forest) *translator {
	return &translator{
		forest:  forest,
		scopes:  newScopeStack(),
		numbers: newPool("number"),
		texts:   newPool("text"),
	}
}

// Compile translates a syntax forest. Its roots are the statements of the
// top-level script, which becomes function 0 of the executable.
//
// If any problem is found, Compile returns no executable and a
// *multierror.Error of *Diagnostic; see Diagnostics.
func Compile(forest *ast.Forest) (*bytecode.Executable, error) {
	if forest == nil {
		return nil, multierror.Append(nil, &Diagnostic{Kind: ShapeError, Message: "no syntax forest"})
	}
	t := newTranslator(forest)
	t.openScope("", 0)
	t.statements(forest.Roots())
	t.emit(bytecode.OpReturn)
	t.closeScope()
	if t.scopes.Size() != 0 {
		t.report(ScopeError, t.span, "unbalanced scope stack: %d scopes left open", t.scopes.Size())
	}
	if err := t.errors.ErrorOrNil(); err != nil {
		tracer().Infof("compilation failed with %d errors", len(t.errors.Errors))
		return nil, err
	}
	exe := &bytecode.Executable{
		Functions: t.functions,
		Numbers:   t.numbers.numbers(),
		Texts:     t.texts.texts(),
	}
	tracer().Debugf("compiled %d functions, %d numbers, %d texts",
		len(exe.Functions), len(exe.Numbers), len(exe.Texts))
	return exe, nil
}

// --- Diagnostics -----------------------------------------------------------

func (t *translator) report(kind DiagnosticKind, span clasp.Span, format string, args ...interface{}) {
	d := &Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
	tracer().Infof("%v", d)
	t.errors = multierror.Append(t.errors, d)
}

// capacity reports that scope sc needs count entries of a kind which holds at
// most limit.
func (t *translator) capacity(what string, sc *Scope, count, limit int) {
	where := "script"
	if sc != nil && sc.Name != "" {
		where = sc.Name
	}
	d := &Diagnostic{
		Kind:    CapacityError,
		Message: fmt.Sprintf("too many %s in %s (%d, at most %d)", what, where, count, limit),
		Span:    t.span,
		Count:   count,
	}
	tracer().Infof("%v", d)
	t.errors = multierror.Append(t.errors, d)
}

// shape checks the number of children of a node.
func (t *translator) shape(n *ast.Node, want int) bool {
	if len(n.Children) != want {
		t.report(ShapeError, n.Span, "malformed %s: %d children, expected %d", n.Kind, len(n.Children), want)
		return false
	}
	return true
}

// --- Scopes ----------------------------------------------------------------

// openScope reserves the next function index and pushes a scope for it.
func (t *translator) openScope(self string, arity int) *Scope {
	index := len(t.functions)
	t.functions = append(t.functions, nil)
	t.arities = append(t.arities, arity)
	sc := t.scopes.PushNewScope(self, index)
	sc.Arity = arity
	if index == bytecode.MaxIndex+1 {
		t.capacity("functions", sc, index+1, bytecode.MaxIndex+1)
	}
	return sc
}

// closeScope pops the current scope and stores its compiled function.
func (t *translator) closeScope() *Scope {
	sc := t.scopes.PopScope()
	if sc == nil {
		t.report(ScopeError, t.span, "empty scope stack")
		return nil
	}
	fn := sc.function()
	t.functions[sc.Function] = fn
	tracer().Debugf("compiled %s", fn)
	return sc
}

// --- Expressions -----------------------------------------------------------

// statements compiles a statement list. Values of all but the last statement
// are discarded; the type of the last one is returned.
func (t *translator) statements(ids []ast.NodeID) Type {
	typ := Void
	for i, id := range ids {
		typ = t.expr(id)
		if i < len(ids)-1 && typ.Kind != VoidType {
			t.emitPop()
		}
	}
	return typ
}

// value compiles an expression which has to leave a value on the stack.
func (t *translator) value(id ast.NodeID) Type {
	typ := t.expr(id)
	if typ.Kind == VoidType {
		t.report(TypeError, t.spanOf(id), "expression has no value")
		return Any
	}
	return typ
}

func (t *translator) spanOf(id ast.NodeID) clasp.Span {
	if n := t.forest.Node(id); n != nil {
		return n.Span
	}
	return t.span
}

// expr compiles an expression and returns its static type. Only expressions
// of type Void leave nothing on the stack.
func (t *translator) expr(id ast.NodeID) Type {
	n := t.forest.Node(id)
	if n == nil {
		t.report(ShapeError, t.span, "invalid node reference %d", id)
		return Any
	}
	outer := t.span
	t.span = n.Span
	defer func() { t.span = outer }()
	switch n.Kind {
	case ast.Number:
		v, err := strconv.ParseFloat(n.Lexeme, 64)
		if err != nil {
			t.report(ShapeError, n.Span, "malformed number %s", n.Lexeme)
		}
		t.constant(bytecode.OpConstantNumber, t.numbers, n.Lexeme, v)
		return Number
	case ast.Text:
		t.constant(bytecode.OpConstantText, t.texts, n.Lexeme, unquote(n.Lexeme))
		return Text
	case ast.Boolean:
		if n.Lexeme == "true" {
			t.emit(bytecode.OpTrue)
		} else {
			t.emit(bytecode.OpFalse)
		}
		return Boolean
	case ast.Identifier:
		return t.identifier(n)
	case ast.Unary:
		return t.unary(n)
	case ast.Binary:
		return t.binary(n)
	case ast.Define:
		return t.define(n)
	case ast.Conditional:
		return t.conditional(n)
	case ast.Call:
		return t.call(n)
	case ast.Group:
		return t.group(n)
	case ast.Block:
		t.report(ShapeError, n.Span, "block used outside a function")
		return Any
	case ast.Send:
		return t.send(n)
	}
	t.report(ShapeError, n.Span, "unknown node kind %s", n.Kind)
	return Any
}

func unquote(lexeme string) string {
	if len(lexeme) >= 2 && strings.HasPrefix(lexeme, `"`) && strings.HasSuffix(lexeme, `"`) {
		return lexeme[1 : len(lexeme)-1]
	}
	return lexeme
}

func (t *translator) identifier(n *ast.Node) Type {
	r := t.resolve(n.Lexeme)
	switch r.Kind {
	case ResolvedCapture:
		t.emit(bytecode.OpGetCapture, r.Capture.Index)
	case ResolvedFresh:
		t.report(ScopeError, n.Span, "%s used before any initializing assignment", n.Lexeme)
		t.emit(bytecode.OpGetLocal, r.Local.Offset)
	default:
		if r.Local.State == Declared {
			t.report(ScopeError, n.Span, "initializer of %s references itself", n.Lexeme)
		}
		t.emit(bytecode.OpGetLocal, r.Local.Offset)
	}
	return r.Type()
}

func (t *translator) unary(n *ast.Node) Type {
	if !t.shape(n, 1) {
		return Any
	}
	typ := t.value(n.Children[0])
	switch n.Lexeme {
	case "-":
		if typ.Known() && typ.Kind != NumberType {
			t.report(TypeError, n.Span, "cannot negate a %s", typ)
		}
		t.emit(bytecode.OpNegate)
		return Number
	case "!":
		t.emit(bytecode.OpNot)
		return Boolean
	}
	t.report(ShapeError, n.Span, "unknown unary operator %s", n.Lexeme)
	return Any
}

var arithmetic = map[string]bytecode.Opcode{
	"+": bytecode.OpAdd,
	"-": bytecode.OpSubtract,
	"*": bytecode.OpMultiply,
	"/": bytecode.OpDivide,
	"^": bytecode.OpPower,
}

// relational operators and whether their result is negated
var relational = map[string]struct {
	op     bytecode.Opcode
	negate bool
}{
	"<":  {bytecode.OpLess, false},
	">":  {bytecode.OpGreater, false},
	"<=": {bytecode.OpGreater, true},
	">=": {bytecode.OpLess, true},
	"!=": {bytecode.OpEqual, true},
}

func (t *translator) binary(n *ast.Node) Type {
	if !t.shape(n, 2) {
		return Any
	}
	if n.Lexeme == "&" || n.Lexeme == "|" {
		return t.logical(n)
	}
	lhs := t.value(n.Children[0])
	rhs := t.value(n.Children[1])
	if op, ok := arithmetic[n.Lexeme]; ok {
		for _, typ := range [...]Type{lhs, rhs} {
			if typ.Known() && typ.Kind != NumberType {
				t.report(TypeError, n.Span, "operator %s expects numbers, have %s and %s", n.Lexeme, lhs, rhs)
				break
			}
		}
		t.emit(op)
		return Number
	}
	if rel, ok := relational[n.Lexeme]; ok {
		if rel.op == bytecode.OpEqual {
			t.equatable(n, lhs, rhs)
		} else {
			t.comparable(n, lhs, rhs)
		}
		t.emit(rel.op)
		if rel.negate {
			t.emit(bytecode.OpNot)
		}
		return Boolean
	}
	t.report(ShapeError, n.Span, "unknown binary operator %s", n.Lexeme)
	return Any
}

// comparable checks the operands of an ordering operator.
func (t *translator) comparable(n *ast.Node, lhs, rhs Type) {
	if lhs.Kind == ClosureType || rhs.Kind == ClosureType {
		t.report(TypeError, n.Span, "closures are incomparable")
	} else if lhs.Known() && rhs.Known() && lhs.Kind != rhs.Kind {
		t.report(TypeError, n.Span, "incomparable operands %s and %s", lhs, rhs)
	}
}

// equatable checks the operands of an equality test.
func (t *translator) equatable(n *ast.Node, lhs, rhs Type) {
	if lhs.Kind == ClosureType || rhs.Kind == ClosureType {
		t.report(TypeError, n.Span, "closures are incomparable")
	}
}

// logical compiles short-circuit & and |. Both yield a Boolean.
//
//    a & b:  a; BranchIfZero F; b; BranchIfZero F; True; Branch E; F: False; E:
func (t *translator) logical(n *ast.Node) Type {
	short, result, other := bytecode.OpBranchIfZero, bytecode.OpFalse, bytecode.OpTrue
	if n.Lexeme == "|" {
		short, result, other = bytecode.OpBranchIfNonZero, bytecode.OpTrue, bytecode.OpFalse
	}
	t.value(n.Children[0])
	first := t.emitBranch(short)
	t.value(n.Children[1])
	second := t.emitBranch(short)
	t.emit(other)
	end := t.emitBranch(bytecode.OpBranch)
	t.patch(first)
	t.patch(second)
	t.emit(result)
	t.patch(end)
	return Boolean
}

func (t *translator) conditional(n *ast.Node) Type {
	if !t.shape(n, 3) {
		return Any
	}
	t.value(n.Children[0])
	otherwise := t.emitBranch(bytecode.OpBranchIfZero)
	then := t.expr(n.Children[1])
	end := t.emitBranch(bytecode.OpBranch)
	t.patch(otherwise)
	els := t.expr(n.Children[2])
	t.patch(end)
	if (then.Kind == VoidType) != (els.Kind == VoidType) {
		t.report(TypeError, n.Span, "conditional arms disagree: %s and %s", then, els)
		return Any
	}
	if then == els {
		return then
	}
	return Any
}

// send compiles `destination <- message`. The message is evaluated first.
func (t *translator) send(n *ast.Node) Type {
	if !t.shape(n, 2) {
		return Any
	}
	t.value(n.Children[1])
	t.value(n.Children[0])
	t.emit(bytecode.OpSend)
	return Void
}

// group compiles a parenthesis outside of call arguments. A single member is
// transparent.
func (t *translator) group(n *ast.Node) Type {
	switch len(n.Children) {
	case 0:
		t.report(ShapeError, n.Span, "empty group")
		return Any
	case 1:
		if m := t.forest.Node(n.Children[0]); m != nil && m.Kind == ast.Group {
			t.report(ShapeError, n.Span, "unnecessary parenthesis")
		}
		return t.expr(n.Children[0])
	}
	if len(n.Children) > bytecode.MaxIndex {
		t.capacity("group members", t.scopes.Current(), len(n.Children), bytecode.MaxIndex)
	}
	for _, m := range n.Children {
		t.value(m)
	}
	t.emit(bytecode.OpGroup, len(n.Children))
	return GroupOf(len(n.Children))
}
