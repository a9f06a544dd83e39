package syntax

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/npillmayer/clasp"
	"github.com/npillmayer/clasp/ast"
)

// SyntaxError is an error reported by the scanner or parser.
type SyntaxError struct {
	Msg  string
	Span clasp.Span
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Span.From(), e.Msg)
}

// Parse parses a clasp script. It returns the syntax forest and, if the input
// contained errors, a *multierror.Error of *SyntaxError. The parser recovers at
// statement boundaries, so one call may report several errors.
func Parse(source string) (*ast.Forest, error) {
	p := &parser{
		forest:  ast.NewForest(),
		nesting: []bool{true},
	}
	toks, err := scan(source, p.report)
	if err != nil {
		return nil, fmt.Errorf("scanner: %w", err)
	}
	p.toks = toks
	p.statements("", p.forest.AddRoot)
	if !p.atEOF() {
		p.report(fmt.Errorf("unexpected %s", p.peek()), p.peek().span)
	}
	tracer().Debugf("parsed %d statements, %d nodes", len(p.forest.Roots()), p.forest.Len())
	return p.forest, p.errors.ErrorOrNil()
}

type parser struct {
	forest  *ast.Forest
	toks    []token
	pos     int
	nesting []bool // top: newlines separate statements
	errors  *multierror.Error
}

// bailout is used to unwind the parse of a single statement.
type bailout struct{}

func (p *parser) report(err error, span clasp.Span) {
	tracer().Infof("syntax error: %v", err)
	p.errors = multierror.Append(p.errors, &SyntaxError{Msg: err.Error(), Span: span})
}

func (p *parser) fail(format string, args ...interface{}) {
	p.report(fmt.Errorf(format, args...), p.peek().span)
	panic(bailout{})
}

// --- Token stream ----------------------------------------------------------

func (p *parser) newlines() bool {
	return p.nesting[len(p.nesting)-1]
}

func (p *parser) peek() token {
	for p.toks[p.pos].kind == NL && !p.newlines() {
		p.pos++
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	if t.kind != EOF {
		p.pos++
	}
	return t
}

func (p *parser) is(lexeme string) bool {
	t := p.peek()
	return t.kind == OP && t.lexeme == lexeme
}

func (p *parser) accept(lexeme string) (token, bool) {
	if p.is(lexeme) {
		return p.next(), true
	}
	return token{}, false
}

func (p *parser) expect(lexeme string) token {
	if !p.is(lexeme) {
		p.fail("expected '%s', found %s", lexeme, p.peek())
	}
	return p.next()
}

func (p *parser) atEOF() bool {
	return p.peek().kind == EOF
}

func (p *parser) atSeparator() bool {
	t := p.peek()
	return t.kind == NL || (t.kind == OP && t.lexeme == ";")
}

// atClosing checks for the end of a statement list. closing is "]" for blocks
// and "" for the script.
func (p *parser) atClosing(closing string) bool {
	if p.atEOF() {
		return true
	}
	return closing != "" && p.is(closing)
}

func (p *parser) skipSeparators() {
	for p.atSeparator() {
		p.next()
	}
}

// synchronize skips to the next statement boundary.
func (p *parser) synchronize(closing string) {
	depth := 0
	for !p.atEOF() {
		if depth == 0 && (p.atSeparator() || p.atClosing(closing)) {
			return
		}
		t := p.next()
		if t.kind == OP {
			switch t.lexeme {
			case "(", "[":
				depth++
			case ")", "]":
				if depth > 0 {
					depth--
				}
			}
		}
	}
}

// --- Statements ------------------------------------------------------------

func (p *parser) statements(closing string, add func(ast.NodeID)) {
	for {
		p.skipSeparators()
		if p.atClosing(closing) {
			return
		}
		if id, ok := p.statement(); ok {
			add(id)
		} else {
			p.synchronize(closing)
			continue
		}
		if !p.atSeparator() && !p.atClosing(closing) {
			p.report(fmt.Errorf("expected end of statement, found %s", p.peek()), p.peek().span)
			p.synchronize(closing)
		}
	}
}

func (p *parser) statement() (id ast.NodeID, ok bool) {
	depth := len(p.nesting)
	defer func() {
		if r := recover(); r != nil {
			if _, is := r.(bailout); !is {
				panic(r)
			}
			p.nesting = p.nesting[:depth]
			id, ok = ast.NoNode, false
		}
	}()
	return p.expr(), true
}

// --- Expressions -----------------------------------------------------------

func (p *parser) node(kind ast.Kind, lexeme string, children ...ast.NodeID) ast.NodeID {
	var span clasp.Span
	for _, ch := range children {
		span = span.Extend(p.forest.Node(ch).Span)
	}
	return p.forest.Add(kind, lexeme, span, children...)
}

func (p *parser) expr() ast.NodeID {
	return p.send()
}

// send := define [ '<-' define ]
func (p *parser) send() ast.NodeID {
	dest := p.define()
	if _, ok := p.accept("<-"); ok {
		msg := p.define()
		return p.node(ast.Send, "<-", dest, msg)
	}
	return dest
}

// define := cond [ '=' define ]
func (p *parser) define() ast.NodeID {
	target := p.cond()
	if _, ok := p.accept("="); ok {
		value := p.define()
		return p.node(ast.Define, "=", target, value)
	}
	return target
}

// cond := or [ '?' expr ':' expr ]
func (p *parser) cond() ast.NodeID {
	c := p.or()
	if _, ok := p.accept("?"); ok {
		then := p.expr()
		p.expect(":")
		els := p.expr()
		return p.node(ast.Conditional, "?", c, then, els)
	}
	return c
}

func (p *parser) or() ast.NodeID {
	lhs := p.and()
	for p.is("|") {
		op := p.next()
		lhs = p.node(ast.Binary, op.lexeme, lhs, p.and())
	}
	return lhs
}

func (p *parser) and() ast.NodeID {
	lhs := p.rel()
	for p.is("&") {
		op := p.next()
		lhs = p.node(ast.Binary, op.lexeme, lhs, p.rel())
	}
	return lhs
}

func (p *parser) rel() ast.NodeID {
	lhs := p.sum()
	for p.is("<") || p.is(">") || p.is("<=") || p.is(">=") || p.is("!=") {
		op := p.next()
		lhs = p.node(ast.Binary, op.lexeme, lhs, p.sum())
	}
	return lhs
}

func (p *parser) sum() ast.NodeID {
	lhs := p.prod()
	for p.is("+") || p.is("-") {
		op := p.next()
		lhs = p.node(ast.Binary, op.lexeme, lhs, p.prod())
	}
	return lhs
}

func (p *parser) prod() ast.NodeID {
	lhs := p.unary()
	for p.is("*") || p.is("/") {
		op := p.next()
		lhs = p.node(ast.Binary, op.lexeme, lhs, p.unary())
	}
	return lhs
}

func (p *parser) unary() ast.NodeID {
	if p.is("-") || p.is("!") {
		op := p.next()
		operand := p.unary()
		id := p.node(ast.Unary, op.lexeme, operand)
		n := p.forest.Node(id)
		n.Span = op.span.Extend(n.Span)
		return id
	}
	return p.power()
}

// power := call [ '^' unary ], right associative
func (p *parser) power() ast.NodeID {
	base := p.call()
	if _, ok := p.accept("^"); ok {
		return p.node(ast.Binary, "^", base, p.unary())
	}
	return base
}

// call := primary { '(' [ expr { ',' expr } ] ')' }
func (p *parser) call() ast.NodeID {
	callee := p.primary()
	for p.is("(") {
		args := p.group()
		callee = p.node(ast.Call, "", callee, args)
	}
	return callee
}

func (p *parser) primary() ast.NodeID {
	t := p.peek()
	switch t.kind {
	case NUMBER:
		p.next()
		return p.forest.Add(ast.Number, t.lexeme, t.span)
	case TEXT:
		p.next()
		return p.forest.Add(ast.Text, t.lexeme, t.span)
	case IDENT:
		p.next()
		if t.lexeme == "true" || t.lexeme == "false" {
			return p.forest.Add(ast.Boolean, t.lexeme, t.span)
		}
		return p.forest.Add(ast.Identifier, t.lexeme, t.span)
	case OP:
		switch t.lexeme {
		case "(":
			return p.group()
		case "[":
			return p.block()
		}
	}
	p.fail("unexpected %s", t)
	return ast.NoNode
}

// group parses '(' [ expr { ',' expr } ] ')'. Every parenthesis produces a group
// node, even around a single expression; the compiler decides whether a group
// is transparent.
func (p *parser) group() ast.NodeID {
	open := p.expect("(")
	p.nesting = append(p.nesting, false)
	var members []ast.NodeID
	if !p.is(")") {
		members = append(members, p.expr())
		for {
			if _, ok := p.accept(","); !ok {
				break
			}
			members = append(members, p.expr())
		}
	}
	closing := p.expect(")")
	p.nesting = p.nesting[:len(p.nesting)-1]
	return p.forest.Add(ast.Group, "", clasp.Span{open.span.From(), closing.span.To()}, members...)
}

// block parses '[' statements ']'.
func (p *parser) block() ast.NodeID {
	open := p.expect("[")
	p.nesting = append(p.nesting, true)
	var stmts []ast.NodeID
	p.statements("]", func(id ast.NodeID) {
		stmts = append(stmts, id)
	})
	closing := p.expect("]")
	p.nesting = p.nesting[:len(p.nesting)-1]
	return p.forest.Add(ast.Block, "", clasp.Span{open.span.From(), closing.span.To()}, stmts...)
}
