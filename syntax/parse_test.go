package syntax

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/npillmayer/clasp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestScanTokens(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.syntax")
	defer teardown()
	//
	var inputs = []struct {
		src   string
		count int // without EOF
	}{
		{"1", 1},
		{"1+12", 3},
		{`x = "text" # comment`, 3},
		{"f(x, y) = x ^ y", 10},
		{"a <- b\nc <= 2", 7},
	}
	for i, input := range inputs {
		toks, err := scan(input.src, func(error, clasp.Span) {})
		if err != nil {
			t.Fatalf("#%d: scanner error: %v", i, err)
		}
		if len(toks)-1 != input.count {
			t.Errorf("#%d: expected %d tokens for %q, have %d: %v", i, input.count, input.src, len(toks)-1, toks)
		}
	}
}

func TestParseExpressions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.syntax")
	defer teardown()
	//
	var cases = []struct {
		src, expected string
	}{
		{"(4 + 40) - 2", "(- (group (+ 4 40)) 2)"},
		{"x = 2\nx + 40", "(define x 2)\n(+ x 40)"},
		{"x = (1, (2, 3))", "(define x (group 1 (group 2 3)))"},
		{"f(x, y) = x ^ y", "(define (call f (group x y)) (^ x y))"},
		{"f((4, 2))", "(call f (group (group 4 2)))"},
		{"2 ^ 3 ^ 2", "(^ 2 (^ 3 2))"},
		{"-x * 3", "(* (- x) 3)"},
		{"a < b & !c | d", "(| (& (< a b) (! c)) d)"},
		{"(n < 2) ? n : m", "(conditional (group (< n 2)) n m)"},
		{"\"pid\" <- 42", "(send \"pid\" 42)"},
		{"g(x) = [y = x; y * 2]", "(define (call g (group x)) (block (define y x) (* y 2)))"},
		{"f()(1)", "(call (call f (group)) (group 1))"},
		{"(1,\n 2)", "(group 1 2)"},
	}
	for _, c := range cases {
		forest, err := Parse(c.src)
		if err != nil {
			t.Errorf("cannot parse %q: %v", c.src, err)
			continue
		}
		if s := forest.Dump(); s != c.expected {
			t.Errorf("for %q expected\n%s\nhave\n%s", c.src, c.expected, s)
		}
	}
}

func TestParseBlockStatements(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.syntax")
	defer teardown()
	//
	src := `h(a) = [
	b = a + 1
	c = b * 2; c
]
h(1)`
	forest, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forest.Roots()) != 2 {
		t.Fatalf("expected 2 top-level statements, have %d", len(forest.Roots()))
	}
	def := forest.Node(forest.Roots()[0])
	block := forest.Node(def.Children[1])
	if len(block.Children) != 3 {
		t.Errorf("expected block of 3 statements, have %d", len(block.Children))
	}
}

func TestParseErrorsRecover(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.syntax")
	defer teardown()
	//
	src := "x = 1 +\ny = 2 2\nz = 3"
	forest, err := Parse(src)
	if err == nil {
		t.Fatalf("expected syntax errors")
	}
	merr, ok := err.(*multierror.Error)
	if !ok {
		t.Fatalf("expected multierror, have %T", err)
	}
	if len(merr.Errors) < 2 {
		t.Errorf("expected at least 2 errors, have %d: %v", len(merr.Errors), merr)
	}
	if _, ok := merr.Errors[0].(*SyntaxError); !ok {
		t.Errorf("expected *SyntaxError, have %T", merr.Errors[0])
	}
	last := forest.Roots()[len(forest.Roots())-1]
	if s := forest.String(last); s != "(define z 3)" {
		t.Errorf("expected parser to recover for last statement, have %s", s)
	}
}

func TestPosition(t *testing.T) {
	line, col := Position("ab\ncd", 4)
	if line != 2 || col != 2 {
		t.Errorf("expected 2:2, have %d:%d", line, col)
	}
}
