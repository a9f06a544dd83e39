package vm

import (
	"errors"
	"testing"

	"github.com/npillmayer/clasp/bytecode"
	"github.com/npillmayer/clasp/compiler"
	"github.com/npillmayer/clasp/syntax"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func build(t *testing.T, source string) *bytecode.Executable {
	t.Helper()
	forest, err := syntax.Parse(source)
	if err != nil {
		t.Fatalf("cannot parse %q: %v", source, err)
	}
	exe, err := compiler.Compile(forest)
	if err != nil {
		t.Fatalf("cannot compile %q: %v", source, err)
	}
	return exe
}

func run(t *testing.T, source string, opts ...Option) (Value, error) {
	t.Helper()
	return New(opts...).Call(build(t, source), 0)
}

func expectNumber(t *testing.T, source string, expected float64) {
	t.Helper()
	v, err := run(t, source)
	if err != nil {
		t.Errorf("%q: unexpected error %v", source, err)
		return
	}
	if v.Kind != NumberKind || v.Num != expected {
		t.Errorf("%q: expected %v, have %v", source, expected, v)
	}
}

func assemble(instructions ...bytecode.Instructions) bytecode.Instructions {
	var code bytecode.Instructions
	for _, ins := range instructions {
		code = append(code, ins...)
	}
	return code
}

func TestScenarioArithmetic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	expectNumber(t, "(4 + 40) - 2", 42)
}

func TestScenarioLocal(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	exe := build(t, "x = 2\nx + 40")
	if fn := exe.Functions[0]; fn.Locals != 1 || len(fn.Captures) != 0 {
		t.Errorf("expected 1 local and 0 captures, have %v", fn)
	}
	v, err := New().Call(exe, 0)
	if err != nil || v.Num != 42 {
		t.Errorf("expected 42, have %v (%v)", v, err)
	}
}

func TestNestedGroup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	v, err := run(t, "x = (1, (2, 3))\nx")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != GroupKind || len(v.Members) != 2 {
		t.Fatalf("expected group of 2, have %v", v)
	}
	inner := v.Members[1]
	if inner.Kind != GroupKind || len(inner.Members) != 2 || inner.Members[1].Num != 3 {
		t.Errorf("expected second member (2, 3), have %v", inner)
	}
	if s := v.String(); s != "(1, (2, 3))" {
		t.Errorf("unexpected rendering %s", s)
	}
}

func TestExpressions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	var cases = []struct {
		source   string
		expected Value
	}{
		{"10 / 4", Number(2.5)},
		{"-2 ^ 2", Number(-4)},
		{"2 ^ 3 ^ 2", Number(512)},
		{"true & false", Boolean(false)},
		{"false | 1", Boolean(true)},
		{"0 | false", Boolean(false)},
		{"!0", Boolean(true)},
		{"2 <= 2", Boolean(true)},
		{"3 >= 4", Boolean(false)},
		{"3 != 3", Boolean(false)},
		{`"abc" < "abd"`, Boolean(true)},
		{`1 < 2 ? "yes" : "no"`, Text("yes")},
		{"x = 3\nx = 3", Boolean(true)},
		{"p = (1, 2)\np = (1, 2)", Boolean(true)},
	}
	for _, c := range cases {
		v, err := run(t, c.source)
		if err != nil {
			t.Errorf("%q: unexpected error %v", c.source, err)
			continue
		}
		if eq, _ := Equal(v, c.expected); !eq {
			t.Errorf("%q: expected %v, have %v", c.source, c.expected, v)
		}
	}
}

func TestRecursion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	expectNumber(t, "fib(n) = (n < 2) ? n : fib(n - 1) + fib(n - 2)\nfib(15)", 610)
	expectNumber(t, `fac(n) = [
	(n < 2) ? 1 : n * fac(n - 1)
]
fac(5)`, 120)
}

func TestCaptures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	expectNumber(t, `x = 1
f() = [
	g() = [
		h() = x
		h()
	]
	g()
]
f()`, 1)
	expectNumber(t, `add(a) = [
	inner(b) = a + b
	inner
]
plus2 = add(2)
plus2(40)`, 42)
	expectNumber(t, `outer(a, b) = [
	mid(c) = [
		inner(d) = a * 100 + b * 10 + c + d
		inner(0)
	]
	mid(3)
]
outer(1, 2)`, 123)
}

func TestCaptureIsSnapshot(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	// x = 1; f() = x; x := 99; (f(), x)
	exe := &bytecode.Executable{
		Functions: []*bytecode.Function{
			{Name: "script", Locals: 2, Code: assemble(
				bytecode.Make(bytecode.OpConstantNumber, 0),
				bytecode.Make(bytecode.OpDefineLocal, 1),
				bytecode.Make(bytecode.OpClosure, 1, 1, 1),
				bytecode.Make(bytecode.OpDefineLocal, 2),
				bytecode.Make(bytecode.OpConstantNumber, 1),
				bytecode.Make(bytecode.OpDefineLocal, 1),
				bytecode.Make(bytecode.OpGetLocal, 2),
				bytecode.Make(bytecode.OpCall, 0),
				bytecode.Make(bytecode.OpGetLocal, 1),
				bytecode.Make(bytecode.OpGroup, 2),
				bytecode.Make(bytecode.OpReturn),
			)},
			{Name: "f", Locals: 0, Captures: []bool{true}, Code: assemble(
				bytecode.Make(bytecode.OpGetCapture, 0),
				bytecode.Make(bytecode.OpReturn),
			)},
		},
		Numbers: []float64{1, 99},
	}
	if err := exe.Verify(); err != nil {
		t.Fatalf("hand-assembled code does not verify: %v", err)
	}
	v, err := New().Call(exe, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s := v.String(); s != "(1, 99)" {
		t.Errorf("expected closure to keep its snapshot (1, 99), have %s", s)
	}
}

func TestGroupArguments(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	expectNumber(t, "f(x, y) = x ^ y\nf((4, 2))", 16)
	expectNumber(t, "f(x, y) = x - y\np = (4, 2)\nf(p)", 2)
	v, err := run(t, "g(p) = p\ng((4, 2))")
	if err != nil || v.Kind != GroupKind || len(v.Members) != 2 {
		t.Errorf("expected group to be passed whole, have %v (%v)", v, err)
	}
}

func TestCallWithArguments(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	exe := build(t, "sub(a, b) = a - b")
	v, err := New().Call(exe, 1, Number(50), Number(8))
	if err != nil || v.Num != 42 {
		t.Errorf("expected 42, have %v (%v)", v, err)
	}
	if _, err := New().Call(exe, 1, Number(1)); !errors.Is(err, ErrTooFewArguments) {
		t.Errorf("expected too few arguments, have %v", err)
	}
	if _, err := New().Call(exe, 1, Number(1), Number(2), Number(3)); !errors.Is(err, ErrOperandCount) {
		t.Errorf("expected operand count mismatch, have %v", err)
	}
	if _, err := New().Call(exe, 7); !errors.Is(err, ErrNoSuchFunction) {
		t.Errorf("expected no such function, have %v", err)
	}
}

func TestSend(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	boxes := NewMailboxes()
	v, err := run(t, "\"pid\" <- 42\n\"pid\" <- \"hi\"\n7 <- true", WithDeliverer(boxes))
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsVoid() {
		t.Errorf("expected void result, have %v", v)
	}
	if dests := boxes.Destinations(); len(dests) != 2 || dests[0] != "7" || dests[1] != "pid" {
		t.Errorf("unexpected destinations %v", dests)
	}
	msgs := boxes.Drain("pid")
	if len(msgs) != 2 || msgs[0].Num != 42 || msgs[1].Str != "hi" {
		t.Errorf("unexpected messages %v", msgs)
	}
	if boxes.Drain("pid") != nil {
		t.Errorf("expected mailbox to be drained")
	}
	_, err = run(t, "\"pid\" <- 1")
	if !errors.Is(err, ErrNoDeliverer) {
		t.Errorf("expected no deliverer, have %v", err)
	}
	failing := DelivererFunc(func(d, m Value) error { return errors.New("unreachable") })
	if _, err = run(t, "\"pid\" <- 1", WithDeliverer(failing)); err == nil {
		t.Errorf("expected delivery failure to surface")
	}
}

func TestRuntimeErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	var cases = []struct {
		name string
		code bytecode.Instructions
		err  error
	}{
		{"call non-closure", assemble(
			bytecode.Make(bytecode.OpConstantNumber, 0),
			bytecode.Make(bytecode.OpCall, 0),
			bytecode.Make(bytecode.OpReturn),
		), ErrExpectedClosure},
		{"too few arguments", assemble(
			bytecode.Make(bytecode.OpClosure, 1, 0),
			bytecode.Make(bytecode.OpConstantNumber, 0),
			bytecode.Make(bytecode.OpCall, 1),
			bytecode.Make(bytecode.OpReturn),
		), ErrTooFewArguments},
		{"too many arguments", assemble(
			bytecode.Make(bytecode.OpClosure, 1, 0),
			bytecode.Make(bytecode.OpConstantNumber, 0),
			bytecode.Make(bytecode.OpConstantNumber, 0),
			bytecode.Make(bytecode.OpConstantNumber, 0),
			bytecode.Make(bytecode.OpCall, 3),
			bytecode.Make(bytecode.OpReturn),
		), ErrOperandCount},
		{"unknown opcode", bytecode.Instructions{250}, ErrUnknownOpcode},
		{"truncated operand", bytecode.Instructions{byte(bytecode.OpBranch), 0}, ErrOperandCount},
		{"empty stack", bytecode.Make(bytecode.OpAdd), ErrEmptyStack},
		{"undefined constant", bytecode.Make(bytecode.OpConstantText, 3), ErrUndefinedConstant},
		{"undefined local", bytecode.Make(bytecode.OpGetLocal, 9), ErrUndefinedLocal},
		{"undefined capture", bytecode.Make(bytecode.OpGetCapture, 0), ErrUndefinedCapture},
		{"separate non-group", assemble(
			bytecode.Make(bytecode.OpConstantNumber, 0),
			bytecode.Make(bytecode.OpSeparate, 2),
		), ErrGroupSize},
		{"negate text", assemble(
			bytecode.Make(bytecode.OpConstantText, 0),
			bytecode.Make(bytecode.OpNegate),
		), ErrNotANumber},
		{"compare closures", assemble(
			bytecode.Make(bytecode.OpGetLocal, 0),
			bytecode.Make(bytecode.OpGetLocal, 0),
			bytecode.Make(bytecode.OpEqual),
		), ErrIncomparable},
	}
	for _, c := range cases {
		exe := &bytecode.Executable{
			Functions: []*bytecode.Function{
				{Name: "script", Code: c.code},
				{Name: "pair", Arity: 2, Locals: 2, Code: bytecode.Make(bytecode.OpReturn)},
			},
			Numbers: []float64{1},
			Texts:   []string{"a"},
		}
		_, err := New().Call(exe, 0)
		if !errors.Is(err, c.err) {
			t.Errorf("%s: expected %v, have %v", c.name, c.err, err)
		}
		var rerr *RuntimeError
		if !errors.As(err, &rerr) || rerr.Function != "script" {
			t.Errorf("%s: expected runtime error in script, have %#v", c.name, err)
		}
	}
}

func TestOperandErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	_, err := run(t, "f(x) = x + 1\nf(\"a\")")
	var operr *OperandError
	if !errors.As(err, &operr) || !errors.Is(err, ErrNotANumber) {
		t.Fatalf("expected operand error, have %v", err)
	}
	if operr.Left.Str != "a" || operr.Right.Num != 1 || operr.Op != bytecode.OpAdd {
		t.Errorf("expected both operands of Add, have %v", operr)
	}
	var rerr *RuntimeError
	if errors.As(err, &rerr) && len(rerr.Trace) != 2 {
		t.Errorf("expected trace of 2 frames, have %v", rerr.Trace)
	}
	if _, err = run(t, "f(x) = x < 1\nf(\"a\")"); !errors.Is(err, ErrIncomparable) {
		t.Errorf("expected incomparable, have %v", err)
	}
}

func TestLimits(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	if _, err := run(t, "f(n) = f(n)\nf(1)", WithMaxFrames(64)); !errors.Is(err, ErrFrameOverflow) {
		t.Errorf("expected frame overflow, have %v", err)
	}
	if _, err := run(t, "x = (1, 2, 3, 4, 5, 6, 7, 8, 9)", WithMaxStack(8)); !errors.Is(err, ErrStackOverflow) {
		t.Errorf("expected stack overflow, have %v", err)
	}
}

func TestResetAfterError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	machine := New(WithMaxFrames(16))
	if _, err := machine.Call(build(t, "f(n) = f(n)\nf(1)"), 0); err == nil {
		t.Fatalf("expected frame overflow")
	}
	v, err := machine.Call(build(t, "(4 + 40) - 2"), 0)
	if err != nil || v.Num != 42 {
		t.Errorf("expected VM to be usable after reset, have %v (%v)", v, err)
	}
}

func TestLoadedImage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	data, err := bytecode.Marshal(build(t, "fib(n) = (n < 2) ? n : fib(n - 1) + fib(n - 2)\nfib(10)"))
	if err != nil {
		t.Fatal(err)
	}
	exe, err := bytecode.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	v, err := New().Call(exe, 0)
	if err != nil || v.Num != 55 {
		t.Errorf("expected 55, have %v (%v)", v, err)
	}
}
