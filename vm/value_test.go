package vm

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestValueString(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	var cases = []struct {
		v        Value
		expected string
	}{
		{Void(), "void"},
		{Number(42), "42"},
		{Number(2.5), "2.5"},
		{Text("hi"), "hi"},
		{Boolean(true), "true"},
		{Group(Number(1), Group(Text("a"), Boolean(false))), `(1, ("a", false))`},
		{Closure(2, []Value{Number(1)}), "<closure #2/1>"},
	}
	for _, c := range cases {
		if s := c.v.String(); s != c.expected {
			t.Errorf("expected %s, have %s", c.expected, s)
		}
	}
}

func TestIsZero(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	for _, v := range []Value{Void(), Number(0), Boolean(false)} {
		if !v.IsZero() {
			t.Errorf("expected %v to be zero", v)
		}
	}
	for _, v := range []Value{Number(-1), Boolean(true), Text(""), Group()} {
		if v.IsZero() {
			t.Errorf("expected %v to be non-zero", v)
		}
	}
}

func TestCompare(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	var cases = []struct {
		a, b     Value
		expected int
	}{
		{Number(1), Number(2), -1},
		{Number(2), Number(2), 0},
		{Text("b"), Text("a"), 1},
		{Boolean(false), Boolean(true), -1},
		{Group(Number(1), Number(2)), Group(Number(1), Number(3)), -1},
		{Group(Number(1)), Group(Number(1), Number(0)), -1},
	}
	for _, c := range cases {
		r, err := Compare(c.a, c.b)
		if err != nil || r != c.expected {
			t.Errorf("compare %v with %v: expected %d, have %d (%v)", c.a, c.b, c.expected, r, err)
		}
	}
	if _, err := Compare(Number(1), Text("1")); !errors.Is(err, ErrIncomparable) {
		t.Errorf("expected kinds to be incomparable, have %v", err)
	}
	if _, err := Compare(Closure(1, nil), Closure(1, nil)); !errors.Is(err, ErrIncomparable) {
		t.Errorf("expected closures to be incomparable, have %v", err)
	}
}

func TestEqual(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	if eq, err := Equal(Number(1), Text("1")); eq || err != nil {
		t.Errorf("expected different kinds to be unequal, have %v (%v)", eq, err)
	}
	if eq, _ := Equal(Group(Number(1), Group(Text("x"))), Group(Number(1), Group(Text("x")))); !eq {
		t.Errorf("expected nested groups to be equal")
	}
	if eq, _ := Equal(Group(Number(1)), Group(Number(1), Number(1))); eq {
		t.Errorf("expected groups of different size to be unequal")
	}
	if _, err := Equal(Group(Closure(0, nil)), Group(Closure(0, nil))); !errors.Is(err, ErrIncomparable) {
		t.Errorf("expected closure members to be incomparable, have %v", err)
	}
}

func TestMailboxes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.vm")
	defer teardown()
	//
	boxes := NewMailboxes()
	if err := boxes.Deliver(Void(), Number(1)); err == nil {
		t.Errorf("expected void destination to be rejected")
	}
	if err := boxes.Deliver(Closure(0, nil), Number(1)); err == nil {
		t.Errorf("expected closure destination to be rejected")
	}
	_ = boxes.Deliver(Group(Number(1), Number(2)), Text("a"))
	_ = boxes.Deliver(Text("b"), Text("b"))
	if dests := boxes.Destinations(); len(dests) != 2 || dests[0] != "(1, 2)" {
		t.Errorf("unexpected destinations %v", dests)
	}
	if msgs := boxes.Drain("(1, 2)"); len(msgs) != 1 || msgs[0].Str != "a" {
		t.Errorf("unexpected messages %v", msgs)
	}
}
