package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/clasp/bytecode"
	"github.com/npillmayer/clasp/vm"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestSessionAccumulates(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.cmd")
	defer teardown()
	//
	s := NewSession()
	if _, err := s.Eval("x = 2"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Eval("add(y) = x + y"); err != nil {
		t.Fatal(err)
	}
	outcome, err := s.Eval("add(40)")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Value.Kind != vm.NumberKind || outcome.Value.Num != 42 {
		t.Errorf("expected 42, have %v", outcome.Value)
	}
	if s.Source() != "x = 2\nadd(y) = x + y\nadd(40)" {
		t.Errorf("unexpected session source %q", s.Source())
	}
}

func TestSessionDiscardsFailures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.cmd")
	defer teardown()
	//
	s := NewSession()
	_, _ = s.Eval("x = 1")
	_, err := s.Eval("y + 1")
	if err == nil {
		t.Fatalf("expected undefined name to be reported")
	}
	msgs := s.Explain(err)
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0], "2:1: scope error") {
		t.Errorf("expected a located scope error, have %v", msgs)
	}
	if _, err = s.Eval("1 +"); err == nil {
		t.Fatalf("expected syntax error")
	}
	if msgs = s.Explain(err); len(msgs) == 0 || !strings.Contains(msgs[0], "syntax error") {
		t.Errorf("expected a syntax error, have %v", msgs)
	}
	if _, err = s.Eval("f(n) = n + 1\nf(\"a\")"); err == nil {
		t.Fatalf("expected runtime error")
	}
	if s.Source() != "x = 1" {
		t.Errorf("expected failed lines to be discarded, have %q", s.Source())
	}
	s.Reset()
	if s.Source() != "" || len(s.Tree()) != 0 {
		t.Errorf("expected empty session after reset")
	}
}

func TestSessionReportsNewSendsOnly(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.cmd")
	defer teardown()
	//
	s := NewSession()
	outcome, err := s.Eval(`"log" <- 1`)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcome.Sent) != 1 || outcome.Sent[0].Destination != "log" {
		t.Errorf("expected one delivery, have %v", outcome.Sent)
	}
	if outcome, _ = s.Eval("x = 5"); len(outcome.Sent) != 0 {
		t.Errorf("expected replayed sends to be suppressed, have %v", outcome.Sent)
	}
	if outcome, _ = s.Eval(`"log" <- x`); len(outcome.Sent) != 1 || outcome.Sent[0].Message.Num != 5 {
		t.Errorf("expected only the new message, have %v", outcome.Sent)
	}
}

func TestSessionTreeAndDisassembly(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.cmd")
	defer teardown()
	//
	s := NewSession()
	if _, err := s.Eval("1 + 2"); err != nil {
		t.Fatal(err)
	}
	ll := s.Tree()
	if len(ll) != 3 || ll[0].Level != 0 || ll[1].Level != 1 || ll[2].Level != 1 {
		t.Errorf("unexpected tree listing %v", ll)
	}
	var b strings.Builder
	if err := s.Disassemble(&b); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "Add") {
		t.Errorf("expected Add in disassembly, have\n%s", b.String())
	}
}

func TestImageFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "clasp.cmd")
	defer teardown()
	//
	dir := t.TempDir()
	script := filepath.Join(dir, "fib.clasp")
	image := filepath.Join(dir, "fib.img")
	source := "fib(n) = (n < 2) ? n : fib(n - 1) + fib(n - 2)\nfib(10)"
	if err := os.WriteFile(script, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}
	conf := defaultConfig()
	if err := compileScript(script, image, false, conf); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(image)
	if err != nil {
		t.Fatal(err)
	}
	exe, err := bytecode.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if v, err := vm.New().Call(exe, 0); err != nil || v.Num != 55 {
		t.Errorf("expected 55, have %v (%v)", v, err)
	}
	if err := runImage(image, false, conf); err != nil {
		t.Errorf("cannot run image: %v", err)
	}
}
