package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/npillmayer/clasp"
	"github.com/npillmayer/clasp/ast"
	"github.com/npillmayer/clasp/bytecode"
	"github.com/npillmayer/clasp/compiler"
	"github.com/npillmayer/clasp/syntax"
	"github.com/npillmayer/clasp/vm"
	"github.com/pterm/pterm"
)

// Session is the state of an interactive session. Every accepted line is
// kept, and each evaluation recompiles and reruns the accumulated script, so
// later lines see the definitions of earlier ones. Lines which fail to
// compile or run are discarded.
type Session struct {
	source  string
	pending string // last source tried
	forest  *ast.Forest
	exe     *bytecode.Executable
	options []vm.Option
	seen    map[string]int // messages per destination already reported
}

// Delivery is a message sent by a script.
type Delivery struct {
	Destination string
	Message     vm.Value
}

// Outcome is the result of evaluating a line.
type Outcome struct {
	Value vm.Value
	Sent  []Delivery // messages sent by the new line
}

// NewSession creates an empty session. opts configure the VM of every run.
func NewSession(opts ...vm.Option) *Session {
	return &Session{
		options: opts,
		seen:    make(map[string]int),
	}
}

// Eval appends line to the session script, then compiles and runs it.
func (s *Session) Eval(line string) (*Outcome, error) {
	s.pending = line
	if s.source != "" {
		s.pending = s.source + "\n" + line
	}
	forest, err := syntax.Parse(s.pending)
	if err != nil {
		return nil, err
	}
	exe, err := compiler.Compile(forest)
	if err != nil {
		return nil, err
	}
	boxes := vm.NewMailboxes()
	opts := append(append([]vm.Option{}, s.options...), vm.WithDeliverer(boxes))
	result, err := vm.New(opts...).Call(exe, 0)
	if err != nil {
		return nil, err
	}
	s.source, s.forest, s.exe = s.pending, forest, exe
	outcome := &Outcome{Value: result}
	seen := make(map[string]int)
	for _, dest := range boxes.Destinations() {
		msgs := boxes.Drain(dest)
		seen[dest] = len(msgs)
		from := s.seen[dest]
		if from > len(msgs) {
			from = len(msgs)
		}
		for _, m := range msgs[from:] {
			outcome.Sent = append(outcome.Sent, Delivery{Destination: dest, Message: m})
		}
	}
	s.seen = seen
	tracer().Debugf("session script has %d functions", len(exe.Functions))
	return outcome, nil
}

// Reset forgets the session script.
func (s *Session) Reset() {
	s.source, s.pending = "", ""
	s.forest, s.exe = nil, nil
	s.seen = make(map[string]int)
}

// Source is the accumulated session script.
func (s *Session) Source() string {
	return s.source
}

// Explain formats the errors of the last evaluation, one per line, with
// syntax and compile errors located as line:column of the session script.
func (s *Session) Explain(err error) []string {
	errs := []error{err}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		errs = merr.Errors
	}
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		var span clasp.Span
		var msg string
		var synerr *syntax.SyntaxError
		var diag *compiler.Diagnostic
		switch {
		case errors.As(e, &synerr):
			span, msg = synerr.Span, "syntax error: "+synerr.Msg
		case errors.As(e, &diag):
			span, msg = diag.Span, diag.Kind.String()+": "+diag.Message
		default:
			lines = append(lines, e.Error())
			continue
		}
		line, col := syntax.Position(s.pending, span.From())
		lines = append(lines, fmt.Sprintf("%d:%d: %s", line, col, msg))
	}
	return lines
}

// Tree lists the session's syntax forest for pterm's tree renderer.
func (s *Session) Tree() pterm.LeveledList {
	ll := pterm.LeveledList{}
	if s.forest == nil {
		return ll
	}
	for _, root := range s.forest.Roots() {
		s.forest.Walk(root, func(level int, n *ast.Node) {
			text := n.Kind.String()
			if n.Lexeme != "" {
				text += " " + n.Lexeme
			}
			ll = append(ll, pterm.LeveledListItem{Level: level, Text: text})
		})
	}
	return ll
}

// Disassemble lists the session's executable.
func (s *Session) Disassemble(w io.Writer) error {
	if s.exe == nil {
		return nil
	}
	return s.exe.Disassemble(w)
}
