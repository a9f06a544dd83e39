package compiler

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/npillmayer/clasp"
)

// DiagnosticKind categorizes compile-time problems.
type DiagnosticKind uint8

// Kinds of diagnostics.
const (
	TypeError     DiagnosticKind = iota // operand, callee or argument does not fit
	ShapeError                          // malformed node, empty or oversized group, misplaced block
	CapacityError                       // too many locals, captures, constants or functions
	ScopeError                          // self-reference, re-initialization, unbound name
)

var kindNames = [...]string{"type error", "shape error", "capacity error", "scope error"}

func (k DiagnosticKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("diagnostic(%d)", k)
}

// Diagnostic is a compile-time error. Count carries the offending count for
// capacity errors.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Span    clasp.Span
	Count   int
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s at %d: %s", d.Kind, d.Span.From(), d.Message)
}

// Diagnostics extracts the diagnostics from an error returned by Compile.
func Diagnostics(err error) []*Diagnostic {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		diags := make([]*Diagnostic, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			var d *Diagnostic
			if errors.As(e, &d) {
				diags = append(diags, d)
			}
		}
		return diags
	}
	var d *Diagnostic
	if errors.As(err, &d) {
		return []*Diagnostic{d}
	}
	return nil
}
