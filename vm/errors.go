package vm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/npillmayer/clasp/bytecode"
)

// Runtime errors. The VM wraps them in a *RuntimeError; test with errors.Is.
var (
	ErrEmptyStack        = errors.New("empty stack")
	ErrUndefinedLocal    = errors.New("undefined local")
	ErrUndefinedCapture  = errors.New("undefined capture")
	ErrOperandCount      = errors.New("operand count mismatch")
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrNotANumber        = errors.New("not a number")
	ErrIncomparable      = errors.New("incomparable values")
	ErrNoSuchFunction    = errors.New("no such function")
	ErrTooFewArguments   = errors.New("too few arguments")
	ErrExpectedClosure   = errors.New("expected a closure")
	ErrUndefinedConstant = errors.New("undefined constant")
	ErrGroupSize         = errors.New("group size mismatch")
	ErrNoDeliverer       = errors.New("no message deliverer")
	ErrFrameOverflow     = errors.New("call frame overflow")
	ErrStackOverflow     = errors.New("value stack overflow")
)

// OperandError reports operands an instruction cannot process.
type OperandError struct {
	Op          bytecode.Opcode
	Left, Right Value
	Err         error
}

func (e *OperandError) Error() string {
	if e.Right.IsVoid() {
		return fmt.Sprintf("%s: %v (%s)", e.Err, e.Left, e.Left.Kind)
	}
	return fmt.Sprintf("%s: %v (%s), %v (%s)", e.Err, e.Left, e.Left.Kind, e.Right, e.Right.Kind)
}

func (e *OperandError) Unwrap() error {
	return e.Err
}

// RuntimeError locates an error within the executing function. Trace lists
// the active frames, innermost first.
type RuntimeError struct {
	Function string
	IP       int
	Op       bytecode.Opcode
	Err      error
	Trace    []string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error in %s @%04d (%s): %v", e.Function, e.IP, e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// StackTrace formats the frames active when the error occurred.
func (e *RuntimeError) StackTrace() string {
	return strings.Join(e.Trace, "\n")
}
