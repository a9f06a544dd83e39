package vm

import (
	"fmt"

	"github.com/npillmayer/clasp/bytecode"
)

// This module implements a stack of call frames. A frame locates the windows
// of one call within the shared value stack.

// CallFrame is the activation record of a call.
type CallFrame struct {
	Function *bytecode.Function
	Index    int // function index in the executable
	Base     int // stack offset of the invoked closure
	IP       int // next instruction
	Parent   *CallFrame
}

func (fr *CallFrame) String() string {
	return fmt.Sprintf("<frame %s base=%d ip=%04d>", fr.Function.Name, fr.Base, fr.IP)
}

// IsRoot is a predicate: Is this the outermost frame?
func (fr *CallFrame) IsRoot() bool {
	return fr.Parent == nil
}

// captures is the stack offset of the first captured value.
func (fr *CallFrame) captures() int {
	return fr.Base + 1 + fr.Function.Locals
}

// top is the stack offset just behind the frame's fixed windows. Temporaries
// live above it.
func (fr *CallFrame) top() int {
	return fr.captures() + len(fr.Function.Captures)
}

// ---------------------------------------------------------------------------

// frameStack is a (call-)stack of frames.
type frameStack struct {
	tos   *CallFrame
	depth int
}

// Current gets the current frame (TOS), or nil.
func (fs *frameStack) Current() *CallFrame {
	return fs.tos
}

// Depth is the number of active frames.
func (fs *frameStack) Depth() int {
	return fs.depth
}

// PushNewFrame pushes a new frame as TOS, having the recent TOS as its parent.
func (fs *frameStack) PushNewFrame(fn *bytecode.Function, index int, base int) *CallFrame {
	fr := &CallFrame{
		Function: fn,
		Index:    index,
		Base:     base,
		Parent:   fs.tos,
	}
	fs.tos = fr
	fs.depth++
	return fr
}

// PopFrame pops the top-most frame and returns it.
func (fs *frameStack) PopFrame() *CallFrame {
	fr := fs.tos
	if fr == nil {
		return nil
	}
	fs.tos = fr.Parent
	fs.depth--
	return fr
}

// Trace lists the active frames, innermost first.
func (fs *frameStack) Trace() []string {
	trace := make([]string, 0, fs.depth)
	for fr := fs.tos; fr != nil; fr = fr.Parent {
		trace = append(trace, fr.String())
	}
	return trace
}
