package compiler

import (
	"fmt"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/npillmayer/clasp/bytecode"
)

// Locals and captures of functions under compilation. Scopes are organized in
// a stack, mirroring the nesting of function definitions.

// --- Locals ----------------------------------------------------------------

// DeclState is the declaration state of a local.
type DeclState uint8

// A local starts out Referenced if a read mentions it first, or Declared if it
// is the target of an assignment. It is Initialized once the assignment has
// been compiled.
const (
	Referenced DeclState = iota
	Declared
	Initialized
)

func (s DeclState) String() string {
	switch s {
	case Referenced:
		return "referenced"
	case Declared:
		return "declared"
	}
	return "initialized"
}

// Local is a variable living in a function's frame. Offset is its slot
// relative to the frame base; offset 0 is the invoked closure.
type Local struct {
	Name     string
	Offset   int
	State    DeclState
	Depth    int // scope depth at initialization
	Captured bool
	Type     Type
}

func (l *Local) String() string {
	return fmt.Sprintf("<local %s@%d %s:%s>", l.Name, l.Offset, l.State, l.Type)
}

// Capture is a value a function receives from the function enclosing it.
// Slot addresses a local of the enclosing function if IsLocal is set, and a
// capture of the enclosing function otherwise.
type Capture struct {
	Name    string
	Index   int
	Slot    int
	IsLocal bool
	Type    Type
}

func (c *Capture) String() string {
	if c.IsLocal {
		return fmt.Sprintf("<capture %s#%d ← local %d>", c.Name, c.Index, c.Slot)
	}
	return fmt.Sprintf("<capture %s#%d ← capture %d>", c.Name, c.Index, c.Slot)
}

// === Scopes ================================================================

// Scope is the compile-time record of one function: its locals, its captures
// and the code emitted so far.
type Scope struct {
	Name     string
	Function int // index in the function table
	Depth    int // 0 for the script
	Arity    int
	locals   []*Local
	captures []*Capture
	code     bytecode.Instructions
	lastOp   int // offset of the latest instruction, -1 if none
	target   int // latest patched branch target, -1 if none
}

// newScope creates a scope. Slot 0 is reserved for the invoked closure and is
// bound to self, which may be empty for anonymous functions.
func newScope(self string, fn, depth int) *Scope {
	sc := &Scope{
		Name:     self,
		Function: fn,
		Depth:    depth,
		lastOp:   -1,
		target:   -1,
	}
	sc.locals = append(sc.locals, &Local{
		Name:  self,
		State: Initialized,
		Depth: depth,
		Type:  ClosureOf(fn),
	})
	return sc
}

func (sc *Scope) String() string {
	return fmt.Sprintf("<scope %s #%d depth=%d>", sc.Name, sc.Function, sc.Depth)
}

// ResolveLocal finds the latest local declared under name, or nil.
func (sc *Scope) ResolveLocal(name string) *Local {
	if name == "" {
		return nil
	}
	for i := len(sc.locals) - 1; i >= 0; i-- {
		if sc.locals[i].Name == name {
			return sc.locals[i]
		}
	}
	return nil
}

// DefineLocal appends a local, shadowing earlier locals of the same name.
// Callers check the offset against bytecode.MaxIndex.
func (sc *Scope) DefineLocal(name string, state DeclState) *Local {
	l := &Local{
		Name:   name,
		Offset: len(sc.locals),
		State:  state,
		Type:   Any,
	}
	sc.locals = append(sc.locals, l)
	return l
}

// ResolveCapture finds the capture for name, or nil.
func (sc *Scope) ResolveCapture(name string) *Capture {
	for _, c := range sc.captures {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddCapture appends a capture. Callers check the index against
// bytecode.MaxIndex.
func (sc *Scope) AddCapture(name string, slot int, isLocal bool, typ Type) *Capture {
	c := &Capture{
		Name:    name,
		Index:   len(sc.captures),
		Slot:    slot,
		IsLocal: isLocal,
		Type:    typ,
	}
	sc.captures = append(sc.captures, c)
	return c
}

// Locals counts the locals, excluding slot 0.
func (sc *Scope) Locals() int {
	return len(sc.locals) - 1
}

// Captures returns the captures in slot order.
func (sc *Scope) Captures() []*Capture {
	return sc.captures
}

// Each iterates over the locals in slot order, excluding slot 0.
func (sc *Scope) Each(mapper func(*Local)) {
	for _, l := range sc.locals[1:] {
		mapper(l)
	}
}

// function converts a completed scope into a compiled function.
func (sc *Scope) function() *bytecode.Function {
	descriptor := make([]bool, len(sc.captures))
	for i, c := range sc.captures {
		descriptor[i] = c.IsLocal
	}
	name := sc.Name
	if name == "" && sc.Function == 0 {
		name = "script"
	}
	return &bytecode.Function{
		Name:     name,
		Arity:    sc.Arity,
		Locals:   sc.Locals(),
		Code:     sc.code,
		Captures: descriptor,
	}
}

// ---------------------------------------------------------------------------

// scopeStack holds the scopes of the functions currently being compiled,
// innermost on top.
type scopeStack struct {
	scopes *arraylist.List
}

func newScopeStack() *scopeStack {
	return &scopeStack{scopes: arraylist.New()}
}

// Current gets the innermost scope, or nil if the stack is empty.
func (st *scopeStack) Current() *Scope {
	return st.At(st.scopes.Size() - 1)
}

// Globals gets the script scope, or nil if the stack is empty.
func (st *scopeStack) Globals() *Scope {
	return st.At(0)
}

// At returns the scope at nesting depth i.
func (st *scopeStack) At(i int) *Scope {
	sc, ok := st.scopes.Get(i)
	if !ok {
		return nil
	}
	return sc.(*Scope)
}

func (st *scopeStack) Size() int {
	return st.scopes.Size()
}

// PushNewScope pushes a scope for function fn.
func (st *scopeStack) PushNewScope(self string, fn int) *Scope {
	sc := newScope(self, fn, st.scopes.Size())
	st.scopes.Add(sc)
	tracer().Debugf("pushing new scope %s", sc)
	return sc
}

// PopScope pops the innermost scope, or returns nil if the stack is empty.
func (st *scopeStack) PopScope() *Scope {
	sc := st.Current()
	if sc == nil {
		return nil
	}
	st.scopes.Remove(st.scopes.Size() - 1)
	tracer().Debugf("popping scope %s", sc)
	return sc
}
