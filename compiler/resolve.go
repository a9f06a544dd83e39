package compiler

import (
	"github.com/npillmayer/clasp/bytecode"
)

// ResolutionKind tells how a name resolved.
type ResolutionKind uint8

// A name resolves to a local of the current function, to a capture of the
// current function, or to a fresh local declared by this very mention.
const (
	ResolvedLocal ResolutionKind = iota
	ResolvedCapture
	ResolvedFresh
)

// Resolution is the result of resolving a name. Local is set for ResolvedLocal
// and ResolvedFresh, Capture for ResolvedCapture.
type Resolution struct {
	Kind    ResolutionKind
	Local   *Local
	Capture *Capture
}

// Type is the static type of the resolved variable.
func (r Resolution) Type() Type {
	if r.Kind == ResolvedCapture {
		return r.Capture.Type
	}
	return r.Local.Type
}

// resolve looks up name from the innermost scope outward:
//
//   1. a local of the current scope
//   2. a capture the current scope already holds
//   3. a local or capture of an enclosing scope, which is relayed inward by
//      adding one capture to every scope in between
//   4. otherwise a fresh local in the current scope, in state Referenced.
//
// Locals in state Referenced are errors already reported and do not anchor
// captures.
func (t *translator) resolve(name string) Resolution {
	cur := t.scopes.Current()
	if l := cur.ResolveLocal(name); l != nil {
		return Resolution{Kind: ResolvedLocal, Local: l}
	}
	if c := cur.ResolveCapture(name); c != nil {
		return Resolution{Kind: ResolvedCapture, Capture: c}
	}
	for depth := cur.Depth - 1; depth >= 0; depth-- {
		outer := t.scopes.At(depth)
		if l := outer.ResolveLocal(name); l != nil && l.State != Referenced {
			l.Captured = true
			c := t.relay(name, depth+1, l.Offset, true, l.Type)
			return Resolution{Kind: ResolvedCapture, Capture: c}
		}
		if c := outer.ResolveCapture(name); c != nil {
			c = t.relay(name, depth+1, c.Index, false, c.Type)
			return Resolution{Kind: ResolvedCapture, Capture: c}
		}
	}
	l := t.defineLocal(cur, name, Referenced)
	return Resolution{Kind: ResolvedFresh, Local: l}
}

// bound reports whether resolving name would find an existing variable,
// without creating captures or locals.
func (t *translator) bound(name string) bool {
	cur := t.scopes.Current()
	if l := cur.ResolveLocal(name); l != nil {
		return l.State == Initialized
	}
	if cur.ResolveCapture(name) != nil {
		return true
	}
	for depth := cur.Depth - 1; depth >= 0; depth-- {
		outer := t.scopes.At(depth)
		if l := outer.ResolveLocal(name); l != nil && l.State != Referenced {
			return true
		}
		if outer.ResolveCapture(name) != nil {
			return true
		}
	}
	return false
}

// relay creates the chain of captures for name from scope depth `from` up to
// the current scope. The first capture points at slot in the scope just
// outside `from`, every following one at the capture created one level
// further out. It returns the capture of the current scope. An overflow is
// reported for the outermost scope of the chain only.
func (t *translator) relay(name string, from int, slot int, isLocal bool, typ Type) *Capture {
	var c *Capture
	overflow := false
	for depth := from; depth < t.scopes.Size(); depth++ {
		sc := t.scopes.At(depth)
		c = sc.AddCapture(name, slot, isLocal, typ)
		if c.Index == bytecode.MaxIndex+1 && !overflow {
			t.capacity("captures", sc, c.Index+1, bytecode.MaxIndex+1)
			overflow = true
		}
		tracer().Debugf("%s: %s", sc.Name, c)
		slot, isLocal = c.Index, false
	}
	return c
}

// defineLocal declares a local in sc, reporting a capacity error once the
// slot indices are exhausted.
func (t *translator) defineLocal(sc *Scope, name string, state DeclState) *Local {
	l := sc.DefineLocal(name, state)
	if l.Offset == bytecode.MaxIndex+1 {
		t.capacity("locals", sc, l.Offset, bytecode.MaxIndex)
	}
	return l
}
