/*
Package compiler translates an ast.Forest into a bytecode.Executable.

The translator walks the forest once. Each function definition opens a Scope,
which collects the function's locals, its captures and its code; the top-level
script is function 0. Names are declared on first mention: a name that is
neither a local of the current function nor reachable in an enclosing one
becomes a fresh local, and a later assignment initializes it. Assigning to a
name which is already bound compares instead of assigning:

    x = 2       # declares and initializes x
    x = 3       # compares x with 3

A function which refers to a name bound in an enclosing function captures it.
Captures are threaded through every function in between, one slot per level,
so at run time each closure finds its captured values in the frame of the
function that creates it.

Diagnostics are accumulated. Compile returns either an executable or a
*multierror.Error holding one *Diagnostic per problem found.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package compiler

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'clasp.compiler'.
func tracer() tracing.Trace {
	return tracing.Select("clasp.compiler")
}
