/*
Package vm implements the clasp virtual machine.

The machine interprets a bytecode.Executable with one value stack and a stack
of call frames. Guest calls never recurse on the Go stack: a Call instruction
installs a new frame and the dispatch loop continues with the callee's code.

Frame layout on the value stack, for a function with arity a, l locals and c
captures:

    base        the invoked closure
    base+1…a    arguments
    …base+l     further locals, initially void
    then c      captured values, copied from the closure

A closure's captured values are snapshots taken when the closure is built.
Assigning to a captured variable afterwards does not change the closure.

A VM is not safe for concurrent use. Executables may be shared between VMs.
After an error the VM must be Reset before it is used again.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package vm

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'clasp.vm'.
func tracer() tracing.Trace {
	return tracing.Select("clasp.vm")
}
