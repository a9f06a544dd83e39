/*
Package bytecode defines the instruction set of the clasp virtual machine and the
compiled program format.

Every instruction is one opcode byte followed by fixed-width operands. Indices for
locals, captures, constants and functions take one byte; branch targets take two
bytes, little-endian, and are absolute offsets from the start of a function's code.
The Closure instruction carries a trailing list of capture sources, one byte each,
whose length is given by its second operand:

    Closure fn n src₁ … srcₙ

An Executable bundles the function table (function 0 is the top-level script) and
the number and text constant pools. Executables are immutable once built and may be
shared between any number of virtual machines. They can be stored as CBOR images;
see Marshal and Unmarshal.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package bytecode

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'clasp.bytecode'.
func tracer() tracing.Trace {
	return tracing.Select("clasp.bytecode")
}
