/*
Package clasp is a compiler and virtual machine for a small expression language
with first-class closures.

Source text is parsed into a forest of expression nodes, translated into compact
bytecode and executed on a stack machine. Free variables of nested functions are
resolved at compile time into chains of capture slots, which the machine fills
when a closure is created. Package structure is as follows:

■ syntax: Package syntax implements a scanner and a recursive-descent parser,
producing syntax forests.

■ ast: Package ast defines the syntax forest consumed by the compiler.

■ compiler: Package compiler resolves scopes and captures and emits bytecode.

■ bytecode: Package bytecode defines the instruction set and the compiled
executable, including its binary image format.

■ vm: Package vm implements the stack machine executing compiled executables.

The base package contains data types which are used throughout all the other packages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package clasp
