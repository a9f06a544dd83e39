/*
Package syntax provides a scanner and a parser for the clasp language.

The scanner is a thin adapter over lexmachine. The parser is a hand-written
recursive-descent parser producing an ast.Forest, with one root per top-level
statement. Statements are separated by newlines or semicolons; newlines
inside parentheses are insignificant.

    fib(n) = (n < 2) ? n : fib(n-1) + fib(n-2)
    fib(10)

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package syntax

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'clasp.syntax'.
func tracer() tracing.Trace {
	return tracing.Select("clasp.syntax")
}
