/*
Package main provides the clasp command. Without arguments it starts an
interactive session (REPL): every line is appended to the session's script,
the whole script is recompiled and run, and the result of the last statement
is printed. Given a script file, clasp compiles and runs it, or writes a
compiled image with -o. Images are run with -run.

Settings are read from clasp.toml (see -config); flags override them.


License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'clasp.cmd'
func tracer() tracing.Trace {
	return tracing.Select("clasp.cmd")
}
