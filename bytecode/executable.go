package bytecode

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// MaxIndex is the largest index an operand byte can address. It bounds locals,
// captures, constants per pool, functions and group sizes.
const MaxIndex = 255

// Function is a compiled function.
//
// At run time slot 0 of a function's frame holds the invoked closure, slots
// 1…Arity hold the arguments, and further slots up to Locals hold the remaining
// locals. Captures describes where the closure creator finds each captured
// value: true for its own locals window, false for its own captures window.
type Function struct {
	Name     string
	Arity    int
	Locals   int
	Code     Instructions
	Captures []bool
}

func (fn *Function) String() string {
	return fmt.Sprintf("<fn %s/%d locals=%d captures=%d>", fn.Name, fn.Arity, fn.Locals, len(fn.Captures))
}

// Executable is a compiled program. Function 0 is the top-level script.
type Executable struct {
	Functions []*Function
	Numbers   []float64
	Texts     []string
}

// Function returns the function at index i.
func (exe *Executable) Function(i int) (*Function, bool) {
	if i < 0 || i >= len(exe.Functions) || exe.Functions[i] == nil {
		return nil, false
	}
	return exe.Functions[i], true
}

// Disassemble writes a readable listing of every function and both constant
// pools to w.
func (exe *Executable) Disassemble(w io.Writer) error {
	var out bytes.Buffer
	if len(exe.Numbers) > 0 {
		out.WriteString("numbers:")
		for i, n := range exe.Numbers {
			fmt.Fprintf(&out, " %d=%s", i, strconv.FormatFloat(n, 'g', -1, 64))
		}
		out.WriteByte('\n')
	}
	if len(exe.Texts) > 0 {
		out.WriteString("texts:")
		for i, t := range exe.Texts {
			fmt.Fprintf(&out, " %d=%q", i, t)
		}
		out.WriteByte('\n')
	}
	for i, fn := range exe.Functions {
		fmt.Fprintf(&out, "function %d %s(arity=%d, locals=%d, captures=%v)\n",
			i, fn.Name, fn.Arity, fn.Locals, fn.Captures)
		fn.Code.dump(&out, "    ")
	}
	_, err := w.Write(out.Bytes())
	return err
}
