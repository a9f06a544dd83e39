package bytecode

import (
	"fmt"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
)

// VerifyError reports malformed bytecode.
type VerifyError struct {
	Function int
	IP       int
	Msg      string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("function %d @%04d: %s", e.Function, e.IP, e.Msg)
}

// Verify checks every function of an executable: opcodes are defined,
// operands are complete and in range, and branch targets land on instruction
// boundaries. The compiler only produces verifiable code; Verify guards
// executables loaded from outside.
func (exe *Executable) Verify() error {
	if len(exe.Functions) == 0 {
		return &VerifyError{Function: 0, Msg: "executable has no functions"}
	}
	for i, fn := range exe.Functions {
		if fn == nil {
			return &VerifyError{Function: i, Msg: "missing function"}
		}
		if err := exe.verifyFunction(i, fn); err != nil {
			return err
		}
	}
	return nil
}

type branch struct {
	ip, target int
}

func (exe *Executable) verifyFunction(index int, fn *Function) error {
	fail := func(ip int, format string, args ...interface{}) error {
		return &VerifyError{Function: index, IP: ip, Msg: fmt.Sprintf(format, args...)}
	}
	if fn.Arity < 0 || fn.Arity > fn.Locals || fn.Locals > MaxIndex {
		return fail(0, "inconsistent frame layout: arity=%d locals=%d", fn.Arity, fn.Locals)
	}
	boundaries := treeset.NewWith(utils.IntComparator)
	var branches []branch
	code := fn.Code
	for ip := 0; ip < len(code); {
		boundaries.Add(ip)
		def, err := Lookup(code[ip])
		if err != nil {
			return fail(ip, "%v", err)
		}
		operands, read, ok := ReadOperands(def, code[ip+1:])
		if !ok {
			return fail(ip, "truncated %s", def.Name)
		}
		switch op := Opcode(code[ip]); op {
		case OpConstantNumber:
			if operands[0] >= len(exe.Numbers) {
				return fail(ip, "number constant %d out of range", operands[0])
			}
		case OpConstantText:
			if operands[0] >= len(exe.Texts) {
				return fail(ip, "text constant %d out of range", operands[0])
			}
		case OpGetLocal, OpSetLocal, OpDefineLocal:
			if operands[0] > fn.Locals {
				return fail(ip, "local slot %d out of range", operands[0])
			}
		case OpGetCapture:
			if operands[0] >= len(fn.Captures) {
				return fail(ip, "capture %d out of range", operands[0])
			}
		case OpBranch, OpBranchIfZero, OpBranchIfNonZero:
			branches = append(branches, branch{ip: ip, target: operands[0]})
		case OpClosure:
			callee, ok := exe.Function(operands[0])
			if !ok {
				return fail(ip, "closure over undefined function %d", operands[0])
			}
			if operands[1] != len(callee.Captures) {
				return fail(ip, "closure provides %d captures, %s expects %d",
					operands[1], callee.Name, len(callee.Captures))
			}
			for j, src := range operands[2:] {
				if callee.Captures[j] && src > fn.Locals {
					return fail(ip, "closure source local %d out of range", src)
				} else if !callee.Captures[j] && src >= len(fn.Captures) {
					return fail(ip, "closure source capture %d out of range", src)
				}
			}
		}
		ip += 1 + read
	}
	for _, b := range branches {
		if b.target != len(code) && !boundaries.Contains(b.target) {
			return fail(b.ip, "branch target %d is not an instruction boundary", b.target)
		}
	}
	tracer().Debugf("verified function %d (%s): %d instructions", index, fn.Name, boundaries.Size())
	return nil
}
