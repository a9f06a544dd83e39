package vm

import (
	"fmt"
	"math"

	"github.com/npillmayer/clasp/bytecode"
)

// handler executes one instruction. The frame's IP points behind the opcode.
type handler func(vm *VM, fr *CallFrame) error

var (
	dispatch     [256]handler
	operandBytes [256]int // fixed operand bytes per opcode
)

func init() {
	dispatch = [256]handler{
		bytecode.OpConstantNumber:  opConstantNumber,
		bytecode.OpConstantText:    opConstantText,
		bytecode.OpTrue:            func(vm *VM, _ *CallFrame) error { return vm.push(Boolean(true)) },
		bytecode.OpFalse:           func(vm *VM, _ *CallFrame) error { return vm.push(Boolean(false)) },
		bytecode.OpPop:             opPop,
		bytecode.OpGetLocal:        opGetLocal,
		bytecode.OpDefineLocal:     opDefineLocal,
		bytecode.OpSetLocal:        opSetLocal,
		bytecode.OpGetCapture:      opGetCapture,
		bytecode.OpAdd:             arithmetic(func(a, b float64) float64 { return a + b }),
		bytecode.OpSubtract:        arithmetic(func(a, b float64) float64 { return a - b }),
		bytecode.OpMultiply:        arithmetic(func(a, b float64) float64 { return a * b }),
		bytecode.OpDivide:          arithmetic(func(a, b float64) float64 { return a / b }),
		bytecode.OpPower:           arithmetic(math.Pow),
		bytecode.OpNegate:          opNegate,
		bytecode.OpNot:             opNot,
		bytecode.OpEqual:           opEqual,
		bytecode.OpLess:            ordering(func(c int) bool { return c < 0 }),
		bytecode.OpGreater:         ordering(func(c int) bool { return c > 0 }),
		bytecode.OpGroup:           opGroup,
		bytecode.OpSeparate:        opSeparate,
		bytecode.OpBranch:          opBranch,
		bytecode.OpBranchIfZero:    branchIf(true),
		bytecode.OpBranchIfNonZero: branchIf(false),
		bytecode.OpClosure:         opClosure,
		bytecode.OpCall:            opCall,
		bytecode.OpReturn:          opReturn,
		bytecode.OpSend:            opSend,
	}
	for op := range dispatch {
		if def, err := bytecode.Lookup(byte(op)); err == nil {
			for _, w := range def.OperandWidths {
				operandBytes[op] += w
			}
		}
	}
}

// operand reads a one-byte operand.
func (fr *CallFrame) operand() int {
	v := fr.Function.Code[fr.IP]
	fr.IP++
	return int(v)
}

// target reads a two-byte branch target.
func (fr *CallFrame) target() int {
	v := bytecode.ReadU16(fr.Function.Code[fr.IP:])
	fr.IP += 2
	return int(v)
}

// --- Constants and locals --------------------------------------------------

func opConstantNumber(vm *VM, fr *CallFrame) error {
	idx := fr.operand()
	if idx >= len(vm.exe.Numbers) {
		return ErrUndefinedConstant
	}
	return vm.push(Number(vm.exe.Numbers[idx]))
}

func opConstantText(vm *VM, fr *CallFrame) error {
	idx := fr.operand()
	if idx >= len(vm.exe.Texts) {
		return ErrUndefinedConstant
	}
	return vm.push(Text(vm.exe.Texts[idx]))
}

func opPop(vm *VM, fr *CallFrame) error {
	_, err := vm.pop()
	return err
}

// local checks a slot of the locals window and returns its stack offset.
func local(fr *CallFrame, slot int) (int, error) {
	if slot > fr.Function.Locals {
		return 0, ErrUndefinedLocal
	}
	return fr.Base + slot, nil
}

func opGetLocal(vm *VM, fr *CallFrame) error {
	at, err := local(fr, fr.operand())
	if err != nil {
		return err
	}
	return vm.push(vm.stack[at])
}

func opDefineLocal(vm *VM, fr *CallFrame) error {
	at, err := local(fr, fr.operand())
	if err != nil {
		return err
	}
	v, err := vm.pop()
	if err != nil {
		return err
	}
	vm.stack[at] = v
	return nil
}

func opSetLocal(vm *VM, fr *CallFrame) error {
	at, err := local(fr, fr.operand())
	if err != nil {
		return err
	}
	v, err := vm.peek()
	if err != nil {
		return err
	}
	vm.stack[at] = v
	return nil
}

func opGetCapture(vm *VM, fr *CallFrame) error {
	idx := fr.operand()
	if idx >= len(fr.Function.Captures) {
		return ErrUndefinedCapture
	}
	return vm.push(vm.stack[fr.captures()+idx])
}

// --- Operators -------------------------------------------------------------

func arithmetic(f func(a, b float64) float64) handler {
	return func(vm *VM, fr *CallFrame) error {
		a, b, err := vm.pop2()
		if err != nil {
			return err
		}
		if a.Kind != NumberKind || b.Kind != NumberKind {
			return &OperandError{Left: a, Right: b, Err: ErrNotANumber}
		}
		return vm.push(Number(f(a.Num, b.Num)))
	}
}

func opNegate(vm *VM, fr *CallFrame) error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if a.Kind != NumberKind {
		return &OperandError{Left: a, Err: ErrNotANumber}
	}
	return vm.push(Number(-a.Num))
}

func opNot(vm *VM, fr *CallFrame) error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	return vm.push(Boolean(a.IsZero()))
}

func opEqual(vm *VM, fr *CallFrame) error {
	a, b, err := vm.pop2()
	if err != nil {
		return err
	}
	eq, err := Equal(a, b)
	if err != nil {
		return &OperandError{Left: a, Right: b, Err: err}
	}
	return vm.push(Boolean(eq))
}

func ordering(holds func(int) bool) handler {
	return func(vm *VM, fr *CallFrame) error {
		a, b, err := vm.pop2()
		if err != nil {
			return err
		}
		c, err := Compare(a, b)
		if err != nil {
			return &OperandError{Left: a, Right: b, Err: err}
		}
		return vm.push(Boolean(holds(c)))
	}
}

// --- Groups ----------------------------------------------------------------

func opGroup(vm *VM, fr *CallFrame) error {
	n := fr.operand()
	if len(vm.stack)-n < vm.floor() {
		return ErrEmptyStack
	}
	members := make([]Value, n)
	copy(members, vm.stack[len(vm.stack)-n:])
	vm.stack = vm.stack[:len(vm.stack)-n]
	return vm.push(Group(members...))
}

func opSeparate(vm *VM, fr *CallFrame) error {
	n := fr.operand()
	g, err := vm.pop()
	if err != nil {
		return err
	}
	if g.Kind != GroupKind || len(g.Members) != n {
		return fmt.Errorf("%w: cannot separate %v into %d values", ErrGroupSize, g, n)
	}
	for _, m := range g.Members {
		if err := vm.push(m); err != nil {
			return err
		}
	}
	return nil
}

// --- Control flow ----------------------------------------------------------

func opBranch(vm *VM, fr *CallFrame) error {
	fr.IP = fr.target()
	return nil
}

func branchIf(zero bool) handler {
	return func(vm *VM, fr *CallFrame) error {
		target := fr.target()
		c, err := vm.pop()
		if err != nil {
			return err
		}
		if c.IsZero() == zero {
			fr.IP = target
		}
		return nil
	}
}

// opClosure builds a closure. Each capture of the new closure is copied from
// the current frame's locals or captures window, as the callee's capture
// descriptor says.
func opClosure(vm *VM, fr *CallFrame) error {
	index, n := fr.operand(), fr.operand()
	if fr.IP+n > len(fr.Function.Code) {
		return ErrOperandCount
	}
	fn, ok := vm.exe.Function(index)
	if !ok {
		return ErrNoSuchFunction
	}
	if n != len(fn.Captures) {
		return ErrUndefinedCapture
	}
	captures := make([]Value, n)
	for j := range captures {
		src := fr.operand()
		if fn.Captures[j] {
			at, err := local(fr, src)
			if err != nil {
				return err
			}
			captures[j] = vm.stack[at]
		} else {
			if src >= len(fr.Function.Captures) {
				return ErrUndefinedCapture
			}
			captures[j] = vm.stack[fr.captures()+src]
		}
	}
	return vm.push(Closure(index, captures))
}

func opCall(vm *VM, fr *CallFrame) error {
	return vm.enter(fr.operand())
}

// opReturn drops the frame's windows and temporaries and hands the top value,
// or void, to the caller.
func opReturn(vm *VM, fr *CallFrame) error {
	result := Void()
	if len(vm.stack) > fr.top() {
		result = vm.stack[len(vm.stack)-1]
	}
	vm.stack = vm.stack[:fr.Base]
	vm.frames.PopFrame()
	if vm.debug {
		tracer().Debugf("return from %s: %v", fr.Function.Name, result)
	}
	if vm.frames.Current() == nil {
		vm.halted = true
		vm.result = result
		return nil
	}
	return vm.push(result)
}

func opSend(vm *VM, fr *CallFrame) error {
	dest, err := vm.pop()
	if err != nil {
		return err
	}
	msg, err := vm.pop()
	if err != nil {
		return err
	}
	if vm.deliverer == nil {
		return ErrNoDeliverer
	}
	if err := vm.deliverer.Deliver(dest, msg); err != nil {
		return fmt.Errorf("deliver to %v: %w", dest, err)
	}
	return nil
}
