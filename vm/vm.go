package vm

import (
	"errors"

	"github.com/npillmayer/clasp/bytecode"
	"github.com/npillmayer/schuko/tracing"
)

// Default limits of a VM.
const (
	DefaultMaxFrames = 1024
	DefaultMaxStack  = 1 << 16
)

// VM is a virtual machine for clasp executables.
type VM struct {
	exe       *bytecode.Executable
	stack     []Value
	frames    frameStack
	deliverer Deliverer
	maxFrames int
	maxStack  int
	halted    bool
	result    Value
	debug     bool
}

// Option configures a VM.
type Option func(*VM)

// WithDeliverer sets the destination of Send instructions.
func WithDeliverer(d Deliverer) Option {
	return func(vm *VM) {
		vm.deliverer = d
	}
}

// WithMaxFrames limits the call depth.
func WithMaxFrames(n int) Option {
	return func(vm *VM) {
		if n > 0 {
			vm.maxFrames = n
		}
	}
}

// WithMaxStack limits the size of the value stack.
func WithMaxStack(n int) Option {
	return func(vm *VM) {
		if n > 0 {
			vm.maxStack = n
		}
	}
}

// New creates a virtual machine.
func New(opts ...Option) *VM {
	vm := &VM{
		stack:     make([]Value, 0, 256),
		maxFrames: DefaultMaxFrames,
		maxStack:  DefaultMaxStack,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Reset clears the value stack and the frame stack.
func (vm *VM) Reset() {
	vm.stack = vm.stack[:0]
	vm.frames = frameStack{}
	vm.halted = false
	vm.result = Void()
	vm.exe = nil
}

// Call runs function fn of exe with the given arguments and returns its
// result. A void result means the function produced no value. Errors are
// of type *RuntimeError.
func (vm *VM) Call(exe *bytecode.Executable, fn int, args ...Value) (Value, error) {
	vm.Reset()
	if exe == nil {
		return Void(), &RuntimeError{Function: "?", Op: bytecode.OpCall, Err: ErrNoSuchFunction}
	}
	vm.exe = exe
	vm.debug = tracer().GetTraceLevel() == tracing.LevelDebug
	err := vm.push(Closure(fn, nil))
	for i := 0; err == nil && i < len(args); i++ {
		err = vm.push(args[i])
	}
	if err == nil {
		err = vm.enter(len(args))
	}
	if err != nil {
		return Void(), &RuntimeError{Function: "?", Op: bytecode.OpCall, Err: err}
	}
	return vm.run()
}

// run is the dispatch loop. It runs until the outermost frame returns.
func (vm *VM) run() (Value, error) {
	for !vm.halted {
		fr := vm.frames.Current()
		code := fr.Function.Code
		if fr.IP >= len(code) {
			if err := opReturn(vm, fr); err != nil {
				return Void(), vm.fail(fr, fr.IP, bytecode.OpReturn, err)
			}
			continue
		}
		ip, op := fr.IP, code[fr.IP]
		h := dispatch[op]
		if h == nil {
			return Void(), vm.fail(fr, ip, bytecode.Opcode(op), ErrUnknownOpcode)
		}
		if ip+1+operandBytes[op] > len(code) {
			return Void(), vm.fail(fr, ip, bytecode.Opcode(op), ErrOperandCount)
		}
		if vm.debug {
			tracer().Debugf("%s %04d %-16s stack=%d", fr.Function.Name, ip, bytecode.Opcode(op), len(vm.stack))
		}
		fr.IP++
		if err := h(vm, fr); err != nil {
			return Void(), vm.fail(fr, ip, bytecode.Opcode(op), err)
		}
	}
	return vm.result, nil
}

func (vm *VM) fail(fr *CallFrame, ip int, op bytecode.Opcode, err error) error {
	rerr := &RuntimeError{
		Function: fr.Function.Name,
		IP:       ip,
		Op:       op,
		Err:      err,
		Trace:    vm.frames.Trace(),
	}
	var operr *OperandError
	if errors.As(err, &operr) {
		operr.Op = op
	}
	tracer().Errorf("%v", rerr)
	return rerr
}

// --- Stack -----------------------------------------------------------------

func (vm *VM) push(v Value) error {
	if len(vm.stack) >= vm.maxStack {
		return ErrStackOverflow
	}
	vm.stack = append(vm.stack, v)
	return nil
}

// floor is the lowest stack offset instructions may pop.
func (vm *VM) floor() int {
	if fr := vm.frames.Current(); fr != nil {
		return fr.top()
	}
	return 0
}

func (vm *VM) pop() (Value, error) {
	if len(vm.stack) <= vm.floor() {
		return Void(), ErrEmptyStack
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *VM) pop2() (a, b Value, err error) {
	if len(vm.stack)-2 < vm.floor() {
		return Void(), Void(), ErrEmptyStack
	}
	a, b = vm.stack[len(vm.stack)-2], vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-2]
	return a, b, nil
}

func (vm *VM) peek() (Value, error) {
	if len(vm.stack) <= vm.floor() {
		return Void(), ErrEmptyStack
	}
	return vm.stack[len(vm.stack)-1], nil
}

// --- Calls -----------------------------------------------------------------

// enter installs a frame for the closure found argc slots below the top of
// stack. It reserves the remaining locals and copies the closure's captures
// into the frame's captures window.
func (vm *VM) enter(argc int) error {
	at := len(vm.stack) - 1 - argc
	if at < vm.floor() {
		return ErrTooFewArguments
	}
	callee := vm.stack[at]
	if callee.Kind != ClosureKind {
		return ErrExpectedClosure
	}
	fn, ok := vm.exe.Function(callee.Fn)
	if !ok {
		return ErrNoSuchFunction
	}
	switch {
	case argc < fn.Arity:
		return ErrTooFewArguments
	case argc > fn.Arity:
		return ErrOperandCount
	case len(callee.Members) != len(fn.Captures):
		return ErrUndefinedCapture
	case vm.frames.Depth() >= vm.maxFrames:
		return ErrFrameOverflow
	}
	for i := fn.Arity; i < fn.Locals; i++ {
		if err := vm.push(Void()); err != nil {
			return err
		}
	}
	for _, c := range callee.Members {
		if err := vm.push(c); err != nil {
			return err
		}
	}
	fr := vm.frames.PushNewFrame(fn, callee.Fn, at)
	if vm.debug {
		tracer().Debugf("enter %s", fr)
	}
	return nil
}
