package compiler

import (
	"github.com/npillmayer/clasp/bytecode"
)

// emit appends an instruction to the current scope's code and returns its
// offset.
func (t *translator) emit(op bytecode.Opcode, operands ...int) int {
	sc := t.scopes.Current()
	pos := len(sc.code)
	sc.code = append(sc.code, bytecode.Make(op, operands...)...)
	sc.lastOp = pos
	return pos
}

// emitPop discards the top of stack. A preceding SetLocal is folded into a
// DefineLocal, unless a branch lands between the two.
func (t *translator) emitPop() {
	sc := t.scopes.Current()
	if sc.lastOp >= 0 && sc.target != len(sc.code) &&
		bytecode.Opcode(sc.code[sc.lastOp]) == bytecode.OpSetLocal {
		sc.code[sc.lastOp] = byte(bytecode.OpDefineLocal)
		return
	}
	t.emit(bytecode.OpPop)
}

// emitBranch emits a branch with a placeholder target and returns the offset
// of the target operand, to be fixed by patch.
func (t *translator) emitBranch(op bytecode.Opcode) int {
	return t.emit(op, 0xffff) + 1
}

// patch points the branch target at offset `at` to the end of the current code.
func (t *translator) patch(at int) {
	sc := t.scopes.Current()
	target := len(sc.code)
	if target > 0xffff {
		t.capacity("code bytes", sc, target, 0xffff)
		return
	}
	bytecode.PutU16(sc.code[at:], uint16(target))
	sc.target = target
}

// constant emits a push from one of the constant pools.
func (t *translator) constant(op bytecode.Opcode, p *pool, literal string, value interface{}) {
	index := p.insert(literal, value)
	if index == bytecode.MaxIndex+1 && p.size() == index+1 {
		t.capacity(p.name+" constants", t.scopes.Current(), p.size(), bytecode.MaxIndex+1)
	}
	t.emit(op, index)
}
