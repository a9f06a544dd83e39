package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Opcode is the first byte of every instruction.
type Opcode byte

// The clasp instruction set.
const (
	OpConstantNumber Opcode = iota // push numbers[idx]
	OpConstantText                 // push texts[idx]
	OpTrue
	OpFalse
	OpPop
	OpGetLocal    // push locals[slot]
	OpDefineLocal // pop into locals[slot]
	OpSetLocal    // store top into locals[slot], keep it
	OpGetCapture  // push captures[idx]
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpPower
	OpNegate
	OpNot
	OpEqual
	OpLess
	OpGreater
	OpGroup           // pop n, push group
	OpSeparate        // pop group of n, push members
	OpBranch          // target u16
	OpBranchIfZero    // pop; target u16
	OpBranchIfNonZero // pop; target u16
	OpClosure         // fn, n, n × source
	OpCall            // argc
	OpReturn
	OpSend // pop destination, pop message
)

// Instructions is a sequence of encoded instructions.
type Instructions []byte

// Definition describes the operand layout of an opcode. If Trailing is set, the
// last operand counts a list of single-byte operands following it.
type Definition struct {
	Name          string
	OperandWidths []int
	Trailing      bool
}

var definitions = [...]*Definition{
	OpConstantNumber:  {"ConstantNumber", []int{1}, false},
	OpConstantText:    {"ConstantText", []int{1}, false},
	OpTrue:            {"True", nil, false},
	OpFalse:           {"False", nil, false},
	OpPop:             {"Pop", nil, false},
	OpGetLocal:        {"GetLocal", []int{1}, false},
	OpDefineLocal:     {"DefineLocal", []int{1}, false},
	OpSetLocal:        {"SetLocal", []int{1}, false},
	OpGetCapture:      {"GetCapture", []int{1}, false},
	OpAdd:             {"Add", nil, false},
	OpSubtract:        {"Subtract", nil, false},
	OpMultiply:        {"Multiply", nil, false},
	OpDivide:          {"Divide", nil, false},
	OpPower:           {"Power", nil, false},
	OpNegate:          {"Negate", nil, false},
	OpNot:             {"Not", nil, false},
	OpEqual:           {"Equal", nil, false},
	OpLess:            {"Less", nil, false},
	OpGreater:         {"Greater", nil, false},
	OpGroup:           {"Group", []int{1}, false},
	OpSeparate:        {"Separate", []int{1}, false},
	OpBranch:          {"Branch", []int{2}, false},
	OpBranchIfZero:    {"BranchIfZero", []int{2}, false},
	OpBranchIfNonZero: {"BranchIfNonZero", []int{2}, false},
	OpClosure:         {"Closure", []int{1, 1}, true},
	OpCall:            {"Call", []int{1}, false},
	OpReturn:          {"Return", nil, false},
	OpSend:            {"Send", nil, false},
}

// Lookup returns the definition of an opcode.
func Lookup(op byte) (*Definition, error) {
	if int(op) >= len(definitions) || definitions[op] == nil {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return definitions[op], nil
}

func (op Opcode) String() string {
	if def, err := Lookup(byte(op)); err == nil {
		return def.Name
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}

// Make encodes an instruction. For Closure, the operands are the function
// index, the capture count and one source per capture.
func Make(op Opcode, operands ...int) Instructions {
	def, err := Lookup(byte(op))
	if err != nil {
		return Instructions{}
	}
	length := 1
	for _, w := range def.OperandWidths {
		length += w
	}
	if def.Trailing {
		length += len(operands) - len(def.OperandWidths)
	}
	ins := make(Instructions, length)
	ins[0] = byte(op)
	offset := 1
	for i, o := range operands {
		w := 1
		if i < len(def.OperandWidths) {
			w = def.OperandWidths[i]
		}
		switch w {
		case 1:
			ins[offset] = byte(o)
		case 2:
			binary.LittleEndian.PutUint16(ins[offset:], uint16(o))
		}
		offset += w
	}
	return ins
}

// ReadOperands decodes the operands of an instruction. ins starts just behind
// the opcode byte. It returns the operands and the number of bytes read; ok is
// false if ins is too short.
func ReadOperands(def *Definition, ins Instructions) (operands []int, read int, ok bool) {
	operands = make([]int, len(def.OperandWidths), len(def.OperandWidths)+4)
	for i, w := range def.OperandWidths {
		if read+w > len(ins) {
			return operands, read, false
		}
		switch w {
		case 1:
			operands[i] = int(ins[read])
		case 2:
			operands[i] = int(ReadU16(ins[read:]))
		default:
			panic("unsupported operand width")
		}
		read += w
	}
	if def.Trailing && len(operands) > 0 {
		n := operands[len(operands)-1]
		if read+n > len(ins) {
			return operands, read, false
		}
		for j := 0; j < n; j++ {
			operands = append(operands, int(ins[read+j]))
		}
		read += n
	}
	return operands, read, true
}

// ReadU16 decodes a two-byte branch target.
func ReadU16(ins Instructions) uint16 {
	return binary.LittleEndian.Uint16(ins)
}

// PutU16 overwrites a two-byte branch target.
func PutU16(ins Instructions, v uint16) {
	binary.LittleEndian.PutUint16(ins, v)
}

// Width returns the encoded length of the instruction at ip, or 0 if the
// instruction is unknown or truncated.
func (ins Instructions) Width(ip int) int {
	def, err := Lookup(ins[ip])
	if err != nil {
		return 0
	}
	_, read, ok := ReadOperands(def, ins[ip+1:])
	if !ok {
		return 0
	}
	return 1 + read
}

func (ins Instructions) String() string {
	var out bytes.Buffer
	ins.dump(&out, "")
	return out.String()
}

func (ins Instructions) dump(out *bytes.Buffer, indent string) {
	for i := 0; i < len(ins); {
		def, err := Lookup(ins[i])
		if err != nil {
			fmt.Fprintf(out, "%s%04d ??? %d\n", indent, i, ins[i])
			i++
			continue
		}
		operands, read, ok := ReadOperands(def, ins[i+1:])
		fmt.Fprintf(out, "%s%04d %s", indent, i, def.Name)
		for _, o := range operands {
			fmt.Fprintf(out, " %d", o)
		}
		if !ok {
			out.WriteString(" <truncated>\n")
			return
		}
		out.WriteByte('\n')
		i += 1 + read
	}
}
