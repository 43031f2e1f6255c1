package cpu

// Op is an opcode id.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_HALT = Op(0)  // halt
	OP_SET  = Op(1)  // set
	OP_PUSH = Op(2)  // push
	OP_POP  = Op(3)  // pop
	OP_EQ   = Op(4)  // eq
	OP_GT   = Op(5)  // gt
	OP_JMP  = Op(6)  // jmp
	OP_JT   = Op(7)  // jt
	OP_JF   = Op(8)  // jf
	OP_ADD  = Op(9)  // add
	OP_MULT = Op(10) // mult
	OP_MOD  = Op(11) // mod
	OP_AND  = Op(12) // and
	OP_OR   = Op(13) // or
	OP_NOT  = Op(14) // not
	OP_RMEM = Op(15) // rmem
	OP_WMEM = Op(16) // wmem
	OP_CALL = Op(17) // call
	OP_RET  = Op(18) // ret
	OP_OUT  = Op(19) // out
	OP_IN   = Op(20) // in
	OP_NOOP = Op(21) // noop
)

// OP_COUNT is the size of the opcode table.
const OP_COUNT = 22

// Operand is the decode class of an instruction operand.
type Operand int

const (
	OPERAND_VALUE    = Operand(0) // Literal or register, read.
	OPERAND_REGISTER = Operand(1) // Register, written.
	OPERAND_TARGET   = Operand(2) // Register or memory address, written.
)

var (
	_v = OPERAND_VALUE
	_r = OPERAND_REGISTER
	_t = OPERAND_TARGET
)

var opOperands = [OP_COUNT][]Operand{
	OP_HALT: nil,
	OP_SET:  {_r, _v},
	OP_PUSH: {_v},
	OP_POP:  {_r},
	OP_EQ:   {_r, _v, _v},
	OP_GT:   {_r, _v, _v},
	OP_JMP:  {_v},
	OP_JT:   {_v, _v},
	OP_JF:   {_v, _v},
	OP_ADD:  {_r, _v, _v},
	OP_MULT: {_r, _v, _v},
	OP_MOD:  {_r, _v, _v},
	OP_AND:  {_r, _v, _v},
	OP_OR:   {_r, _v, _v},
	OP_NOT:  {_r, _v},
	OP_RMEM: {_r, _v},
	OP_WMEM: {_v, _v},
	OP_CALL: {_v},
	OP_RET:  nil,
	OP_OUT:  {_v},
	OP_IN:   {_t},
	OP_NOOP: nil,
}

// Defined returns true if the opcode has an entry in the opcode table.
func (op Op) Defined() bool {
	return op >= 0 && op < OP_COUNT && opTable[op] != nil
}

// Operands returns the operand classes of the opcode, in fetch order.
func (op Op) Operands() []Operand {
	if op < 0 || op >= OP_COUNT {
		return nil
	}

	return opOperands[op]
}

// Width returns the number of words in a full instruction.
func (op Op) Width() int {
	return 1 + len(op.Operands())
}

// opMnemonic maps assembly mnemonics to opcodes.
var opMnemonic = func() map[string]Op {
	mnemonic := make(map[string]Op, OP_COUNT)
	for op := range Op(OP_COUNT) {
		mnemonic[op.String()] = op
	}
	return mnemonic
}()
