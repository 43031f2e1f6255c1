package cpu

// opTable maps each opcode id to its handler. A nil entry is an undefined
// opcode.
var opTable = [OP_COUNT]func(cpu *Cpu) error{
	OP_HALT: (*Cpu).opHalt,
	OP_SET:  (*Cpu).opSet,
	OP_PUSH: (*Cpu).opPush,
	OP_POP:  (*Cpu).opPop,
	OP_EQ:   (*Cpu).opEq,
	OP_GT:   (*Cpu).opGt,
	OP_JMP:  (*Cpu).opJmp,
	OP_JT:   (*Cpu).opJt,
	OP_JF:   (*Cpu).opJf,
	OP_ADD:  (*Cpu).opAdd,
	OP_MULT: (*Cpu).opMult,
	OP_MOD:  (*Cpu).opMod,
	OP_AND:  (*Cpu).opAnd,
	OP_OR:   (*Cpu).opOr,
	OP_NOT:  (*Cpu).opNot,
	OP_RMEM: (*Cpu).opRmem,
	OP_WMEM: (*Cpu).opWmem,
	OP_CALL: (*Cpu).opCall,
	OP_RET:  (*Cpu).opRet,
	OP_OUT:  (*Cpu).opOut,
	OP_IN:   (*Cpu).opIn,
	OP_NOOP: (*Cpu).opNoop,
}

// unary implements 'a <- fn(b)'.
func (cpu *Cpu) unary(fn func(b Word) Word) (err error) {
	reg, err := cpu.ResolveRegister()
	if err != nil {
		return
	}
	b, err := cpu.ResolveValue()
	if err != nil {
		return
	}

	cpu.Register[reg] = fn(b)
	return
}

// binary implements 'a <- fn(b, c)'.
func (cpu *Cpu) binary(fn func(b, c Word) Word) (err error) {
	reg, err := cpu.ResolveRegister()
	if err != nil {
		return
	}
	b, err := cpu.ResolveValue()
	if err != nil {
		return
	}
	c, err := cpu.ResolveValue()
	if err != nil {
		return
	}

	cpu.Register[reg] = fn(b, c)
	return
}

// branch implements 'if test(a) then pc <- b'.
func (cpu *Cpu) branch(test func(a Word) bool) (err error) {
	a, err := cpu.ResolveValue()
	if err != nil {
		return
	}
	b, err := cpu.ResolveValue()
	if err != nil {
		return
	}

	if test(a) {
		cpu.Pc = b
	}
	return
}

func boolWord(cond bool) Word {
	if cond {
		return 1
	}
	return 0
}

func (cpu *Cpu) opHalt() error {
	return ErrHalt
}

func (cpu *Cpu) opSet() error {
	return cpu.unary(func(b Word) Word { return b })
}

func (cpu *Cpu) opPush() (err error) {
	a, err := cpu.ResolveValue()
	if err != nil {
		return
	}

	cpu.Stack.Push(a)
	return
}

func (cpu *Cpu) opPop() (err error) {
	reg, err := cpu.ResolveRegister()
	if err != nil {
		return
	}

	value, ok := cpu.Stack.Pop()
	if !ok {
		err = ErrStackUnderflow
		return
	}

	cpu.Register[reg] = value
	return
}

func (cpu *Cpu) opEq() error {
	return cpu.binary(func(b, c Word) Word { return boolWord(b == c) })
}

func (cpu *Cpu) opGt() error {
	return cpu.binary(func(b, c Word) Word { return boolWord(b > c) })
}

func (cpu *Cpu) opJmp() (err error) {
	a, err := cpu.ResolveValue()
	if err != nil {
		return
	}

	cpu.Pc = a
	return
}

func (cpu *Cpu) opJt() error {
	return cpu.branch(func(a Word) bool { return a != 0 })
}

func (cpu *Cpu) opJf() error {
	return cpu.branch(func(a Word) bool { return a == 0 })
}

func (cpu *Cpu) opAdd() error {
	return cpu.binary(func(b, c Word) Word {
		return Word((uint32(b) + uint32(c)) % WORD_MODULO)
	})
}

func (cpu *Cpu) opMult() error {
	return cpu.binary(func(b, c Word) Word {
		return Word((uint32(b) * uint32(c)) % WORD_MODULO)
	})
}

func (cpu *Cpu) opMod() (err error) {
	reg, err := cpu.ResolveRegister()
	if err != nil {
		return
	}
	b, err := cpu.ResolveValue()
	if err != nil {
		return
	}
	c, err := cpu.ResolveValue()
	if err != nil {
		return
	}
	if c == 0 {
		err = ErrDivideByZero
		return
	}

	cpu.Register[reg] = b % c
	return
}

func (cpu *Cpu) opAnd() error {
	return cpu.binary(func(b, c Word) Word { return b & c })
}

func (cpu *Cpu) opOr() error {
	return cpu.binary(func(b, c Word) Word { return b | c })
}

func (cpu *Cpu) opNot() error {
	return cpu.unary(func(b Word) Word { return ^b & WORD_MAX })
}

// resolveAddress fetches an operand that is used as a memory address.
// Registers may hold raw words loaded by rmem, so the address is checked.
func (cpu *Cpu) resolveAddress() (addr Word, err error) {
	from := cpu.Pc
	addr, err = cpu.ResolveValue()
	if err != nil {
		return
	}

	if int(addr) >= MEMORY_SIZE {
		err = ErrWord{Addr: from, Raw: addr, Err: ErrMemoryBounds}
		return
	}

	return
}

// opRmem copies the memory word unchanged, so a register may receive a
// register-encoded word from the program image.
func (cpu *Cpu) opRmem() (err error) {
	reg, err := cpu.ResolveRegister()
	if err != nil {
		return
	}
	b, err := cpu.resolveAddress()
	if err != nil {
		return
	}

	cpu.Register[reg] = cpu.Memory[b]
	return
}

func (cpu *Cpu) opWmem() (err error) {
	a, err := cpu.resolveAddress()
	if err != nil {
		return
	}
	b, err := cpu.ResolveValue()
	if err != nil {
		return
	}

	cpu.Memory[a] = b
	return
}

func (cpu *Cpu) opCall() (err error) {
	// The operand word is the last word of the instruction, whatever
	// it names.
	next := cpu.Pc + 1

	a, err := cpu.ResolveValue()
	if err != nil {
		return
	}

	cpu.Stack.Push(next)
	cpu.Pc = a
	return
}

func (cpu *Cpu) opRet() (err error) {
	addr, ok := cpu.Stack.Pop()
	if !ok {
		err = ErrStackUnderflow
		return
	}

	cpu.Pc = addr
	return
}

func (cpu *Cpu) opOut() (err error) {
	a, err := cpu.ResolveValue()
	if err != nil {
		return
	}

	if cpu.Console == nil {
		err = ErrConsoleMissing
		return
	}

	return cpu.Console.WriteByte(byte(a))
}

// opIn stores one input character to a register, or directly to memory
// when the target word is a literal address.
func (cpu *Cpu) opIn() (err error) {
	if cpu.Console == nil {
		err = ErrConsoleMissing
		return
	}

	ch, err := cpu.Console.ReadByte()
	if err != nil {
		return
	}

	addr := cpu.Pc
	raw, err := cpu.FetchRaw()
	if err != nil {
		return
	}

	if reg, ok := raw.Register(); ok {
		cpu.Register[reg] = Word(ch)
		return
	}

	if !raw.Literal() {
		err = ErrWord{Addr: addr, Raw: raw, Err: ErrInstructionInvalid}
		return
	}

	cpu.Memory[raw] = Word(ch)
	return
}

func (cpu *Cpu) opNoop() error {
	return nil
}
