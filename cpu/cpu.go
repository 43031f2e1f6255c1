// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"slices"
)

// Console is the character device used by the in and out opcodes.
type Console interface {
	io.ByteReader
	io.ByteWriter
}

// Cpu is the complete machine state.
type Cpu struct {
	Verbose bool   // Set to enable verbose logging.
	Tracer  Tracer // Optional diagnostic sink.

	Pc       Word                 // Program counter.
	Register [REGISTER_COUNT]Word // Register bank.
	Memory   [MEMORY_SIZE]Word    // Program and data memory.
	Stack    Stack                // Call and data stack.

	Console Console // Character I/O for in and out.

	Ticks int // Instructions executed since reset.
}

// NewCpu creates a zeroed machine.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: %04x\n", "pc", uint16(cpu.Pc))
	for n, val := range cpu.Register {
		text += fmt.Sprintf("% 5s: %04x\n", fmt.Sprintf("r%d", n), uint16(val))
	}

	var strval string
	val, ok := cpu.Stack.Peek()
	if ok {
		strval = fmt.Sprintf("%04x (depth %d)", uint16(val), cpu.Stack.Depth())
	} else {
		strval = "----"
	}
	text += fmt.Sprintf("% 5s: %v\n", "stack", strval)

	return
}

// Reset the CPU state.
// - Clears the registers, stack and memory.
// - Zeros the instruction counter.
// - Sets the program counter to 0.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	clear(cpu.Memory[:])
	cpu.Stack.Reset()
	cpu.Pc = 0
	cpu.Ticks = 0
}

// Load resets the machine and copies words into memory from address 0.
func (cpu *Cpu) Load(words []Word) (err error) {
	if len(words) > MEMORY_SIZE {
		err = ErrCapacity(len(words))
		return
	}

	cpu.Reset()
	copy(cpu.Memory[:], words)

	if cpu.Verbose {
		log.Printf("cpu: loaded %d words", len(words))
	}

	return
}

// FetchRaw returns the word at the program counter, and advances the
// program counter.
func (cpu *Cpu) FetchRaw() (raw Word, err error) {
	addr := cpu.Pc
	if int(addr) >= MEMORY_SIZE {
		err = ErrWord{Addr: addr, Err: ErrMemoryBounds}
		return
	}

	raw = cpu.Memory[addr]
	if cpu.Tracer != nil {
		cpu.Tracer.Fetch(addr, raw)
	}
	cpu.Pc++

	return
}

// ResolveValue fetches an operand, and returns either the literal or the
// content of the register it names.
func (cpu *Cpu) ResolveValue() (value Word, err error) {
	addr := cpu.Pc
	raw, err := cpu.FetchRaw()
	if err != nil {
		return
	}

	if raw.Literal() {
		value = raw
		return
	}

	reg, ok := raw.Register()
	if !ok {
		err = ErrWord{Addr: addr, Raw: raw, Err: ErrInstructionInvalid}
		return
	}

	value = cpu.Register[reg]
	return
}

// ResolveRegister fetches a write target operand, which must name a register.
func (cpu *Cpu) ResolveRegister() (reg int, err error) {
	addr := cpu.Pc
	raw, err := cpu.FetchRaw()
	if err != nil {
		return
	}

	reg, ok := raw.Register()
	if !ok {
		err = ErrWord{Addr: addr, Raw: raw, Err: ErrRegisterInvalid}
		return
	}

	return
}

// Peek sends the next count raw words to the tracer without moving the
// program counter.
func (cpu *Cpu) Peek(count int) (raws []Word) {
	start := min(int(cpu.Pc), MEMORY_SIZE)
	end := min(start+max(count, 0), MEMORY_SIZE)

	raws = slices.Clone(cpu.Memory[start:end])
	if cpu.Tracer != nil {
		cpu.Tracer.Peek(Word(start), raws)
	}

	return
}

// Tick executes a single instruction.
// ErrHalt is returned after a halt opcode.
func (cpu *Cpu) Tick() (err error) {
	addr := cpu.Pc
	raw, err := cpu.FetchRaw()
	if err != nil {
		return
	}

	op := Op(raw)
	if !op.Defined() {
		err = ErrOpcode{Addr: addr, Raw: raw}
		return
	}

	cpu.Ticks++

	return cpu.Execute(addr, op)
}

// Execute runs the handler for an opcode whose word, at addr, has already
// been fetched.
func (cpu *Cpu) Execute(addr Word, op Op) (err error) {
	if !op.Defined() {
		err = ErrOpcode{Addr: addr, Raw: Word(op)}
		return
	}

	if cpu.Verbose {
		log.Printf("%04x: %v", uint16(addr), op)
	}

	err = opTable[op](cpu)
	if err != nil && err != ErrHalt {
		err = &ErrExecute{Addr: addr, Op: op, Err: err}
	}

	return
}
