// Package cpu implements the virtual machine and assembler for the Synacor
// instruction set.
//
// The machine has 32768 words of 15-bit memory, eight registers (r0-r7), an
// unbounded stack, and a program counter. Raw words 0..32767 in the
// instruction stream are literals, 32768..32775 name registers, and anything
// above is invalid. Each Tick fetches one opcode and runs its handler, which
// fetches its own operands.
//
// The assembler accepts one instruction per line, with labels, equates,
// character literals, and compile-time expressions evaluated by Starlark.
package cpu
