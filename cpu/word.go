package cpu

import (
	"fmt"
)

// Word is a raw 16-bit machine word.
type Word uint16

const (
	WORD_MAX       = Word(0x7fff)                   // Largest literal value.
	WORD_MODULO    = uint32(WORD_MAX) + 1           // Arithmetic modulus.
	MEMORY_SIZE    = int(WORD_MAX) + 1              // Words of addressable memory.
	REGISTER_COUNT = 8                              // Size of the register bank.
	REGISTER_BASE  = Word(0x8000)                   // Raw word naming r0.
	REGISTER_END   = REGISTER_BASE + REGISTER_COUNT // First invalid raw word.
)

var _cpu_defines = map[string]string{
	"WORD_MAX":      fmt.Sprintf("%d", WORD_MAX),
	"MEMORY_SIZE":   fmt.Sprintf("%d", MEMORY_SIZE),
	"REGISTER_BASE": fmt.Sprintf("%d", REGISTER_BASE),
}

// Literal returns true if the raw word is a literal value.
func (w Word) Literal() bool {
	return w <= WORD_MAX
}

// Register returns the register index named by the raw word.
func (w Word) Register() (reg int, ok bool) {
	if w < REGISTER_BASE || w >= REGISTER_END {
		return
	}

	return int(w - REGISTER_BASE), true
}

// Valid returns true if the raw word can be resolved to a value.
func (w Word) Valid() bool {
	return w < REGISTER_END
}

// RegisterWord returns the raw word that names register reg.
func RegisterWord(reg int) Word {
	return REGISTER_BASE + Word(reg)
}

// String formats a raw word as it would appear in assembly source.
func (w Word) String() string {
	if reg, ok := w.Register(); ok {
		return fmt.Sprintf("r%d", reg)
	}

	return fmt.Sprintf("%d", uint16(w))
}
