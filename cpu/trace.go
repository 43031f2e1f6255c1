package cpu

// Tracer observes instruction fetches. It must not change machine state.
type Tracer interface {
	// Fetch is called for every raw word read at the program counter.
	Fetch(addr Word, raw Word)
	// Peek is called by Cpu.Peek with the upcoming raw words.
	Peek(addr Word, raws []Word)
}
