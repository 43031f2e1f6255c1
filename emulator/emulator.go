// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	stdio "io"
	"iter"
	"log"
	"maps"

	"github.com/pkg/errors"

	"github.com/ezrec/synacor/cpu"
	"github.com/ezrec/synacor/internal"
	"github.com/ezrec/synacor/io"
)

const (
	PEEK_WORDS = 4 // Default words peeked per instruction when tracing.
)

var _emulator_defines = map[string]string{
	"PEEK_WORDS": fmt.Sprintf("%v", PEEK_WORDS),
}

// Outcome is how a run terminated.
type Outcome int

//go:generate go tool stringer -linecomment -type=Outcome
const (
	OUTCOME_RUNNING   = Outcome(0) // running
	OUTCOME_HALT      = Outcome(1) // halt
	OUTCOME_UNDERFLOW = Outcome(2) // stack underflow
	OUTCOME_EOF       = Outcome(3) // end of input
)

// Emulator state. CPU + console + diagnostics.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently loaded program.

	Terminal  io.Console  // Console attached to the in and out opcodes.
	Log       *log.Logger // Diagnostic messages; log.Default() if nil.
	PeekWords int         // Words peeked before each instruction, if non-zero.

	Outcome Outcome // Terminal outcome, once the run is done.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	emu.Cpu.Console = &emu.Terminal

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Concat2(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

func (emu *Emulator) logger() *log.Logger {
	if emu.Log != nil {
		return emu.Log
	}
	return log.Default()
}

// Reset loads the program into a cleared machine.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Outcome = OUTCOME_RUNNING

	err = emu.Cpu.Load(emu.Program.Words)
	if err != nil {
		return
	}

	return
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// LineNo returns the source line for the instruction at the program
// counter, or 0 if the program has no source.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Statement == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single instruction of the emulator.
// done is set once the program has reached an outcome, and err is set only
// for fatal conditions.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.Outcome != OUTCOME_RUNNING {
		done = true
		return
	}

	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	addr := emu.Cpu.Pc
	lineno := emu.LineNo()

	if emu.PeekWords > 0 {
		emu.Cpu.Peek(emu.PeekWords)
	}

	err = emu.Cpu.Tick()
	switch {
	case err == nil:
		return
	case errors.Is(err, cpu.ErrHalt):
		emu.Outcome = OUTCOME_HALT
	case errors.Is(err, cpu.ErrStackUnderflow):
		emu.logger().Printf("%v", err)
		emu.Outcome = OUTCOME_UNDERFLOW
	case errors.Is(err, stdio.EOF):
		if emu.Verbose {
			emu.logger().Printf("%v", err)
		}
		emu.Outcome = OUTCOME_EOF
	default:
		if emu.Verbose {
			emu.logger().Printf("%v\n%v", err, emu.Cpu.String())
		}
		err = &ErrRuntime{Addr: uint16(addr), LineNo: lineno, Err: err}
		return
	}

	err = nil
	done = true
	return
}

// Run executes until the program reaches an outcome or a fatal error.
// The terminal is held in raw mode for the whole run.
func (emu *Emulator) Run() (outcome Outcome, err error) {
	release, err := emu.Terminal.Hold()
	if err != nil {
		return
	}
	defer release()

	defer func() {
		ferr := emu.Terminal.Flush()
		if err == nil {
			err = ferr
		}
	}()

	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	outcome = emu.Outcome
	return
}
