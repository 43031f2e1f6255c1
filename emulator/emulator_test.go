package emulator

import (
	"bufio"
	"bytes"
	"errors"
	"log"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/synacor/cpu"
)

// countRaw tracks raw mode entry and restore.
type countRaw struct {
	entered  int
	restored int
}

func (cr *countRaw) Enter() (restore func(), err error) {
	cr.entered++
	restore = func() { cr.restored++ }
	return
}

func newTestEmulator(t *testing.T, input string, source ...string) (emu *Emulator, output *bytes.Buffer) {
	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(source, "\n")))
	require.NoError(t, err)

	emu = NewEmulator()
	emu.Program = prog
	output = &bytes.Buffer{}
	emu.Terminal.Input = strings.NewReader(input)
	emu.Terminal.Output = output

	require.NoError(t, emu.Reset())
	return
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.NotNil(emu.Program)
	assert.Equal(&emu.Terminal, emu.Cpu.Console)

	defines := maps.Collect(emu.Defines())
	assert.Equal("4", defines["PEEK_WORDS"])
	assert.Equal("32767", defines["WORD_MAX"])
}

func TestEmulator_Halt(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator(t, "", "halt")
	outcome, err := emu.Run()
	assert.NoError(err)
	assert.Equal(OUTCOME_HALT, outcome)
	assert.Equal(0, output.Len())
	assert.Equal(1, emu.Ticks())

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(1, emu.Ticks())
}

func TestEmulator_Output(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator(t, "",
		"add r0 60 5",
		"out r0",
		"jmp done",
		"out 'x'",
		"done: halt",
	)
	outcome, err := emu.Run()
	assert.NoError(err)
	assert.Equal(OUTCOME_HALT, outcome)
	assert.Equal("A", output.String())
}

func TestEmulator_Echo(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator(t, "hello\n",
		"loop: in r0",
		"      out r0",
		"      eq r1 r0 '\\n'",
		"      jf r1 loop",
		"      halt",
	)

	raw := &countRaw{}
	emu.Terminal.Raw = raw

	outcome, err := emu.Run()
	assert.NoError(err)
	assert.Equal(OUTCOME_HALT, outcome)
	assert.Equal("hello\n", output.String())
	assert.Equal(1, raw.entered)
	assert.Equal(1, raw.restored)
}

func TestEmulator_Underflow(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator(t, "",
		"out 'a'",
		"pop r0",
		"out 'b'",
	)
	var logged bytes.Buffer
	emu.Log = log.New(&logged, "", 0)

	outcome, err := emu.Run()
	assert.NoError(err)
	assert.Equal(OUTCOME_UNDERFLOW, outcome)
	assert.Equal("a", output.String())
	assert.Contains(logged.String(), cpu.ErrStackUnderflow.Error())
}

func TestEmulator_EndOfInput(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator(t, "ab",
		"loop: in r0",
		"      out r0",
		"      jmp loop",
	)
	outcome, err := emu.Run()
	assert.NoError(err)
	assert.Equal(OUTCOME_EOF, outcome)
	assert.Equal("ab", output.String())
	assert.Equal("end of input", outcome.String())
}

func TestEmulator_RuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator(t, "",
		"noop",
		".data 22",
	)
	outcome, err := emu.Run()
	assert.Equal(OUTCOME_RUNNING, outcome)
	assert.ErrorIs(err, cpu.ErrOpcodeUndefined)

	var er *ErrRuntime
	assert.True(errors.As(err, &er))
	assert.Equal(2, er.LineNo)
	assert.Equal(uint16(1), er.Addr)
	assert.Contains(er.Error(), "line 2")
}

func TestEmulator_RuntimeErrorBinary(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	_, err := emu.Program.ReadFrom(bytes.NewReader([]byte{0x01, 0x00, 0x05, 0x00, 0x00, 0x00}))
	require.NoError(t, err)
	emu.Terminal.Output = &bytes.Buffer{}
	require.NoError(t, emu.Reset())

	_, err = emu.Run()
	assert.ErrorIs(err, cpu.ErrRegisterInvalid)

	var er *ErrRuntime
	assert.True(errors.As(err, &er))
	assert.Equal(0, er.LineNo)
	assert.Contains(er.Error(), "address")
}

func TestEmulator_NoInput(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator(t, "", "in r0")
	emu.Terminal.Input = nil

	_, err := emu.Run()
	assert.Error(err)
	assert.NotErrorIs(err, cpu.ErrHalt)
}

func TestEmulator_FlushOnExit(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator(t, "", "out 'o'", "out 'k'", "halt")
	var output bytes.Buffer
	emu.Terminal.Output = bufio.NewWriter(&output)

	_, err := emu.Run()
	assert.NoError(err)
	assert.Equal("ok", output.String())
}

func TestEmulator_Trace(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator(t, "", "add r0 60 5", "halt")
	var trace bytes.Buffer
	emu.Cpu.Tracer = &LogTracer{Logger: log.New(&trace, "", 0)}
	emu.PeekWords = 2

	_, err := emu.Run()
	assert.NoError(err)

	assert.Equal(strings.Join([]string{
		"[peek 0000] 9 r0",
		"[pc 0000] 9",
		"[pc 0001] r0",
		"[pc 0002] 60",
		"[pc 0003] 5",
		"[peek 0004] 0 0",
		"[pc 0004] 0",
	}, "\n")+"\n", trace.String())
}

func TestEmulator_Reset(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator(t, "", "out 'z'", "halt")
	_, err := emu.Run()
	assert.NoError(err)

	assert.NoError(emu.Reset())
	assert.Equal(OUTCOME_RUNNING, emu.Outcome)
	assert.Equal(0, emu.Ticks())
	assert.Equal(cpu.Word(0), emu.Cpu.Pc)

	outcome, err := emu.Run()
	assert.NoError(err)
	assert.Equal(OUTCOME_HALT, outcome)
	assert.Equal("zz", output.String())
}
