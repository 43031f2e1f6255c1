package cpu

import (
	"github.com/pkg/errors"

	"github.com/ezrec/synacor/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrLoad               = errors.New(f("program does not fit in memory"))
	ErrInstructionInvalid = errors.New(f("invalid instruction"))
	ErrRegisterInvalid    = errors.New(f("invalid register address"))
	ErrOpcodeUndefined    = errors.New(f("undefined opcode"))
	ErrStackUnderflow     = errors.New(f("stack empty"))
	ErrMemoryBounds       = errors.New(f("address outside memory"))
	ErrDivideByZero       = errors.New(f("divide by zero"))
	ErrConsoleMissing     = errors.New(f("no console attached"))
	ErrHalt               = errors.New(f("halt"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelSyntax        = errors.New(f("label syntax"))
	ErrStringSyntax       = errors.New(f(".string syntax"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOpcodeInvalid      = errors.New(f("opcode invalid"))
	ErrTargetInvalid      = errors.New(f("target invalid"))
	ErrValueRange         = errors.New(f("value out of range"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
)

// ErrCapacity is returned when a program has more words than memory.
type ErrCapacity int

func (err ErrCapacity) Error() string {
	return f("%v: %d words, capacity %d", ErrLoad, int(err), MEMORY_SIZE)
}

func (err ErrCapacity) Unwrap() error {
	return ErrLoad
}

// ErrOpcode is returned when the fetched opcode has no handler.
type ErrOpcode struct {
	Addr Word // Address of the opcode word.
	Raw  Word // Fetched opcode word.
}

func (err ErrOpcode) Error() string {
	return f("%v %#04x at %#04x", ErrOpcodeUndefined, uint16(err.Raw), uint16(err.Addr))
}

func (err ErrOpcode) Unwrap() error {
	return ErrOpcodeUndefined
}

// ErrWord reports an operand word that could not be used.
type ErrWord struct {
	Addr Word  // Address the word was fetched from.
	Raw  Word  // The raw word.
	Err  error // Reason.
}

func (err ErrWord) Error() string {
	return f("%v %#04x at %#04x", err.Err, uint16(err.Raw), uint16(err.Addr))
}

func (err ErrWord) Unwrap() error {
	return err.Err
}

// ErrExecute decorates a handler failure with the instruction that raised it.
type ErrExecute struct {
	Addr Word // Address of the opcode word.
	Op   Op   // Opcode being executed.
	Err  error
}

func (err *ErrExecute) Error() string {
	return f("%v at %#04x: %v", err.Op, uint16(err.Addr), err.Err)
}

func (err *ErrExecute) Unwrap() error {
	return err.Err
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseValue string

func (err ErrParseValue) Error() string {
	return f("'%v' is not a value or register", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
