package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func assemble(source ...string) (prog *Program, err error) {
	asm := &Assembler{}
	return asm.Parse(strings.NewReader(strings.Join(source, "\n")))
}

func TestAssembler_Basic(t *testing.T) {
	assert := assert.New(t)

	prog, err := assemble(
		"; print an A",
		"start:  add r0 60 5   ; r0 = 65",
		"        out r0",
		"        halt",
	)
	assert.NoError(err)

	expected := &Program{
		Words: []Word{9, 32768, 60, 5, 19, 32768, 0},
		Statements: []Statement{
			{LineNo: 2, Addr: 0, Fields: []string{"add", "r0", "60", "5"}, Words: []Word{9, 32768, 60, 5}},
			{LineNo: 3, Addr: 4, Fields: []string{"out", "r0"}, Words: []Word{19, 32768}},
			{LineNo: 4, Addr: 6, Fields: []string{"halt"}, Words: []Word{0}},
		},
	}
	if diff := cmp.Diff(expected, prog); diff != "" {
		t.Errorf("program mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembler_Labels(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"        jmp end",
		"        out 'x'",
		"end:",
		"back:   halt",
		"        call back",
		"        .data end back",
	}, "\n")))
	assert.NoError(err)
	assert.Equal([]Word{6, 4, 19, 120, 0, 17, 4, 4, 4}, prog.Words)
	assert.Equal(map[string]Word{"end": 4, "back": 4}, asm.Label)
}

func TestAssembler_Operands(t *testing.T) {
	assert := assert.New(t)

	prog, err := assemble(
		"set r7 r0",
		"in r1",
		"in 500",
		"in buffer",
		"out '\\n'",
		".data -1 ~0 0xffff",
		"buffer: .data 0",
	)
	assert.NoError(err)
	assert.Equal([]Word{
		1, 32775, 32768,
		20, 32769,
		20, 500,
		20, 14,
		19, 10,
		32767, 32767, 0xffff,
		0,
	}, prog.Words)
}

func TestAssembler_String(t *testing.T) {
	assert := assert.New(t)

	prog, err := assemble(
		`.string "Hi; there"`,
		`out ';'`,
	)
	assert.NoError(err)
	assert.Equal([]Word{72, 105, 59, 32, 116, 104, 101, 114, 101, 19, 59}, prog.Words)
}

func TestAssembler_Equate(t *testing.T) {
	assert := assert.New(t)

	prog, err := assemble(
		".equ CH 65",
		".equ REG r3",
		"set REG CH",
		".data WORD_MAX MEMORY_SIZE",
	)
	assert.NoError(err)
	assert.Equal([]Word{1, 32771, 65, 32767, 32768}, prog.Words)

	asm := &Assembler{}
	asm.Predefine("CH", "66")
	asm.Predefine("CH", "67")
	prog, err = asm.Parse(strings.NewReader("out CH"))
	assert.NoError(err)
	assert.Equal([]Word{19, 67}, prog.Words)

	_, err = asm.Parse(strings.NewReader(".equ CH 1"))
	assert.ErrorIs(err, ErrEquateDuplicate)
}

func TestAssembler_Expression(t *testing.T) {
	assert := assert.New(t)

	prog, err := assemble(
		"start: noop",
		".data $(WORD_MAX - 1) $(HERE + 2) $(start + 10)",
		".data $(LINENO * 100)",
	)
	assert.NoError(err)
	assert.Equal([]Word{21, 32766, 3, 10, 300}, prog.Words)

	_, err = assemble(".data $(1 == 1)")
	var ep ErrParseExpression
	assert.True(errors.As(err, &ep))
}

func TestAssembler_Macro(t *testing.T) {
	assert := assert.New(t)

	prog, err := assemble(
		".macro PUTC ch",
		"out ch",
		".endm",
		".macro SPIN n",
		"@top: jt n @top",
		".endm",
		"PUTC 'A'",
		"SPIN 0",
		"halt",
	)
	assert.NoError(err)
	assert.Equal([]Word{19, 65, 7, 0, 2, 0}, prog.Words)

	expected := []Statement{
		{LineNo: 2, Addr: 0, Fields: []string{"out", "65"}, Words: []Word{19, 65}},
		{LineNo: 5, Addr: 2, Fields: []string{"jt", "0", "SPIN_5_top"}, Words: []Word{7, 0, 2}},
		{LineNo: 9, Addr: 5, Fields: []string{"halt"}, Words: []Word{0}},
	}
	if diff := cmp.Diff(expected, prog.Statements); diff != "" {
		t.Errorf("statements mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembler_MacroErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := assemble(".macro FOO", "halt")
	assert.ErrorIs(err, ErrMacroLonely)

	_, err = assemble(".endm")
	assert.ErrorIs(err, ErrMacroLonelyEndm)

	_, err = assemble(".macro FOO", ".macro BAR", ".endm")
	assert.ErrorIs(err, ErrMacroNesting)

	_, err = assemble(".macro FOO", ".endm", ".macro FOO", ".endm")
	assert.ErrorIs(err, ErrMacroDuplicate)

	_, err = assemble(".macro FOO a", ".endm", "FOO")
	assert.ErrorIs(err, ErrMacroSyntax)

	_, err = assemble(".macro FOO", "bogus", ".endm", "FOO")
	assert.ErrorIs(err, ErrOpcodeInvalid)
	var em ErrMacro
	assert.True(errors.As(err, &em))
	assert.Equal("FOO", em.Macro)
	assert.Equal(2, em.Line)
}

func TestAssembler_Errors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		source string
		err    error
	}){
		{"set 5 1", ErrTargetInvalid},
		{"pop 7", ErrTargetInvalid},
		{"in 40000", ErrTargetInvalid},
		{"add r0 1", ErrOpcodeValueMissing},
		{"halt 1", ErrOpcodeExtraArgs},
		{"bogus", ErrOpcodeInvalid},
		{"a: halt\na: halt", ErrLabelDuplicate},
		{"9a: halt", ErrLabelSyntax},
		{".data 70000", ErrValueRange},
		{"push 40000", ErrValueRange},
		{".equ X", ErrEquateSyntax},
		{".equ X 1\n.equ X 2", ErrEquateDuplicate},
	}

	for _, entry := range table {
		_, err := assemble(entry.source)
		assert.ErrorIs(err, entry.err, entry.source)
	}
}

func TestAssembler_LabelMissing(t *testing.T) {
	assert := assert.New(t)

	_, err := assemble("noop", "jmp nowhere")
	var el ErrLabelMissing
	assert.True(errors.As(err, &el))
	assert.Equal(ErrLabelMissing("nowhere"), el)

	var es ErrSyntax
	assert.True(errors.As(err, &es))
	assert.Equal(2, es.LineNo)
	assert.Equal("jmp nowhere", es.Line)
}

func TestAssembler_Capacity(t *testing.T) {
	assert := assert.New(t)

	half := ".data" + strings.Repeat(" 0", MEMORY_SIZE/2+1)
	_, err := assemble(half, half)
	assert.ErrorIs(err, ErrLoad)

	var es ErrSyntax
	assert.True(errors.As(err, &es))
	assert.Equal(2, es.LineNo)
}

func TestAssembler_Runs(t *testing.T) {
	assert := assert.New(t)

	prog, err := assemble(
		"        set r0 3",
		"loop:   call emit",
		"        add r0 r0 32767",
		"        jt r0 loop",
		"        halt",
		"emit:   add r1 r0 '0'",
		"        out r1",
		"        ret",
	)
	assert.NoError(err)

	_, console, err := runWords(t, prog.Words, "")
	assert.Equal(ErrHalt, err)
	assert.Equal("321", console.output.String())
}
