// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/synacor/internal"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
	"HERE":   "0",
}

// link is a forward label reference waiting for the label's address.
type link struct {
	statement int
	index     int
	label     string
}

// Assembler is a single pass macro assembler for the Synacor instruction set.
type Assembler struct {
	Verbose    bool        // If set, verbosely logs the assembler actions.
	Statements []Statement // List of generated statements.

	predefine map[string]string   // Predefines
	Label     map[string]Word     // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	links []link
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var (
	reLabel    = regexp.MustCompile(`^[A-Za-z_.@][A-Za-z0-9_.@]*$`)
	reString   = regexp.MustCompile(`"(\\.|[^"\\])*"`)
	reChar     = regexp.MustCompile(`'(\\.|[^'\\])'`)
	reParen    = regexp.MustCompile(`\$\([^\$]*\)`)
	reRegister = regexp.MustCompile(`^r[0-7]$`)
)

// valueOf returns the value of a simple numeric word.
// Negative values wrap modulo 32768, and '~' inverts the 15 value bits.
func (asm *Assembler) valueOf(word string) (value Word, err error) {
	invert := false
	if len(word) > 1 && word[0] == '~' {
		invert = true
		word = word[1:]
	}
	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	switch {
	case v64 < 0 && v64 >= -int64(WORD_MODULO):
		value = Word(int64(WORD_MODULO) + v64)
	case v64 >= 0 && v64 <= 0xffff:
		value = Word(v64)
	default:
		err = ErrValueRange
		return
	}

	if invert {
		value = ^value & WORD_MAX
	}

	return
}

// symbols returns all labels and equates visible to an expression.
func (asm *Assembler) symbols() iter.Seq2[string, string] {
	labels := func(yield func(string, string) bool) {
		for label, addr := range asm.Label {
			if !yield(label, strconv.Itoa(int(addr))) {
				return
			}
		}
	}

	return internal.Concat2(labels, maps.All(asm.Equate))
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.symbols() {
		var word Word
		word, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(int(word))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// unquote expands string and character literals into decimal words, and
// strips the comment.
func unquote(text string) (line string, err error) {
	line = reString.ReplaceAllStringFunc(text, func(quoted string) string {
		str, _err := strconv.Unquote(quoted)
		if _err != nil {
			err = ErrStringSyntax
			return quoted
		}
		codes := make([]string, 0, len(str))
		for _, ch := range []byte(str) {
			codes = append(codes, strconv.Itoa(int(ch)))
		}
		return strings.Join(codes, " ")
	})
	if err != nil {
		return
	}

	line = reChar.ReplaceAllStringFunc(line, func(quoted string) string {
		ch, _, tail, _err := strconv.UnquoteChar(quoted[1:len(quoted)-1], '\'')
		if _err != nil || len(tail) != 0 || ch > rune(WORD_MAX) {
			return quoted
		}
		return strconv.Itoa(int(ch))
	})

	line, _, _ = strings.Cut(line, ";")
	line = strings.TrimSpace(line)

	return
}

// parseLine evaluates expressions and equates, and records labels.
// The returned words are an instruction or directive, or empty.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number and address.
	asm.Equate["LINENO"] = strconv.Itoa(lineno)
	asm.Equate["HERE"] = strconv.Itoa(int(asm.currentAddr()))

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return strconv.FormatInt(value, 10)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 || !reLabel.MatchString(words[1]) {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !reLabel.MatchString(label) {
			err = ErrLabelSyntax
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", fmt.Sprintf("%v_%v_", name, lineno))
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the address of the next generated word.
func (asm *Assembler) currentAddr() Word {
	if len(asm.Statements) == 0 {
		return 0
	}

	last := asm.Statements[len(asm.Statements)-1]

	return last.Addr + Word(len(last.Words))
}

// wordOf decodes a single operand. An unknown label is returned
// for linking once all labels are known.
func (asm *Assembler) wordOf(word string) (value Word, label string, err error) {
	if reRegister.MatchString(word) {
		value = RegisterWord(int(word[1] - '0'))
		return
	}

	addr, ok := asm.Label[word]
	if ok {
		value = addr
		return
	}

	if reLabel.MatchString(word) {
		label = word
		return
	}

	value, err = asm.valueOf(word)
	if err == ErrValueRange {
		return
	}
	if err != nil {
		err = ErrParseValue(word)
		return
	}

	return
}

// operand decodes an operand of a specific class.
func (asm *Assembler) operand(kind Operand, word string) (value Word, label string, err error) {
	value, label, err = asm.wordOf(word)
	if err != nil {
		return
	}

	_, is_reg := value.Register()

	switch kind {
	case OPERAND_VALUE:
		if len(label) == 0 && !value.Valid() {
			err = ErrValueRange
		}
	case OPERAND_REGISTER:
		if len(label) != 0 || !is_reg {
			err = ErrTargetInvalid
		}
	case OPERAND_TARGET:
		if len(label) == 0 && !is_reg && !value.Literal() {
			err = ErrTargetInvalid
		}
	}

	return
}

// parseWords generates the words for an instruction or data directive.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	if len(words) == 0 {
		return
	}

	st := Statement{
		LineNo: lineno,
		Addr:   asm.currentAddr(),
		Fields: slices.Clone(words),
	}
	var links []link

	emit := func(value Word, label string) {
		if len(label) != 0 {
			links = append(links, link{
				statement: len(asm.Statements),
				index:     len(st.Words),
				label:     label,
			})
		}
		st.Words = append(st.Words, value)
	}

	switch words[0] {
	case ".data", ".string":
		for _, word := range words[1:] {
			var value Word
			var label string
			value, label, err = asm.wordOf(word)
			if err != nil {
				return
			}
			emit(value, label)
		}
	default:
		op, ok := opMnemonic[words[0]]
		if !ok {
			err = ErrOpcodeInvalid
			return
		}
		args := words[1:]
		kinds := op.Operands()
		if len(args) > len(kinds) {
			err = ErrOpcodeExtraArgs
			return
		}
		if len(args) < len(kinds) {
			err = ErrOpcodeValueMissing
			return
		}
		emit(Word(op), "")
		for n, kind := range kinds {
			var value Word
			var label string
			value, label, err = asm.operand(kind, args[n])
			if err != nil {
				return
			}
			emit(value, label)
		}
	}

	if int(st.Addr)+len(st.Words) > MEMORY_SIZE {
		err = ErrCapacity(int(st.Addr) + len(st.Words))
		return
	}

	if asm.Verbose {
		log.Printf("%04x: %v %v", uint16(st.Addr), st.Fields, st.Words)
	}

	asm.Statements = append(asm.Statements, st)
	asm.links = append(asm.links, links...)

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]Word, 16)
	asm.Statements = asm.Statements[:0]
	asm.links = asm.links[:0]
	asm.Macro = make(map[string](*Macro))
	asm.Equate = maps.Collect(internal.Concat2(
		maps.All(_cpu_defines),
		maps.All(sysEquate),
		maps.All(asm.predefine),
	))

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1
		line = text

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line, err = unquote(text)
		if err != nil {
			return
		}
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for _, ln := range asm.links {
		st := &asm.Statements[ln.statement]
		addr, ok := asm.Label[ln.label]
		if !ok {
			lineno = st.LineNo
			line = strings.Join(st.Fields, " ")
			err = ErrLabelMissing(ln.label)
			return
		}
		st.Words[ln.index] = addr
	}

	prog = &Program{
		Statements: slices.Clone(asm.Statements),
	}
	for _, st := range prog.Statements {
		prog.Words = append(prog.Words, st.Words...)
	}

	return
}
