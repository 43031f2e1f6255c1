package cpu

import (
	"encoding/binary"
	"io"
	"iter"

	"github.com/pkg/errors"
)

// Statement is one line of assembled source and the words it produced.
type Statement struct {
	LineNo int      // Source line number.
	Addr   Word     // Address of the first word.
	Fields []string // Source tokens, labels and comments removed.
	Words  []Word   // Generated words.
}

// Program is a memory image, optionally with the source it came from.
type Program struct {
	Words      []Word
	Statements []Statement
}

type Debug struct {
	*Statement
	Index int
}

// Debug returns the statement that generated the word at addr.
func (prog *Program) Debug(addr Word) (dbg Debug) {
	for n, st := range prog.Statements {
		if addr >= st.Addr && int(addr) < int(st.Addr)+len(st.Words) {
			dbg = Debug{
				Statement: &prog.Statements[n],
				Index:     int(addr - st.Addr),
			}
			break
		}
	}

	return
}

// Codes returns an iterator over address and word of the image.
func (prog *Program) Codes() iter.Seq2[Word, Word] {
	return func(yield func(addr Word, word Word) bool) {
		for n, word := range prog.Words {
			if !yield(Word(n), word) {
				return
			}
		}
	}
}

// ReadFrom replaces the image with little-endian 16-bit words read from r.
// A trailing odd byte is ignored.
func (prog *Program) ReadFrom(r io.Reader) (n int64, err error) {
	data, err := io.ReadAll(r)
	n = int64(len(data))
	if err != nil {
		err = errors.Wrap(err, "program read")
		return
	}

	words := make([]Word, len(data)/2)
	for i := range words {
		words[i] = Word(binary.LittleEndian.Uint16(data[i*2:]))
	}

	prog.Words = words
	prog.Statements = nil

	return
}

// WriteTo writes the image as little-endian 16-bit words.
func (prog *Program) WriteTo(w io.Writer) (n int64, err error) {
	data := make([]byte, 0, len(prog.Words)*2)
	for _, word := range prog.Words {
		data = binary.LittleEndian.AppendUint16(data, uint16(word))
	}

	wrote, err := w.Write(data)
	n = int64(wrote)
	if err != nil {
		err = errors.Wrap(err, "program write")
		return
	}

	return
}
