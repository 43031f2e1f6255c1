package emulator

import (
	"github.com/ezrec/synacor/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Addr   uint16 // Address of the failing instruction.
	LineNo int    // Source line, or 0 when unknown.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("address %#04x %v", err.Addr, err.Err)
	}
	return f("line %d (address %#04x) %v", err.LineNo, err.Addr, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
