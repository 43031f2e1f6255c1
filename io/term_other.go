//go:build !linux

package io

import (
	"os"

	"github.com/pkg/errors"
)

// Termios is the raw mode of a terminal file descriptor.
// Only Linux terminals are supported.
type Termios struct {
	Fd uintptr
}

var _ RawMode = (*Termios)(nil)

// NewTermios always returns ErrNotTerminal on this platform.
func NewTermios(file *os.File) (tios *Termios, err error) {
	err = errors.Wrapf(ErrNotTerminal, "%v", file.Name())
	return
}

// Enter always fails on this platform.
func (tios *Termios) Enter() (restore func(), err error) {
	err = ErrNotTerminal
	return
}
