//go:build linux

package io

import (
	"os"

	"github.com/pkg/errors"
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// Termios is the raw mode of a terminal file descriptor.
// Canonical line editing is switched off, echo is left on.
type Termios struct {
	Fd uintptr
}

var _ RawMode = (*Termios)(nil)

// NewTermios returns the raw mode for a terminal, or ErrNotTerminal.
func NewTermios(file *os.File) (tios *Termios, err error) {
	var attr unix.Termios
	err = termios.Tcgetattr(file.Fd(), &attr)
	if err != nil {
		err = errors.Wrapf(ErrNotTerminal, "%v", file.Name())
		return
	}

	tios = &Termios{Fd: file.Fd()}
	return
}

// Enter switches the terminal to non-canonical input, with reads
// returning as soon as one byte is available.
func (tios *Termios) Enter() (restore func(), err error) {
	var prior unix.Termios
	err = termios.Tcgetattr(tios.Fd, &prior)
	if err != nil {
		err = errors.Wrap(err, "Tcgetattr failed")
		return
	}

	raw := prior
	raw.Lflag &^= unix.ICANON
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	err = termios.Tcsetattr(tios.Fd, termios.TCSANOW, &raw)
	if err != nil {
		// well, try to restore as it was if it errors
		termios.Tcsetattr(tios.Fd, termios.TCSANOW, &prior)
		err = errors.Wrap(err, "Tcsetattr failed")
		return
	}

	restore = func() {
		termios.Tcsetattr(tios.Fd, termios.TCSANOW, &prior)
	}
	return
}
