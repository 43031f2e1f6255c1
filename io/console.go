// Package io provides the character console for the Synacor machine.
// Output is written one byte per out instruction; input blocks for exactly
// one byte per in instruction, optionally with the terminal held in raw
// (non-canonical) mode while reading.
package io

import (
	"io"
	"sync"
)

// RawMode switches an input device into unbuffered, non-canonical mode.
type RawMode interface {
	// Enter switches to raw mode, and returns a function that restores
	// the prior mode.
	Enter() (restore func(), err error)
}

// flusher is implemented by buffered outputs.
type flusher interface {
	Flush() error
}

// Console provides byte I/O over an io.Reader and io.Writer.
type Console struct {
	Input  io.Reader
	Output io.Writer
	Raw    RawMode // If set, entered around every read that is not held.

	held    int
	restore func()
}

var _ io.ByteReader = (*Console)(nil)
var _ io.ByteWriter = (*Console)(nil)

// ReadByte blocks until one byte of input is available.
// Pending output is flushed first, so prompts are visible.
func (con *Console) ReadByte() (ch byte, err error) {
	if con.Input == nil {
		err = ErrNoInput
		return
	}

	err = con.Flush()
	if err != nil {
		return
	}

	if con.Raw != nil && con.held == 0 {
		var restore func()
		restore, err = con.Raw.Enter()
		if err != nil {
			return
		}
		defer restore()
	}

	var one [1]byte
	_, err = io.ReadFull(con.Input, one[:])
	if err != nil {
		return
	}

	ch = one[0]
	return
}

// WriteByte writes a single byte to the output.
func (con *Console) WriteByte(ch byte) (err error) {
	if con.Output == nil {
		err = ErrNoOutput
		return
	}

	_, err = con.Output.Write([]byte{ch})
	return
}

// Hold enters raw mode until release is called. Reads while held do not
// switch modes. Holds nest.
func (con *Console) Hold() (release func(), err error) {
	if con.Raw == nil {
		release = func() {}
		return
	}

	if con.held == 0 {
		con.restore, err = con.Raw.Enter()
		if err != nil {
			return
		}
	}
	con.held++

	release = sync.OnceFunc(func() {
		con.held--
		if con.held == 0 {
			con.restore()
			con.restore = nil
		}
	})

	return
}

// Flush writes any buffered output.
func (con *Console) Flush() (err error) {
	if fl, ok := con.Output.(flusher); ok {
		err = fl.Flush()
	}
	return
}
