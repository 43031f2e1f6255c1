package io

import (
	"github.com/pkg/errors"

	"github.com/ezrec/synacor/translate"
)

var f = translate.From

var (
	// Console errors
	ErrNoInput     = errors.New(f("console has no input"))
	ErrNoOutput    = errors.New(f("console has no output"))
	ErrNotTerminal = errors.New(f("not a terminal"))
)
