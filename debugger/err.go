package debugger

import (
	"errors"

	"github.com/ezrec/procsi/translate"
)

var f = translate.From

var (
	ErrCommand    = errors.New(f("unknown command"))
	ErrUsage      = errors.New(f("usage"))
	ErrNoCode     = errors.New(f("no code at line"))
	ErrBreakpoint = errors.New(f("no such breakpoint"))
)
