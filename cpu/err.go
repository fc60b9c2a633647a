package cpu

import (
	"errors"

	"github.com/ezrec/procsi/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted         = errors.New(f("halted"))
	ErrFaulted        = errors.New(f("faulted"))
	ErrBudget         = errors.New(f("step budget exhausted"))
	ErrConfig         = errors.New(f("configuration invalid"))
	ErrMemoryRange    = errors.New(f("memory out of range"))
	ErrRegisterRange  = errors.New(f("register out of range"))
	ErrStackOverflow  = errors.New(f("stack overflow"))
	ErrStackUnderflow = errors.New(f("stack underflow"))

	// Instruction decode errors
	ErrOpcodeInvalid = errors.New(f("opcode invalid"))
	ErrModeInvalid   = errors.New(f("addressing mode invalid"))
	ErrModeIllegal   = errors.New(f("addressing mode illegal for opcode"))
	ErrTruncated     = errors.New(f("instruction truncated"))

	// Assembler errors
	ErrStatementInvalid = errors.New(f("statement invalid"))
	ErrMnemonicInvalid  = errors.New(f("mnemonic invalid"))
	ErrOperandCount     = errors.New(f("wrong number of operands"))
	ErrOperandInvalid   = errors.New(f("operand invalid"))
	ErrRegisterInvalid  = errors.New(f("register invalid"))
	ErrLabelDuplicate   = errors.New(f("label duplicated"))
	ErrLabelInvalid     = errors.New(f("label invalid"))
	ErrEquateSyntax     = errors.New(f(".equ syntax"))
	ErrEquateDuplicate  = errors.New(f(".equ duplicated"))
	ErrProgramSize      = errors.New(f("program too large"))

	// Binary image errors
	ErrBinaryFormat = errors.New(f("binary format invalid"))
)

// ErrIndex is the offending memory address or register index of an access.
type ErrIndex int

func (ei ErrIndex) Error() string {
	return f("index %#x", int(ei))
}

// ErrRegisterName is an unknown symbolic register name.
type ErrRegisterName string

func (er ErrRegisterName) Error() string {
	return f("register %v unknown", string(er))
}

// ErrSymbolRegister is a label or equate named like a register.
type ErrSymbolRegister string

func (es ErrSymbolRegister) Error() string {
	return f("symbol %v is a register name", string(es))
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrFault locates an execution fault.
type ErrFault struct {
	Pc   uint16
	Word Word
}

func (ef ErrFault) Error() string {
	return f("fault at pc %#04x word %#04x", ef.Pc, uint16(ef.Word))
}

func (ef ErrFault) Is(err error) (ok bool) {
	_, ok = err.(ErrFault)
	return
}

type ErrSyntax struct {
	LineNo int
	Column int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d column %d '%v' %v", err.LineNo, err.Column, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a 16-bit number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
