// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = func() (equ map[string]string) {
	equ = maps.Collect(DefaultConfig().Defines())
	equ["LINENO"] = "0"
	return
}()

// Assembler is a two pass assembler for the PROCSI system.
type Assembler struct {
	Verbose bool               // If set, verbosely logs the assembler actions.
	Log     logrus.FieldLogger // Trace logger; nil uses the standard logrus logger.
	MemSize int                // Maximum program size, in words. Zero is MEMSIZE.
	Lines   []Line             // List of generated lines.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

func (asm *Assembler) log() logrus.FieldLogger {
	if asm.Log != nil {
		return asm.Log
	}
	return logrus.StandardLogger()
}

var (
	labelRegexp    = regexp.MustCompile(`^\s*([A-Za-z_.][A-Za-z0-9_.]*)\s*:`)
	registerRegexp = regexp.MustCompile(`^[rR]([0-9]+)$`)
	binaryRegexp   = regexp.MustCompile(`^([-+]?)[bB]([01_]+)$`)
)

// parseInteger parses an integer in Go syntax, or the b101 binary form.
func parseInteger(text string) (value int64, err error) {
	word := text
	if match := binaryRegexp.FindStringSubmatch(word); match != nil {
		word = match[1] + "0b" + match[2]
	}

	value, err = strconv.ParseInt(word, 0, 64)
	return
}

// parseNumber parses a 16-bit number, signed or unsigned.
// Accepts decimal, 0x hex, 0o octal, and 0b or b binary.
func parseNumber(text string) (value int64, err error) {
	value, err = parseInteger(text)
	if err != nil || value < -0x8000 || value > 0xffff {
		value = 0
		err = ErrParseNumber(text)
	}
	return
}

// parseRegister returns the register index of a symbol, if it names one.
func parseRegister(val *value) (reg int, ok bool, err error) {
	if val == nil || val.Symbol == nil {
		return
	}

	match := registerRegexp.FindStringSubmatch(*val.Symbol)
	if match == nil {
		return
	}

	ok = true
	reg, _ = strconv.Atoi(match[1])
	if reg >= NREGS {
		err = ErrRegisterInvalid
	}
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, perr := parseInteger(str)
		if perr != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for key, ip := range asm.Label {
		pred[key] = starlark.MakeInt(ip)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
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

// resolve evaluates a value to a signed integer, without a range check
// beyond that of the value's own syntax.
func (asm *Assembler) resolve(val *value) (v64 int64, err error) {
	switch {
	case val.Expr != nil:
		expr := *val.Expr
		v64, err = asm.parenEval(expr[2 : len(expr)-1])
	case val.Number != nil:
		v64, err = parseNumber(*val.Number)
	case val.Symbol != nil:
		name := *val.Symbol
		if ip, ok := asm.Label[name]; ok {
			v64 = int64(ip)
			break
		}
		if equ, ok := asm.Equate[name]; ok {
			var perr error
			v64, perr = parseInteger(equ)
			if perr != nil {
				err = ErrParseNumber(equ)
			}
			break
		}
		if binaryRegexp.MatchString(name) {
			v64, err = parseNumber(name)
			break
		}
		err = ErrLabelMissing(name)
	default:
		err = ErrOperandInvalid
	}

	return
}

// evaluate resolves a value to a 16-bit word.
func (asm *Assembler) evaluate(val *value) (word Word, err error) {
	v64, err := asm.resolve(val)
	if err != nil {
		return
	}

	if v64 < -0x8000 || v64 > 0xffff {
		switch {
		case val.Expr != nil:
			expr := *val.Expr
			err = ErrParseExpression(expr[2 : len(expr)-1])
		case val.Symbol != nil:
			err = ErrParseNumber(*val.Symbol)
		default:
			err = ErrOperandInvalid
		}
		return
	}

	word = Word(v64)
	return
}

// field is a single assembled operand: its kind, register, and value.
type field struct {
	kind  Kind
	reg   int
	value *value
}

// classify determines the kind of an operand from its syntax alone.
func classify(op *operand) (fld field, err error) {
	val, memory := op.operandValue()
	reg, isReg, err := parseRegister(val)
	if err != nil {
		return
	}

	fld.value = val
	switch {
	case op.Immediate != nil:
		if isReg {
			err = ErrOperandInvalid
			return
		}
		fld.kind = KIND_IMMEDIATE
	case memory && isReg:
		fld.kind = KIND_INDIRECT
		fld.reg = reg
	case memory:
		fld.kind = KIND_DIRECT
	case isReg:
		fld.kind = KIND_REGISTER
		fld.reg = reg
	default:
		fld.kind = KIND_IMMEDIATE
	}

	return
}

// pending is a statement waiting for pass 2.
type pending struct {
	lineno int
	column int // Column of the statement in the line, zero based.
	line   string
	text   string
	ip     int
	size   int
	stmt   *statement

	instr  *Instruction // nil for .word and .equ
	mode   Mode
	dest   field
	source field
}

// errAt wraps an error with a source location.
func errAt(lineno int, column int, line string, err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		column += perr.Position().Column
	} else {
		column++
	}

	return &ErrSyntax{LineNo: lineno, Column: column, Line: line, Err: err}
}

// shape validates the operands of an instruction, and computes its size and mode.
func (pend *pending) shape() (err error) {
	inst := pend.stmt.Instruction
	name := strings.ToLower(inst.Mnemonic)

	switch name {
	case ".equ":
		err = ErrEquateSyntax
		return
	case ".word":
		if len(inst.Operands) == 0 {
			err = ErrOperandCount
			return
		}
		for _, op := range inst.Operands {
			var fld field
			fld, err = classify(op)
			if err != nil {
				return
			}
			if fld.kind != KIND_IMMEDIATE {
				err = ErrOperandInvalid
				return
			}
		}
		pend.size = len(inst.Operands)
		return
	}

	instr, err := LookupName(name)
	if err != nil {
		return
	}

	if len(inst.Operands) != instr.Operands() {
		err = ErrOperandCount
		return
	}

	pend.instr = instr
	pend.size = 1
	if instr.Operands() == 0 {
		return
	}

	fields := make([]field, len(inst.Operands))
	for n, op := range inst.Operands {
		fields[n], err = classify(op)
		if err != nil {
			return
		}
		if fields[n].kind.Extra() {
			pend.size++
		}
	}

	// A missing operand slot is encoded as register 0.
	switch {
	case instr.HasDest && instr.HasSource:
		pend.dest, pend.source = fields[0], fields[1]
	case instr.HasDest:
		pend.dest = fields[0]
	default:
		pend.source = fields[0]
	}

	pend.mode, err = MakeMode(pend.dest.kind, pend.source.kind)
	if err != nil {
		return
	}

	if !instr.Modes.Has(pend.mode) {
		err = ErrModeIllegal
		return
	}

	return
}

// Parse parses an input stream into a Program.
//
// Pass 1 assigns addresses to labels and sizes every statement; pass 2
// evaluates operand values and emits the words. On error no program is
// returned.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	asm.Label = make(map[string]int, 16)
	asm.Lines = asm.Lines[:0]
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	memsize := asm.MemSize
	if memsize == 0 {
		memsize = MEMSIZE
	}

	// Pass 1
	var pass []*pending
	var equates []*pending
	equNames := map[string]bool{}
	var ip int
	var lineno int
	for scanner.Scan() {
		line := scanner.Text()
		lineno++

		if asm.Verbose {
			asm.log().WithFields(logrus.Fields{"line": lineno, "ip": ip}).Debug(line)
		}

		text, _, _ := strings.Cut(line, ";")
		column := 0
		for {
			match := labelRegexp.FindStringSubmatchIndex(text[column:])
			if match == nil {
				break
			}
			label := text[column+match[2] : column+match[3]]
			if registerRegexp.MatchString(label) {
				err = errAt(lineno, column+match[2], line, errors.Join(ErrLabelInvalid, ErrSymbolRegister(label)))
				return
			}
			if _, ok := asm.Label[label]; ok {
				err = errAt(lineno, column+match[2], line, ErrLabelDuplicate)
				return
			}
			asm.Label[label] = ip
			column += match[1]
		}

		rest := text[column:]
		trimmed := strings.TrimLeft(rest, " \t")
		column += len(rest) - len(trimmed)
		trimmed = strings.TrimRight(trimmed, " \t\r")
		if len(trimmed) == 0 || trimmed[0] == '#' {
			continue
		}

		var stmt *statement
		stmt, err = parseStatement(trimmed)
		if err != nil {
			err = errAt(lineno, column, line, errors.Join(ErrStatementInvalid, err))
			return
		}

		pend := &pending{
			lineno: lineno,
			column: column,
			line:   line,
			text:   trimmed,
			ip:     ip,
			stmt:   stmt,
		}

		if stmt.Instruction != nil {
			err = pend.shape()
			if err != nil {
				err = errAt(lineno, column, line, err)
				return
			}
		}

		if equ := stmt.Equate; equ != nil {
			_, predefined := asm.Equate[equ.Name]
			switch {
			case registerRegexp.MatchString(equ.Name):
				err = errors.Join(ErrEquateSyntax, ErrSymbolRegister(equ.Name))
			case predefined || equNames[equ.Name]:
				err = ErrEquateDuplicate
			}
			if err != nil {
				err = errAt(lineno, column, line, err)
				return
			}
			equNames[equ.Name] = true
			equates = append(equates, pend)
		}

		ip += pend.size
		pass = append(pass, pend)
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if ip > memsize {
		err = &ErrSyntax{LineNo: lineno, Column: 1, Err: errors.Join(ErrProgramSize, ErrIndex(ip))}
		return
	}

	// Pass 2
	err = asm.resolveEquates(equates)
	if err != nil {
		return
	}

	lines := make([]Line, 0, len(pass))
	for _, pend := range pass {
		asm.Equate["LINENO"] = strconv.Itoa(pend.lineno)

		var words []Word
		var col int
		words, col, err = asm.emit(pend)
		if err != nil {
			err = errAt(pend.lineno, pend.column+col, pend.line, err)
			return
		}

		if len(words) == 0 {
			continue
		}

		if asm.Verbose {
			asm.log().WithFields(logrus.Fields{
				"line": pend.lineno,
				"ip":   fmt.Sprintf("0x%04x", pend.ip),
			}).Debugf("%v => %04x", pend.text, words)
		}

		lines = append(lines, Line{
			LineNo: pend.lineno,
			Ip:     pend.ip,
			Text:   pend.text,
			Words:  words,
		})
	}

	asm.Lines = lines
	prog = &Program{
		Lines: lines,
	}

	return
}

// resolveEquates defines the .equ statements before any code is emitted.
// Equates are evaluated in source order, repeating until no more can be
// resolved, so an equate may refer to labels and to later equates.
func (asm *Assembler) resolveEquates(equates []*pending) (err error) {
	for len(equates) > 0 {
		var unresolved []*pending
		var first error
		for _, pend := range equates {
			equ := pend.stmt.Equate
			asm.Equate["LINENO"] = strconv.Itoa(pend.lineno)
			v64, verr := asm.resolve(equ.Value)
			if verr != nil {
				if first == nil {
					first = errAt(pend.lineno, pend.column+equ.Value.Pos.Column-1, pend.line, verr)
				}
				unresolved = append(unresolved, pend)
				continue
			}
			asm.Equate[equ.Name] = strconv.FormatInt(v64, 10)
		}

		if len(unresolved) == len(equates) {
			return first
		}
		equates = unresolved
	}

	return
}

// emit evaluates a pending statement, returning its words.
// On error, col is the zero based column of the offending value in the statement.
func (asm *Assembler) emit(pend *pending) (words []Word, col int, err error) {
	stmt := pend.stmt

	if stmt.Equate != nil {
		// Already defined by resolveEquates.
		return
	}

	if pend.instr == nil {
		// .word
		for _, op := range stmt.Instruction.Operands {
			val, _ := op.operandValue()
			var word Word
			word, err = asm.evaluate(val)
			if err != nil {
				col = val.Pos.Column - 1
				return
			}
			words = append(words, word)
		}
		return
	}

	instr := pend.instr
	words = append(words, MakeWord(instr.Opcode, pend.mode, pend.dest.reg, pend.source.reg))
	for _, fld := range []field{pend.dest, pend.source} {
		if !fld.kind.Extra() || fld.value == nil {
			continue
		}
		var word Word
		word, err = asm.evaluate(fld.value)
		if err != nil {
			col = fld.value.Pos.Column - 1
			words = nil
			return
		}
		words = append(words, word)
	}

	return
}
