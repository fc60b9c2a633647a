// Package debugger is an interactive, line oriented shell over the emulator.
package debugger

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/ezrec/procsi/cpu"
	"github.com/ezrec/procsi/emulator"
	"github.com/ezrec/procsi/translate"
)

const prompt = "(procsi) "

var helpText = `Commands:
  run               Run until halt, fault, or breakpoint
  step [n]          Execute n instructions (default 1)
  break <line>      Set a breakpoint on a source line
  delete <num>      Delete a breakpoint by number
  breakpoints       List breakpoints
  display           Show the registers and current instruction
  disasm [all]      Disassemble the current instruction, or the program
  reg <name> [val]  Show or set a register (PC, SP, SR, R0-R7)
  mem <addr> [val]  Show or set a memory word
  restart           Reload the program
  quit              Leave the debugger
  help              Show this text
`

// Debugger drives an emulator from text commands.
type Debugger struct {
	*emulator.Emulator
	Breakpoints Breakpoints
	Budget      int // Step budget for run; 0 is unlimited.

	In  io.Reader
	Out io.Writer
}

// NewDebugger creates a debugger on an emulator.
func NewDebugger(emu *emulator.Emulator, in io.Reader, out io.Writer) (dbg *Debugger) {
	dbg = &Debugger{
		Emulator: emu,
		Budget:   emulator.DEFAULT_BUDGET,
		In:       in,
		Out:      out,
	}
	return
}

func (dbg *Debugger) printf(format string, args ...any) {
	translate.Fprintf(dbg.Out, format, args...)
}

// parseValue parses a 16-bit value in any Go integer syntax.
func parseValue(text string) (value uint16, err error) {
	v64, err := strconv.ParseInt(text, 0, 32)
	if err != nil || v64 < -0x8000 || v64 > 0xffff {
		err = errors.Join(ErrUsage, cpu.ErrParseNumber(text))
		return
	}
	value = uint16(v64)
	return
}

// Loop reads and executes commands until quit or end of input.
func (dbg *Debugger) Loop() (err error) {
	scanner := bufio.NewScanner(dbg.In)

	dbg.display()
	for {
		dbg.printf(prompt)
		if !scanner.Scan() {
			break
		}

		quit, cerr := dbg.Execute(scanner.Text())
		if cerr != nil {
			dbg.printf("error: %v\n", cerr)
		}
		if quit {
			break
		}
	}

	err = scanner.Err()
	return
}

// Execute a single command line.
func (dbg *Debugger) Execute(cmdline string) (quit bool, err error) {
	words := strings.Fields(cmdline)
	if len(words) == 0 {
		return
	}

	cmd, args := strings.ToLower(words[0]), words[1:]
	switch cmd {
	case "run", "r":
		err = dbg.run()
	case "step", "s":
		count := 1
		if len(args) > 0 {
			count, err = strconv.Atoi(args[0])
			if err != nil || count < 1 {
				err = errors.Join(ErrUsage, errors.New("step [n]"))
				return
			}
		}
		err = dbg.step(count)
	case "break", "b":
		err = dbg.setBreak(args)
	case "delete", "d":
		err = dbg.deleteBreak(args)
	case "breakpoints":
		if dbg.Breakpoints.Len() == 0 {
			dbg.printf("no breakpoints\n")
		}
		for bp := range dbg.Breakpoints.All() {
			dbg.printf("  #%d: line %d\n", bp.Num, bp.LineNo)
		}
	case "display":
		dbg.display()
	case "disasm":
		if len(args) > 0 && args[0] == "all" {
			var text string
			text, err = dbg.DisassembleProgram()
			dbg.printf("%s", text)
		} else {
			dbg.printf("%04x: %s\n", dbg.Cpu.Pc, dbg.Disassemble())
		}
	case "reg":
		err = dbg.reg(args)
	case "mem":
		err = dbg.mem(args)
	case "restart":
		err = dbg.Reset()
		if err == nil {
			dbg.display()
		}
	case "quit", "q", "exit":
		quit = true
	case "help", "h", "?":
		dbg.printf("%s", helpText)
		var names []string
		for _, instr := range cpu.Instructions() {
			names = append(names, instr.Name)
		}
		dbg.printf("Instructions:\n  %s\n", strings.Join(names, " "))
	default:
		err = errors.Join(ErrCommand, errors.New(cmd))
	}

	return
}

// breakpoint returns the breakpoint at the program counter, if any.
func (dbg *Debugger) breakpoint() (bp Breakpoint, ok bool) {
	where := dbg.Program.Debug(dbg.Cpu.Pc)
	if where.Line == nil || where.Index != 0 {
		return
	}

	return dbg.Breakpoints.Get(where.LineNo)
}

// tick steps once, reporting a halt.
func (dbg *Debugger) tick() (done bool, err error) {
	done, err = dbg.Tick()
	if done {
		dbg.printf("halted after %d ticks\n", dbg.Ticks())
	}
	return
}

func (dbg *Debugger) run() (err error) {
	for steps := 0; dbg.Budget == 0 || steps < dbg.Budget; steps++ {
		var done bool
		done, err = dbg.tick()
		if err != nil || done {
			return
		}

		if bp, ok := dbg.breakpoint(); ok {
			dbg.printf("breakpoint #%d, line %d\n", bp.Num, bp.LineNo)
			dbg.display()
			return
		}
	}

	err = cpu.ErrBudget
	return
}

func (dbg *Debugger) step(count int) (err error) {
	for range count {
		var done bool
		done, err = dbg.tick()
		if err != nil || done {
			return
		}
	}

	dbg.display()
	return
}

func (dbg *Debugger) setBreak(args []string) (err error) {
	if len(args) != 1 {
		err = errors.Join(ErrUsage, errors.New("break <line>"))
		return
	}

	lineno, err := strconv.Atoi(args[0])
	if err != nil {
		err = errors.Join(ErrUsage, errors.New("break <line>"))
		return
	}

	if _, ok := dbg.Program.LineAddress(lineno); !ok {
		err = errors.Join(ErrNoCode, errors.New(args[0]))
		return
	}

	num, ok := dbg.Breakpoints.Add(lineno)
	if !ok {
		bp, _ := dbg.Breakpoints.Get(lineno)
		num = bp.Num
	}
	dbg.printf("breakpoint #%d, line %d\n", num, lineno)
	return
}

func (dbg *Debugger) deleteBreak(args []string) (err error) {
	if len(args) != 1 {
		err = errors.Join(ErrUsage, errors.New("delete <num>"))
		return
	}

	num, err := strconv.Atoi(args[0])
	if err != nil {
		err = errors.Join(ErrUsage, errors.New("delete <num>"))
		return
	}

	if !dbg.Breakpoints.Remove(num) {
		err = errors.Join(ErrBreakpoint, errors.New(args[0]))
	}
	return
}

func (dbg *Debugger) reg(args []string) (err error) {
	if len(args) == 0 || len(args) > 2 {
		err = errors.Join(ErrUsage, errors.New("reg <name> [value]"))
		return
	}

	name := args[0]
	if len(args) == 2 {
		var value uint16
		value, err = parseValue(args[1])
		if err != nil {
			return
		}
		err = dbg.Cpu.Set(name, value)
		if err != nil {
			return
		}
	}

	value, err := dbg.Cpu.Get(name)
	if err != nil {
		return
	}
	dbg.printf("%s = 0x%04x\n", strings.ToUpper(name), value)
	return
}

func (dbg *Debugger) mem(args []string) (err error) {
	if len(args) == 0 || len(args) > 2 {
		err = errors.Join(ErrUsage, errors.New("mem <addr> [value]"))
		return
	}

	addr, err := parseValue(args[0])
	if err != nil {
		return
	}

	if len(args) == 2 {
		var value uint16
		value, err = parseValue(args[1])
		if err != nil {
			return
		}
		err = dbg.Cpu.Memory.Write(int(addr), cpu.Word(value))
		if err != nil {
			return
		}
	}

	word, err := dbg.Cpu.Memory.Read(int(addr))
	if err != nil {
		return
	}
	dbg.printf("[0x%04x] = 0x%04x\n", addr, uint16(word))
	return
}

// display shows the registers and the current instruction.
func (dbg *Debugger) display() {
	dbg.printf("%s", dbg.Cpu.String())
	where := dbg.Program.Debug(dbg.Cpu.Pc)
	if where.Line != nil {
		dbg.printf("line %d: %s\n", where.LineNo, where.Text)
	}
	dbg.printf("%04x: %s\n", dbg.Cpu.Pc, dbg.Disassemble())
}
