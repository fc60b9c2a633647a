// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"

	"github.com/ezrec/procsi/cpu"
	"github.com/ezrec/procsi/internal"
)

const (
	DEFAULT_BUDGET = 1_000_000 // Default step budget for a run.
)

var _emulator_defines = map[string]string{
	"DEFAULT_BUDGET": fmt.Sprintf("%v", DEFAULT_BUDGET),
}

// Emulator state. CPU + the program loaded into it.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently loaded program listing.
}

// NewEmulator creates a new emulator.
func NewEmulator(config cpu.Config) (emu *Emulator, err error) {
	cp, err := cpu.NewCpu(config)
	if err != nil {
		return
	}

	emu = &Emulator{
		Cpu:     cp,
		Program: &cpu.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Assemble a source program, and load it.
func (emu *Emulator) Assemble(input io.Reader) (err error) {
	asm := &cpu.Assembler{
		Verbose: emu.Verbose,
		MemSize: emu.Cpu.Config().MemSize,
	}
	for name, value := range emu.Defines() {
		asm.Predefine(name, value)
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.Program = prog
	err = emu.Reset()
	return
}

// LoadBinary loads a binary program image, disassembling it for the listing.
func (emu *Emulator) LoadBinary(words []cpu.Word) (err error) {
	emu.Program = cpu.NewProgram(words)
	err = emu.Reset()
	return
}

// Reset the CPU, and reload the program.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	err = emu.Cpu.Load(emu.Program.Binary())
	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// LineNo returns the current line number for the executing instruction.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Line == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single instruction of the emulator.
// done is set once the program halts.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Step()
	if errors.Is(err, cpu.ErrHalted) && emu.Cpu.State == cpu.STATE_HALTED {
		err = nil
		done = true
	}

	return
}

// Run the emulator until the program halts, faults, or the step budget is
// exhausted. A budget of 0 is unlimited.
func (emu *Emulator) Run(budget int) (steps int, err error) {
	for budget == 0 || steps < budget {
		var done bool
		done, err = emu.Tick()
		if err != nil {
			return
		}
		steps++
		if done {
			return
		}
	}

	err = cpu.ErrBudget
	return
}

// Disassemble the instruction at the program counter.
func (emu *Emulator) Disassemble() (text string) {
	pc := int(emu.Cpu.Pc)
	if !emu.Cpu.Memory.InRange(pc) {
		return
	}

	text, _, err := cpu.DisassembleOne(emu.Cpu.Memory[pc:])
	if err != nil {
		text = fmt.Sprintf("%v (%v)", text, err)
	}
	return
}

// DisassembleProgram returns a listing of the loaded program image.
func (emu *Emulator) DisassembleProgram() (text string, err error) {
	text, err = cpu.Listing(emu.Program.Binary(), 0)
	return
}
