package cpu

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Machine constants.
const (
	NREGS            = 8       // Number of general purpose registers.
	MEMSIZE          = 0x10000 // Default memory size, in words.
	PC_START         = 0       // Default initial program counter.
	SP_START         = MEMSIZE - 1
	SP_INCR          = -1 // Stack grows down.
	SR_START         = 0
	PARAM_REGS_START = 0 // First register not saved by call.
	PARAM_REGS_END   = 2 // First register saved by call, after the parameters.
)

// Config is the memory and calling convention configuration of a Cpu.
type Config struct {
	MemSize    int // Memory size, in words. At most 0x10000.
	PcStart    int // Initial program counter.
	SpStart    int // Initial stack pointer.
	SpIncr     int // Stack pointer change on push; +1 or -1.
	ParamStart int // First parameter register.
	ParamEnd   int // One past the last parameter register.
}

// DefaultConfig returns the standard PROCSI configuration.
func DefaultConfig() Config {
	return Config{
		MemSize:    MEMSIZE,
		PcStart:    PC_START,
		SpStart:    SP_START,
		SpIncr:     SP_INCR,
		ParamStart: PARAM_REGS_START,
		ParamEnd:   PARAM_REGS_END,
	}
}

// Validate checks the configuration for consistency.
func (config Config) Validate() (err error) {
	var reason string
	switch {
	case config.MemSize <= 0 || config.MemSize > MEMSIZE:
		reason = "memory size"
	case config.PcStart < 0 || config.PcStart >= config.MemSize:
		reason = "pc start"
	case config.SpStart < 0 || config.SpStart >= config.MemSize:
		reason = "sp start"
	case config.SpIncr != 1 && config.SpIncr != -1:
		reason = "sp increment"
	case config.ParamStart < 0 || config.ParamStart > NREGS:
		reason = "parameter register start"
	case config.ParamEnd < config.ParamStart || config.ParamEnd > NREGS:
		reason = "parameter register end"
	default:
		return
	}

	err = errors.Join(ErrConfig, errors.New(f("%v out of range", reason)))
	return
}

// Defines returns the assembler symbols implied by the configuration.
func (config Config) Defines() iter.Seq2[string, string] {
	defines := map[string]string{
		"NREGS":            strconv.Itoa(NREGS),
		"MEMSIZE":          fmt.Sprintf("0x%x", config.MemSize),
		"SP_START":         fmt.Sprintf("0x%x", config.SpStart),
		"SP_INCR":          strconv.Itoa(config.SpIncr),
		"PARAM_REGS_START": strconv.Itoa(config.ParamStart),
		"PARAM_REGS_END":   strconv.Itoa(config.ParamEnd),
	}
	return maps.All(defines)
}

// State is the execution state of a Cpu.
type State int

const (
	STATE_READY   = State(iota) // Ready to step.
	STATE_HALTED                // Stopped by halt, or the PC ran off the end of memory.
	STATE_FAULTED               // Stopped by an execution fault.
)

func (state State) String() string {
	switch state {
	case STATE_READY:
		return "ready"
	case STATE_HALTED:
		return "halted"
	case STATE_FAULTED:
		return "faulted"
	}
	return "State(?)"
}

// Ref is a resolved destination operand: a register or a memory address.
type Ref struct {
	Kind  Kind // KIND_REGISTER, or KIND_DIRECT for memory.
	Index int  // Register index or memory address.
}

func (ref Ref) String() string {
	if ref.Kind == KIND_REGISTER {
		return fmt.Sprintf("R%d", ref.Index)
	}
	return fmt.Sprintf("[0x%04x]", ref.Index)
}

// Cpu is the simulation context for the PROCSI processor.
type Cpu struct {
	Verbose bool               // Set to enable verbose logging.
	Log     logrus.FieldLogger // Trace logger; nil uses the standard logrus logger.

	Pc        uint16    // Program counter.
	Sp        uint16    // Stack pointer.
	Sr        uint16    // Status register.
	Registers Registers // Register bank.
	Memory    Memory    // Flat code and data memory.
	State     State     // Execution state.

	Ticks int // Instructions executed since reset.

	config Config
	next   int // Address of the next instruction, during Step.
}

// NewCpu creates a new CPU with the given configuration.
func NewCpu(config Config) (cpu *Cpu, err error) {
	err = config.Validate()
	if err != nil {
		return
	}

	cpu = &Cpu{
		config: config,
		Memory: make(Memory, config.MemSize),
	}
	cpu.Reset()

	return
}

// Config returns the CPU configuration.
func (cpu *Cpu) Config() Config {
	return cpu.config
}

// Defines for the cpu.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return cpu.config.Defines()
}

func (cpu *Cpu) log() logrus.FieldLogger {
	if cpu.Log != nil {
		return cpu.Log
	}
	return logrus.StandardLogger()
}

// Reset the CPU state.
// - Clears the registers and memory.
// - Sets pc, sp and sr to their initial values.
// - Zeros the tick counter.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		cpu.log().Debug("cpu: reset")
	}

	clear(cpu.Registers[:])
	clear(cpu.Memory)
	cpu.Pc = uint16(cpu.config.PcStart)
	cpu.Sp = uint16(cpu.config.SpStart)
	cpu.Sr = SR_START
	cpu.State = STATE_READY
	cpu.Ticks = 0
}

// Load resets the CPU, then copies a program image to the start of memory.
func (cpu *Cpu) Load(words []Word) (err error) {
	cpu.Reset()
	err = cpu.Memory.Load(words)
	return
}

// load reads the value of a destination reference.
func (cpu *Cpu) load(ref Ref) (value uint16, err error) {
	switch ref.Kind {
	case KIND_REGISTER:
		value, err = cpu.Registers.Get(ref.Index)
	default:
		var word Word
		word, err = cpu.Memory.Read(ref.Index)
		value = uint16(word)
	}
	return
}

// store writes the value of a destination reference.
func (cpu *Cpu) store(ref Ref, value uint16) (err error) {
	switch ref.Kind {
	case KIND_REGISTER:
		err = cpu.Registers.Set(ref.Index, value)
	default:
		err = cpu.Memory.Write(ref.Index, Word(value))
	}
	return
}

// jump redirects the next instruction address.
func (cpu *Cpu) jump(target uint16) (err error) {
	if !cpu.Memory.InRange(int(target)) {
		err = errors.Join(ErrMemoryRange, ErrIndex(target))
		return
	}

	cpu.next = int(target)
	return
}

// fetch reads the word at the cursor, and advances the cursor.
func (cpu *Cpu) fetch(cursor *int) (word Word, err error) {
	word, err = cpu.Memory.Read(*cursor)
	if err != nil {
		return
	}
	*cursor++
	return
}

// resolveDest locates the destination operand.
func (cpu *Cpu) resolveDest(kind Kind, field int, cursor *int) (ref Ref, err error) {
	switch kind {
	case KIND_REGISTER:
		ref = Ref{Kind: KIND_REGISTER, Index: field}
		err = cpu.Registers.check(field)
	case KIND_DIRECT:
		var addr Word
		addr, err = cpu.fetch(cursor)
		if err != nil {
			return
		}
		ref = Ref{Kind: KIND_DIRECT, Index: int(addr)}
		err = cpu.Memory.check(ref.Index)
	case KIND_INDIRECT:
		var addr uint16
		addr, err = cpu.Registers.Get(field)
		if err != nil {
			return
		}
		ref = Ref{Kind: KIND_DIRECT, Index: int(addr)}
		err = cpu.Memory.check(ref.Index)
	default:
		err = ErrModeInvalid
	}
	return
}

// resolveSource reads the source operand value.
func (cpu *Cpu) resolveSource(kind Kind, field int, cursor *int) (value uint16, err error) {
	var word Word
	switch kind {
	case KIND_REGISTER:
		value, err = cpu.Registers.Get(field)
	case KIND_IMMEDIATE:
		word, err = cpu.fetch(cursor)
		value = uint16(word)
	case KIND_DIRECT:
		var addr Word
		addr, err = cpu.fetch(cursor)
		if err != nil {
			return
		}
		word, err = cpu.Memory.Read(int(addr))
		value = uint16(word)
	case KIND_INDIRECT:
		var addr uint16
		addr, err = cpu.Registers.Get(field)
		if err != nil {
			return
		}
		word, err = cpu.Memory.Read(int(addr))
		value = uint16(word)
	default:
		err = ErrModeInvalid
	}
	return
}

// Step executes a single instruction.
//
// Returns ErrHalted when the CPU stops normally, or a joined ErrFault
// describing the faulting instruction. Once halted or faulted, the CPU
// must be Reset before it can step again.
func (cpu *Cpu) Step() (err error) {
	switch cpu.State {
	case STATE_HALTED:
		return ErrHalted
	case STATE_FAULTED:
		return ErrFaulted
	}

	pc := int(cpu.Pc)
	var word Word

	defer func() {
		if err != nil && !errors.Is(err, ErrHalted) {
			cpu.State = STATE_FAULTED
			err = errors.Join(ErrFault{Pc: uint16(pc), Word: word}, err)
		}
	}()

	cursor := pc
	word, err = cpu.fetch(&cursor)
	if err != nil {
		return
	}

	op, mode, dest, source := word.Decode()
	if cpu.Verbose {
		cpu.log().WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("0x%04x", pc),
			"word": fmt.Sprintf("0x%04x", uint16(word)),
			"op":   op,
			"mode": mode,
		}).Debug("cpu: step")
	}

	instr, err := Lookup(op)
	if err != nil {
		return
	}

	var ref Ref
	var value uint16
	if instr.Operands() > 0 {
		var destKind, sourceKind Kind
		destKind, sourceKind, err = mode.Resolve()
		if err != nil {
			return
		}
		if !instr.Modes.Has(mode) {
			err = ErrModeIllegal
			return
		}

		if instr.HasDest {
			ref, err = cpu.resolveDest(destKind, dest, &cursor)
			if err != nil {
				return
			}
		}
		if instr.HasSource {
			value, err = cpu.resolveSource(sourceKind, source, &cursor)
			if err != nil {
				return
			}
		}
	}

	cpu.next = cursor
	result, err := instr.Action(cpu, ref, value)
	if err != nil {
		if errors.Is(err, ErrHalted) {
			cpu.State = STATE_HALTED
			cpu.Ticks++
		}
		return
	}

	if instr.SetsStatus {
		cpu.Sr = result
	}

	cpu.Ticks++

	if !cpu.Memory.InRange(cpu.next) {
		if cpu.Verbose {
			cpu.log().WithField("pc", fmt.Sprintf("0x%04x", pc)).Debug("cpu: pc exhausted")
		}
		cpu.State = STATE_HALTED
		err = ErrHalted
		return
	}

	cpu.Pc = uint16(cpu.next)

	return
}

// Run steps the CPU until it halts, faults, or the step budget is exhausted.
// A budget of 0 is unlimited.
//
// A normal halt returns a nil error.
func (cpu *Cpu) Run(budget int) (steps int, err error) {
	if cpu.State != STATE_READY {
		err = cpu.Step()
		return
	}

	for budget == 0 || steps < budget {
		err = cpu.Step()
		if err == nil {
			steps++
			continue
		}
		if errors.Is(err, ErrHalted) && cpu.State == STATE_HALTED {
			steps++
			err = nil
		}
		return
	}

	err = ErrBudget
	return
}

// Get returns the value of a register by name: PC, SP, SR, or R0..R7.
func (cpu *Cpu) Get(name string) (value uint16, err error) {
	switch strings.ToUpper(name) {
	case "PC":
		value = cpu.Pc
	case "SP":
		value = cpu.Sp
	case "SR":
		value = cpu.Sr
	default:
		var index int
		index, err = registerIndex(name)
		if err != nil {
			return
		}
		value = cpu.Registers[index]
	}
	return
}

// Set the value of a register by name: PC, SP, SR, or R0..R7.
// PC and SP must be valid memory addresses.
func (cpu *Cpu) Set(name string, value uint16) (err error) {
	switch strings.ToUpper(name) {
	case "PC":
		err = cpu.Memory.check(int(value))
		if err == nil {
			cpu.Pc = value
		}
	case "SP":
		err = cpu.Memory.check(int(value))
		if err == nil {
			cpu.Sp = value
		}
	case "SR":
		cpu.Sr = value
	default:
		var index int
		index, err = registerIndex(name)
		if err != nil {
			return
		}
		cpu.Registers[index] = value
	}
	return
}

// registerIndex parses a R0..R7 register name.
func registerIndex(name string) (index int, err error) {
	if len(name) < 2 || (name[0] != 'R' && name[0] != 'r') {
		err = ErrRegisterName(name)
		return
	}

	index, perr := strconv.Atoi(name[1:])
	if perr != nil || index < 0 || index >= NREGS {
		err = ErrRegisterName(name)
	}
	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: %04X\n", "pc", cpu.Pc)
	text += fmt.Sprintf("% 5s: %04X\n", "sp", cpu.Sp)
	text += fmt.Sprintf("% 5s: %04X\n", "sr", cpu.Sr)
	for n, val := range cpu.Registers {
		text += fmt.Sprintf("% 5s: %04X\n", fmt.Sprintf("r%d", n), val)
	}
	text += fmt.Sprintf("% 5s: %v\n", "state", cpu.State)

	return
}
