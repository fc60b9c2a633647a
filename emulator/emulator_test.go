package emulator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/procsi/cpu"
)

func newTestEmulator(t *testing.T, program ...string) (emu *Emulator) {
	t.Helper()

	emu, err := NewEmulator(cpu.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	err = emu.Assemble(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	return
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu, err := NewEmulator(cpu.DefaultConfig())
	assert.NoError(err)
	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.NotNil(emu.Program)

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}
	assert.Equal("1000000", defines["DEFAULT_BUDGET"])
	assert.Equal("0x10000", defines["MEMSIZE"])

	config := cpu.DefaultConfig()
	config.SpIncr = 0
	_, err = NewEmulator(config)
	assert.ErrorIs(err, cpu.ErrConfig)
}

func TestEmulatorTick(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"; count down",
		"mov R1, #3",
		"loop:",
		"sub R1, #1",
		"jeq done",
		"jmp loop",
		"done: halt",
	}

	emu := newTestEmulator(t, program...)

	lines := []int{2, 4, 5, 6, 4, 5, 6, 4, 5, 7}
	for n, lineno := range lines {
		assert.Equal(lineno, emu.LineNo(), n)
		done, err := emu.Tick()
		assert.NoError(err, n)
		assert.Equal(n == len(lines)-1, done, n)
	}

	assert.Equal(uint16(0), emu.Cpu.Registers[1])
	assert.Equal(len(lines), emu.Ticks())

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
}

func TestEmulatorRun(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t,
		".equ N 10",
		"mov R0, #0",
		"mov R1, #N",
		"loop: add R0, R1",
		"sub R1, #1",
		"jeq done",
		"jmp loop",
		"done: halt",
	)

	steps, err := emu.Run(0)
	assert.NoError(err)
	assert.Equal(2+10*4-1+1, steps)
	assert.Equal(uint16(55), emu.Cpu.Registers[0])
	assert.Equal(cpu.STATE_HALTED, emu.Cpu.State)

	// Reset reloads the program.
	assert.NoError(emu.Reset())
	assert.Equal(cpu.STATE_READY, emu.Cpu.State)
	assert.Equal(uint16(0), emu.Cpu.Registers[0])
	assert.Equal(uint16(0), emu.Cpu.Pc)

	steps, err = emu.Run(5)
	assert.ErrorIs(err, cpu.ErrBudget)
	assert.Equal(5, steps)
}

func TestEmulatorRuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t,
		"mov R1, #1",
		"",
		"pop R2",
	)

	_, err := emu.Run(0)
	assert.ErrorIs(err, cpu.ErrStackUnderflow)
	assert.ErrorIs(err, cpu.ErrFault{})

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(3, runtime.LineNo)
	}
	assert.Equal(cpu.STATE_FAULTED, emu.Cpu.State)

	_, err = emu.Tick()
	assert.ErrorIs(err, cpu.ErrFaulted)
}

func TestEmulatorAssembleError(t *testing.T) {
	assert := assert.New(t)

	emu, err := NewEmulator(cpu.DefaultConfig())
	assert.NoError(err)

	err = emu.Assemble(strings.NewReader("store R1, R2"))
	assert.ErrorIs(err, cpu.ErrModeIllegal)
	assert.Equal(0, len(emu.Program.Lines))
}

func TestEmulatorPredefines(t *testing.T) {
	assert := assert.New(t)

	config := cpu.DefaultConfig()
	config.MemSize = 0x1000
	config.SpStart = 0x0fff

	emu, err := NewEmulator(config)
	assert.NoError(err)

	err = emu.Assemble(strings.NewReader("mov R1, #SP_START\nmov R2, #PARAM_REGS_END\nhalt"))
	assert.NoError(err)

	_, err = emu.Run(0)
	assert.NoError(err)
	assert.Equal(uint16(0x0fff), emu.Cpu.Registers[1])
	assert.Equal(uint16(2), emu.Cpu.Registers[2])

	// Programs larger than memory are rejected.
	err = emu.Assemble(strings.NewReader(strings.Repeat("halt\n", 0x1001)))
	assert.ErrorIs(err, cpu.ErrProgramSize)
}

func TestEmulatorLoadBinary(t *testing.T) {
	assert := assert.New(t)

	emu, err := NewEmulator(cpu.DefaultConfig())
	assert.NoError(err)

	words := []cpu.Word{
		cpu.MakeWord(cpu.OP_MOV, cpu.MODE_REG_IMM, 1, 0), 0x2a,
		cpu.MakeWord(cpu.OP_HALT, 0, 0, 0),
	}
	assert.NoError(emu.LoadBinary(words))
	assert.Equal("mov R1, #42", emu.Disassemble())
	assert.Equal(1, emu.LineNo())

	listing, err := emu.DisassembleProgram()
	assert.NoError(err)
	assert.Contains(listing, "; 0000: 210b 002a\n")
	assert.Contains(listing, "; 0002: 000a\n")

	_, err = emu.Run(0)
	assert.NoError(err)
	assert.Equal(uint16(0x2a), emu.Cpu.Registers[1])
	assert.Equal(2, emu.LineNo())
	assert.Equal("halt", emu.Disassemble())
}
