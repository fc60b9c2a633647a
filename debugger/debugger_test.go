package debugger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/procsi/cpu"
	"github.com/ezrec/procsi/emulator"
)

var testProgram = []string{
	"mov R1, #3",
	"loop:",
	"sub R1, #1",
	"jeq done",
	"jmp loop",
	"done: halt",
}

func newTestDebugger(t *testing.T, in string) (dbg *Debugger, out *bytes.Buffer) {
	t.Helper()

	emu, err := emulator.NewEmulator(cpu.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	err = emu.Assemble(strings.NewReader(strings.Join(testProgram, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	out = &bytes.Buffer{}
	dbg = NewDebugger(emu, strings.NewReader(in), out)
	return
}

func TestDebuggerBreakpoints(t *testing.T) {
	assert := assert.New(t)

	dbg, out := newTestDebugger(t, "")

	quit, err := dbg.Execute("break 3")
	assert.NoError(err)
	assert.False(quit)
	assert.Contains(out.String(), "breakpoint #1, line 3\n")

	out.Reset()
	_, err = dbg.Execute("run")
	assert.NoError(err)
	assert.Contains(out.String(), "breakpoint #1, line 3\n")
	assert.Equal(uint16(2), dbg.Cpu.Pc)
	assert.Equal(uint16(3), dbg.Cpu.Registers[1])

	_, err = dbg.Execute("run")
	assert.NoError(err)
	assert.Equal(uint16(2), dbg.Cpu.Pc)
	assert.Equal(uint16(2), dbg.Cpu.Registers[1])

	out.Reset()
	_, err = dbg.Execute("breakpoints")
	assert.NoError(err)
	assert.Equal("  #1: line 3\n", out.String())

	_, err = dbg.Execute("delete 1")
	assert.NoError(err)
	_, err = dbg.Execute("delete 1")
	assert.ErrorIs(err, ErrBreakpoint)

	out.Reset()
	_, err = dbg.Execute("breakpoints")
	assert.NoError(err)
	assert.Equal("no breakpoints\n", out.String())

	out.Reset()
	_, err = dbg.Execute("run")
	assert.NoError(err)
	assert.Contains(out.String(), "halted after")
	assert.Equal(cpu.STATE_HALTED, dbg.Cpu.State)
	assert.Equal(uint16(0), dbg.Cpu.Registers[1])

	_, err = dbg.Execute("break 2")
	assert.ErrorIs(err, ErrNoCode)
	_, err = dbg.Execute("break x")
	assert.ErrorIs(err, ErrUsage)
	_, err = dbg.Execute("break")
	assert.ErrorIs(err, ErrUsage)
}

func TestDebuggerStep(t *testing.T) {
	assert := assert.New(t)

	dbg, out := newTestDebugger(t, "")

	_, err := dbg.Execute("step 2")
	assert.NoError(err)
	assert.Equal(uint16(4), dbg.Cpu.Pc)
	assert.Equal(uint16(2), dbg.Cpu.Registers[1])
	assert.Contains(out.String(), "line 4: jeq done\n")

	out.Reset()
	_, err = dbg.Execute("disasm")
	assert.NoError(err)
	assert.Equal("0004: jeq #8\n", out.String())

	out.Reset()
	_, err = dbg.Execute("disasm all")
	assert.NoError(err)
	assert.Contains(out.String(), "; 0008: 000a\n")

	_, err = dbg.Execute("step 0")
	assert.ErrorIs(err, ErrUsage)

	_, err = dbg.Execute("restart")
	assert.NoError(err)
	assert.Equal(uint16(0), dbg.Cpu.Pc)
	assert.Equal(uint16(0), dbg.Cpu.Registers[1])
}

func TestDebuggerRegMem(t *testing.T) {
	assert := assert.New(t)

	dbg, out := newTestDebugger(t, "")

	_, err := dbg.Execute("reg r1")
	assert.NoError(err)
	assert.Equal("R1 = 0x0000\n", out.String())

	out.Reset()
	_, err = dbg.Execute("reg R2 0x10")
	assert.NoError(err)
	assert.Equal("R2 = 0x0010\n", out.String())
	assert.Equal(uint16(0x10), dbg.Cpu.Registers[2])

	_, err = dbg.Execute("reg R9")
	assert.ErrorIs(err, cpu.ErrRegisterName("R9"))

	_, err = dbg.Execute("reg R2 0x10000")
	assert.ErrorIs(err, ErrUsage)

	out.Reset()
	_, err = dbg.Execute("mem 0")
	assert.NoError(err)
	assert.Equal("[0x0000] = 0x210b\n", out.String())

	out.Reset()
	_, err = dbg.Execute("mem 0x10 5")
	assert.NoError(err)
	assert.Equal("[0x0010] = 0x0005\n", out.String())
	assert.Equal(cpu.Word(5), dbg.Cpu.Memory[0x10])

	_, err = dbg.Execute("mem")
	assert.ErrorIs(err, ErrUsage)
}

func TestDebuggerCommands(t *testing.T) {
	assert := assert.New(t)

	dbg, out := newTestDebugger(t, "")

	quit, err := dbg.Execute("")
	assert.NoError(err)
	assert.False(quit)

	_, err = dbg.Execute("bogus")
	assert.ErrorIs(err, ErrCommand)

	_, err = dbg.Execute("help")
	assert.NoError(err)
	assert.Contains(out.String(), "break <line>")
	assert.Contains(out.String(), "load store add sub jmp jeq call ret push pop halt mov and or shl shr cmp\n")

	quit, err = dbg.Execute("quit")
	assert.NoError(err)
	assert.True(quit)
}

func TestDebuggerLoop(t *testing.T) {
	assert := assert.New(t)

	dbg, out := newTestDebugger(t, "break 3\nrun\nbogus\nquit\nrun\n")

	err := dbg.Loop()
	assert.NoError(err)

	text := out.String()
	assert.Contains(text, "breakpoint #1, line 3\n")
	assert.Contains(text, "error: ")
	assert.NotContains(text, "halted after")
	assert.Equal(uint16(3), dbg.Cpu.Registers[1])
}

func TestDebuggerRunFault(t *testing.T) {
	assert := assert.New(t)

	emu, err := emulator.NewEmulator(cpu.DefaultConfig())
	assert.NoError(err)
	assert.NoError(emu.Assemble(strings.NewReader("ret")))

	dbg := NewDebugger(emu, strings.NewReader(""), &bytes.Buffer{})
	_, err = dbg.Execute("run")
	assert.ErrorIs(err, cpu.ErrStackUnderflow)

	var runtime *emulator.ErrRuntime
	assert.ErrorAs(err, &runtime)
}
