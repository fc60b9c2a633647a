package cpu

import (
	"slices"
	"strings"
)

// Opcode is the 6-bit operation field of an instruction word.
type Opcode int

const (
	OP_LOAD  = Opcode(0)  // load
	OP_STORE = Opcode(1)  // store
	OP_ADD   = Opcode(2)  // add
	OP_SUB   = Opcode(3)  // sub
	OP_JMP   = Opcode(4)  // jmp
	OP_JEQ   = Opcode(5)  // jeq
	OP_CALL  = Opcode(6)  // call
	OP_RET   = Opcode(7)  // ret
	OP_PUSH  = Opcode(8)  // push
	OP_POP   = Opcode(9)  // pop
	OP_HALT  = Opcode(10) // halt
	OP_MOV   = Opcode(11) // mov
	OP_AND   = Opcode(12) // and
	OP_OR    = Opcode(13) // or
	OP_SHL   = Opcode(14) // shl
	OP_SHR   = Opcode(15) // shr
	OP_CMP   = Opcode(16) // cmp
)

func (op Opcode) String() string {
	instr, err := Lookup(op)
	if err != nil {
		return f("op(%d)", int(op))
	}
	return instr.Name
}

// Action is the semantic action of an instruction.
//
// dst is the resolved destination (if the instruction has one), src the
// resolved source value (if the instruction has one). The result is copied
// to the status register for instructions that set it.
type Action func(cpu *Cpu, dst Ref, src uint16) (result uint16, err error)

// Instruction describes a single opcode.
type Instruction struct {
	Opcode     Opcode  // Opcode value.
	Name       string  // Assembler mnemonic.
	HasDest    bool    // Takes a destination operand.
	HasSource  bool    // Takes a source operand.
	Modes      ModeSet // Legal addressing modes.
	SetsStatus bool    // Result is copied to SR.
	Action     Action  // Semantic action.
}

// Operands returns the number of operands the instruction takes.
func (instr *Instruction) Operands() (count int) {
	if instr.HasDest {
		count++
	}
	if instr.HasSource {
		count++
	}
	return
}

var (
	modesLoad   = MakeModeSet(MODE_REG_IMM, MODE_REG_DIR, MODE_REG_IND)
	modesStore  = MakeModeSet(MODE_DIR_IMM, MODE_DIR_REG, MODE_IND_IMM, MODE_IND_REG)
	modesMov    = MakeModeSet(MODE_REG_REG, MODE_REG_IMM)
	modesAlu    = MakeModeSet(MODE_REG_REG, MODE_REG_IMM, MODE_REG_DIR, MODE_REG_IND)
	modesSource = MakeModeSet(MODE_REG_REG, MODE_REG_IMM, MODE_REG_DIR, MODE_REG_IND)
	modesDest   = MakeModeSet(MODE_REG_REG)
)

var instructionTable = [...]Instruction{
	OP_LOAD:  {OP_LOAD, "load", true, true, modesLoad, false, opMove},
	OP_STORE: {OP_STORE, "store", true, true, modesStore, false, opMove},
	OP_ADD:   {OP_ADD, "add", true, true, modesAlu, true, opAlu(func(a, b uint16) uint16 { return a + b })},
	OP_SUB:   {OP_SUB, "sub", true, true, modesAlu, true, opAlu(func(a, b uint16) uint16 { return a - b })},
	OP_JMP:   {OP_JMP, "jmp", false, true, modesSource, false, opJmp},
	OP_JEQ:   {OP_JEQ, "jeq", false, true, modesSource, false, opJeq},
	OP_CALL:  {OP_CALL, "call", false, true, modesSource, false, opCall},
	OP_RET:   {OP_RET, "ret", false, false, 0, false, opRet},
	OP_PUSH:  {OP_PUSH, "push", false, true, modesSource, false, opPush},
	OP_POP:   {OP_POP, "pop", true, false, modesDest, false, opPop},
	OP_HALT:  {OP_HALT, "halt", false, false, 0, false, opHalt},
	OP_MOV:   {OP_MOV, "mov", true, true, modesMov, true, opMove},
	OP_AND:   {OP_AND, "and", true, true, modesAlu, true, opAlu(func(a, b uint16) uint16 { return a & b })},
	OP_OR:    {OP_OR, "or", true, true, modesAlu, true, opAlu(func(a, b uint16) uint16 { return a | b })},
	OP_SHL:   {OP_SHL, "shl", true, true, modesAlu, true, opAlu(func(a, b uint16) uint16 { return a << b })},
	OP_SHR:   {OP_SHR, "shr", true, true, modesAlu, true, opAlu(func(a, b uint16) uint16 { return a >> b })},
	OP_CMP:   {OP_CMP, "cmp", true, true, modesAlu, true, opCmp},
}

var instructionNames = func() (names map[string]*Instruction) {
	names = make(map[string]*Instruction, len(instructionTable))
	for n := range instructionTable {
		instr := &instructionTable[n]
		names[instr.Name] = instr
	}
	return
}()

// Lookup returns the instruction descriptor for an opcode.
func Lookup(op Opcode) (instr *Instruction, err error) {
	if op < 0 || int(op) >= len(instructionTable) {
		err = ErrOpcodeInvalid
		return
	}

	instr = &instructionTable[op]
	return
}

// LookupName returns the instruction descriptor for a mnemonic.
func LookupName(name string) (instr *Instruction, err error) {
	instr, ok := instructionNames[strings.ToLower(name)]
	if !ok {
		err = ErrMnemonicInvalid
	}
	return
}

// Instructions returns all of the instruction descriptors, by opcode.
func Instructions() []Instruction {
	return slices.Clone(instructionTable[:])
}

// opMove implements load, store and mov: dst <- src.
func opMove(cpu *Cpu, dst Ref, src uint16) (result uint16, err error) {
	err = cpu.store(dst, src)
	result = src
	return
}

// opAlu creates a dst <- dst OP src action.
func opAlu(alu func(a, b uint16) uint16) Action {
	return func(cpu *Cpu, dst Ref, src uint16) (result uint16, err error) {
		value, err := cpu.load(dst)
		if err != nil {
			return
		}
		result = alu(value, src)
		err = cpu.store(dst, result)
		return
	}
}

// opCmp sets SR to dst - src, leaving dst unchanged.
func opCmp(cpu *Cpu, dst Ref, src uint16) (result uint16, err error) {
	value, err := cpu.load(dst)
	if err != nil {
		return
	}
	result = value - src
	return
}

func opJmp(cpu *Cpu, dst Ref, src uint16) (result uint16, err error) {
	err = cpu.jump(src)
	return
}

func opJeq(cpu *Cpu, dst Ref, src uint16) (result uint16, err error) {
	if cpu.Sr == 0 {
		err = cpu.jump(src)
	}
	return
}

func opPush(cpu *Cpu, dst Ref, src uint16) (result uint16, err error) {
	err = cpu.push(src)
	return
}

func opPop(cpu *Cpu, dst Ref, src uint16) (result uint16, err error) {
	values, err := cpu.peek(1)
	if err != nil {
		return
	}
	err = cpu.store(dst, values[0])
	if err != nil {
		return
	}
	cpu.drop(1)
	return
}

// opCall saves the return address and the non-parameter registers, then jumps.
//
// The saved return address is that of the instruction following the call,
// not of the call itself, so ret resumes there directly. Code reading the
// stack frame sees the address after the call.
func opCall(cpu *Cpu, dst Ref, src uint16) (result uint16, err error) {
	if !cpu.Memory.InRange(int(src)) {
		err = cpu.jump(src)
		return
	}

	saved := cpu.saved()
	values := make([]uint16, 0, len(saved)+1)
	values = append(values, uint16(cpu.next))
	for _, reg := range saved {
		values = append(values, cpu.Registers[reg])
	}

	err = cpu.push(values...)
	if err != nil {
		return
	}

	err = cpu.jump(src)
	return
}

// opRet restores the non-parameter registers and the return address saved by call.
func opRet(cpu *Cpu, dst Ref, src uint16) (result uint16, err error) {
	saved := cpu.saved()
	values, err := cpu.peek(len(saved) + 1)
	if err != nil {
		return
	}

	ret := values[len(saved)]
	if !cpu.Memory.InRange(int(ret)) {
		err = cpu.jump(ret)
		return
	}

	for n, reg := range saved {
		cpu.Registers[reg] = values[len(saved)-1-n]
	}
	cpu.drop(len(saved) + 1)

	err = cpu.jump(ret)
	return
}

func opHalt(cpu *Cpu, dst Ref, src uint16) (result uint16, err error) {
	err = ErrHalted
	return
}
