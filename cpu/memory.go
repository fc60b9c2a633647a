package cpu

import (
	"errors"
)

// Memory is the flat, word-addressed memory of the machine.
type Memory []Word

// InRange returns true if addr is a valid memory index.
func (mem Memory) InRange(addr int) bool {
	return addr >= 0 && addr < len(mem)
}

func (mem Memory) check(addr int) (err error) {
	if !mem.InRange(addr) {
		err = errors.Join(ErrMemoryRange, ErrIndex(addr))
	}
	return
}

// Read a word from memory.
func (mem Memory) Read(addr int) (value Word, err error) {
	err = mem.check(addr)
	if err != nil {
		return
	}

	value = mem[addr]
	return
}

// Write a word to memory.
func (mem Memory) Write(addr int, value Word) (err error) {
	err = mem.check(addr)
	if err != nil {
		return
	}

	mem[addr] = value
	return
}

// Load copies a program image to the start of memory.
func (mem Memory) Load(words []Word) (err error) {
	if len(words) > len(mem) {
		err = errors.Join(ErrProgramSize, ErrMemoryRange, ErrIndex(len(words)))
		return
	}

	copy(mem, words)
	return
}

// Registers is the general purpose register bank.
type Registers [NREGS]uint16

func (regs *Registers) check(index int) (err error) {
	if index < 0 || index >= len(regs) {
		err = errors.Join(ErrRegisterRange, ErrIndex(index))
	}
	return
}

// Get the value of a register.
func (regs *Registers) Get(index int) (value uint16, err error) {
	err = regs.check(index)
	if err != nil {
		return
	}

	value = regs[index]
	return
}

// Set the value of a register.
func (regs *Registers) Set(index int, value uint16) (err error) {
	err = regs.check(index)
	if err != nil {
		return
	}

	regs[index] = value
	return
}
