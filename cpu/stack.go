package cpu

import (
	"errors"
)

// The stack lives in main memory. sp addresses the next free slot; a push
// writes at sp and then moves sp by SpIncr, a pop moves sp back and then reads.

// stackMove returns the stack pointer after moving by count slots.
func (cpu *Cpu) stackMove(count int) int {
	return int(cpu.Sp) + count*cpu.config.SpIncr
}

// push writes values to the stack, in order.
// The whole excursion is checked before anything is written.
func (cpu *Cpu) push(values ...uint16) (err error) {
	sp := cpu.stackMove(len(values))
	if !cpu.Memory.InRange(sp) {
		err = errors.Join(ErrStackOverflow, ErrIndex(sp))
		return
	}

	for _, value := range values {
		cpu.Memory[cpu.Sp] = Word(value)
		cpu.Sp = uint16(int(cpu.Sp) + cpu.config.SpIncr)
	}

	return
}

// peek returns the top count values of the stack, most recently pushed first,
// without moving sp.
func (cpu *Cpu) peek(count int) (values []uint16, err error) {
	sp := cpu.stackMove(-count)
	if count > cpu.Depth() || !cpu.Memory.InRange(sp) {
		err = errors.Join(ErrStackUnderflow, ErrIndex(sp))
		return
	}

	values = make([]uint16, count)
	for n := range count {
		values[n] = uint16(cpu.Memory[cpu.stackMove(-(n + 1))])
	}

	return
}

// drop removes the top count values of the stack.
// The caller must have checked the excursion with peek.
func (cpu *Cpu) drop(count int) {
	cpu.Sp = uint16(cpu.stackMove(-count))
}

// Depth returns the number of values on the stack.
func (cpu *Cpu) Depth() int {
	return (int(cpu.Sp) - cpu.config.SpStart) * cpu.config.SpIncr
}

// saved returns the registers preserved across call, in ascending order.
func (cpu *Cpu) saved() (regs []int) {
	for reg := range NREGS {
		if reg >= cpu.config.ParamStart && reg < cpu.config.ParamEnd {
			continue
		}
		regs = append(regs, reg)
	}
	return
}
