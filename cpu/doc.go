// Package cpu implements the processor, assembler and disassembler for the PROCSI system.
//
// The processor consists of a program counter (PC), a stack pointer (SP), a status
// register (SR), eight 16-bit general-purpose registers (R0-R7), and a flat
// word-addressed memory shared by code, data and the stack.
//
// Instructions are one 16-bit word, optionally followed by one word for a direct
// destination address and one word for an immediate or direct source, in that order.
//
// The assembler is a two-pass assembler for the PROCSI instruction set, supporting
// labels, equates, raw data words and compile-time expression evaluation.
package cpu
