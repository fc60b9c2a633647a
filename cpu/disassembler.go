package cpu

import (
	"fmt"
	"strings"
)

// formatOperand renders an operand in assembler syntax.
func formatOperand(kind Kind, reg int, extra Word) string {
	switch kind {
	case KIND_REGISTER:
		return fmt.Sprintf("R%d", reg)
	case KIND_IMMEDIATE:
		return fmt.Sprintf("#%d", uint16(extra))
	case KIND_DIRECT:
		return fmt.Sprintf("[0x%04x]", uint16(extra))
	case KIND_INDIRECT:
		return fmt.Sprintf("[R%d]", reg)
	}
	return "?"
}

func formatData(word Word) string {
	return fmt.Sprintf(".word 0x%04x", uint16(word))
}

// canonical returns true if the operand fields of an instruction word hold
// only what the assembler would emit for it: unused register fields are zero,
// and a missing operand slot is register 0.
func canonical(instr *Instruction, destKind, sourceKind Kind, dest, source int) bool {
	for _, slot := range []struct {
		used bool
		kind Kind
		reg  int
	}{
		{instr.HasDest, destKind, dest},
		{instr.HasSource, sourceKind, source},
	} {
		if !slot.used && slot.kind != KIND_REGISTER {
			return false
		}
		hasReg := slot.used && (slot.kind == KIND_REGISTER || slot.kind == KIND_INDIRECT)
		if !hasReg && slot.reg != 0 {
			return false
		}
	}
	return true
}

// DisassembleOne renders the instruction at the start of words.
//
// Words that do not decode to a valid instruction are rendered as a .word
// directive of size 1. So are instruction words carrying bits in fields the
// instruction does not use, so that the text assembles back to the same
// words. If the instruction needs more words than are available, the text
// so far is returned with ErrTruncated.
func DisassembleOne(words []Word) (text string, size int, err error) {
	if len(words) == 0 {
		err = ErrTruncated
		return
	}

	word := words[0]
	size = 1

	op, mode, dest, source := word.Decode()
	instr, err := Lookup(op)
	if err != nil {
		err = nil
		text = formatData(word)
		return
	}

	text = instr.Name
	if instr.Operands() == 0 {
		if mode != 0 || dest != 0 || source != 0 {
			text = formatData(word)
		}
		return
	}

	if !mode.Valid() || !instr.Modes.Has(mode) {
		text = formatData(word)
		return
	}

	destKind, sourceKind, _ := mode.Resolve()
	if !canonical(instr, destKind, sourceKind, dest, source) {
		text = formatData(word)
		return
	}

	var operands []string
	type slot struct {
		kind Kind
		reg  int
	}
	var slots []slot
	if instr.HasDest {
		slots = append(slots, slot{destKind, dest})
	}
	if instr.HasSource {
		slots = append(slots, slot{sourceKind, source})
	}

	for _, s := range slots {
		var extra Word
		if s.kind.Extra() {
			if size >= len(words) {
				err = ErrTruncated
				break
			}
			extra = words[size]
			size++
		}
		operands = append(operands, formatOperand(s.kind, s.reg, extra))
	}

	if len(operands) > 0 {
		text += " " + strings.Join(operands, ", ")
	}

	return
}

// Disassemble renders words as assembler text, one instruction per line.
func Disassemble(words []Word) (text string, err error) {
	var lines []string
	for len(words) > 0 {
		var line string
		var size int
		line, size, err = DisassembleOne(words)
		lines = append(lines, line)
		if err != nil {
			break
		}
		words = words[size:]
	}

	if len(lines) > 0 {
		text = strings.Join(lines, "\n") + "\n"
	}
	return
}

// Listing renders words as assembler text, with the address and raw words
// of each instruction in a trailing comment.
func Listing(words []Word, base int) (text string, err error) {
	var builder strings.Builder
	ip := base
	for len(words) > 0 {
		var line string
		var size int
		line, size, err = DisassembleOne(words)
		raw := make([]string, 0, size)
		for _, word := range words[:min(size, len(words))] {
			raw = append(raw, fmt.Sprintf("%04x", uint16(word)))
		}
		fmt.Fprintf(&builder, "%-24s ; %04x: %s\n", line, ip, strings.Join(raw, " "))
		if err != nil {
			break
		}
		words = words[size:]
		ip += size
	}

	text = builder.String()
	return
}
