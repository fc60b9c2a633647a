package cpu

// Word is the 16-bit storage and addressing unit.
//
// A word in memory is either raw data (immediates, addresses, saved registers),
// or an instruction, which is decoded on read at the program counter.
type Word uint16

// Instruction word bit layout.
const (
	WORD_OPCODE_SHIFT = 0
	WORD_OPCODE_MASK  = 0x3f
	WORD_MODE_SHIFT   = 6
	WORD_MODE_MASK    = 0xf
	WORD_SOURCE_SHIFT = 10
	WORD_SOURCE_MASK  = 0x7
	WORD_DEST_SHIFT   = 13
	WORD_DEST_MASK    = 0x7
)

// MakeWord encodes an instruction word.
// Field values are truncated to their bit widths.
func MakeWord(op Opcode, mode Mode, dest, source int) Word {
	return Word(((uint16(op) & WORD_OPCODE_MASK) << WORD_OPCODE_SHIFT) |
		((uint16(mode) & WORD_MODE_MASK) << WORD_MODE_SHIFT) |
		((uint16(source) & WORD_SOURCE_MASK) << WORD_SOURCE_SHIFT) |
		((uint16(dest) & WORD_DEST_MASK) << WORD_DEST_SHIFT))
}

// Opcode returns the opcode field.
func (w Word) Opcode() Opcode {
	return Opcode((uint16(w) >> WORD_OPCODE_SHIFT) & WORD_OPCODE_MASK)
}

// Mode returns the addressing mode field.
func (w Word) Mode() Mode {
	return Mode((uint16(w) >> WORD_MODE_SHIFT) & WORD_MODE_MASK)
}

// Source returns the source register field.
func (w Word) Source() int {
	return int((uint16(w) >> WORD_SOURCE_SHIFT) & WORD_SOURCE_MASK)
}

// Dest returns the destination register field.
func (w Word) Dest() int {
	return int((uint16(w) >> WORD_DEST_SHIFT) & WORD_DEST_MASK)
}

// Decode returns all of the instruction fields.
func (w Word) Decode() (op Opcode, mode Mode, dest, source int) {
	return w.Opcode(), w.Mode(), w.Dest(), w.Source()
}
