package cpu

// Kind is how a single operand is located.
type Kind int

const (
	KIND_REGISTER  = Kind(0) // register
	KIND_IMMEDIATE = Kind(1) // immediate
	KIND_DIRECT    = Kind(2) // direct
	KIND_INDIRECT  = Kind(3) // indirect
)

var kindNames = [...]string{"register", "immediate", "direct", "indirect"}

func (kind Kind) String() string {
	if kind < 0 || int(kind) >= len(kindNames) {
		return "Kind(?)"
	}
	return kindNames[kind]
}

// Extra returns true if the operand kind consumes the word following the instruction.
func (kind Kind) Extra() bool {
	return kind == KIND_IMMEDIATE || kind == KIND_DIRECT
}

// Mode is the 4-bit addressing mode field, pairing a destination kind with a source kind.
// Only 8 of the 16 values are legal.
type Mode int

const (
	MODE_REG_REG = Mode(0x0) // reg-reg
	MODE_DIR_REG = Mode(0x1) // dir-reg
	MODE_IND_REG = Mode(0x2) // ind-reg
	MODE_REG_IMM = Mode(0x4) // reg-imm
	MODE_DIR_IMM = Mode(0x5) // dir-imm
	MODE_IND_IMM = Mode(0x6) // ind-imm
	MODE_REG_DIR = Mode(0x8) // reg-dir
	MODE_REG_IND = Mode(0xc) // reg-ind
)

type modeKinds struct {
	name   string
	dest   Kind
	source Kind
}

var modeTable = map[Mode]modeKinds{
	MODE_REG_REG: {"reg-reg", KIND_REGISTER, KIND_REGISTER},
	MODE_REG_IMM: {"reg-imm", KIND_REGISTER, KIND_IMMEDIATE},
	MODE_REG_DIR: {"reg-dir", KIND_REGISTER, KIND_DIRECT},
	MODE_REG_IND: {"reg-ind", KIND_REGISTER, KIND_INDIRECT},
	MODE_DIR_IMM: {"dir-imm", KIND_DIRECT, KIND_IMMEDIATE},
	MODE_DIR_REG: {"dir-reg", KIND_DIRECT, KIND_REGISTER},
	MODE_IND_IMM: {"ind-imm", KIND_INDIRECT, KIND_IMMEDIATE},
	MODE_IND_REG: {"ind-reg", KIND_INDIRECT, KIND_REGISTER},
}

// Valid returns true for the 8 legal addressing modes.
func (mode Mode) Valid() bool {
	_, ok := modeTable[mode]
	return ok
}

// Resolve returns the destination and source operand kinds of the mode.
func (mode Mode) Resolve() (dest, source Kind, err error) {
	kinds, ok := modeTable[mode]
	if !ok {
		err = ErrModeInvalid
		return
	}

	dest = kinds.dest
	source = kinds.source
	return
}

// MakeMode finds the addressing mode pairing the destination and source kinds.
func MakeMode(dest, source Kind) (mode Mode, err error) {
	for mode, kinds := range modeTable {
		if kinds.dest == dest && kinds.source == source {
			return mode, nil
		}
	}

	err = ErrModeInvalid
	return
}

func (mode Mode) String() string {
	kinds, ok := modeTable[mode]
	if !ok {
		return f("mode(%#x)", int(mode))
	}
	return kinds.name
}

// ModeSet is a set of addressing modes.
type ModeSet uint16

// MakeModeSet creates a set from a list of modes.
func MakeModeSet(modes ...Mode) (set ModeSet) {
	for _, mode := range modes {
		set |= 1 << (uint(mode) & WORD_MODE_MASK)
	}
	return
}

// Has returns true if the mode is in the set.
func (set ModeSet) Has(mode Mode) bool {
	if mode < 0 || mode > WORD_MODE_MASK {
		return false
	}
	return (set & (1 << uint(mode))) != 0
}
