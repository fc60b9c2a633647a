package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModeResolve(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		mode   Mode
		dest   Kind
		source Kind
	}{
		{MODE_REG_REG, KIND_REGISTER, KIND_REGISTER},
		{MODE_REG_IMM, KIND_REGISTER, KIND_IMMEDIATE},
		{MODE_REG_DIR, KIND_REGISTER, KIND_DIRECT},
		{MODE_REG_IND, KIND_REGISTER, KIND_INDIRECT},
		{MODE_DIR_IMM, KIND_DIRECT, KIND_IMMEDIATE},
		{MODE_DIR_REG, KIND_DIRECT, KIND_REGISTER},
		{MODE_IND_IMM, KIND_INDIRECT, KIND_IMMEDIATE},
		{MODE_IND_REG, KIND_INDIRECT, KIND_REGISTER},
	}

	for _, entry := range table {
		dest, source, err := entry.mode.Resolve()
		assert.NoError(err, entry.mode)
		assert.Equal(entry.dest, dest, entry.mode)
		assert.Equal(entry.source, source, entry.mode)
		assert.True(entry.mode.Valid())

		mode, err := MakeMode(entry.dest, entry.source)
		assert.NoError(err)
		assert.Equal(entry.mode, mode)
	}

	for _, mode := range []Mode{0x3, 0x7, 0x9, 0xa, 0xb, 0xd, 0xe, 0xf} {
		_, _, err := mode.Resolve()
		assert.ErrorIs(err, ErrModeInvalid, mode)
		assert.False(mode.Valid())
	}
}

func TestMakeModeInvalid(t *testing.T) {
	assert := assert.New(t)

	for _, pair := range [][2]Kind{
		{KIND_IMMEDIATE, KIND_REGISTER},
		{KIND_IMMEDIATE, KIND_IMMEDIATE},
		{KIND_DIRECT, KIND_DIRECT},
		{KIND_INDIRECT, KIND_INDIRECT},
		{KIND_DIRECT, KIND_INDIRECT},
	} {
		_, err := MakeMode(pair[0], pair[1])
		assert.ErrorIs(err, ErrModeInvalid, pair)
	}
}

func TestKindExtra(t *testing.T) {
	assert := assert.New(t)

	assert.False(KIND_REGISTER.Extra())
	assert.True(KIND_IMMEDIATE.Extra())
	assert.True(KIND_DIRECT.Extra())
	assert.False(KIND_INDIRECT.Extra())
}

func TestModeSet(t *testing.T) {
	assert := assert.New(t)

	set := MakeModeSet(MODE_REG_IMM, MODE_REG_IND)
	assert.Equal(ModeSet(1<<0x4|1<<0xc), set)
	assert.True(set.Has(MODE_REG_IMM))
	assert.True(set.Has(MODE_REG_IND))
	assert.False(set.Has(MODE_REG_REG))
	assert.False(set.Has(Mode(-1)))
	assert.False(set.Has(Mode(16)))
}
