package registers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whylang/wasmc/pkg/why/registers"
)

func TestScratchIsM7(t *testing.T) {
	table := registers.NewTable()
	idx, err := table.Index("$m7")
	require.NoError(t, err)
	assert.Equal(t, registers.Scratch, idx)
	assert.Equal(t, 109, idx)
}

func TestZeroRegister(t *testing.T) {
	table := registers.NewTable()
	idx, err := table.Index("$0")
	require.NoError(t, err)
	assert.Equal(t, registers.Zero, idx)
}

func TestRoundTrip(t *testing.T) {
	table := registers.NewTable()
	for i := 0; i < registers.Count; i++ {
		name, err := table.Name(i)
		require.NoError(t, err)
		idx, err := table.Index(name)
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}
}

func TestUnknownRegister(t *testing.T) {
	table := registers.NewTable()
	_, err := table.Index("$nope")
	assert.ErrorIs(t, err, registers.ErrUnknownRegister)

	_, err = table.Name(128)
	assert.ErrorIs(t, err, registers.ErrUnknownRegister)
}

func TestTableHas128Registers(t *testing.T) {
	table := registers.NewTable()
	seen := make(map[int]bool)
	for i := 0; i < registers.Count; i++ {
		name, err := table.Name(i)
		require.NoError(t, err)
		idx, err := table.Index(name)
		require.NoError(t, err)
		seen[idx] = true
	}
	assert.Len(t, seen, registers.Count)
}
