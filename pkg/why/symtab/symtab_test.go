package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whylang/wasmc/pkg/why/section"
	"github.com/whylang/wasmc/pkg/why/symtab"
)

func TestEncodeSymbolIsBytes4To8LittleEndian(t *testing.T) {
	id := symtab.EncodeSymbol("main")
	assert.NotZero(t, id)
	// Deterministic: same name always yields the same id.
	assert.Equal(t, id, symtab.EncodeSymbol("main"))
	// Bytes 4..7 of SHA-256("main"), read little-endian.
	assert.Equal(t, uint32(0xeb0367e3), id)
}

func TestAddDetectsCollision(t *testing.T) {
	table := symtab.New()
	_, err := table.Add("main", symtab.TypeCode)
	require.NoError(t, err)

	// Re-adding the same name is not a collision.
	_, err = table.Add("main", symtab.TypeCode)
	require.NoError(t, err)

	// "sym29816" and "sym174882" share SHA-256 bytes 4..7 (id 0x00eacefb).
	_, err = table.Add("sym29816", symtab.TypeCode)
	require.NoError(t, err)
	_, err = table.Add("sym174882", symtab.TypeCode)
	assert.ErrorIs(t, err, symtab.ErrHashCollision)
}

func TestEightCharLabelIsOneNameWord(t *testing.T) {
	table := symtab.New()
	_, err := table.Add("abcdefgh", symtab.TypeCode)
	require.NoError(t, err)

	sec := section.New("symbols")
	require.NoError(t, table.Encode(sec))

	// header(8) + address(8) + one name word(8) = 24 bytes.
	assert.Equal(t, uint64(24), sec.Counter())
}

func TestEmptyNameEncodesOneZeroWord(t *testing.T) {
	table := symtab.New()
	_, err := table.Add("", symtab.TypeUnknown)
	require.NoError(t, err)

	sec := section.New("symbols")
	require.NoError(t, table.Encode(sec))
	assert.Equal(t, uint64(24), sec.Counter())
}

func TestEndSentinelAddressEqualsFileSize(t *testing.T) {
	table := symtab.New()
	idx, err := table.Add(".end", symtab.TypeUnknown)
	require.NoError(t, err)
	table.SetAddress(idx, 24)

	sec := section.New("symbols")
	require.NoError(t, table.Encode(sec))

	entries := table.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(24), entries[0].Address)
	assert.Equal(t, sec.Counter(), entries[0].Address)
}
