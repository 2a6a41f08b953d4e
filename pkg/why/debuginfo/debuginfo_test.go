package debuginfo_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whylang/wasmc/pkg/why/ast"
	"github.com/whylang/wasmc/pkg/why/debuginfo"
	"github.com/whylang/wasmc/pkg/why/section"
)

func TestEncodeDeclaredFilename(t *testing.T) {
	sec := section.New("debug")
	err := debuginfo.EncodeDeclared(sec, []ast.DebugDecl{
		{Kind: ast.DebugFilename, Value: "main.why"},
	})
	require.NoError(t, err)
	// header(4) + "main.why"(8) = 12, aligned up to 16.
	assert.Equal(t, uint64(16), sec.Counter())
	assert.Equal(t, byte(debuginfo.RecordFilename), sec.Bytes[0])
}

func TestLocationRunAddressAndCount(t *testing.T) {
	entries := []ast.DebugDecl{
		{Kind: ast.DebugLocation, FileIndex: 1, Line: 10, Column: 2, FuncIndex: 0},
	}
	instructions := []debuginfo.InstructionBang{
		{Address: 0, Bang: 0},
		{Address: 8, Bang: 0},
		{Address: 16, Bang: 0},
		{Address: 24, Bang: -1},
	}

	sec := section.New("debug")
	err := debuginfo.EncodeLocations(sec, entries, instructions)
	require.NoError(t, err)
	assert.Equal(t, uint64(24), sec.Counter())
	// Second word is column<<40 | count<<32 | funcIdx, big-endian: count is byte 11.
	assert.Equal(t, byte(3), sec.Bytes[11])
	// Third word is the address of the run's first instruction.
	assert.Equal(t, uint64(0), binary.BigEndian.Uint64(sec.Bytes[16:24]))
}

func Test255RunSucceeds256Fails(t *testing.T) {
	entries := []ast.DebugDecl{
		{Kind: ast.DebugLocation, FileIndex: 1, Line: 1, Column: 1, FuncIndex: 0},
	}

	run := func(n int) []debuginfo.InstructionBang {
		out := make([]debuginfo.InstructionBang, n)
		for i := range out {
			out[i] = debuginfo.InstructionBang{Address: uint64(i * 8), Bang: 0}
		}
		return out
	}

	sec := section.New("debug")
	require.NoError(t, debuginfo.EncodeLocations(sec, entries, run(255)))

	sec2 := section.New("debug")
	err := debuginfo.EncodeLocations(sec2, entries, run(256))
	assert.ErrorIs(t, err, debuginfo.ErrRunTooLong)
}

func TestDanglingBang(t *testing.T) {
	instructions := []debuginfo.InstructionBang{{Address: 0, Bang: 5}}
	sec := section.New("debug")
	err := debuginfo.EncodeLocations(sec, nil, instructions)
	assert.ErrorIs(t, err, debuginfo.ErrDanglingBang)
}
