package encoding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whylang/wasmc/pkg/why/ast"
	"github.com/whylang/wasmc/pkg/why/encoding"
)

func TestEncodeDecodeRRoundTrip(t *testing.T) {
	word, err := encoding.EncodeR(encoding.OpRLogic, 0, 0, 7, encoding.FnOr, ast.FlagIgnore, ast.CondNone)
	require.NoError(t, err)

	fields := encoding.DecodeR(word)
	assert.Equal(t, encoding.OpRLogic, fields.Opcode)
	assert.Equal(t, encoding.FnOr, fields.Funct)
	assert.Equal(t, 0, fields.RS)
	assert.Equal(t, 0, fields.RT)
	assert.Equal(t, 7, fields.RD)
}

func TestEncodeRFieldOutOfRange(t *testing.T) {
	_, err := encoding.EncodeR(encoding.OpRMath, 200, 0, 0, encoding.FnAdd, ast.FlagIgnore, ast.CondNone)
	assert.ErrorIs(t, err, encoding.ErrFieldOutOfRange)
}

func TestEncodeDecodeIRoundTrip(t *testing.T) {
	word, err := encoding.EncodeI(encoding.OpISet, 0, 39, 0xDEADBEEF, ast.FlagIgnore, ast.CondZero)
	require.NoError(t, err)

	fields := encoding.DecodeI(word)
	assert.Equal(t, encoding.OpISet, fields.Opcode)
	assert.Equal(t, 39, fields.RD)
	assert.Equal(t, uint32(0xDEADBEEF), fields.Immediate)
	assert.Equal(t, ast.CondZero, fields.Condition)
}

func TestEncodeDecodeJRoundTrip(t *testing.T) {
	word, err := encoding.EncodeJ(encoding.OpJ, 0, 0x1000, true, ast.FlagKnownSymbol, ast.CondNone)
	require.NoError(t, err)

	fields := encoding.DecodeJ(word)
	assert.Equal(t, encoding.OpJ, fields.Opcode)
	assert.Equal(t, uint32(0x1000), fields.Address)
	assert.True(t, fields.Link)
	assert.Equal(t, ast.FlagKnownSymbol, fields.Flags)
}

func TestCanonicalizeComparison(t *testing.T) {
	canonical, swap := encoding.CanonicalizeComparison(">=")
	assert.Equal(t, "<=", canonical)
	assert.True(t, swap)

	canonical, swap = encoding.CanonicalizeComparison(">")
	assert.Equal(t, "<", canonical)
	assert.True(t, swap)

	canonical, swap = encoding.CanonicalizeComparison("==")
	assert.Equal(t, "==", canonical)
	assert.False(t, swap)
}

func TestLookupRArithmetic(t *testing.T) {
	opcode, funct, err := encoding.LookupR(ast.KindRType, "+", false)
	require.NoError(t, err)
	assert.Equal(t, encoding.OpRMath, opcode)
	assert.Equal(t, encoding.FnAdd, funct)
}

func TestLookupRUnknownOperator(t *testing.T) {
	_, _, err := encoding.LookupR(ast.KindRType, "???", false)
	assert.ErrorIs(t, err, encoding.ErrUnknownOperator)
}

func TestExactShiftsFromSpec(t *testing.T) {
	// R-type: funct@0, flags@12, cond@14, rd@31, rs@38, rt@45, opcode@52.
	word, err := encoding.EncodeR(1, 2, 3, 4, 5, ast.FlagKnownSymbol, ast.CondZero)
	require.NoError(t, err)
	expected := uint64(5) | uint64(ast.FlagKnownSymbol)<<12 | uint64(ast.CondZero)<<14 |
		uint64(4)<<31 | uint64(2)<<38 | uint64(3)<<45 | uint64(1)<<52
	assert.Equal(t, expected, word)
}
