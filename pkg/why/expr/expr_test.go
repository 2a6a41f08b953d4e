package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whylang/wasmc/pkg/why/expr"
)

type fakeEnv map[string]int64

func (f fakeEnv) Resolve(name string) (int64, bool) {
	v, ok := f[name]
	return v, ok
}

func TestArithmetic(t *testing.T) {
	v, err := expr.Evaluate("2 + 3 * 4", fakeEnv{})
	require.NoError(t, err)
	assert.Equal(t, int64(14), v)
}

func TestParensAndUnaryMinus(t *testing.T) {
	v, err := expr.Evaluate("-(2 + 3) * 2", fakeEnv{})
	require.NoError(t, err)
	assert.Equal(t, int64(-10), v)
}

func TestHexLiteral(t *testing.T) {
	v, err := expr.Evaluate("0x10 + 1", fakeEnv{})
	require.NoError(t, err)
	assert.Equal(t, int64(17), v)
}

func TestLabelReference(t *testing.T) {
	v, err := expr.Evaluate("main + 8", fakeEnv{"main": 100})
	require.NoError(t, err)
	assert.Equal(t, int64(108), v)
}

func TestUnresolvedSymbol(t *testing.T) {
	_, err := expr.Evaluate("missing", fakeEnv{})
	assert.ErrorIs(t, err, expr.ErrUnresolvedSymbol)
}

func TestDivisionByZero(t *testing.T) {
	_, err := expr.Evaluate("1 / 0", fakeEnv{})
	assert.ErrorIs(t, err, expr.ErrSyntax)
}
