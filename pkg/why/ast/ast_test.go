package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whylang/wasmc/pkg/why/ast"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "RType", ast.KindRType.String())
	assert.Equal(t, "Jeq", ast.KindJeq.String())
	assert.Equal(t, "Unknown", ast.Kind(999).String())
}

func TestIsPseudo(t *testing.T) {
	pseudo := []ast.Kind{ast.KindMv, ast.KindPseudoPrint, ast.KindStringPrint, ast.KindJeq, ast.KindCall, ast.KindIO}
	for _, k := range pseudo {
		assert.Truef(t, k.IsPseudo(), "%s should be pseudo", k)
	}
	assert.False(t, ast.KindRType.IsPseudo())
	assert.False(t, ast.KindNop.IsPseudo())
}

func TestNewNodeDefaults(t *testing.T) {
	n := ast.NewNode(ast.KindRType)
	assert.Equal(t, ast.KindRType, n.Kind)
	assert.Equal(t, -1, n.Bang)
	assert.Equal(t, -1, n.RS)
	assert.Equal(t, -1, n.RT)
	assert.Equal(t, -1, n.RD)
	assert.Empty(t, n.Labels)
}

func TestHasLabel(t *testing.T) {
	n := ast.NewNode(ast.KindLabel)
	n.Labels = []string{"loop_start", "loop_top"}

	assert.True(t, n.HasLabel("loop_start"))
	assert.True(t, n.HasLabel("loop_top"))
	assert.False(t, n.HasLabel("missing"))
}

func TestImmediateConstructors(t *testing.T) {
	num := ast.NumberImmediate(42)
	assert.Equal(t, ast.ImmNumber, num.Kind)
	assert.EqualValues(t, 42, num.Number)

	ch := ast.CharImmediate('x')
	assert.Equal(t, ast.ImmChar, ch.Kind)
	assert.Equal(t, 'x', ch.Char)

	lbl := ast.LabelImmediate("main")
	assert.Equal(t, ast.ImmLabel, lbl.Kind)
	assert.Equal(t, "main", lbl.Label)
}
