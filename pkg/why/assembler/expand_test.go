package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whylang/wasmc/pkg/why/ast"
	"github.com/whylang/wasmc/pkg/why/registers"
)

func TestExpandMvEmitsOneOrInstruction(t *testing.T) {
	t0, _ := regTable.Index("$t0")
	t1, _ := regTable.Index("$t1")

	n := ast.NewNode(ast.KindMv)
	n.RS, n.RD = t0, t1

	out := ExpandMv(n)
	require.Len(t, out, 1)
	assert.Equal(t, ast.KindRType, out[0].Kind)
	assert.Equal(t, "|", out[0].Operator)
	assert.Equal(t, t0, out[0].RS)
	assert.Equal(t, registers.Zero, out[0].RT)
	assert.Equal(t, t1, out[0].RD)
}

func TestExpandCallLoweringIsNineInstructions(t *testing.T) {
	t0, _ := regTable.Index("$t0")

	call := ast.NewNode(ast.KindCall)
	call.InSubroutine = true
	call.Function = "foo"
	call.Labels = []string{"here"}
	call.Args = []ast.Arg{
		{Kind: ast.ArgNumber, Number: 42},
		{Kind: ast.ArgRegister, Register: t0},
	}

	out, err := ExpandCall(call)
	require.NoError(t, err)
	require.Len(t, out, 9)

	assert.Equal(t, ast.KindStack, out[0].Kind)
	assert.True(t, out[0].Push)
	assert.Equal(t, []string{"here"}, out[0].Labels)
	assert.Equal(t, ast.KindStack, out[1].Kind)
	assert.Equal(t, ast.KindStack, out[2].Kind)

	a0 := argumentRegister(0)
	a1 := argumentRegister(1)
	assert.Equal(t, ast.KindSet, out[3].Kind)
	assert.Equal(t, a0, out[3].RD)
	assert.Equal(t, ast.KindRType, out[4].Kind)
	assert.Equal(t, a1, out[4].RD)

	assert.Equal(t, ast.KindJType, out[5].Kind)
	assert.True(t, out[5].Link)
	assert.Equal(t, "foo", out[5].Imm.Label)

	assert.Equal(t, ast.KindStack, out[6].Kind)
	assert.False(t, out[6].Push)
	assert.Equal(t, ast.KindStack, out[7].Kind)
	assert.Equal(t, ast.KindStack, out[8].Kind)
}

func TestExpandStringPrintEmitsSetOnlyOnChange(t *testing.T) {
	n := ast.NewNode(ast.KindStringPrint)
	n.Str = "aab"
	n.Labels = []string{"msg"}

	out := ExpandStringPrint(n)
	// a(set+print) a(print only) b(set+print) = 5 instructions
	require.Len(t, out, 5)
	assert.Equal(t, ast.KindSet, out[0].Kind)
	assert.Equal(t, []string{"msg"}, out[0].Labels)
	assert.Equal(t, ast.KindPrint, out[1].Kind)
	assert.Equal(t, ast.KindPrint, out[2].Kind)
	assert.Equal(t, ast.KindSet, out[3].Kind)
	assert.Equal(t, ast.KindPrint, out[4].Kind)
}

func TestExpandStringPrintEmpty(t *testing.T) {
	n := ast.NewNode(ast.KindStringPrint)
	n.Str = ""
	assert.Empty(t, ExpandStringPrint(n))
}

func TestExpandJeqRegisterAddrRegisterRT(t *testing.T) {
	rs, _ := regTable.Index("$t0")
	rt, _ := regTable.Index("$t1")
	addr, _ := regTable.Index("$t2")

	n := ast.NewNode(ast.KindJeq)
	n.RS = rs
	n.JeqRT = ast.JeqOperand{IsRegister: true, Register: rt}
	n.JeqAddr = ast.JeqOperand{IsRegister: true, Register: addr}

	out, err := ExpandJeq(n)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, ast.KindCmp, out[0].Kind)
	assert.Equal(t, ast.KindJrc, out[1].Kind)
}

func TestExpandJeqImmediateAddrImmediateRT(t *testing.T) {
	rs, _ := regTable.Index("$t0")

	n := ast.NewNode(ast.KindJeq)
	n.RS = rs
	n.JeqRT = ast.JeqOperand{Imm: ast.NumberImmediate(5)}
	n.JeqAddr = ast.JeqOperand{Imm: ast.LabelImmediate("target")}

	out, err := ExpandJeq(n)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, ast.KindSet, out[0].Kind)
	assert.Equal(t, ast.KindCmp, out[1].Kind)
	assert.Equal(t, ast.KindJc, out[2].Kind)
	assert.Equal(t, "target", out[2].Imm.Label)
}

func TestExpandIOKnownIdent(t *testing.T) {
	n := ast.NewNode(ast.KindIO)
	n.Ident = "read"

	out, err := ExpandIO(n)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, ast.KindSet, out[0].Kind)
	assert.Equal(t, ast.KindIO, out[1].Kind)
}

func TestExpandIOUnknownIdent(t *testing.T) {
	n := ast.NewNode(ast.KindIO)
	n.Ident = "bogus"
	_, err := ExpandIO(n)
	assert.ErrorIs(t, err, ErrUnknownIOIdent)
}

func TestExpandCallTooManyArguments(t *testing.T) {
	call := ast.NewNode(ast.KindCall)
	call.Function = "f"
	call.Args = make([]ast.Arg, 17)
	_, err := ExpandCall(call)
	assert.ErrorIs(t, err, ErrTooManyArguments)
}
