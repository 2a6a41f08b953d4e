package assembler

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whylang/wasmc/internal/manifest"
	"github.com/whylang/wasmc/pkg/why/ast"
	"github.com/whylang/wasmc/pkg/why/encoding"
	"github.com/whylang/wasmc/pkg/why/symtab"
)

func reg(t *testing.T, name string) int {
	t.Helper()
	idx, err := regTable.Index(name)
	require.NoError(t, err)
	return idx
}

func TestAssembleEmptyProgramMetadataOnly(t *testing.T) {
	program := &ast.Program{
		Meta: &ast.MetaHeader{Name: "x", Version: "1", Author: "a", Orcid: "0000000000000000"},
	}

	res, err := Assemble(program, manifest.Default())
	require.NoError(t, err)

	// meta: 40 header + 16 orcid + "x\0"+"1\0"+"a\0" (6 bytes) padded to 8 = 64
	assert.EqualValues(t, 64, res.Offsets.Code)
	assert.EqualValues(t, 64, res.Offsets.Data)
	assert.EqualValues(t, 64, res.Offsets.Symbols)
	// symbol table: just `.end`, 24 bytes (1 header word + 1 address word + 1 name word)
	assert.EqualValues(t, 88, res.Offsets.Debug)
	assert.EqualValues(t, 88, res.Offsets.End)
	assert.Len(t, res.Binary, 88)

	tail := res.Binary[0:64]
	assert.Contains(t, string(tail), "x\x001\x00a\x00")
}

func TestAssembleSingleInstruction(t *testing.T) {
	or := ast.NewNode(ast.KindRType)
	or.Operator = "|"
	or.RS = reg(t, "$0")
	or.RT = reg(t, "$0")
	or.RD = reg(t, "$r0")
	or.Labels = []string{"main"}

	program := &ast.Program{
		Text: &ast.TextHeader{Items: []ast.TextItem{{Instruction: or}}},
	}

	res, err := Assemble(program, manifest.Default())
	require.NoError(t, err)
	require.Empty(t, res.UnknownSymbols)

	codeStart := res.Offsets.Code
	codeEnd := res.Offsets.Data
	require.EqualValues(t, 8, codeEnd-codeStart)

	word := binary.LittleEndian.Uint64(res.Binary[codeStart : codeStart+8])
	fields := encoding.DecodeR(word)
	assert.Equal(t, encoding.OpRLogic, fields.Opcode)
	assert.Equal(t, encoding.FnOr, fields.Funct)
	assert.Equal(t, reg(t, "$0"), fields.RS)
	assert.Equal(t, reg(t, "$0"), fields.RT)
	assert.Equal(t, reg(t, "$r0"), fields.RD)
}

func TestAssembleLabelForwardReference(t *testing.T) {
	jump := ast.NewNode(ast.KindJType)
	jump.RS = reg(t, "$0")
	jump.Imm = ast.LabelImmediate("end")
	jump.Labels = []string{"start"}

	program := &ast.Program{
		Text: &ast.TextHeader{Items: []ast.TextItem{
			{Instruction: jump},
			{Directive: ast.DirLabel, Label: "end"},
		}},
	}

	res, err := Assemble(program, manifest.Default())
	require.NoError(t, err)
	require.Empty(t, res.UnknownSymbols)

	codeStart := res.Offsets.Code
	word := binary.LittleEndian.Uint64(res.Binary[codeStart : codeStart+8])
	fields := encoding.DecodeJ(word)
	assert.Equal(t, ast.FlagKnownSymbol, fields.Flags)
	assert.EqualValues(t, codeStart+8, fields.Address)
}

func TestAssembleUnknownSymbolBecomesHashID(t *testing.T) {
	jump := ast.NewNode(ast.KindJType)
	jump.RS = reg(t, "$0")
	jump.Imm = ast.LabelImmediate("extern_fn")

	program := &ast.Program{
		Text: &ast.TextHeader{Items: []ast.TextItem{{Instruction: jump}}},
	}

	res, err := Assemble(program, manifest.Default())
	require.NoError(t, err)
	require.Equal(t, []string{"extern_fn"}, res.UnknownSymbols)

	codeStart := res.Offsets.Code
	word := binary.LittleEndian.Uint64(res.Binary[codeStart : codeStart+8])
	fields := encoding.DecodeJ(word)
	assert.Equal(t, ast.FlagUnknownSymbol, fields.Flags)
	assert.Equal(t, symtab.EncodeSymbol("extern_fn"), fields.Address)
}

func TestAssembleMvExpansion(t *testing.T) {
	mv := ast.NewNode(ast.KindMv)
	mv.RS = reg(t, "$t0")
	mv.RD = reg(t, "$t1")

	program := &ast.Program{
		Text: &ast.TextHeader{Items: []ast.TextItem{{Instruction: mv}}},
	}

	res, err := Assemble(program, manifest.Default())
	require.NoError(t, err)

	codeStart := res.Offsets.Code
	assert.EqualValues(t, 8, res.Offsets.Data-codeStart)

	word := binary.LittleEndian.Uint64(res.Binary[codeStart : codeStart+8])
	fields := encoding.DecodeR(word)
	assert.Equal(t, encoding.OpRLogic, fields.Opcode)
	assert.Equal(t, encoding.FnOr, fields.Funct)
	assert.Equal(t, reg(t, "$t0"), fields.RS)
	assert.Equal(t, 0, fields.RT)
	assert.Equal(t, reg(t, "$t1"), fields.RD)
}

func TestAssembleTypeDirectiveOverridesInferredKind(t *testing.T) {
	program := &ast.Program{
		Text: &ast.TextHeader{Items: []ast.TextItem{
			{Directive: ast.DirData},
			{Directive: ast.DirLabel, Label: "table"},
			{Directive: ast.DirFill, FillCount: 8},
			{Directive: ast.DirType, TypeTarget: "table", SymbolKind: ast.SymbolDeclFunction},
			{Directive: ast.DirCode},
		}},
	}

	res, err := Assemble(program, manifest.Default())
	require.NoError(t, err)
	require.Empty(t, res.UnknownSymbols)

	// "table" is anchored in data (inferred Data) but declared a function.
	entries, err := symtab.Decode(res.Binary[res.Offsets.Symbols:res.Offsets.Debug])
	require.NoError(t, err)
	found := false
	for _, e := range entries {
		if e.Name == "table" {
			found = true
			assert.Equal(t, symtab.TypeCode, e.Type)
		}
	}
	assert.True(t, found)
}

func TestAssembleDataDirectiveInterleaving(t *testing.T) {
	set := ast.NewNode(ast.KindSet)
	set.RD = reg(t, "$t0")
	set.Imm = ast.NumberImmediate(7)

	program := &ast.Program{
		Text: &ast.TextHeader{Items: []ast.TextItem{
			{Directive: ast.DirData},
			{Directive: ast.DirLabel, Label: "buf"},
			{Directive: ast.DirFill, FillCount: 8, FillValue: 0},
			{Directive: ast.DirCode},
			{Instruction: set},
		}},
	}

	res, err := Assemble(program, manifest.Default())
	require.NoError(t, err)
	assert.EqualValues(t, 8, res.Offsets.Data-res.Offsets.Code)
	assert.EqualValues(t, 8, res.Offsets.Symbols-res.Offsets.Data)
}

func TestAssembleDuplicateLabelIsError(t *testing.T) {
	program := &ast.Program{
		Text: &ast.TextHeader{Items: []ast.TextItem{
			{Directive: ast.DirLabel, Label: "dup"},
			{Directive: ast.DirLabel, Label: "dup"},
		}},
	}

	_, err := Assemble(program, manifest.Default())
	assert.ErrorIs(t, err, ErrLabelRedefined)
}

func TestAssembleInvalidOrcidIsRejected(t *testing.T) {
	program := &ast.Program{
		Meta: &ast.MetaHeader{Orcid: "not-enough-digits"},
	}

	_, err := Assemble(program, manifest.Default())
	assert.ErrorIs(t, err, ErrInvalidOrcid)
}
