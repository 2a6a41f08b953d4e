package assembler

import (
	"errors"
	"fmt"

	"github.com/whylang/wasmc/pkg/why/ast"
	"github.com/whylang/wasmc/pkg/why/encoding"
)

// ErrNotEncodable is returned when a node kind reaches compileInstruction
// without having been lowered to a primitive first.
var ErrNotEncodable = errors.New("assembler: node kind is not directly encodable")

var rKinds = map[ast.Kind]bool{
	ast.KindRType: true, ast.KindCmp: true, ast.KindJr: true, ast.KindJrc: true,
	ast.KindCopy: true, ast.KindLoad: true, ast.KindStore: true, ast.KindSel: true,
}

var iKinds = map[ast.Kind]bool{
	ast.KindIType: true, ast.KindSet: true, ast.KindLi: true, ast.KindSi: true,
	ast.KindLni: true, ast.KindCh: true, ast.KindLh: true, ast.KindSh: true,
	ast.KindCmpi: true, ast.KindLui: true, ast.KindIntI: true, ast.KindRitI: true,
	ast.KindTimeI: true, ast.KindRingI: true, ast.KindSetptI: true, ast.KindDiviI: true,
	ast.KindMultI: true, ast.KindStack: true, ast.KindSizedStack: true,
}

// compileInstruction packs a primitive instruction node into its 64-bit
// wire word. n must already have been lowered by Expand.
func compileInstruction(n *ast.Node) (uint64, error) {
	switch {
	case n.Kind == ast.KindNop:
		return 0, nil
	case rKinds[n.Kind]:
		return compileR(n)
	case iKinds[n.Kind]:
		return compileI(n)
	default:
		return compileJ(n)
	}
}

func compileR(n *ast.Node) (uint64, error) {
	opcode, funct, err := encoding.LookupR(n.Kind, n.Operator, n.Unsigned)
	if err != nil {
		return 0, err
	}

	rs, rt, rd := regOrZero(n.RS), regOrZero(n.RT), regOrZero(n.RD)
	if n.Kind == ast.KindCmp {
		if _, swap := encoding.CanonicalizeComparison(n.Operator); swap {
			rs, rt = rt, rs
		}
	}

	return encoding.EncodeR(opcode, rs, rt, rd, funct, n.Flags, n.Condition)
}

// regOrZero encodes an unused register slot (-1) as register 0.
func regOrZero(r int) int {
	if r < 0 {
		return 0
	}
	return r
}

func immediateBits(n *ast.Node) (uint32, error) {
	switch n.Imm.Kind {
	case ast.ImmNumber:
		return uint32(n.Imm.Number), nil
	case ast.ImmChar:
		return uint32(n.Imm.Char), nil
	case ast.ImmLabel:
		return 0, fmt.Errorf("assembler: instruction still carries an unresolved label immediate %q", n.Imm.Label)
	default:
		return 0, fmt.Errorf("%w: immediate kind %d", ErrNotEncodable, n.Imm.Kind)
	}
}

func compileI(n *ast.Node) (uint64, error) {
	opcode, err := encoding.LookupI(n.Kind, n.Operator, n.Unsigned)
	if err != nil {
		return 0, err
	}

	var imm uint32
	switch n.Kind {
	case ast.KindStack:
		if n.Push {
			imm = 1
		}
	case ast.KindSizedStack:
		imm = uint32(n.Size)
		if n.Push {
			imm |= 1 << 31
		}
	default:
		imm, err = immediateBits(n)
		if err != nil {
			return 0, err
		}
	}

	return encoding.EncodeI(opcode, regOrZero(n.RS), regOrZero(n.RD), imm, n.Flags, n.Condition)
}

func compileJ(n *ast.Node) (uint64, error) {
	opcode, err := encoding.LookupJ(n.Kind)
	if err != nil {
		return 0, err
	}

	var address uint32
	if n.Kind == ast.KindJType || n.Kind == ast.KindJc {
		address, err = immediateBits(n)
		if err != nil {
			return 0, err
		}
	}

	rs := n.RS
	if rs < 0 {
		rs = 0
	}

	return encoding.EncodeJ(opcode, rs, address, n.Link, n.Flags, n.Condition)
}
