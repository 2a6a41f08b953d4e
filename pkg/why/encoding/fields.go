// Package encoding packs and unpacks the R/I/J instruction formats into
// 64-bit words using the fixed field offsets of the Why ISA, and holds the
// static opcode/funct lookup tables keyed by (node kind, operator, unsigned).
package encoding

import (
	"errors"
	"fmt"

	"github.com/whylang/wasmc/internal/bitpack"
	"github.com/whylang/wasmc/pkg/why/ast"
)

// ErrFieldOutOfRange is returned when a field value does not fit the
// width the format reserves for it.
var ErrFieldOutOfRange = errors.New("encoding: field value out of range")

const (
	rFunctBit, rFunctWidth = 0, 12
	rFlagsBit, rFlagsWidth = 12, 2
	rCondBit, rCondWidth   = 14, 2
	rRDBit, rRDWidth       = 31, 7
	rRSBit, rRSWidth       = 38, 7
	rRTBit, rRTWidth       = 45, 7
	rOpcodeBit             = 52
	opcodeWidth            = 12

	iImmBit, iImmWidth     = 0, 32
	iRDBit, iRDWidth       = 32, 7
	iRSBit, iRSWidth       = 39, 7
	iFlagsBit, iFlagsWidth = 46, 2
	iCondBit, iCondWidth   = 48, 4
	iOpcodeBit             = 52

	jAddrBit, jAddrWidth   = 0, 32
	jFlagsBit, jFlagsWidth = 32, 2
	jCondBit, jCondWidth   = 34, 4
	jLinkBit               = 44
	jRSBit, jRSWidth       = 45, 7
	jOpcodeBit             = 52
)

func fits(value uint64, width int) bool {
	return value <= uint64(bitpack.AllOnes[uint64](width))
}

// Field names one bit-field of an instruction format by its low bit and
// width, for diagram rendering (see the `wasmc fields` command).
type Field struct {
	Name  string
	Begin int
	Width int
}

// RLayout returns the R-type format's fields, low bit first.
func RLayout() []Field {
	return []Field{
		{"funct", rFunctBit, rFunctWidth},
		{"flags", rFlagsBit, rFlagsWidth},
		{"cond", rCondBit, rCondWidth},
		{"rd", rRDBit, rRDWidth},
		{"rs", rRSBit, rRSWidth},
		{"rt", rRTBit, rRTWidth},
		{"opcode", rOpcodeBit, opcodeWidth},
	}
}

// ILayout returns the I-type format's fields, low bit first.
func ILayout() []Field {
	return []Field{
		{"imm", iImmBit, iImmWidth},
		{"rd", iRDBit, iRDWidth},
		{"rs", iRSBit, iRSWidth},
		{"flags", iFlagsBit, iFlagsWidth},
		{"cond", iCondBit, iCondWidth},
		{"opcode", iOpcodeBit, opcodeWidth},
	}
}

// JLayout returns the J-type format's fields, low bit first.
func JLayout() []Field {
	return []Field{
		{"addr", jAddrBit, jAddrWidth},
		{"flags", jFlagsBit, jFlagsWidth},
		{"cond", jCondBit, jCondWidth},
		{"link", jLinkBit, 1},
		{"rs", jRSBit, jRSWidth},
		{"opcode", jOpcodeBit, opcodeWidth},
	}
}

func checkField(name string, value uint64, width int) error {
	if !fits(value, width) {
		return fmt.Errorf("%w: %s=%d does not fit in %d bits", ErrFieldOutOfRange, name, value, width)
	}
	return nil
}

// EncodeR packs an R-type instruction word.
func EncodeR(opcode OpCode, rs, rt, rd int, funct Funct, flags ast.LinkFlags, cond ast.Condition) (uint64, error) {
	if err := checkField("opcode", uint64(opcode), opcodeWidth); err != nil {
		return 0, err
	}
	if err := checkField("funct", uint64(funct), rFunctWidth); err != nil {
		return 0, err
	}
	if err := checkField("rs", uint64(rs), rRSWidth); err != nil {
		return 0, err
	}
	if err := checkField("rt", uint64(rt), rRTWidth); err != nil {
		return 0, err
	}
	if err := checkField("rd", uint64(rd), rRDWidth); err != nil {
		return 0, err
	}
	if err := checkField("cond", uint64(cond), rCondWidth); err != nil {
		return 0, err
	}

	var word uint64
	view := bitpack.Of(&word)
	view.Write(uint64(funct), rFunctBit, rFunctWidth)
	view.Write(uint64(flags), rFlagsBit, rFlagsWidth)
	view.Write(uint64(cond), rCondBit, rCondWidth)
	view.Write(uint64(rd), rRDBit, rRDWidth)
	view.Write(uint64(rs), rRSBit, rRSWidth)
	view.Write(uint64(rt), rRTBit, rRTWidth)
	view.Write(uint64(opcode), rOpcodeBit, opcodeWidth)
	return word, nil
}

// RFields holds the decoded fields of an R-type word.
type RFields struct {
	Opcode        OpCode
	RS, RT, RD    int
	Funct         Funct
	Flags         ast.LinkFlags
	Condition     ast.Condition
}

// DecodeR unpacks an R-type instruction word.
func DecodeR(word uint64) RFields {
	view := bitpack.Of(&word)
	return RFields{
		Funct:     Funct(view.Read(rFunctBit, rFunctWidth)),
		Flags:     ast.LinkFlags(view.Read(rFlagsBit, rFlagsWidth)),
		Condition: ast.Condition(view.Read(rCondBit, rCondWidth)),
		RD:        int(view.Read(rRDBit, rRDWidth)),
		RS:        int(view.Read(rRSBit, rRSWidth)),
		RT:        int(view.Read(rRTBit, rRTWidth)),
		Opcode:    OpCode(view.Read(rOpcodeBit, opcodeWidth)),
	}
}

// EncodeI packs an I-type instruction word.
func EncodeI(opcode OpCode, rs, rd int, immediate uint32, flags ast.LinkFlags, cond ast.Condition) (uint64, error) {
	if err := checkField("opcode", uint64(opcode), opcodeWidth); err != nil {
		return 0, err
	}
	if err := checkField("rs", uint64(rs), iRSWidth); err != nil {
		return 0, err
	}
	if err := checkField("rd", uint64(rd), iRDWidth); err != nil {
		return 0, err
	}
	if err := checkField("cond", uint64(cond), iCondWidth); err != nil {
		return 0, err
	}

	var word uint64
	view := bitpack.Of(&word)
	view.Write(uint64(immediate), iImmBit, iImmWidth)
	view.Write(uint64(rd), iRDBit, iRDWidth)
	view.Write(uint64(rs), iRSBit, iRSWidth)
	view.Write(uint64(flags), iFlagsBit, iFlagsWidth)
	view.Write(uint64(cond), iCondBit, iCondWidth)
	view.Write(uint64(opcode), iOpcodeBit, opcodeWidth)
	return word, nil
}

// IFields holds the decoded fields of an I-type word.
type IFields struct {
	Opcode    OpCode
	RS, RD    int
	Immediate uint32
	Flags     ast.LinkFlags
	Condition ast.Condition
}

// DecodeI unpacks an I-type instruction word.
func DecodeI(word uint64) IFields {
	view := bitpack.Of(&word)
	return IFields{
		Immediate: uint32(view.Read(iImmBit, iImmWidth)),
		RD:        int(view.Read(iRDBit, iRDWidth)),
		RS:        int(view.Read(iRSBit, iRSWidth)),
		Flags:     ast.LinkFlags(view.Read(iFlagsBit, iFlagsWidth)),
		Condition: ast.Condition(view.Read(iCondBit, iCondWidth)),
		Opcode:    OpCode(view.Read(iOpcodeBit, opcodeWidth)),
	}
}

// EncodeJ packs a J-type instruction word.
func EncodeJ(opcode OpCode, rs int, address uint32, link bool, flags ast.LinkFlags, cond ast.Condition) (uint64, error) {
	if err := checkField("opcode", uint64(opcode), opcodeWidth); err != nil {
		return 0, err
	}
	if err := checkField("rs", uint64(rs), jRSWidth); err != nil {
		return 0, err
	}
	if err := checkField("cond", uint64(cond), jCondWidth); err != nil {
		return 0, err
	}

	var word uint64
	view := bitpack.Of(&word)
	view.Write(uint64(address), jAddrBit, jAddrWidth)
	view.Write(uint64(flags), jFlagsBit, jFlagsWidth)
	view.Write(uint64(cond), jCondBit, jCondWidth)
	if link {
		view.Write(1, jLinkBit, 1)
	}
	view.Write(uint64(rs), jRSBit, jRSWidth)
	view.Write(uint64(opcode), jOpcodeBit, opcodeWidth)
	return word, nil
}

// JFields holds the decoded fields of a J-type word.
type JFields struct {
	Opcode    OpCode
	RS        int
	Address   uint32
	Link      bool
	Flags     ast.LinkFlags
	Condition ast.Condition
}

// DecodeJ unpacks a J-type instruction word.
func DecodeJ(word uint64) JFields {
	view := bitpack.Of(&word)
	return JFields{
		Address:   uint32(view.Read(jAddrBit, jAddrWidth)),
		Flags:     ast.LinkFlags(view.Read(jFlagsBit, jFlagsWidth)),
		Condition: ast.Condition(view.Read(jCondBit, jCondWidth)),
		Link:      view.Read(jLinkBit, 1) != 0,
		RS:        int(view.Read(jRSBit, jRSWidth)),
		Opcode:    OpCode(view.Read(jOpcodeBit, opcodeWidth)),
	}
}
