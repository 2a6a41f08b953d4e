// Package debuginfo encodes the debug section: Filename/Function records
// declared verbatim, and Location records synthesized by correlating each
// expanded instruction's "bang" back-reference with runs of identical
// debug entries.
package debuginfo

import (
	"errors"
	"fmt"

	"github.com/whylang/wasmc/pkg/why/ast"
	"github.com/whylang/wasmc/pkg/why/section"
)

// RecordType is the debug record's wire tag.
type RecordType uint8

const (
	RecordFilename RecordType = 1
	RecordFunction RecordType = 2
	RecordLocation RecordType = 3
)

// ErrDanglingBang is returned when an instruction's bang does not name a
// Location entry.
var ErrDanglingBang = errors.New("debuginfo: bang does not reference a Location entry")

// ErrRunTooLong is returned when more than 255 consecutive instructions
// share the same bang.
var ErrRunTooLong = errors.New("debuginfo: location run exceeds 255 instructions")

// ErrFieldOutOfRange is returned when a Location field exceeds its width
// limit.
var ErrFieldOutOfRange = errors.New("debuginfo: field out of range")

const (
	maxIndex24 = 0xffffff
	maxLine32  = 0xffffffff
)

// InstructionBang pairs an instruction's address with its debug bang, the
// minimal shape the driver needs to drive location-run detection.
type InstructionBang struct {
	Address uint64
	Bang    int // -1 if absent
}

// EncodeDeclared writes every declared Filename/Function record from
// entries, in order, skipping Location declarations (handled separately
// by EncodeLocations since those require the expanded instruction list).
func EncodeDeclared(sec *section.Section, entries []ast.DebugDecl) error {
	for _, e := range entries {
		switch e.Kind {
		case ast.DebugFilename:
			encodeLengthPrefixed(sec, RecordFilename, e.Value)
		case ast.DebugFunction:
			encodeLengthPrefixed(sec, RecordFunction, e.Value)
		case ast.DebugLocation:
			// handled by EncodeLocations
		}
	}
	return nil
}

func encodeLengthPrefixed(sec *section.Section, typ RecordType, value string) {
	b := []byte(value)
	header := make([]byte, 4)
	header[0] = byte(typ)
	header[1] = byte(len(b) >> 16)
	header[2] = byte(len(b) >> 8)
	header[3] = byte(len(b))
	sec.AppendBytes(header)
	sec.AppendBytes(b)
	sec.AlignUp(8)
}

// EncodeLocations walks instructions in address order, and for every run
// of consecutive instructions sharing the same non-absent bang, looks up
// that bang's Location declaration and emits one packed record:
// [type=3:u8, fileIdx:u24, line:u32, column:u24, count:u8, funcIdx:u32, address:u64].
func EncodeLocations(sec *section.Section, entries []ast.DebugDecl, instructions []InstructionBang) error {
	i := 0
	for i < len(instructions) {
		bang := instructions[i].Bang
		if bang == -1 {
			i++
			continue
		}

		if bang < 0 || bang >= len(entries) || entries[bang].Kind != ast.DebugLocation {
			return fmt.Errorf("%w: bang %d", ErrDanglingBang, bang)
		}
		loc := entries[bang]

		count := 1
		for i+count < len(instructions) && instructions[i+count].Bang == bang && count < 255 {
			count++
		}
		if i+count < len(instructions) && instructions[i+count].Bang == bang {
			return fmt.Errorf("%w: bang %d", ErrRunTooLong, bang)
		}

		if err := checkRange("fileIndex", uint64(loc.FileIndex), maxIndex24); err != nil {
			return err
		}
		if err := checkRange("line", uint64(loc.Line), maxLine32); err != nil {
			return err
		}
		if err := checkRange("column", uint64(loc.Column), maxIndex24); err != nil {
			return err
		}
		if err := checkRange("functionIndex", uint64(loc.FuncIndex), maxIndex24); err != nil {
			return err
		}

		address := instructions[i].Address

		word0 := uint64(RecordLocation)<<56 | uint64(loc.FileIndex&0xffffff)<<32 | uint64(loc.Line)
		word1 := uint64(loc.Column&0xffffff)<<40 | uint64(count)<<32 | uint64(loc.FuncIndex)
		sec.AppendU64BE(word0)
		sec.AppendU64BE(word1)
		sec.AppendU64BE(address)

		i += count
	}
	return nil
}

func checkRange(name string, value uint64, max uint64) error {
	if value > max {
		return fmt.Errorf("%w: %s=%d exceeds %d", ErrFieldOutOfRange, name, value, max)
	}
	return nil
}
