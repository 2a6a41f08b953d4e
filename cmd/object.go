package cmd

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/whylang/wasmc/pkg/why/assembler"
)

// ErrObjectTooShort is returned when a file is smaller than the fixed
// 40-byte offset header every wasmc object carries.
var ErrObjectTooShort = errors.New("wasmc: file too short to be a wasmc object")

// readObjectOffsets parses the five absolute section offsets from the
// start of an assembled object's meta section, in the order
// patchMetaHeader writes them.
func readObjectOffsets(data []byte) (assembler.Offsets, error) {
	if len(data) < 40 {
		return assembler.Offsets{}, fmt.Errorf("%w: %d bytes", ErrObjectTooShort, len(data))
	}
	return assembler.Offsets{
		Symbols: binary.LittleEndian.Uint64(data[0:8]),
		Code:    binary.LittleEndian.Uint64(data[8:16]),
		Data:    binary.LittleEndian.Uint64(data[16:24]),
		Debug:   binary.LittleEndian.Uint64(data[24:32]),
		End:     binary.LittleEndian.Uint64(data[32:40]),
	}, nil
}
