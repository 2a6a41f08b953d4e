// Package symtab builds the symbol table: SHA-256-derived 32-bit symbol
// ids with collision detection, and entry serialization for the binary
// object format. Entries are added first, their addresses patched in with
// SetAddress, and the table is then encoded once.
package symtab

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/whylang/wasmc/pkg/why/section"
)

// ErrHashCollision is returned when two distinct names hash to the same
// 32-bit symbol id.
var ErrHashCollision = errors.New("symtab: hash collision")

// ErrNameTooLong is returned when a name packs into more than 0xffff
// eight-byte words.
var ErrNameTooLong = errors.New("symtab: name too long")

// MaxNameWords is the largest permitted name length in 8-byte chunks.
const MaxNameWords = 0xffff

// Type is a symbol's kind, used by the linker to decide how references to
// it may be patched.
type Type uint16

const (
	TypeUnknown Type = iota
	TypeKnownPointer
	TypeUnknownPointer
	TypeCode
	TypeData
)

func (t Type) String() string {
	switch t {
	case TypeKnownPointer:
		return "known_pointer"
	case TypeUnknownPointer:
		return "unknown_pointer"
	case TypeCode:
		return "code"
	case TypeData:
		return "data"
	default:
		return "unknown"
	}
}

// EncodeSymbol derives a label's 32-bit id: SHA-256 of its raw bytes,
// reading bytes 4..7 as a little-endian u32.
func EncodeSymbol(name string) uint32 {
	digest := sha256.Sum256([]byte(name))
	return binary.LittleEndian.Uint32(digest[4:8])
}

// Entry is one symbol table row.
type Entry struct {
	ID      uint32
	Address uint64
	Type    Type
	Name    string
}

// Table is the ordered sequence of symbol entries being assembled.
type Table struct {
	entries []Entry
	byName  map[string]int
	byID    map[uint32]string
}

// New creates an empty symbol table.
func New() *Table {
	return &Table{
		byName: make(map[string]int),
		byID:   make(map[uint32]string),
	}
}

// Add inserts name with the given type, computing its id and checking for
// a hash collision against every previously added name. Returns the new
// entry's index.
func (t *Table) Add(name string, typ Type) (int, error) {
	id := EncodeSymbol(name)
	if existing, ok := t.byID[id]; ok && existing != name {
		return 0, fmt.Errorf("%w: %q and %q both hash to id %08x", ErrHashCollision, existing, name, id)
	}
	idx := len(t.entries)
	t.entries = append(t.entries, Entry{ID: id, Type: typ, Name: name})
	t.byName[name] = idx
	t.byID[id] = name
	return idx, nil
}

// Index returns the table index of a previously added name.
func (t *Table) Index(name string) (int, bool) {
	idx, ok := t.byName[name]
	return idx, ok
}

// SetAddress patches the address of the entry at idx.
func (t *Table) SetAddress(idx int, address uint64) {
	t.entries[idx].Address = address
}

// SetType patches the type of the entry at idx, used once %ref pointer
// aliases are resolved to KnownPointer/UnknownPointer.
func (t *Table) SetType(idx int, typ Type) {
	t.entries[idx].Type = typ
}

// Entries returns the entries in insertion order.
func (t *Table) Entries() []Entry {
	return t.entries
}

// Len returns the number of entries, including any sentinel already
// added.
func (t *Table) Len() int {
	return len(t.entries)
}

// NameWordCount returns how many 8-byte words name packs into, without
// actually packing it; used to size the symbol table before encoding.
func NameWordCount(name string) int {
	if len(name) == 0 {
		return 1
	}
	return (len(name) + 7) / 8
}

// packNameWords packs name into big-endian 8-byte words, zero-padding the
// last word on the low end. An empty name packs to a single zero word.
func packNameWords(name string) []uint64 {
	b := []byte(name)
	if len(b) == 0 {
		return []uint64{0}
	}
	words := make([]uint64, 0, (len(b)+7)/8)
	for i := 0; i < len(b); i += 8 {
		var chunk [8]byte
		end := i + 8
		if end > len(b) {
			end = len(b)
		}
		copy(chunk[:], b[i:end])
		words = append(words, binary.BigEndian.Uint64(chunk[:]))
	}
	return words
}

// Decode parses a previously-encoded symbol table section back into
// entries, the inverse of Encode. Names are recovered from their packed
// words with trailing zero bytes trimmed, so the original name is only
// exact when it didn't itself contain embedded NULs.
func Decode(data []byte) ([]Entry, error) {
	var entries []Entry
	for off := 0; off < len(data); {
		if off+16 > len(data) {
			return nil, fmt.Errorf("symtab: truncated entry header at offset %d", off)
		}
		header := binary.LittleEndian.Uint64(data[off : off+8])
		address := binary.LittleEndian.Uint64(data[off+8 : off+16])
		off += 16

		nameWords := int(header & 0xffff)
		typ := Type((header >> 16) & 0xffff)
		id := uint32(header >> 32)

		nameBytes := nameWords * 8
		if off+nameBytes > len(data) {
			return nil, fmt.Errorf("symtab: truncated name at offset %d", off)
		}
		var name []byte
		for i := 0; i < nameWords; i++ {
			var chunk [8]byte
			binary.BigEndian.PutUint64(chunk[:], binary.LittleEndian.Uint64(data[off:off+8]))
			name = append(name, chunk[:]...)
			off += 8
		}
		for len(name) > 0 && name[len(name)-1] == 0 {
			name = name[:len(name)-1]
		}

		entries = append(entries, Entry{ID: id, Address: address, Type: typ, Name: string(name)})
	}
	return entries, nil
}

// Encode serializes every entry into sec: a header word
// (name_length_in_8byte_chunks | type<<16 | id<<32), an address word, then
// the packed name words.
func (t *Table) Encode(sec *section.Section) error {
	for _, e := range t.entries {
		nameWords := packNameWords(e.Name)
		if len(nameWords) > MaxNameWords {
			return fmt.Errorf("%w: %q packs to %d words", ErrNameTooLong, e.Name, len(nameWords))
		}
		header := uint64(len(nameWords)) | uint64(e.Type)<<16 | uint64(e.ID)<<32
		sec.AppendU64(header)
		sec.AppendU64(e.Address)
		for _, w := range nameWords {
			sec.AppendU64(w)
		}
	}
	return nil
}
