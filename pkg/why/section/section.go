// Package section implements the growable byte buffer with label anchors
// and deferred value slots that every assembled section (meta, code,
// data, symbols) is built from.
package section

import (
	"encoding/binary"
	"fmt"

	"github.com/whylang/wasmc/pkg/why/intern"
)

// Deferred records a reserved slot whose bytes are filled once an
// expression can be evaluated against the completed symbol environment.
type Deferred struct {
	Width int    // 4 or 8
	Expr  string // expression source text
}

// Section is an append-only byte buffer with a logical counter that
// tracks its own length, label anchors recorded at specific offsets, and
// deferred value slots awaiting expression evaluation.
type Section struct {
	Name     string
	Bytes    []byte
	Labels   map[uint64]intern.ID
	Deferred map[uint64]Deferred
}

// New creates an empty, named section.
func New(name string) *Section {
	return &Section{
		Name:     name,
		Labels:   make(map[uint64]intern.ID),
		Deferred: make(map[uint64]Deferred),
	}
}

// Counter returns the section's current logical length in bytes.
func (s *Section) Counter() uint64 {
	return uint64(len(s.Bytes))
}

// Size is an alias for Counter matching the driver's vocabulary.
func (s *Section) Size() uint64 {
	return s.Counter()
}

// AppendBytes appends raw bytes, advancing the counter in lockstep.
func (s *Section) AppendBytes(b []byte) uint64 {
	offset := s.Counter()
	s.Bytes = append(s.Bytes, b...)
	return offset
}

// AppendU64 appends a 64-bit little-endian word. Instruction words and
// data words are stored little-endian in the output stream per §6.
func (s *Section) AppendU64(v uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return s.AppendBytes(buf[:])
}

// AppendU64BE appends a 64-bit big-endian word, used for symbol-table and
// debug-record fields which pack big-endian within each word.
func (s *Section) AppendU64BE(v uint64) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return s.AppendBytes(buf[:])
}

// AppendString appends the raw bytes of s with no terminator; callers add
// a trailing NUL themselves when the format calls for one.
func (s *Section) AppendString(str string) uint64 {
	return s.AppendBytes([]byte(str))
}

// Reserve appends n zero bytes and returns the offset they start at, for
// space that will be patched in later (pseudo-instruction expansion slots,
// deferred values).
func (s *Section) Reserve(n int) uint64 {
	return s.AppendBytes(make([]byte, n))
}

// AlignUp pads with zero bytes until the counter is a multiple of n, which
// must be a power of two.
func (s *Section) AlignUp(n uint64) uint64 {
	if n == 0 || n&(n-1) != 0 {
		panic(fmt.Sprintf("section: alignment %d is not a power of two", n))
	}
	rem := s.Counter() % n
	if rem == 0 {
		return s.Counter()
	}
	s.Reserve(int(n - rem))
	return s.Counter()
}

// AnchorLabel records that id is anchored at the section's current
// counter.
func (s *Section) AnchorLabel(id intern.ID) {
	s.Labels[s.Counter()] = id
}

// DeferValue reserves width zero bytes and records expr as the expression
// whose evaluated value will later patch them. Returns the offset the
// reservation starts at.
func (s *Section) DeferValue(width int, expr string) uint64 {
	offset := s.Reserve(width)
	s.Deferred[offset] = Deferred{Width: width, Expr: expr}
	return offset
}

// Patch overwrites the bytes at offset with value, used to fill deferred
// slots and pseudo-instruction expansion reservations once their final
// contents are known. value must exactly fit within the section.
func (s *Section) Patch(offset uint64, value []byte) error {
	if offset+uint64(len(value)) > s.Counter() {
		return fmt.Errorf("section: patch at %d len %d exceeds section size %d", offset, len(value), s.Counter())
	}
	copy(s.Bytes[offset:], value)
	return nil
}

// Combine concatenates sections in order into a single byte slice,
// matching the original's Section::combine.
func Combine(sections ...*Section) []byte {
	var total int
	for _, s := range sections {
		total += len(s.Bytes)
	}
	out := make([]byte, 0, total)
	for _, s := range sections {
		out = append(out, s.Bytes...)
	}
	return out
}
