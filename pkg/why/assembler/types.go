package assembler

// RelocationKind discriminates how a relocation's target bytes must be
// patched by a downstream linker.
type RelocationKind int

const (
	// RelocationLower4 patches the low 4 bytes of an 8-byte instruction
	// word: the immediate field of a non-Lui I/J-type reference.
	RelocationLower4 RelocationKind = iota
	// RelocationUpper4 patches the low 4 bytes the same way, but marks
	// the reference as a Lui high-bits load.
	RelocationUpper4
	// RelocationFull patches all 8 bytes of a `.value` data word.
	RelocationFull
)

// Relocation records one location whose bytes reference a symbol by table
// index rather than carrying its address directly, for a downstream
// linker to patch once symbols resolve across object files. SymbolIndex
// is -1 for a `.value` relocation, whose addend is an arbitrary
// expression rather than a single symbol reference; Offset then carries
// the expression's evaluated value instead of a symbol-relative addend.
type Relocation struct {
	Kind          RelocationKind
	SymbolIndex   int
	Offset        int64
	SectionOffset uint64 // absolute offset in the final concatenated object
}

// Offsets are the five absolute section offsets stored in the meta
// header. The header stores them in the order Symbols, Code, Data, Debug,
// End, which differs from the field order here.
type Offsets struct {
	Code    uint64
	Data    uint64
	Symbols uint64
	Debug   uint64
	End     uint64
}

// Result is the outcome of a successful Assemble: the final object bytes,
// the section offsets recorded in its header, the relocation table, and
// the set of symbols that never resolved to a local address.
type Result struct {
	Binary         []byte
	Offsets        Offsets
	Relocations    []Relocation
	UnknownSymbols []string
}
