// Package intern canonicalizes label and register strings so identity
// comparison over small integer ids can replace string comparison
// everywhere labels flow through the assembler.
package intern

// ID identifies an interned string. The zero value never denotes a real
// string; Interner.Intern always returns ids starting at 1 so a missing
// entry in a map keyed by ID is distinguishable from the empty string.
type ID uint32

// Interner maps strings to stable small integer ids. It is process-scoped,
// single-threaded state with a lifetime equal to one assembler run: reads
// after the last write are safe, but concurrent writes are not serialized.
type Interner struct {
	ids     map[string]ID
	strings []string
}

// New creates an empty Interner.
func New() *Interner {
	return &Interner{
		ids:     make(map[string]ID),
		strings: []string{""},
	}
}

// Intern returns the canonical id for s, assigning a new one on first sight.
func (in *Interner) Intern(s string) ID {
	if id, ok := in.ids[s]; ok {
		return id
	}
	id := ID(len(in.strings))
	in.strings = append(in.strings, s)
	in.ids[s] = id
	return id
}

// Lookup returns the id already assigned to s, if any.
func (in *Interner) Lookup(s string) (ID, bool) {
	id, ok := in.ids[s]
	return id, ok
}

// String returns the string behind id. Panics if id was never interned by
// this Interner.
func (in *Interner) String(id ID) string {
	if int(id) >= len(in.strings) || id == 0 {
		panic("intern: id not interned by this Interner")
	}
	return in.strings[id]
}

// Len reports how many distinct strings have been interned.
func (in *Interner) Len() int {
	return len(in.strings) - 1
}
