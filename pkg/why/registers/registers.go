// Package registers implements the bidirectional mapping between the 128
// architectural register names of the Why ISA and their indices.
package registers

import (
	"errors"
	"fmt"
)

// ErrUnknownRegister is returned when a name or index has no corresponding
// register.
var ErrUnknownRegister = errors.New("registers: unknown register")

// Zero is the index of the hardwired zero register, $0.
const Zero = 0

// Scratch is the index of $m7, the register the assembler is free to
// clobber while lowering pseudo-instructions.
const Scratch = 109

// Count is the total number of architectural registers.
const Count = 128

// names holds every register name in index order, copied from the
// reference register table.
var names = [Count]string{
	"$0", "$g", "$sp", "$fp", "$rt", "$lo", "$hi",
	"$r0", "$r1", "$r2", "$r3", "$r4", "$r5", "$r6", "$r7", "$r8", "$r9",
	"$ra", "$rb", "$rc", "$rd", "$re", "$rf",
	"$a0", "$a1", "$a2", "$a3", "$a4", "$a5", "$a6", "$a7", "$a8", "$a9",
	"$aa", "$ab", "$ac", "$ad", "$ae", "$af",
	"$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7", "$t8", "$t9",
	"$ta", "$tb", "$tc", "$td", "$te", "$tf",
	"$t10", "$t11", "$t12", "$t13", "$t14", "$t15", "$t16",
	"$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7", "$s8", "$s9",
	"$sa", "$sb", "$sc", "$sd", "$se", "$sf",
	"$s10", "$s11", "$s12", "$s13", "$s14", "$s15", "$s16",
	"$k0", "$k1", "$k2", "$k3", "$k4", "$k5", "$k6", "$k7", "$k8", "$k9",
	"$ka", "$kb", "$kc", "$kd", "$ke", "$kf",
	"$st",
	"$m0", "$m1", "$m2", "$m3", "$m4", "$m5", "$m6", "$m7", "$m8", "$m9",
	"$ma", "$mb", "$mc", "$md", "$me", "$mf",
	"$f0", "$f1", "$f2", "$f3",
	"$e0", "$e1", "$e2", "$e3", "$e4", "$e5",
}

// Table is the bidirectional register name <-> index mapping. Its zero
// value is unusable; construct one with NewTable.
type Table struct {
	byName map[string]int
}

// NewTable builds the 128-entry register table.
func NewTable() *Table {
	t := &Table{byName: make(map[string]int, Count)}
	for i, name := range names {
		t.byName[name] = i
	}
	return t
}

// Index looks up a register by name.
func (t *Table) Index(name string) (int, error) {
	idx, ok := t.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRegister, name)
	}
	return idx, nil
}

// Name looks up a register's canonical name by index.
func (t *Table) Name(index int) (string, error) {
	if index < 0 || index >= Count {
		return "", fmt.Errorf("%w: index %d", ErrUnknownRegister, index)
	}
	return names[index], nil
}

// Valid reports whether index is a valid register index.
func Valid(index int) bool {
	return index >= 0 && index < Count
}
