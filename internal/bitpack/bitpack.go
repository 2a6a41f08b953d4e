// Package bitpack provides a read/write view over fixed-width unsigned
// integers, used to pack and unpack the heterogeneous bit fields of an
// encoded instruction word. It is a thin, instruction-word-flavored face
// on top of pkg/utils' generic bit view.
package bitpack

import (
	"golang.org/x/exp/constraints"

	"github.com/whylang/wasmc/pkg/utils"
)

const BitsPerByte = utils.BitsPerByte

// AllOnes returns a mask with the low `bits` bits set.
func AllOnes[T constraints.Unsigned](bits int) T {
	if bits <= 0 {
		return 0
	}
	return utils.AllOnes[T](bits)
}

// View is a read/write window over the bits of a single unsigned integer.
type View[T constraints.Unsigned] struct {
	inner utils.BitView[T]
}

// Of creates a View over value.
func Of[T constraints.Unsigned](value *T) View[T] {
	return View[T]{inner: utils.CreateBitView(value)}
}

func (v View[T]) Value() T {
	return v.inner.Value()
}

// Read extracts width bits starting at bit.
func (v View[T]) Read(bit int, width int) T {
	return v.inner.Read(bit, width)
}

// Write ORs value (truncated to width bits) into the range [bit, bit+width).
// Callers must ensure the destination range is zero before writing, as this
// never clears bits outside of the supplied value.
func (v View[T]) Write(value T, bit int, width int) {
	v.inner.Write(value, bit, width)
}
