package section_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whylang/wasmc/pkg/why/intern"
	"github.com/whylang/wasmc/pkg/why/section"
)

func TestAlignUpPadsToBoundary(t *testing.T) {
	s := section.New("code")
	s.AppendBytes([]byte{1, 2, 3})
	s.AlignUp(8)
	assert.Equal(t, uint64(8), s.Counter())
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0}, s.Bytes)
}

func TestAlignUpAlreadyAligned(t *testing.T) {
	s := section.New("code")
	s.Reserve(16)
	before := s.Counter()
	s.AlignUp(8)
	assert.Equal(t, before, s.Counter())
}

func TestAnchorLabel(t *testing.T) {
	in := intern.New()
	id := in.Intern("main")

	s := section.New("code")
	s.Reserve(8)
	s.AnchorLabel(id)

	assert.Equal(t, id, s.Labels[8])
}

func TestDeferValueAndPatch(t *testing.T) {
	s := section.New("data")
	offset := s.DeferValue(8, "label+4")
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, uint64(8), s.Counter())

	require.Contains(t, s.Deferred, offset)

	err := s.Patch(offset, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, s.Bytes)
}

func TestCombine(t *testing.T) {
	a := section.New("a")
	a.AppendBytes([]byte{1, 2})
	b := section.New("b")
	b.AppendBytes([]byte{3, 4})

	combined := section.Combine(a, b)
	assert.Equal(t, []byte{1, 2, 3, 4}, combined)
}
