package intern_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whylang/wasmc/pkg/why/intern"
)

func TestInternStableIdentity(t *testing.T) {
	in := intern.New()

	a := in.Intern("main")
	b := in.Intern("main")
	c := in.Intern("end")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestInternRoundTrip(t *testing.T) {
	in := intern.New()

	id := in.Intern("start")
	assert.Equal(t, "start", in.String(id))

	found, ok := in.Lookup("start")
	require.True(t, ok)
	assert.Equal(t, id, found)

	_, ok = in.Lookup("nope")
	assert.False(t, ok)
}

func TestInternLen(t *testing.T) {
	in := intern.New()
	in.Intern("a")
	in.Intern("b")
	in.Intern("a")
	assert.Equal(t, 2, in.Len())
}
