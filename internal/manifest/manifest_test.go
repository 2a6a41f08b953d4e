package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whylang/wasmc/internal/manifest"
)

func TestMergeFillsEmptyFields(t *testing.T) {
	m := manifest.Manifest{Name: "x"}
	merged := manifest.Merge(m, manifest.Default())

	assert.Equal(t, "x", merged.Name)
	assert.Equal(t, "?", merged.Version)
	assert.Equal(t, manifest.DefaultOrcid, merged.Orcid)
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	m, err := manifest.Load(t.TempDir())
	assert.NoError(t, err)
	assert.Equal(t, manifest.Default(), m)
}
