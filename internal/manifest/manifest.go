// Package manifest loads wasmc.yaml, the project manifest supplying
// fallback object metadata (name, version, author, orcid) when the AST's
// meta header leaves a field empty.
package manifest

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the typed project metadata file.
type Manifest struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Author  string `yaml:"author"`
	Orcid   string `yaml:"orcid"`
}

// DefaultOrcid is used when neither the AST nor the manifest supplies one.
const DefaultOrcid = "0000000000000000"

// Default returns a manifest with every field defaulted, matching the
// original assembler's processMetadata fallbacks.
func Default() Manifest {
	return Manifest{
		Name:    "?",
		Version: "?",
		Author:  "?",
		Orcid:   DefaultOrcid,
	}
}

// Load reads wasmc.yaml from dir, falling back to $HOME/wasmc.yaml, then
// to Default() if neither exists. A missing file is not an error.
func Load(dir string) (Manifest, error) {
	candidates := []string{filepath.Join(dir, "wasmc.yaml")}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, "wasmc.yaml"))
	}

	for _, path := range candidates {
		b, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Manifest{}, err
		}
		m := Default()
		if err := yaml.Unmarshal(b, &m); err != nil {
			return Manifest{}, err
		}
		return m, nil
	}
	return Default(), nil
}

// Merge fills any empty field of m with its counterpart from fallback.
func Merge(m, fallback Manifest) Manifest {
	if m.Name == "" {
		m.Name = fallback.Name
	}
	if m.Version == "" {
		m.Version = fallback.Version
	}
	if m.Author == "" {
		m.Author = fallback.Author
	}
	if m.Orcid == "" {
		m.Orcid = fallback.Orcid
	}
	return m
}
