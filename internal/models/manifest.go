package models

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed embedded_manifest.yaml
var embeddedManifest []byte

// Variant describes one downloadable ggml model file.
type Variant struct {
	DisplayName string `yaml:"display_name"`
	Filename    string `yaml:"filename"`
	URL         string `yaml:"url"`
	// SHA256 and SizeBytes are verified after download when set.
	SHA256    string `yaml:"sha256,omitempty"`
	SizeBytes int64  `yaml:"size_bytes,omitempty"`
}

// Manifest maps variant names onto model files.
type Manifest struct {
	Variants map[string]Variant `yaml:"variants"`
}

// Names returns the variant names in sorted order.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m.Variants))
	for name := range m.Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultManifest returns the manifest compiled into the binary.
func DefaultManifest() (Manifest, error) {
	return LoadManifest(bytes.NewReader(embeddedManifest))
}

// LoadManifest decodes a YAML manifest and checks every variant names a file.
func LoadManifest(r io.Reader) (Manifest, error) {
	var manifest Manifest
	if err := yaml.NewDecoder(r).Decode(&manifest); err != nil {
		return Manifest{}, fmt.Errorf("models: decode manifest: %w", err)
	}
	for name, variant := range manifest.Variants {
		if variant.Filename == "" {
			return Manifest{}, fmt.Errorf("models: variant %q has no filename", name)
		}
	}
	return manifest, nil
}

// WriteManifest encodes the manifest as YAML.
func WriteManifest(w io.Writer, manifest Manifest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("models: encode manifest: %w", err)
	}
	return enc.Close()
}
