package schema

import (
	"fmt"
	"io"
	"os"

	yaml "github.com/goccy/go-yaml"
)

// PresetClaimsV1 selects ClaimsV1 in a configuration file.
const PresetClaimsV1 = "claims/v1"

// Config is the injected configuration for one query session.
type Config struct {
	Descriptor Descriptor
	Depths     DepthTable
}

type configYAML struct {
	Preset string      `yaml:"preset,omitempty"`
	Schema *Descriptor `yaml:"schema,omitempty"`
	Depths DepthTable  `yaml:"depths"`
}

// Load decodes a YAML configuration of the form
//
//	preset: claims/v1      # or an explicit schema: {name, version, levels}
//	depths:
//	  member_id: 1
//	  claim_type: 3
func Load(r io.Reader) (*Config, error) {
	var raw configYAML
	if err := yaml.NewDecoder(r, yaml.DisallowUnknownField()).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode YAML: %v", ErrInvalidSchema, err)
	}

	var desc Descriptor
	switch {
	case raw.Schema != nil && raw.Preset != "":
		return nil, fmt.Errorf("%w: preset and schema are mutually exclusive", ErrInvalidSchema)
	case raw.Schema != nil:
		desc = *raw.Schema
	case raw.Preset == PresetClaimsV1:
		desc = ClaimsV1()
	case raw.Preset != "":
		return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalidSchema, raw.Preset)
	default:
		return nil, fmt.Errorf("%w: either preset or schema is required", ErrInvalidSchema)
	}

	cfg := &Config{Descriptor: desc, Depths: raw.Depths}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile reads a configuration from disk.
func LoadFile(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file %s: %w", filename, err)
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Descriptor.Validate(); err != nil {
		return err
	}
	return c.Depths.Validate()
}
