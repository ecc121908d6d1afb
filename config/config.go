// Package config loads hashing options from a YAML or JSON file.
//
// Example (YAML):
//
//	algorithm: sha256
//	output_encoding: base64
//	sort_arrays: true
//	include_primitive_types: true
//
// Unknown keys are rejected. Empty fields take the digest package defaults.
package config

import (
	"errors"
	"os"

	"sigs.k8s.io/yaml"

	"xdao.co/hashit/canon"
	"xdao.co/hashit/digest"
)

// Config is the file form of digest.Options.
type Config struct {
	Algorithm      string `json:"algorithm,omitempty"`
	InputEncoding  string `json:"input_encoding,omitempty"`
	OutputEncoding string `json:"output_encoding,omitempty"`

	SortArrays              bool `json:"sort_arrays,omitempty"`
	IncludePrimitiveTypes   bool `json:"include_primitive_types,omitempty"`
	IncludeConstructorNames bool `json:"include_constructor_names,omitempty"`
}

// LoadFile reads and validates the config at path.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, canon.WrapError(canon.KindConfiguration, "HASHIT-CONF-004", "config: load", errors.New("empty config path"))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(b)
}

// Parse decodes and validates a YAML or JSON document.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
		return cfg, canon.WrapError(canon.KindConfiguration, "HASHIT-CONF-004", "config: parse", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports unknown algorithms and encodings.
func (c Config) Validate() error {
	return c.Options().Validate()
}

// Options converts c to digest options with defaults applied.
func (c Config) Options() digest.Options {
	return digest.Options{
		Options: canon.Options{
			SortArrays:              c.SortArrays,
			IncludePrimitiveTypes:   c.IncludePrimitiveTypes,
			IncludeConstructorNames: c.IncludeConstructorNames,
		},
		Algorithm:      c.Algorithm,
		InputEncoding:  c.InputEncoding,
		OutputEncoding: c.OutputEncoding,
	}.WithDefaults()
}

// FromOptions is the inverse of Options. The registry is not carried.
func FromOptions(o digest.Options) Config {
	return Config{
		Algorithm:               o.Algorithm,
		InputEncoding:           o.InputEncoding,
		OutputEncoding:          o.OutputEncoding,
		SortArrays:              o.SortArrays,
		IncludePrimitiveTypes:   o.IncludePrimitiveTypes,
		IncludeConstructorNames: o.IncludeConstructorNames,
	}
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
