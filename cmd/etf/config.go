package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/diodechain/goetf"
)

// Config holds the settings shared by every subcommand. It is read
// from the single file named by --config or ETF_CONFIG; there is no
// search path.
type Config struct {
	// MaxDepth bounds term nesting on decode and encode.
	MaxDepth int `yaml:"max_depth"`

	// MaxInflatedSize caps the declared size of compressed input terms.
	MaxInflatedSize uint32 `yaml:"max_inflated_size"`

	// Compression is the zlib level used by encode, 0 for none.
	Compression int `yaml:"compression"`

	// Format is the output format of decode: json, yaml or cbor.
	Format string `yaml:"format"`
}

func DefaultConfig() Config {
	return Config{
		MaxDepth:        etf.DefaultMaxDepth,
		MaxInflatedSize: etf.DefaultMaxInflatedSize,
		Format:          "json",
	}
}

// LoadConfig reads path on top of the defaults. An empty path yields
// the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

func (c Config) Validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.Compression < 0 || c.Compression > 9 {
		return fmt.Errorf("compression must be between 0 and 9, got %d", c.Compression)
	}
	switch c.Format {
	case "json", "yaml", "cbor":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}

func (c Config) Options() []etf.Option {
	return []etf.Option{
		etf.WithMaxDepth(c.MaxDepth),
		etf.WithMaxInflatedSize(c.MaxInflatedSize),
		etf.WithCompression(c.Compression),
	}
}
