package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the syntax of a configuration document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for files whose extension maps to no Format.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// FormatOf maps a file extension (.yaml, .yml, .json) to its Format.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// FromFile reads path, expands ${VAR} references from the environment and
// parses the result in the format implied by the extension.
func FromFile(path string) (Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := Parse(format, []byte(os.ExpandEnv(string(data))))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.source = path
	return cfg, nil
}

// Parse decodes a document into a Config. An empty document yields an
// empty Config.
func Parse(format Format, data []byte) (Config, error) {
	var (
		m   map[string]any
		err error
	)
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatJSON:
		if len(strings.TrimSpace(string(data))) > 0 {
			err = json.Unmarshal(data, &m)
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", format, err)
	}
	return New(m), nil
}
