package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Config is a parsed configuration document.
type Config struct {
	data   map[string]any
	source string
}

// New creates a Config from data. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// Source is the file the Config was read from, or "" when it was built
// in memory.
func (c Config) Source() string {
	return c.source
}

// Decode copies the document onto out, a pointer to a struct, matching
// keys against `mapstructure` tags. Fields the document does not mention
// keep their current value. Duration strings such as "10s" are converted.
// Keys that match no field are an error.
func (c Config) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(c.data); err != nil {
		if c.source != "" {
			return fmt.Errorf("decode %s: %w", c.source, err)
		}
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
