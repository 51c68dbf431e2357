package config

import (
	"fmt"
	"time"
)

// Duration decodes TOML strings such as "2s" or "1500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	if parsed <= 0 {
		return fmt.Errorf("duration %q must be positive", text)
	}
	d.Duration = parsed
	return nil
}
