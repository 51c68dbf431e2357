package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by typequest.
const (
	EnvUser     = "TYPEQUEST_USER"
	EnvDBDriver = "TYPEQUEST_DB_DRIVER"
	EnvDBDSN    = "TYPEQUEST_DB_DSN"
)

// LoadDotenv loads .env files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotenv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// EnvString returns the trimmed value of key, if set and non-empty.
func EnvString(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}
