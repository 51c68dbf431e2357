// Package logging provides leveled wrappers around the standard logger.
package logging

import (
	"io"
	"log"
)

// Infof logs an info-level message.
func Infof(format string, v ...any) {
	log.Printf("[INFO] "+format, v...)
}

// Warnf logs a warning-level message.
func Warnf(format string, v ...any) {
	log.Printf("[WARN] "+format, v...)
}

// Errorf logs an error-level message.
func Errorf(format string, v ...any) {
	log.Printf("[ERROR] "+format, v...)
}

// Fatalf logs a fatal error and exits.
func Fatalf(format string, v ...any) {
	log.Fatalf("[FATAL] "+format, v...)
}

// SetOutput redirects all log output, e.g. away from an alt-screen TUI.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}
