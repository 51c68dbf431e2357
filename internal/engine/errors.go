package engine

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/typequest/internal/model"
)

// ErrNotAuthenticated is returned when no current user is available.
var ErrNotAuthenticated = errors.New("not authenticated")

// ConfigurationError reports a mode whose text pool cannot produce a target.
type ConfigurationError struct {
	Mode model.Mode
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for mode %s: %v", e.Mode, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a failure from the stats or achievement store.
type PersistenceError struct {
	// Op names the store operation, e.g. "update stats".
	Op     string
	UserID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s for user %s: %v", e.Op, e.UserID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
