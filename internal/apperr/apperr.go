package apperr

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced session, routine, game or
	// user does not exist for the acting/target user.
	ErrNotFound = errors.New("record not found")

	// ErrPermission is returned when an action is refused before any
	// mutation: logging for a user who opted out of shared logging, or
	// accepting/rejecting a record you do not own.
	ErrPermission = errors.New("permission denied")

	// ErrState signals a caller contract violation (missing user/session
	// context). Fail fast instead of silently no-opping.
	ErrState = errors.New("invalid state")
)

// ValidationError carries every violated input constraint so clients can
// show actionable messages. No state is mutated when one is returned.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
