package gathering

import (
	"errors"
	"fmt"
	"strings"

	"gathering/pkg/persistence"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("no active session")

	// ErrStorage is persistence.ErrStorage, re-exported for callers that only
	// import this package.
	ErrStorage = persistence.ErrStorage
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// trimmed returns value without surrounding whitespace, failing when nothing
// is left.
func trimmed(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", validationError("%s cannot be empty", field)
	}
	return value, nil
}
