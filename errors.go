package depot

import (
	"errors"
	"fmt"
)

// ErrValidation is returned, wrapped, for input that has the wrong shape: a
// missing column, a duplicate instrument, a table with unexpected keys.
//
// These errors are fatal to a run and must stop it before any output is written.
var ErrValidation = errors.New("validation error")

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
