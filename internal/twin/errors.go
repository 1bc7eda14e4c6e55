package twin

import "errors"

var (
	// ErrFormat marks a metadata value that cannot be coerced to its type.
	ErrFormat = errors.New("twin: invalid format")
	// ErrIllegalInput marks a metadata record that cannot be constructed.
	ErrIllegalInput = errors.New("twin: illegal input")
)
