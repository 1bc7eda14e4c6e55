package connstr

import "errors"

var (
	// ErrFormat marks malformed descriptor text: bad tokenization or a value
	// that does not match its required pattern.
	ErrFormat = errors.New("connstr: invalid format")
	// ErrIllegalInput marks a structurally invalid call or identity.
	ErrIllegalInput = errors.New("connstr: illegal input")
)
