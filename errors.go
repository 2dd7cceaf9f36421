package canfly

import (
	"errors"
	"fmt"
)

var (
	// ErrBadParameter reports a nil argument or a frame that does not match
	// what the requested operation expects.
	ErrBadParameter = errors.New("canfly: bad parameter")
	// ErrBadType reports a conversion between incompatible kinds.
	ErrBadType = errors.New("canfly: bad type")
	// ErrOutOfRange reports a value that cannot be represented in the
	// destination kind without loss.
	ErrOutOfRange = errors.New("canfly: value out of range")
	// ErrMalformed reports an internally inconsistent message. It wraps
	// ErrBadParameter.
	ErrMalformed = fmt.Errorf("%w: malformed message", ErrBadParameter)
)
