package domain

import "errors"

// ErrInvalid marks input that failed validation at the boundary.
var ErrInvalid = errors.New("invalid input")
