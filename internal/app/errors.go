package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrServiceClosed   = errors.New("service closed")
	ErrSaveFailed      = errors.New("save board")
)
