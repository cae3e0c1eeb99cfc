package domain

import "errors"

// ErrInvalidID and related errors describe validation failures.
var (
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidTitle       = errors.New("invalid title")
	ErrInvalidColumnID    = errors.New("invalid column id")
	ErrDuplicateColumn    = errors.New("duplicate column")
	ErrDuplicateTask      = errors.New("duplicate task")
	ErrStatusMismatch     = errors.New("task status does not match column")
	ErrInvalidMoveEvent   = errors.New("invalid move event")
	ErrUnknownDragKind    = errors.New("unknown drag kind")
	ErrPositionOutOfRange = errors.New("position out of range")
)
