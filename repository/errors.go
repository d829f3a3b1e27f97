package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict means a guarded update matched no document, i.e. the entity
	// was not in the state the caller required.
	ErrConflict = errors.New("conflict")
)
