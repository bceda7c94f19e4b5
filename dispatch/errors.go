package dispatch

import "errors"

var (
	ErrNotFound     = errors.New("dispatch: entry not found")
	ErrDuplicateKey = errors.New("dispatch: duplicate key")
	ErrTypeMismatch = errors.New("dispatch: type mismatch")
	ErrSealed       = errors.New("dispatch: table is sealed")
	ErrInvalidEntry = errors.New("dispatch: invalid entry")
)
