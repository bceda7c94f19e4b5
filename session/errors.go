package session

import "errors"

var (
	// ErrSchemaMismatch is returned when peers registered different
	// dispatch tables.
	ErrSchemaMismatch = errors.New("session: schema mismatch")
	// ErrVersionMismatch is returned when peers speak different protocol
	// versions.
	ErrVersionMismatch = errors.New("session: version mismatch")
	// ErrSessionMismatch is returned when a hello belongs to another session.
	ErrSessionMismatch = errors.New("session: session id mismatch")
	// ErrNotConnected is returned for peers that did not complete the
	// handshake.
	ErrNotConnected = errors.New("session: peer not connected")
	// ErrUnknownMessage is returned for messages with an unknown kind byte.
	ErrUnknownMessage = errors.New("session: unknown message")
	// ErrWrongRole is returned when an operation is not available in the
	// session role.
	ErrWrongRole = errors.New("session: operation not available in role")
)
