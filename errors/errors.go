// Package errors defines the sentinel errors shared by the stores and
// services. Callers match them with errors.Is; stores wrap them with
// context using fmt.Errorf("%w: ...").
package errors

import "fmt"

// Validation errors. Always recoverable, surfaced to the immediate caller.
var (
	ErrEmptyContent      = fmt.Errorf("message content is empty")
	ErrInvalidRoomKey    = fmt.Errorf("room key must be 64 lowercase hex characters")
	ErrInvalidPassword   = fmt.Errorf("password does not meet complexity rules")
	ErrInvalidUsername   = fmt.Errorf("invalid username")
	ErrPasswordMismatch  = fmt.Errorf("passwords do not match")
	ErrIncorrectPassword = fmt.Errorf("incorrect password")
	ErrNotText           = fmt.Errorf("clip payload is not text")
	ErrContentTooLong    = fmt.Errorf("message content exceeds the configured maximum")
)

// Not-found errors.
var (
	ErrUserNotFound = fmt.Errorf("user not found")
	ErrRoomNotFound = fmt.Errorf("room not found")
)

// Conflict errors. Duplicate membership is NOT here: recording the same
// (room, role) pair twice is an idempotent success, not a conflict.
var (
	ErrDuplicateUsername = fmt.Errorf("username already taken")
	ErrDuplicateIdentity = fmt.Errorf("identity key already registered")
)

// Operational errors.
var (
	// ErrStorage marks an I/O failure or a corrupt record. Fatal to the
	// operation; the store never retries internally.
	ErrStorage = fmt.Errorf("storage failure")
	// ErrContention is returned when a keyed lock cannot be acquired
	// before its timeout. The caller may retry with backoff.
	ErrContention = fmt.Errorf("lock acquisition timed out")
)

// Session and token errors.
var (
	ErrNotLoggedIn     = fmt.Errorf("no identity logged in")
	ErrTokenGeneration = fmt.Errorf("token generation failed")
)

// Collaborator errors.
var (
	// ErrDiscoveryClosed is returned by a discovery collaborator once it
	// has been shut down; no further topics can be announced.
	ErrDiscoveryClosed = fmt.Errorf("discovery closed")
)
