package back

import (
	"errors"
)

// The engine classifies every failure into one of a handful of kinds so
// external adapters can decide what to surface and what to retry without
// parsing messages.

// ErrValidation is malformed or missing input, retrying won't help.
type ErrValidation string

func (e ErrValidation) Error() string {
	return string(e)
}

// ErrDuplicate is a uniqueness violation (nickname, roster).
type ErrDuplicate string

func (e ErrDuplicate) Error() string {
	return string(e)
}

// ErrNotFound is an unknown ID or nickname.
type ErrNotFound string

func (e ErrNotFound) Error() string {
	return string(e)
}

// ErrConflict is a referential conflict, eg. deactivating a player with
// an in-flight match.
type ErrConflict string

func (e ErrConflict) Error() string {
	return string(e)
}

// ErrContention is lock or transaction contention, safe to retry with
// backoff.
type ErrContention string

func (e ErrContention) Error() string {
	return string(e)
}

// ErrStoreUnavailable means the persistence backend could not be reached
// at all.
var ErrStoreUnavailable = errors.New("store unavailable")

// IsRetryable tells an adapter whether backing off and resubmitting the
// same request can succeed.
func IsRetryable(err error) bool {
	var contention ErrContention
	return errors.As(err, &contention) || errors.Is(err, ErrStoreUnavailable)
}
