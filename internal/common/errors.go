package common

import "errors"

// Business error taxonomy. Repositories and handlers communicate outcomes
// through these sentinels (wrapped with %w); the HTTP layer maps them to
// status codes in exactly one place.
var (
	// ErrNotFound: the entity is absent or soft-deleted.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden: authenticated but not authorized — not a room member,
	// wrong role, not the sender/owner. Absence of a membership row is an
	// authorization failure, not a lookup failure.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict: a uniqueness rule was violated — duplicate reaction,
	// duplicate pin, duplicate private room, duplicate contact.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput: malformed or contradictory parameters — bad cursor,
	// empty id set, reply outside the room.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated: missing or invalid credential.
	ErrUnauthenticated = errors.New("unauthenticated")
)
