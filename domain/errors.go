package domain

import "errors"

// Sentinel errors returned by engine operations. Callers should use
// errors.Is/errors.As rather than matching on error strings.
var (
	// ErrInvalidInput is returned when a caller-supplied argument violates
	// an operation's documented precondition (e.g. a negative quiz
	// question count, or an Options bundle that fails validation).
	ErrInvalidInput = errors.New("eduengine: invalid input")

	// ErrNotFound names the not-found error kind. Queries over an absent
	// subject report it with a boolean result (for example
	// progress.Tracker.SubjectProgress) and do not return this error.
	ErrNotFound = errors.New("eduengine: not found")

	// ErrPersistenceFailure is wrapped by the errors LocalStore.Save
	// returns for an encode or write failure. The engines discard those
	// errors, so it is never propagated past the facade; callers that
	// talk to LocalStore directly may still observe it.
	ErrPersistenceFailure = errors.New("eduengine: persistence failure")
)
