package domain

import "errors"

var (
	// ErrGeneratorUnavailable means no text generator is configured (missing credential or provider).
	ErrGeneratorUnavailable = errors.New("text generation unavailable")
	// ErrRegistryLoad wraps every fatal registry load problem.
	ErrRegistryLoad = errors.New(string(ReasonRegistryLoadFailed))
	// ErrInvalidRequest marks caller input that cannot be planned.
	ErrInvalidRequest = errors.New("invalid plan request")
)
