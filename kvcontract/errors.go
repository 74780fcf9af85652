package kvcontract

import "errors"

// Sentinel errors for the three contract violations an implementation must
// report at the call boundary, before mutating any state. Implementations
// wrap them with %w so callers can match via errors.Is.
var (
	// ErrInvalidKey marks an empty key or a key containing a reserved character.
	ErrInvalidKey = errors.New("cache: invalid key")

	// ErrInvalidTTL marks a ttl that is not nil, an integer second count or a duration.
	ErrInvalidTTL = errors.New("cache: invalid ttl")

	// ErrInvalidIterable marks a batch operation given a non-iterable collection.
	ErrInvalidIterable = errors.New("cache: invalid iterable")
)
