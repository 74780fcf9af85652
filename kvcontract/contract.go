package kvcontract

import "context"

// Cache is the key-value cache contract verified by the conformance suite.
//
// Dynamic arguments keep the malformed shapes representable: ttl accepts
// nil, int/int64 seconds or a time.Duration; key collections accept a
// []string or an iter.Seq[string]; item collections accept []Entry or an
// iter.Seq2[string, any]. Anything else must be rejected with the matching
// sentinel error before any state changes.
type Cache interface {
	// Get returns the stored value for key, or def when key is absent or expired.
	Get(ctx context.Context, key string, def any) (any, error)

	// Set stores value under key. The TTL attaches to this write and is
	// immutable afterwards; a ttl <= 0 means the entry is already expired.
	Set(ctx context.Context, key string, value any, ttl any) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every key in the cache scope.
	Clear(ctx context.Context) error

	// Has reports whether key holds a live value.
	Has(ctx context.Context, key string) (bool, error)

	// GetMultiple resolves each requested key to its value, or to def for
	// misses. The result preserves the exact order of the requested keys.
	GetMultiple(ctx context.Context, keys any, def any) ([]Entry, error)

	// SetMultiple stores every entry under the shared ttl.
	SetMultiple(ctx context.Context, items any, ttl any) error

	// DeleteMultiple removes exactly the named keys.
	DeleteMultiple(ctx context.Context, keys any) error
}

// Entry is one ordered key/value pair in a batch operation.
// Go maps do not preserve insertion order, so batch results and inputs are
// expressed as entry slices.
type Entry struct {
	Key   string
	Value any
}
