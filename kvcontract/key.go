package kvcontract

import (
	"fmt"
	"strings"
)

// reservedKeyChars may never appear in a cache key. Shared backends use them
// as namespace and pattern metacharacters.
const reservedKeyChars = `{}()/\@:`

// ValidateKey reports ErrInvalidKey for an empty key or a key containing a
// reserved character.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key: %w", ErrInvalidKey)
	}
	if strings.ContainsAny(key, reservedKeyChars) {
		return fmt.Errorf("key %q contains a reserved character (one of %q): %w", key, reservedKeyChars, ErrInvalidKey)
	}
	return nil
}
