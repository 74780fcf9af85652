package kvcontract

import (
	"fmt"
	"iter"
)

// Keys normalizes a key collection into a concrete slice.
//
// A []string is copied; an iter.Seq[string] is drained exactly once, so
// one-shot producer sequences are consumed correctly. Anything else is
// rejected with ErrInvalidIterable.
func Keys(keys any) ([]string, error) {
	switch v := keys.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case iter.Seq[string]:
		var out []string
		for k := range v {
			out = append(out, k)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("key collection of type %T is not iterable: %w", keys, ErrInvalidIterable)
	}
}

// Items normalizes an item collection into ordered entries.
// Accepts []Entry or a one-shot iter.Seq2[string, any].
func Items(items any) ([]Entry, error) {
	switch v := items.(type) {
	case []Entry:
		out := make([]Entry, len(v))
		copy(out, v)
		return out, nil
	case iter.Seq2[string, any]:
		var out []Entry
		for k, val := range v {
			out = append(out, Entry{Key: k, Value: val})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("item collection of type %T is not iterable: %w", items, ErrInvalidIterable)
	}
}
