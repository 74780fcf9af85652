package kvcontract

import (
	"fmt"
	"time"
)

// ResolveTTL normalizes a dynamic ttl argument.
//
// nil means no expiration (present=false). int and int64 are second counts;
// time.Duration is used as-is. Zero and negative lifetimes resolve to
// present=true with d <= 0: the write is already expired. Any other type is
// rejected with ErrInvalidTTL.
func ResolveTTL(ttl any) (d time.Duration, present bool, err error) {
	switch v := ttl.(type) {
	case nil:
		return 0, false, nil
	case int:
		return time.Duration(v) * time.Second, true, nil
	case int64:
		return time.Duration(v) * time.Second, true, nil
	case time.Duration:
		return v, true, nil
	default:
		return 0, false, fmt.Errorf("ttl of type %T is not nil, seconds or a duration: %w", ttl, ErrInvalidTTL)
	}
}
