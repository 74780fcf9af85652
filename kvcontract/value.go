package kvcontract

import "fmt"

// The cacheable value set is a closed union: nil, string, int64, float64,
// bool, []any, map[string]any and *CacheError. CacheError is the structured
// kind, standing in for "any serializable object".

// CacheError is a serializable error-like value.
type CacheError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error %d: %s", e.Code, e.Message)
}
