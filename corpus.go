package kvconform

import (
	"math"
	"strings"
	"time"

	"github.com/goforj/kvconform/kvcontract"
)

// InputCorpora: fixed, ordered sequences of representative inputs. Each call
// returns a fresh copy so cases may mutate their own values (the snapshot
// checks rely on that) without bleeding into later cases.

// ValidValues returns the canonical corpus of cacheable values, covering
// every kind in the closed union.
func ValidValues() []any {
	return []any{
		"",
		"some string",
		strings.Repeat("u", 64*1024),
		"binary\x00safe\x01string",
		int64(0),
		int64(42),
		int64(math.MaxInt64),
		int64(math.MinInt64),
		3.14159,
		math.MaxFloat64,
		-math.MaxFloat64,
		true,
		false,
		nil,
		[]any{"a", int64(1), true, nil, []any{"nested"}},
		map[string]any{"k1": "v1", "n": int64(7), "inner": map[string]any{"flag": false}},
		&kvcontract.CacheError{Code: 404, Message: "upstream missing"},
	}
}

// ValidTTLs returns the canonical corpus of well-formed TTL expressions,
// second-denominated. Integers are second counts; durations are the
// expression form. Zero and negative entries are legal and mean "already
// expired".
func ValidTTLs() []any {
	return []any{
		nil,
		1,
		5,
		int64(5),
		time.Second,
		5 * time.Second,
		0,
		-1,
	}
}

// InvalidKeys returns the corpus of malformed cache keys: the empty key plus
// one probe per reserved character.
func InvalidKeys() []string {
	keys := []string{""}
	for _, r := range `{}()/\@:` {
		keys = append(keys, "str"+string(r)+"str")
	}
	return keys
}

func valueKind(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case []any:
		return "sequence"
	case map[string]any:
		return "mapping"
	case *kvcontract.CacheError:
		return "error_value"
	default:
		return "unknown"
	}
}
