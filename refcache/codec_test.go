package refcache

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/goforj/kvconform/kvcontract"
)

func TestCodecRoundTripsEveryKind(t *testing.T) {
	values := []any{
		nil,
		"",
		"plain string",
		"binary\x00safe\x01string",
		int64(0),
		int64(math.MaxInt64),
		int64(math.MinInt64),
		3.14159,
		math.MaxFloat64,
		true,
		false,
		[]any{"a", int64(1), nil, []any{true}},
		map[string]any{"s": "v", "n": int64(2), "inner": map[string]any{"f": 1.5}},
		&kvcontract.CacheError{Code: 404, Message: "not found"},
	}
	for _, v := range values {
		body, err := encodeValue(v)
		if err != nil {
			t.Fatalf("encode %#v failed: %v", v, err)
		}
		got, err := decodeValue(body)
		if err != nil {
			t.Fatalf("decode %#v failed: %v", v, err)
		}
		if !reflect.DeepEqual(got, v) {
			t.Fatalf("round trip changed %#v into %#v", v, got)
		}
	}
}

func TestCodecWidensNativeInt(t *testing.T) {
	body, err := encodeValue(42)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := decodeValue(body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != int64(42) {
		t.Fatalf("expected int64(42), got %#v", got)
	}
}

func TestCodecPreservesIntegerPrecision(t *testing.T) {
	// JSON number decoding would lose the low bits of a big int64; the tagged
	// union must not.
	v := int64(math.MaxInt64) - 1
	body, err := encodeValue(v)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := decodeValue(body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != v {
		t.Fatalf("integer precision lost: got %v, want %v", got, v)
	}
}

func TestCodecRejectsForeignTypes(t *testing.T) {
	if _, err := encodeValue(struct{ X int }{1}); err == nil {
		t.Fatalf("expected an error for a type outside the cacheable set")
	}
	if _, err := encodeValue([]string{"a"}); err == nil {
		t.Fatalf("expected an error for a typed slice")
	}
	if _, err := encodeValue([]any{"ok", make(chan int)}); err == nil {
		t.Fatalf("expected an error for a nested foreign type")
	}
}

func TestCodecRejectsMalformedPayloads(t *testing.T) {
	if _, err := decodeValue([]byte("not json")); err == nil {
		t.Fatalf("expected an error for malformed payload")
	}
	if _, err := decodeValue([]byte(`{"k":"mystery"}`)); err == nil || !strings.Contains(err.Error(), "unknown kind") {
		t.Fatalf("expected an unknown-kind error, got %v", err)
	}
	if _, err := decodeValue([]byte(`{"k":"err"}`)); err == nil {
		t.Fatalf("expected an error for an error kind without payload")
	}
}
