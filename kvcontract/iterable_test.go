package kvcontract

import (
	"errors"
	"iter"
	"reflect"
	"testing"
)

func TestKeysCopiesSlices(t *testing.T) {
	in := []string{"a", "b"}
	out, err := Keys(in)
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	in[0] = "mutated"
	if !reflect.DeepEqual(out, []string{"a", "b"}) {
		t.Fatalf("expected copied keys, got %v", out)
	}
}

func TestKeysDrainsOneShotSequence(t *testing.T) {
	i := 0
	src := []string{"k1", "k2", "k3"}
	seq := iter.Seq[string](func(yield func(string) bool) {
		for ; i < len(src); i++ {
			if !yield(src[i]) {
				return
			}
		}
	})
	out, err := Keys(seq)
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	if !reflect.DeepEqual(out, src) {
		t.Fatalf("expected %v, got %v", src, out)
	}
	// The producer is exhausted; a second drain yields nothing.
	again, err := Keys(seq)
	if err != nil {
		t.Fatalf("second drain failed: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected one-shot sequence to be empty on second drain, got %v", again)
	}
}

func TestKeysRejectsNonIterables(t *testing.T) {
	for _, bad := range []any{nil, 42, "keys", map[string]string{"a": "b"}} {
		_, err := Keys(bad)
		if !errors.Is(err, ErrInvalidIterable) {
			t.Fatalf("keys(%v): expected ErrInvalidIterable, got %v", bad, err)
		}
	}
}

func TestItemsShapes(t *testing.T) {
	entries := []Entry{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}
	out, err := Items(entries)
	if err != nil || !reflect.DeepEqual(out, entries) {
		t.Fatalf("items slice: out=%v err=%v", out, err)
	}

	seq := iter.Seq2[string, any](func(yield func(string, any) bool) {
		for _, e := range entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	})
	out, err = Items(seq)
	if err != nil || !reflect.DeepEqual(out, entries) {
		t.Fatalf("items seq: out=%v err=%v", out, err)
	}

	if _, err := Items(nil); !errors.Is(err, ErrInvalidIterable) {
		t.Fatalf("items(nil): expected ErrInvalidIterable, got %v", err)
	}
}
