package kvconform

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"testing"
	"time"

	"github.com/goforj/kvconform/kvcontract"
)

// Family groups cases by the behavior they verify.
type Family string

const (
	FamilyValidation Family = "validation"
	FamilyTTL        Family = "invalid_ttl"
	FamilyIterable   Family = "invalid_iterable"
	FamilyRoundTrip  Family = "round_trip"
	FamilyMiss       Family = "miss"
	FamilyExpiration Family = "expiration"
	FamilyDeletion   Family = "deletion"
	FamilyBatch      Family = "batch"
	FamilyPresence   Family = "presence"
)

// Case is one conformance check: an operation sequence with an expected
// outcome, bound to the Options it was generated with. Cases are immutable
// once constructed and each expects a fresh, empty implementation instance.
type Case struct {
	Name   string
	Family Family
	run    func(t testing.TB, cache kvcontract.Cache)
}

// Exercise runs the case against one implementation instance. The first
// mismatch fails the case via t.Fatalf.
func (c Case) Exercise(t testing.TB, cache kvcontract.Cache) {
	t.Helper()
	c.run(t, cache)
}

// Cases generates the full conformance battery for the given options.
func Cases(opts Options) []Case {
	opts = opts.withDefaults()

	var cases []Case
	cases = append(cases, validationCases()...)
	cases = append(cases, invalidTTLCases()...)
	cases = append(cases, invalidIterableCases()...)
	cases = append(cases, roundTripCases(opts)...)
	cases = append(cases, missCases()...)
	cases = append(cases, expirationCases(opts)...)
	cases = append(cases, deletionCases(opts)...)
	cases = append(cases, batchCases()...)
	cases = append(cases, presenceCases()...)
	return cases
}

func validationCases() []Case {
	ops := []struct {
		name string
		call func(ctx context.Context, c kvcontract.Cache, key string) error
	}{
		{"get", func(ctx context.Context, c kvcontract.Cache, key string) error {
			_, err := c.Get(ctx, key, nil)
			return err
		}},
		{"set", func(ctx context.Context, c kvcontract.Cache, key string) error {
			return c.Set(ctx, key, "value", nil)
		}},
		{"delete", func(ctx context.Context, c kvcontract.Cache, key string) error {
			return c.Delete(ctx, key)
		}},
		{"has", func(ctx context.Context, c kvcontract.Cache, key string) error {
			_, err := c.Has(ctx, key)
			return err
		}},
		{"get_multiple", func(ctx context.Context, c kvcontract.Cache, key string) error {
			_, err := c.GetMultiple(ctx, []string{key}, nil)
			return err
		}},
		{"set_multiple", func(ctx context.Context, c kvcontract.Cache, key string) error {
			return c.SetMultiple(ctx, []kvcontract.Entry{{Key: key, Value: "value"}}, nil)
		}},
		{"delete_multiple", func(ctx context.Context, c kvcontract.Cache, key string) error {
			return c.DeleteMultiple(ctx, []string{key})
		}},
	}

	var cases []Case
	for _, op := range ops {
		for i, key := range InvalidKeys() {
			op, key := op, key
			cases = append(cases, Case{
				Name:   fmt.Sprintf("validation/%s/invalid_key_%02d", op.name, i),
				Family: FamilyValidation,
				run: func(t testing.TB, c kvcontract.Cache) {
					t.Helper()
					err := op.call(context.Background(), c, key)
					if !errors.Is(err, kvcontract.ErrInvalidKey) {
						t.Fatalf("%s with key %q: expected InvalidKey error, got %v", op.name, key, err)
					}
				},
			})
		}
	}
	return cases
}

func invalidTTLCases() []Case {
	probes := []any{"1 second", true}

	var cases []Case
	for i, probe := range probes {
		probe := probe
		cases = append(cases, Case{
			Name:   fmt.Sprintf("invalid_ttl/set/probe_%02d", i),
			Family: FamilyTTL,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				err := c.Set(ctx, "foo", "bar", probe)
				if !errors.Is(err, kvcontract.ErrInvalidTTL) {
					t.Fatalf("set with ttl %v (%T): expected InvalidTTL error, got %v", probe, probe, err)
				}
				assertNoEntry(t, c, "foo")
			},
		})
		cases = append(cases, Case{
			Name:   fmt.Sprintf("invalid_ttl/set_multiple/probe_%02d", i),
			Family: FamilyTTL,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				err := c.SetMultiple(ctx, []kvcontract.Entry{{Key: "foo", Value: "bar"}}, probe)
				if !errors.Is(err, kvcontract.ErrInvalidTTL) {
					t.Fatalf("set_multiple with ttl %v (%T): expected InvalidTTL error, got %v", probe, probe, err)
				}
				assertNoEntry(t, c, "foo")
			},
		})
	}
	return cases
}

func invalidIterableCases() []Case {
	probes := []any{nil, 42}

	var cases []Case
	for i, probe := range probes {
		probe := probe
		cases = append(cases, Case{
			Name:   fmt.Sprintf("invalid_iterable/get_multiple/probe_%02d", i),
			Family: FamilyIterable,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				_, err := c.GetMultiple(context.Background(), probe, nil)
				if !errors.Is(err, kvcontract.ErrInvalidIterable) {
					t.Fatalf("get_multiple with keys %v (%T): expected InvalidIterable error, got %v", probe, probe, err)
				}
			},
		})
		cases = append(cases, Case{
			Name:   fmt.Sprintf("invalid_iterable/set_multiple/probe_%02d", i),
			Family: FamilyIterable,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				err := c.SetMultiple(context.Background(), probe, nil)
				if !errors.Is(err, kvcontract.ErrInvalidIterable) {
					t.Fatalf("set_multiple with items %v (%T): expected InvalidIterable error, got %v", probe, probe, err)
				}
			},
		})
		cases = append(cases, Case{
			Name:   fmt.Sprintf("invalid_iterable/delete_multiple/probe_%02d", i),
			Family: FamilyIterable,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				err := c.DeleteMultiple(context.Background(), probe)
				if !errors.Is(err, kvcontract.ErrInvalidIterable) {
					t.Fatalf("delete_multiple with keys %v (%T): expected InvalidIterable error, got %v", probe, probe, err)
				}
			},
		})
	}
	return cases
}

func roundTripCases(opts Options) []Case {
	var cases []Case
	for i, value := range ValidValues() {
		value := value
		cases = append(cases, Case{
			Name:   fmt.Sprintf("round_trip/%02d_%s", i, valueKind(value)),
			Family: FamilyRoundTrip,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				if err := c.Set(ctx, "foo", value, nil); err != nil {
					t.Fatalf("set failed: %v", err)
				}
				got, err := c.Get(ctx, "foo", missSentinel)
				if err != nil {
					t.Fatalf("get failed: %v", err)
				}
				if !equalValue(got, value) {
					t.Fatalf("round trip mismatch: stored %#v, got %#v", value, got)
				}
			},
		})
	}

	if !opts.SkipSnapshotCheck {
		cases = append(cases, snapshotCases()...)
	}
	return cases
}

// snapshotCases verify that mutating the caller's object after Set returns
// does not change what a later Get observes.
func snapshotCases() []Case {
	return []Case{
		{
			Name:   "round_trip/snapshot_sequence",
			Family: FamilyRoundTrip,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				original := []any{"a", int64(1)}
				if err := c.Set(ctx, "foo", original, nil); err != nil {
					t.Fatalf("set failed: %v", err)
				}
				original[0] = "mutated"
				got, err := c.Get(ctx, "foo", nil)
				if err != nil {
					t.Fatalf("get failed: %v", err)
				}
				if !equalValue(got, []any{"a", int64(1)}) {
					t.Fatalf("expected stored sequence to be a snapshot, got %#v", got)
				}
			},
		},
		{
			Name:   "round_trip/snapshot_mapping",
			Family: FamilyRoundTrip,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				original := map[string]any{"k": "v"}
				if err := c.Set(ctx, "foo", original, nil); err != nil {
					t.Fatalf("set failed: %v", err)
				}
				original["k"] = "mutated"
				got, err := c.Get(ctx, "foo", nil)
				if err != nil {
					t.Fatalf("get failed: %v", err)
				}
				if !equalValue(got, map[string]any{"k": "v"}) {
					t.Fatalf("expected stored mapping to be a snapshot, got %#v", got)
				}
			},
		},
		{
			Name:   "round_trip/snapshot_error_value",
			Family: FamilyRoundTrip,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				original := &kvcontract.CacheError{Code: 500, Message: "boom"}
				if err := c.Set(ctx, "foo", original, nil); err != nil {
					t.Fatalf("set failed: %v", err)
				}
				original.Message = "mutated"
				got, err := c.Get(ctx, "foo", nil)
				if err != nil {
					t.Fatalf("get failed: %v", err)
				}
				if !equalValue(got, &kvcontract.CacheError{Code: 500, Message: "boom"}) {
					t.Fatalf("expected stored error value to be a snapshot, got %#v", got)
				}
			},
		},
	}
}

func missCases() []Case {
	return []Case{
		{
			Name:   "miss/nil_default",
			Family: FamilyMiss,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				got, err := c.Get(context.Background(), "missing", nil)
				if err != nil {
					t.Fatalf("get failed: %v", err)
				}
				if got != nil {
					t.Fatalf("expected nil for an absent key, got %#v", got)
				}
			},
		},
		{
			Name:   "miss/custom_default",
			Family: FamilyMiss,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				got, err := c.Get(context.Background(), "missing", "chickpeas")
				if err != nil {
					t.Fatalf("get failed: %v", err)
				}
				if !equalValue(got, "chickpeas") {
					t.Fatalf("expected the caller default for an absent key, got %#v", got)
				}
			},
		},
	}
}

func expirationCases(opts Options) []Case {
	var cases []Case
	for _, raw := range ValidTTLs() {
		raw := raw
		ttl := scaleTTL(raw, opts.TTLUnit)
		cases = append(cases, Case{
			Name:   "expiration/ttl_" + ttlLabel(raw),
			Family: FamilyExpiration,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()

				expired, err := Expires(ttl, opts.ObservationDelay)
				if err != nil {
					t.Fatalf("oracle rejected corpus ttl %v: %v", ttl, err)
				}
				if err := c.Set(ctx, "foo", "bar", ttl); err != nil {
					t.Fatalf("set failed: %v", err)
				}
				if !immediatelyExpired(ttl) {
					opts.Sleeper.Sleep(opts.ObservationDelay)
				}

				got, err := c.Get(ctx, "foo", nil)
				if err != nil {
					t.Fatalf("get failed: %v", err)
				}
				present, err := c.Has(ctx, "foo")
				if err != nil {
					t.Fatalf("has failed: %v", err)
				}
				if expired {
					if got != nil {
						t.Fatalf("expected ttl %v to expire after %v, get returned %#v", ttl, opts.ObservationDelay, got)
					}
					if present {
						t.Fatalf("expected has=false after ttl %v expired", ttl)
					}
				} else {
					if !equalValue(got, "bar") {
						t.Fatalf("expected ttl %v to outlive %v, get returned %#v", ttl, opts.ObservationDelay, got)
					}
					if !present {
						t.Fatalf("expected has=true while ttl %v is live", ttl)
					}
				}
			},
		})
	}
	return cases
}

func deletionCases(opts Options) []Case {
	cases := []Case{
		{
			Name:   "deletion/delete_removes_only_named_key",
			Family: FamilyDeletion,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				if err := c.Set(ctx, "foo", "bar", nil); err != nil {
					t.Fatalf("set foo failed: %v", err)
				}
				if err := c.Set(ctx, "other", "kept", nil); err != nil {
					t.Fatalf("set other failed: %v", err)
				}
				if err := c.Delete(ctx, "foo"); err != nil {
					t.Fatalf("delete failed: %v", err)
				}
				assertNoEntry(t, c, "foo")
				got, err := c.Get(ctx, "other", nil)
				if err != nil {
					t.Fatalf("get other failed: %v", err)
				}
				if !equalValue(got, "kept") {
					t.Fatalf("expected untouched key to survive delete, got %#v", got)
				}
			},
		},
		{
			Name:   "deletion/delete_absent_is_idempotent",
			Family: FamilyDeletion,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				if err := c.Delete(context.Background(), "missing"); err != nil {
					t.Fatalf("deleting an absent key must not fail: %v", err)
				}
			},
		},
	}

	if !opts.SkipClear {
		cases = append(cases, Case{
			Name:   "deletion/clear_removes_all_keys",
			Family: FamilyDeletion,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				if err := c.Set(ctx, "foo", "bar", nil); err != nil {
					t.Fatalf("set foo failed: %v", err)
				}
				if err := c.Set(ctx, "key2", "value2", nil); err != nil {
					t.Fatalf("set key2 failed: %v", err)
				}
				if err := c.Clear(ctx); err != nil {
					t.Fatalf("clear failed: %v", err)
				}
				assertNoEntry(t, c, "foo")
				assertNoEntry(t, c, "key2")
			},
		})
	}
	return cases
}

func batchCases() []Case {
	items := []kvcontract.Entry{
		{Key: "key1", Value: "value1"},
		{Key: "key2", Value: "value2"},
		{Key: "key3", Value: "value3"},
	}
	requested := []string{"key3", "key1", "key2"}
	wantOrdered := []kvcontract.Entry{
		{Key: "key3", Value: "value3"},
		{Key: "key1", Value: "value1"},
		{Key: "key2", Value: "value2"},
	}

	return []Case{
		{
			Name:   "batch/get_multiple_preserves_slice_order",
			Family: FamilyBatch,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				if err := c.SetMultiple(ctx, items, nil); err != nil {
					t.Fatalf("set_multiple failed: %v", err)
				}
				got, err := c.GetMultiple(ctx, requested, nil)
				if err != nil {
					t.Fatalf("get_multiple failed: %v", err)
				}
				assertEntries(t, got, wantOrdered)
			},
		},
		{
			Name:   "batch/get_multiple_preserves_one_shot_order",
			Family: FamilyBatch,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				if err := c.SetMultiple(ctx, items, nil); err != nil {
					t.Fatalf("set_multiple failed: %v", err)
				}
				got, err := c.GetMultiple(ctx, oneShotKeys(requested), nil)
				if err != nil {
					t.Fatalf("get_multiple failed: %v", err)
				}
				assertEntries(t, got, wantOrdered)
			},
		},
		{
			Name:   "batch/set_multiple_accepts_one_shot_items",
			Family: FamilyBatch,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				if err := c.SetMultiple(ctx, oneShotItems(items), nil); err != nil {
					t.Fatalf("set_multiple failed: %v", err)
				}
				got, err := c.GetMultiple(ctx, []string{"key1", "key2", "key3"}, nil)
				if err != nil {
					t.Fatalf("get_multiple failed: %v", err)
				}
				assertEntries(t, got, items)
			},
		},
		{
			Name:   "batch/delete_multiple_substitutes_default",
			Family: FamilyBatch,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				if err := c.SetMultiple(ctx, items, nil); err != nil {
					t.Fatalf("set_multiple failed: %v", err)
				}
				if err := c.DeleteMultiple(ctx, []string{"key1", "key3"}); err != nil {
					t.Fatalf("delete_multiple failed: %v", err)
				}
				got, err := c.GetMultiple(ctx, []string{"key1", "key2", "key3"}, "tea")
				if err != nil {
					t.Fatalf("get_multiple failed: %v", err)
				}
				assertEntries(t, got, []kvcontract.Entry{
					{Key: "key1", Value: "tea"},
					{Key: "key2", Value: "value2"},
					{Key: "key3", Value: "tea"},
				})
			},
		},
		{
			Name:   "batch/delete_multiple_accepts_one_shot_keys",
			Family: FamilyBatch,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				if err := c.SetMultiple(ctx, items, nil); err != nil {
					t.Fatalf("set_multiple failed: %v", err)
				}
				if err := c.DeleteMultiple(ctx, oneShotKeys([]string{"key1", "key2", "key3"})); err != nil {
					t.Fatalf("delete_multiple failed: %v", err)
				}
				assertNoEntry(t, c, "key1")
				assertNoEntry(t, c, "key2")
				assertNoEntry(t, c, "key3")
			},
		},
		{
			Name:   "batch/get_multiple_empty_keys",
			Family: FamilyBatch,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				got, err := c.GetMultiple(context.Background(), []string{}, nil)
				if err != nil {
					t.Fatalf("get_multiple failed: %v", err)
				}
				if len(got) != 0 {
					t.Fatalf("expected an empty result for no keys, got %v", got)
				}
			},
		},
	}
}

func presenceCases() []Case {
	return []Case{
		{
			Name:   "presence/has_mirrors_get",
			Family: FamilyPresence,
			run: func(t testing.TB, c kvcontract.Cache) {
				t.Helper()
				ctx := context.Background()
				if err := c.Set(ctx, "foo", "bar", nil); err != nil {
					t.Fatalf("set failed: %v", err)
				}
				present, err := c.Has(ctx, "foo")
				if err != nil {
					t.Fatalf("has failed: %v", err)
				}
				if !present {
					t.Fatalf("expected has=true for a stored key")
				}
				present, err = c.Has(ctx, "missing")
				if err != nil {
					t.Fatalf("has failed: %v", err)
				}
				if present {
					t.Fatalf("expected has=false for an absent key")
				}
			},
		},
	}
}

// missSentinel is a default value no case ever stores, so reading it back
// proves a miss.
const missSentinel = "\x00kvconform.miss"

func assertNoEntry(t testing.TB, c kvcontract.Cache, key string) {
	t.Helper()
	got, err := c.Get(context.Background(), key, missSentinel)
	if err != nil {
		t.Fatalf("get %q failed: %v", key, err)
	}
	if !equalValue(got, missSentinel) {
		t.Fatalf("expected key %q to be absent, got %#v", key, got)
	}
}

func assertEntries(t testing.TB, got, want []kvcontract.Entry) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Key != want[i].Key {
			t.Fatalf("entry %d: expected key %q (input order must be preserved), got %q", i, want[i].Key, got[i].Key)
		}
		if !equalValue(got[i].Value, want[i].Value) {
			t.Fatalf("entry %d (%q): expected %#v, got %#v", i, want[i].Key, want[i].Value, got[i].Value)
		}
	}
}

// scaleTTL maps the second-denominated corpus onto the configured unit.
// Non-positive integers stay raw: they expire immediately and never wait.
func scaleTTL(ttl any, unit time.Duration) any {
	if unit == time.Second {
		return ttl
	}
	switch v := ttl.(type) {
	case int:
		if v <= 0 {
			return v
		}
		return time.Duration(v) * unit
	case int64:
		if v <= 0 {
			return v
		}
		return time.Duration(v) * unit
	case time.Duration:
		return time.Duration(v/time.Second) * unit
	default:
		return ttl
	}
}

// immediatelyExpired reports whether ttl needs no observation wait.
func immediatelyExpired(ttl any) bool {
	d, present, err := kvcontract.ResolveTTL(ttl)
	return err == nil && present && d <= 0
}

func ttlLabel(ttl any) string {
	switch v := ttl.(type) {
	case nil:
		return "absent"
	case int:
		return fmt.Sprintf("int_%d", v)
	case int64:
		return fmt.Sprintf("int64_%d", v)
	case time.Duration:
		return "duration_" + v.String()
	default:
		return fmt.Sprintf("%T", ttl)
	}
}

func oneShotKeys(keys []string) iter.Seq[string] {
	i := 0
	return func(yield func(string) bool) {
		for ; i < len(keys); i++ {
			if !yield(keys[i]) {
				return
			}
		}
	}
}

func oneShotItems(items []kvcontract.Entry) iter.Seq2[string, any] {
	i := 0
	return func(yield func(string, any) bool) {
		for ; i < len(items); i++ {
			if !yield(items[i].Key, items[i].Value) {
				return
			}
		}
	}
}
