// Package kvconformfake provides a deterministic in-memory implementation of
// the cache contract with toggleable violations. With every toggle off it is
// fully conforming; each toggle breaks exactly one contract rule, which lets
// suite tests prove that the corresponding cases catch the violation.
package kvconformfake

import (
	"context"
	"sync"
	"time"

	"github.com/goforj/kvconform/kvcontract"
)

// Fake is an in-memory kvcontract.Cache with injectable misbehavior.
// The zero value is not usable; call New.
type Fake struct {
	// SkipKeyChecks accepts malformed keys instead of rejecting them.
	SkipKeyChecks bool
	// SkipTTLChecks accepts any ttl shape, treating unknown shapes as "no expiry".
	SkipTTLChecks bool
	// SkipIterableChecks treats non-iterable collections as empty instead of rejecting them.
	SkipIterableChecks bool
	// IgnoreTTL stores every value without expiration.
	IgnoreTTL bool
	// LiveReferences stores and returns the caller's objects without copying.
	LiveReferences bool
	// ReverseBatches returns GetMultiple results in reverse request order.
	ReverseBatches bool
	// SwallowClear turns Clear into a no-op.
	SwallowClear bool

	mu    sync.Mutex
	items map[string]fakeEntry
}

type fakeEntry struct {
	value     any
	expiresAt time.Time
}

// New creates an empty fake.
func New() *Fake {
	return &Fake{items: make(map[string]fakeEntry)}
}

func (f *Fake) validateKey(key string) error {
	if f.SkipKeyChecks {
		return nil
	}
	return kvcontract.ValidateKey(key)
}

func (f *Fake) resolveTTL(ttl any) (time.Duration, bool, error) {
	d, present, err := kvcontract.ResolveTTL(ttl)
	if err != nil && f.SkipTTLChecks {
		return 0, false, nil
	}
	if f.IgnoreTTL {
		return 0, false, err
	}
	return d, present, err
}

func (f *Fake) keys(keys any) ([]string, error) {
	ks, err := kvcontract.Keys(keys)
	if err != nil && f.SkipIterableChecks {
		return nil, nil
	}
	return ks, err
}

// Get implements kvcontract.Cache.
func (f *Fake) Get(_ context.Context, key string, def any) (any, error) {
	if err := f.validateKey(key); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.live(key)
	if !ok {
		return def, nil
	}
	return f.outbound(entry.value), nil
}

// Set implements kvcontract.Cache.
func (f *Fake) Set(_ context.Context, key string, value any, ttl any) error {
	if err := f.validateKey(key); err != nil {
		return err
	}
	d, present, err := f.resolveTTL(ttl)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(key, value, d, present)
	return nil
}

// Delete implements kvcontract.Cache.
func (f *Fake) Delete(_ context.Context, key string) error {
	if err := f.validateKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, key)
	return nil
}

// Clear implements kvcontract.Cache.
func (f *Fake) Clear(context.Context) error {
	if f.SwallowClear {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = make(map[string]fakeEntry)
	return nil
}

// Has implements kvcontract.Cache.
func (f *Fake) Has(_ context.Context, key string) (bool, error) {
	if err := f.validateKey(key); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.live(key)
	return ok, nil
}

// GetMultiple implements kvcontract.Cache.
func (f *Fake) GetMultiple(ctx context.Context, keys any, def any) ([]kvcontract.Entry, error) {
	ks, err := f.keys(keys)
	if err != nil {
		return nil, err
	}
	for _, key := range ks {
		if err := f.validateKey(key); err != nil {
			return nil, err
		}
	}
	out := make([]kvcontract.Entry, 0, len(ks))
	for _, key := range ks {
		value, err := f.Get(ctx, key, def)
		if err != nil {
			return nil, err
		}
		out = append(out, kvcontract.Entry{Key: key, Value: value})
	}
	if f.ReverseBatches {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// SetMultiple implements kvcontract.Cache.
func (f *Fake) SetMultiple(_ context.Context, items any, ttl any) error {
	entries, err := kvcontract.Items(items)
	if err != nil {
		if f.SkipIterableChecks {
			return nil
		}
		return err
	}
	d, present, err := f.resolveTTL(ttl)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := f.validateKey(entry.Key); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, entry := range entries {
		f.put(entry.Key, entry.Value, d, present)
	}
	return nil
}

// DeleteMultiple implements kvcontract.Cache.
func (f *Fake) DeleteMultiple(_ context.Context, keys any) error {
	ks, err := f.keys(keys)
	if err != nil {
		return err
	}
	for _, key := range ks {
		if err := f.validateKey(key); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range ks {
		delete(f.items, key)
	}
	return nil
}

// put stores a value under f.mu.
func (f *Fake) put(key string, value any, d time.Duration, present bool) {
	if present && d <= 0 {
		delete(f.items, key)
		return
	}
	entry := fakeEntry{value: f.inbound(value)}
	if present {
		entry.expiresAt = time.Now().Add(d)
	}
	f.items[key] = entry
}

// live returns the entry for key, dropping it when expired. Caller holds f.mu.
func (f *Fake) live(key string) (fakeEntry, bool) {
	entry, ok := f.items[key]
	if !ok {
		return fakeEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !time.Now().Before(entry.expiresAt) {
		delete(f.items, key)
		return fakeEntry{}, false
	}
	return entry, true
}

func (f *Fake) inbound(value any) any {
	if f.LiveReferences {
		return value
	}
	return deepCopy(value)
}

func (f *Fake) outbound(value any) any {
	if f.LiveReferences {
		return value
	}
	return deepCopy(value)
}

// deepCopy clones values across the cacheable union; scalars are immutable
// and pass through.
func deepCopy(value any) any {
	switch x := value.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = deepCopy(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = deepCopy(e)
		}
		return out
	case *kvcontract.CacheError:
		clone := *x
		return &clone
	default:
		return value
	}
}
