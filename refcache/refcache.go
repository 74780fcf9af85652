package refcache

import (
	"context"
	"time"

	"github.com/goforj/kvconform/kvcontract"
)

// Cache is the reference implementation of kvcontract.Cache. It layers
// contract validation and value encoding over a byte-level Store, so every
// backend shares one set of semantics.
//
// Validation happens before any store call: a malformed key, ttl or
// collection fails the whole operation with no state change.
type Cache struct {
	store Store
}

// New creates a reference cache bound to a concrete store.
func New(store Store) *Cache {
	return &Cache{store: store}
}

// Store returns the underlying store implementation.
func (c *Cache) Store() Store { return c.store }

// Driver reports the underlying store driver.
func (c *Cache) Driver() Driver { return c.store.Driver() }

// Get implements kvcontract.Cache.
func (c *Cache) Get(ctx context.Context, key string, def any) (any, error) {
	if err := kvcontract.ValidateKey(key); err != nil {
		return nil, err
	}
	body, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return def, nil
	}
	return decodeValue(body)
}

// Set implements kvcontract.Cache.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl any) error {
	if err := kvcontract.ValidateKey(key); err != nil {
		return err
	}
	d, present, err := kvcontract.ResolveTTL(ttl)
	if err != nil {
		return err
	}
	body, err := encodeValue(value)
	if err != nil {
		return err
	}
	if present && d <= 0 {
		// Already expired at write time; the key must not be retrievable.
		return c.store.Delete(ctx, key)
	}
	return c.store.Set(ctx, key, body, storeTTL(d, present))
}

// Delete implements kvcontract.Cache. Deleting an absent key succeeds.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := kvcontract.ValidateKey(key); err != nil {
		return err
	}
	return c.store.Delete(ctx, key)
}

// Clear implements kvcontract.Cache.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Flush(ctx)
}

// Has implements kvcontract.Cache.
func (c *Cache) Has(ctx context.Context, key string) (bool, error) {
	if err := kvcontract.ValidateKey(key); err != nil {
		return false, err
	}
	_, ok, err := c.store.Get(ctx, key)
	return ok, err
}

// GetMultiple implements kvcontract.Cache. The result preserves the order
// of the requested keys.
func (c *Cache) GetMultiple(ctx context.Context, keys any, def any) ([]kvcontract.Entry, error) {
	ks, err := kvcontract.Keys(keys)
	if err != nil {
		return nil, err
	}
	for _, key := range ks {
		if err := kvcontract.ValidateKey(key); err != nil {
			return nil, err
		}
	}
	out := make([]kvcontract.Entry, 0, len(ks))
	for _, key := range ks {
		value, err := c.Get(ctx, key, def)
		if err != nil {
			return nil, err
		}
		out = append(out, kvcontract.Entry{Key: key, Value: value})
	}
	return out, nil
}

// SetMultiple implements kvcontract.Cache. Keys are validated and values
// encoded before the first write, so a malformed entry mutates nothing.
func (c *Cache) SetMultiple(ctx context.Context, items any, ttl any) error {
	entries, err := kvcontract.Items(items)
	if err != nil {
		return err
	}
	d, present, err := kvcontract.ResolveTTL(ttl)
	if err != nil {
		return err
	}
	bodies := make([][]byte, len(entries))
	for i, entry := range entries {
		if err := kvcontract.ValidateKey(entry.Key); err != nil {
			return err
		}
		body, err := encodeValue(entry.Value)
		if err != nil {
			return err
		}
		bodies[i] = body
	}
	if present && d <= 0 {
		keys := make([]string, len(entries))
		for i, entry := range entries {
			keys[i] = entry.Key
		}
		return c.store.DeleteMany(ctx, keys...)
	}
	for i, entry := range entries {
		if err := c.store.Set(ctx, entry.Key, bodies[i], storeTTL(d, present)); err != nil {
			return err
		}
	}
	return nil
}

// DeleteMultiple implements kvcontract.Cache.
func (c *Cache) DeleteMultiple(ctx context.Context, keys any) error {
	ks, err := kvcontract.Keys(keys)
	if err != nil {
		return err
	}
	for _, key := range ks {
		if err := kvcontract.ValidateKey(key); err != nil {
			return err
		}
	}
	return c.store.DeleteMany(ctx, ks...)
}

// storeTTL maps a resolved contract ttl onto the store convention, where
// zero means no expiration.
func storeTTL(d time.Duration, present bool) time.Duration {
	if !present {
		return 0
	}
	return d
}
