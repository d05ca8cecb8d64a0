package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Backend is the durable per-owner key/value store a TTL cache writes to.
type Backend interface {
	Get(ctx context.Context, ownerID uint, key string) (string, bool, error)
	Set(ctx context.Context, ownerID uint, key, value string) error
	Delete(ctx context.Context, ownerID uint, keys ...string) error
}

// TTL stores one JSON value per owner together with the time it was fetched.
// Values older than ttl are stale and refetched on the next GetOrFetch.
type TTL[T any] struct {
	backend    Backend
	valueKey   string
	fetchedKey string
	ttl        time.Duration
	now        func() time.Time
}

func NewTTL[T any](backend Backend, valueKey, fetchedKey string, ttl time.Duration) *TTL[T] {
	return &TTL[T]{
		backend:    backend,
		valueKey:   valueKey,
		fetchedKey: fetchedKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (c *TTL[T]) WithClock(now func() time.Time) *TTL[T] {
	c.now = now
	return c
}

// Get returns the stored value and whether it is still fresh. ok is false
// when nothing usable is stored.
func (c *TTL[T]) Get(ctx context.Context, ownerID uint) (value T, ok bool, fresh bool, err error) {
	raw, found, err := c.backend.Get(ctx, ownerID, c.valueKey)
	if err != nil || !found {
		return value, false, false, err
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		// A corrupt entry behaves like a miss.
		return value, false, false, nil
	}

	stamp, found, err := c.backend.Get(ctx, ownerID, c.fetchedKey)
	if err != nil {
		return value, false, false, err
	}
	if !found {
		return value, true, false, nil
	}
	millis, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return value, true, false, nil
	}
	age := c.now().Sub(time.UnixMilli(millis))
	return value, true, age >= 0 && age < c.ttl, nil
}

func (c *TTL[T]) Set(ctx context.Context, ownerID uint, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cached value failed: %w", err)
	}
	if err := c.backend.Set(ctx, ownerID, c.valueKey, string(payload)); err != nil {
		return err
	}
	return c.backend.Set(ctx, ownerID, c.fetchedKey, strconv.FormatInt(c.now().UnixMilli(), 10))
}

func (c *TTL[T]) Invalidate(ctx context.Context, ownerID uint) error {
	return c.backend.Delete(ctx, ownerID, c.valueKey, c.fetchedKey)
}

// GetOrFetch serves a fresh stored value or calls fetch and stores its result.
// A failed fetch is returned even when a stale value exists.
func (c *TTL[T]) GetOrFetch(ctx context.Context, ownerID uint, fetch func(context.Context) (T, error)) (T, error) {
	value, ok, fresh, err := c.Get(ctx, ownerID)
	if err != nil {
		return value, err
	}
	if ok && fresh {
		return value, nil
	}

	value, err = fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := c.Set(ctx, ownerID, value); err != nil {
		return value, err
	}
	return value, nil
}
