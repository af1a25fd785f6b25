// Package memo is a process-lifetime result cache with single-flight
// de-duplication: per key, at most one call is in flight and a successful
// result is kept until the Cache is dropped.
package memo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

const keySeparator = "\x1f"

type Cache struct {
	group singleflight.Group

	mu   sync.RWMutex
	done map[string]any
}

func New() *Cache {
	return &Cache{done: map[string]any{}}
}

// Key builds a canonical key from an operation name and its arguments.
func Key(op string, parts ...string) string {
	return op + keySeparator + strings.Join(parts, keySeparator)
}

// Do returns the stored result for key, joins an in-flight call for key, or
// runs fn. Errors are handed to every waiter but never stored.
//
// fn runs on a context detached from the caller's cancellation, so one waiter
// giving up never fails the others. Each waiter stops waiting when its own
// ctx is done; the flight itself keeps running to completion.
func (c *Cache) Do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// A caller that missed the lookup above may arrive after the previous
		// flight stored its result and left the group.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		v, err := fn(flightCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.done[key] = v
		c.mu.Unlock()

		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.done)
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.done[key]
	return v, ok
}

// Do is the typed form of Cache.Do.
func Do[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	v, err := c.Do(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("memo key %q holds %T", key, v)
	}

	return typed, nil
}
