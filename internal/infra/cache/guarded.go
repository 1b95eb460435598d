package cache

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/imelnik/fintrack/internal/port"
)

// Guarded wraps a cache client with a circuit breaker. When the backend
// keeps failing the breaker opens and every operation returns an error
// immediately, so requests fall through to the store instead of waiting
// on a sick cache.
type Guarded struct {
	inner port.Cache
	cb    *gobreaker.CircuitBreaker
}

// NewGuarded wraps inner with the given breaker.
func NewGuarded(inner port.Cache, cb *gobreaker.CircuitBreaker) *Guarded {
	return &Guarded{inner: inner, cb: cb}
}

func (g *Guarded) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var hit bool
	value, err := g.cb.Execute(func() (any, error) {
		v, ok, err := g.inner.Get(ctx, key)
		hit = ok
		return v, err
	})
	if err != nil {
		return nil, false, err
	}
	b, _ := value.([]byte)
	return b, hit, nil
}

func (g *Guarded) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := g.cb.Execute(func() (any, error) {
		return nil, g.inner.Set(ctx, key, value, ttl)
	})
	return err
}

func (g *Guarded) Delete(ctx context.Context, keys ...string) error {
	_, err := g.cb.Execute(func() (any, error) {
		return nil, g.inner.Delete(ctx, keys...)
	})
	return err
}

func (g *Guarded) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := g.cb.Execute(func() (any, error) {
		return nil, g.inner.DeletePrefix(ctx, prefix)
	})
	return err
}
