package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imelnik/fintrack/internal/infra/cache"
	"github.com/imelnik/fintrack/internal/infra/resilience"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New(5 * time.Minute)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "key1", []byte("value1"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, ok, err := c.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected key to exist")
	}
	if string(val) != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New(5 * time.Minute)
	defer c.Close()

	_, ok, _ := c.Get(context.Background(), "nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New(5 * time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "key1", []byte("value1"), 50*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	_, ok, _ := c.Get(ctx, "key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New(5 * time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "key1", []byte("value1"), time.Minute)
	c.Delete(ctx, "key1")

	_, ok, _ := c.Get(ctx, "key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	c := cache.New(5 * time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "plans_performance:2021-06-30", []byte("a"), time.Minute)
	c.Set(ctx, "plans_performance:2021-12-31", []byte("b"), time.Minute)
	c.Set(ctx, "year_performance:2021", []byte("c"), time.Minute)

	if err := c.DeletePrefix(ctx, "plans_performance:"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}

	if _, ok, _ := c.Get(ctx, "plans_performance:2021-06-30"); ok {
		t.Error("expected plans_performance:2021-06-30 to be flushed")
	}
	if _, ok, _ := c.Get(ctx, "plans_performance:2021-12-31"); ok {
		t.Error("expected plans_performance:2021-12-31 to be flushed")
	}
	if _, ok, _ := c.Get(ctx, "year_performance:2021"); !ok {
		t.Error("expected year_performance:2021 to survive the flush")
	}
}

// failingCache always errors, simulating an unreachable backend.
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache backend down")
}
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache backend down")
}
func (failingCache) Delete(context.Context, ...string) error {
	return errors.New("cache backend down")
}
func (failingCache) DeletePrefix(context.Context, string) error {
	return errors.New("cache backend down")
}

func TestGuarded_PassThrough(t *testing.T) {
	inner := cache.New(5 * time.Minute)
	defer inner.Close()
	g := cache.NewGuarded(inner, resilience.NewCircuitBreaker("cache"))
	ctx := context.Background()

	if err := g.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, ok, err := g.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(val) != "v" {
		t.Errorf("expected 'v', got '%s'", val)
	}
}

func TestGuarded_OpensAfterRepeatedFailures(t *testing.T) {
	g := cache.NewGuarded(failingCache{}, resilience.NewCircuitBreaker("cache"))
	ctx := context.Background()

	// Every call must error (never panic, never succeed), whether the
	// breaker is still counting or already open.
	for i := 0; i < 10; i++ {
		if _, _, err := g.Get(ctx, "k"); err == nil {
			t.Fatal("expected error from failing backend")
		}
	}
	if err := g.Set(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Fatal("expected error from failing backend")
	}
}
