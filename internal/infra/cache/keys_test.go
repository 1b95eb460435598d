package cache_test

import (
	"strings"
	"testing"
	"time"

	"github.com/imelnik/fintrack/internal/infra/cache"
)

func TestYearPerformanceKey(t *testing.T) {
	key := cache.YearPerformanceKey(2021)
	if key != "year_performance:2021" {
		t.Errorf("expected 'year_performance:2021', got '%s'", key)
	}
	if !strings.HasPrefix(key, cache.NamespaceYearPerformance) {
		t.Error("key must live in the year_performance namespace")
	}
}

func TestUserCreditsKey(t *testing.T) {
	key := cache.UserCreditsKey(10)
	if key != "user_credits:10" {
		t.Errorf("expected 'user_credits:10', got '%s'", key)
	}
}

func TestPlansPerformanceKey(t *testing.T) {
	checkDate := time.Date(2021, 12, 31, 15, 4, 5, 0, time.UTC)
	key := cache.PlansPerformanceKey(checkDate)
	if key != "plans_performance:2021-12-31" {
		t.Errorf("expected 'plans_performance:2021-12-31', got '%s'", key)
	}

	// Same day, different time of day: identical key.
	other := cache.PlansPerformanceKey(time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC))
	if key != other {
		t.Errorf("keys for the same day must match: %s vs %s", key, other)
	}
}
