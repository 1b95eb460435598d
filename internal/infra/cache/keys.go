package cache

import (
	"fmt"
	"time"
)

// Cache keys are pure functions of the originating request's parameters,
// so the same request always maps to the same entry and the write path
// can invalidate by namespace.

const (
	NamespaceYearPerformance  = "year_performance:"
	NamespaceUserCredits      = "user_credits:"
	NamespacePlansPerformance = "plans_performance:"
)

// YearPerformanceKey returns the key for a yearly performance report,
// e.g. "year_performance:2021".
func YearPerformanceKey(year int) string {
	return fmt.Sprintf("%s%d", NamespaceYearPerformance, year)
}

// UserCreditsKey returns the key for a user's credit summaries,
// e.g. "user_credits:10".
func UserCreditsKey(userID int64) string {
	return fmt.Sprintf("%s%d", NamespaceUserCredits, userID)
}

// PlansPerformanceKey returns the key for a plan performance report,
// normalized to the cutoff day, e.g. "plans_performance:2021-12-31".
func PlansPerformanceKey(checkDate time.Time) string {
	return NamespacePlansPerformance + checkDate.Format("2006-01-02")
}
