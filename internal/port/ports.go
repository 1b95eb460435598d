// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/imelnik/fintrack/internal/domain"
)

// ReportStore exposes the filtered range-queries and the atomic plan
// insert the aggregation engine needs. Implemented by the sqlite adapter
// (or any other relational backend).
type ReportStore interface {
	// Range queries. from is inclusive, to is exclusive.
	CreditsIssuedBetween(ctx context.Context, from, to time.Time) ([]domain.Credit, error)
	PaymentsBetween(ctx context.Context, from, to time.Time) ([]domain.Payment, error)
	PlansBetween(ctx context.Context, from, to time.Time) ([]domain.Plan, error)

	// Per-user queries.
	CreditsByUser(ctx context.Context, userID int64) ([]domain.Credit, error)
	PaymentsByCredits(ctx context.Context, creditIDs []int64) ([]domain.Payment, error)

	// PlansUpTo returns every plan whose period is on or before cutoff.
	PlansUpTo(ctx context.Context, cutoff time.Time) ([]domain.Plan, error)

	// InsertPlans persists all plans in one transaction or none of them.
	// Returns ErrDuplicate when a (period, category) pair already exists.
	InsertPlans(ctx context.Context, plans []domain.Plan) (int, error)

	// Ping reports store reachability (used by /healthz).
	Ping(ctx context.Context) error
}

// Loader is the bulk initial-load surface used by the loader CLI.
// Not part of the read path; rows are treated as read-only afterwards.
type Loader interface {
	InsertUsers(ctx context.Context, users []domain.User) (int, error)
	InsertCredits(ctx context.Context, credits []domain.Credit) (int, error)
	InsertPayments(ctx context.Context, payments []domain.Payment) (int, error)
	InsertPlans(ctx context.Context, plans []domain.Plan) (int, error)
}

// Cache provides byte-payload caching with TTL and prefix invalidation.
// Implementations must be safe for concurrent use. Errors mean the cache
// backend misbehaved; callers treat them as misses, never as failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}
