package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imelnik/fintrack/internal/domain"
	"github.com/imelnik/fintrack/internal/infra/cache"
)

const uploadMonthLayout = "2006-01-02"

// InsertPlans validates the uploaded records, persists them in one
// transaction and invalidates every cache entry whose scope could
// include an inserted plan's month. All-or-nothing: any bad record
// fails the whole batch before anything is written.
func (s *ReportService) InsertPlans(ctx context.Context, records []domain.PlanRecord) (int, error) {
	ctx, span := tracer.Start(ctx, "ReportService.InsertPlans")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("insert_plans", time.Since(start))
	}()

	if len(records) == 0 {
		return 0, &domain.ErrValidation{Field: "file", Message: "file contains no plan rows"}
	}

	plans, years, err := s.validatePlans(records)
	if err != nil {
		return 0, err
	}

	n, err := s.store.InsertPlans(ctx, plans)
	if err != nil {
		if _, ok := err.(*domain.ErrDuplicate); ok {
			return 0, err
		}
		s.metrics.IncrStoreError("insert_plans")
		return 0, &domain.ErrStoreUnavailable{Err: err}
	}

	// Invalidation happens only after the write committed, so a failed
	// insert never evicts valid entries.
	s.invalidatePlanCaches(ctx, years)

	s.metrics.AddPlansInserted(n)
	s.logger.Info("plans inserted",
		zap.String("batch_id", uuid.NewString()),
		zap.Int("count", n),
		zap.Ints("years", years),
	)
	return n, nil
}

// validatePlans converts raw records into plans, normalizing periods to
// the first of their month and collecting the distinct affected years.
func (s *ReportService) validatePlans(records []domain.PlanRecord) ([]domain.Plan, []int, error) {
	type planKey struct {
		period   time.Time
		category domain.PlanCategory
	}
	seen := make(map[planKey]bool, len(records))
	yearSet := make(map[int]bool)

	plans := make([]domain.Plan, 0, len(records))
	for i, rec := range records {
		month, err := time.Parse(uploadMonthLayout, rec.Month)
		if err != nil {
			return nil, nil, &domain.ErrValidation{
				Field:   "month",
				Message: fmt.Sprintf("row %d: bad date %q, expected YYYY-MM-DD", i+1, rec.Month),
			}
		}
		period := domain.FirstOfMonth(month)

		category, ok := domain.ParseCategory(rec.CategoryName, s.cfg.CategoryAliases)
		if !ok {
			return nil, nil, &domain.ErrValidation{
				Field:   "category_name",
				Message: fmt.Sprintf("row %d: unknown category %q", i+1, rec.CategoryName),
			}
		}

		if rec.Sum < 0 {
			return nil, nil, &domain.ErrValidation{
				Field:   "sum",
				Message: fmt.Sprintf("row %d: negative sum %v", i+1, rec.Sum),
			}
		}

		k := planKey{period: period, category: category}
		if seen[k] {
			return nil, nil, &domain.ErrValidation{
				Field:   "file",
				Message: fmt.Sprintf("row %d: duplicate plan for %s/%s in upload", i+1, period.Format("2006-01"), category),
			}
		}
		seen[k] = true
		yearSet[period.Year()] = true

		plans = append(plans, domain.Plan{Period: period, Sum: rec.Sum, Category: category})
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	return plans, years, nil
}

// invalidatePlanCaches deletes the year_performance entry for every
// affected year and flushes the whole plans_performance namespace.
// plans_performance keys are parameterized by arbitrary cutoff dates, so
// the namespace flush trades precision for guaranteed freshness.
// Cache failures here are logged but never fail the insert; worst case
// the entries expire by TTL.
func (s *ReportService) invalidatePlanCaches(ctx context.Context, years []int) {
	keys := make([]string, len(years))
	for i, y := range years {
		keys[i] = cache.YearPerformanceKey(y)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.metrics.IncrCacheError("year_performance")
		s.logger.Error("failed to invalidate year_performance entries",
			zap.Ints("years", years),
			zap.Error(err),
		)
	}
	if err := s.cache.DeletePrefix(ctx, cache.NamespacePlansPerformance); err != nil {
		s.metrics.IncrCacheError("plans_performance")
		s.logger.Error("failed to flush plans_performance namespace", zap.Error(err))
	}
}
