package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/imelnik/fintrack/internal/domain"
	"github.com/imelnik/fintrack/internal/infra/cache"
	"github.com/imelnik/fintrack/internal/infra/observability"
	"github.com/imelnik/fintrack/internal/port"
	"github.com/imelnik/fintrack/internal/report"
)

var tracer = otel.Tracer("service/report")

// Config carries the explicit knobs of the reporting service. Nothing is
// read from ambient state.
type Config struct {
	// CacheTTL applies to every cached report.
	CacheTTL time.Duration
	// CategoryAliases maps uploaded category names to plan categories.
	CategoryAliases map[string]domain.PlanCategory
	// Now is the evaluation clock; nil means time.Now. Tests pin it.
	Now func() time.Time
}

// ReportService is the aggregation engine's orchestration layer: it
// resolves reads through the cache, delegates computation to the report
// package, and keeps the cache consistent with plan inserts.
type ReportService struct {
	store   port.ReportStore
	cache   port.Cache
	cfg     Config
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewReportService creates the service with all dependencies injected.
func NewReportService(store port.ReportStore, c port.Cache, cfg Config, metrics *observability.Metrics, logger *zap.Logger) *ReportService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CategoryAliases == nil {
		cfg.CategoryAliases = domain.DefaultCategoryAliases()
	}
	return &ReportService{
		store:   store,
		cache:   c,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// YearPerformance returns the 12 monthly performance rows for a year.
// Years outside any plausible calendar yield an empty sequence.
func (s *ReportService) YearPerformance(ctx context.Context, year int) ([]domain.MonthlyPerformance, error) {
	ctx, span := tracer.Start(ctx, "ReportService.YearPerformance")
	defer span.End()
	span.SetAttributes(attribute.Int("report.year", year))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("year_performance", time.Since(start))
	}()

	if year < 1 || year > 9999 {
		return []domain.MonthlyPerformance{}, nil
	}

	key := cache.YearPerformanceKey(year)
	var rows []domain.MonthlyPerformance
	if s.readCached(ctx, key, "year_performance", &rows) {
		return rows, nil
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	var (
		credits  []domain.Credit
		payments []domain.Payment
		plans    []domain.Plan
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		credits, err = s.store.CreditsIssuedBetween(gCtx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.store.PaymentsBetween(gCtx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		plans, err = s.store.PlansBetween(gCtx, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncrStoreError("year_performance")
		return nil, &domain.ErrStoreUnavailable{Err: err}
	}

	rows = report.BuildYearPerformance(year, credits, payments, plans)
	s.writeCached(ctx, key, "year_performance", rows)
	return rows, nil
}

// UserCredits returns one summary per credit owned by the user, ordered
// by issuance date. Unknown users yield an empty sequence, not an error.
func (s *ReportService) UserCredits(ctx context.Context, userID int64) ([]domain.CreditSummary, error) {
	ctx, span := tracer.Start(ctx, "ReportService.UserCredits")
	defer span.End()
	span.SetAttributes(attribute.Int64("report.user_id", userID))

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("user_credits", time.Since(start))
	}()

	key := cache.UserCreditsKey(userID)
	var summaries []domain.CreditSummary
	if s.readCached(ctx, key, "user_credits", &summaries) {
		return summaries, nil
	}

	credits, err := s.store.CreditsByUser(ctx, userID)
	if err != nil {
		s.metrics.IncrStoreError("user_credits")
		return nil, &domain.ErrStoreUnavailable{Err: err}
	}
	if len(credits) == 0 {
		summaries = []domain.CreditSummary{}
		s.writeCached(ctx, key, "user_credits", summaries)
		return summaries, nil
	}

	creditIDs := make([]int64, len(credits))
	for i, c := range credits {
		creditIDs[i] = c.ID
	}
	payments, err := s.store.PaymentsByCredits(ctx, creditIDs)
	if err != nil {
		s.metrics.IncrStoreError("user_credits")
		return nil, &domain.ErrStoreUnavailable{Err: err}
	}

	summaries = report.BuildCreditSummaries(credits, payments, s.cfg.Now())
	s.writeCached(ctx, key, "user_credits", summaries)
	return summaries, nil
}

// PlansPerformance evaluates every plan whose period is on or before the
// month containing checkDate, against actuals as of checkDate.
func (s *ReportService) PlansPerformance(ctx context.Context, checkDate time.Time) ([]domain.PlanPerformanceRow, error) {
	ctx, span := tracer.Start(ctx, "ReportService.PlansPerformance")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("plans_performance", time.Since(start))
	}()

	checkDate = domain.FirstOfDay(checkDate)

	key := cache.PlansPerformanceKey(checkDate)
	var rows []domain.PlanPerformanceRow
	if s.readCached(ctx, key, "plans_performance", &rows) {
		return rows, nil
	}

	plans, err := s.store.PlansUpTo(ctx, domain.FirstOfMonth(checkDate))
	if err != nil {
		s.metrics.IncrStoreError("plans_performance")
		return nil, &domain.ErrStoreUnavailable{Err: err}
	}
	if len(plans) == 0 {
		rows = []domain.PlanPerformanceRow{}
		s.writeCached(ctx, key, "plans_performance", rows)
		return rows, nil
	}

	// One window covering every plan month: [earliest period, end of
	// the check month). The engine narrows per plan.
	from := domain.FirstOfMonth(plans[0].Period)
	for _, p := range plans {
		if p.Period.Before(from) {
			from = domain.FirstOfMonth(p.Period)
		}
	}
	to := domain.FirstOfMonth(checkDate).AddDate(0, 1, 0)

	var (
		credits  []domain.Credit
		payments []domain.Payment
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		credits, err = s.store.CreditsIssuedBetween(gCtx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.store.PaymentsBetween(gCtx, from, checkDate.AddDate(0, 0, 1))
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncrStoreError("plans_performance")
		return nil, &domain.ErrStoreUnavailable{Err: err}
	}

	rows = report.BuildPlanPerformance(plans, credits, payments, checkDate)
	s.writeCached(ctx, key, "plans_performance", rows)
	return rows, nil
}

// readCached resolves key through the cache into target. A hit returns
// true; misses, decode failures and cache errors all return false —
// the caller recomputes. Cache trouble never fails a request.
func (s *ReportService) readCached(ctx context.Context, key, reportName string, target any) bool {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.metrics.IncrCacheError(reportName)
		s.logger.Warn("cache read failed, computing directly",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	if !ok {
		s.metrics.IncrCacheMiss(reportName)
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		s.metrics.IncrCacheError(reportName)
		s.logger.Warn("cache entry undecodable, recomputing",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	s.metrics.IncrCacheHit(reportName)
	return true
}

// writeCached stores value under key; failures are logged and skipped.
func (s *ReportService) writeCached(ctx context.Context, key, reportName string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cfg.CacheTTL); err != nil {
		s.metrics.IncrCacheError(reportName)
		s.logger.Warn("cache write failed, skipping",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// CheckStore reports store reachability (used by /healthz).
func (s *ReportService) CheckStore(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store ping: %w", err)
	}
	return nil
}
