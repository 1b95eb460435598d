// Package sqlite implements the relational report store on SQLite.
// Rows are converted into domain records at this boundary; callers never
// see database/sql types.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/imelnik/fintrack/internal/domain"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("sqlite")

const dateLayout = "2006-01-02"

// Store is the SQLite-backed report store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and bootstraps the
// schema. Entity tables are created on startup; there is no migration
// tooling, matching how the original data set is provisioned.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports store reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreditsIssuedBetween returns credits with issuance_date in [from, to).
func (s *Store) CreditsIssuedBetween(ctx context.Context, from, to time.Time) ([]domain.Credit, error) {
	ctx, span := tracer.Start(ctx, "Store.CreditsIssuedBetween")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, issuance_date, return_date, actual_return_date, body, percent
		FROM credits
		WHERE issuance_date >= ? AND issuance_date < ?
		ORDER BY issuance_date, id`,
		from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query credits: %w", err)
	}
	defer rows.Close()
	return scanCredits(rows)
}

// CreditsByUser returns all credits owned by userID, oldest issuance first.
func (s *Store) CreditsByUser(ctx context.Context, userID int64) ([]domain.Credit, error) {
	ctx, span := tracer.Start(ctx, "Store.CreditsByUser")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, issuance_date, return_date, actual_return_date, body, percent
		FROM credits
		WHERE user_id = ?
		ORDER BY issuance_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user credits: %w", err)
	}
	defer rows.Close()
	return scanCredits(rows)
}

// PaymentsBetween returns payments with payment_date in [from, to).
func (s *Store) PaymentsBetween(ctx context.Context, from, to time.Time) ([]domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "Store.PaymentsBetween")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, credit_id, payment_date, type_id, sum
		FROM payments
		WHERE payment_date >= ? AND payment_date < ?
		ORDER BY payment_date, id`,
		from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()
	return scanPayments(rows)
}

// PaymentsByCredits returns all payments made against the given credits.
func (s *Store) PaymentsByCredits(ctx context.Context, creditIDs []int64) ([]domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "Store.PaymentsByCredits")
	defer span.End()

	if len(creditIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(creditIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(creditIDs))
	for i, id := range creditIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, credit_id, payment_date, type_id, sum
		FROM payments
		WHERE credit_id IN (%s)
		ORDER BY payment_date, id`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query credit payments: %w", err)
	}
	defer rows.Close()
	return scanPayments(rows)
}

// PlansBetween returns plans with period in [from, to).
func (s *Store) PlansBetween(ctx context.Context, from, to time.Time) ([]domain.Plan, error) {
	ctx, span := tracer.Start(ctx, "Store.PlansBetween")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period, sum, category_id
		FROM plans
		WHERE period >= ? AND period < ?
		ORDER BY period, category_id`,
		from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()
	return scanPlans(rows)
}

// PlansUpTo returns every plan whose period is on or before cutoff.
func (s *Store) PlansUpTo(ctx context.Context, cutoff time.Time) ([]domain.Plan, error) {
	ctx, span := tracer.Start(ctx, "Store.PlansUpTo")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period, sum, category_id
		FROM plans
		WHERE period <= ?
		ORDER BY period, category_id`, cutoff.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query plans up to: %w", err)
	}
	defer rows.Close()
	return scanPlans(rows)
}

// InsertPlans persists all plans in a single transaction or none of
// them. A plan colliding with an existing (period, category) pair fails
// the whole batch with domain.ErrDuplicate.
func (s *Store) InsertPlans(ctx context.Context, plans []domain.Plan) (int, error) {
	ctx, span := tracer.Start(ctx, "Store.InsertPlans")
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range plans {
		period := domain.FirstOfMonth(p.Period).Format(dateLayout)

		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM plans WHERE period = ? AND category_id = ?`,
			period, int(p.Category)).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("check existing plan: %w", err)
		}
		if exists > 0 {
			return 0, &domain.ErrDuplicate{
				Key: fmt.Sprintf("plan %s/%s", period, p.Category),
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO plans (period, sum, category_id) VALUES (?, ?, ?)`,
			period, p.Sum, int(p.Category)); err != nil {
			return 0, fmt.Errorf("insert plan: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit plans: %w", err)
	}
	return len(plans), nil
}

func scanCredits(rows *sql.Rows) ([]domain.Credit, error) {
	var credits []domain.Credit
	for rows.Next() {
		var (
			c            domain.Credit
			issuance     string
			ret          string
			actualReturn sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.UserID, &issuance, &ret, &actualReturn, &c.Body, &c.Percent); err != nil {
			return nil, fmt.Errorf("scan credit: %w", err)
		}
		var err error
		if c.IssuanceDate, err = time.Parse(dateLayout, issuance); err != nil {
			return nil, fmt.Errorf("parse issuance_date: %w", err)
		}
		if c.ReturnDate, err = time.Parse(dateLayout, ret); err != nil {
			return nil, fmt.Errorf("parse return_date: %w", err)
		}
		if actualReturn.Valid {
			t, err := time.Parse(dateLayout, actualReturn.String)
			if err != nil {
				return nil, fmt.Errorf("parse actual_return_date: %w", err)
			}
			c.ActualReturnDate = &t
		}
		credits = append(credits, c)
	}
	return credits, rows.Err()
}

func scanPayments(rows *sql.Rows) ([]domain.Payment, error) {
	var payments []domain.Payment
	for rows.Next() {
		var (
			p      domain.Payment
			date   string
			typeID int
		)
		if err := rows.Scan(&p.ID, &p.CreditID, &date, &typeID, &p.Sum); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		var err error
		if p.PaymentDate, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("parse payment_date: %w", err)
		}
		p.Type = domain.PaymentType(typeID)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPlans(rows *sql.Rows) ([]domain.Plan, error) {
	var plans []domain.Plan
	for rows.Next() {
		var (
			p          domain.Plan
			period     string
			categoryID int
		)
		if err := rows.Scan(&p.ID, &period, &p.Sum, &categoryID); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		var err error
		if p.Period, err = time.Parse(dateLayout, period); err != nil {
			return nil, fmt.Errorf("parse period: %w", err)
		}
		p.Category = domain.PlanCategory(categoryID)
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
