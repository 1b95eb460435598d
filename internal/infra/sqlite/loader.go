package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/imelnik/fintrack/internal/domain"
)

// Bulk inserts for the initial data load. Each batch is one transaction;
// explicit IDs are preserved so foreign keys in the source files stay
// valid. These paths are not used at request time.

// InsertUsers inserts all users in one transaction.
func (s *Store) InsertUsers(ctx context.Context, users []domain.User) (int, error) {
	return s.bulk(ctx, len(users), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO users (id, login, registration_date) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, u := range users {
			if _, err := stmt.ExecContext(ctx, u.ID, u.Login, u.RegistrationDate.Format(dateLayout)); err != nil {
				return fmt.Errorf("insert user %d: %w", u.ID, err)
			}
		}
		return nil
	})
}

// InsertCredits inserts all credits in one transaction.
func (s *Store) InsertCredits(ctx context.Context, credits []domain.Credit) (int, error) {
	return s.bulk(ctx, len(credits), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO credits (id, user_id, issuance_date, return_date, actual_return_date, body, percent)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range credits {
			var actualReturn any
			if c.ActualReturnDate != nil {
				actualReturn = c.ActualReturnDate.Format(dateLayout)
			}
			if _, err := stmt.ExecContext(ctx,
				c.ID, c.UserID,
				c.IssuanceDate.Format(dateLayout), c.ReturnDate.Format(dateLayout),
				actualReturn, c.Body, c.Percent); err != nil {
				return fmt.Errorf("insert credit %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

// InsertPayments inserts all payments in one transaction.
func (s *Store) InsertPayments(ctx context.Context, payments []domain.Payment) (int, error) {
	return s.bulk(ctx, len(payments), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO payments (id, credit_id, payment_date, type_id, sum)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range payments {
			if _, err := stmt.ExecContext(ctx,
				p.ID, p.CreditID, p.PaymentDate.Format(dateLayout), int(p.Type), p.Sum); err != nil {
				return fmt.Errorf("insert payment %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) bulk(ctx context.Context, n int, fn func(tx *sql.Tx) error) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
