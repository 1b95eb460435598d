// Package domain holds the typed records and report rows of the
// FinTrack reporting API. Database rows are converted into these
// values at the store boundary; the aggregation engine never sees
// raw rows.
package domain

import (
	"strings"
	"time"
)

// PlanCategory classifies a monthly plan target.
type PlanCategory int

const (
	CategoryIssuance PlanCategory = iota + 1
	CategoryCollection
)

func (c PlanCategory) String() string {
	switch c {
	case CategoryIssuance:
		return "issuance"
	case CategoryCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// PaymentType distinguishes principal repayments from interest repayments.
type PaymentType int

const (
	PaymentBody PaymentType = iota + 1
	PaymentInterest
)

func (t PaymentType) String() string {
	switch t {
	case PaymentBody:
		return "body"
	case PaymentInterest:
		return "interest"
	default:
		return "unknown"
	}
}

// User owns zero or more credits.
type User struct {
	ID               int64     `json:"id"`
	Login            string    `json:"login"`
	RegistrationDate time.Time `json:"registration_date"`
}

// Credit is a disbursed loan. ActualReturnDate is nil while the credit
// is still outstanding.
type Credit struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	IssuanceDate     time.Time  `json:"issuance_date"`
	ReturnDate       time.Time  `json:"return_date"`
	ActualReturnDate *time.Time `json:"actual_return_date,omitempty"`
	Body             float64    `json:"body"`
	Percent          float64    `json:"percent"`
}

// Closed reports whether the credit has been repaid.
func (c Credit) Closed() bool {
	return c.ActualReturnDate != nil
}

// Payment is a single repayment against a credit. Immutable once created.
type Payment struct {
	ID          int64       `json:"id"`
	CreditID    int64       `json:"credit_id"`
	PaymentDate time.Time   `json:"payment_date"`
	Type        PaymentType `json:"type"`
	Sum         float64     `json:"sum"`
}

// Plan is a target sum for issuance or collection in a given month.
// Period is always the first day of the month.
type Plan struct {
	ID       int64        `json:"id"`
	Period   time.Time    `json:"period"`
	Sum      float64      `json:"sum"`
	Category PlanCategory `json:"category"`
}

// PlanRecord is one row of an uploaded plan file before validation.
type PlanRecord struct {
	Month        string
	CategoryName string
	Sum          float64
}

// DefaultCategoryAliases maps uploaded category names (lower-cased) to
// plan categories. The service receives this mapping via its config so
// deployments can extend it without code changes.
func DefaultCategoryAliases() map[string]PlanCategory {
	return map[string]PlanCategory{
		"issuance":   CategoryIssuance,
		"collection": CategoryCollection,
	}
}

// FirstOfMonth normalizes t to the first day of its month (UTC midnight).
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// FirstOfDay truncates t to UTC midnight. Dates in this system are
// day-granular; comparisons go through this so time-of-day never leaks
// into report semantics.
func FirstOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseCategory resolves a category name against the alias map,
// case-insensitively. The second return value is false when the name is
// unknown.
func ParseCategory(name string, aliases map[string]PlanCategory) (PlanCategory, bool) {
	c, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}
