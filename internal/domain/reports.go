package domain

import "time"

// MonthlyPerformance is one row of the year performance report.
// YearPerformance always returns exactly 12 of these, January through
// December, zero-filled for months without activity.
type MonthlyPerformance struct {
	MonthYear                    string  `json:"month_year"` // "2021-03"
	IssuanceCount                int     `json:"issuance_count"`
	PlanIssuanceSum              float64 `json:"plan_issuance_sum"`
	ActualIssuanceSum            float64 `json:"actual_issuance_sum"`
	IssuancePerformancePercent   float64 `json:"issuance_performance_percent"`
	PaymentCount                 int     `json:"payment_count"`
	PlanCollectionSum            float64 `json:"plan_collection_sum"`
	ActualCollectionSum          float64 `json:"actual_collection_sum"`
	CollectionPerformancePercent float64 `json:"collection_performance_percent"`
	IssuancePercentOfYear        float64 `json:"issuance_percent_of_year"`
	CollectionPercentOfYear      float64 `json:"collection_percent_of_year"`
}

// CreditSummary is one row of the per-user credit report, ordered by
// issuance date.
type CreditSummary struct {
	CreditID         int64      `json:"credit_id"`
	IssuanceDate     time.Time  `json:"issuance_date"`
	ReturnDate       time.Time  `json:"return_date"`
	ActualReturnDate *time.Time `json:"actual_return_date,omitempty"`
	Closed           bool       `json:"is_closed"`
	Body             float64    `json:"body"`
	Percent          float64    `json:"percent"`
	TotalPaid        float64    `json:"total_paid"`
	BodyPaid         float64    `json:"body_paid"`
	InterestPaid     float64    `json:"interest_paid"`
	Balance          float64    `json:"balance"`
	Overdue          bool       `json:"overdue"`
	OverdueDays      *int       `json:"overdue_days,omitempty"`
}

// PlanPerformanceRow reports how a single plan performed as of a cutoff
// date.
type PlanPerformanceRow struct {
	Month              time.Time `json:"month"`
	Category           string    `json:"category"`
	PlanSum            float64   `json:"plan_sum"`
	ActualSum          float64   `json:"actual_sum"`
	PerformancePercent float64   `json:"performance_percent"`
}
