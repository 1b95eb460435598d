// Package report implements the aggregation engine: pure computation
// over typed query results, producing monthly performance rows, per-user
// credit summaries and plan performance rows. Nothing here touches the
// store or the cache, which keeps every rule unit-testable.
package report

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/imelnik/fintrack/internal/domain"
)

// Round2 rounds v to two decimal places. All percentages in the API go
// through this, so every read operation reports the same precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ratioPercent returns actual/planned as a percentage, zero-guarded:
// a zero denominator yields 0, never a division fault.
func ratioPercent(actual, planned float64) float64 {
	if planned <= 0 {
		return 0
	}
	return Round2(actual / planned * 100)
}

// BuildYearPerformance computes the 12 monthly performance rows for a
// year. Months without activity produce zero-filled rows; the slice is
// always length 12, January first.
func BuildYearPerformance(year int, credits []domain.Credit, payments []domain.Payment, plans []domain.Plan) []domain.MonthlyPerformance {
	var issuanceCount, paymentCount [12]int
	var issuanceSum, collectionSum [12]float64
	var planIssuance, planCollection [12]float64

	for _, c := range credits {
		if c.IssuanceDate.Year() != year {
			continue
		}
		m := int(c.IssuanceDate.Month()) - 1
		issuanceCount[m]++
		issuanceSum[m] += c.Body
	}
	for _, p := range payments {
		if p.PaymentDate.Year() != year {
			continue
		}
		m := int(p.PaymentDate.Month()) - 1
		paymentCount[m]++
		collectionSum[m] += p.Sum
	}
	for _, pl := range plans {
		if pl.Period.Year() != year {
			continue
		}
		m := int(pl.Period.Month()) - 1
		switch pl.Category {
		case domain.CategoryIssuance:
			planIssuance[m] += pl.Sum
		case domain.CategoryCollection:
			planCollection[m] += pl.Sum
		}
	}

	var totalIssuance, totalCollection float64
	for m := 0; m < 12; m++ {
		totalIssuance += issuanceSum[m]
		totalCollection += collectionSum[m]
	}

	rows := make([]domain.MonthlyPerformance, 12)
	for m := 0; m < 12; m++ {
		rows[m] = domain.MonthlyPerformance{
			MonthYear:                    fmt.Sprintf("%04d-%02d", year, m+1),
			IssuanceCount:                issuanceCount[m],
			PlanIssuanceSum:              planIssuance[m],
			ActualIssuanceSum:            issuanceSum[m],
			IssuancePerformancePercent:   ratioPercent(issuanceSum[m], planIssuance[m]),
			PaymentCount:                 paymentCount[m],
			PlanCollectionSum:            planCollection[m],
			ActualCollectionSum:          collectionSum[m],
			CollectionPerformancePercent: ratioPercent(collectionSum[m], planCollection[m]),
			IssuancePercentOfYear:        ratioPercent(issuanceSum[m], totalIssuance),
			CollectionPercentOfYear:      ratioPercent(collectionSum[m], totalCollection),
		}
	}
	return rows
}

// BuildCreditSummaries computes one summary per credit, ordered by
// issuance date. payments may contain rows for other credits; they are
// grouped by credit id. now is the evaluation time for the overdue flag.
func BuildCreditSummaries(credits []domain.Credit, payments []domain.Payment, now time.Time) []domain.CreditSummary {
	type paid struct {
		total, body, interest float64
	}
	byCredit := make(map[int64]paid, len(credits))
	for _, p := range payments {
		agg := byCredit[p.CreditID]
		agg.total += p.Sum
		switch p.Type {
		case domain.PaymentBody:
			agg.body += p.Sum
		case domain.PaymentInterest:
			agg.interest += p.Sum
		}
		byCredit[p.CreditID] = agg
	}

	today := domain.FirstOfDay(now)
	summaries := make([]domain.CreditSummary, 0, len(credits))
	for _, c := range credits {
		agg := byCredit[c.ID]
		balance := c.Body + c.Percent - agg.total
		if balance < 0 {
			balance = 0
		}

		overdue := !c.Closed() && c.ReturnDate.Before(today)
		var overdueDays *int
		if overdue {
			days := int(today.Sub(c.ReturnDate).Hours() / 24)
			overdueDays = &days
		}

		summaries = append(summaries, domain.CreditSummary{
			CreditID:         c.ID,
			IssuanceDate:     c.IssuanceDate,
			ReturnDate:       c.ReturnDate,
			ActualReturnDate: c.ActualReturnDate,
			Closed:           c.Closed(),
			Body:             c.Body,
			Percent:          c.Percent,
			TotalPaid:        agg.total,
			BodyPaid:         agg.body,
			InterestPaid:     agg.interest,
			Balance:          balance,
			Overdue:          overdue,
			OverdueDays:      overdueDays,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].IssuanceDate.Equal(summaries[j].IssuanceDate) {
			return summaries[i].CreditID < summaries[j].CreditID
		}
		return summaries[i].IssuanceDate.Before(summaries[j].IssuanceDate)
	})
	return summaries
}

// BuildPlanPerformance evaluates every plan against actuals as of
// checkDate. Issuance plans measure credits issued within the plan's
// month; collection plans measure payments within the plan's month up to
// and including checkDate (partial-month evaluation). Rows are ordered
// by period, issuance before collection within a period.
func BuildPlanPerformance(plans []domain.Plan, credits []domain.Credit, payments []domain.Payment, checkDate time.Time) []domain.PlanPerformanceRow {
	cutoff := domain.FirstOfDay(checkDate)

	rows := make([]domain.PlanPerformanceRow, 0, len(plans))
	for _, pl := range plans {
		monthStart := domain.FirstOfMonth(pl.Period)
		monthEnd := monthStart.AddDate(0, 1, 0) // exclusive

		var actual float64
		switch pl.Category {
		case domain.CategoryIssuance:
			for _, c := range credits {
				if inRange(c.IssuanceDate, monthStart, monthEnd) {
					actual += c.Body
				}
			}
		case domain.CategoryCollection:
			for _, p := range payments {
				if inRange(p.PaymentDate, monthStart, monthEnd) && !p.PaymentDate.After(cutoff) {
					actual += p.Sum
				}
			}
		}

		rows = append(rows, domain.PlanPerformanceRow{
			Month:              monthStart,
			Category:           pl.Category.String(),
			PlanSum:            pl.Sum,
			ActualSum:          actual,
			PerformancePercent: ratioPercent(actual, pl.Sum),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Month.Equal(rows[j].Month) {
			return rows[i].Month.Before(rows[j].Month)
		}
		return categoryRank(rows[i].Category) < categoryRank(rows[j].Category)
	})
	return rows
}

func categoryRank(name string) int {
	if name == domain.CategoryIssuance.String() {
		return 0
	}
	return 1
}

// inRange reports whether t falls in [from, to).
func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
