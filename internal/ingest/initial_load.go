package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/imelnik/fintrack/internal/domain"
)

// The initial data set ships as tab-separated files with dd.mm.yyyy
// dates and explicit row IDs.
const loadDateLayout = "02.01.2006"

func tsvReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.TrimLeadingSpace = true
	return reader
}

// ParseUsers reads the users file (id, login, registration_date).
func ParseUsers(r io.Reader) ([]domain.User, error) {
	rows, idx, err := readAll(tsvReader(r), []string{"id", "login", "registration_date"})
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(rows))
	for i, row := range rows {
		id, err := parseID(row[idx["id"]], i)
		if err != nil {
			return nil, err
		}
		reg, err := parseLoadDate(row[idx["registration_date"]], i)
		if err != nil {
			return nil, err
		}
		users = append(users, domain.User{
			ID:               id,
			Login:            strings.TrimSpace(row[idx["login"]]),
			RegistrationDate: reg,
		})
	}
	return users, nil
}

// ParseCredits reads the credits file. actual_return_date may be empty
// for outstanding credits.
func ParseCredits(r io.Reader) ([]domain.Credit, error) {
	cols := []string{"id", "user_id", "issuance_date", "return_date", "actual_return_date", "body", "percent"}
	rows, idx, err := readAll(tsvReader(r), cols)
	if err != nil {
		return nil, err
	}

	credits := make([]domain.Credit, 0, len(rows))
	for i, row := range rows {
		id, err := parseID(row[idx["id"]], i)
		if err != nil {
			return nil, err
		}
		userID, err := parseID(row[idx["user_id"]], i)
		if err != nil {
			return nil, err
		}
		issuance, err := parseLoadDate(row[idx["issuance_date"]], i)
		if err != nil {
			return nil, err
		}
		ret, err := parseLoadDate(row[idx["return_date"]], i)
		if err != nil {
			return nil, err
		}
		var actualReturn *time.Time
		if raw := strings.TrimSpace(row[idx["actual_return_date"]]); raw != "" {
			t, err := parseLoadDate(raw, i)
			if err != nil {
				return nil, err
			}
			actualReturn = &t
		}
		body, err := parseSum(row[idx["body"]], i)
		if err != nil {
			return nil, err
		}
		percent, err := parseSum(row[idx["percent"]], i)
		if err != nil {
			return nil, err
		}
		credits = append(credits, domain.Credit{
			ID:               id,
			UserID:           userID,
			IssuanceDate:     issuance,
			ReturnDate:       ret,
			ActualReturnDate: actualReturn,
			Body:             body,
			Percent:          percent,
		})
	}
	return credits, nil
}

// ParsePayments reads the payments file (id, sum, payment_date,
// credit_id, type_id).
func ParsePayments(r io.Reader) ([]domain.Payment, error) {
	cols := []string{"id", "sum", "payment_date", "credit_id", "type_id"}
	rows, idx, err := readAll(tsvReader(r), cols)
	if err != nil {
		return nil, err
	}

	payments := make([]domain.Payment, 0, len(rows))
	for i, row := range rows {
		id, err := parseID(row[idx["id"]], i)
		if err != nil {
			return nil, err
		}
		creditID, err := parseID(row[idx["credit_id"]], i)
		if err != nil {
			return nil, err
		}
		typeID, err := parseID(row[idx["type_id"]], i)
		if err != nil {
			return nil, err
		}
		date, err := parseLoadDate(row[idx["payment_date"]], i)
		if err != nil {
			return nil, err
		}
		sum, err := parseSum(row[idx["sum"]], i)
		if err != nil {
			return nil, err
		}
		payments = append(payments, domain.Payment{
			ID:          id,
			CreditID:    creditID,
			PaymentDate: date,
			Type:        domain.PaymentType(typeID),
			Sum:         sum,
		})
	}
	return payments, nil
}

// ParseInitialPlans reads the plans file (id, period, sum, category_id).
// Periods are normalized to the first of their month.
func ParseInitialPlans(r io.Reader) ([]domain.Plan, error) {
	cols := []string{"id", "period", "sum", "category_id"}
	rows, idx, err := readAll(tsvReader(r), cols)
	if err != nil {
		return nil, err
	}

	plans := make([]domain.Plan, 0, len(rows))
	for i, row := range rows {
		id, err := parseID(row[idx["id"]], i)
		if err != nil {
			return nil, err
		}
		categoryID, err := parseID(row[idx["category_id"]], i)
		if err != nil {
			return nil, err
		}
		period, err := parseLoadDate(row[idx["period"]], i)
		if err != nil {
			return nil, err
		}
		sum, err := parseSum(row[idx["sum"]], i)
		if err != nil {
			return nil, err
		}
		plans = append(plans, domain.Plan{
			ID:       id,
			Period:   domain.FirstOfMonth(period),
			Sum:      sum,
			Category: domain.PlanCategory(categoryID),
		})
	}
	return plans, nil
}

func readAll(reader *csv.Reader, required []string) ([][]string, map[string]int, error) {
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, &domain.ErrValidation{Field: "file", Message: "file is empty"}
	}
	if err != nil {
		return nil, nil, &domain.ErrValidation{Field: "file", Message: fmt.Sprintf("unreadable header: %v", err)}
	}
	idx, err := columnIndex(header, required)
	if err != nil {
		return nil, nil, err
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &domain.ErrValidation{Field: "file", Message: err.Error()}
		}
		rows = append(rows, row)
	}
	return rows, idx, nil
}

func parseID(raw string, line int) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &domain.ErrValidation{Field: "id", Message: fmt.Sprintf("row %d: not an integer: %s", line+1, raw)}
	}
	return id, nil
}

func parseSum(raw string, line int) (float64, error) {
	sum, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &domain.ErrValidation{Field: "sum", Message: fmt.Sprintf("row %d: not a number: %s", line+1, raw)}
	}
	return sum, nil
}

func parseLoadDate(raw string, line int) (time.Time, error) {
	t, err := time.Parse(loadDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, &domain.ErrValidation{Field: "date", Message: fmt.Sprintf("row %d: bad date: %s", line+1, raw)}
	}
	return t, nil
}
