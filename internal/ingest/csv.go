// Package ingest parses tabular files into domain records: the plan
// upload accepted by POST /plans_insert and the tab-separated entity
// files consumed by the initial bulk load.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/imelnik/fintrack/internal/domain"
)

// Upload column names, in the order the file is expected to carry them.
var planColumns = []string{"month", "category_name", "sum"}

// ParsePlanRecords reads an uploaded plan file (comma-separated, header
// row required) into raw plan records. Category names and months are
// validated later by the service; this layer only enforces file shape
// and numeric sums.
func ParsePlanRecords(r io.Reader) ([]domain.PlanRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &domain.ErrValidation{Field: "file", Message: "file is empty"}
	}
	if err != nil {
		return nil, &domain.ErrValidation{Field: "file", Message: fmt.Sprintf("unreadable header: %v", err)}
	}

	idx, err := columnIndex(header, planColumns)
	if err != nil {
		return nil, err
	}

	var records []domain.PlanRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.ErrValidation{Field: "file", Message: fmt.Sprintf("line %d: %v", line, err)}
		}

		rawSum := strings.TrimSpace(row[idx["sum"]])
		if rawSum == "" {
			return nil, &domain.ErrValidation{Field: "sum", Message: fmt.Sprintf("line %d: empty value", line)}
		}
		sum, err := strconv.ParseFloat(rawSum, 64)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "sum", Message: fmt.Sprintf("line %d: not a number: %s", line, rawSum)}
		}

		records = append(records, domain.PlanRecord{
			Month:        strings.TrimSpace(row[idx["month"]]),
			CategoryName: strings.TrimSpace(row[idx["category_name"]]),
			Sum:          sum,
		})
	}

	if len(records) == 0 {
		return nil, &domain.ErrValidation{Field: "file", Message: "file contains no plan rows"}
	}
	return records, nil
}

// columnIndex maps required column names to their positions in the
// header, failing with a validation error when any is missing.
func columnIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, &domain.ErrValidation{
				Field:   "file",
				Message: fmt.Sprintf("missing column %q (expected: %s)", name, strings.Join(required, ", ")),
			}
		}
	}
	return idx, nil
}
