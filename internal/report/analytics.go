// Package report summarizes submission history by month and writes
// spreadsheet exports.
package report

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

// MonthLayout is the accepted month format
const MonthLayout = "2006-01"

// ErrInvalidMonth is returned for months not in YYYY-MM form
var ErrInvalidMonth = errors.New("invalid month")

// ValidateMonth parses a YYYY-MM month and returns its first instant in loc
func ValidateMonth(month string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(MonthLayout, month, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected YYYY-MM", ErrInvalidMonth, month)
	}
	return t, nil
}

// MonthRange returns [start, end) for the month beginning at start
func MonthRange(start time.Time) (time.Time, time.Time) {
	return start, start.AddDate(0, 1, 0)
}

// Total is a count and amount for one grouping key
type Total struct {
	Key    string          `json:"key"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary holds the totals for one month
type Summary struct {
	Month     string          `json:"month"`
	Count     int             `json:"count"`
	Amount    decimal.Decimal `json:"amount"`
	ByStudent []Total         `json:"by_student"`
	ByType    []Total         `json:"by_type"`
	// Skipped counts records whose amount could not be parsed
	Skipped int `json:"skipped,omitempty"`
}

// Summarize totals records for month. Records outside the month are ignored.
func Summarize(month time.Time, records []*entity.SubmissionRecord) *Summary {
	start, end := MonthRange(month)
	s := &Summary{Month: start.Format(MonthLayout), Amount: decimal.Zero}

	byStudent := map[string]*Total{}
	byType := map[string]*Total{}

	for _, rec := range records {
		if rec.LoggedAt.Before(start) || !rec.LoggedAt.Before(end) {
			continue
		}
		amount, err := decimal.NewFromString(rec.Amount)
		if err != nil {
			s.Skipped++
			continue
		}

		s.Count++
		s.Amount = s.Amount.Add(amount)
		add(byStudent, rec.Student, amount)
		add(byType, rec.Type, amount)
	}

	s.ByStudent = sorted(byStudent)
	s.ByType = sorted(byType)
	return s
}

func add(m map[string]*Total, key string, amount decimal.Decimal) {
	t, ok := m[key]
	if !ok {
		t = &Total{Key: key, Amount: decimal.Zero}
		m[key] = t
	}
	t.Count++
	t.Amount = t.Amount.Add(amount)
}

func sorted(m map[string]*Total) []Total {
	out := make([]Total, 0, len(m))
	for _, t := range m {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
