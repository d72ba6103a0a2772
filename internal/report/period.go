// Package report turns expense records into the fixed seven-column usage
// report and serializes it for export.
package report

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ggonsajang/comcard/internal/core"
)

// Period scopes an export.
type Period string

const (
	PeriodAll      Period = "all"
	PeriodCurrent  Period = "current"
	PeriodPrevious Period = "previous"
)

var ErrInvalidPeriod = errors.New("invalid period")

func (p Period) String() string {
	return string(p)
}

func (p Period) IsValid() bool {
	switch p {
	case PeriodAll, PeriodCurrent, PeriodPrevious:
		return true
	default:
		return false
	}
}

// Periods returns all valid periods.
func Periods() []Period {
	return []Period{PeriodAll, PeriodCurrent, PeriodPrevious}
}

// ParsePeriod accepts the period names in any case. An empty string means
// the current month.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PeriodCurrent, nil
	}
	p := Period(s)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// ReferenceMonth returns the calendar month a period refers to, evaluated
// against now. ok is false for PeriodAll.
func ReferenceMonth(p Period, now time.Time) (year int, month time.Month, ok bool) {
	switch p {
	case PeriodCurrent:
		return now.Year(), now.Month(), true
	case PeriodPrevious:
		prev := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
		return prev.Year(), prev.Month(), true
	default:
		return 0, 0, false
	}
}

// Filter returns the records of items that fall in period p. The result is
// always a new slice; items is never modified.
func Filter(items []core.Expense, p Period, now time.Time) []core.Expense {
	year, month, ok := ReferenceMonth(p, now)
	if !ok {
		return slices.Clone(items)
	}
	out := make([]core.Expense, 0, len(items))
	for _, e := range items {
		if e.Date.SameMonth(year, month) {
			out = append(out, e)
		}
	}
	return out
}

// Title is the label used in file names and mail subjects.
func Title(p Period, now time.Time) string {
	year, month, ok := ReferenceMonth(p, now)
	if !ok {
		return "전체내역"
	}
	return fmt.Sprintf("%d년%d월_내역", year, int(month))
}
