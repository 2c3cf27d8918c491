package core

import (
	"strings"
	"time"
)

const (
	ReportMonthly = "monthly"
	ReportYearly  = "yearly"
)

// Period is an inclusive range of calendar days.
type Period struct {
	Start Date
	End   Date
}

func NewPeriod(start, end Date) (Period, error) {
	if err := start.Validate(); err != nil {
		return Period{}, err
	}
	if err := end.Validate(); err != nil {
		return Period{}, err
	}
	if end.Before(start.Time) {
		return Period{}, invalid("period", ErrInvalidPeriod)
	}
	return Period{Start: start, End: end}, nil
}

// MonthlyReportRange returns the first and last day of today's month. The
// end is the true last day (28 to 31), not a fixed cutoff.
func MonthlyReportRange(today time.Time) Period {
	first := NewDate(today.Year(), int(today.Month()), 1)
	last := DateOf(first.AddDate(0, 1, -1))
	return Period{Start: first, End: last}
}

// YearlyReportRange returns January 1st through December 31st of today's year.
func YearlyReportRange(today time.Time) Period {
	return Period{
		Start: NewDate(today.Year(), 1, 1),
		End:   NewDate(today.Year(), 12, 31),
	}
}

// ReportRange maps a report type name to its period around today.
func ReportRange(reportType string, today time.Time) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(reportType)) {
	case ReportMonthly:
		return MonthlyReportRange(today), nil
	case ReportYearly:
		return YearlyReportRange(today), nil
	default:
		return Period{}, invalid("report type", ErrInvalidReportType)
	}
}
