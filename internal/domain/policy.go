package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultLoanPeriodDays = 14
	DefaultLateFine       = 200
)

// LoanPolicy holds the loan period and the flat late fine. All comparisons are
// done on calendar dates in Location.
type LoanPolicy struct {
	PeriodDays int
	LateFine   decimal.Decimal
	Location   *time.Location
}

func DefaultLoanPolicy() LoanPolicy {
	return LoanPolicy{
		PeriodDays: DefaultLoanPeriodDays,
		LateFine:   decimal.NewFromInt(DefaultLateFine),
		Location:   time.UTC,
	}
}

func (p LoanPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// DateOf truncates a timestamp to midnight of its calendar day in the policy location.
func (p LoanPolicy) DateOf(ts time.Time) time.Time {
	loc := p.location()
	ts = ts.In(loc)
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
}

// calendarDate keeps the year/month/day of a stored date as they are. DATE
// columns come back at midnight UTC and must not shift across the date line.
func (p LoanPolicy) calendarDate(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, p.location())
}

// DueDate is the issue day plus the loan period.
func (p LoanPolicy) DueDate(issuedAt time.Time) time.Time {
	return p.DateOf(issuedAt).AddDate(0, 0, p.PeriodDays)
}

// FineFor applies the flat fine when the return day is strictly after the due day.
func (p LoanPolicy) FineFor(dueDate, returnedAt time.Time) decimal.Decimal {
	if p.DateOf(returnedAt).After(p.calendarDate(dueDate)) {
		return p.LateFine
	}
	return decimal.Zero
}

// IsOverdue reports whether today is strictly after the due day.
func (p LoanPolicy) IsOverdue(dueDate, now time.Time) bool {
	return p.DateOf(now).After(p.calendarDate(dueDate))
}
