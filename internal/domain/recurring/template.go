// Package recurring models recurring-transaction templates: a fixed
// debit/credit account pair and amount fired on a cadence.
package recurring

import (
	"time"

	"github.com/google/uuid"
	"github.com/openledger-engine/internal/domain/money"
)

// Cadence defines how a template's next execution date advances
type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
	CadenceYearly  Cadence = "yearly"
)

// Valid reports whether c is a known cadence.
func (c Cadence) Valid() bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly, CadenceYearly:
		return true
	}
	return false
}

// Advance returns the next execution date after from. Monthly and yearly
// cadences are calendar-aware: the day of month is re-anchored to anchorDay
// each step so that end-of-month templates clamp to the last valid day
// (Jan 31 -> Feb 28 -> Mar 31) instead of drifting.
func (c Cadence) Advance(from time.Time, anchorDay int) time.Time {
	switch c {
	case CadenceDaily:
		return from.AddDate(0, 0, 1)
	case CadenceWeekly:
		return from.AddDate(0, 0, 7)
	case CadenceMonthly:
		year, month := from.Year(), from.Month()+1
		return clampedDate(year, month, anchorDay, from.Location())
	case CadenceYearly:
		return clampedDate(from.Year()+1, from.Month(), anchorDay, from.Location())
	}
	return from
}

// clampedDate builds a date with the day clamped to the month's length.
func clampedDate(year int, month time.Month, day int, loc *time.Location) time.Time {
	lastDay := time.Date(year, month+1, 1, 0, 0, 0, 0, loc).AddDate(0, 0, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// Template is a recurring-transaction template. Each successful firing
// produces one committed transaction and advances NextExecution by the
// cadence; EndDate (when set) or IsActive=false terminates firing.
type Template struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description,omitempty"`
	Cadence         Cadence     `json:"cadence"`
	StartDate       time.Time   `json:"start_date"`
	EndDate         *time.Time  `json:"end_date,omitempty"`
	NextExecution   time.Time   `json:"next_execution_date"`
	Amount          money.Money `json:"amount"`
	DebitAccountID  uuid.UUID   `json:"account_debit_id"`
	CreditAccountID uuid.UUID   `json:"account_credit_id"`
	IsActive        bool        `json:"is_active"`
	CreatedAt       time.Time   `json:"created_at"`
}

// AnchorDay is the day of month the cadence re-anchors to on each advance.
func (t *Template) AnchorDay() int {
	return t.StartDate.Day()
}

// DueOn reports whether the template should fire for its current
// NextExecution date given today's date.
func (t *Template) DueOn(today time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.NextExecution.After(today) {
		return false
	}
	if t.EndDate != nil && t.NextExecution.After(*t.EndDate) {
		return false
	}
	return true
}
