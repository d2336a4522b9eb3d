// Package schedule matches appointment dates and time slots against
// technician availability and parts lead time.
package schedule

import (
	"context"
	"time"

	"fixitapp/internal/domain"
	"fixitapp/internal/inventory"

	"github.com/samber/lo"
)

// OrderLeadDays is the scheduling delay applied when any selected part
// must be ordered first.
const OrderLeadDays = 3

// DefaultSlots is the fixed set of daily appointment windows.
var DefaultSlots = []string{
	"09:00 - 11:00",
	"11:00 - 13:00",
	"13:00 - 15:00",
	"15:00 - 17:00",
}

// DateFormat is the calendar-date key format used by availability tables.
const DateFormat = "2006-01-02"

// Table maps a calendar date (DateFormat) to the bookable slots on that
// date. A nil Table means availability has not loaded yet; all default
// slots are presumptively offered until it does.
type Table map[string][]string

// Provider fetches the availability table from wherever the business
// maintains it.
type Provider interface {
	Availability(ctx context.Context) (Table, error)
}

// Matcher resolves the minimum bookable date and the slots for a date
type Matcher struct {
	checker *inventory.Checker
	now     func() time.Time
}

// NewMatcher creates a matcher over the given inventory checker.
func NewMatcher(checker *inventory.Checker) *Matcher {
	return &Matcher{checker: checker, now: time.Now}
}

// WithClock overrides the matcher's clock, for tests.
func (m *Matcher) WithClock(now func() time.Time) *Matcher {
	m.now = now
	return m
}

// Today returns the current calendar date, truncated to midnight.
func (m *Matcher) Today() time.Time {
	return Truncate(m.now())
}

// MinimumDate returns the earliest date the selection can be scheduled:
// today when every part is confirmed in stock, today plus the ordering
// lead time when any part needs ordering. A date equal to the minimum
// is selectable; nothing earlier ever is.
func (m *Matcher) MinimumDate(ctx context.Context, sel *domain.QuoteSelection) time.Time {
	today := m.Today()
	if m.checker.AllInStock(ctx, sel) {
		return today
	}
	if m.checker.NeedsOrder(ctx, sel) {
		return today.AddDate(0, 0, OrderLeadDays)
	}
	// Unknown stock does not force an ordering delay
	return today
}

// SlotsFor returns the bookable slots for a date. Dates before minDate
// are never bookable, even when a stale availability table claims
// otherwise. A nil table presumptively offers all default slots; a
// loaded table with no entry for the date returns nothing, and the
// caller should ask the customer to pick another date.
func (m *Matcher) SlotsFor(date, minDate time.Time, table Table) []string {
	if Truncate(date).Before(Truncate(minDate)) {
		return nil
	}
	if table == nil {
		return append([]string(nil), DefaultSlots...)
	}
	slots := table[Truncate(date).Format(DateFormat)]
	// Only slots from the fixed set count, whatever the table says
	return lo.Filter(slots, func(s string, _ int) bool {
		return lo.Contains(DefaultSlots, s)
	})
}

// Selectable reports whether a (date, slot) pair may be booked.
func (m *Matcher) Selectable(date, minDate time.Time, slot string, table Table) bool {
	return lo.Contains(m.SlotsFor(date, minDate, table), slot)
}

// Truncate strips the time-of-day component from t.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
