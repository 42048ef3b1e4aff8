package recurrence

import (
	"fmt"
	"time"
)

// maxScan bounds forward scans over occurrences.
const maxScan = 1000

// Schedule anchors a Rule in time. Start is inclusive and is the anchor for
// interval arithmetic; End, when set, is the last day an occurrence may fall on.
// On is the due date of a one-shot (None) task and falls back to Start.
type Schedule struct {
	Rule  Rule
	Start Day
	End   *Day
	On    *Day
}

// Validate reports whether the schedule can produce occurrences.
func (s Schedule) Validate() error {
	if err := validateRule(s.Rule); err != nil {
		return err
	}
	if _, ok := s.Rule.(None); ok {
		if _, ok := s.oneShot(); !ok {
			return fmt.Errorf("%w: one-off task needs a due date or start date", ErrInvalidConfig)
		}
	} else if s.Start.IsZero() {
		return fmt.Errorf("%w: recurring task needs a start date", ErrInvalidConfig)
	}
	if s.End != nil && !s.Start.IsZero() && s.End.Before(s.Start) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidConfig, s.End, s.Start)
	}
	return nil
}

// IsDue reports whether the schedule has an occurrence on date.
func (s Schedule) IsDue(date Day) bool {
	if !s.withinEnd(date) {
		return false
	}
	if _, ok := s.Rule.(None); ok {
		on, ok := s.oneShot()
		return ok && date.Equal(on)
	}
	if s.Start.IsZero() || date.Before(s.Start) {
		return false
	}
	if date.Equal(s.Start) {
		return true
	}
	if r, ok := s.Rule.(Monthly); ok {
		if r.Every < 1 || date.Day() != s.Start.Day() {
			return false
		}
		return MonthsBetween(s.Start, date)%r.Every == 0
	}
	n := s.step()
	return n > 0 && DaysBetween(s.Start, date)%n == 0
}

// Previous returns the latest occurrence strictly before date, or nil.
func (s Schedule) Previous(date Day) *Day {
	if s.Start.IsZero() {
		return nil
	}
	limit := date
	if s.End != nil && s.End.AddDays(1).Before(limit) {
		limit = s.End.AddDays(1)
	}

	switch r := s.Rule.(type) {
	case None:
		return nil
	case Monthly:
		return s.previousMonthly(r.Every, limit)
	}

	n := s.step()
	if n <= 0 {
		return nil
	}
	d := DaysBetween(s.Start, limit)
	if d <= 0 {
		return nil
	}
	prev := s.Start.AddDays((d - 1) / n * n)
	return &prev
}

// Next returns the earliest occurrence strictly after date, or nil.
func (s Schedule) Next(date Day) *Day {
	var next *Day
	switch r := s.Rule.(type) {
	case None:
		if on, ok := s.oneShot(); ok && on.After(date) {
			next = &on
		}
	case Monthly:
		next = s.nextMonthly(r.Every, date)
	default:
		n := s.step()
		if n <= 0 || s.Start.IsZero() {
			return nil
		}
		c := s.Start
		if !date.Before(s.Start) {
			c = s.Start.AddDays((DaysBetween(s.Start, date)/n + 1) * n)
		}
		next = &c
	}
	if next != nil && !s.withinEnd(*next) {
		return nil
	}
	return next
}

// PeriodsBetween counts occurrences in (from, to].
func (s Schedule) PeriodsBetween(from, to Day) int {
	count := 0
	cur := from
	for i := 0; i < maxScan; i++ {
		next := s.Next(cur)
		if next == nil || next.After(to) {
			break
		}
		count++
		cur = *next
	}
	return count
}

// Describe returns a human-readable summary including the bounds.
func (s Schedule) Describe() string {
	if s.Rule == nil {
		return ""
	}
	desc := s.Rule.Describe()
	if _, ok := s.Rule.(None); ok {
		if on, ok := s.oneShot(); ok {
			return desc + " (due " + on.String() + ")"
		}
		return desc
	}
	if s.End != nil {
		return fmt.Sprintf("%s from %s until %s", desc, s.Start, s.End)
	}
	return fmt.Sprintf("%s from %s", desc, s.Start)
}

func (s Schedule) oneShot() (Day, bool) {
	if s.On != nil && !s.On.IsZero() {
		return *s.On, true
	}
	if !s.Start.IsZero() {
		return s.Start, true
	}
	return Day{}, false
}

func (s Schedule) withinEnd(date Day) bool {
	return s.End == nil || !date.After(*s.End)
}

// step is the fixed period in days for day-based rules, 0 otherwise.
func (s Schedule) step() int {
	switch r := s.Rule.(type) {
	case Daily:
		return r.Every
	case Weekly:
		return 7 * r.Every
	case Custom:
		return r.Days
	}
	return 0
}

// monthlyOccurrence returns the occurrence n months after Start, if that month
// has the anchor day.
func (s Schedule) monthlyOccurrence(n int) (Day, bool) {
	y, m, d := s.Start.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if d > daysInMonth(first.Year(), first.Month()) {
		return Day{}, false
	}
	return Date(first.Year(), first.Month(), d), true
}

func (s Schedule) previousMonthly(every int, limit Day) *Day {
	if every < 1 {
		return nil
	}
	m := MonthsBetween(s.Start, limit)
	if m < 0 {
		return nil
	}
	for m -= m % every; m >= 0; m -= every {
		if c, ok := s.monthlyOccurrence(m); ok && c.Before(limit) {
			return &c
		}
	}
	return nil
}

func (s Schedule) nextMonthly(every int, date Day) *Day {
	if every < 1 || s.Start.IsZero() {
		return nil
	}
	if date.Before(s.Start) {
		c := s.Start
		return &c
	}
	m := MonthsBetween(s.Start, date)
	m -= m % every
	for i := 0; i < 64; i, m = i+1, m+every {
		c, ok := s.monthlyOccurrence(m)
		if !ok || !c.After(date) {
			continue
		}
		if !s.withinEnd(c) {
			return nil
		}
		return &c
	}
	return nil
}
