package recurrence

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned for recurrence settings that cannot describe a
// schedule: unknown kinds, non-positive intervals, or missing dates.
var ErrInvalidConfig = errors.New("invalid recurrence configuration")

type Kind string

const (
	KindNone    Kind = "none"
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
	KindCustom  Kind = "custom"
)

// Rule is one of None, Daily, Weekly, Monthly or Custom.
type Rule interface {
	Kind() Kind
	// Interval is the rule's repeat count in its own unit; 0 for None.
	Interval() int
	Describe() string
	isRule()
}

// None is a one-shot task.
type None struct{}

// Daily repeats every Every days.
type Daily struct{ Every int }

// Weekly repeats every Every weeks on the start date's weekday.
type Weekly struct{ Every int }

// Monthly repeats every Every calendar months on the start date's day of month.
type Monthly struct{ Every int }

// Custom repeats every Days days.
type Custom struct{ Days int }

func (None) Kind() Kind    { return KindNone }
func (Daily) Kind() Kind   { return KindDaily }
func (Weekly) Kind() Kind  { return KindWeekly }
func (Monthly) Kind() Kind { return KindMonthly }
func (Custom) Kind() Kind  { return KindCustom }

func (None) Interval() int      { return 0 }
func (r Daily) Interval() int   { return r.Every }
func (r Weekly) Interval() int  { return r.Every }
func (r Monthly) Interval() int { return r.Every }
func (r Custom) Interval() int  { return r.Days }

func (None) isRule()    {}
func (Daily) isRule()   {}
func (Weekly) isRule()  {}
func (Monthly) isRule() {}
func (Custom) isRule()  {}

func (None) Describe() string { return "Does not repeat" }

func (r Daily) Describe() string {
	if r.Every > 1 {
		return fmt.Sprintf("Repeats every %d days", r.Every)
	}
	return "Repeats daily"
}

func (r Weekly) Describe() string {
	switch {
	case r.Every == 2:
		return "Repeats every 2 weeks"
	case r.Every > 2:
		return fmt.Sprintf("Repeats every %d weeks", r.Every)
	}
	return "Repeats weekly"
}

func (r Monthly) Describe() string {
	if r.Every > 1 {
		return fmt.Sprintf("Repeats every %d months", r.Every)
	}
	return "Repeats monthly"
}

func (r Custom) Describe() string {
	if r.Days == 1 {
		return "Repeats every day"
	}
	return fmt.Sprintf("Repeats every %d days", r.Days)
}

// New builds the Rule for kind. Every recurring kind needs a positive
// interval; the interval is ignored for KindNone.
func New(kind Kind, interval int) (Rule, error) {
	if kind != KindNone && interval < 1 {
		return nil, fmt.Errorf("%w: %s interval must be positive, got %d", ErrInvalidConfig, kind, interval)
	}
	switch kind {
	case KindNone:
		return None{}, nil
	case KindDaily:
		return Daily{Every: interval}, nil
	case KindWeekly:
		return Weekly{Every: interval}, nil
	case KindMonthly:
		return Monthly{Every: interval}, nil
	case KindCustom:
		return Custom{Days: interval}, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidConfig, kind)
}

// Parse is New for a kind read from user input or storage. An empty kind means
// KindNone.
func Parse(kind string, interval int) (Rule, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(kind)))
	if k == "" {
		k = KindNone
	}
	return New(k, interval)
}

func validateRule(r Rule) error {
	if r == nil {
		return fmt.Errorf("%w: rule is required", ErrInvalidConfig)
	}
	if _, ok := r.(None); ok {
		return nil
	}
	if r.Interval() < 1 {
		return fmt.Errorf("%w: %s interval must be positive, got %d", ErrInvalidConfig, r.Kind(), r.Interval())
	}
	return nil
}
