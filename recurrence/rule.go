package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Frequency is the cadence unit of a recurrence rule.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

var (
	// ErrInvalidFrequency is returned when a rule carries an unknown frequency.
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	// ErrInvalidInterval is returned when a rule's interval is not positive.
	ErrInvalidInterval = errors.New("recurrence: interval must be >= 1")
	// ErrInvalidWeekdays is returned when the weekday set is malformed.
	ErrInvalidWeekdays = errors.New("recurrence: invalid weekday set")
)

// Rule describes how a task repeats: every Interval units of Freq, optionally
// restricted to a set of weekdays (weekly only). The zero value is not a valid
// rule; construct one explicitly and check Validate.
type Rule struct {
	Freq     Frequency
	Interval int
	// Weekdays restricts a weekly rule to specific days. Empty means "every
	// Interval weeks on the anchor's weekday". Only meaningful when Freq is
	// Weekly.
	Weekdays []time.Weekday
}

// Validate checks that the rule is well-formed.
func (r Rule) Validate() error {
	switch r.Freq {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Freq)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, r.Interval)
	}
	if len(r.Weekdays) > 0 {
		if r.Freq != Weekly {
			return fmt.Errorf("%w: weekdays only apply to weekly rules", ErrInvalidWeekdays)
		}
		seen := make(map[time.Weekday]bool, len(r.Weekdays))
		for _, d := range r.Weekdays {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("%w: %d out of range", ErrInvalidWeekdays, d)
			}
			if seen[d] {
				return fmt.Errorf("%w: duplicate weekday %v", ErrInvalidWeekdays, d)
			}
			seen[d] = true
		}
	}
	return nil
}

// Advance computes the next anchor date after d, one period forward. The result
// is always strictly after d. Month and year steps use calendar arithmetic with
// standard rollover, so Jan 31 + 1 month lands on Mar 2 (or Mar 1 in a leap
// year).
func (r Rule) Advance(d time.Time) (time.Time, error) {
	if err := r.Validate(); err != nil {
		return time.Time{}, err
	}
	switch r.Freq {
	case Daily:
		return d.AddDate(0, 0, r.Interval), nil
	case Weekly:
		return d.AddDate(0, 0, r.Interval*7), nil
	case Monthly:
		return d.AddDate(0, r.Interval, 0), nil
	case Yearly:
		return d.AddDate(r.Interval, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, r.Freq)
	}
}

// SortedWeekdays returns the weekday set in ascending order without mutating
// the rule.
func (r Rule) SortedWeekdays() []time.Weekday {
	out := make([]time.Weekday, len(r.Weekdays))
	copy(out, r.Weekdays)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal reports whether two rules describe the same cadence. Weekday order is
// irrelevant.
func (r Rule) Equal(other Rule) bool {
	if r.Freq != other.Freq || r.Interval != other.Interval {
		return false
	}
	a, b := r.SortedWeekdays(), other.SortedWeekdays()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
