package recurrence

import (
	"log/slog"
	"sort"
	"time"
)

// Occurrence is a single concrete date implied by a rule within a window.
type Occurrence struct {
	// Date is the occurrence's due instant; it carries the anchor's clock
	// time, while window membership is decided at day granularity.
	Date time.Time
	// Index is the occurrence's position within this expansion, starting at 0.
	Index int
	// IsAnchor marks the occurrence that coincides with the task's current
	// anchor date, so callers can treat it as the base task itself rather
	// than a synthesized copy.
	IsAnchor bool
}

// Engine expands recurrence rules into concrete occurrences inside a date
// window. Expansion is pure: the reference instant is always passed in, never
// read from the system clock.
type Engine struct {
	config EngineConfig
	logger *slog.Logger
}

// NewEngine creates an engine with default limits.
func NewEngine(logger *slog.Logger) *Engine {
	return NewEngineWithConfig(DefaultEngineConfig, logger)
}

// NewEngineWithConfig creates an engine with custom limits.
func NewEngineWithConfig(config EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{config: config, logger: logger}
}

// Expand generates the ordered, duplicate-free occurrences of rule inside the
// inclusive [windowStart, windowEnd] window. The anchor is the task's current
// due date; a zero anchor falls back to now. A malformed rule or inverted
// window yields zero occurrences and a warning, never an error: one bad task
// must not abort expansion for the rest of a batch.
func (e *Engine) Expand(anchor time.Time, rule Rule, windowStart, windowEnd, now time.Time) []Occurrence {
	if err := rule.Validate(); err != nil {
		e.logger.Warn("skipping malformed recurrence rule", "error", err)
		return nil
	}
	if anchor.IsZero() {
		e.logger.Warn("recurring task has no anchor date, substituting reference time")
		anchor = now
	}

	ws, we := startOfDay(windowStart), startOfDay(windowEnd)
	if we.Before(ws) {
		e.logger.Warn("inverted expansion window", "start", ws, "end", we)
		return nil
	}
	if e.config.MaxWindowDays > 0 {
		if limit := ws.AddDate(0, 0, e.config.MaxWindowDays-1); we.After(limit) {
			we = limit
		}
	}

	switch {
	case rule.Freq == Weekly && len(rule.Weekdays) > 0:
		return e.expandWeekdays(anchor, rule, ws, we)
	case rule.Freq == Daily || rule.Freq == Weekly:
		return e.expandByDays(anchor, rule, ws, we)
	default:
		return e.expandByCalendar(anchor, rule, ws, we)
	}
}

// expandByDays handles daily rules and weekly rules without a weekday set,
// both of which step a fixed number of days. The first in-window candidate is
// found by integer division of the day gap, so an anchor years in the past
// costs the same as one inside the window.
func (e *Engine) expandByDays(anchor time.Time, rule Rule, ws, we time.Time) []Occurrence {
	step := rule.Interval
	if rule.Freq == Weekly {
		step = rule.Interval * 7
	}

	first := anchor
	if gap := daysBetween(startOfDay(anchor), ws); gap > 0 {
		k := (gap + step - 1) / step
		first = anchor.AddDate(0, 0, k*step)
	}

	var out []Occurrence
	anchorDay := startOfDay(anchor)
	for d := first; !startOfDay(d).After(we); d = d.AddDate(0, 0, step) {
		if e.capped(len(out)) {
			break
		}
		out = append(out, Occurrence{
			Date:     d,
			Index:    len(out),
			IsAnchor: startOfDay(d).Equal(anchorDay),
		})
	}
	return out
}

// expandWeekdays handles weekly rules restricted to specific weekdays. Weeks
// are blocks of 7 days aligned to the anchor; every interval-th block emits
// each listed weekday that lands inside the window and not before the anchor.
func (e *Engine) expandWeekdays(anchor time.Time, rule Rule, ws, we time.Time) []Occurrence {
	blockLen := rule.Interval * 7
	anchorDay := startOfDay(anchor)

	// Skip whole blocks that end before the window starts.
	block := 0
	if gap := daysBetween(anchorDay, ws); gap > 6 {
		block = (gap - 6) / blockLen
	}

	// Day offsets of the wanted weekdays relative to the anchor's weekday,
	// ascending, so emission inside a block follows the calendar.
	offsets := make([]int, 0, len(rule.Weekdays))
	for _, wd := range rule.Weekdays {
		offsets = append(offsets, (int(wd)-int(anchor.Weekday())+7)%7)
	}
	sort.Ints(offsets)

	var out []Occurrence
	for {
		blockStart := anchor.AddDate(0, 0, block*blockLen)
		if startOfDay(blockStart).After(we) {
			break
		}
		for _, offset := range offsets {
			d := blockStart.AddDate(0, 0, offset)
			day := startOfDay(d)
			if day.Before(anchorDay) || day.Before(ws) || day.After(we) {
				continue
			}
			if e.capped(len(out)) {
				return out
			}
			out = append(out, Occurrence{
				Date:     d,
				Index:    len(out),
				IsAnchor: day.Equal(anchorDay),
			})
		}
		block++
	}
	return out
}

// expandByCalendar handles monthly and yearly rules by repeated calendar
// stepping from the anchor. Stepping one period at a time keeps the series
// consistent with Rule.Advance, which moves the anchor the same way on each
// completion (so Jan 31 → Mar 2 → Apr 2 for a monthly rule, not Jan 31 →
// Mar 31).
func (e *Engine) expandByCalendar(anchor time.Time, rule Rule, ws, we time.Time) []Occurrence {
	anchorDay := startOfDay(anchor)
	var out []Occurrence
	for d := anchor; !startOfDay(d).After(we); {
		day := startOfDay(d)
		if !day.Before(ws) {
			if e.capped(len(out)) {
				break
			}
			out = append(out, Occurrence{
				Date:     d,
				Index:    len(out),
				IsAnchor: day.Equal(anchorDay),
			})
		}
		next, err := rule.Advance(d)
		if err != nil || !next.After(d) {
			e.logger.Warn("recurrence advance did not progress", "date", d, "error", err)
			break
		}
		d = next
	}
	return out
}

func (e *Engine) capped(n int) bool {
	return e.config.MaxOccurrencesPerTask > 0 && n >= e.config.MaxOccurrencesPerTask
}

// startOfDay truncates t to local midnight.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween returns the whole-day distance from a to b. Comparing the civil
// dates in UTC keeps the count exact across DST transitions.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}
