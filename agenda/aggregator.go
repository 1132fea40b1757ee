// Package agenda turns base tasks and recurring tasks into the day-keyed
// schedule backing the calendar and upcoming views. Aggregation is a pure
// computation over already-fetched data; it mutates nothing persisted.
package agenda

import (
	"log/slog"
	"sort"
	"time"

	"github.com/samber/mo"

	"github.com/lfroes/jarvis/recurrence"
	"github.com/lfroes/jarvis/storage"
)

// Day is one calendar day of the schedule. Days with no entries are still
// present so callers can render an empty slot.
type Day struct {
	// Date is local midnight of the day.
	Date    time.Time
	Entries []storage.Task
}

// Aggregator merges one-off tasks and expanded recurring occurrences into a
// deterministic day grouping.
type Aggregator struct {
	engine *recurrence.Engine
	logger *slog.Logger
}

// New creates an aggregator around the given engine.
func New(engine *recurrence.Engine, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{engine: engine, logger: logger}
}

// Schedule expands every recurring task into its in-window occurrences, merges
// in one-off tasks due inside the window, removes duplicates and groups the
// result by local calendar day. The window is inclusive on both ends; now is
// the reference instant for tasks missing an anchor date.
//
// No two entries in the result share an id. A failure on one task skips that
// task only.
func (a *Aggregator) Schedule(baseTasks, recurringTasks []storage.Task, windowStart, windowEnd, now time.Time) []Day {
	ws, we := startOfDay(windowStart), startOfDay(windowEnd)
	if we.Before(ws) {
		a.logger.Warn("inverted schedule window", "start", ws, "end", we)
		return nil
	}

	base := a.dedupeByTaskID(baseTasks, recurringTasks)

	var entries []storage.Task
	seenKeys := make(map[occurrenceKey]bool)
	for _, task := range base {
		if task.IsRecurring() {
			entries = append(entries, a.expand(task, ws, we, now, seenKeys)...)
			continue
		}
		if task.Completed || task.IsOccurrence {
			continue
		}
		if due, ok := task.DueDate.Get(); ok {
			day := startOfDayIn(due, ws.Location())
			if !day.Before(ws) && !day.After(we) {
				entries = append(entries, task)
			}
		}
	}

	entries = a.dropDuplicateIDs(entries)
	return group(entries, ws, we)
}

// expand materializes one recurring task's occurrences. The occurrence that
// coincides with the task's anchor is the task itself; every other occurrence
// is an ephemeral copy with a deterministic synthesized id.
func (a *Aggregator) expand(task storage.Task, ws, we, now time.Time, seen map[occurrenceKey]bool) []storage.Task {
	rule, ok := task.Recurrence.Get()
	if !ok {
		a.logger.Warn("recurring task without rule, skipping", "task_id", task.ID)
		return nil
	}

	anchor := task.DueDate.OrElse(time.Time{})
	occurrences := a.engine.Expand(anchor, rule, ws, we, now)

	out := make([]storage.Task, 0, len(occurrences))
	for _, occ := range occurrences {
		key := newOccurrenceKey(task.ID, occ.Date, occ.Index)
		if seen[key] {
			a.logger.Warn("duplicate occurrence dropped",
				"task_id", task.ID, "date", occ.Date, "index", occ.Index)
			continue
		}
		seen[key] = true

		if occ.IsAnchor {
			current := task
			current.DueDate = mo.Some(occ.Date)
			out = append(out, current)
			continue
		}

		copy := task
		copy.ID = key.id()
		copy.DueDate = mo.Some(occ.Date)
		copy.IsOccurrence = true
		copy.OriginalTaskID = mo.Some(task.ID)
		copy.Completed = false
		copy.CompletedAt = mo.None[time.Time]()
		out = append(out, copy)
	}
	return out
}

// dedupeByTaskID unions the two input sets, keeping the first task seen for
// each id. Duplicates indicate a fetch bug upstream and are only warned about.
func (a *Aggregator) dedupeByTaskID(baseTasks, recurringTasks []storage.Task) []storage.Task {
	seen := make(map[string]bool, len(baseTasks)+len(recurringTasks))
	out := make([]storage.Task, 0, len(baseTasks)+len(recurringTasks))
	for _, t := range append(append([]storage.Task{}, baseTasks...), recurringTasks...) {
		if seen[t.ID] {
			a.logger.Warn("duplicate task in base set dropped", "task_id", t.ID)
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

// dropDuplicateIDs is the defensive post-generation scan: no two entries in
// the final list may ever share an id.
func (a *Aggregator) dropDuplicateIDs(entries []storage.Task) []storage.Task {
	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if seen[e.ID] {
			a.logger.Warn("duplicate entry id dropped after generation", "id", e.ID)
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}

// civilDate is a location-free calendar day, used as a map key so that two
// instants on the same day never miss each other over a Location mismatch.
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func civilDateIn(t time.Time, loc *time.Location) civilDate {
	y, m, d := t.In(loc).Date()
	return civilDate{year: y, month: m, day: d}
}

// group buckets entries by the window's calendar day, ordering each day by due
// time with id as tie-break. Due dates are read in the window's location, so
// UTC rows from the database land on the caller's local day.
func group(entries []storage.Task, ws, we time.Time) []Day {
	loc := ws.Location()
	byDay := make(map[civilDate][]storage.Task)
	for _, e := range entries {
		due, ok := e.DueDate.Get()
		if !ok {
			continue
		}
		day := civilDateIn(due, loc)
		byDay[day] = append(byDay[day], e)
	}

	var days []Day
	for d := ws; !d.After(we); d = d.AddDate(0, 0, 1) {
		bucket := byDay[civilDateIn(d, loc)]
		sort.Slice(bucket, func(i, j int) bool {
			di := bucket[i].DueDate.OrElse(time.Time{})
			dj := bucket[j].DueDate.OrElse(time.Time{})
			if !di.Equal(dj) {
				return di.Before(dj)
			}
			return bucket[i].ID < bucket[j].ID
		})
		days = append(days, Day{Date: d, Entries: bucket})
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfDayIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
