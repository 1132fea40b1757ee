package storage

import (
	"time"

	"github.com/samber/mo"

	"github.com/lfroes/jarvis/recurrence"
)

// Task is the persisted unit of work. For a recurring task DueDate is the
// anchor: the due date of its next not-yet-completed occurrence.
type Task struct {
	// ID is an opaque unique identifier.
	ID     string
	UserID string

	Title string
	Notes string

	// ProjectID associates the task with a project; None means unfiled.
	ProjectID mo.Option[string]

	Completed   bool
	CompletedAt mo.Option[time.Time]

	DueDate mo.Option[time.Time]

	// Recurrence is the structured repetition rule. Legacy free-text rules
	// are normalized at the storage boundary; occurrence math never sees raw
	// text.
	Recurrence mo.Option[recurrence.Rule]

	// IsOccurrence is true only for materialized historical copies of a
	// recurring task's completed occurrences.
	IsOccurrence bool
	// OriginalTaskID points back to the recurring task that spawned this
	// historical copy. Set exactly when IsOccurrence is true.
	OriginalTaskID mo.Option[string]

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRecurring reports whether the task is an original recurring task (not a
// historical copy) with a structured rule.
func (t Task) IsRecurring() bool {
	return t.Recurrence.IsPresent() && !t.IsOccurrence
}

// DueOn reports whether the task's due date falls on the same local calendar
// day as d. A task without a due date is due on no day.
func (t Task) DueOn(d time.Time) bool {
	due, ok := t.DueDate.Get()
	if !ok {
		return false
	}
	dy, dm, dd := due.Date()
	y, m, day := d.Date()
	return dy == y && dm == m && dd == day
}

// Project groups tasks. Deleting a project unfiles its tasks rather than
// deleting them.
type Project struct {
	ID     string
	UserID string
	Name   string
	// Color is a 6-character hex string with # prefix, used by the UI.
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
