package tasks

import (
	"time"

	"github.com/lfroes/jarvis/storage"
)

// Status buckets a task relative to a reference instant.
type Status string

const (
	StatusCompleted   Status = "completed"
	StatusOverdue     Status = "overdue"
	StatusDueToday    Status = "due_today"
	StatusDueSoon     Status = "due_soon"
	StatusScheduled   Status = "scheduled"
	StatusUnscheduled Status = "unscheduled"
)

// dueSoonHorizon is how far ahead a task still counts as due soon.
const dueSoonHorizon = 3

// Classify buckets a task by its due date relative to now. The comparison is
// at day granularity: a task due earlier today is due today, not overdue.
func Classify(t storage.Task, now time.Time) Status {
	if t.Completed {
		return StatusCompleted
	}
	due, ok := t.DueDate.Get()
	if !ok {
		return StatusUnscheduled
	}

	today := startOfDay(now)
	dueDay := startOfDay(due)
	switch {
	case dueDay.Before(today):
		return StatusOverdue
	case dueDay.Equal(today):
		return StatusDueToday
	case !dueDay.After(today.AddDate(0, 0, dueSoonHorizon)):
		return StatusDueSoon
	default:
		return StatusScheduled
	}
}

// Summary counts schedule entries per status bucket. The buckets always sum
// to Total.
type Summary struct {
	Total       int `json:"total"`
	Completed   int `json:"completed"`
	Overdue     int `json:"overdue"`
	DueToday    int `json:"dueToday"`
	DueSoon     int `json:"dueSoon"`
	Scheduled   int `json:"scheduled"`
	Unscheduled int `json:"unscheduled"`
}

// Summarize tallies the given tasks by Classify bucket.
func Summarize(entries []storage.Task, now time.Time) Summary {
	var s Summary
	for _, e := range entries {
		s.Total++
		switch Classify(e, now) {
		case StatusCompleted:
			s.Completed++
		case StatusOverdue:
			s.Overdue++
		case StatusDueToday:
			s.DueToday++
		case StatusDueSoon:
			s.DueSoon++
		case StatusScheduled:
			s.Scheduled++
		case StatusUnscheduled:
			s.Unscheduled++
		}
	}
	return s
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
