package httpapi

import (
	"context"
	"time"

	"github.com/samber/mo"

	"github.com/lfroes/jarvis/agenda"
	"github.com/lfroes/jarvis/recurrence"
	"github.com/lfroes/jarvis/storage"
	"github.com/lfroes/jarvis/tasks"
)

// Service is the application surface the router calls into. *tasks.Service
// implements it.
type Service interface {
	Create(ctx context.Context, userID string, input tasks.CreateInput) (*storage.Task, error)
	CreateFromParsed(ctx context.Context, userID string, parsed tasks.ParsedTask) (*storage.Task, error)
	Get(ctx context.Context, userID, taskID string) (*storage.Task, error)
	Update(ctx context.Context, task *storage.Task) error
	Delete(ctx context.Context, userID, taskID string) error
	Complete(ctx context.Context, userID, taskID string, now time.Time) (*tasks.CompletionResult, error)
	Uncomplete(ctx context.Context, userID, taskID string) (*storage.Task, error)
	History(ctx context.Context, userID, taskID string) ([]storage.Task, error)
	Upcoming(ctx context.Context, userID string, windowStart, windowEnd, now time.Time) ([]agenda.Day, error)
	ListProjects(ctx context.Context, userID string) ([]storage.Project, error)
	CreateProject(ctx context.Context, project *storage.Project) error
	DeleteProject(ctx context.Context, userID, projectID string) error
}

// Wire shapes

type ruleJSON struct {
	Type       string `json:"type"`
	Interval   int    `json:"interval"`
	DaysOfWeek []int  `json:"daysOfWeek,omitempty"`
}

func (r ruleJSON) toRule() recurrence.Rule {
	rule := recurrence.Rule{Freq: recurrence.Frequency(r.Type), Interval: r.Interval}
	for _, d := range r.DaysOfWeek {
		rule.Weekdays = append(rule.Weekdays, time.Weekday(d))
	}
	return rule
}

func ruleToJSON(rule recurrence.Rule) *ruleJSON {
	out := &ruleJSON{Type: string(rule.Freq), Interval: rule.Interval}
	for _, d := range rule.SortedWeekdays() {
		out.DaysOfWeek = append(out.DaysOfWeek, int(d))
	}
	return out
}

type taskRequest struct {
	Title string `json:"title"`
	Notes string `json:"notes"`
	// DueDate is RFC 3339; null or absent means no due date.
	DueDate *time.Time `json:"dueDate"`
	// Recurrence is the structured rule; RecurrenceText carries a legacy
	// free-text descriptor instead. Structured wins when both are present.
	Recurrence     *ruleJSON `json:"recurrence"`
	RecurrenceText string    `json:"recurrenceText"`
	ProjectID      *string   `json:"projectId"`
}

type parsedRequest struct {
	Title                 string     `json:"title"`
	DueDate               *time.Time `json:"dueDate"`
	RecurrenceDescription string     `json:"recurrenceDescription"`
}

type taskJSON struct {
	ID                    string     `json:"id"`
	Title                 string     `json:"title"`
	Notes                 string     `json:"notes,omitempty"`
	ProjectID             *string    `json:"projectId,omitempty"`
	Completed             bool       `json:"completed"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
	DueDate               *time.Time `json:"dueDate,omitempty"`
	Recurrence            *ruleJSON  `json:"recurrence,omitempty"`
	RecurrenceDescription string     `json:"recurrenceDescription,omitempty"`
	IsOccurrence          bool       `json:"isRecurrenceOccurrence"`
	OriginalTaskID        *string    `json:"originalTaskId,omitempty"`
	Status                string     `json:"status"`
}

func taskToJSON(t storage.Task, now time.Time) taskJSON {
	out := taskJSON{
		ID:             t.ID,
		Title:          t.Title,
		Notes:          t.Notes,
		ProjectID:      optPtr(t.ProjectID),
		Completed:      t.Completed,
		CompletedAt:    optPtr(t.CompletedAt),
		DueDate:        optPtr(t.DueDate),
		IsOccurrence:   t.IsOccurrence,
		OriginalTaskID: optPtr(t.OriginalTaskID),
		Status:         string(tasks.Classify(t, now)),
	}
	if rule, ok := t.Recurrence.Get(); ok {
		out.Recurrence = ruleToJSON(rule)
		out.RecurrenceDescription = recurrence.Describe(rule)
	}
	return out
}

type dayJSON struct {
	Date    string     `json:"date"`
	Entries []taskJSON `json:"entries"`
}

func daysToJSON(days []agenda.Day, now time.Time) []dayJSON {
	out := make([]dayJSON, 0, len(days))
	for _, d := range days {
		entries := make([]taskJSON, 0, len(d.Entries))
		for _, e := range d.Entries {
			entries = append(entries, taskToJSON(e, now))
		}
		out = append(out, dayJSON{Date: d.Date.Format("2006-01-02"), Entries: entries})
	}
	return out
}

type completionJSON struct {
	Task       taskJSON   `json:"task"`
	NextDue    *time.Time `json:"nextDue,omitempty"`
	Occurrence *taskJSON  `json:"occurrence,omitempty"`
}

type projectRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func optPtr[T any](o mo.Option[T]) *T {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return &v
}
