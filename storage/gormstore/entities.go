package gormstore

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/lfroes/jarvis/recurrence"
	"github.com/lfroes/jarvis/storage"
)

// taskRow is the persisted shape of a task. Recurrence maps to the three
// recurrence_* columns; recurrence_text carries legacy free-text rules from
// rows written before the structured columns existed.
type taskRow struct {
	ID        string  `gorm:"primaryKey"`
	UserID    string  `gorm:"index"`
	ProjectID *string `gorm:"index"`

	Title string
	Notes string

	Completed   bool `gorm:"default:false"`
	CompletedAt *time.Time

	DueDate *time.Time `gorm:"index"`

	RecurrenceType       *string
	RecurrenceInterval   *int
	RecurrenceDaysOfWeek *string // comma-joined weekday numbers 0-6
	RecurrenceText       *string

	IsOccurrence   bool    `gorm:"default:false;index"`
	OriginalTaskID *string `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (taskRow) TableName() string { return "tasks" }

type projectRow struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Name      string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (projectRow) TableName() string { return "projects" }

func (r taskRow) toDomain() storage.Task {
	return storage.Task{
		ID:             r.ID,
		UserID:         r.UserID,
		Title:          r.Title,
		Notes:          r.Notes,
		ProjectID:      optFromPtr(r.ProjectID),
		Completed:      r.Completed,
		CompletedAt:    optFromPtr(r.CompletedAt),
		DueDate:        optFromPtr(r.DueDate),
		Recurrence:     r.rule(),
		IsOccurrence:   r.IsOccurrence,
		OriginalTaskID: optFromPtr(r.OriginalTaskID),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// rule reconstructs the structured rule from the row, normalizing legacy text
// when the structured columns are empty.
func (r taskRow) rule() mo.Option[recurrence.Rule] {
	if r.RecurrenceType == nil {
		if r.RecurrenceText != nil {
			return recurrence.Normalize(*r.RecurrenceText)
		}
		return mo.None[recurrence.Rule]()
	}

	rule := recurrence.Rule{Freq: recurrence.Frequency(*r.RecurrenceType), Interval: 1}
	if r.RecurrenceInterval != nil {
		rule.Interval = *r.RecurrenceInterval
	}
	rule.Weekdays = parseWeekdays(r.RecurrenceDaysOfWeek)
	if rule.Validate() != nil {
		return mo.None[recurrence.Rule]()
	}
	return mo.Some(rule)
}

func fromDomain(t storage.Task) taskRow {
	row := taskRow{
		ID:             t.ID,
		UserID:         t.UserID,
		Title:          t.Title,
		Notes:          t.Notes,
		ProjectID:      ptrFromOpt(t.ProjectID),
		Completed:      t.Completed,
		CompletedAt:    ptrFromOpt(t.CompletedAt),
		DueDate:        ptrFromOpt(t.DueDate),
		IsOccurrence:   t.IsOccurrence,
		OriginalTaskID: ptrFromOpt(t.OriginalTaskID),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if rule, ok := t.Recurrence.Get(); ok {
		freq := string(rule.Freq)
		interval := rule.Interval
		row.RecurrenceType = &freq
		row.RecurrenceInterval = &interval
		if joined := joinWeekdays(rule.SortedWeekdays()); joined != "" {
			row.RecurrenceDaysOfWeek = &joined
		}
	}
	return row
}

func parseWeekdays(raw *string) []time.Weekday {
	if raw == nil || *raw == "" {
		return nil
	}
	var out []time.Weekday
	for _, part := range strings.Split(*raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		out = append(out, time.Weekday(n))
	}
	return out
}

func joinWeekdays(days []time.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func (r projectRow) toDomain() storage.Project {
	return storage.Project{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Color:     r.Color,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func projectFromDomain(p storage.Project) projectRow {
	return projectRow{
		ID:        p.ID,
		UserID:    p.UserID,
		Name:      p.Name,
		Color:     p.Color,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
