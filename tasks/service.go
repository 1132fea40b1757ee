// Package tasks contains the application services over the task store: task
// and project lifecycle, the upcoming view, and the advance-on-completion
// transition for recurring tasks.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/lfroes/jarvis/agenda"
	"github.com/lfroes/jarvis/recurrence"
	"github.com/lfroes/jarvis/storage"
)

// ParsedTask is the structured triple the natural-language parser returns for
// free-text input. RecurrenceDescription is raw text and is normalized here.
type ParsedTask struct {
	Title                 string
	DueDate               mo.Option[time.Time]
	RecurrenceDescription string
}

// CreateInput carries the fields of a directly-created task.
type CreateInput struct {
	Title      string
	Notes      string
	DueDate    mo.Option[time.Time]
	Recurrence mo.Option[recurrence.Rule]
	ProjectID  mo.Option[string]
}

// CompletionResult reports what completing a task did.
type CompletionResult struct {
	// Task is the task in its state after the operation: the advanced
	// original for a recurring task, the completed task otherwise.
	Task *storage.Task
	// NextDue is the new anchor date when an advance happened.
	NextDue mo.Option[time.Time]
	// Occurrence is the persisted historical copy when one was created or
	// found by the idempotent retry check.
	Occurrence *storage.Task
}

// Service wires the occurrence engine and aggregator to a TaskStore.
type Service struct {
	store      storage.TaskStore
	aggregator *agenda.Aggregator
	logger     *slog.Logger
}

// NewService creates a task service.
func NewService(store storage.TaskStore, aggregator *agenda.Aggregator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, aggregator: aggregator, logger: logger}
}

// Create persists a new task from direct form input.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*storage.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required: %w", storage.ErrInvalidInput)
	}
	if projectID, ok := input.ProjectID.Get(); ok {
		if _, err := s.store.GetProject(ctx, userID, projectID); err != nil {
			return nil, fmt.Errorf("resolve project: %w", err)
		}
	}
	task := &storage.Task{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      input.Title,
		Notes:      input.Notes,
		DueDate:    input.DueDate,
		Recurrence: input.Recurrence,
		ProjectID:  input.ProjectID,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// CreateFromParsed persists a task from the parser's {title, dueDate,
// recurrenceDescription} triple. An unrecognized recurrence description
// produces a plain task; recurrence is best-effort.
func (s *Service) CreateFromParsed(ctx context.Context, userID string, parsed ParsedTask) (*storage.Task, error) {
	return s.Create(ctx, userID, CreateInput{
		Title:      parsed.Title,
		DueDate:    parsed.DueDate,
		Recurrence: recurrence.Normalize(parsed.RecurrenceDescription),
	})
}

// Get retrieves one task.
func (s *Service) Get(ctx context.Context, userID, taskID string) (*storage.Task, error) {
	return s.store.GetTask(ctx, userID, taskID)
}

// Update persists edits to a task's display and scheduling fields.
func (s *Service) Update(ctx context.Context, task *storage.Task) error {
	if task.Title == "" {
		return fmt.Errorf("title is required: %w", storage.ErrInvalidInput)
	}
	if projectID, ok := task.ProjectID.Get(); ok {
		if _, err := s.store.GetProject(ctx, task.UserID, projectID); err != nil {
			return fmt.Errorf("resolve project: %w", err)
		}
	}
	return s.store.UpdateTask(ctx, task)
}

// Delete removes a task; for a recurring original the store cascades to its
// historical copies.
func (s *Service) Delete(ctx context.Context, userID, taskID string) error {
	return s.store.DeleteTask(ctx, userID, taskID)
}

// Upcoming builds the day-keyed schedule for the inclusive window. A store
// fetch failure aborts the whole query; no partial result is fabricated.
func (s *Service) Upcoming(ctx context.Context, userID string, windowStart, windowEnd, now time.Time) ([]agenda.Day, error) {
	baseTasks, err := s.store.FetchTasksInRange(ctx, userID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks in range: %w", err)
	}
	recurringTasks, err := s.store.FetchRecurringTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch recurring tasks: %w", err)
	}
	return s.aggregator.Schedule(baseTasks, recurringTasks, windowStart, windowEnd, now), nil
}

// Complete marks a task done at the given instant. For a recurring task this
// is the advance transition: persist a frozen historical copy of the current
// occurrence first, then move the anchor one period forward. The ordering is
// deliberate; if the copy cannot be persisted the anchor must not move, and if
// the advance fails the copy stays so a retry can finish the job without
// duplicating it.
func (s *Service) Complete(ctx context.Context, userID, taskID string, now time.Time) (*CompletionResult, error) {
	task, err := s.store.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	rule, ok := task.Recurrence.Get()
	if !ok || task.IsOccurrence {
		completed, err := s.store.MarkTaskCompleted(ctx, userID, taskID, now)
		if err != nil {
			return nil, err
		}
		return &CompletionResult{Task: completed}, nil
	}

	occurrenceDate := task.DueDate.OrElse(now)

	copy, err := s.ensureHistoricalCopy(ctx, task, occurrenceDate, now)
	if err != nil {
		return nil, fmt.Errorf("persist occurrence copy: %w", err)
	}

	nextDue, err := rule.Advance(occurrenceDate)
	if err != nil {
		return nil, fmt.Errorf("advance anchor: %w", err)
	}

	updated, err := s.store.UpdateTaskDueDate(ctx, userID, taskID, nextDue, true)
	if err != nil {
		// The copy exists but the anchor did not move. Retrying Complete
		// finds the copy and only redoes the advance.
		return nil, fmt.Errorf("advance anchor date: %w", err)
	}

	return &CompletionResult{
		Task:       updated,
		NextDue:    mo.Some(nextDue),
		Occurrence: copy,
	}, nil
}

// ensureHistoricalCopy persists the frozen completed copy of the current
// occurrence, or returns the existing one when a previous Complete already got
// that far. The (original task, occurrence date) pair is the identity.
func (s *Service) ensureHistoricalCopy(ctx context.Context, task *storage.Task, occurrenceDate, now time.Time) (*storage.Task, error) {
	existing, err := s.store.FetchOccurrences(ctx, task.UserID, task.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing occurrences: %w", err)
	}
	for i := range existing {
		if existing[i].DueOn(occurrenceDate) {
			s.logger.Info("occurrence copy already exists, skipping insert",
				"task_id", task.ID, "date", occurrenceDate)
			return &existing[i], nil
		}
	}

	copy := *task
	copy.ID = uuid.NewString()
	copy.Completed = true
	copy.CompletedAt = mo.Some(now)
	copy.DueDate = mo.Some(occurrenceDate)
	copy.IsOccurrence = true
	copy.OriginalTaskID = mo.Some(task.ID)
	if err := s.store.InsertHistoricalOccurrence(ctx, &copy); err != nil {
		return nil, err
	}
	return &copy, nil
}

// Uncomplete clears a task's completion state. On a recurring original (which
// normal flow never leaves completed) it acts as a state repair, resetting the
// flags without touching the anchor.
func (s *Service) Uncomplete(ctx context.Context, userID, taskID string) (*storage.Task, error) {
	return s.store.MarkTaskUncompleted(ctx, userID, taskID)
}

// History returns the persisted occurrence copies of one recurring task.
func (s *Service) History(ctx context.Context, userID, taskID string) ([]storage.Task, error) {
	return s.store.FetchOccurrences(ctx, userID, taskID)
}

// Project passthrough

func (s *Service) CreateProject(ctx context.Context, project *storage.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	return s.store.CreateProject(ctx, project)
}

func (s *Service) ListProjects(ctx context.Context, userID string) ([]storage.Project, error) {
	return s.store.ListProjects(ctx, userID)
}

func (s *Service) DeleteProject(ctx context.Context, userID, projectID string) error {
	return s.store.DeleteProject(ctx, userID, projectID)
}
