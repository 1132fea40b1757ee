package storage

import (
	"context"
	"errors"
	"time"
)

// TaskStore connects the task core with a backend datastore. Implementations
// must use the error values below so callers can branch on errors.Is.
type TaskStore interface {
	// GetTask retrieves a single task by owner and id.
	GetTask(ctx context.Context, userID, taskID string) (*Task, error)
	// CreateTask persists a new task. The implementation fills lifecycle
	// timestamps.
	CreateTask(ctx context.Context, task *Task) error
	// UpdateTask persists changes to an existing task.
	UpdateTask(ctx context.Context, task *Task) error
	// DeleteTask removes a task. Deleting a recurring original cascades to
	// its historical occurrence copies.
	DeleteTask(ctx context.Context, userID, taskID string) error

	// FetchTasksInRange retrieves one-off tasks due inside [start, end],
	// excluding completed tasks and historical occurrence copies.
	FetchTasksInRange(ctx context.Context, userID string, start, end time.Time) ([]Task, error)
	// FetchRecurringTasks retrieves every task with a recurrence rule,
	// excluding completed, regardless of anchor date.
	FetchRecurringTasks(ctx context.Context, userID string) ([]Task, error)
	// FetchOccurrences retrieves the historical occurrence copies spawned by
	// one recurring task, ordered by due date.
	FetchOccurrences(ctx context.Context, userID, originalTaskID string) ([]Task, error)

	// InsertHistoricalOccurrence persists a frozen completed copy of a
	// recurring task's occurrence.
	InsertHistoricalOccurrence(ctx context.Context, task *Task) error
	// UpdateTaskDueDate moves a task's anchor to newDue. When resetCompletion
	// is true the completion state is cleared in the same write.
	UpdateTaskDueDate(ctx context.Context, userID, taskID string, newDue time.Time, resetCompletion bool) (*Task, error)

	// MarkTaskCompleted sets the plain completion state at the given instant.
	MarkTaskCompleted(ctx context.Context, userID, taskID string, at time.Time) (*Task, error)
	// MarkTaskUncompleted clears the completion state.
	MarkTaskUncompleted(ctx context.Context, userID, taskID string) (*Task, error)

	// GetProject retrieves a project by owner and id.
	GetProject(ctx context.Context, userID, projectID string) (*Project, error)
	// ListProjects retrieves all projects for a user.
	ListProjects(ctx context.Context, userID string) ([]Project, error)
	// CreateProject persists a new project.
	CreateProject(ctx context.Context, project *Project) error
	// DeleteProject removes a project and unfiles its tasks.
	DeleteProject(ctx context.Context, userID, projectID string) error
}

var (
	// ErrNotFound is returned when a requested record doesn't exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput is returned when the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input parameters")
	// ErrConflict is returned when a write conflicts with an existing record.
	ErrConflict = errors.New("record conflict")
	// ErrStorageUnavailable is returned when the backend is unreachable.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
