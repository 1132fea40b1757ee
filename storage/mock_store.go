package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"github.com/lfroes/jarvis/recurrence"
)

// MockStore implements the TaskStore interface for testing.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetTask(ctx context.Context, userID, taskID string) (*Task, error) {
	args := m.Called(ctx, userID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Task), args.Error(1)
}

func (m *MockStore) CreateTask(ctx context.Context, task *Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockStore) UpdateTask(ctx context.Context, task *Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockStore) DeleteTask(ctx context.Context, userID, taskID string) error {
	args := m.Called(ctx, userID, taskID)
	return args.Error(0)
}

func (m *MockStore) FetchTasksInRange(ctx context.Context, userID string, start, end time.Time) ([]Task, error) {
	args := m.Called(ctx, userID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Task), args.Error(1)
}

func (m *MockStore) FetchRecurringTasks(ctx context.Context, userID string) ([]Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Task), args.Error(1)
}

func (m *MockStore) FetchOccurrences(ctx context.Context, userID, originalTaskID string) ([]Task, error) {
	args := m.Called(ctx, userID, originalTaskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Task), args.Error(1)
}

func (m *MockStore) InsertHistoricalOccurrence(ctx context.Context, task *Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockStore) UpdateTaskDueDate(ctx context.Context, userID, taskID string, newDue time.Time, resetCompletion bool) (*Task, error) {
	args := m.Called(ctx, userID, taskID, newDue, resetCompletion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Task), args.Error(1)
}

func (m *MockStore) MarkTaskCompleted(ctx context.Context, userID, taskID string, at time.Time) (*Task, error) {
	args := m.Called(ctx, userID, taskID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Task), args.Error(1)
}

func (m *MockStore) MarkTaskUncompleted(ctx context.Context, userID, taskID string) (*Task, error) {
	args := m.Called(ctx, userID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Task), args.Error(1)
}

func (m *MockStore) GetProject(ctx context.Context, userID, projectID string) (*Project, error) {
	args := m.Called(ctx, userID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Project), args.Error(1)
}

func (m *MockStore) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Project), args.Error(1)
}

func (m *MockStore) CreateProject(ctx context.Context, project *Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockStore) DeleteProject(ctx context.Context, userID, projectID string) error {
	args := m.Called(ctx, userID, projectID)
	return args.Error(0)
}

// --- Helpers for creating test data ---

// NewTestTask creates a one-off task due at the given instant.
func NewTestTask(userID, title string, due time.Time) Task {
	now := time.Now()
	return Task{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		DueDate:   mo.Some(due),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestRecurringTask creates a recurring task anchored at the given instant.
func NewTestRecurringTask(userID, title string, anchor time.Time, rule recurrence.Rule) Task {
	task := NewTestTask(userID, title, anchor)
	task.Recurrence = mo.Some(rule)
	return task
}
