// Package memory holds an in-memory TaskStore for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/lfroes/jarvis/storage"
)

// Store implements storage.TaskStore using in-memory maps.
type Store struct {
	mu       sync.RWMutex
	tasks    map[string]*storage.Task    // key: userID/taskID
	projects map[string]*storage.Project // key: userID/projectID
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		tasks:    make(map[string]*storage.Task),
		projects: make(map[string]*storage.Project),
	}
}

func key(userID, id string) string {
	return fmt.Sprintf("%s/%s", userID, id)
}

func (s *Store) GetTask(_ context.Context, userID, taskID string) (*storage.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[key(userID, taskID)]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, storage.ErrNotFound)
	}
	copied := *task
	return &copied, nil
}

func (s *Store) CreateTask(_ context.Context, task *storage.Task) error {
	if task.UserID == "" || task.Title == "" {
		return fmt.Errorf("user id and title are required: %w", storage.ErrInvalidInput)
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(task.UserID, task.ID)
	if _, exists := s.tasks[k]; exists {
		return fmt.Errorf("task %s: %w", task.ID, storage.ErrConflict)
	}

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	copied := *task
	s.tasks[k] = &copied
	return nil
}

func (s *Store) UpdateTask(_ context.Context, task *storage.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(task.UserID, task.ID)
	existing, ok := s.tasks[k]
	if !ok {
		return fmt.Errorf("task %s: %w", task.ID, storage.ErrNotFound)
	}

	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = time.Now()
	copied := *task
	s.tasks[k] = &copied
	return nil
}

func (s *Store) DeleteTask(_ context.Context, userID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID, taskID)
	if _, ok := s.tasks[k]; !ok {
		return fmt.Errorf("task %s: %w", taskID, storage.ErrNotFound)
	}
	delete(s.tasks, k)

	// Cascade to historical occurrence copies.
	for tk, t := range s.tasks {
		if t.UserID == userID && t.OriginalTaskID.OrElse("") == taskID {
			delete(s.tasks, tk)
		}
	}
	return nil
}

func (s *Store) FetchTasksInRange(_ context.Context, userID string, start, end time.Time) ([]storage.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.Task
	for _, t := range s.tasks {
		if t.UserID != userID || t.Completed || t.IsOccurrence || t.Recurrence.IsPresent() {
			continue
		}
		due, ok := t.DueDate.Get()
		if !ok || due.Before(start) || due.After(end) {
			continue
		}
		out = append(out, *t)
	}
	sortByDue(out)
	return out, nil
}

func (s *Store) FetchRecurringTasks(_ context.Context, userID string) ([]storage.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.Task
	for _, t := range s.tasks {
		if t.UserID == userID && !t.Completed && t.IsRecurring() {
			out = append(out, *t)
		}
	}
	sortByDue(out)
	return out, nil
}

func (s *Store) FetchOccurrences(_ context.Context, userID, originalTaskID string) ([]storage.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.Task
	for _, t := range s.tasks {
		if t.UserID == userID && t.IsOccurrence && t.OriginalTaskID.OrElse("") == originalTaskID {
			out = append(out, *t)
		}
	}
	sortByDue(out)
	return out, nil
}

func (s *Store) InsertHistoricalOccurrence(ctx context.Context, task *storage.Task) error {
	if !task.IsOccurrence || task.OriginalTaskID.IsAbsent() {
		return fmt.Errorf("not a historical occurrence: %w", storage.ErrInvalidInput)
	}
	return s.CreateTask(ctx, task)
}

func (s *Store) UpdateTaskDueDate(_ context.Context, userID, taskID string, newDue time.Time, resetCompletion bool) (*storage.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[key(userID, taskID)]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, storage.ErrNotFound)
	}

	task.DueDate = mo.Some(newDue)
	if resetCompletion {
		task.Completed = false
		task.CompletedAt = mo.None[time.Time]()
	}
	task.UpdatedAt = time.Now()
	copied := *task
	return &copied, nil
}

func (s *Store) MarkTaskCompleted(_ context.Context, userID, taskID string, at time.Time) (*storage.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[key(userID, taskID)]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, storage.ErrNotFound)
	}

	task.Completed = true
	task.CompletedAt = mo.Some(at)
	task.UpdatedAt = time.Now()
	copied := *task
	return &copied, nil
}

func (s *Store) MarkTaskUncompleted(_ context.Context, userID, taskID string) (*storage.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[key(userID, taskID)]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, storage.ErrNotFound)
	}

	task.Completed = false
	task.CompletedAt = mo.None[time.Time]()
	task.UpdatedAt = time.Now()
	copied := *task
	return &copied, nil
}

func (s *Store) GetProject(_ context.Context, userID, projectID string) (*storage.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[key(userID, projectID)]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, storage.ErrNotFound)
	}
	copied := *project
	return &copied, nil
}

func (s *Store) ListProjects(_ context.Context, userID string) ([]storage.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.Project
	for _, p := range s.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateProject(_ context.Context, project *storage.Project) error {
	if project.UserID == "" || project.Name == "" {
		return fmt.Errorf("user id and name are required: %w", storage.ErrInvalidInput)
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(project.UserID, project.ID)
	if _, exists := s.projects[k]; exists {
		return fmt.Errorf("project %s: %w", project.ID, storage.ErrConflict)
	}

	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now
	copied := *project
	s.projects[k] = &copied
	return nil
}

func (s *Store) DeleteProject(_ context.Context, userID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID, projectID)
	if _, ok := s.projects[k]; !ok {
		return fmt.Errorf("project %s: %w", projectID, storage.ErrNotFound)
	}
	delete(s.projects, k)

	// Unfile tasks rather than deleting them.
	for _, t := range s.tasks {
		if t.UserID == userID && t.ProjectID.OrElse("") == projectID {
			t.ProjectID = mo.None[string]()
			t.UpdatedAt = time.Now()
		}
	}
	return nil
}

func sortByDue(tasks []storage.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		di, iok := tasks[i].DueDate.Get()
		dj, jok := tasks[j].DueDate.Get()
		if iok != jok {
			return iok
		}
		if iok && !di.Equal(dj) {
			return di.Before(dj)
		}
		return tasks[i].ID < tasks[j].ID
	})
}
