package storage

import (
	"context"
	"sync"
	"time"
)

// CacheConfig holds configuration for the read cache.
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before eviction
	CleanupInterval time.Duration // How often expired entries are swept
}

// DefaultCacheConfig provides sensible defaults for the read cache.
var DefaultCacheConfig = CacheConfig{
	TTL:             5 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: time.Minute,
}

type cacheKey struct {
	op     string
	userID string
	start  int64
	end    int64
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// CachedStore wraps a TaskStore with per-user memoization of the read paths
// that back the calendar view (range fetch, recurring set, project list).
// Invalidation lives inside the same methods that perform writes, so a
// mutation can never leave a stale window behind for its user.
type CachedStore struct {
	TaskStore

	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
	config  CacheConfig
	stop    chan struct{}
}

// NewCachedStore wraps inner with a read cache using the given configuration.
func NewCachedStore(inner TaskStore, config CacheConfig) *CachedStore {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheConfig.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	s := &CachedStore{
		TaskStore: inner,
		entries:   make(map[cacheKey]cacheEntry),
		config:    config,
		stop:      make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go s.cleanupLoop()
	}
	return s
}

// Close stops the background cleanup goroutine.
func (s *CachedStore) Close() {
	close(s.stop)
}

func (s *CachedStore) cleanupLoop() {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for k, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, k)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}

func (s *CachedStore) get(key cacheKey) (any, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (s *CachedStore) set(key cacheKey, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= s.config.MaxEntries {
		// Full sweep rather than LRU bookkeeping; the cache is small and the
		// sweep is rare.
		s.entries = make(map[cacheKey]cacheEntry)
	}
	s.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(s.config.TTL)}
}

// invalidateUser drops every cached read for one user.
func (s *CachedStore) invalidateUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if k.userID == userID {
			delete(s.entries, k)
		}
	}
}

// Cached reads

func (s *CachedStore) FetchTasksInRange(ctx context.Context, userID string, start, end time.Time) ([]Task, error) {
	key := cacheKey{op: "range", userID: userID, start: start.UnixNano(), end: end.UnixNano()}
	if v, ok := s.get(key); ok {
		return v.([]Task), nil
	}
	tasks, err := s.TaskStore.FetchTasksInRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	s.set(key, tasks)
	return tasks, nil
}

func (s *CachedStore) FetchRecurringTasks(ctx context.Context, userID string) ([]Task, error) {
	key := cacheKey{op: "recurring", userID: userID}
	if v, ok := s.get(key); ok {
		return v.([]Task), nil
	}
	tasks, err := s.TaskStore.FetchRecurringTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.set(key, tasks)
	return tasks, nil
}

func (s *CachedStore) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	key := cacheKey{op: "projects", userID: userID}
	if v, ok := s.get(key); ok {
		return v.([]Project), nil
	}
	projects, err := s.TaskStore.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.set(key, projects)
	return projects, nil
}

// Invalidating writes

func (s *CachedStore) CreateTask(ctx context.Context, task *Task) error {
	if err := s.TaskStore.CreateTask(ctx, task); err != nil {
		return err
	}
	s.invalidateUser(task.UserID)
	return nil
}

func (s *CachedStore) UpdateTask(ctx context.Context, task *Task) error {
	if err := s.TaskStore.UpdateTask(ctx, task); err != nil {
		return err
	}
	s.invalidateUser(task.UserID)
	return nil
}

func (s *CachedStore) DeleteTask(ctx context.Context, userID, taskID string) error {
	if err := s.TaskStore.DeleteTask(ctx, userID, taskID); err != nil {
		return err
	}
	s.invalidateUser(userID)
	return nil
}

func (s *CachedStore) InsertHistoricalOccurrence(ctx context.Context, task *Task) error {
	if err := s.TaskStore.InsertHistoricalOccurrence(ctx, task); err != nil {
		return err
	}
	s.invalidateUser(task.UserID)
	return nil
}

func (s *CachedStore) UpdateTaskDueDate(ctx context.Context, userID, taskID string, newDue time.Time, resetCompletion bool) (*Task, error) {
	task, err := s.TaskStore.UpdateTaskDueDate(ctx, userID, taskID, newDue, resetCompletion)
	if err != nil {
		return nil, err
	}
	s.invalidateUser(userID)
	return task, nil
}

func (s *CachedStore) MarkTaskCompleted(ctx context.Context, userID, taskID string, at time.Time) (*Task, error) {
	task, err := s.TaskStore.MarkTaskCompleted(ctx, userID, taskID, at)
	if err != nil {
		return nil, err
	}
	s.invalidateUser(userID)
	return task, nil
}

func (s *CachedStore) MarkTaskUncompleted(ctx context.Context, userID, taskID string) (*Task, error) {
	task, err := s.TaskStore.MarkTaskUncompleted(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	s.invalidateUser(userID)
	return task, nil
}

func (s *CachedStore) CreateProject(ctx context.Context, project *Project) error {
	if err := s.TaskStore.CreateProject(ctx, project); err != nil {
		return err
	}
	s.invalidateUser(project.UserID)
	return nil
}

func (s *CachedStore) DeleteProject(ctx context.Context, userID, projectID string) error {
	if err := s.TaskStore.DeleteProject(ctx, userID, projectID); err != nil {
		return err
	}
	s.invalidateUser(userID)
	return nil
}
