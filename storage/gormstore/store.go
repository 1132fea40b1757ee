// Package gormstore persists tasks and projects in a relational database via
// GORM. Recurrence rules are stored in three columns (type, interval, weekday
// set); legacy free-text rules found in old rows are normalized when the row
// crosses back into the domain, so the occurrence engine never sees raw text.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/lfroes/jarvis/storage"
)

// Store implements storage.TaskStore on top of GORM.
type Store struct {
	db *gorm.DB
}

// Open opens a SQLite database at dsn, runs migrations and returns a Store.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = "jarvis.db"
	}

	dbLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return New(db)
}

// New wraps an existing GORM handle and runs migrations.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&taskRow{}, &projectRow{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) GetTask(ctx context.Context, userID, taskID string) (*storage.Task, error) {
	var row taskRow
	err := s.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&row).Error
	if err != nil {
		return nil, wrapErr("get task", err)
	}
	task := row.toDomain()
	return &task, nil
}

func (s *Store) CreateTask(ctx context.Context, task *storage.Task) error {
	if task.UserID == "" || task.Title == "" {
		return fmt.Errorf("user id and title are required: %w", storage.ErrInvalidInput)
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	row := fromDomain(*task)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return wrapErr("create task", err)
	}
	task.CreatedAt = row.CreatedAt
	task.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, task *storage.Task) error {
	row := fromDomain(*task)
	res := s.db.WithContext(ctx).
		Model(&taskRow{}).
		Where("user_id = ? AND id = ?", task.UserID, task.ID).
		Select("*").Omit("id", "user_id", "created_at").
		Updates(&row)
	if res.Error != nil {
		return wrapErr("update task", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update task %s: %w", task.ID, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", userID, taskID).Delete(&taskRow{})
		if res.Error != nil {
			return wrapErr("delete task", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete task %s: %w", taskID, storage.ErrNotFound)
		}
		// Cascade to historical occurrence copies.
		if err := tx.Where("user_id = ? AND original_task_id = ?", userID, taskID).
			Delete(&taskRow{}).Error; err != nil {
			return wrapErr("delete task occurrences", err)
		}
		return nil
	})
}

func (s *Store) FetchTasksInRange(ctx context.Context, userID string, start, end time.Time) ([]storage.Task, error) {
	var rows []taskRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND completed = ? AND is_occurrence = ?", userID, false, false).
		Where("recurrence_type IS NULL").
		Where("due_date >= ? AND due_date <= ?", start, end).
		Order("due_date, id").
		Find(&rows).Error
	if err != nil {
		return nil, wrapErr("fetch tasks in range", err)
	}
	// Legacy text that normalizes to a rule makes the row recurring, which
	// belongs to FetchRecurringTasks instead.
	tasks := toDomainSlice(rows)
	out := tasks[:0]
	for _, t := range tasks {
		if !t.IsRecurring() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) FetchRecurringTasks(ctx context.Context, userID string) ([]storage.Task, error) {
	var rows []taskRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND completed = ? AND is_occurrence = ?", userID, false, false).
		Where("recurrence_type IS NOT NULL OR recurrence_text IS NOT NULL").
		Order("due_date, id").
		Find(&rows).Error
	if err != nil {
		return nil, wrapErr("fetch recurring tasks", err)
	}
	// Rows whose only rule was unrecognized legacy text normalize to no rule
	// at all; they are not part of the recurring set.
	tasks := toDomainSlice(rows)
	out := tasks[:0]
	for _, t := range tasks {
		if t.IsRecurring() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) FetchOccurrences(ctx context.Context, userID, originalTaskID string) ([]storage.Task, error) {
	var rows []taskRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_occurrence = ? AND original_task_id = ?", userID, true, originalTaskID).
		Order("due_date, id").
		Find(&rows).Error
	if err != nil {
		return nil, wrapErr("fetch occurrences", err)
	}
	return toDomainSlice(rows), nil
}

func (s *Store) InsertHistoricalOccurrence(ctx context.Context, task *storage.Task) error {
	if !task.IsOccurrence || task.OriginalTaskID.IsAbsent() {
		return fmt.Errorf("not a historical occurrence: %w", storage.ErrInvalidInput)
	}
	return s.CreateTask(ctx, task)
}

func (s *Store) UpdateTaskDueDate(ctx context.Context, userID, taskID string, newDue time.Time, resetCompletion bool) (*storage.Task, error) {
	updates := map[string]any{"due_date": newDue}
	if resetCompletion {
		updates["completed"] = false
		updates["completed_at"] = nil
	}
	res := s.db.WithContext(ctx).
		Model(&taskRow{}).
		Where("user_id = ? AND id = ?", userID, taskID).
		Updates(updates)
	if res.Error != nil {
		return nil, wrapErr("update task due date", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update task due date %s: %w", taskID, storage.ErrNotFound)
	}
	return s.GetTask(ctx, userID, taskID)
}

func (s *Store) MarkTaskCompleted(ctx context.Context, userID, taskID string, at time.Time) (*storage.Task, error) {
	return s.setCompletion(ctx, userID, taskID, true, &at)
}

func (s *Store) MarkTaskUncompleted(ctx context.Context, userID, taskID string) (*storage.Task, error) {
	return s.setCompletion(ctx, userID, taskID, false, nil)
}

func (s *Store) setCompletion(ctx context.Context, userID, taskID string, completed bool, at *time.Time) (*storage.Task, error) {
	res := s.db.WithContext(ctx).
		Model(&taskRow{}).
		Where("user_id = ? AND id = ?", userID, taskID).
		Updates(map[string]any{"completed": completed, "completed_at": at})
	if res.Error != nil {
		return nil, wrapErr("set completion", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("set completion %s: %w", taskID, storage.ErrNotFound)
	}
	return s.GetTask(ctx, userID, taskID)
}

func (s *Store) GetProject(ctx context.Context, userID, projectID string) (*storage.Project, error) {
	var row projectRow
	err := s.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, projectID).First(&row).Error
	if err != nil {
		return nil, wrapErr("get project", err)
	}
	project := row.toDomain()
	return &project, nil
}

func (s *Store) ListProjects(ctx context.Context, userID string) ([]storage.Project, error) {
	var rows []projectRow
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name, id").Find(&rows).Error
	if err != nil {
		return nil, wrapErr("list projects", err)
	}
	out := make([]storage.Project, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) CreateProject(ctx context.Context, project *storage.Project) error {
	if project.UserID == "" || project.Name == "" {
		return fmt.Errorf("user id and name are required: %w", storage.ErrInvalidInput)
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	row := projectFromDomain(*project)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return wrapErr("create project", err)
	}
	project.CreatedAt = row.CreatedAt
	project.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, userID, projectID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", userID, projectID).Delete(&projectRow{})
		if res.Error != nil {
			return wrapErr("delete project", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete project %s: %w", projectID, storage.ErrNotFound)
		}
		// Unfile tasks rather than deleting them.
		if err := tx.Model(&taskRow{}).
			Where("user_id = ? AND project_id = ?", userID, projectID).
			Update("project_id", nil).Error; err != nil {
			return wrapErr("unfile project tasks", err)
		}
		return nil
	})
}

func wrapErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toDomainSlice(rows []taskRow) []storage.Task {
	out := make([]storage.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

func optFromPtr[T any](p *T) mo.Option[T] {
	if p == nil {
		return mo.None[T]()
	}
	return mo.Some(*p)
}

func ptrFromOpt[T any](o mo.Option[T]) *T {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return &v
}
