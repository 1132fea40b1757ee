package tasks

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lfroes/jarvis/agenda"
	"github.com/lfroes/jarvis/recurrence"
	"github.com/lfroes/jarvis/storage"
	"github.com/lfroes/jarvis/storage/memory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newService(store storage.TaskStore) *Service {
	logger := slog.Default()
	engine := recurrence.NewEngine(logger)
	return NewService(store, agenda.New(engine, logger), logger)
}

func seedRecurring(t *testing.T, store storage.TaskStore, anchor time.Time, rule recurrence.Rule) *storage.Task {
	t.Helper()
	task := storage.NewTestRecurringTask("alice", "treino", anchor, rule)
	require.NoError(t, store.CreateTask(context.Background(), &task))
	return &task
}

func TestService_Complete_RecurringAdvances(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()
	now := date(2024, 1, 10)

	task := seedRecurring(t, store, date(2024, 1, 10), recurrence.Rule{Freq: recurrence.Daily, Interval: 3})

	result, err := svc.Complete(ctx, "alice", task.ID, now)
	require.NoError(t, err)

	// The original is back in pending state with the advanced anchor.
	next, ok := result.NextDue.Get()
	require.True(t, ok)
	assert.Equal(t, date(2024, 1, 13), next)
	assert.False(t, result.Task.Completed)
	assert.True(t, result.Task.CompletedAt.IsAbsent())
	assert.Equal(t, date(2024, 1, 13), result.Task.DueDate.OrElse(time.Time{}))

	// Exactly one frozen historical copy exists for the completed date.
	history, err := store.FetchOccurrences(ctx, "alice", task.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	copy := history[0]
	assert.True(t, copy.Completed)
	assert.True(t, copy.IsOccurrence)
	assert.Equal(t, task.ID, copy.OriginalTaskID.OrElse(""))
	assert.Equal(t, date(2024, 1, 10), copy.DueDate.OrElse(time.Time{}))
	assert.Equal(t, now, copy.CompletedAt.OrElse(time.Time{}))
	assert.NotEqual(t, task.ID, copy.ID)
}

func TestService_Complete_PlainTask(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()
	now := date(2024, 1, 10)

	task := storage.NewTestTask("alice", "avulsa", date(2024, 1, 10))
	require.NoError(t, store.CreateTask(ctx, &task))

	result, err := svc.Complete(ctx, "alice", task.ID, now)
	require.NoError(t, err)

	assert.True(t, result.Task.Completed)
	assert.Equal(t, now, result.Task.CompletedAt.OrElse(time.Time{}))
	assert.True(t, result.NextDue.IsAbsent())
	assert.Nil(t, result.Occurrence)

	history, err := store.FetchOccurrences(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.Empty(t, history, "plain completion must not spawn copies")
}

func TestService_Complete_HistoricalCopyToleratesToggle(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()
	now := date(2024, 1, 10)

	task := seedRecurring(t, store, date(2024, 1, 10), recurrence.Rule{Freq: recurrence.Weekly, Interval: 1})
	first, err := svc.Complete(ctx, "alice", task.ID, now)
	require.NoError(t, err)
	require.NotNil(t, first.Occurrence)

	// Completing the copy directly falls back to plain completion.
	result, err := svc.Complete(ctx, "alice", first.Occurrence.ID, now)
	require.NoError(t, err)
	assert.True(t, result.Task.Completed)
	assert.True(t, result.NextDue.IsAbsent())
}

func TestService_Complete_RetryAfterPartialFailure(t *testing.T) {
	ctx := context.Background()
	now := date(2024, 1, 10)
	rule := recurrence.Rule{Freq: recurrence.Daily, Interval: 1}
	task := storage.NewTestRecurringTask("alice", "treino", date(2024, 1, 10), rule)

	storeErr := errors.New("datastore exploded")

	mockStore := &storage.MockStore{}
	mockStore.On("GetTask", mock.Anything, "alice", task.ID).Return(&task, nil)
	mockStore.On("FetchOccurrences", mock.Anything, "alice", task.ID).Return([]storage.Task{}, nil).Once()
	mockStore.On("InsertHistoricalOccurrence", mock.Anything, mock.Anything).Return(nil).Once()
	mockStore.On("UpdateTaskDueDate", mock.Anything, "alice", task.ID, date(2024, 1, 11), true).
		Return(nil, storeErr).Once()

	svc := newService(mockStore)

	// First attempt: copy persisted, advance fails, error surfaces.
	_, err := svc.Complete(ctx, "alice", task.ID, now)
	require.ErrorIs(t, err, storeErr)

	// Retry: the existing copy is found, no second insert happens, the
	// advance completes.
	existingCopy := task
	existingCopy.ID = "copy-1"
	existingCopy.IsOccurrence = true
	existingCopy.Completed = true
	existingCopy.OriginalTaskID = mo.Some(task.ID)

	advanced := task
	advanced.DueDate = mo.Some(date(2024, 1, 11))

	mockStore.On("FetchOccurrences", mock.Anything, "alice", task.ID).Return([]storage.Task{existingCopy}, nil).Once()
	mockStore.On("UpdateTaskDueDate", mock.Anything, "alice", task.ID, date(2024, 1, 11), true).
		Return(&advanced, nil).Once()

	result, err := svc.Complete(ctx, "alice", task.ID, now)
	require.NoError(t, err)
	assert.Equal(t, "copy-1", result.Occurrence.ID)
	assert.Equal(t, date(2024, 1, 11), result.NextDue.OrElse(time.Time{}))

	mockStore.AssertNumberOfCalls(t, "InsertHistoricalOccurrence", 1)
}

func TestService_Complete_CopyFailureBlocksAdvance(t *testing.T) {
	ctx := context.Background()
	now := date(2024, 1, 10)
	task := storage.NewTestRecurringTask("alice", "treino", date(2024, 1, 10),
		recurrence.Rule{Freq: recurrence.Daily, Interval: 1})

	storeErr := errors.New("insert failed")

	mockStore := &storage.MockStore{}
	mockStore.On("GetTask", mock.Anything, "alice", task.ID).Return(&task, nil)
	mockStore.On("FetchOccurrences", mock.Anything, "alice", task.ID).Return([]storage.Task{}, nil)
	mockStore.On("InsertHistoricalOccurrence", mock.Anything, mock.Anything).Return(storeErr)

	svc := newService(mockStore)

	_, err := svc.Complete(ctx, "alice", task.ID, now)
	require.ErrorIs(t, err, storeErr)

	// Copy-then-advance: the anchor must not move when the copy failed.
	mockStore.AssertNotCalled(t, "UpdateTaskDueDate",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Uncomplete(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()

	task := storage.NewTestTask("alice", "avulsa", date(2024, 1, 10))
	require.NoError(t, store.CreateTask(ctx, &task))
	_, err := svc.Complete(ctx, "alice", task.ID, date(2024, 1, 10))
	require.NoError(t, err)

	restored, err := svc.Uncomplete(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.False(t, restored.Completed)
	assert.True(t, restored.CompletedAt.IsAbsent())
}

func TestService_CreateFromParsed(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()

	tests := []struct {
		name     string
		parsed   ParsedTask
		wantRule mo.Option[recurrence.Rule]
	}{
		{
			name: "recognized recurrence",
			parsed: ParsedTask{
				Title:                 "revisar finanças",
				DueDate:               mo.Some(date(2024, 2, 1)),
				RecurrenceDescription: "todo mês",
			},
			wantRule: mo.Some(recurrence.Rule{Freq: recurrence.Monthly, Interval: 1}),
		},
		{
			name: "unrecognized recurrence falls back to plain task",
			parsed: ParsedTask{
				Title:                 "ligar pro dentista",
				DueDate:               mo.Some(date(2024, 2, 1)),
				RecurrenceDescription: "quando sobrar tempo",
			},
			wantRule: mo.None[recurrence.Rule](),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := svc.CreateFromParsed(ctx, "alice", tt.parsed)
			require.NoError(t, err)
			assert.Equal(t, tt.parsed.Title, task.Title)
			assert.Equal(t, tt.wantRule.IsPresent(), task.Recurrence.IsPresent())
			if want, ok := tt.wantRule.Get(); ok {
				got, _ := task.Recurrence.Get()
				assert.True(t, want.Equal(got))
			}
		})
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := newService(memory.New())

	_, err := svc.Create(context.Background(), "alice", CreateInput{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestService_Update_RejectsUnknownProject(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()

	task := storage.NewTestTask("alice", "limpar", date(2024, 1, 10))
	require.NoError(t, store.CreateTask(ctx, &task))

	task.ProjectID = mo.Some("no-such-project")
	err := svc.Update(ctx, &task)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The stored task keeps its previous filing.
	got, err := store.GetTask(ctx, "alice", task.ID)
	require.NoError(t, err)
	assert.True(t, got.ProjectID.IsAbsent())
}

func TestService_Upcoming_PropagatesFetchFailure(t *testing.T) {
	storeErr := errors.New("store unreachable")

	mockStore := &storage.MockStore{}
	mockStore.On("FetchTasksInRange", mock.Anything, "alice", mock.Anything, mock.Anything).
		Return(nil, storeErr)

	svc := newService(mockStore)

	_, err := svc.Upcoming(context.Background(), "alice", date(2024, 1, 1), date(2024, 1, 31), date(2024, 1, 1))
	assert.ErrorIs(t, err, storeErr)
}

func TestService_Upcoming_EndToEnd(t *testing.T) {
	store := memory.New()
	svc := newService(store)
	ctx := context.Background()
	now := date(2024, 1, 1)

	oneOff := storage.NewTestTask("alice", "pagar aluguel", date(2024, 1, 5))
	require.NoError(t, store.CreateTask(ctx, &oneOff))
	seedRecurring(t, store, date(2024, 1, 2), recurrence.Rule{Freq: recurrence.Weekly, Interval: 1})

	days, err := svc.Upcoming(ctx, "alice", date(2024, 1, 1), date(2024, 1, 14), now)
	require.NoError(t, err)
	require.Len(t, days, 14)

	var total int
	for _, d := range days {
		total += len(d.Entries)
	}
	// One one-off plus weekly occurrences on Jan 2 and Jan 9.
	assert.Equal(t, 3, total)
}
