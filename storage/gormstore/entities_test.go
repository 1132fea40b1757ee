package gormstore

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfroes/jarvis/recurrence"
	"github.com/lfroes/jarvis/storage"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestTaskRow_RoundTrip(t *testing.T) {
	due := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	task := storage.Task{
		ID:      "t1",
		UserID:  "alice",
		Title:   "treino",
		Notes:   "academia",
		DueDate: mo.Some(due),
		Recurrence: mo.Some(recurrence.Rule{
			Freq:     recurrence.Weekly,
			Interval: 2,
			Weekdays: []time.Weekday{time.Wednesday, time.Monday},
		}),
		ProjectID: mo.Some("p1"),
	}

	row := fromDomain(task)
	require.NotNil(t, row.RecurrenceType)
	assert.Equal(t, "weekly", *row.RecurrenceType)
	require.NotNil(t, row.RecurrenceInterval)
	assert.Equal(t, 2, *row.RecurrenceInterval)
	require.NotNil(t, row.RecurrenceDaysOfWeek)
	assert.Equal(t, "1,3", *row.RecurrenceDaysOfWeek, "weekday set stored sorted")

	back := row.toDomain()
	assert.Equal(t, task.ID, back.ID)
	assert.Equal(t, due, back.DueDate.OrElse(time.Time{}))
	rule, ok := back.Recurrence.Get()
	require.True(t, ok)
	wantRule, _ := task.Recurrence.Get()
	assert.True(t, wantRule.Equal(rule))
}

func TestTaskRow_LegacyTextIsNormalized(t *testing.T) {
	row := taskRow{
		ID:             "t1",
		UserID:         "alice",
		Title:          "treino",
		RecurrenceText: strPtr("a cada 2 semanas"),
	}

	task := row.toDomain()
	rule, ok := task.Recurrence.Get()
	require.True(t, ok, "legacy text must normalize at the boundary")
	assert.True(t, recurrence.Rule{Freq: recurrence.Weekly, Interval: 2}.Equal(rule))
}

func TestTaskRow_UnrecognizedLegacyTextMeansNoRule(t *testing.T) {
	row := taskRow{
		ID:             "t1",
		UserID:         "alice",
		Title:          "treino",
		RecurrenceText: strPtr("quando der"),
	}

	task := row.toDomain()
	assert.True(t, task.Recurrence.IsAbsent())
	assert.False(t, task.IsRecurring())
}

func TestTaskRow_MalformedColumnsMeanNoRule(t *testing.T) {
	row := taskRow{
		ID:                 "t1",
		UserID:             "alice",
		Title:              "treino",
		RecurrenceType:     strPtr("hourly"),
		RecurrenceInterval: intPtr(1),
	}

	assert.True(t, row.toDomain().Recurrence.IsAbsent())
}

func TestParseWeekdays(t *testing.T) {
	assert.Nil(t, parseWeekdays(nil))
	assert.Nil(t, parseWeekdays(strPtr("")))
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, parseWeekdays(strPtr("1,3")))
	assert.Equal(t, []time.Weekday{time.Sunday}, parseWeekdays(strPtr(" 0 ")))
}
