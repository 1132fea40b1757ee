package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lfroes/jarvis/agenda"
	"github.com/lfroes/jarvis/recurrence"
	"github.com/lfroes/jarvis/storage"
)

func TestRuleToRRule(t *testing.T) {
	tests := []struct {
		name string
		rule recurrence.Rule
		want []string
	}{
		{
			name: "daily",
			rule: recurrence.Rule{Freq: recurrence.Daily, Interval: 1},
			want: []string{"FREQ=DAILY"},
		},
		{
			name: "every other week",
			rule: recurrence.Rule{Freq: recurrence.Weekly, Interval: 2},
			want: []string{"FREQ=WEEKLY", "INTERVAL=2"},
		},
		{
			name: "weekly on mon and wed",
			rule: recurrence.Rule{
				Freq: recurrence.Weekly, Interval: 1,
				Weekdays: []time.Weekday{time.Wednesday, time.Monday},
			},
			want: []string{"FREQ=WEEKLY", "BYDAY=MO,WE"},
		},
		{
			name: "yearly",
			rule: recurrence.Rule{Freq: recurrence.Yearly, Interval: 1},
			want: []string{"FREQ=YEARLY"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RuleToRRule(tt.rule)
			require.NoError(t, err)
			for _, fragment := range tt.want {
				assert.Contains(t, got, fragment)
			}
		})
	}
}

func TestRuleToRRule_RoundTripThroughNormalize(t *testing.T) {
	rules := []recurrence.Rule{
		{Freq: recurrence.Daily, Interval: 1},
		{Freq: recurrence.Weekly, Interval: 3},
		{Freq: recurrence.Weekly, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Friday}},
		{Freq: recurrence.Monthly, Interval: 2},
		{Freq: recurrence.Yearly, Interval: 1},
	}
	for _, rule := range rules {
		serialized, err := RuleToRRule(rule)
		require.NoError(t, err)
		back, ok := recurrence.Normalize(serialized).Get()
		require.True(t, ok, "serialized rule %q must normalize back", serialized)
		assert.True(t, rule.Equal(back), "round trip of %q", serialized)
	}
}

func TestRuleToRRule_InvalidRule(t *testing.T) {
	_, err := RuleToRRule(recurrence.Rule{Freq: recurrence.Daily, Interval: 0})
	assert.Error(t, err)
}

func TestTaskToICS(t *testing.T) {
	task := storage.Task{
		ID:      "t1",
		UserID:  "alice",
		Title:   "treino",
		Notes:   "academia",
		DueDate: mo.Some(time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC)),
		Recurrence: mo.Some(recurrence.Rule{
			Freq: recurrence.Weekly, Interval: 1,
			Weekdays: []time.Weekday{time.Monday, time.Wednesday},
		}),
	}

	ics, err := TaskToICS(task)
	require.NoError(t, err)

	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "BEGIN:VTODO")
	assert.Contains(t, ics, "UID:t1")
	assert.Contains(t, ics, "SUMMARY:treino")
	assert.Contains(t, ics, "DESCRIPTION:academia")
	assert.Contains(t, ics, "STATUS:NEEDS-ACTION")
	assert.Contains(t, ics, "FREQ=WEEKLY")
	assert.Contains(t, ics, "BYDAY=MO,WE")
}

func TestTaskToICS_CompletedTask(t *testing.T) {
	at := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	task := storage.Task{
		ID:          "t1",
		UserID:      "alice",
		Title:       "dentista",
		Completed:   true,
		CompletedAt: mo.Some(at),
	}

	ics, err := TaskToICS(task)
	require.NoError(t, err)
	assert.Contains(t, ics, "STATUS:COMPLETED")
	assert.Contains(t, ics, "COMPLETED:")
}

func TestScheduleToICS_SkipsSynthesizedOccurrences(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	base := storage.Task{
		ID: "base", UserID: "alice", Title: "treino",
		DueDate:    mo.Some(day),
		Recurrence: mo.Some(recurrence.Rule{Freq: recurrence.Daily, Interval: 1}),
	}
	occurrence := storage.Task{
		ID: "occ", UserID: "alice", Title: "treino",
		DueDate:        mo.Some(day.AddDate(0, 0, 1)),
		IsOccurrence:   true,
		OriginalTaskID: mo.Some("base"),
	}

	ics, err := ScheduleToICS([]agenda.Day{
		{Date: day, Entries: []storage.Task{base}},
		{Date: day.AddDate(0, 0, 1), Entries: []storage.Task{occurrence}},
	})
	require.NoError(t, err)

	assert.Contains(t, ics, "UID:base")
	assert.NotContains(t, ics, "UID:occ", "RRULE on the original implies its occurrences")
}

func TestScheduleToICS_DeduplicatesAcrossDays(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	task := storage.Task{ID: "t1", UserID: "alice", Title: "treino", DueDate: mo.Some(day)}

	ics, err := ScheduleToICS([]agenda.Day{
		{Date: day, Entries: []storage.Task{task}},
		{Date: day.AddDate(0, 0, 1), Entries: []storage.Task{task}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(ics, "UID:t1"))
}
