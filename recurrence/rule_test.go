package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr error
	}{
		{name: "valid daily", rule: Rule{Freq: Daily, Interval: 1}},
		{name: "valid weekly with weekdays", rule: Rule{Freq: Weekly, Interval: 2, Weekdays: []time.Weekday{time.Monday, time.Friday}}},
		{name: "valid yearly", rule: Rule{Freq: Yearly, Interval: 1}},
		{name: "unknown frequency", rule: Rule{Freq: "hourly", Interval: 1}, wantErr: ErrInvalidFrequency},
		{name: "zero interval", rule: Rule{Freq: Daily, Interval: 0}, wantErr: ErrInvalidInterval},
		{name: "negative interval", rule: Rule{Freq: Daily, Interval: -2}, wantErr: ErrInvalidInterval},
		{name: "weekdays on daily rule", rule: Rule{Freq: Daily, Interval: 1, Weekdays: []time.Weekday{time.Monday}}, wantErr: ErrInvalidWeekdays},
		{name: "duplicate weekday", rule: Rule{Freq: Weekly, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Monday}}, wantErr: ErrInvalidWeekdays},
		{name: "weekday out of range", rule: Rule{Freq: Weekly, Interval: 1, Weekdays: []time.Weekday{7}}, wantErr: ErrInvalidWeekdays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRule_Advance(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		from time.Time
		want time.Time
	}{
		{
			name: "daily",
			rule: Rule{Freq: Daily, Interval: 1},
			from: date(2024, 1, 10),
			want: date(2024, 1, 11),
		},
		{
			name: "daily with interval",
			rule: Rule{Freq: Daily, Interval: 5},
			from: date(2024, 1, 30),
			want: date(2024, 2, 4),
		},
		{
			name: "weekly",
			rule: Rule{Freq: Weekly, Interval: 2},
			from: date(2024, 1, 1),
			want: date(2024, 1, 15),
		},
		{
			name: "monthly",
			rule: Rule{Freq: Monthly, Interval: 1},
			from: date(2024, 3, 15),
			want: date(2024, 4, 15),
		},
		{
			// Feb 2024 has 29 days, so Jan 31 + 1 month rolls over to Mar 2.
			name: "monthly end-of-month rollover",
			rule: Rule{Freq: Monthly, Interval: 1},
			from: date(2024, 1, 31),
			want: date(2024, 3, 2),
		},
		{
			name: "monthly end-of-month rollover, non-leap year",
			rule: Rule{Freq: Monthly, Interval: 1},
			from: date(2023, 1, 31),
			want: date(2023, 3, 3),
		},
		{
			name: "yearly",
			rule: Rule{Freq: Yearly, Interval: 1},
			from: date(2024, 7, 15),
			want: date(2025, 7, 15),
		},
		{
			name: "yearly from leap day",
			rule: Rule{Freq: Yearly, Interval: 1},
			from: date(2024, 2, 29),
			want: date(2025, 3, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.rule.Advance(tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.After(tt.from), "advance must move forward")

			// Pure function: same inputs, same output.
			again, err := tt.rule.Advance(tt.from)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestRule_Advance_InvalidRule(t *testing.T) {
	_, err := Rule{Freq: Daily, Interval: 0}.Advance(date(2024, 1, 1))
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestRule_Equal(t *testing.T) {
	a := Rule{Freq: Weekly, Interval: 1, Weekdays: []time.Weekday{time.Wednesday, time.Monday}}
	b := Rule{Freq: Weekly, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Wednesday}}
	assert.True(t, a.Equal(b), "weekday order must not matter")
	assert.False(t, a.Equal(Rule{Freq: Weekly, Interval: 2, Weekdays: b.Weekdays}))
}
