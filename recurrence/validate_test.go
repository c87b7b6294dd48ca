package recurrence

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	start := day(2024, 1, 1)

	tests := []struct {
		name  string
		rule  Rule
		field string // empty when valid
	}{
		{"none is always valid", Rule{}, ""},
		{"daily", Rule{Type: Daily, Interval: 1, Start: start}, ""},
		{"missing interval", Rule{Type: Daily, Start: start}, FieldInterval},
		{"weekly without weekdays", Rule{Type: Weekly, Interval: 1}, FieldDays},
		{"monthly day 31", Rule{Type: MonthlyByDay, Interval: 1, DayInMonth: 31}, ""},
		{"monthly day 32", Rule{Type: MonthlyByDay, Interval: 1, DayInMonth: 32}, FieldDayInMonth},
		{"monthly without day", Rule{Type: MonthlyByDay, Interval: 1}, FieldDayInMonth},
		{"monthly by weekday ordinal 6", Rule{Type: MonthlyByWeekday, Interval: 1, Days: Friday, DayInMonth: 6}, FieldDayInMonth},
		{"monthly by weekday without weekdays", Rule{Type: MonthlyByWeekday, Interval: 1, DayInMonth: 2}, FieldDays},
		{"yearly without month", Rule{Type: YearlyByDay, Interval: 1, DayInMonth: 1}, FieldMonth},
		{"yearly month 12", Rule{Type: YearlyByDay, Interval: 1, DayInMonth: 1, Month: mo.Some(12)}, ""},
		{"yearly month 13", Rule{Type: YearlyByDay, Interval: 1, DayInMonth: 1, Month: mo.Some(13)}, FieldMonth},
		{"yearly day 32", Rule{Type: YearlyByDay, Interval: 1, DayInMonth: 32, Month: mo.Some(0)}, ""},
		{"yearly day 33", Rule{Type: YearlyByDay, Interval: 1, DayInMonth: 33, Month: mo.Some(0)}, FieldDayInMonth},
		{"yearly by weekday", Rule{Type: YearlyByWeekday, Interval: 1, Days: Thursday, DayInMonth: 4, Month: mo.Some(10)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.rule)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIncomplete))
			assert.True(t, errors.Is(err, &Error{Type: ErrTypeIncomplete, Field: tt.field}), "got %v", err)
		})
	}
}

func TestAutoCorrect(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	engine := NewEngineWithConfig(DefaultConfig.WithLogger(logger))

	tests := []struct {
		name     string
		input    Rule
		expected Rule
	}{
		{
			name:     "interval above maximum",
			input:    Rule{Type: Daily, Interval: 1200},
			expected: Rule{Type: Daily, Interval: 999},
		},
		{
			name:     "interval below one",
			input:    Rule{Type: Daily, Interval: -4},
			expected: Rule{Type: Daily, Interval: 1},
		},
		{
			name:     "occurrences above maximum",
			input:    Rule{Type: Daily, Interval: 1, Occurrences: 400},
			expected: Rule{Type: Daily, Interval: 1, Occurrences: 365},
		},
		{
			name:     "invalid weekday mask",
			input:    Rule{Type: Weekly, Interval: 1, Days: 200},
			expected: Rule{Type: Weekly, Interval: 1, Days: Monday},
		},
		{
			name:     "yearly month out of range",
			input:    Rule{Type: YearlyByDay, Interval: 1, DayInMonth: 3, Month: mo.Some(12)},
			expected: Rule{Type: YearlyByDay, Interval: 1, DayInMonth: 3, Month: mo.Some(0)},
		},
		{
			name:     "until wins over count",
			input:    Rule{Type: Daily, Interval: 1, Occurrences: 3, Until: ExplicitUntil(day(2024, 2, 1))},
			expected: Rule{Type: Daily, Interval: 1, Until: ExplicitUntil(day(2024, 2, 1))},
		},
		{
			name:     "none is untouched",
			input:    Rule{Interval: -1},
			expected: Rule{Interval: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.AutoCorrect(tt.input))
		})
	}

	assert.Contains(t, buf.String(), "field=interval")
	assert.Contains(t, buf.String(), string(ErrTypeValueConstraint))
}
