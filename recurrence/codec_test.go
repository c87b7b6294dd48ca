package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseRule(t *testing.T) {
	jan1 := day(2024, 1, 1)

	tests := []struct {
		name     string
		input    string
		expected Rule
	}{
		{
			name:     "empty string is no recurrence",
			input:    "",
			expected: Rule{},
		},
		{
			name:     "type 0 is no recurrence",
			input:    "t|0|",
			expected: Rule{},
		},
		{
			name:  "daily with count",
			input: "t|1|i|2|s|1704067200000|o|3|",
			expected: Rule{
				Type: Daily, Interval: 2, Start: jan1, Occurrences: 3,
			},
		},
		{
			name:  "weekly with until",
			input: "t|2|i|1|a|10|s|1704067200000|e|1706659200000|",
			expected: Rule{
				Type: Weekly, Interval: 1, Days: Monday | Wednesday, Start: jan1,
				Until: ExplicitUntil(day(2024, 1, 31)),
			},
		},
		{
			name:  "monthly by day",
			input: "t|3|i|1|b|15|s|1704067200000|",
			expected: Rule{
				Type: MonthlyByDay, Interval: 1, DayInMonth: 15, Start: jan1,
			},
		},
		{
			name:  "weekday mask makes monthly by weekday",
			input: "t|3|i|1|a|32|b|5|s|1704067200000|",
			expected: Rule{
				Type: MonthlyByWeekday, Interval: 1, Days: Friday, DayInMonth: 5, Start: jan1,
			},
		},
		{
			name:  "yearly by day",
			input: "t|4|i|1|b|29|c|1|s|1704067200000|",
			expected: Rule{
				Type: YearlyByDay, Interval: 1, DayInMonth: 29, Month: mo.Some(1), Start: jan1,
			},
		},
		{
			name:  "legacy monthly code",
			input: "t|5|i|1|a|32|b|5|s|1704067200000|",
			expected: Rule{
				Type: MonthlyByWeekday, Interval: 1, Days: Friday, DayInMonth: 5, Start: jan1,
			},
		},
		{
			name:  "legacy yearly code",
			input: "t|6|i|1|a|16|b|4|c|10|s|1704067200000|",
			expected: Rule{
				Type: YearlyByWeekday, Interval: 1, Days: Thursday, DayInMonth: 4, Month: mo.Some(10), Start: jan1,
			},
		},
		{
			name:  "start is truncated to its day",
			input: "t|1|i|1|s|1704103200000|",
			expected: Rule{
				Type: Daily, Interval: 1, Start: jan1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRule(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, r)
		})
	}
}

func TestParseRule_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"odd token count", "t|1|i|"},
		{"unknown tag", "t|1|x|3|"},
		{"non numeric value", "t|1|i|two|"},
		{"non numeric date", "t|1|i|1|s|yesterday|"},
		{"missing type", "i|1|s|1704067200000|"},
		{"unknown type code", "t|9|i|1|"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRule(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}

func TestEncode(t *testing.T) {
	jan1 := day(2024, 1, 1)

	tests := []struct {
		name     string
		rule     Rule
		expected string
	}{
		{
			name:     "none",
			rule:     Rule{},
			expected: "",
		},
		{
			name:     "daily with count",
			rule:     Rule{Type: Daily, Interval: 2, Start: jan1, Occurrences: 3},
			expected: "t|1|i|2|s|1704067200000|o|3|",
		},
		{
			name:     "weekly writes only weekdays",
			rule:     Rule{Type: Weekly, Interval: 1, Days: Monday | Wednesday, DayInMonth: 7, Month: mo.Some(3), Start: jan1},
			expected: "t|2|i|1|a|10|s|1704067200000|",
		},
		{
			name:     "monthly by weekday shares the monthly code",
			rule:     Rule{Type: MonthlyByWeekday, Interval: 1, Days: Friday, DayInMonth: 5, Start: jan1},
			expected: "t|3|i|1|a|32|b|5|s|1704067200000|",
		},
		{
			name:     "yearly writes month",
			rule:     Rule{Type: YearlyByDay, Interval: 1, DayInMonth: 29, Month: mo.Some(1), Start: jan1},
			expected: "t|4|i|1|b|29|c|1|s|1704067200000|",
		},
		{
			name: "explicit until wins over count",
			rule: Rule{
				Type: Daily, Interval: 1, Start: jan1, Occurrences: 5,
				Until: ExplicitUntil(day(2024, 1, 31)),
			},
			expected: "t|1|i|1|s|1704067200000|e|1706659200000|",
		},
		{
			name: "implied until is not written",
			rule: Rule{
				Type: Daily, Interval: 1, Start: jan1, Occurrences: 5,
				Until: ImpliedUntil(day(2024, 1, 5)),
			},
			expected: "t|1|i|1|s|1704067200000|o|5|",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Encode(tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s)
		})
	}
}

func TestEncode_RejectsIncompleteRule(t *testing.T) {
	_, err := Encode(Rule{Type: Weekly, Interval: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncomplete))

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, FieldDays, rerr.Field)
}

func TestEncode_ParseRoundTrip(t *testing.T) {
	rules := []Rule{
		{Type: Daily, Interval: 3, Start: day(2023, 6, 1)},
		{Type: Weekly, Interval: 2, Days: WorkDay, Start: day(2024, 2, 5), Occurrences: 12},
		{Type: MonthlyByDay, Interval: 1, DayInMonth: 31, Start: day(2024, 1, 1), Until: ExplicitUntil(day(2024, 12, 31))},
		{Type: MonthlyByWeekday, Interval: 3, Days: WeekendDay, DayInMonth: 2, Start: day(2024, 1, 1)},
		{Type: YearlyByDay, Interval: 1, DayInMonth: 1, Month: mo.Some(0), Start: day(2024, 1, 1)},
		{Type: YearlyByWeekday, Interval: 1, Days: Thursday, DayInMonth: 4, Month: mo.Some(10), Start: day(2024, 1, 1)},
	}

	for _, r := range rules {
		t.Run(r.Type.String(), func(t *testing.T) {
			s, err := Encode(r)
			require.NoError(t, err)
			parsed, err := ParseRule(s)
			require.NoError(t, err)
			assert.Equal(t, r, parsed)
		})
	}
}

func TestDecode_AutoCorrects(t *testing.T) {
	engine := NewEngine()

	r, err := engine.Decode("t|1|i|5000|s|1704067200000|o|1000|")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig.MaxInterval, r.Interval)
	assert.Equal(t, DefaultConfig.MaxOccurrences, r.Occurrences)

	r, err = engine.Decode("t|2|i|1|a|0|s|1704067200000|")
	require.NoError(t, err)
	assert.Equal(t, Monday, r.Days)

	r, err = engine.Decode("t|4|i|1|b|3|s|1704067200000|")
	require.NoError(t, err)
	assert.Equal(t, mo.Some(0), r.Month)

	_, err = engine.Decode("t|1|q|1|")
	assert.True(t, errors.Is(err, ErrMalformed))
}
