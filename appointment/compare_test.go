package appointment

import (
	"testing"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillMissing(t *testing.T) {
	master := standup()
	master.Exceptions = recurrence.NewExceptions(nil, []time.Time{day(2024, 1, 2)})

	t.Run("same pattern inherits fields", func(t *testing.T) {
		out := FillMissing(Appointment{ID: "m1", Title: "Renamed", Rule: recurrence.Rule{Type: recurrence.Daily, Interval: 2}}, master)
		assert.Equal(t, 2, out.Rule.Interval)
		assert.Equal(t, 10, out.Rule.Occurrences)
		assert.Equal(t, day(2024, 1, 1), out.Rule.Start)
		assert.Equal(t, master.Start, out.Start)
		assert.Equal(t, master.End, out.End)
		assert.Equal(t, "UTC", out.TimeZone)
		assert.Equal(t, master.Exceptions, out.Exceptions)
	})

	t.Run("no pattern inherits the whole rule", func(t *testing.T) {
		out := FillMissing(Appointment{ID: "m1"}, master)
		assert.Equal(t, master.Rule, out.Rule)
	})

	t.Run("own end is kept", func(t *testing.T) {
		until := recurrence.ExplicitUntil(day(2024, 1, 5))
		out := FillMissing(Appointment{Rule: recurrence.Rule{Type: recurrence.Daily, Until: until}}, master)
		assert.Equal(t, until, out.Rule.Until)
		assert.Zero(t, out.Rule.Occurrences)
	})

	t.Run("new pattern does not inherit", func(t *testing.T) {
		rule := recurrence.Rule{Type: recurrence.Weekly, Days: recurrence.Friday}
		out := FillMissing(Appointment{Rule: rule}, master)
		assert.Equal(t, rule, out.Rule)
	})

	t.Run("single appointment", func(t *testing.T) {
		single := standup()
		single.Rule = recurrence.Rule{}
		out := FillMissing(Appointment{Title: "x"}, single)
		assert.Equal(t, single.Start, out.Start)
		assert.False(t, out.IsRecurring())
	})
}

func TestConflictRelevantChange(t *testing.T) {
	engine := recurrence.NewEngine()

	free := standup()
	free.ShownAs = Free
	withDeleted := standup()
	withDeleted.Exceptions = recurrence.NewExceptions(nil, []time.Time{day(2024, 1, 4)})

	tests := []struct {
		name     string
		update   func(a Appointment) Appointment
		original Appointment
		expected bool
	}{
		{
			name:     "title only",
			update:   func(a Appointment) Appointment { a.Title = "Daily sync"; return a },
			original: standup(),
			expected: false,
		},
		{
			name:     "free becomes reserved",
			update:   func(a Appointment) Appointment { a.ShownAs = Reserved; return a },
			original: free,
			expected: true,
		},
		{
			name:     "reserved becomes free",
			update:   func(a Appointment) Appointment { a.ShownAs = Free; return a },
			original: standup(),
			expected: false,
		},
		{
			name: "participant added",
			update: func(a Appointment) Appointment {
				a.Participants = append(a.Participants, Participant{ID: "carol", Type: UserParticipant})
				return a
			},
			original: standup(),
			expected: true,
		},
		{
			name:     "participant removed",
			update:   func(a Appointment) Appointment { a.Participants = a.Participants[:1]; return a },
			original: standup(),
			expected: false,
		},
		{
			name:     "deleted occurrence restored",
			update:   func(a Appointment) Appointment { a.Exceptions = recurrence.Exceptions{}; return a },
			original: withDeleted,
			expected: true,
		},
		{
			name: "occurrence deleted",
			update: func(a Appointment) Appointment {
				a.Exceptions = a.Exceptions.WithDeleted(day(2024, 1, 6))
				return a
			},
			original: standup(),
			expected: false,
		},
		{
			name: "moved",
			update: func(a Appointment) Appointment {
				a.Start = a.Start.Add(time.Hour)
				a.End = a.End.Add(time.Hour)
				return a
			},
			original: standup(),
			expected: true,
		},
		{
			name: "series extended",
			update: func(a Appointment) Appointment {
				a.Rule = a.Rule.WithOccurrences(20)
				return a
			},
			original: standup(),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated := tt.update(tt.original.Clone())
			changed, err := ConflictRelevantChange(engine, updated, tt.original)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, changed)
		})
	}
}

func TestResetConfirmations(t *testing.T) {
	engine := recurrence.NewEngine()
	original := standup()

	moved := original.Clone()
	moved.Start = moved.Start.Add(time.Hour)
	moved.End = moved.End.Add(time.Hour)

	out, reset, err := ResetConfirmations(engine, moved, original)
	require.NoError(t, err)
	assert.True(t, reset)
	assert.Equal(t, ConfirmAccepted, out.Participants[0].Confirmation, "organizer keeps their reply")
	assert.Equal(t, ConfirmNone, out.Participants[1].Confirmation)
	assert.Equal(t, ConfirmAccepted, moved.Participants[1].Confirmation)

	renamed := original.Clone()
	renamed.Title = "Daily sync"
	out, reset, err = ResetConfirmations(engine, renamed, original)
	require.NoError(t, err)
	assert.False(t, reset)
	assert.Equal(t, ConfirmAccepted, out.Participants[1].Confirmation)
}
