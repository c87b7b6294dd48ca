package appointment

import (
	"github.com/cyp0633/librecur/recurrence"
)

// FillMissing returns edit with recurrence fields it left unset taken from
// master, so a partial update of a series still describes a whole rule.
func FillMissing(edit, master Appointment) Appointment {
	out := edit.Clone()
	if out.TimeZone == "" {
		out.TimeZone = master.TimeZone
	}
	if out.Start.IsZero() {
		out.Start = master.Start
	}
	if out.End.IsZero() {
		out.End = master.End
	}
	if !master.IsRecurring() {
		return out
	}
	if out.Exceptions.Changed.Len() == 0 && out.Exceptions.Deleted.Len() == 0 {
		out.Exceptions = master.Exceptions
	}

	r, m := out.Rule, master.Rule
	if r.Type == recurrence.None {
		r.Type = m.Type
	}
	if r.Type != m.Type {
		// A new pattern does not inherit fields of the old one.
		out.Rule = r
		return out
	}
	if r.Interval == 0 {
		r.Interval = m.Interval
	}
	if r.Type.UsesWeekdays() && r.Days == 0 {
		r.Days = m.Days
	}
	if (r.Type.IsMonthly() || r.Type.IsYearly()) && r.DayInMonth == 0 {
		r.DayInMonth = m.DayInMonth
	}
	if r.Type.IsYearly() && r.Month.IsAbsent() {
		r.Month = m.Month
	}
	if !r.HasEnd() {
		r.Occurrences = m.Occurrences
		r.Until = m.Until
	}
	if r.Start.IsZero() {
		r.Start = m.Start
	}
	out.Rule = r
	return out
}

// ConflictRelevantChange reports whether updating original to updated may
// create scheduling conflicts that were not there before: occurrences move,
// deleted occurrences come back, participants join, or the appointment stops
// being shown as free.
func ConflictRelevantChange(engine *recurrence.Engine, updated, original Appointment) (bool, error) {
	if updated.ShownAs.Blocks() && !original.ShownAs.Blocks() {
		return true, nil
	}
	for _, p := range updated.Participants {
		if _, ok := original.Participant(p.ID); !ok {
			return true, nil
		}
	}
	for _, d := range original.Exceptions.Deleted.Dates() {
		if !updated.Exceptions.Deleted.Contains(d) {
			return true, nil
		}
	}
	return engine.DetectTimeChange(updated.Series(), original.Series())
}

// ResetConfirmations returns updated with every participant's confirmation
// cleared when its times changed against original. The organizer keeps
// their reply. The second result tells whether anything was reset.
func ResetConfirmations(engine *recurrence.Engine, updated, original Appointment) (Appointment, bool, error) {
	changed, err := engine.DetectTimeChange(updated.Series(), original.Series())
	if err != nil || !changed {
		return updated, false, err
	}
	out := updated.Clone()
	for i := range out.Participants {
		if out.Participants[i].ID == out.Organizer {
			continue
		}
		out.Participants[i].Confirmation = ConfirmNone
		out.Participants[i].Message = ""
	}
	return out, true, nil
}
