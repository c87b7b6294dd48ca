package recurrence

// DetectTimeChange reports whether updated moves any occurrence of original,
// meaning participants have to confirm again. It does not modify its inputs.
//
// A change of the recurrence shape (type, interval, weekdays, day in month,
// month, occurrence count or until) always counts. Otherwise a series compares the start
// of its first and the end of its last occurrence, and a single instance its
// own start and end.
func (e *Engine) DetectTimeChange(updated, original Series) (bool, error) {
	if shapeChanged(updated.Rule, original.Rule) {
		return true, nil
	}

	if !updated.Rule.IsRecurring() {
		return !updated.Start.Equal(original.Start) || !updated.End.Equal(original.End), nil
	}

	newFirst, err := e.FirstOccurrence(updated)
	if err != nil {
		return false, err
	}
	oldFirst, err := e.FirstOccurrence(original)
	if err != nil {
		return false, err
	}
	if !newFirst.Start.Equal(oldFirst.Start) {
		return true, nil
	}

	newLast, err := e.LastOccurrence(updated)
	if err != nil {
		return false, err
	}
	oldLast, err := e.LastOccurrence(original)
	if err != nil {
		return false, err
	}
	return !newLast.End.Equal(oldLast.End), nil
}

// shapeChanged compares the rules field by field. Termination counts as
// changed whenever count or until differ, including an until set on one side
// only.
func shapeChanged(updated, original Rule) bool {
	return updated.Type != original.Type ||
		updated.Interval != original.Interval ||
		updated.Days != original.Days ||
		updated.DayInMonth != original.DayInMonth ||
		updated.Month != original.Month ||
		updated.Occurrences != original.Occurrences ||
		!updated.Until.Equal(original.Until)
}
