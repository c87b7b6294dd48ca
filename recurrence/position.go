package recurrence

import (
	"errors"
	"fmt"
	"time"
)

// positionWindow is searched on each side of a date to find its position.
const positionWindow = 7 * 24 * time.Hour

// OccurrenceAt returns the occurrence at the 1-based position, whether or not
// an exception replaces it.
func (e *Engine) OccurrenceAt(series Series, position int) (Occurrence, error) {
	if position < 1 {
		return Occurrence{}, &Error{Type: ErrTypePosition, Message: fmt.Sprintf("invalid position %d", position)}
	}
	rs, err := e.Calculate(series, Query{Position: position, IgnoreExceptions: true})
	if err != nil {
		return Occurrence{}, err
	}
	o, ok := rs.First().Get()
	if !ok {
		return Occurrence{}, &Error{Type: ErrTypePosition, Message: fmt.Sprintf("series has no occurrence at position %d", position)}
	}
	return o, nil
}

// PositionOf finds the occurrence falling on the day of date by expanding
// the week around it. Exceptions are ignored, so replaced dates resolve too.
func (e *Engine) PositionOf(series Series, date time.Time) (Occurrence, error) {
	if date.IsZero() {
		return Occurrence{}, &Error{Type: ErrTypePosition, Message: "no date given"}
	}
	day := NormalizeDate(date)
	rs, err := e.Calculate(series, Query{
		RangeStart:       day.Add(-positionWindow),
		RangeEnd:         day.Add(positionWindow + 24*time.Hour),
		MaxResults:       64,
		IgnoreExceptions: true,
	})
	if err != nil {
		return Occurrence{}, err
	}
	for _, o := range rs.Occurrences {
		if o.Date.Equal(day) || o.Start.Equal(date) {
			return o, nil
		}
	}
	return Occurrence{}, &Error{
		Type:    ErrTypePosition,
		Message: "no occurrence on " + day.Format(time.DateOnly),
	}
}

// FirstOccurrence returns the first occurrence of the series, exceptions
// included.
func (e *Engine) FirstOccurrence(series Series) (Occurrence, error) {
	rs, err := e.Calculate(series, Query{Position: 1, IgnoreExceptions: true})
	if err != nil {
		return Occurrence{}, err
	}
	o, ok := rs.First().Get()
	if !ok {
		return Occurrence{}, &Error{Type: ErrTypeFirstOccurrence, Message: "rule yields no occurrence"}
	}
	return o, nil
}

// LastOccurrence returns the last occurrence of the series, exceptions
// included. Unbounded series end after Config.NoEndYears.
func (e *Engine) LastOccurrence(series Series) (Occurrence, error) {
	rs, err := e.Calculate(series, Query{CalculateUntil: true})
	if err != nil {
		return Occurrence{}, err
	}
	if rs.Truncated {
		return Occurrence{}, &Error{Type: ErrTypeBudgetExhausted, Message: "cannot determine the end of the series"}
	}
	o, ok := rs.Last().Get()
	if !ok {
		return Occurrence{}, &Error{Type: ErrTypeFirstOccurrence, Message: "rule yields no occurrence"}
	}
	return o, nil
}

// ResolveUntil returns the rule with an implied until when it ends by
// occurrence count. Other rules are returned unchanged.
func (e *Engine) ResolveUntil(series Series) (Rule, error) {
	r := series.Rule
	if !r.IsRecurring() || r.Until.Kind != Unbounded || r.Occurrences <= 0 {
		return r, nil
	}
	last, err := e.LastOccurrence(series)
	if err != nil {
		return r, err
	}
	r.Until = ImpliedUntil(last.Date)
	return r, nil
}

// IsOccurrenceDate reports whether the day of date is taken in the series,
// either by a regular occurrence that was not deleted or by a change
// exception. The day of ignoreDate is never considered taken.
func (e *Engine) IsOccurrenceDate(series Series, date, ignoreDate time.Time) (bool, error) {
	day := NormalizeDate(date)
	if !ignoreDate.IsZero() && day.Equal(NormalizeDate(ignoreDate)) {
		return false, nil
	}
	if series.Exceptions.Changed.Contains(day) {
		return true, nil
	}
	if series.Exceptions.Deleted.Contains(day) {
		return false, nil
	}
	_, err := e.PositionOf(series, day)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrCannotPosition) {
		return false, nil
	}
	return false, err
}
