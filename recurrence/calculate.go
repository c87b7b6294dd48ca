package recurrence

import (
	"github.com/samber/mo"
)

// Calculate expands series according to q.
//
// Generation stops at whichever comes first: the result cap, the end of the
// series (occurrence count, until date, or Config.NoEndYears for unbounded
// series without a range end), the end of the range, or the operation
// budget. Running out of budget is not an error; the result is marked
// Truncated instead.
//
// A non-recurring series yields its single instance at position 1.
func (e *Engine) Calculate(series Series, q Query) (ResultSet, error) {
	if !series.Rule.IsRecurring() {
		return e.single(series, q), nil
	}
	if err := Validate(series.Rule); err != nil {
		return ResultSet{}, err
	}

	if e.cache != nil {
		if rs, ok := e.cache.Get(series, q); ok {
			return rs, nil
		}
	}

	rs, err := e.calculate(series, q)
	if err != nil {
		return ResultSet{}, err
	}

	if e.cache != nil {
		e.cache.Set(series, q, rs)
	}
	return rs, nil
}

// TryCalculate is Calculate returning a mo.Result.
func (e *Engine) TryCalculate(series Series, q Query) mo.Result[ResultSet] {
	return mo.TupleToResult(e.Calculate(series, q))
}

func (e *Engine) calculate(series Series, q Query) (ResultSet, error) {
	mode := limitHorizon
	if q.Position <= 0 && !q.CalculateUntil {
		mode = limitRange
	}
	w, err := e.newWalker(series, mode, q.RangeEnd)
	if err != nil {
		return ResultSet{}, err
	}

	var rs ResultSet
	switch {
	case q.CalculateUntil:
		for {
			o, ok := w.next()
			if !ok {
				break
			}
			rs.Occurrences = append(rs.Occurrences, o)
		}

	case q.Position > 0:
		for {
			o, ok := w.next()
			if !ok {
				break
			}
			if o.Position < q.Position {
				continue
			}
			if q.IgnoreExceptions || !series.Exceptions.Contains(o.Date) {
				rs.Occurrences = append(rs.Occurrences, o)
			}
			break
		}

	default:
		limit := q.MaxResults
		if limit <= 0 {
			limit = e.config.MaxOccurrences
		}
		for len(rs.Occurrences) < limit {
			o, ok := w.next()
			if !ok {
				break
			}
			if !q.RangeEnd.IsZero() && !o.Start.Before(q.RangeEnd) {
				break
			}
			if !q.RangeStart.IsZero() && !o.End.After(q.RangeStart) {
				continue
			}
			if !q.IgnoreExceptions && series.Exceptions.Contains(o.Date) {
				continue
			}
			rs.Occurrences = append(rs.Occurrences, o)
		}
	}

	rs.Truncated = w.truncated
	if rs.Truncated {
		e.config.Logger.Warn("recurrence calculation exceeded operation budget",
			"type", series.Rule.Type.String(), "max_operations", e.config.MaxOperations, "results", len(rs.Occurrences))
	}
	return rs, nil
}

// single expands a non-recurring series.
func (e *Engine) single(series Series, q Query) ResultSet {
	o := Occurrence{
		Position: 1,
		Start:    series.Start,
		End:      series.End,
		Date:     NormalizeDate(series.Start),
	}
	if loc, err := e.Location(series); err == nil && !series.Start.IsZero() {
		o.Date = localDate(series.Start, loc)
	}
	if q.Position > 1 {
		return ResultSet{}
	}
	if !q.CalculateUntil && q.Position == 0 {
		if !q.RangeEnd.IsZero() && !o.Start.Before(q.RangeEnd) {
			return ResultSet{}
		}
		if !q.RangeStart.IsZero() && !o.End.After(q.RangeStart) {
			return ResultSet{}
		}
	}
	return ResultSet{Occurrences: []Occurrence{o}}
}
