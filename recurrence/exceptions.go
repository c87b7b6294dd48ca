package recurrence

import (
	"slices"
	"time"
)

// DateSet is a sorted set of day-normalized dates. The zero value is empty.
// Every method returns a new set; the receiver is never modified.
type DateSet struct {
	dates []time.Time
}

// NewDateSet normalizes, sorts and de-duplicates dates.
func NewDateSet(dates ...time.Time) DateSet {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		out = append(out, NormalizeDate(d))
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	out = slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
	return DateSet{dates: out}
}

func (s DateSet) search(d time.Time) (int, bool) {
	return slices.BinarySearchFunc(s.dates, NormalizeDate(d), func(e, t time.Time) int { return e.Compare(t) })
}

// Contains reports whether the day of d is in the set.
func (s DateSet) Contains(d time.Time) bool {
	if d.IsZero() {
		return false
	}
	_, ok := s.search(d)
	return ok
}

// Add returns a set that also holds the day of d.
func (s DateSet) Add(d time.Time) DateSet {
	if d.IsZero() {
		return s
	}
	i, ok := s.search(d)
	if ok {
		return s
	}
	out := make([]time.Time, 0, len(s.dates)+1)
	out = append(out, s.dates[:i]...)
	out = append(out, NormalizeDate(d))
	out = append(out, s.dates[i:]...)
	return DateSet{dates: out}
}

// Remove returns a set without the day of d.
func (s DateSet) Remove(d time.Time) DateSet {
	i, ok := s.search(d)
	if !ok {
		return s
	}
	out := make([]time.Time, 0, len(s.dates)-1)
	out = append(out, s.dates[:i]...)
	out = append(out, s.dates[i+1:]...)
	return DateSet{dates: out}
}

// Union returns the dates present in either set.
func (s DateSet) Union(o DateSet) DateSet {
	out := make([]time.Time, 0, len(s.dates)+len(o.dates))
	i, j := 0, 0
	for i < len(s.dates) && j < len(o.dates) {
		switch c := s.dates[i].Compare(o.dates[j]); {
		case c < 0:
			out = append(out, s.dates[i])
			i++
		case c > 0:
			out = append(out, o.dates[j])
			j++
		default:
			out = append(out, s.dates[i])
			i++
			j++
		}
	}
	out = append(out, s.dates[i:]...)
	out = append(out, o.dates[j:]...)
	return DateSet{dates: out}
}

// Len returns the number of dates.
func (s DateSet) Len() int { return len(s.dates) }

// Dates returns a copy of the sorted dates.
func (s DateSet) Dates() []time.Time { return slices.Clone(s.dates) }

// Exceptions are the overridden and removed dates of a series. A date is in
// at most one of the two sets.
type Exceptions struct {
	Changed DateSet
	Deleted DateSet
}

// NewExceptions builds disjoint sets; a date listed as both is kept as deleted.
func NewExceptions(changed, deleted []time.Time) Exceptions {
	del := NewDateSet(deleted...)
	ch := NewDateSet(changed...)
	for _, d := range del.dates {
		ch = ch.Remove(d)
	}
	return Exceptions{Changed: ch, Deleted: del}
}

// Contains reports whether d is a change or delete exception.
func (e Exceptions) Contains(d time.Time) bool {
	return e.Changed.Contains(d) || e.Deleted.Contains(d)
}

// WithChanged returns exceptions that also mark d as changed. A deleted date
// cannot become a change exception.
func (e Exceptions) WithChanged(d time.Time) (Exceptions, error) {
	if e.Deleted.Contains(d) {
		return e, &Error{
			Type:    ErrTypeConflict,
			Message: "occurrence on " + NormalizeDate(d).Format(time.DateOnly) + " has been deleted",
		}
	}
	e.Changed = e.Changed.Add(d)
	return e, nil
}

// WithDeleted returns exceptions that mark d as deleted, dropping a change
// exception on the same day.
func (e Exceptions) WithDeleted(d time.Time) Exceptions {
	e.Changed = e.Changed.Remove(d)
	e.Deleted = e.Deleted.Add(d)
	return e
}

// All returns the union of both sets.
func (e Exceptions) All() DateSet { return e.Changed.Union(e.Deleted) }

// MergeExceptionDates returns the sorted, de-duplicated union of deleted and
// changed dates as a new slice.
func MergeExceptionDates(deleted, changed []time.Time) []time.Time {
	return NewDateSet(deleted...).Union(NewDateSet(changed...)).dates
}

// AddException returns a sorted copy of dates holding d once.
func AddException(dates []time.Time, d time.Time) []time.Time {
	return NewDateSet(dates...).Add(d).Dates()
}
