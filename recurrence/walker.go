package recurrence

import "time"

// walker yields the occurrences of a series in order. Dates are handled as
// midnight UTC values holding the local calendar date.
type walker struct {
	rule   Rule
	days   []time.Weekday
	anchor time.Time
	// weekStart is the first day of the week block holding anchor.
	weekStart time.Time
	// limit is the last date that may occur; zero for none.
	limit time.Time

	loc      *time.Location
	clock    time.Duration // time of day of every occurrence
	duration time.Duration
	allDay   bool

	ops, maxOps int
	step        int
	pending     []time.Time
	position    int
	done        bool
	truncated   bool
}

type walkLimit int

const (
	// limitHorizon bounds unbounded series by Config.NoEndYears.
	limitHorizon walkLimit = iota
	// limitRange bounds unbounded series by the end of the query range.
	limitRange
)

func (e *Engine) newWalker(series Series, mode walkLimit, rangeEnd time.Time) (*walker, error) {
	loc, err := e.Location(series)
	if err != nil {
		return nil, err
	}
	anchor, err := e.RecurringStart(series)
	if err != nil {
		return nil, err
	}
	if anchor.IsZero() {
		return nil, &Error{Type: ErrTypeFirstOccurrence, Message: "series has neither start nor recurring start"}
	}

	r := series.Rule
	w := &walker{
		rule:     r,
		anchor:   anchor,
		loc:      loc,
		duration: series.Duration(),
		allDay:   series.AllDay,
		maxOps:   e.config.MaxOperations,
	}
	if !series.Start.IsZero() && !series.AllDay {
		local := series.Start.In(loc)
		w.clock = time.Duration(local.Hour())*time.Hour +
			time.Duration(local.Minute())*time.Minute +
			time.Duration(local.Second())*time.Second +
			time.Duration(local.Nanosecond())
	}
	if r.Type.UsesWeekdays() {
		w.days = r.Days.List(e.config.FirstDayOfWeek)
	}
	if r.Type == Weekly {
		back := (int(anchor.Weekday()) - int(e.config.FirstDayOfWeek) + 7) % 7
		w.weekStart = anchor.AddDate(0, 0, -back)
	}

	switch {
	case r.Until.Kind != Unbounded:
		w.limit = r.Until.At
	case r.Occurrences > 0:
	case mode == limitRange && !rangeEnd.IsZero():
		w.limit = localDate(rangeEnd, loc).AddDate(0, 0, 1)
	default:
		w.limit = anchor.AddDate(e.config.NoEndYears, 0, 0)
	}
	return w, nil
}

// next returns the following occurrence, or false when the series ended or
// the operation budget ran out.
func (w *walker) next() (Occurrence, bool) {
	for !w.done {
		if len(w.pending) == 0 {
			w.fill()
			continue
		}
		d := w.pending[0]
		w.pending = w.pending[1:]
		if d.Before(w.anchor) {
			continue
		}
		if !w.limit.IsZero() && d.After(w.limit) {
			w.done = true
			break
		}
		w.position++
		if w.rule.Occurrences > 0 && w.position > w.rule.Occurrences {
			w.position--
			w.done = true
			break
		}
		return w.occurrence(d), true
	}
	return Occurrence{}, false
}

// fill computes the candidate dates of the next interval block.
func (w *walker) fill() {
	w.ops++
	if w.ops > w.maxOps {
		w.truncated = true
		w.done = true
		return
	}
	k := w.step * w.rule.Interval
	w.step++

	ay, am, _ := w.anchor.Date()
	var block time.Time
	switch w.rule.Type {
	case Daily:
		block = w.anchor.AddDate(0, 0, k)
		w.pending = append(w.pending, block)
	case Weekly:
		block = w.weekStart.AddDate(0, 0, 7*k)
		for _, d := range w.days {
			offset := (int(d) - int(w.weekStart.Weekday()) + 7) % 7
			w.pending = append(w.pending, block.AddDate(0, 0, offset))
		}
		w.ops += len(w.days)
	case MonthlyByDay:
		block = time.Date(ay, am+time.Month(k), 1, 0, 0, 0, 0, time.UTC)
		if d, ok := dayOfMonth(block, w.rule.DayInMonth); ok {
			w.pending = append(w.pending, d)
		}
	case MonthlyByWeekday:
		block = time.Date(ay, am+time.Month(k), 1, 0, 0, 0, 0, time.UTC)
		if d, ok := nthWeekday(block, w.rule.Days, w.rule.DayInMonth); ok {
			w.pending = append(w.pending, d)
		}
	case YearlyByDay:
		block = time.Date(ay+k, 1, 1, 0, 0, 0, 0, time.UTC)
		if d, ok := dayOfMonth(w.yearlyMonth(ay+k), w.rule.DayInMonth); ok {
			w.pending = append(w.pending, d)
		}
	case YearlyByWeekday:
		block = time.Date(ay+k, 1, 1, 0, 0, 0, 0, time.UTC)
		if d, ok := nthWeekday(w.yearlyMonth(ay+k), w.rule.Days, w.rule.DayInMonth); ok {
			w.pending = append(w.pending, d)
		}
	default:
		w.done = true
		return
	}

	if !w.limit.IsZero() && block.After(w.limit) {
		w.pending = w.pending[:0]
		w.done = true
	}
}

// yearlyMonth returns the first day of the rule's month in year. Month 12
// rolls over into January of the following year.
func (w *walker) yearlyMonth(year int) time.Time {
	m := w.rule.Month.OrElse(0)
	return time.Date(year, time.Month(m+1), 1, 0, 0, 0, 0, time.UTC)
}

func (w *walker) occurrence(d time.Time) Occurrence {
	y, m, day := d.Date()
	var start time.Time
	if w.allDay {
		start = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	} else {
		// Wall clock, not elapsed time, so occurrences keep their hour
		// across DST changes.
		start = wallClock(y, m, day, w.clock, w.loc)
	}
	return Occurrence{
		Position: w.position,
		Start:    start,
		End:      start.Add(w.duration),
		Date:     d,
	}
}

// wallClock returns the instant showing clock on the given local date.
func wallClock(y int, m time.Month, d int, clock time.Duration, loc *time.Location) time.Time {
	h := int(clock / time.Hour)
	mi := int(clock % time.Hour / time.Minute)
	sec := int(clock % time.Minute / time.Second)
	ns := int(clock % time.Second)
	return time.Date(y, m, d, h, mi, sec, ns, loc)
}

// daysIn returns the length of the month starting at first.
func daysIn(first time.Time) int {
	return first.AddDate(0, 1, -1).Day()
}

// dayOfMonth returns the given day of the month starting at first; months
// that are too short have none.
func dayOfMonth(first time.Time, day int) (time.Time, bool) {
	if day < 1 || day > daysIn(first) {
		return time.Time{}, false
	}
	return first.AddDate(0, 0, day-1), true
}

// nthWeekday returns the n-th day flagged in mask within the month starting
// at first.
func nthWeekday(first time.Time, mask Weekdays, n int) (time.Time, bool) {
	if n < 1 {
		return time.Time{}, false
	}
	count := 0
	for i := 0; i < daysIn(first); i++ {
		d := first.AddDate(0, 0, i)
		if mask.Has(d.Weekday()) {
			count++
			if count == n {
				return d, true
			}
		}
	}
	return time.Time{}, false
}
