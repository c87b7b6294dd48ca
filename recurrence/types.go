package recurrence

import (
	"time"

	"github.com/samber/mo"
)

// Type is the recurrence pattern of a series.
type Type int

const (
	None Type = iota
	Daily
	Weekly
	MonthlyByDay
	MonthlyByWeekday
	YearlyByDay
	YearlyByWeekday
)

var typeNames = map[Type]string{
	None:             "none",
	Daily:            "daily",
	Weekly:           "weekly",
	MonthlyByDay:     "monthly-by-day",
	MonthlyByWeekday: "monthly-by-weekday",
	YearlyByDay:      "yearly-by-day",
	YearlyByWeekday:  "yearly-by-weekday",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// IsMonthly reports whether the pattern steps by months.
func (t Type) IsMonthly() bool { return t == MonthlyByDay || t == MonthlyByWeekday }

// IsYearly reports whether the pattern steps by years.
func (t Type) IsYearly() bool { return t == YearlyByDay || t == YearlyByWeekday }

// UsesWeekdays reports whether the pattern needs a weekday mask.
func (t Type) UsesWeekdays() bool {
	return t == Weekly || t == MonthlyByWeekday || t == YearlyByWeekday
}

// Weekdays is a bit mask of days, Sunday being the lowest bit.
type Weekdays int

const (
	Sunday Weekdays = 1 << iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday

	AnyDay     = Sunday | Monday | Tuesday | Wednesday | Thursday | Friday | Saturday
	WorkDay    = Monday | Tuesday | Wednesday | Thursday | Friday
	WeekendDay = Saturday | Sunday
)

// WeekdayOf returns the mask bit of a single day.
func WeekdayOf(d time.Weekday) Weekdays { return Weekdays(1 << uint(d)) }

// Has reports whether d is flagged in the mask.
func (w Weekdays) Has(d time.Weekday) bool { return w&WeekdayOf(d) != 0 }

// Valid reports whether the mask flags at least one day and nothing else.
func (w Weekdays) Valid() bool { return w > 0 && w <= AnyDay }

// List returns the flagged days starting at first.
func (w Weekdays) List(first time.Weekday) []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for i := 0; i < 7; i++ {
		d := (first + time.Weekday(i)) % 7
		if w.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// UntilKind tells how a series terminates by date.
type UntilKind int

const (
	// Unbounded means no end date is known.
	Unbounded UntilKind = iota
	// Explicit means the end date was set on the rule.
	Explicit
	// Implied means the end date was derived from an occurrence count.
	Implied
)

// Until is the date-based termination of a series.
type Until struct {
	Kind UntilKind
	At   time.Time
}

// NoUntil returns an unbounded Until.
func NoUntil() Until { return Until{} }

// ExplicitUntil returns an Until set by the user, truncated to its day.
func ExplicitUntil(t time.Time) Until { return Until{Kind: Explicit, At: NormalizeDate(t)} }

// ImpliedUntil returns an Until derived from the last calculated occurrence.
func ImpliedUntil(t time.Time) Until { return Until{Kind: Implied, At: NormalizeDate(t)} }

// Instant returns the end date, if any.
func (u Until) Instant() mo.Option[time.Time] {
	if u.Kind == Unbounded {
		return mo.None[time.Time]()
	}
	return mo.Some(u.At)
}

// IsExplicit reports whether the date was set on the rule.
func (u Until) IsExplicit() bool { return u.Kind == Explicit }

// Equal reports whether both have the same kind and, unless unbounded, the
// same date. An implied date never equals an explicit one.
func (u Until) Equal(o Until) bool {
	if u.Kind != o.Kind {
		return false
	}
	return u.Kind == Unbounded || u.At.Equal(o.At)
}

// Rule describes how a series repeats. It is a value; every transformation
// returns a copy.
type Rule struct {
	Type     Type
	Interval int
	Days     Weekdays
	// DayInMonth is the day of month, or the ordinal (1..5) of the flagged
	// weekday for the by-weekday patterns.
	DayInMonth int
	// Month is zero based (January is 0).
	Month       mo.Option[int]
	Occurrences int
	Until       Until
	// Start is the day-truncated UTC anchor of the series.
	Start time.Time
}

// IsRecurring reports whether the rule repeats at all.
func (r Rule) IsRecurring() bool { return r.Type != None }

// HasEnd reports whether the rule terminates by count or date.
func (r Rule) HasEnd() bool { return r.Occurrences > 0 || r.Until.Kind != Unbounded }

// WithUntil returns a copy ending at the given Until.
func (r Rule) WithUntil(u Until) Rule {
	r.Until = u
	return r
}

// WithOccurrences returns a copy ending after n occurrences.
func (r Rule) WithOccurrences(n int) Rule {
	r.Occurrences = n
	return r
}

// WithStart returns a copy anchored at the day of t.
func (r Rule) WithStart(t time.Time) Rule {
	r.Start = NormalizeDate(t)
	return r
}

// Series is a rule together with the instance it expands.
type Series struct {
	Rule Rule
	// Start and End bound the first instance; their difference is the
	// duration of every occurrence and Start supplies the time of day.
	Start      time.Time
	End        time.Time
	TimeZone   string
	AllDay     bool
	Exceptions Exceptions
}

// Duration returns the length of every occurrence.
func (s Series) Duration() time.Duration {
	if s.End.Before(s.Start) {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Occurrence is one generated instance of a series.
type Occurrence struct {
	// Position is 1-based and counts every occurrence of the series,
	// including those replaced by change or delete exceptions.
	Position int
	Start    time.Time
	End      time.Time
	// Date is the day-normalized start, used as exception key.
	Date time.Time
}

// ResultSet is an ordered list of occurrences.
type ResultSet struct {
	Occurrences []Occurrence
	// Truncated is set when the operation budget ran out before the
	// calculation finished; callers should check the size they got.
	Truncated bool
}

// Len returns the number of occurrences.
func (rs ResultSet) Len() int { return len(rs.Occurrences) }

// First returns the first occurrence, if any.
func (rs ResultSet) First() mo.Option[Occurrence] {
	if len(rs.Occurrences) == 0 {
		return mo.None[Occurrence]()
	}
	return mo.Some(rs.Occurrences[0])
}

// Last returns the last occurrence, if any.
func (rs ResultSet) Last() mo.Option[Occurrence] {
	if len(rs.Occurrences) == 0 {
		return mo.None[Occurrence]()
	}
	return mo.Some(rs.Occurrences[len(rs.Occurrences)-1])
}

// Query controls a calculation.
type Query struct {
	// RangeStart and RangeEnd limit results to occurrences overlapping the
	// range. Both zero disables filtering; a zero bound is open.
	RangeStart time.Time
	RangeEnd   time.Time
	// Position selects a single occurrence when positive.
	Position int
	// MaxResults caps the result; zero means Config.MaxOccurrences.
	MaxResults       int
	IgnoreExceptions bool
	// CalculateUntil expands the whole series regardless of range, result
	// cap and exceptions, to determine where it ends.
	CalculateUntil bool
}

// MonthOf returns the zero-based month value of m.
func MonthOf(m time.Month) mo.Option[int] { return mo.Some(int(m) - 1) }

// NormalizeDate truncates t to midnight UTC of its UTC date.
func NormalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
