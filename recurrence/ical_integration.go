package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

// rruleDays maps time.Weekday onto rrule-go weekdays.
var rruleDays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

func toRRuleDays(mask Weekdays, first time.Weekday) []rrule.Weekday {
	var out []rrule.Weekday
	for _, d := range mask.List(first) {
		out = append(out, rruleDays[d])
	}
	return out
}

// ROption converts the rule of series into rrule-go options anchored at the
// first instance.
func (e *Engine) ROption(series Series) (*rrule.ROption, error) {
	r := series.Rule
	if err := Validate(r); err != nil {
		return nil, err
	}
	loc, err := e.Location(series)
	if err != nil {
		return nil, err
	}
	anchor, err := e.RecurringStart(series)
	if err != nil {
		return nil, err
	}

	dtstart := series.Start.In(loc)
	if series.Start.IsZero() || series.AllDay {
		y, m, d := anchor.Date()
		dtstart = time.Date(y, m, d, 0, 0, 0, 0, loc)
	}

	opt := &rrule.ROption{
		Dtstart:  dtstart,
		Interval: r.Interval,
		Count:    r.Occurrences,
		Wkst:     rruleDays[e.config.FirstDayOfWeek],
	}
	if at, ok := r.Until.Instant().Get(); ok {
		y, m, d := at.Date()
		opt.Until = time.Date(y, m, d, 23, 59, 59, 0, loc)
	}

	switch r.Type {
	case Daily:
		opt.Freq = rrule.DAILY
	case Weekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = toRRuleDays(r.Days, e.config.FirstDayOfWeek)
	case MonthlyByDay:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{r.DayInMonth}
	case MonthlyByWeekday:
		opt.Freq = rrule.MONTHLY
		opt.Byweekday = toRRuleDays(r.Days, e.config.FirstDayOfWeek)
		opt.Bysetpos = []int{r.DayInMonth}
	case YearlyByDay:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{r.Month.OrElse(0) + 1}
		opt.Bymonthday = []int{r.DayInMonth}
	case YearlyByWeekday:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{r.Month.OrElse(0) + 1}
		opt.Byweekday = toRRuleDays(r.Days, e.config.FirstDayOfWeek)
		opt.Bysetpos = []int{r.DayInMonth}
	default:
		return nil, &Error{Type: ErrTypeUnsupportedPattern, Message: "rule does not repeat"}
	}
	return opt, nil
}

// RuleFromROption converts rrule-go options into a rule. Only patterns this
// package can express are accepted.
func RuleFromROption(opt rrule.ROption) (Rule, error) {
	r := Rule{
		Interval:    opt.Interval,
		Occurrences: opt.Count,
	}
	if r.Interval == 0 {
		r.Interval = 1
	}
	if !opt.Dtstart.IsZero() {
		y, m, d := opt.Dtstart.Date()
		r.Start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	if !opt.Until.IsZero() {
		y, m, d := opt.Until.Date()
		r.Until = Until{Kind: Explicit, At: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
	}

	var mask Weekdays
	nth := 0
	for _, wd := range opt.Byweekday {
		// rrule-go numbers days from Monday.
		mask |= WeekdayOf(time.Weekday((wd.Day() + 1) % 7))
		if n := wd.N(); n != 0 {
			nth = n
		}
	}
	if len(opt.Bysetpos) == 1 {
		nth = opt.Bysetpos[0]
	}

	unsupported := func() (Rule, error) {
		return Rule{}, &Error{Type: ErrTypeUnsupportedPattern, Message: fmt.Sprintf("cannot express %s", opt.RRuleString())}
	}
	if nth < 0 || len(opt.Bymonthday) > 1 || len(opt.Bymonth) > 1 || len(opt.Bysetpos) > 1 ||
		len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 || len(opt.Byhour) > 0 {
		return unsupported()
	}

	switch opt.Freq {
	case rrule.DAILY:
		if mask != 0 || len(opt.Bymonthday) > 0 {
			return unsupported()
		}
		r.Type = Daily
	case rrule.WEEKLY:
		r.Type = Weekly
		r.Days = mask
		if mask == 0 && !opt.Dtstart.IsZero() {
			r.Days = WeekdayOf(opt.Dtstart.Weekday())
		}
	case rrule.MONTHLY, rrule.YEARLY:
		switch {
		case mask != 0 && nth > 0:
			r.Days = mask
			r.DayInMonth = nth
		case mask == 0 && len(opt.Bymonthday) == 1 && opt.Bymonthday[0] > 0:
			r.DayInMonth = opt.Bymonthday[0]
		case mask == 0 && len(opt.Bymonthday) == 0 && !opt.Dtstart.IsZero():
			r.DayInMonth = opt.Dtstart.Day()
		default:
			return unsupported()
		}
		if opt.Freq == rrule.MONTHLY {
			if len(opt.Bymonth) > 0 {
				return unsupported()
			}
			r.Type = MonthlyByDay
			if r.Days != 0 {
				r.Type = MonthlyByWeekday
			}
			break
		}
		switch {
		case len(opt.Bymonth) == 1:
			r.Month = mo.Some(opt.Bymonth[0] - 1)
		case !opt.Dtstart.IsZero():
			r.Month = MonthOf(opt.Dtstart.Month())
		default:
			return unsupported()
		}
		r.Type = YearlyByDay
		if r.Days != 0 {
			r.Type = YearlyByWeekday
		}
	default:
		return unsupported()
	}
	return r, nil
}

// SeriesFromComponent extracts a series from a VEVENT or VTODO, reading
// DTSTART/DTEND (or DURATION), RRULE and EXDATE.
func SeriesFromComponent(comp *ical.Component) (Series, error) {
	var s Series

	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return s, fmt.Errorf("component %s has no %s", comp.Name, ical.PropDateTimeStart)
	}
	s.AllDay = startProp.ValueType() == ical.ValueDate
	if !s.AllDay {
		s.TimeZone = startProp.Params.Get(ical.ParamTimezoneID)
		if s.TimeZone == "" && strings.HasSuffix(startProp.Value, "Z") {
			s.TimeZone = "UTC"
		}
	}

	loc := time.UTC
	if s.TimeZone != "" {
		l, err := time.LoadLocation(s.TimeZone)
		if err != nil {
			return s, &Error{Type: ErrTypeInvalidTimeZone, Field: FieldTimeZone, Message: s.TimeZone, Err: err}
		}
		loc = l
	}

	start, err := comp.Props.DateTime(ical.PropDateTimeStart, loc)
	if err != nil {
		return s, fmt.Errorf("failed to parse %s: %w", ical.PropDateTimeStart, err)
	}
	s.Start = start
	switch {
	case comp.Props.Get(ical.PropDateTimeEnd) != nil:
		if s.End, err = comp.Props.DateTime(ical.PropDateTimeEnd, loc); err != nil {
			return s, fmt.Errorf("failed to parse %s: %w", ical.PropDateTimeEnd, err)
		}
		// Some clients send all-day events with DTEND equal to DTSTART.
		if s.AllDay && !s.End.After(s.Start) {
			s.End = s.Start.AddDate(0, 0, 1)
		}
	case comp.Props.Get(ical.PropDuration) != nil:
		d, err := comp.Props.Get(ical.PropDuration).Duration()
		if err != nil {
			return s, fmt.Errorf("failed to parse %s: %w", ical.PropDuration, err)
		}
		s.End = s.Start.Add(d)
	case s.AllDay:
		s.End = s.Start.AddDate(0, 0, 1)
	default:
		s.End = s.Start
	}

	if prop := comp.Props.Get(ical.PropRecurrenceRule); prop != nil && prop.Value != "" {
		opt, err := rrule.StrToROption(prop.Value)
		if err != nil {
			return s, &Error{Type: ErrTypeMalformed, Message: prop.Value, Err: err}
		}
		opt.Dtstart = s.Start
		if s.Rule, err = RuleFromROption(*opt); err != nil {
			return s, err
		}
	}

	var deleted []time.Time
	for _, prop := range comp.Props.Values(ical.PropExceptionDates) {
		deleted = append(deleted, parseExceptionDates(prop.Value, prop.Params, loc)...)
	}
	s.Exceptions = NewExceptions(nil, deleted)
	return s, nil
}

// ApplyToComponent writes DTSTART, DTEND, RRULE and EXDATE of series onto comp.
// Change exceptions live in their own components and are not written.
func (e *Engine) ApplyToComponent(comp *ical.Component, series Series) error {
	loc, err := e.Location(series)
	if err != nil {
		return err
	}
	comp.Props.Set(dateProp(ical.PropDateTimeStart, series.Start, series.AllDay, loc))
	comp.Props.Set(dateProp(ical.PropDateTimeEnd, series.End, series.AllDay, loc))

	comp.Props.Del(ical.PropRecurrenceRule)
	comp.Props.Del(ical.PropExceptionDates)
	if !series.Rule.IsRecurring() {
		return nil
	}

	opt, err := e.ROption(series)
	if err != nil {
		return err
	}
	rprop := ical.NewProp(ical.PropRecurrenceRule)
	rprop.SetValueType(ical.ValueRecurrence)
	rprop.Value = opt.RRuleString()
	comp.Props.Set(rprop)

	if series.Exceptions.Deleted.Len() > 0 {
		values := make([]string, 0, series.Exceptions.Deleted.Len())
		for _, d := range series.Exceptions.Deleted.dates {
			values = append(values, d.Format(icalDateFormat))
		}
		xprop := ical.NewProp(ical.PropExceptionDates)
		xprop.SetValueType(ical.ValueDate)
		xprop.Value = strings.Join(values, ",")
		comp.Props.Set(xprop)
	}
	return nil
}

const (
	icalDateFormat     = "20060102"
	icalDateTimeFormat = "20060102T150405"
)

func dateProp(name string, t time.Time, allDay bool, loc *time.Location) *ical.Prop {
	prop := ical.NewProp(name)
	switch {
	case allDay:
		prop.SetValueType(ical.ValueDate)
		prop.Value = t.UTC().Format(icalDateFormat)
	case loc == time.UTC:
		prop.Value = t.UTC().Format(icalDateTimeFormat) + "Z"
	default:
		prop.Params.Set(ical.ParamTimezoneID, loc.String())
		prop.Value = t.In(loc).Format(icalDateTimeFormat)
	}
	return prop
}

// parseExceptionDates parses an EXDATE value into day-normalized dates.
func parseExceptionDates(value string, params ical.Params, loc *time.Location) []time.Time {
	if value == "" {
		return nil
	}

	isDateOnly := strings.EqualFold(params.Get(ical.ParamValue), string(ical.ValueDate))
	if tzid := params.Get(ical.ParamTimezoneID); tzid != "" {
		if l, err := time.LoadLocation(tzid); err == nil {
			loc = l
		}
	}

	var exdates []time.Time
	for _, exdateStr := range strings.Split(value, ",") {
		exdateStr = strings.TrimSpace(exdateStr)
		if exdateStr == "" {
			continue
		}

		var exdate time.Time
		var err error
		switch {
		case isDateOnly || len(exdateStr) == len(icalDateFormat):
			exdate, err = time.Parse(icalDateFormat, exdateStr)
		case strings.HasSuffix(exdateStr, "Z"):
			exdate, err = time.Parse(icalDateTimeFormat+"Z", exdateStr)
			if err == nil {
				exdate = localDate(exdate, loc)
			}
		default:
			exdate, err = time.ParseInLocation(icalDateTimeFormat, exdateStr, loc)
			if err == nil {
				exdate = localDate(exdate, loc)
			}
		}

		if err == nil {
			exdates = append(exdates, NormalizeDate(exdate))
		}
	}

	return exdates
}
