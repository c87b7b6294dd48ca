package recurrence

import "time"

// Validate checks that r carries every field its type needs and that the
// values are in range. It corrects nothing.
func Validate(r Rule) error {
	if r.Type == None {
		return nil
	}
	if _, ok := typeCodes[r.Type]; !ok {
		return incomplete(FieldType, "unknown type %d", r.Type)
	}
	if r.Interval < 1 {
		return incomplete(FieldInterval, "missing interval")
	}

	switch r.Type {
	case Weekly:
		if r.Days == 0 {
			return incomplete(FieldDays, "missing weekdays")
		}
	case MonthlyByDay, MonthlyByWeekday:
		if err := validateDayInMonth(r, 31); err != nil {
			return err
		}
	case YearlyByDay, YearlyByWeekday:
		// Yearly day-in-month accepts 32.
		if err := validateDayInMonth(r, 32); err != nil {
			return err
		}
		m, ok := r.Month.Get()
		if !ok {
			return incomplete(FieldMonth, "missing month")
		}
		if m < 0 || m > 12 {
			return incomplete(FieldMonth, "month %d out of range", m)
		}
	}
	return nil
}

func validateDayInMonth(r Rule, max int) error {
	if r.Type == MonthlyByWeekday || r.Type == YearlyByWeekday {
		if r.Days == 0 {
			return incomplete(FieldDays, "missing weekdays")
		}
		max = 5
	}
	if r.DayInMonth == 0 {
		return incomplete(FieldDayInMonth, "missing day in month")
	}
	if r.DayInMonth < 1 || r.DayInMonth > max {
		return incomplete(FieldDayInMonth, "day in month %d out of range 1..%d", r.DayInMonth, max)
	}
	return nil
}

// AutoCorrect returns r with overflowing values clamped and unusable values
// replaced by defaults. It logs every correction and never fails.
func (e *Engine) AutoCorrect(r Rule) Rule {
	if r.Type == None {
		return r
	}
	log := e.config.Logger

	if r.Interval > e.config.MaxInterval {
		log.Warn("recurrence interval exceeds maximum, clamping",
			"error", ErrTypeValueConstraint, "field", FieldInterval, "value", r.Interval, "max", e.config.MaxInterval)
		r.Interval = e.config.MaxInterval
	} else if r.Interval < 1 {
		log.Warn("recurrence interval below 1, using 1", "field", FieldInterval, "value", r.Interval)
		r.Interval = 1
	}

	if r.Occurrences > e.config.MaxOccurrences {
		log.Warn("recurrence occurrences exceed maximum, clamping",
			"error", ErrTypeValueConstraint, "field", "occurrences", "value", r.Occurrences, "max", e.config.MaxOccurrences)
		r.Occurrences = e.config.MaxOccurrences
	} else if r.Occurrences < 0 {
		r.Occurrences = 0
	}

	if r.Type.UsesWeekdays() && !r.Days.Valid() {
		log.Warn("invalid recurrence weekdays, using monday", "field", FieldDays, "value", int(r.Days))
		r.Days = Monday
	}

	if r.Type.IsYearly() {
		if m, ok := r.Month.Get(); !ok || m < int(time.January-1) || m > int(time.December-1) {
			log.Warn("invalid recurrence month, using january", "field", FieldMonth, "value", r.Month.OrElse(-1))
			r.Month = MonthOf(time.January)
		}
	}

	if r.Until.IsExplicit() && r.Occurrences > 0 {
		log.Warn("recurrence has both until and occurrences, keeping until", "occurrences", r.Occurrences)
		r.Occurrences = 0
	}
	return r
}
