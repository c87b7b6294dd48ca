package recurrence

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

// Field tags of the persisted recurrence string.
const (
	tagType        = "t"
	tagInterval    = "i"
	tagDays        = "a"
	tagDayInMonth  = "b"
	tagMonth       = "c"
	tagUntil       = "e"
	tagStart       = "s"
	tagOccurrences = "o"

	separator = "|"
)

// Persisted type codes. The by-weekday patterns share the code of their
// by-day counterpart and are told apart by the presence of a weekday mask.
const (
	codeNone    = 0
	codeDaily   = 1
	codeWeekly  = 2
	codeMonthly = 3
	codeYearly  = 4
	// Legacy strings carry separate codes for the by-weekday patterns.
	codeLegacyMonthly = 5
	codeLegacyYearly  = 6
)

var typeCodes = map[Type]int{
	None:             codeNone,
	Daily:            codeDaily,
	Weekly:           codeWeekly,
	MonthlyByDay:     codeMonthly,
	MonthlyByWeekday: codeMonthly,
	YearlyByDay:      codeYearly,
	YearlyByWeekday:  codeYearly,
}

// codeAliases maps legacy codes onto the current ones.
var codeAliases = map[int]int{
	codeLegacyMonthly: codeMonthly,
	codeLegacyYearly:  codeYearly,
}

// Encode validates r and renders it as a recurrence string. None renders as
// the empty string.
func Encode(r Rule) (string, error) {
	if r.Type == None {
		return "", nil
	}
	if err := Validate(r); err != nil {
		return "", err
	}
	return r.String(), nil
}

// String renders r without validation, writing only the fields its type uses.
func (r Rule) String() string {
	if r.Type == None {
		return ""
	}
	var b strings.Builder
	writeInt := func(tag string, v int) {
		if v < 0 {
			return
		}
		b.WriteString(tag)
		b.WriteString(separator)
		b.WriteString(strconv.Itoa(v))
		b.WriteString(separator)
	}
	writeLong := func(tag string, t time.Time) {
		b.WriteString(tag)
		b.WriteString(separator)
		b.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
		b.WriteString(separator)
	}

	writeInt(tagType, typeCodes[r.Type])
	writeInt(tagInterval, r.Interval)
	if r.Type.UsesWeekdays() {
		writeInt(tagDays, int(r.Days))
	}
	if r.Type.IsMonthly() || r.Type.IsYearly() {
		writeInt(tagDayInMonth, r.DayInMonth)
	}
	if r.Type.IsYearly() {
		if m, ok := r.Month.Get(); ok {
			writeInt(tagMonth, m)
		}
	}
	writeLong(tagStart, r.Start)
	if r.Until.IsExplicit() {
		writeLong(tagUntil, r.Until.At)
	} else if r.Occurrences > 0 {
		writeInt(tagOccurrences, r.Occurrences)
	}
	return b.String()
}

// ParseRule decodes a recurrence string as stored, without correcting values.
func ParseRule(s string) (Rule, error) {
	var r Rule
	s = strings.TrimSpace(s)
	if s == "" {
		return r, nil
	}

	tokens := strings.Split(strings.TrimSuffix(s, separator), separator)
	if len(tokens)%2 != 0 {
		return Rule{}, malformed("odd number of tokens in %q", s)
	}

	code := -1
	hasDays := false
	for i := 0; i < len(tokens); i += 2 {
		tag, value := tokens[i], tokens[i+1]
		switch tag {
		case tagUntil, tagStart:
			ms, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Rule{}, malformed("invalid value %q for %s", value, tag)
			}
			t := NormalizeDate(time.UnixMilli(ms))
			if tag == tagUntil {
				r.Until = Until{Kind: Explicit, At: t}
			} else {
				r.Start = t
			}
			continue
		case tagType, tagInterval, tagDays, tagDayInMonth, tagMonth, tagOccurrences:
		default:
			return Rule{}, malformed("unknown field %q", tag)
		}

		v, err := strconv.Atoi(value)
		if err != nil {
			return Rule{}, malformed("invalid value %q for %s", value, tag)
		}
		switch tag {
		case tagType:
			code = v
		case tagInterval:
			r.Interval = v
		case tagDays:
			r.Days = Weekdays(v)
			hasDays = true
		case tagDayInMonth:
			r.DayInMonth = v
		case tagMonth:
			r.Month = mo.Some(v)
		case tagOccurrences:
			r.Occurrences = v
		}
	}

	if alias, ok := codeAliases[code]; ok {
		code = alias
	}
	switch code {
	case codeNone:
		return Rule{}, nil
	case codeDaily:
		r.Type = Daily
	case codeWeekly:
		r.Type = Weekly
	case codeMonthly:
		r.Type = MonthlyByDay
		if hasDays {
			r.Type = MonthlyByWeekday
		}
	case codeYearly:
		r.Type = YearlyByDay
		if hasDays {
			r.Type = YearlyByWeekday
		}
	case -1:
		return Rule{}, malformed("missing type in %q", s)
	default:
		return Rule{}, malformed("unknown type code %d", code)
	}
	return r, nil
}

// Decode parses a recurrence string and corrects out-of-range values.
func (e *Engine) Decode(s string) (Rule, error) {
	r, err := ParseRule(s)
	if err != nil {
		return Rule{}, err
	}
	return e.AutoCorrect(r), nil
}
