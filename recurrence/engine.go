package recurrence

import (
	"sync"
	"time"
)

// Engine expands, validates and compares recurrence rules. It holds no
// mutable state besides its optional result cache and is safe for
// concurrent use.
type Engine struct {
	config Config
	cache  *ResultCache
	zones  sync.Map // string -> *time.Location
}

// NewEngine creates a new recurrence engine instance
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultConfig)
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config Config) *Engine {
	config = config.withDefaults()

	var cache *ResultCache
	if config.Cache.Enabled {
		cache = NewResultCache(config.Cache)
	}

	return &Engine{
		config: config,
		cache:  cache,
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Cache returns the result cache, or nil when caching is disabled.
func (e *Engine) Cache() *ResultCache { return e.cache }

// Location resolves the zone occurrences of series are calculated in.
// All-day series use UTC. A timed series without zone falls back to UTC
// with a warning.
func (e *Engine) Location(series Series) (*time.Location, error) {
	if series.AllDay {
		return time.UTC, nil
	}
	if series.TimeZone == "" {
		e.config.Logger.Warn("recurring series without timezone, calculating in UTC")
		return time.UTC, nil
	}
	if loc, ok := e.zones.Load(series.TimeZone); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(series.TimeZone)
	if err != nil {
		return nil, &Error{Type: ErrTypeInvalidTimeZone, Field: FieldTimeZone, Message: series.TimeZone, Err: err}
	}
	e.zones.Store(series.TimeZone, loc)
	return loc, nil
}

// RecurringStart returns the day the series is anchored at: the local date
// of its first instance, or the rule's start if the instance has none.
func (e *Engine) RecurringStart(series Series) (time.Time, error) {
	if series.Start.IsZero() {
		return series.Rule.Start, nil
	}
	loc, err := e.Location(series)
	if err != nil {
		return time.Time{}, err
	}
	return localDate(series.Start, loc), nil
}

// localDate returns the calendar date of t in loc as midnight UTC.
func localDate(t time.Time, loc *time.Location) time.Time {
	if !ExceedsHourOfDay(t, loc) {
		return NormalizeDate(t)
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ExceedsHourOfDay reports whether shifting the UTC instant t into loc moves
// its hour outside [0, 24), that is, whether its local date differs from its
// UTC date.
func ExceedsHourOfDay(t time.Time, loc *time.Location) bool {
	if loc == nil {
		return false
	}
	u := t.UTC()
	_, offset := t.In(loc).Zone()
	secs := u.Hour()*3600 + u.Minute()*60 + u.Second() + offset
	return secs < 0 || secs >= 24*3600
}
