package recurrence

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheConfig holds configuration for the result cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"` // Maximum number of cached result sets
	TTL     time.Duration `yaml:"ttl"`  // How long entries stay valid
}

// DefaultCacheConfig provides sensible defaults for result caching
var DefaultCacheConfig = CacheConfig{
	Enabled: true,
	Size:    1000,
	TTL:     15 * time.Minute,
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = CacheConfig{}

// ResultCache keeps calculated result sets keyed by series and query.
type ResultCache struct {
	lru    *expirable.LRU[string, ResultSet]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewResultCache creates a cache with the given configuration
func NewResultCache(config CacheConfig) *ResultCache {
	size := config.Size
	if size <= 0 {
		size = DefaultCacheConfig.Size
	}
	return &ResultCache{lru: expirable.NewLRU[string, ResultSet](size, nil, config.TTL)}
}

// cacheKey hashes everything a calculation depends on.
func cacheKey(series Series, q Query) string {
	h := sha256.New()
	writeTime := func(t time.Time) {
		var b [12]byte
		binary.BigEndian.PutUint64(b[:8], uint64(t.Unix()))
		binary.BigEndian.PutUint32(b[8:], uint32(t.Nanosecond()))
		h.Write(b[:])
	}
	r := series.Rule
	fmt.Fprintf(h, "%d|%d|%d|%d|%d|%d|%d|", r.Type, r.Interval, r.Days, r.DayInMonth, r.Month.OrElse(-1), r.Occurrences, r.Until.Kind)
	writeTime(r.Until.At)
	writeTime(r.Start)
	writeTime(series.Start)
	writeTime(series.End)
	fmt.Fprintf(h, "%s|%t|", series.TimeZone, series.AllDay)
	for _, d := range series.Exceptions.Changed.dates {
		writeTime(d)
	}
	h.Write([]byte{'|'})
	for _, d := range series.Exceptions.Deleted.dates {
		writeTime(d)
	}
	h.Write([]byte{'|'})
	writeTime(q.RangeStart)
	writeTime(q.RangeEnd)
	fmt.Fprintf(h, "%d|%d|%t|%t", q.Position, q.MaxResults, q.IgnoreExceptions, q.CalculateUntil)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get returns a copy of a cached result set.
func (c *ResultCache) Get(series Series, q Query) (ResultSet, bool) {
	rs, ok := c.lru.Get(cacheKey(series, q))
	if !ok {
		c.misses.Add(1)
		return ResultSet{}, false
	}
	c.hits.Add(1)
	rs.Occurrences = slices.Clone(rs.Occurrences)
	return rs, true
}

// Set stores a copy of a result set.
func (c *ResultCache) Set(series Series, q Query, rs ResultSet) {
	rs.Occurrences = slices.Clone(rs.Occurrences)
	c.lru.Add(cacheKey(series, q), rs)
}

// Purge drops every entry.
func (c *ResultCache) Purge() { c.lru.Purge() }

// Stats returns cache statistics
func (c *ResultCache) Stats() CacheStats {
	return CacheStats{
		Entries: c.lru.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// CacheStats provides information about cache performance
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}
