package recurrence

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache_Hits(t *testing.T) {
	engine := NewEngineWithConfig(CachedConfig)
	require.NotNil(t, engine.Cache())

	series := utcSeries(Rule{Type: Daily, Interval: 1, Occurrences: 5}, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), time.Hour)

	first, err := engine.Calculate(series, Query{})
	require.NoError(t, err)
	assert.Equal(t, CacheStats{Entries: 1, Hits: 0, Misses: 1}, engine.Cache().Stats())

	// Callers may modify what they get back
	first.Occurrences[0].Position = 99

	second, err := engine.Calculate(series, Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Occurrences[0].Position)
	assert.Equal(t, CacheStats{Entries: 1, Hits: 1, Misses: 1}, engine.Cache().Stats())

	// A different query is a different entry
	_, err = engine.Calculate(series, Query{MaxResults: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, engine.Cache().Stats().Entries)

	// So is a different exception set
	series.Exceptions = NewExceptions(nil, []time.Time{day(2024, 1, 2)})
	rs, err := engine.Calculate(series, Query{})
	require.NoError(t, err)
	assert.Equal(t, 4, rs.Len())

	engine.Cache().Purge()
	assert.Zero(t, engine.Cache().Stats().Entries)
}

func TestResultCache_Disabled(t *testing.T) {
	assert.Nil(t, NewEngine().Cache())
}

func TestResultCache_TTLExpiration(t *testing.T) {
	cache := NewResultCache(CacheConfig{Enabled: true, Size: 10, TTL: 50 * time.Millisecond})
	series := utcSeries(Rule{Type: Daily, Interval: 1}, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), time.Hour)

	cache.Set(series, Query{}, ResultSet{Occurrences: []Occurrence{{Position: 1}}})
	_, ok := cache.Get(series, Query{})
	require.True(t, ok)

	time.Sleep(120 * time.Millisecond)
	_, ok = cache.Get(series, Query{})
	assert.False(t, ok)
}

func TestResultCache_ConcurrentCalculate(t *testing.T) {
	engine := NewEngineWithConfig(CachedConfig)
	series := utcSeries(Rule{Type: Weekly, Interval: 1, Days: WorkDay}, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			rs, err := engine.Calculate(series, Query{MaxResults: 10 + n%2})
			assert.NoError(t, err)
			assert.Equal(t, 10+n%2, rs.Len())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, engine.Cache().Stats().Entries)
}
