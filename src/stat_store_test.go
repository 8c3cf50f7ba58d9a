package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmptyStoreDefaults(t *testing.T) {
	store := NewStatStore()

	top, n := store.MostPopularRequest()
	assert.Equal(t, "none", top)
	assert.Equal(t, 0, n)

	assert.Equal(t, 0.0, store.AverageWords())

	working, total := store.AverageTimes()
	assert.Equal(t, 0.0, working)
	assert.Equal(t, 0.0, total)

	maxWorking, maxTotal := store.MaxTimes()
	assert.Equal(t, 0.0, maxWorking)
	assert.Equal(t, 0.0, maxTotal)

	assert.Equal(t, 0.0, store.RequestsPerSecond())
}

func TestOnStartIdempotent(t *testing.T) {
	store := NewStatStore()
	store.RegisterConn("1a2b", "10.0.0.1")

	store.OnStart(7, "1a2b", "hello world")
	store.OnStart(7, "1a2b", "hello world")

	assert.Equal(t, 1, store.StartedCount())
	_, n := store.MostPopularRequest()
	assert.Equal(t, 1, n)
	assert.Equal(t, 2.0, store.AverageWords())
}

func TestOnEndIdempotent(t *testing.T) {
	store := NewStatStore()
	ts := time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC)

	store.OnEnd(7, 30.0, 20.0, ts)
	store.OnEnd(7, 30.0, 20.0, ts.Add(time.Hour)) // duplicate, must be ignored entirely

	assert.Equal(t, 1, store.FinishedCount())
	working, total := store.AverageTimes()
	assert.Equal(t, 20.0, working)
	assert.Equal(t, 30.0, total)

	// single captured timestamp, fallback path returns the finished count
	assert.Equal(t, 1.0, store.RequestsPerSecond())
}

func TestOnStartEmptyAndBlankText(t *testing.T) {
	store := NewStatStore()

	store.OnStart(1, "x", "")
	store.OnStart(2, "x", "   \t ")

	// starts count toward the denominator, blank text stays out of the tables
	assert.Equal(t, 2, store.StartedCount())
	top, n := store.MostPopularRequest()
	assert.Equal(t, "none", top)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0.0, store.AverageWords())
}

func TestMaxTimes(t *testing.T) {
	store := NewStatStore()

	for i, totalMs := range []float64{10.0, 30.0, 20.0} {
		store.OnEnd(i, totalMs, totalMs/2, time.Time{})
	}

	working, total := store.MaxTimes()
	assert.Equal(t, 30.0, total)
	assert.Equal(t, 15.0, working)
}

func TestRequestsPerSecondSpan(t *testing.T) {
	store := NewStatStore()
	first := time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC)
	last := first.Add(10 * time.Second)

	store.OnEnd(1, 1, 1, first)
	store.OnEnd(2, 1, 1, last)
	store.OnEnd(3, 1, 1, first.Add(2*time.Second))
	store.OnEnd(4, 1, 1, first.Add(5*time.Second))
	store.OnEnd(5, 1, 1, first.Add(7*time.Second))

	// 5 finished over a 10 second span
	assert.InDelta(t, 0.5, store.RequestsPerSecond(), 1e-9)
}

func TestRequestsPerSecondNoTimestamps(t *testing.T) {
	store := NewStatStore()
	store.OnEnd(1, 10, 5, time.Time{})
	store.OnEnd(2, 10, 5, time.Time{})

	// durations counted, throughput undefined without timestamps
	assert.Equal(t, 2, store.FinishedCount())
	assert.Equal(t, 0.0, store.RequestsPerSecond())
}

func TestRequestsPerSecondSharedTimestamp(t *testing.T) {
	store := NewStatStore()
	ts := time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC)

	store.OnEnd(1, 1, 1, ts)
	store.OnEnd(2, 1, 1, ts)
	store.OnEnd(3, 1, 1, ts)

	// zero span falls back to the finished count
	assert.Equal(t, 3.0, store.RequestsPerSecond())
}

func TestMostPopularRequestTieBreak(t *testing.T) {
	store := NewStatStore()

	store.OnStart(1, "x", "beta")
	store.OnStart(2, "x", "alpha")

	// equal counts resolve to the lexicographically smallest text
	top, n := store.MostPopularRequest()
	assert.Equal(t, "alpha", top)
	assert.Equal(t, 1, n)
}

func TestRegisterConnLastWriteWins(t *testing.T) {
	store := NewStatStore()

	store.RegisterConn("1a2b", "10.0.0.1")
	store.RegisterConn("1a2b", "10.0.0.2")

	addr, ok := store.AddrForConn("1a2b")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.2", addr)

	// both addresses were seen and stay in the valid set
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, store.ValidAddrs())
}

func TestDerivedMetricsArePure(t *testing.T) {
	store := NewStatStore()
	store.RegisterConn("1a2b", "10.0.0.1")
	store.OnStart(1, "1a2b", "one two three")
	store.OnEnd(1, 30, 20, time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC))

	first := BuildReport(store)
	second := BuildReport(store)
	assert.Equal(t, first, second)
}
