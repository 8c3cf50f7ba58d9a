package main

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// StatStore accumulates all statistics extracted from one parse pass.
// The parse itself is single-threaded; the lock only matters when the
// optional HTTP server reads the finished store.
type StatStore struct {
	mu sync.RWMutex

	connections map[string]string // conn hex id -> resolved address (valid or raw)
	queryToAddr map[int]string    // query id -> address of the owning connection

	validAddrs   map[string]struct{} // distinct valid addresses, port stripped
	invalidAddrs map[string]struct{} // distinct raw tokens that failed validation

	requestFreq map[string]int // trimmed request text -> occurrences
	totalWords  int

	startedIDs  map[int]struct{} // query ids with a seen start line
	finishedIDs map[int]struct{} // query ids with a seen end line

	totalWorkingMs float64
	totalTotalMs   float64
	maxWorkingMs   float64
	maxTotalMs     float64

	firstEndTime time.Time
	lastEndTime  time.Time
}

// NewStatStore creates an empty store
func NewStatStore() *StatStore {
	return &StatStore{
		connections:  make(map[string]string),
		queryToAddr:  make(map[int]string),
		validAddrs:   make(map[string]struct{}),
		invalidAddrs: make(map[string]struct{}),
		requestFreq:  make(map[string]int),
		startedIDs:   make(map[int]struct{}),
		finishedIDs:  make(map[int]struct{}),
	}
}

// RegisterConn records a connection-open event. A valid address is stored
// bare and joins the valid set; anything else is stored as-is so later
// query-start lookups still resolve to some string, and the full raw token
// joins the invalid set. Re-registration overwrites, last write wins.
func (s *StatStore) RegisterConn(connID, rawToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if addr, ok := ExtractAddr(rawToken); ok {
		s.validAddrs[addr] = struct{}{}
		s.connections[connID] = addr
	} else {
		s.invalidAddrs[rawToken] = struct{}{}
		s.connections[connID] = rawToken
	}
}

// OnStart records a query-start event. Repeated starts for the same query id
// are ignored so frequency and word counts are incremented at most once.
func (s *StatStore) OnStart(queryID int, connID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.startedIDs[queryID]; seen {
		return
	}
	s.startedIDs[queryID] = struct{}{}

	if addr, ok := s.connections[connID]; ok {
		s.queryToAddr[queryID] = addr
	}

	text = strings.TrimSpace(text)
	if text != "" {
		s.requestFreq[text]++
		s.totalWords += countWords(text)
	}
}

// OnEnd records a query-end event. Repeated ends for the same query id are
// ignored so sums, maxima and timestamp bounds are updated at most once.
// A zero endTime means no internal timestamp was found on the line; the
// durations still count, the timestamp bounds are left alone.
func (s *StatStore) OnEnd(queryID int, totalMs, workingMs float64, endTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.finishedIDs[queryID]; seen {
		return
	}
	s.finishedIDs[queryID] = struct{}{}

	s.totalTotalMs += totalMs
	s.totalWorkingMs += workingMs

	if totalMs > s.maxTotalMs {
		s.maxTotalMs = totalMs
	}
	if workingMs > s.maxWorkingMs {
		s.maxWorkingMs = workingMs
	}

	if !endTime.IsZero() {
		if s.firstEndTime.IsZero() || endTime.Before(s.firstEndTime) {
			s.firstEndTime = endTime
		}
		if s.lastEndTime.IsZero() || endTime.After(s.lastEndTime) {
			s.lastEndTime = endTime
		}
	}
}

// AddrForConn returns the resolved address stored for a connection id
func (s *StatStore) AddrForConn(connID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addr, ok := s.connections[connID]
	return addr, ok
}

// AddrForQuery returns the address linked to a query at start time, if the
// owning connection was registered before the start line was seen
func (s *StatStore) AddrForQuery(queryID int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addr, ok := s.queryToAddr[queryID]
	return addr, ok
}

// ValidAddrs returns the distinct valid addresses, sorted
func (s *StatStore) ValidAddrs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedKeys(s.validAddrs)
}

// InvalidAddrs returns the distinct invalid raw tokens, sorted
func (s *StatStore) InvalidAddrs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedKeys(s.invalidAddrs)
}

// RequestFreq returns a copy of the request frequency table
func (s *StatStore) RequestFreq() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	freq := make(map[string]int, len(s.requestFreq))
	for text, n := range s.requestFreq {
		freq[text] = n
	}
	return freq
}

// StartedCount returns the number of distinct started query ids
func (s *StatStore) StartedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.startedIDs)
}

// FinishedCount returns the number of distinct finished query ids
func (s *StatStore) FinishedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.finishedIDs)
}

// MostPopularRequest returns the request text with the highest frequency and
// that frequency. Ties go to the lexicographically smallest text so the
// result does not depend on map iteration order. Returns ("none", 0) when no
// requests were recorded.
func (s *StatStore) MostPopularRequest() (string, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, bestN := "none", 0
	for text, n := range s.requestFreq {
		if n > bestN || (n == bestN && bestN > 0 && text < best) {
			best, bestN = text, n
		}
	}
	return best, bestN
}

// AverageWords returns the mean whitespace-delimited word count across
// distinct started queries with non-empty text, or 0 if none started.
func (s *StatStore) AverageWords() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.startedIDs) == 0 {
		return 0
	}
	return float64(s.totalWords) / float64(len(s.startedIDs))
}

// AverageTimes returns the mean working and total handling time in ms across
// distinct finished queries, or (0, 0) if none finished.
func (s *StatStore) AverageTimes() (workingMs, totalMs float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.finishedIDs)
	if n == 0 {
		return 0, 0
	}
	return s.totalWorkingMs / float64(n), s.totalTotalMs / float64(n)
}

// MaxTimes returns the maximum working and total handling time in ms
func (s *StatStore) MaxTimes() (workingMs, totalMs float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.maxWorkingMs, s.maxTotalMs
}

// RequestsPerSecond returns finished-query throughput over the span between
// the first and last end timestamp. A span of zero or less (single finished
// query, or all ends sharing one timestamp) falls back to the finished count
// itself. Returns 0 when nothing finished or no timestamps were captured.
func (s *StatStore) RequestsPerSecond() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.finishedIDs)
	if n == 0 || s.firstEndTime.IsZero() || s.lastEndTime.IsZero() {
		return 0
	}
	span := s.lastEndTime.Sub(s.firstEndTime).Seconds()
	if span <= 0 {
		return float64(n)
	}
	return float64(n) / span
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
