package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	totalDuration map[string]time.Duration
}

// CounterSnapshot is a point-in-time copy of one counter.
type CounterSnapshot struct {
	Key   string  `json:"key"`
	Count int64   `json:"count"`
	AvgMs float64 `json:"avg_ms,omitempty"`
}

// Snapshot is a copy of all counters, sorted by key.
type Snapshot struct {
	Requests []CounterSnapshot `json:"requests"`
	Errors   []CounterSnapshot `json:"errors"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		totalDuration: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.totalDuration[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Requests: []CounterSnapshot{}, Errors: []CounterSnapshot{}}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, count := range m.requestCount {
		entry := CounterSnapshot{Key: key, Count: count}
		if count > 0 {
			entry.AvgMs = float64(m.totalDuration[key].Microseconds()) / 1000 / float64(count)
		}
		snap.Requests = append(snap.Requests, entry)
	}
	for key, count := range m.errorCount {
		snap.Errors = append(snap.Errors, CounterSnapshot{Key: key, Count: count})
	}
	sort.Slice(snap.Requests, func(i, j int) bool { return snap.Requests[i].Key < snap.Requests[j].Key })
	sort.Slice(snap.Errors, func(i, j int) bool { return snap.Errors[i].Key < snap.Errors[j].Key })
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
