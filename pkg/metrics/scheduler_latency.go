// Package metrics provides per-operation latency tracking with percentiles.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Tracker keeps a sliding window of latency samples for one operation
// and derives percentile statistics from it.
type Tracker struct {
	mu         sync.Mutex
	samples    []int64 // microseconds
	maxSamples int
	sorted     bool
}

// NewTracker creates a tracker keeping at most windowSize samples.
func NewTracker(windowSize int) *Tracker {
	if windowSize <= 0 {
		windowSize = 1000
	}
	return &Tracker{
		samples:    make([]int64, 0, windowSize),
		maxSamples: windowSize,
	}
}

// Record adds a latency sample.
func (t *Tracker) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.samples) >= t.maxSamples {
		// Drop the oldest 10% in one shift instead of one sample per call
		drop := t.maxSamples / 10
		if drop < 1 {
			drop = 1
		}
		t.samples = t.samples[drop:]
	}

	t.samples = append(t.samples, d.Microseconds())
	t.sorted = false
}

// Stats computes percentile statistics over the current window.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.samples)
	if n == 0 {
		return Stats{}
	}

	if !t.sorted {
		sort.Slice(t.samples, func(i, j int) bool { return t.samples[i] < t.samples[j] })
		t.sorted = true
	}

	var sum int64
	for _, v := range t.samples {
		sum += v
	}

	return Stats{
		Count: n,
		Min:   time.Duration(t.samples[0]) * time.Microsecond,
		Max:   time.Duration(t.samples[n-1]) * time.Microsecond,
		Avg:   time.Duration(sum/int64(n)) * time.Microsecond,
		P50:   time.Duration(t.percentile(0.50)) * time.Microsecond,
		P95:   time.Duration(t.percentile(0.95)) * time.Microsecond,
		P99:   time.Duration(t.percentile(0.99)) * time.Microsecond,
	}
}

// percentile assumes the lock is held and samples are sorted.
func (t *Tracker) percentile(p float64) int64 {
	if len(t.samples) == 0 {
		return 0
	}
	idx := int(float64(len(t.samples)-1) * p)
	return t.samples[idx]
}

// Reset clears the window.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = t.samples[:0]
	t.sorted = false
}

// Stats holds derived latency statistics.
type Stats struct {
	Count int           `json:"count"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Avg   time.Duration `json:"avg"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
}

// ToMap renders stats with millisecond values for JSON output.
func (s Stats) ToMap() map[string]any {
	return map[string]any{
		"count":  s.Count,
		"min_ms": float64(s.Min.Microseconds()) / 1000,
		"max_ms": float64(s.Max.Microseconds()) / 1000,
		"avg_ms": float64(s.Avg.Microseconds()) / 1000,
		"p50_ms": float64(s.P50.Microseconds()) / 1000,
		"p95_ms": float64(s.P95.Microseconds()) / 1000,
		"p99_ms": float64(s.P99.Microseconds()) / 1000,
	}
}

// Registry manages trackers for multiple operations.
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker
	window   int
}

// NewRegistry creates a registry whose trackers keep windowSize samples.
func NewRegistry(windowSize int) *Registry {
	return &Registry{
		trackers: make(map[string]*Tracker),
		window:   windowSize,
	}
}

// Record records a latency sample for the named operation.
func (r *Registry) Record(operation string, d time.Duration) {
	r.mu.RLock()
	tracker, ok := r.trackers[operation]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		if tracker, ok = r.trackers[operation]; !ok {
			tracker = NewTracker(r.window)
			r.trackers[operation] = tracker
		}
		r.mu.Unlock()
	}

	tracker.Record(d)
}

// AllStats returns statistics for every tracked operation.
func (r *Registry) AllStats() map[string]Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Stats, len(r.trackers))
	for name, tracker := range r.trackers {
		result[name] = tracker.Stats()
	}
	return result
}

// Reset clears every tracker.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tracker := range r.trackers {
		tracker.Reset()
	}
}

var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
)

// GlobalRegistry returns the process-wide latency registry.
func GlobalRegistry() *Registry {
	globalRegistryOnce.Do(func() {
		globalRegistry = NewRegistry(1000)
	})
	return globalRegistry
}

// RecordLatency records a sample to the global registry.
func RecordLatency(operation string, d time.Duration) {
	GlobalRegistry().Record(operation, d)
}

// AllLatencyStats returns all stats from the global registry.
func AllLatencyStats() map[string]Stats {
	return GlobalRegistry().AllStats()
}
