package metrics

import (
	"testing"
	"time"
)

func TestTrackerPercentiles(t *testing.T) {
	tracker := NewTracker(1000)

	for i := 1; i <= 100; i++ {
		tracker.Record(time.Duration(i) * time.Millisecond)
	}

	stats := tracker.Stats()
	if stats.Count != 100 {
		t.Errorf("Count = %d, want 100", stats.Count)
	}
	if stats.Min != time.Millisecond {
		t.Errorf("Min = %v, want 1ms", stats.Min)
	}
	if stats.Max != 100*time.Millisecond {
		t.Errorf("Max = %v, want 100ms", stats.Max)
	}
	if stats.P50 < 40*time.Millisecond || stats.P50 > 60*time.Millisecond {
		t.Errorf("P50 = %v, want roughly 50ms", stats.P50)
	}
	if stats.P99 < stats.P95 || stats.P95 < stats.P50 {
		t.Errorf("percentiles not ordered: p50=%v p95=%v p99=%v", stats.P50, stats.P95, stats.P99)
	}
}

func TestTrackerSlidingWindow(t *testing.T) {
	tracker := NewTracker(10)

	for i := 0; i < 25; i++ {
		tracker.Record(time.Millisecond)
	}

	stats := tracker.Stats()
	if stats.Count > 10 {
		t.Errorf("window retained %d samples, want at most 10", stats.Count)
	}
}

func TestTrackerEmpty(t *testing.T) {
	tracker := NewTracker(10)
	stats := tracker.Stats()
	if stats.Count != 0 || stats.P99 != 0 {
		t.Errorf("empty tracker should report zero stats, got %+v", stats)
	}
}

func TestRegistryTracksOperationsIndependently(t *testing.T) {
	registry := NewRegistry(100)
	registry.Record("conflict_check", 10*time.Millisecond)
	registry.Record("conflict_check", 20*time.Millisecond)
	registry.Record("availability_search", 30*time.Millisecond)

	all := registry.AllStats()
	if len(all) != 2 {
		t.Fatalf("got %d operations, want 2", len(all))
	}
	if all["conflict_check"].Count != 2 {
		t.Errorf("conflict_check count = %d, want 2", all["conflict_check"].Count)
	}
	if all["availability_search"].Count != 1 {
		t.Errorf("availability_search count = %d, want 1", all["availability_search"].Count)
	}

	registry.Reset()
	if got := registry.AllStats()["conflict_check"].Count; got != 0 {
		t.Errorf("count after reset = %d, want 0", got)
	}
}
