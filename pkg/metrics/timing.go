// Package metrics keeps in-process counters for the navigation pipeline:
// how long each stage takes and how often the forest cache answers.
//
// Recording is on by default. NAVPLUS_METRICS=0 turns it off, which makes
// every call a no-op.
package metrics

import (
	"math"
	"os"
	"sync/atomic"
	"time"
)

var enabled = os.Getenv("NAVPLUS_METRICS") != "0"

// Enabled reports whether samples are recorded.
func Enabled() bool { return enabled }

// SetEnabled switches recording on or off. It is meant for start-up and
// tests; it is not synchronized with concurrent recorders.
func SetEnabled(e bool) { enabled = e }

// TimingMetric accumulates durations of one pipeline stage.
type TimingMetric struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	min   atomic.Int64
	max   atomic.Int64
}

func newTimingMetric(name string) *TimingMetric {
	m := &TimingMetric{name: name}
	m.min.Store(math.MaxInt64)
	return m
}

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled || m == nil {
		return
	}
	ns := int64(d)
	m.count.Add(1)
	m.total.Add(ns)
	lower(&m.min, ns)
	raise(&m.max, ns)
}

func lower(v *atomic.Int64, ns int64) {
	for cur := v.Load(); ns < cur; cur = v.Load() {
		if v.CompareAndSwap(cur, ns) {
			return
		}
	}
}

func raise(v *atomic.Int64, ns int64) {
	for cur := v.Load(); ns > cur; cur = v.Load() {
		if v.CompareAndSwap(cur, ns) {
			return
		}
	}
}

// Name returns the stage name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of samples.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// Total returns the summed duration of all samples.
func (m *TimingMetric) Total() time.Duration { return time.Duration(m.total.Load()) }

// Min returns the shortest sample, or 0 without samples.
func (m *TimingMetric) Min() time.Duration {
	if m.Count() == 0 {
		return 0
	}
	return time.Duration(m.min.Load())
}

// Max returns the longest sample.
func (m *TimingMetric) Max() time.Duration { return time.Duration(m.max.Load()) }

// Avg returns the mean sample, or 0 without samples.
func (m *TimingMetric) Avg() time.Duration {
	n := m.Count()
	if n == 0 {
		return 0
	}
	return m.Total() / time.Duration(n)
}

// Reset drops all samples.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.total.Store(0)
	m.min.Store(math.MaxInt64)
	m.max.Store(0)
}

// TimingStats is a snapshot of a stage, in milliseconds for logging.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MinMs   float64 `json:"min_ms"`
	MaxMs   float64 `json:"max_ms"`
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// Stats returns a snapshot of the stage.
func (m *TimingMetric) Stats() TimingStats {
	return TimingStats{
		Name:    m.name,
		Count:   m.Count(),
		TotalMs: ms(m.Total()),
		AvgMs:   ms(m.Avg()),
		MinMs:   ms(m.Min()),
		MaxMs:   ms(m.Max()),
	}
}

// Timer starts timing m and returns the function that stops it:
//
//	defer metrics.Timer(metrics.ForestBuild)()
func Timer(m *TimingMetric) func() {
	if !enabled || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// Pipeline stages, in the order a cold start runs them.
var (
	RootWait     = newTimingMetric("root_wait")
	ChunkFetch   = newTimingMetric("chunk_fetch")
	TreeResolve  = newTimingMetric("tree_resolve")
	Projection   = newTimingMetric("projection")
	ForestBuild  = newTimingMetric("forest_build")
	PageScan     = newTimingMetric("page_scan")
	WidgetRender = newTimingMetric("widget_render")
	StateSave    = newTimingMetric("state_save")
)

var stages = []*TimingMetric{
	RootWait, ChunkFetch, TreeResolve, Projection,
	ForestBuild, PageScan, WidgetRender, StateSave,
}

// AllTimingStats returns snapshots of the stages that have samples.
func AllTimingStats() []TimingStats {
	var out []TimingStats
	for _, m := range stages {
		if m.Count() > 0 {
			out = append(out, m.Stats())
		}
	}
	return out
}

// ResetAll drops the samples of every stage and cache metric.
func ResetAll() {
	for _, m := range stages {
		m.Reset()
	}
	for _, c := range AllCacheMetrics() {
		c.Reset()
	}
}
