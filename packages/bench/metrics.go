package bench

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Metrics accumulates latencies and outcome counts during a run. Record is
// safe to call from many workers at once.
type Metrics struct {
	total     atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64

	// Latencies in microseconds, 1us to 60s, 3 significant digits.
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram

	start time.Time
	end   time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		histogram: hdrhistogram.New(1, 60_000_000, 3),
	}
}

// Start marks the beginning of the run.
func (m *Metrics) Start() {
	m.start = time.Now()
}

// Stop marks the end of the run.
func (m *Metrics) Stop() {
	m.end = time.Now()
}

// Record adds one dispatch outcome.
func (m *Metrics) Record(latency time.Duration, err error) {
	m.total.Add(1)
	if err != nil {
		m.failures.Add(1)
	} else {
		m.successes.Add(1)
	}

	us := latency.Microseconds()
	if us < 1 {
		us = 1
	}
	if us > 60_000_000 {
		us = 60_000_000
	}

	m.mu.Lock()
	_ = m.histogram.RecordValue(us)
	m.mu.Unlock()
}

// Summary is the aggregated outcome of a run.
type Summary struct {
	Duration   time.Duration
	Total      int64
	Successes  int64
	Failures   int64
	Throughput float64 // requests per second

	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// Summary aggregates everything recorded so far.
func (m *Metrics) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.end.Sub(m.start)
	if m.end.IsZero() {
		duration = time.Since(m.start)
	}

	total := m.total.Load()
	throughput := float64(0)
	if duration.Seconds() > 0 {
		throughput = float64(total) / duration.Seconds()
	}

	return &Summary{
		Duration:   duration,
		Total:      total,
		Successes:  m.successes.Load(),
		Failures:   m.failures.Load(),
		Throughput: throughput,
		P50:        time.Duration(m.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95:        time.Duration(m.histogram.ValueAtQuantile(95)) * time.Microsecond,
		P99:        time.Duration(m.histogram.ValueAtQuantile(99)) * time.Microsecond,
		Max:        time.Duration(m.histogram.Max()) * time.Microsecond,
		Mean:       time.Duration(m.histogram.Mean()) * time.Microsecond,
	}
}
