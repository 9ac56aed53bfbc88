// Package stats records per-operation latency distributions.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minMicros = 1
	maxMicros = 60_000_000 // one minute
	sigFigs   = 3
)

// Recorder aggregates latencies into one histogram per operation name.
// Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	hists map[string]*hdrhistogram.Histogram
}

func NewRecorder() *Recorder {
	return &Recorder{hists: make(map[string]*hdrhistogram.Histogram)}
}

// Observe records one duration for op. Durations outside the trackable
// range are clamped by the histogram.
func (r *Recorder) Observe(op string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.hists[op]
	if !ok {
		h = hdrhistogram.New(minMicros, maxMicros, sigFigs)
		r.hists[op] = h
	}
	_ = h.RecordValue(d.Microseconds())
}

// Time starts a timer for op; the returned func stops it and records.
//
//	defer rec.Time("ensure_schema")()
func (r *Recorder) Time(op string) func() {
	start := time.Now()
	return func() {
		r.Observe(op, time.Since(start))
	}
}

// OpStats is a snapshot of one operation's latency distribution.
type OpStats struct {
	Op    string
	Count int64
	Mean  time.Duration
	P95   time.Duration
	P99   time.Duration
}

// Snapshot returns per-op stats sorted by operation name.
func (r *Recorder) Snapshot() []OpStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]OpStats, 0, len(r.hists))
	for op, h := range r.hists {
		out = append(out, OpStats{
			Op:    op,
			Count: h.TotalCount(),
			Mean:  time.Duration(h.Mean()) * time.Microsecond,
			P95:   time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
			P99:   time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Op < out[j].Op })
	return out
}
