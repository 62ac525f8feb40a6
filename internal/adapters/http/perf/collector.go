// Package perf keeps a bounded in-memory record of request, store and
// member-source timings and summarises it for GET /debug/perf.
package perf

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the number of entries kept before the oldest are overwritten.
const DefaultRingSize = 10000

// Kind says which layer produced an entry.
type Kind uint8

const (
	KindRequest Kind = iota // HTTP request through the middleware chain
	KindQuery               // SQL statement against the workspace store
	KindFetch               // GET of the remote member list
)

// Entry is one timed operation.
type Entry struct {
	Kind     Kind
	Label    string // "METHOD /path", "VERB table" or the source host
	Status   int    // HTTP status for requests and fetches, 0 for queries
	Failed   bool
	Duration time.Duration
	At       time.Time
}

// Collector is a fixed-size ring of entries.
// INVARIANT: Record never allocates and never blocks on readers for longer than one copy.
type Collector struct {
	mu       sync.Mutex
	ring     []Entry
	next     int
	recorded atomic.Int64
}

// NewCollector creates a collector holding up to size entries.
// PRE: size > 0, otherwise DefaultRingSize is used
// POST: ring is pre-allocated
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{ring: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry when the ring is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.ring[c.next] = e
	c.next = (c.next + 1) % len(c.ring)
	c.mu.Unlock()
	c.recorded.Add(1)
}

// TotalRecorded returns how many entries were ever recorded, including overwritten ones.
func (c *Collector) TotalRecorded() int64 {
	return c.recorded.Load()
}

// Latency summarises request durations in a window.
type Latency struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// LabelStat aggregates the entries sharing one label.
type LabelStat struct {
	Label    string  `json:"label"`
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	AvgMs    float64 `json:"avg_ms"`
	MaxMs    float64 `json:"max_ms"`
	totalMs  float64
}

// Snapshot is the aggregated view of one time window.
type Snapshot struct {
	Since    time.Time   `json:"since"`
	Recorded int64       `json:"recorded"`
	Requests Latency     `json:"requests"`
	Routes   []LabelStat `json:"slowest_routes"`
	Queries  []LabelStat `json:"slowest_queries"`
	Fetches  []LabelStat `json:"fetches"`
}

// Snapshot aggregates the entries recorded at or after since.
// PRE: topN > 0
// POST: Routes and Queries hold at most topN labels, slowest average first;
// Fetches holds every source label seen in the window
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	entries := slices.Clone(c.ring)
	c.mu.Unlock()

	byKind := map[Kind]map[string]*LabelStat{
		KindRequest: {},
		KindQuery:   {},
		KindFetch:   {},
	}
	var durations []float64
	snap := Snapshot{Since: since, Recorded: c.TotalRecorded()}

	for _, e := range entries {
		if e.At.IsZero() || e.At.Before(since) {
			continue
		}
		ms := float64(e.Duration.Microseconds()) / 1000.0
		if e.Kind == KindRequest {
			durations = append(durations, ms)
			if e.Failed {
				snap.Requests.Errors++
			}
		}
		stats := byKind[e.Kind]
		if stats == nil {
			continue
		}
		s, ok := stats[e.Label]
		if !ok {
			s = &LabelStat{Label: e.Label}
			stats[e.Label] = s
		}
		s.Count++
		s.totalMs += ms
		s.MaxMs = max(s.MaxMs, ms)
		if e.Failed {
			s.Failures++
		}
	}

	snap.Requests.Count = len(durations)
	if len(durations) > 0 {
		slices.Sort(durations)
		snap.Requests.P50Ms = percentile(durations, 50)
		snap.Requests.P95Ms = percentile(durations, 95)
		snap.Requests.P99Ms = percentile(durations, 99)
	}
	snap.Routes = slowest(byKind[KindRequest], topN)
	snap.Queries = slowest(byKind[KindQuery], topN)
	snap.Fetches = slowest(byKind[KindFetch], len(byKind[KindFetch]))
	return snap
}

// percentile interpolates the p-th percentile of an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func slowest(stats map[string]*LabelStat, n int) []LabelStat {
	list := make([]LabelStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.totalMs / float64(s.Count)
		list = append(list, *s)
	}
	slices.SortFunc(list, func(a, b LabelStat) int {
		if c := cmp.Compare(b.AvgMs, a.AvgMs); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
