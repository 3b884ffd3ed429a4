// Package progress tracks and renders how far a run has got: packages
// discovered by the lister and man pages fetched by the pool.
package progress

import "sync/atomic"

// Counters holds the live run counters. The zero value is ready to use and
// all methods are safe for concurrent use. A nil *Counters ignores updates.
type Counters struct {
	expected   atomic.Int64
	discovered atomic.Int64
	total      atomic.Int64
	fetched    atomic.Int64
}

// Snapshot is a consistent-enough copy of the counters for rendering.
type Snapshot struct {
	Expected   int64
	Discovered int64
	Total      int64
	Fetched    int64
}

func (c *Counters) SetExpected(n int) {
	if c != nil {
		c.expected.Store(int64(n))
	}
}

func (c *Counters) Discover() {
	if c != nil {
		c.discovered.Add(1)
	}
}

func (c *Counters) SetTotal(n int) {
	if c != nil {
		c.total.Store(int64(n))
	}
}

func (c *Counters) Fetched() {
	if c != nil {
		c.fetched.Add(1)
	}
}

func (c *Counters) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return Snapshot{
		Expected:   c.expected.Load(),
		Discovered: c.discovered.Load(),
		Total:      c.total.Load(),
		Fetched:    c.fetched.Load(),
	}
}

// DiscoveredRatio is discovered/expected clamped to [0, 1].
func (s Snapshot) DiscoveredRatio() float64 { return ratio(s.Discovered, s.Expected) }

// FetchedRatio is fetched/total clamped to [0, 1].
func (s Snapshot) FetchedRatio() float64 { return ratio(s.Fetched, s.Total) }

func ratio(n, d int64) float64 {
	if d <= 0 {
		return 0
	}
	r := float64(n) / float64(d)
	if r > 1 {
		return 1
	}
	return r
}
