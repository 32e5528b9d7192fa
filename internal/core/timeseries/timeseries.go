// Package timeseries buckets threat and bot-activity counts into fixed windows.
package timeseries

import (
	"sync"
	"time"
)

// Defaults
const (
	DefaultWindow   = time.Minute
	DefaultCapacity = 1440
)

// Bucket is one window. Sealed buckets never change
type Bucket struct {
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
	ThreatCount      int64     `json:"threat_count"`
	BotActivityCount int64     `json:"bot_activity_count"`
	Sealed           bool      `json:"sealed"`
}

// Aggregator keeps the open bucket plus a bounded ring of sealed ones. Safe for concurrent use
type Aggregator struct {
	mu       sync.Mutex
	window   time.Duration
	capacity int
	now      func() time.Time

	open   Bucket
	sealed []Bucket // ring storage
	head   int      // index of the oldest sealed bucket
	count  int
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option { return func(a *Aggregator) { a.now = now } }

// New builds an Aggregator; zero values take the defaults
func New(window time.Duration, capacity int, opts ...Option) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	a := &Aggregator{window: window, capacity: capacity, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	a.sealed = make([]Bucket, capacity)
	a.open = a.bucketAt(a.now())
	return a
}

// Window returns the bucket width
func (a *Aggregator) Window() time.Duration { return a.window }

func (a *Aggregator) bucketAt(t time.Time) Bucket {
	start := t.UTC().Truncate(a.window)
	return Bucket{WindowStart: start, WindowEnd: start.Add(a.window)}
}

// AddThreat counts n threats in the current window and returns any buckets sealed on the way
func (a *Aggregator) AddThreat(n int64) []Bucket {
	return a.add(n, 0)
}

// AddBotActivity counts n bot-activity events in the current window
func (a *Aggregator) AddBotActivity(n int64) []Bucket {
	return a.add(0, n)
}

func (a *Aggregator) add(threats, bots int64) []Bucket {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.roll(a.now())
	a.open.ThreatCount += threats
	a.open.BotActivityCount += bots
	return out
}

// Roll seals every window that closed before now, gaps included, and returns them oldest first
func (a *Aggregator) Roll() []Bucket {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.roll(a.now())
}

func (a *Aggregator) roll(now time.Time) []Bucket {
	if now.Before(a.open.WindowEnd) {
		return nil
	}
	var out []Bucket
	b := a.open
	b.Sealed = true
	out = append(out, b)
	a.push(b)

	next := a.bucketAt(now)
	gaps := int(next.WindowStart.Sub(b.WindowEnd) / a.window)
	start := b.WindowEnd
	if gaps > a.capacity {
		// only the newest capacity windows can be held anyway
		start = next.WindowStart.Add(-time.Duration(a.capacity) * a.window)
	}
	for s := start; s.Before(next.WindowStart); s = s.Add(a.window) {
		empty := Bucket{WindowStart: s, WindowEnd: s.Add(a.window), Sealed: true}
		out = append(out, empty)
		a.push(empty)
	}
	a.open = next
	return out
}

func (a *Aggregator) push(b Bucket) {
	idx := (a.head + a.count) % a.capacity
	a.sealed[idx] = b
	if a.count < a.capacity {
		a.count++
		return
	}
	a.head = (a.head + 1) % a.capacity
}

// Last returns up to n buckets oldest first; the open bucket is the final element
func (a *Aggregator) Last(n int) []Bucket {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.roll(a.now())
	if n <= 0 {
		return []Bucket{}
	}
	take := min(n-1, a.count)
	out := make([]Bucket, 0, take+1)
	for i := a.count - take; i < a.count; i++ {
		out = append(out, a.sealed[(a.head+i)%a.capacity])
	}
	return append(out, a.open)
}

// SealedSince returns the retained sealed buckets starting at or after t, oldest first. Exporters
// use it with a cursor so buckets sealed by any caller are picked up.
func (a *Aggregator) SealedSince(t time.Time) []Bucket {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.roll(a.now())
	var out []Bucket
	for i := range a.count {
		b := a.sealed[(a.head+i)%a.capacity]
		if !b.WindowStart.Before(t) {
			out = append(out, b)
		}
	}
	return out
}
