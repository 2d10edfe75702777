// Package dedupe tracks finishing places already collected for one event.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen overallPlace values so overlapping pages never put
// the same finisher in a result set twice.
type Deduper interface {
	// SeenAndRecord atomically checks if place was seen and records it if not.
	// Returns true if place was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, place int) bool

	// Highest returns the largest recorded place, or 0 when empty.
	Highest() int

	// Reset forgets everything; called between events.
	Reset()

	Size() int64
}

// placeDeduper implements Deduper with a set of places.
type placeDeduper struct {
	mu       sync.Mutex
	seen     map[int]struct{}
	highest  int
	capacity int
	size     atomic.Int64
}

// NewPlaceDeduper creates a new place deduper with configuration options.
func NewPlaceDeduper(opts ...Option) Deduper {
	d := &placeDeduper{
		capacity: 1024,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[int]struct{}, d.capacity)
	return d
}

func (d *placeDeduper) SeenAndRecord(_ context.Context, place int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[place]; exists {
		return true
	}
	d.seen[place] = struct{}{}
	if place > d.highest {
		d.highest = place
	}
	d.size.Add(1)
	return false
}

func (d *placeDeduper) Highest() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.highest
}

func (d *placeDeduper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	clear(d.seen)
	d.highest = 0
	d.size.Store(0)
}

// Size returns the current number of recorded places.
func (d *placeDeduper) Size() int64 {
	return d.size.Load()
}
