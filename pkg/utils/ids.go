package utils

import (
	"sync"
	"time"
)

// IDGenerator issues ids derived from the wall clock in milliseconds, the
// same magnitude as ids minted by the browser client, so old and new records
// interleave by creation time. Two ids requested within the same millisecond,
// or after the clock stepped backwards, are bumped past the last issued id
// instead of colliding.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Observe records an id that already exists so later ids stay above it.
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}

func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
