package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestNextUsesClockMilliseconds(t *testing.T) {
	g := NewIDGenerator(fixedClock(1_700_000_000_000))
	assert.Equal(t, int64(1_700_000_000_000), g.Next())
}

func TestNextNeverRepeatsWithinOneTick(t *testing.T) {
	g := NewIDGenerator(fixedClock(1000))
	seen := map[int64]bool{}
	prev := int64(0)
	for i := 0; i < 100; i++ {
		id := g.Next()
		assert.False(t, seen[id], "duplicate id %d", id)
		assert.Greater(t, id, prev)
		seen[id] = true
		prev = id
	}
}

func TestNextSurvivesClockGoingBackwards(t *testing.T) {
	now := int64(5000)
	g := NewIDGenerator(func() time.Time { return time.UnixMilli(now) })
	first := g.Next()
	now = 4000
	assert.Equal(t, first+1, g.Next())
}

func TestObserveKeepsIdsAboveExisting(t *testing.T) {
	g := NewIDGenerator(fixedClock(1000))
	g.Observe(9000)
	g.Observe(10)
	assert.Equal(t, int64(9001), g.Next())
}
