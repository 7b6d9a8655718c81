package ratelimit

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_InvalidArgs(t *testing.T) {
	assert.Nil(t, New(0, 1, 0))
	assert.Nil(t, New(1, 0, 0))

	var l *MapLimiter
	assert.True(t, l.Allow("k", time.Now()), "nil limiter allows")
}

func TestAllow_BurstThenRefill(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Now()

	assert.True(t, l.Allow("eip155:5:0xAbC", now))
	assert.True(t, l.Allow("eip155:5:0xabc", now), "same bucket regardless of case")
	assert.False(t, l.Allow("eip155:5:0xabc", now))

	assert.True(t, l.Allow("other", now), "buckets are per key")
	assert.True(t, l.Allow("eip155:5:0xabc", now.Add(1100*time.Millisecond)))
}

func TestAllow_EmptyKeyAlwaysAllowed(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Now()
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("  ", now))
	}
}

func TestAllow_EvictsIdleKeys(t *testing.T) {
	l := New(100, 100, time.Second)
	start := time.Now()

	l.Allow("stale", start)
	later := start.Add(time.Hour)
	for i := 0; i < 511; i++ {
		l.Allow("k"+strconv.Itoa(i%3), later)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.byKey["stale"]
	assert.False(t, ok)
}
