package attempt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *lockedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *lockedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestCountdown_ExpiresAndFiresOnce(t *testing.T) {
	a, _ := started(t)
	clock := &lockedClock{t: epoch}
	ticks := make(chan time.Time)
	var mu sync.Mutex
	expiries := 0

	cd := NewCountdown(a, &mu,
		WithTicks(ticks),
		WithCountdownClock(clock.Now),
		OnExpire(func() { expiries++ }),
	)

	done := make(chan error, 1)
	go func() { done <- cd.Run(context.Background()) }()

	clock.Advance(100 * time.Second)
	ticks <- clock.Now()
	clock.Advance(100 * time.Second)
	ticks <- clock.Now()

	require.NoError(t, <-done)
	assert.Equal(t, 1, expiries)
	assert.Equal(t, Submitted, a.State())
	assert.True(t, a.AutoSubmitted())
	assert.Equal(t, 180, a.ElapsedSeconds())
}

func TestCountdown_CarriesFractionalSeconds(t *testing.T) {
	a, _ := started(t)
	clock := &lockedClock{t: epoch}
	ticks := make(chan time.Time)
	var mu sync.Mutex

	ctx, cancel := context.WithCancel(context.Background())
	cd := NewCountdown(a, &mu, WithTicks(ticks), WithCountdownClock(clock.Now))
	done := make(chan error, 1)
	go func() { done <- cd.Run(ctx) }()

	for i := 0; i < 4; i++ {
		clock.Advance(750 * time.Millisecond)
		ticks <- clock.Now()
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 177, a.Remaining())
	assert.Equal(t, InProgress, a.State())
}

func TestCountdown_StopsAfterManualSubmit(t *testing.T) {
	a, _ := started(t)
	clock := &lockedClock{t: epoch}
	ticks := make(chan time.Time)
	var mu sync.Mutex
	expired := false

	cd := NewCountdown(a, &mu, WithTicks(ticks), WithCountdownClock(clock.Now), OnExpire(func() { expired = true }))
	done := make(chan error, 1)
	go func() { done <- cd.Run(context.Background()) }()

	mu.Lock()
	require.NoError(t, a.Submit())
	mu.Unlock()

	clock.Advance(time.Hour)
	ticks <- clock.Now()

	require.NoError(t, <-done)
	assert.False(t, expired)
	assert.False(t, a.AutoSubmitted())
}
