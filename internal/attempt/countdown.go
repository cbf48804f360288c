package attempt

import (
	"context"
	"sync"
	"time"
)

// Countdown drives an attempt's Tick from a ticker. Wall time between ticks is accumulated
// so a late or coalesced tick still charges every elapsed second.
type Countdown struct {
	attempt  *Attempt
	mu       sync.Locker
	interval time.Duration
	ticks    <-chan time.Time
	now      func() time.Time
	onExpire func()

	last  time.Time
	carry time.Duration
}

type CountdownOption func(*Countdown)

func WithInterval(d time.Duration) CountdownOption {
	return func(c *Countdown) { c.interval = d }
}

// WithTicks supplies the tick source instead of a time.Ticker.
func WithTicks(ticks <-chan time.Time) CountdownOption {
	return func(c *Countdown) { c.ticks = ticks }
}

func WithCountdownClock(now func() time.Time) CountdownOption {
	return func(c *Countdown) { c.now = now }
}

// OnExpire registers fn to run once, outside the lock, when the countdown auto-submits.
func OnExpire(fn func()) CountdownOption {
	return func(c *Countdown) { c.onExpire = fn }
}

// NewCountdown returns a countdown for a, measuring elapsed time from now. mu guards a and
// must be held by every other caller that mutates it.
func NewCountdown(a *Attempt, mu sync.Locker, opts ...CountdownOption) *Countdown {
	c := &Countdown{attempt: a, mu: mu, interval: time.Second, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.last = c.now()
	return c
}

// Run ticks until the attempt is submitted or ctx is done. It returns nil once the attempt
// is submitted, by expiry or otherwise.
func (c *Countdown) Run(ctx context.Context) error {
	ticks := c.ticks
	if ticks == nil {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
			done, expired, err := c.step()
			if err != nil {
				return err
			}
			if expired && c.onExpire != nil {
				c.onExpire()
			}
			if done {
				return nil
			}
		}
	}
}

func (c *Countdown) step() (done, expired bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt.State() == Submitted {
		return true, false, nil
	}
	now := c.now()
	c.carry += now.Sub(c.last)
	c.last = now

	secs := int(c.carry / time.Second)
	if secs <= 0 {
		return false, false, nil
	}
	c.carry -= time.Duration(secs) * time.Second

	expired, err = c.attempt.Tick(secs)
	if err != nil {
		return true, false, err
	}
	return expired, expired, nil
}
