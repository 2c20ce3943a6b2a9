// Package health provides periodic dependency probing with a cached,
// non-blocking status flag.
package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Checker probes one dependency on an interval and caches the outcome.
type Checker struct {
	name         string
	ping         func(ctx context.Context) error
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewChecker creates a checker around a ping function. The checker starts
// unhealthy until the first successful probe.
func NewChecker(name string, ping func(ctx context.Context) error, log zerolog.Logger, probeTimeout time.Duration) *Checker {
	c := &Checker{name: name, ping: ping, log: log, probeTimeout: probeTimeout}
	c.healthy.Store(0)
	return c
}

// Name returns the checker name.
func (c *Checker) Name() string { return c.name }

// IsHealthy returns the cached status without blocking.
func (c *Checker) IsHealthy() bool { return c.healthy.Load() == 1 }

// Start probes immediately, then on every tick until ctx is cancelled.
func (c *Checker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() {
		to := c.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		probeCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()

		prev := c.healthy.Load()
		if err := c.ping(probeCtx); err != nil {
			c.healthy.Store(0)
			if prev == 1 {
				c.log.Error().Str("checker", c.name).Err(err).Msg("health check failed")
			}
			return
		}
		c.healthy.Store(1)
		if prev == 0 {
			c.log.Info().Str("checker", c.name).Msg("health check recovered")
		}
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
