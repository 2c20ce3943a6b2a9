package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCheckerStartsUnhealthy(t *testing.T) {
	c := NewChecker("db", func(context.Context) error { return nil }, zerolog.Nop(), time.Second)
	assert.False(t, c.IsHealthy())
}

func TestCheckerTracksProbeOutcome(t *testing.T) {
	var fail atomic.Bool
	c := NewChecker("db", func(context.Context) error {
		if fail.Load() {
			return errors.New("down")
		}
		return nil
	}, zerolog.Nop(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx, 10*time.Millisecond)

	waitFor := func(want bool) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if c.IsHealthy() == want {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatalf("checker never reached healthy=%v", want)
	}

	waitFor(true)
	fail.Store(true)
	waitFor(false)
	fail.Store(false)
	waitFor(true)
}
