// Package lifecycle coordinates process-wide state shared by concurrent requests:
// the request counter and the rate-limit shutdown signal.
package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// ErrRateLimited is returned by Run once the upstream rate-limited the mirror and
// the grace period elapsed. Callers should stop serving and exit.
var ErrRateLimited = eris.New("upstream rate limit reached")

const defaultGrace = 10 * time.Second

// Options configures a Coordinator.
type Options struct {
	Grace  time.Duration
	Logger *logrus.Logger
}

// Coordinator is safe for concurrent use. Signals after the first are ignored.
type Coordinator struct {
	requests  atomic.Uint64
	signals   atomic.Uint64
	notify    chan struct{}
	triggered chan struct{}
	once      sync.Once
	grace     time.Duration
	logger    *logrus.Logger
}

// NewCoordinator constructs a Coordinator. A non-positive grace falls back to ten seconds.
func NewCoordinator(opts Options) *Coordinator {
	grace := opts.Grace
	if grace <= 0 {
		grace = defaultGrace
	}

	return &Coordinator{
		notify:    make(chan struct{}, 1),
		triggered: make(chan struct{}),
		grace:     grace,
		logger:    opts.Logger,
	}
}

// CountRequest records one mirrored request and returns the running total.
func (c *Coordinator) CountRequest() uint64 {
	return c.requests.Add(1)
}

// Requests returns the number of requests counted so far.
func (c *Coordinator) Requests() uint64 {
	return c.requests.Load()
}

// SignalRateLimited notifies the coordinator that the upstream rate-limited us.
// It never blocks.
func (c *Coordinator) SignalRateLimited() {
	c.signals.Add(1)
	c.once.Do(func() {
		close(c.triggered)
	})

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Signals returns how many rate-limit signals were received, redundant ones included.
func (c *Coordinator) Signals() uint64 {
	return c.signals.Load()
}

// Triggered is closed after the first rate-limit signal.
func (c *Coordinator) Triggered() <-chan struct{} {
	return c.triggered
}

// ShuttingDown reports whether a rate-limit signal has been received.
func (c *Coordinator) ShuttingDown() bool {
	select {
	case <-c.triggered:
		return true
	default:
		return false
	}
}

// Run blocks until ctx is cancelled, returning nil, or until a rate-limit signal
// arrives and the grace period passes, returning ErrRateLimited. In-flight requests
// keep being served during the grace period.
func (c *Coordinator) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-c.notify:
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"grace":    c.grace.String(),
			"requests": c.Requests(),
		}).Warn("upstream rate limit detected, shutting down after grace period")
	}

	timer := time.NewTimer(c.grace)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
		return ErrRateLimited
	}
}
