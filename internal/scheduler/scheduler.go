// Package scheduler drives the periodic snapshot capture job.
package scheduler

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

const (
	// DefaultInterval is one capture per UTC day.
	DefaultInterval = 24 * time.Hour
	// DefaultRunTimeout bounds a single capture pass across all portfolios.
	DefaultRunTimeout = 5 * time.Minute
)

// Capturer runs one snapshot pass over every portfolio.
type Capturer interface {
	CaptureAll(ctx context.Context) error
}

// Scheduler runs the capturer immediately and then on a fixed interval until
// the context is cancelled.
type Scheduler struct {
	capturer   Capturer
	interval   time.Duration
	runTimeout time.Duration
}

func New(capturer Capturer, interval, runTimeout time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if runTimeout <= 0 {
		runTimeout = DefaultRunTimeout
	}
	return &Scheduler{
		capturer:   capturer,
		interval:   interval,
		runTimeout: runTimeout,
	}
}

// Run blocks until ctx is cancelled. The first capture happens immediately
// so a fresh deployment does not wait a full interval for its first
// snapshots.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			logx.Info("scheduler: stopping")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(parentCtx context.Context) {
	if parentCtx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(parentCtx, s.runTimeout)
	defer cancel()

	start := time.Now()
	err := s.capturer.CaptureAll(ctx)
	elapsed := time.Since(start)

	if err != nil {
		logx.WithContext(ctx).Errorf("scheduler: capture pass failed after %dms: %v", elapsed.Milliseconds(), err)
		return
	}
	logx.WithContext(ctx).Infof("scheduler: capture pass completed in %dms", elapsed.Milliseconds())
}
