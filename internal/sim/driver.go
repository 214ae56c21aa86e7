package sim

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Ticker is anything that advances on an external cadence. Engine and
// control.Session implement it.
type Ticker interface {
	Tick() bool
}

// Driver calls Target.Tick every Interval until its context is done.
type Driver struct {
	Interval time.Duration
	Target   Ticker
	Logger   *zap.Logger
}

// Run blocks until ctx is cancelled and then returns nil. Ticks delivered while
// the target is idle do nothing.
func (d *Driver) Run(ctx context.Context) error {
	if d.Interval <= 0 {
		return errors.New("driver: interval must be positive")
	}
	if d.Target == nil {
		return errors.New("driver: no target")
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	t := time.NewTicker(d.Interval)
	defer t.Stop()
	logger.Info("tick driver started", zap.Duration("interval", d.Interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("tick driver stopped")
			return nil
		case <-t.C:
			d.Target.Tick()
		}
	}
}
