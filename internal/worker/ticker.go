package worker

import (
	"context"
	"errors"
	"time"

	"github.com/vytor/flashmind/internal/logger"
)

// Ticker calls Enqueue on every tick. Enqueue is expected to hand a job to
// a Pool without blocking: a tick that reports ErrPoolFull is skipped and
// the next one tries again, while ErrPoolStopped ends the ticker.
type Ticker struct {
	Name     string
	Interval time.Duration
	Enqueue  func() error
}

// Run ticks until ctx is cancelled and then returns nil.
func (t *Ticker) Run(ctx context.Context) error {
	tk := time.NewTicker(t.Interval)
	defer tk.Stop()

	log := logger.FromContext(ctx).WithPrefix("ticker")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
			err := t.Enqueue()
			switch {
			case err == nil:
			case errors.Is(err, ErrPoolFull):
				log.Debug("skipping %s tick: pool full", t.Name)
			case errors.Is(err, ErrPoolStopped):
				return nil
			default:
				return err
			}
		}
	}
}
