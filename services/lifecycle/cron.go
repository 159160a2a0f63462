package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Start schedules Sweep every interval until ctx is cancelled. Overlapping ticks are dropped.
func Start(ctx context.Context, s *Scheduler, interval time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := c.AddFunc(spec, func() {
		s.Sweep(ctx)
	}); err != nil {
		return nil, fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	c.Start()
	s.Logger.Info("lifecycle scheduler started", zap.Duration("interval", interval))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		s.Logger.Info("lifecycle scheduler stopped")
	}()
	return c, nil
}
