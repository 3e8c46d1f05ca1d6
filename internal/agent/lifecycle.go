package agent

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"sysinfo-agent/internal/config"
)

const healthLogInterval = 30 * time.Second

func (a *Agent) run(ctx context.Context) error {
	events := make(chan config.Event, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.source.Run(gctx, events)
	})
	g.Go(func() error {
		return a.scheduler.Run(gctx, events)
	})
	g.Go(func() error {
		return a.runHealthLoop(gctx)
	})
	g.Go(func() error {
		return a.runProbeListener(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *Agent) runHealthLoop(ctx context.Context) error {
	t := time.NewTicker(healthLogInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			a.logger.Debugw("agent health", "snapshot", a.health.Snapshot())
		}
	}
}

func (a *Agent) shutdown(ctx context.Context) {
	if err := a.sink.Close(ctx); err != nil {
		a.logger.Warnw("stream sink close failed", "error", err)
	}
	_ = a.logger.Sync()
}
