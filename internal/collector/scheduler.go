package collector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sysinfo-agent/internal/config"
	"sysinfo-agent/internal/model"
	"sysinfo-agent/internal/stream"
)

// ErrSourceClosed is returned when the config source stops before delivering
// a first configuration.
var ErrSourceClosed = errors.New("config source closed before first configuration")

// Sampler is the host reader as seen by the scheduler.
type Sampler interface {
	Configure(ctx context.Context, cfg config.SourceConfig) (model.Declarations, error)
	Collect(ctx context.Context) ([]model.Point, error)
}

// Observer receives scheduler progress. All methods must be safe to call from
// the scheduler goroutine while other goroutines read the observed state.
type Observer interface {
	Configured(cfg config.SourceConfig, metrics int)
	Sampled(at time.Time, points int)
	Dispatched(sent, failed int)
}

type nopObserver struct{}

func (nopObserver) Configured(config.SourceConfig, int) {}
func (nopObserver) Sampled(time.Time, int)              {}
func (nopObserver) Dispatched(int, int)                 {}

// Scheduler drives configuration, sampling and dispatch for one Sampler and Sink.
type Scheduler struct {
	logger      *zap.SugaredLogger
	sampler     Sampler
	sink        stream.Sink
	observer    Observer
	hostname    string
	concurrency int
	sendTimeout time.Duration
}

func NewScheduler(
	logger *zap.SugaredLogger,
	sampler Sampler,
	sink stream.Sink,
	observer Observer,
	hostname string,
	concurrency int,
	sendTimeout time.Duration,
) *Scheduler {
	if observer == nil {
		observer = nopObserver{}
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	return &Scheduler{
		logger:      logger,
		sampler:     sampler,
		sink:        sink,
		observer:    observer,
		hostname:    hostname,
		concurrency: concurrency,
		sendTimeout: sendTimeout,
	}
}

// Run waits for the first config event, then samples once per period until
// ctx is done. Every later config event re-runs initialization and resets the
// period. Cycles never overlap.
func (s *Scheduler) Run(ctx context.Context, events <-chan config.Event) error {
	var (
		ticker     *time.Ticker
		tickC      <-chan time.Time
		configured bool
	)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				if !configured {
					return ErrSourceClosed
				}
				events = nil
				continue
			}
			period, err := s.configure(ctx, ev, !configured)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			configured = true
			// time.Ticker keeps a fixed schedule and drops ticks it cannot deliver.
			if ticker == nil {
				ticker = time.NewTicker(period)
				tickC = ticker.C
			} else {
				ticker.Reset(period)
			}
		case <-tickC:
			if err := s.cycle(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if isFatal(err) {
					return err
				}
				s.logger.Errorw("sample cycle failed", "error", err)
			}
		}
	}
}

func (s *Scheduler) configure(ctx context.Context, ev config.Event, first bool) (time.Duration, error) {
	cfg, err := config.ParseSourceConfig(ev, s.hostname)
	if err != nil {
		return 0, fmt.Errorf("apply config event: %w", err)
	}
	decl, err := s.sampler.Configure(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("configure host reader: %w", err)
	}

	declCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	if err := s.sink.Declare(declCtx, decl); err != nil {
		if first {
			return 0, fmt.Errorf("declare metrics: %w", err)
		}
		s.logger.Errorw("declare metrics failed after reconfiguration", "metrics", len(decl), "error", err)
	}

	s.observer.Configured(cfg, len(decl))
	s.logger.Infow("sampling configured",
		"prefix", cfg.Prefix,
		"rate", cfg.Rate,
		"period", cfg.Period(),
		"metrics", len(decl),
	)
	return cfg.Period(), nil
}

func (s *Scheduler) cycle(ctx context.Context) error {
	points, err := s.sampler.Collect(ctx)
	if err != nil {
		return err
	}
	at := time.Now().UTC()
	if len(points) > 0 {
		at = points[0].Timestamp
	}
	s.observer.Sampled(at, len(points))

	var (
		g      errgroup.Group
		failed atomic.Int64
	)
	g.SetLimit(s.concurrency)
	for _, p := range points {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
			defer cancel()
			if err := s.sink.Send(sendCtx, p); err != nil {
				failed.Add(1)
				s.logger.Warnw("send point failed", "metric", p.Metric, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	nFailed := int(failed.Load())
	s.observer.Dispatched(len(points)-nFailed, nFailed)
	if nFailed > 0 {
		s.logger.Debugw("cycle dispatched with failures", "points", len(points), "failed", nFailed)
	}
	return nil
}
