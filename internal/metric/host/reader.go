package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"sysinfo-agent/internal/config"
	"sysinfo-agent/internal/model"
	"sysinfo-agent/internal/system"
)

// Reader turns provider counters into declared metrics and per-cycle points.
type Reader struct {
	provider system.Provider
	nics     *NICFilter
	logger   *zap.SugaredLogger
	now      func() time.Time

	mu         sync.Mutex
	configured bool
	cfg        config.SourceConfig
	snapshot   Snapshot
}

type Option func(*Reader)

// WithClock replaces the wall clock used to stamp samples.
func WithClock(now func() time.Time) Option {
	return func(r *Reader) { r.now = now }
}

func NewReader(provider system.Provider, nics *NICFilter, logger *zap.SugaredLogger, opts ...Option) *Reader {
	r := &Reader{
		provider: provider,
		nics:     nics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configure reads a CPU baseline, seeds the snapshot with the current device
// counters and returns the declaration batch for cfg. It may be called again
// to apply a new configuration.
func (r *Reader) Configure(ctx context.Context, cfg config.SourceConfig) (model.Declarations, error) {
	// The first per-core reading only establishes the baseline for the next one.
	if _, err := r.provider.CPUPercentPerCore(ctx); err != nil {
		return nil, fmt.Errorf("cpu baseline: %w", err)
	}

	vm, err := r.provider.VirtualMemory(ctx)
	if err != nil {
		return nil, err
	}
	if err := system.ValidateFields("virtual memory", system.VirtualMemoryFieldNames(), vm); err != nil {
		return nil, err
	}
	swap, err := r.provider.Swap(ctx)
	if err != nil {
		return nil, err
	}
	if err := system.ValidateFields("swap", system.SwapFieldNames(), swap); err != nil {
		return nil, err
	}

	netCounters, err := r.provider.NetCounters(ctx)
	if err != nil {
		return nil, err
	}
	diskCounters, err := r.provider.DiskCounters(ctx)
	if err != nil {
		return nil, err
	}
	now := r.now()

	var nics []string
	for _, name := range sortedKeys(netCounters) {
		if r.nics.Keep(name) {
			nics = append(nics, name)
		}
	}
	decl := buildDeclarations(cfg, nics, sortedKeys(diskCounters))

	r.mu.Lock()
	r.cfg = cfg
	r.snapshot = Snapshot{At: now, Net: netCounters, Disk: diskCounters}
	r.configured = true
	r.mu.Unlock()

	r.logger.Infow("host reader configured",
		"prefix", cfg.Prefix,
		"rate", cfg.Rate,
		"metrics", len(decl),
		"nics", len(nics),
		"disks", len(diskCounters),
	)
	return decl, nil
}

// Collect samples all counters once and returns the points of this cycle.
// Rates are computed against the previous snapshot, which is then replaced.
func (r *Reader) Collect(ctx context.Context) ([]model.Point, error) {
	r.mu.Lock()
	if !r.configured {
		r.mu.Unlock()
		return nil, ErrNotConfigured
	}
	prefix := r.cfg.Prefix
	prev := r.snapshot
	r.mu.Unlock()

	perCore, err := r.provider.CPUPercentPerCore(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cpu: %w", err)
	}
	vm, err := r.provider.VirtualMemory(ctx)
	if err != nil {
		return nil, err
	}
	swap, err := r.provider.Swap(ctx)
	if err != nil {
		return nil, err
	}
	netCounters, err := r.provider.NetCounters(ctx)
	if err != nil {
		return nil, err
	}
	diskCounters, err := r.provider.DiskCounters(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	points := make([]model.Point, 0, 1+len(vm)+len(swap)+4*(len(netCounters)+len(diskCounters)))
	emit := func(name string, value float64) {
		points = append(points, model.Point{Metric: prefix + name, Timestamp: now, Value: value})
	}

	emit(cpuUsageMetric, system.SumPercent(perCore))
	emitFields(emit, "mem.", system.VirtualMemoryFieldNames(), vm)
	emitFields(emit, "swap.", system.SwapFieldNames(), swap)

	elapsed := now.Sub(prev.At).Seconds()
	if elapsed <= 0 {
		r.logger.Warnw("non-positive sampling interval, skipping rate metrics",
			"elapsed_seconds", elapsed,
			"previous", prev.At,
			"now", now,
		)
	} else {
		for _, nic := range sortedKeys(netCounters) {
			if !r.nics.Keep(nic) {
				continue
			}
			before, ok := prev.Net[nic]
			if !ok {
				r.logger.Debugw("nic missing from previous sample, skipping", "nic", nic)
				continue
			}
			for _, p := range netPairs(netCounters[nic], before) {
				emit("net."+nic+"."+p.suffix, counterRate(p.cur, p.prev, elapsed))
			}
		}
		for _, d := range sortedKeys(diskCounters) {
			before, ok := prev.Disk[d]
			if !ok {
				r.logger.Debugw("disk missing from previous sample, skipping", "disk", d)
				continue
			}
			for _, p := range diskPairs(diskCounters[d], before) {
				emit("disk."+d+"."+p.suffix, counterRate(p.cur, p.prev, elapsed))
			}
		}
	}

	r.mu.Lock()
	r.snapshot = Snapshot{At: now, Net: netCounters, Disk: diskCounters}
	r.mu.Unlock()

	return points, nil
}

// Snapshot returns the counters the next Collect will diff against.
func (r *Reader) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

func emitFields(emit func(string, float64), group string, names []string, fields system.Fields) {
	for _, name := range names {
		value, ok := fields[name]
		if !ok {
			continue
		}
		emit(group+name, value)
	}
}
