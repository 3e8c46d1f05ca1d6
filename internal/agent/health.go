package agent

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"sysinfo-agent/internal/config"
	"sysinfo-agent/internal/model"
	"sysinfo-agent/internal/stream"
)

// HealthStatus tracks sampling and delivery progress for the probe endpoints.
type HealthStatus struct {
	configured      atomic.Bool
	streamConnected atomic.Bool
	lastSampleAt    atomic.Int64
	lastPoints      atomic.Int64
	pointsSent      atomic.Uint64
	pointsFailed    atomic.Uint64
	declared        atomic.Int64

	mu     sync.RWMutex
	source config.SourceConfig
}

func NewHealthStatus() *HealthStatus {
	return &HealthStatus{}
}

func (h *HealthStatus) Configured(cfg config.SourceConfig, metrics int) {
	h.mu.Lock()
	h.source = cfg
	h.mu.Unlock()
	h.declared.Store(int64(metrics))
	h.configured.Store(true)
}

func (h *HealthStatus) Sampled(at time.Time, points int) {
	h.lastSampleAt.Store(at.UnixNano())
	h.lastPoints.Store(int64(points))
}

func (h *HealthStatus) Dispatched(sent, failed int) {
	h.pointsSent.Add(uint64(sent))
	h.pointsFailed.Add(uint64(failed))
}

func (h *HealthStatus) SetStreamConnected(ok bool) {
	h.streamConnected.Store(ok)
}

// Ready reports whether the agent has been configured and its last delivery
// attempt succeeded.
func (h *HealthStatus) Ready() bool {
	return h.configured.Load() && h.streamConnected.Load()
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"configured":        h.configured.Load(),
		"stream_connected":  h.streamConnected.Load(),
		"declared_metrics":  h.declared.Load(),
		"last_cycle_points": h.lastPoints.Load(),
		"points_sent":       h.pointsSent.Load(),
		"points_failed":     h.pointsFailed.Load(),
	}
	if h.configured.Load() {
		h.mu.RLock()
		out["prefix"] = h.source.Prefix
		out["rate"] = h.source.Rate
		h.mu.RUnlock()
	}
	if v := h.lastSampleAt.Load(); v > 0 {
		out["last_sample_at"] = time.Unix(0, v).UTC()
	}
	return out
}

// healthSink records the outcome of every delivery on the health status.
type healthSink struct {
	sink   stream.Sink
	health *HealthStatus
}

func (s *healthSink) Declare(ctx context.Context, decl model.Declarations) error {
	err := s.sink.Declare(ctx, decl)
	s.health.SetStreamConnected(err == nil)
	return err
}

func (s *healthSink) Send(ctx context.Context, p model.Point) error {
	err := s.sink.Send(ctx, p)
	s.health.SetStreamConnected(err == nil)
	return err
}

func (s *healthSink) Close(ctx context.Context) error {
	err := s.sink.Close(ctx)
	s.health.SetStreamConnected(false)
	return err
}
