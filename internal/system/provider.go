package system

import (
	"context"
)

// Provider exposes cumulative host counters. Implementations must not block for
// a sampling interval; rate derivation is done by the caller.
type Provider interface {
	CPUPercentPerCore(ctx context.Context) ([]float64, error)
	VirtualMemory(ctx context.Context) (Fields, error)
	Swap(ctx context.Context) (Fields, error)
	NetCounters(ctx context.Context) (map[string]NetCounters, error)
	DiskCounters(ctx context.Context) (map[string]DiskCounters, error)
}

// Fields maps a memory field name to its current reading.
type Fields map[string]float64

// HostProvider reads counters of the local host through gopsutil.
type HostProvider struct{}

var _ Provider = HostProvider{}

func NewHostProvider() HostProvider {
	return HostProvider{}
}
