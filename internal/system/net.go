package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/net"
)

type NetCounters struct {
	BytesSent   uint64
	PacketsSent uint64
	BytesRecv   uint64
	PacketsRecv uint64
}

func (HostProvider) NetCounters(ctx context.Context) (map[string]NetCounters, error) {
	stats, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("read per-nic counters: %w", err)
	}
	out := make(map[string]NetCounters, len(stats))
	for _, s := range stats {
		out[s.Name] = NetCounters{
			BytesSent:   s.BytesSent,
			PacketsSent: s.PacketsSent,
			BytesRecv:   s.BytesRecv,
			PacketsRecv: s.PacketsRecv,
		}
	}
	return out, nil
}
