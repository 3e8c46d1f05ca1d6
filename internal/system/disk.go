package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

type DiskCounters struct {
	ReadBytes  uint64
	ReadCount  uint64
	WriteBytes uint64
	WriteCount uint64
}

func (HostProvider) DiskCounters(ctx context.Context) (map[string]DiskCounters, error) {
	stats, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("read per-disk counters: %w", err)
	}
	out := make(map[string]DiskCounters, len(stats))
	for name, s := range stats {
		out[name] = DiskCounters{
			ReadBytes:  s.ReadBytes,
			ReadCount:  s.ReadCount,
			WriteBytes: s.WriteBytes,
			WriteCount: s.WriteCount,
		}
	}
	return out, nil
}
