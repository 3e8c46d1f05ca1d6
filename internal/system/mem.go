package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

type virtualMemoryField struct {
	name  string
	value func(*mem.VirtualMemoryStat) float64
}

type swapField struct {
	name  string
	value func(*mem.SwapMemoryStat) float64
}

var virtualMemorySchema = []virtualMemoryField{
	{"total", func(v *mem.VirtualMemoryStat) float64 { return float64(v.Total) }},
	{"available", func(v *mem.VirtualMemoryStat) float64 { return float64(v.Available) }},
	{"percent", func(v *mem.VirtualMemoryStat) float64 { return v.UsedPercent }},
	{"used", func(v *mem.VirtualMemoryStat) float64 { return float64(v.Used) }},
	{"free", func(v *mem.VirtualMemoryStat) float64 { return float64(v.Free) }},
	{"active", func(v *mem.VirtualMemoryStat) float64 { return float64(v.Active) }},
	{"inactive", func(v *mem.VirtualMemoryStat) float64 { return float64(v.Inactive) }},
	{"buffers", func(v *mem.VirtualMemoryStat) float64 { return float64(v.Buffers) }},
	{"cached", func(v *mem.VirtualMemoryStat) float64 { return float64(v.Cached) }},
	{"shared", func(v *mem.VirtualMemoryStat) float64 { return float64(v.Shared) }},
	{"slab", func(v *mem.VirtualMemoryStat) float64 { return float64(v.Slab) }},
}

var swapSchema = []swapField{
	{"total", func(s *mem.SwapMemoryStat) float64 { return float64(s.Total) }},
	{"used", func(s *mem.SwapMemoryStat) float64 { return float64(s.Used) }},
	{"free", func(s *mem.SwapMemoryStat) float64 { return float64(s.Free) }},
	{"percent", func(s *mem.SwapMemoryStat) float64 { return s.UsedPercent }},
	{"sin", func(s *mem.SwapMemoryStat) float64 { return float64(s.Sin) }},
	{"sout", func(s *mem.SwapMemoryStat) float64 { return float64(s.Sout) }},
}

// VirtualMemory reads the schema fields out of gopsutil's VirtualMemoryStat.
// The field set is fixed by the accessor table above, so a renamed or removed
// gopsutil field breaks the build rather than the schema check.
func (HostProvider) VirtualMemory(ctx context.Context) (Fields, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("read virtual memory: %w", err)
	}
	out := make(Fields, len(virtualMemorySchema))
	for _, f := range virtualMemorySchema {
		out[f.name] = f.value(v)
	}
	return out, nil
}

// Swap reads the schema fields out of gopsutil's SwapMemoryStat through the
// accessor table, like VirtualMemory.
func (HostProvider) Swap(ctx context.Context) (Fields, error) {
	s, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("read swap memory: %w", err)
	}
	out := make(Fields, len(swapSchema))
	for _, f := range swapSchema {
		out[f.name] = f.value(s)
	}
	return out, nil
}
