package system

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUPercentPerCore returns the busy percentage of every logical CPU since the
// previous call. The first call in a process only establishes the baseline.
func (HostProvider) CPUPercentPerCore(ctx context.Context) ([]float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return nil, fmt.Errorf("read per-cpu percent: %w", err)
	}
	return percents, nil
}

// SumPercent adds per-core percentages; 100 means one logical CPU fully busy.
func SumPercent(perCore []float64) float64 {
	var total float64
	for _, p := range perCore {
		total += p
	}
	return total
}
