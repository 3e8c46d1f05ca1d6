package host

import (
	"fmt"
	"sort"

	"sysinfo-agent/internal/config"
	"sysinfo-agent/internal/model"
	"sysinfo-agent/internal/system"
)

const (
	unitPercent        = "%"
	unitBytes          = "B"
	unitBytesPerSecond = "B/s"
	unitHertz          = "Hz"

	cpuUsageMetric      = "cpu.usage"
	cpuUsageDescription = "CPU usage (100% = 1 logical CPU busy)"

	virtualMemoryDescription = "Virtual memory field %s as reported by the kernel"
	swapDescription          = "Swap memory field %s as reported by the kernel"
)

func memoryUnit(field string) string {
	if field == "percent" {
		return unitPercent
	}
	return unitBytes
}

// buildDeclarations assembles the declaration batch for the given device sets.
// nics must already be filtered.
func buildDeclarations(cfg config.SourceConfig, nics, disks []string) model.Declarations {
	decl := model.Declarations{}
	add := func(name, description, unit string) {
		decl[cfg.Prefix+name] = model.MetricMetadata{Rate: cfg.Rate, Description: description, Unit: unit}
	}

	add(cpuUsageMetric, cpuUsageDescription, unitPercent)
	for _, field := range system.VirtualMemoryFieldNames() {
		add("mem."+field, fmt.Sprintf(virtualMemoryDescription, field), memoryUnit(field))
	}
	for _, field := range system.SwapFieldNames() {
		add("swap."+field, fmt.Sprintf(swapDescription, field), memoryUnit(field))
	}

	for _, nic := range nics {
		for _, dir := range []string{"sent", "recv"} {
			add(fmt.Sprintf("net.%s.%s.bytes", nic, dir), fmt.Sprintf("Total data %s on nic %s", dir, nic), unitBytesPerSecond)
			add(fmt.Sprintf("net.%s.%s.packets", nic, dir), fmt.Sprintf("Number of packets %s on nic %s", dir, nic), unitHertz)
		}
	}

	for _, d := range disks {
		add(fmt.Sprintf("disk.%s.read.bytes", d), fmt.Sprintf("Total data read on partition %s", d), unitBytesPerSecond)
		add(fmt.Sprintf("disk.%s.read.count", d), fmt.Sprintf("Number of reads on partition %s", d), unitHertz)
		add(fmt.Sprintf("disk.%s.written.bytes", d), fmt.Sprintf("Total data written on partition %s", d), unitBytesPerSecond)
		add(fmt.Sprintf("disk.%s.written.count", d), fmt.Sprintf("Number of writes on partition %s", d), unitHertz)
	}
	return decl
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
