package host

import (
	"errors"
	"time"

	"sysinfo-agent/internal/system"
)

// ErrNotConfigured is returned by Collect before the first successful Configure.
var ErrNotConfigured = errors.New("host reader: collect called before configure")

// Snapshot holds the counters of the previous sample. It is replaced as a whole
// and never mutated in place.
type Snapshot struct {
	At   time.Time
	Net  map[string]system.NetCounters
	Disk map[string]system.DiskCounters
}

// counterRate returns (cur - prev) / seconds. The difference is taken as a
// signed value so a counter that went backwards yields a negative rate.
func counterRate(cur, prev uint64, seconds float64) float64 {
	return float64(int64(cur-prev)) / seconds
}

type counterPair struct {
	suffix string
	cur    uint64
	prev   uint64
}

func netPairs(cur, prev system.NetCounters) []counterPair {
	return []counterPair{
		{"sent.bytes", cur.BytesSent, prev.BytesSent},
		{"sent.packets", cur.PacketsSent, prev.PacketsSent},
		{"recv.bytes", cur.BytesRecv, prev.BytesRecv},
		{"recv.packets", cur.PacketsRecv, prev.PacketsRecv},
	}
}

func diskPairs(cur, prev system.DiskCounters) []counterPair {
	return []counterPair{
		{"written.bytes", cur.WriteBytes, prev.WriteBytes},
		{"written.count", cur.WriteCount, prev.WriteCount},
		{"read.bytes", cur.ReadBytes, prev.ReadBytes},
		{"read.count", cur.ReadCount, prev.ReadCount},
	}
}
