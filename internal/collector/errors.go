package collector

import (
	"errors"

	"sysinfo-agent/internal/metric/host"
)

// isFatal reports whether a cycle error must stop the scheduler.
func isFatal(err error) bool {
	return errors.Is(err, host.ErrNotConfigured)
}
