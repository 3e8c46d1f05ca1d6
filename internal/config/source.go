package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// MethodConfig names the inbound event that (re)configures the sampling source.
const MethodConfig = "config"

// PrefixSeparator ends every normalized metric prefix.
const PrefixSeparator = "."

var (
	ErrMissingRate   = errors.New("config: rate is required")
	ErrInvalidRate   = errors.New("config: rate must be a positive number")
	ErrInvalidPrefix = errors.New("config: prefix must be a string")
	ErrUnknownMethod = errors.New("config: unknown event method")
)

// Event is a remote-procedure-style event carrying source configuration.
type Event struct {
	Method string
	Params map[string]any
}

func NewConfigEvent(params map[string]any) Event {
	return Event{Method: MethodConfig, Params: params}
}

// SourceConfig is the validated payload of a config event.
type SourceConfig struct {
	Rate   float64
	Prefix string
}

// Period is the sampling interval derived from the rate.
func (s SourceConfig) Period() time.Duration {
	return time.Duration(float64(time.Second) / s.Rate)
}

// ParseSourceConfig validates a config event and normalizes its prefix.
func ParseSourceConfig(ev Event, hostname string) (SourceConfig, error) {
	if ev.Method != MethodConfig {
		return SourceConfig{}, fmt.Errorf("%w: %q", ErrUnknownMethod, ev.Method)
	}

	raw, ok := ev.Params["rate"]
	if !ok || raw == nil {
		return SourceConfig{}, ErrMissingRate
	}
	rate, ok := toFloat(raw)
	if !ok || rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return SourceConfig{}, fmt.Errorf("%w: %v", ErrInvalidRate, raw)
	}
	// The period must be a positive, representable time.Duration.
	if period := float64(time.Second) / rate; period < 1 || period >= math.MaxInt64 {
		return SourceConfig{}, fmt.Errorf("%w: %v (period out of range)", ErrInvalidRate, raw)
	}

	prefix := ""
	if rawPrefix, ok := ev.Params["prefix"]; ok && rawPrefix != nil {
		s, isString := rawPrefix.(string)
		if !isString {
			return SourceConfig{}, fmt.Errorf("%w: %T", ErrInvalidPrefix, rawPrefix)
		}
		prefix = s
	}

	return SourceConfig{Rate: rate, Prefix: NormalizePrefix(prefix, hostname)}, nil
}

// NormalizePrefix falls back to the hostname for an empty prefix and makes sure
// the result ends with the separator. Applying it twice changes nothing.
func NormalizePrefix(prefix, hostname string) string {
	if prefix == "" {
		prefix = hostname
	}
	if !strings.HasSuffix(prefix, PrefixSeparator) {
		prefix += PrefixSeparator
	}
	return prefix
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
