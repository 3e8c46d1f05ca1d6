package model

import "time"

// MetricMetadata is the declaration record for a single metric.
type MetricMetadata struct {
	Rate        float64 `json:"rate" yaml:"rate"`
	Description string  `json:"description" yaml:"description"`
	Unit        string  `json:"unit" yaml:"unit"`
}

// Declarations is a declaration batch keyed by fully prefixed metric name.
type Declarations map[string]MetricMetadata

// Point is one sampled value of a declared metric.
type Point struct {
	Metric    string    `json:"metric"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}
