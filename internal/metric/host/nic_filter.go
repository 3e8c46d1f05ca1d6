package host

import (
	"fmt"
	"regexp"
)

// NICFilter drops interfaces whose name matches the ignore pattern.
type NICFilter struct {
	ignore *regexp.Regexp
}

// NewNICFilter compiles pattern; an empty pattern keeps every interface.
func NewNICFilter(pattern string) (*NICFilter, error) {
	if pattern == "" {
		return &NICFilter{}, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile nic ignore pattern: %w", err)
	}
	return &NICFilter{ignore: re}, nil
}

// Keep reports whether metrics should be produced for the interface.
func (f *NICFilter) Keep(name string) bool {
	if f == nil || f.ignore == nil {
		return true
	}
	return !f.ignore.MatchString(name)
}
