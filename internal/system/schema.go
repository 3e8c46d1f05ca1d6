package system

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// SchemaVersion is bumped whenever a memory field is added, removed or renamed.
const SchemaVersion = 1

var ErrSchemaMismatch = errors.New("counter schema mismatch")

// VirtualMemoryFieldNames lists the virtual memory fields in emission order.
func VirtualMemoryFieldNames() []string {
	names := make([]string, 0, len(virtualMemorySchema))
	for _, f := range virtualMemorySchema {
		names = append(names, f.name)
	}
	return names
}

// SwapFieldNames lists the swap fields in emission order.
func SwapFieldNames() []string {
	names := make([]string, 0, len(swapSchema))
	for _, f := range swapSchema {
		names = append(names, f.name)
	}
	return names
}

// ValidateFields checks that a provider reading carries exactly the expected field set.
// HostProvider satisfies it by construction; the check guards other Provider
// implementations, whose field sets are not derived from the schema tables.
func ValidateFields(kind string, expected []string, got Fields) error {
	var missing, unexpected []string
	want := make(map[string]struct{}, len(expected))
	for _, name := range expected {
		want[name] = struct{}{}
		if _, ok := got[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range got {
		if _, ok := want[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	if len(missing) == 0 && len(unexpected) == 0 {
		return nil
	}
	sort.Strings(unexpected)
	return fmt.Errorf("%w: %s schema v%d missing=[%s] unexpected=[%s]",
		ErrSchemaMismatch, kind, SchemaVersion, strings.Join(missing, ","), strings.Join(unexpected, ","))
}
