package system

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHostProviderMatchesSchema(t *testing.T) {
	p := NewHostProvider()

	vm, err := p.VirtualMemory(context.Background())
	if err != nil {
		t.Skipf("virtual memory not readable on this host: %v", err)
	}
	require.NoError(t, ValidateFields("virtual memory", VirtualMemoryFieldNames(), vm))

	swap, err := p.Swap(context.Background())
	if err != nil {
		t.Skipf("swap not readable on this host: %v", err)
	}
	require.NoError(t, ValidateFields("swap", SwapFieldNames(), swap))
}
