package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldNames(t *testing.T) {
	assert.Equal(t, []string{
		"total", "available", "percent", "used", "free",
		"active", "inactive", "buffers", "cached", "shared", "slab",
	}, VirtualMemoryFieldNames())
	assert.Equal(t, []string{"total", "used", "free", "percent", "sin", "sout"}, SwapFieldNames())
}

func TestValidateFields(t *testing.T) {
	expected := []string{"total", "percent"}

	t.Run("exact match", func(t *testing.T) {
		require.NoError(t, ValidateFields("swap", expected, Fields{"total": 1, "percent": 2}))
	})

	t.Run("missing field", func(t *testing.T) {
		err := ValidateFields("swap", expected, Fields{"total": 1})
		require.ErrorIs(t, err, ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "missing=[percent]")
	})

	t.Run("unexpected field", func(t *testing.T) {
		err := ValidateFields("swap", expected, Fields{"total": 1, "percent": 2, "zswap": 3})
		require.ErrorIs(t, err, ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "unexpected=[zswap]")
	})
}

func TestSumPercent(t *testing.T) {
	assert.Equal(t, 0.0, SumPercent(nil))
	assert.InDelta(t, 150.5, SumPercent([]float64{100, 50.5}), 1e-9)
}
