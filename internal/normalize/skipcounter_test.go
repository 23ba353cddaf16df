package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkipCounterToleratesWithinBudget(t *testing.T) {
	c := NewSkipCounter(0.01)
	for i := 0; i < 1000; i++ {
		skipped := i%200 == 0 // 0.5%
		require.NoError(t, c.Observe(skipped))
	}
}

func TestSkipCounterPromotesToFatalOverBudget(t *testing.T) {
	c := NewSkipCounter(0.01)
	var lastErr error
	for i := 0; i < 200; i++ {
		skipped := i%5 == 0 // 20%
		if err := c.Observe(skipped); err != nil {
			lastErr = err
			break
		}
	}
	require.Error(t, lastErr)
}
