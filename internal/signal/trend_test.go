package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitTrendDetectsRisingSlope(t *testing.T) {
	// a = [2,4,8,16] over 4 quarters with stable b,c,d, so log(ROR) grows
	// roughly linearly with quarter index.
	logRORs := make([]float64, 4)
	variances := make([]float64, 4)
	for i, a := range []float64{2, 4, 8, 16} {
		ror := (a * 100) / (10 * 50)
		logRORs[i] = math.Log(ror)
		variances[i] = 1/a + 1.0/10 + 1.0/50 + 1.0/100
	}

	trend, ok := FitTrend(logRORs, variances)
	require.True(t, ok)
	assert.Greater(t, trend.Z, 2.0)
	assert.Equal(t, 4, trend.Quarters)
}

func TestFitTrendUndefinedBelowMinQuarters(t *testing.T) {
	_, ok := FitTrend([]float64{0.1, 0.2}, []float64{0.5, 0.5})
	require.False(t, ok)
}

func TestFitTrendFlatSlopeNearZeroZ(t *testing.T) {
	logRORs := []float64{0.5, 0.5, 0.5, 0.5}
	variances := []float64{0.1, 0.1, 0.1, 0.1}
	trend, ok := FitTrend(logRORs, variances)
	require.True(t, ok)
	assert.InDelta(t, 0, trend.Z, 1e-6)
}
