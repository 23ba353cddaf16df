package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShrinkPullsTowardPriorMean(t *testing.T) {
	prior := Prior{Mu: 0, Sigma2: 0.05}
	// A large observed logROR with high variance (low confidence) should
	// shrink substantially toward the prior mean of 1 (exp(0)).
	shrunk := Shrink(math.Log(20), 4.0, prior)
	assert.Less(t, shrunk, 20.0)
	assert.Greater(t, shrunk, 1.0)
}

func TestShrinkHoldsSteadyWithLowVarianceAndAgreeingPrior(t *testing.T) {
	prior := Prior{Mu: math.Log(5), Sigma2: 0.01}
	shrunk := Shrink(math.Log(5), 0.001, prior)
	assert.InDelta(t, 5.0, shrunk, 0.2)
}

func TestFitPriorSingleRowUsesFloorVariance(t *testing.T) {
	prior := FitPrior([]float64{math.Log(3)}, []float64{0.2})
	assert.InDelta(t, math.Log(3), prior.Mu, 1e-9)
	assert.GreaterOrEqual(t, prior.Sigma2, minPriorVariance)
}

func TestFitPriorEmptyReturnsDefault(t *testing.T) {
	prior := FitPrior(nil, nil)
	assert.Equal(t, 0.0, prior.Mu)
}
