package signal

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Trend holds the result of a weighted-least-squares fit of log(ROR)
// against quarter index for a (drug, event) pair observed across quarters.
type Trend struct {
	Slope    float64
	Z        float64
	Quarters int
}

// MinQuartersForTrend is the minimum number of quarterly observations
// before a trend is considered defined: fewer points make a slope estimate
// too noisy to trust.
const MinQuartersForTrend = 3

// FitTrend regresses logRORs (ordered by ascending quarter index 0..n-1)
// against their quarter index, weighted by 1/variance, and returns the
// slope's z-score. Fewer than MinQuartersForTrend points leaves Z
// undefined (ok=false): a line fit through one or two points has no
// meaningful residual variance to test against.
//
// The normal equations (X^T W X) beta = X^T W y are solved with mat.Dense
// rather than closed-form weighted-regression formulas, since the same
// matrix machinery generalizes cleanly if additional regressors are added
// later.
func FitTrend(logRORs, variances []float64) (Trend, bool) {
	n := len(logRORs)
	if n < MinQuartersForTrend {
		return Trend{Quarters: n}, false
	}

	x := mat.NewDense(n, 2, nil)
	w := mat.NewDiagDense(n, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, float64(i))
		y.Set(i, 0, logRORs[i])
		v := variances[i]
		if v <= 0 {
			v = minPriorVariance
		}
		w.SetDiag(i, 1/v)
	}

	var xtw mat.Dense
	xtw.Mul(x.T(), w)
	var xtwx mat.Dense
	xtwx.Mul(&xtw, x)
	var xtwy mat.Dense
	xtwy.Mul(&xtw, y)

	var beta mat.Dense
	if err := beta.Solve(&xtwx, &xtwy); err != nil {
		return Trend{Quarters: n}, false
	}
	slope := beta.At(1, 0)

	var xtwxInv mat.Dense
	if err := xtwxInv.Inverse(&xtwx); err != nil {
		return Trend{Quarters: n}, false
	}
	seSlope := math.Sqrt(xtwxInv.At(1, 1))
	if seSlope == 0 {
		return Trend{Quarters: n}, false
	}

	return Trend{Slope: slope, Z: slope / seSlope, Quarters: n}, true
}
