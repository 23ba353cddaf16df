package signal

import "gonum.org/v1/gonum/stat"

// Prior is a log-normal prior on log(ROR): log(ROR) ~ N(Mu, Sigma2).
type Prior struct {
	Mu     float64
	Sigma2 float64
}

// minPriorVariance floors the fitted between-row variance so shrinkage
// never divides by zero when every row in an aggregation happens to agree.
const minPriorVariance = 1e-4

// FitPrior fits Prior by method of moments across an aggregation of
// (logROR, variance) pairs, weighted by 1/variance: the weighted mean of
// logROR estimates Mu, and the weighted variance of logROR in excess of
// the mean within-row variance estimates Sigma2 (the between-row
// component method-of-moments removes the known sampling noise from the
// raw spread of observed log(ROR) values).
func FitPrior(logRORs, variances []float64) Prior {
	if len(logRORs) == 0 {
		return Prior{Mu: 0, Sigma2: minPriorVariance}
	}
	weights := make([]float64, len(variances))
	for i, v := range variances {
		if v <= 0 {
			v = minPriorVariance
		}
		weights[i] = 1 / v
	}

	mu := stat.Mean(logRORs, weights)
	if len(logRORs) == 1 {
		return Prior{Mu: mu, Sigma2: minPriorVariance}
	}

	rawVar := stat.Variance(logRORs, weights)
	meanWithinVar := stat.Mean(variances, weights)
	sigma2 := rawVar - meanWithinVar
	if sigma2 < minPriorVariance {
		sigma2 = minPriorVariance
	}
	return Prior{Mu: mu, Sigma2: sigma2}
}

// Shrink computes the posterior shrunk ROR for one row given the fitted
// Prior by combining the row's own log(ROR) estimate with the prior mean,
// each weighted by its precision (inverse variance).
func Shrink(logROR, variance float64, prior Prior) float64 {
	if variance <= 0 {
		variance = minPriorVariance
	}
	precisionRow := 1 / variance
	precisionPrior := 1 / prior.Sigma2
	shrunkLog := (logROR*precisionRow + prior.Mu*precisionPrior) / (precisionRow + precisionPrior)
	return expClamped(shrunkLog)
}
