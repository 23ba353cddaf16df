// Package signal implements the Signal stage: disproportionality scoring
// (Reporting Odds Ratio with Bayesian shrinkage) and across-quarter trend
// statistics, computed per (drug, event, quarter) and per (drug, event)
// aggregated across all quarters.
package signal

import "math"

// correctedCell is a 2x2 table after the Haldane-Anscombe correction has
// been applied, if needed.
type correctedCell struct {
	a, b, c, d float64
}

// correct applies the Haldane-Anscombe +0.5-per-cell correction when any
// cell is zero, and leaves the table untouched otherwise.
func correct(a, b, c, d int64) correctedCell {
	if a == 0 || b == 0 || c == 0 || d == 0 {
		return correctedCell{float64(a) + 0.5, float64(b) + 0.5, float64(c) + 0.5, float64(d) + 0.5}
	}
	return correctedCell{float64(a), float64(b), float64(c), float64(d)}
}

// ROR computes the Reporting Odds Ratio with Haldane-Anscombe correction.
func ROR(a, b, c, d int64) float64 {
	cc := correct(a, b, c, d)
	return (cc.a * cc.d) / (cc.b * cc.c)
}

// LogRORVariance is the variance of log(ROR) under the standard normal
// approximation: sum of reciprocals of the corrected cells.
func LogRORVariance(a, b, c, d int64) float64 {
	cc := correct(a, b, c, d)
	return 1/cc.a + 1/cc.b + 1/cc.c + 1/cc.d
}

// ConfidenceInterval returns the 95% CI on ROR itself (exponentiated from
// the log-ROR CI), using the Haldane-Anscombe corrected cells.
func ConfidenceInterval(a, b, c, d int64) (low, high float64) {
	cc := correct(a, b, c, d)
	logROR := math.Log((cc.a * cc.d) / (cc.b * cc.c))
	se := math.Sqrt(LogRORVariance(a, b, c, d))
	return math.Exp(logROR - 1.96*se), math.Exp(logROR + 1.96*se)
}

// Undefined reports whether (a,b,c,d) has a zero a+b or c+d margin, which
// leaves ROR undefined regardless of the Haldane-Anscombe correction
// (there is nothing to compare against).
func Undefined(a, b, c, d int64) (undefined bool, reason string) {
	if a+b == 0 {
		return true, "zero_margin_a_b"
	}
	if c+d == 0 {
		return true, "zero_margin_c_d"
	}
	return false, ""
}
