package signal

import "math"

// expClamp bounds exp's argument so a pathological prior fit can't produce
// +Inf in the output table.
const expClamp = 50.0

func expClamped(x float64) float64 {
	if x > expClamp {
		x = expClamp
	}
	if x < -expClamp {
		x = -expClamp
	}
	return math.Exp(x)
}
