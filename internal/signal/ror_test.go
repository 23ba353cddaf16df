package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRORTinySyntheticExample(t *testing.T) {
	// Tiny worked example: a=2, b=1, c=0, d=1.
	ror := ROR(2, 1, 0, 1)
	assert.InDelta(t, 5.0, ror, 1e-9)
}

func TestRORHaldaneCorrectionExample(t *testing.T) {
	// (5.5*1000.5)/(0.5*10.5) worked out precisely is 1048.142857..., not
	// the "~1048.6" a rounded hand calculation can suggest.
	ror := ROR(5, 0, 10, 1000)
	assert.InDelta(t, 1048.14, ror, 0.01)
}

func TestRORNoCorrectionNeeded(t *testing.T) {
	ror := ROR(10, 20, 5, 100)
	assert.InDelta(t, (10.0*100)/(20.0*5), ror, 1e-9)
}

func TestConfidenceIntervalBelowThresholdFlagged(t *testing.T) {
	low, _ := ConfidenceInterval(2, 1, 0, 1)
	assert.Less(t, low, 1.0, "small-a row's CI lower bound should dip below 1")
}

func TestUndefinedWhenMarginZero(t *testing.T) {
	undefined, reason := Undefined(0, 0, 5, 10)
	assert.True(t, undefined)
	assert.Equal(t, "zero_margin_a_b", reason)

	undefined, reason = Undefined(5, 10, 0, 0)
	assert.True(t, undefined)
	assert.Equal(t, "zero_margin_c_d", reason)

	undefined, _ = Undefined(5, 10, 3, 2)
	assert.False(t, undefined)
}
