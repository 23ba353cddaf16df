// Package rank implements the Rank stage: fusing statistical, temporal,
// literature, and cluster-dedup features into a single reproducible score.
package rank

import (
	"math"

	"github.com/pvsignal/engine/internal/config"
	"github.com/pvsignal/engine/internal/models"
)

// Features holds the per-(drug,event) fusion inputs combined into the
// final score: a statistical signal, its confidence interval tightness,
// a temporal trend, literature corroboration, and a cluster-dedup penalty.
type Features struct {
	Stat           float64
	CI             float64
	Trend          float64
	Lit            float64
	ClusterPenalty float64
}

// StatFeature caps the contribution of small-a rows: log(max(ROR_shrunk,1))
// scaled by min(1, a/10).
func StatFeature(rorShrunk float64, a int64) float64 {
	base := rorShrunk
	if base < 1 {
		base = 1
	}
	scale := float64(a) / 10
	if scale > 1 {
		scale = 1
	}
	return math.Log(base) * scale
}

// CIFeature is a smooth penalty below the conventional significance
// threshold: 1 when the CI clears it, otherwise the lower bound itself.
func CIFeature(ciLow float64) float64 {
	if ciLow > 1 {
		return 1
	}
	return ciLow
}

// TrendFeature keeps only rising trends; a falling or undefined trend
// contributes nothing.
func TrendFeature(trendZ *float64) float64 {
	if trendZ == nil {
		return 0
	}
	if *trendZ < 0 {
		return 0
	}
	return *trendZ
}

// LitFeature scores literature support: log(1+n_mentions) * mean
// confidence, with an additive +0.5 bonus when more than half the
// mentions are recent.
func LitFeature(support models.LiteratureSupport) float64 {
	score := math.Log(1+float64(support.NMentions)) * support.MeanConfidence()
	if support.RecentFraction > 0.5 {
		score += 0.5
	}
	return score
}

// ClusterPenalty downweights events whose cluster contains many other
// already-signaling members: 1/(1+membersWithSignal-1), i.e. 1/members
// when every cluster member is itself a signal.
func ClusterPenalty(membersWithSignal int) float64 {
	if membersWithSignal <= 1 {
		return 1
	}
	return 1 / (1 + float64(membersWithSignal-1))
}

// FinalScore fuses Features under w into the single ranking score:
// (w_stat*stat + w_trend*trend + w_lit*lit) * ci * cluster_penalty.
func FinalScore(f Features, w config.RankWeights) float64 {
	return (w.Stat*f.Stat + w.Trend*f.Trend + w.Lit*f.Lit) * f.CI * f.ClusterPenalty
}
