package rank

import (
	"testing"

	"github.com/pvsignal/engine/internal/config"
	"github.com/pvsignal/engine/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestStatFeatureCapsSmallA(t *testing.T) {
	full := StatFeature(10, 20) // a >= 10, scale = 1
	capped := StatFeature(10, 2) // a = 2, scale = 0.2
	assert.Greater(t, full, capped)
}

func TestCIFeatureSmoothPenalty(t *testing.T) {
	assert.Equal(t, 1.0, CIFeature(1.5))
	assert.Equal(t, 0.6, CIFeature(0.6))
}

func TestTrendFeatureIgnoresNegativeAndUndefined(t *testing.T) {
	assert.Equal(t, 0.0, TrendFeature(nil))
	neg := -1.5
	assert.Equal(t, 0.0, TrendFeature(&neg))
	pos := 2.5
	assert.Equal(t, 2.5, TrendFeature(&pos))
}

func TestLitFeatureBonusForRecentMentions(t *testing.T) {
	without := LitFeature(models.LiteratureSupport{NMentions: 10, SumConfidence: 8, RecentFraction: 0.1})
	with := LitFeature(models.LiteratureSupport{NMentions: 10, SumConfidence: 8, RecentFraction: 0.6})
	assert.InDelta(t, with-without, 0.5, 1e-9)
}

func TestClusterPenaltyThreeSignalingMembers(t *testing.T) {
	// Three clustered events all signaling reduces score by factor 1/3.
	assert.InDelta(t, 1.0/3, ClusterPenalty(3), 1e-9)
	assert.Equal(t, 1.0, ClusterPenalty(1))
}

func TestFinalScoreDefaultWeights(t *testing.T) {
	w := config.RankWeights{Stat: 1.0, Trend: 0.5, Lit: 0.5}
	f := Features{Stat: 2, CI: 1, Trend: 1, Lit: 1, ClusterPenalty: 1}
	score := FinalScore(f, w)
	assert.InDelta(t, 3.0, score, 1e-9)
}
