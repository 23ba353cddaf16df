package extract

import "github.com/pvsignal/engine/internal/models"

var triggerLexicon = map[string]bool{
	"caused": true, "causes": true, "causing": true,
	"associated": true, "induced": true, "induces": true, "inducing": true,
	"led": true, "resulted": true, "linked": true,
}

var negationCues = map[string]bool{"no": true, "not": true, "without": true, "never": true, "denies": true}
var uncertaintyCues = map[string]bool{"may": true, "possibly": true, "might": true, "could": true, "suggests": true}

const cueWindow = 5

// Weights for the confidence feature sum. Tuned for precision: missed
// mentions are acceptable, noisy positives are not.
const (
	wAdjacency = 0.4
	wTrigger   = 0.4
	wBase      = 0.2
)

// Feature holds the intermediate scoring signal for one candidate pair,
// kept separate from the final Confidence computation so tests can assert
// on individual cues.
type Feature struct {
	Adjacency        float64
	HasTrigger       bool
	NegationCount    int
	UncertaintyCount int
}

// ComputeFeature derives the heuristic features for a drug span and an
// event span within the same tokenized sentence.
func ComputeFeature(tokens []string, drug, event Span) Feature {
	dist := tokenDistance(drug, event)
	f := Feature{Adjacency: adjacencyScore(dist)}

	lo, hi := cueWindowBounds(drug, event, len(tokens))
	for i := lo; i < hi; i++ {
		if i >= drug.Start && i < drug.End || i >= event.Start && i < event.End {
			continue
		}
		tok := tokens[i]
		if triggerLexicon[tok] {
			f.HasTrigger = true
		}
		if negationCues[tok] {
			f.NegationCount++
		}
		if uncertaintyCues[tok] {
			f.UncertaintyCount++
		}
	}
	return f
}

func tokenDistance(a, b Span) int {
	if a.End <= b.Start {
		return b.Start - a.End
	}
	if b.End <= a.Start {
		return a.Start - b.End
	}
	return 0
}

// adjacencyScore is an inverse-distance score clipped to [0, 1]: adjacent
// spans (distance 0) score 1; the score decays to 0 by a 10-token gap.
func adjacencyScore(distance int) float64 {
	const maxDistance = 10
	if distance >= maxDistance {
		return 0
	}
	return 1 - float64(distance)/float64(maxDistance)
}

func cueWindowBounds(drug, event Span, tokenCount int) (int, int) {
	lo := min(drug.Start, event.Start) - cueWindow
	hi := max(drug.End, event.End) + cueWindow
	if lo < 0 {
		lo = 0
	}
	if hi > tokenCount {
		hi = tokenCount
	}
	return lo, hi
}

// Confidence combines a Feature into a single score in [0, 1].
func (f Feature) Confidence() float64 {
	score := wAdjacency*f.Adjacency + wBase
	if f.HasTrigger {
		score += wTrigger
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Polarity classifies asserted/negated/uncertain from cue counts: whichever
// cue dominates (strictly outnumbers the other) wins; a tie or no cues at
// all defaults to asserted.
func (f Feature) Polarity() models.Polarity {
	switch {
	case f.NegationCount > f.UncertaintyCount && f.NegationCount > 0:
		return models.PolarityNegated
	case f.UncertaintyCount > f.NegationCount && f.UncertaintyCount > 0:
		return models.PolarityUncertain
	default:
		return models.PolarityAsserted
	}
}

// PolarityWeight scales confidence down for non-asserted mentions rather
// than dropping them outright: a negated or hedged mention is still weak
// evidence against a true association, not proof of one.
func PolarityWeight(p models.Polarity) float64 {
	switch p {
	case models.PolarityNegated:
		return 0.3
	case models.PolarityUncertain:
		return 0.6
	default:
		return 1.0
	}
}
