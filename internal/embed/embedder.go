// Package embed implements the Embed stage: embedding event strings with a
// deterministic, seed-pinned provider and clustering near-duplicate events
// by cosine distance.
package embed

import (
	"math"
	"math/rand"
)

// Provider is the capability interface for turning text into a fixed-size
// vector. A real deployment would swap in a CPU-friendly sentence
// embedder; this package is provider-agnostic.
type Provider interface {
	Embed(text string) []float64
	Dimensions() int
}

// HashEmbedder is a deterministic, seed-pinned embedder with no model
// weights: the same text always yields the same unit vector, which is all
// the clustering algorithm in this package requires. It hashes the text
// into a seed, draws a seeded-random vector, and normalizes it to unit
// length; the seed is pinned from configuration rather than drawn from
// process-level randomness, so runs are reproducible across processes, not
// just deterministic within one.
type HashEmbedder struct {
	dimensions int
	seed       int64
}

// NewHashEmbedder creates an embedder producing vectors of the given
// dimensionality, salted by seed so the whole pipeline's run seed
// propagates into embedding space.
func NewHashEmbedder(dimensions int, seed int64) *HashEmbedder {
	return &HashEmbedder{dimensions: dimensions, seed: seed}
}

func (e *HashEmbedder) Dimensions() int { return e.dimensions }

// Embed hashes text (salted by the embedder's seed) into a PRNG seed and
// draws a unit-length vector from it.
func (e *HashEmbedder) Embed(text string) []float64 {
	hash := e.seed
	for _, r := range text {
		hash = hash*31 + int64(r)
	}
	rng := rand.New(rand.NewSource(hash))

	v := make([]float64, e.dimensions)
	for i := range v {
		v[i] = rng.Float64()*2 - 1
	}
	return normalize(v)
}

func normalize(v []float64) []float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// CosineSimilarity returns the cosine similarity of two equal-length unit
// (or arbitrary) vectors.
func CosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
