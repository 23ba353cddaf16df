package extract

import (
	"testing"

	"github.com/pvsignal/engine/internal/synonym"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	sents := SplitSentences("Ibuprofen caused nausea. Patient recovered fully.")
	require.Len(t, sents, 2)
	require.Equal(t, "Ibuprofen caused nausea.", sents[0])
}

func TestDetectSpansLongestMatch(t *testing.T) {
	r := synonym.New([]synonym.Entry{
		{ID: "E1", Synonyms: []string{"acute kidney injury"}},
		{ID: "E2", Synonyms: []string{"kidney injury"}},
	}, 0)
	tokens := Tokenize("patient developed acute kidney injury after treatment")
	spans := DetectSpans(tokens, r, SpanEvent)
	require.Len(t, spans, 1)
	require.Equal(t, "E1", spans[0].ID, "longest dictionary match must win over the shorter substring")
}

func TestResolveOverlapsPrefersDrugThenEarlierStart(t *testing.T) {
	drug := Span{Start: 2, End: 3, Kind: SpanDrug, ID: "D1"}
	event := Span{Start: 2, End: 4, Kind: SpanEvent, ID: "E1"}
	kept := ResolveOverlaps([]Span{drug}, []Span{event})
	require.Len(t, kept, 1)
	require.Equal(t, "D1", kept[0].ID)
}

func TestComputeFeatureDetectsNegation(t *testing.T) {
	tokens := Tokenize("the patient had no evidence of nausea after ibuprofen")
	drug := Span{Start: 8, End: 9}
	event := Span{Start: 6, End: 7}
	f := ComputeFeature(tokens, drug, event)
	require.Greater(t, f.NegationCount, 0)
	require.Equal(t, "negated", string(f.Polarity()))
}

func TestConfidenceFloorFiltersLowScores(t *testing.T) {
	f := Feature{Adjacency: 0, HasTrigger: false}
	require.Less(t, f.Confidence(), 0.3)
}

func TestConfidenceWithTriggerAndAdjacencyClearsFloor(t *testing.T) {
	f := Feature{Adjacency: 1, HasTrigger: true}
	require.GreaterOrEqual(t, f.Confidence(), 0.3)
}
