package extract

import (
	"sort"
	"strings"

	"github.com/pvsignal/engine/internal/synonym"
)

// SpanKind distinguishes drug spans from event spans for overlap
// resolution.
type SpanKind string

const (
	SpanDrug  SpanKind = "drug"
	SpanEvent SpanKind = "event"
)

// Span is one dictionary-matched mention within a tokenized sentence,
// token indices are half-open [Start, End).
type Span struct {
	Start, End int
	Surface    string
	ID         string
	Kind       SpanKind
}

// maxSpanTokens bounds the longest-match window; drug and event names in
// this domain essentially never exceed this many words.
const maxSpanTokens = 6

// DetectSpans scans tokens for dictionary matches of kind, preferring the
// longest match starting at each position. Overlapping candidates are
// resolved by the caller (ResolveOverlaps): this function returns every
// non-overlapping-within-itself match it finds via greedy longest-match
// left to right.
func DetectSpans(tokens []string, resolver *synonym.Resolver, kind SpanKind) []Span {
	var spans []Span
	i := 0
	for i < len(tokens) {
		matched := false
		maxLen := maxSpanTokens
		if len(tokens)-i < maxLen {
			maxLen = len(tokens) - i
		}
		for length := maxLen; length >= 1; length-- {
			surface := strings.Join(tokens[i:i+length], " ")
			if id, ok := resolver.ResolveExact(surface); ok {
				spans = append(spans, Span{Start: i, End: i + length, Surface: surface, ID: id, Kind: kind})
				i += length
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return spans
}

// ResolveOverlaps merges drug and event spans detected independently,
// dropping overlapping matches: the algorithm prefers drug spans over
// event spans on overlap, and among same-kind overlaps prefers the one
// with the earlier start.
func ResolveOverlaps(drugSpans, eventSpans []Span) []Span {
	all := append(append([]Span{}, drugSpans...), eventSpans...)
	// Drugs first, then earlier start, matching the stated precedence.
	sort.SliceStable(all, func(i, j int) bool { return better(all[i], all[j]) })

	var kept []Span
	occupied := make(map[int]bool)
	for _, s := range all {
		overlap := false
		for t := s.Start; t < s.End; t++ {
			if occupied[t] {
				overlap = true
				break
			}
		}
		if overlap {
			continue
		}
		for t := s.Start; t < s.End; t++ {
			occupied[t] = true
		}
		kept = append(kept, s)
	}
	return kept
}

// better reports whether a should be preferred over b when they overlap:
// drugs beat events, then earlier start wins.
func better(a, b Span) bool {
	if a.Kind != b.Kind {
		return a.Kind == SpanDrug
	}
	return a.Start < b.Start
}
