// Package extract implements the Extract stage: scanning literature
// abstracts for drug/event co-occurrences with a weakly-supervised,
// dictionary-plus-heuristics pass.
package extract

import (
	"regexp"
	"strings"
)

var sentenceSplit = regexp.MustCompile(`(?:[.!?])\s+`)

// SplitSentences breaks an abstract into sentences on terminal punctuation
// followed by whitespace; the punctuation mark stays with its sentence.
// This is intentionally simple — abbreviation-aware splitting is not worth
// the complexity for a confidence-scored, precision-over-recall pass.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	start := 0
	for _, m := range sentenceSplit.FindAllStringIndex(text, -1) {
		if p := strings.TrimSpace(text[start : m[0]+1]); p != "" {
			out = append(out, p)
		}
		start = m[1]
	}
	if p := strings.TrimSpace(text[start:]); p != "" {
		out = append(out, p)
	}
	return out
}

// Tokenize splits a sentence into lowercased word tokens, the unit the span
// detector and heuristic features operate over.
func Tokenize(sentence string) []string {
	fields := strings.Fields(sentence)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.Trim(f, ".,;:()[]\"'"))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
