// Package synonym resolves free-text drug and event surface strings to
// canonical IDs: normalize case and whitespace, try an exact lookup, then
// prefix, then fall back to Levenshtein distance against known synonyms
// with a tolerance ceiling.
package synonym

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Entry is one canonical ID and its known surface forms.
type Entry struct {
	ID       string
	Synonyms []string
}

// MatchKind reports which tier of the resolution ladder produced a match.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchPrefix    MatchKind = "prefix"
	MatchFuzzy     MatchKind = "fuzzy"
	MatchUnmatched MatchKind = "unmatched"
)

// Resolver maps surface strings onto canonical IDs.
type Resolver struct {
	maxEditDistance int
	exact           map[string]string
	entries         []Entry
}

// New builds a Resolver from a dictionary of canonical entries.
// maxEditDistance is the maximum absolute Levenshtein distance accepted on
// the fuzzy tier (callers typically pass 2).
func New(entries []Entry, maxEditDistance int) *Resolver {
	r := &Resolver{
		maxEditDistance: maxEditDistance,
		exact:           make(map[string]string),
		entries:         entries,
	}
	for _, e := range entries {
		for _, syn := range e.Synonyms {
			norm := normalize(syn)
			if norm == "" {
				continue
			}
			r.exact[norm] = e.ID
		}
	}
	return r
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ResolveExact looks up surface in the exact-match dictionary only, with no
// prefix or fuzzy fallback. Span detection over running text uses this: a
// fuzzy match against arbitrary word windows would produce far too many
// false positives.
func (r *Resolver) ResolveExact(surface string) (id string, ok bool) {
	id, ok = r.exact[normalize(surface)]
	return id, ok
}

// Resolve maps surface to a canonical ID through the exact -> prefix ->
// edit-distance ladder described in the normalization algorithm. ok is
// false only when every tier misses; callers mint a deterministic
// "unmatched" ID themselves so that ID assignment stays reproducible
// without this package depending on hashing policy.
func (r *Resolver) Resolve(surface string) (id string, kind MatchKind, ok bool) {
	norm := normalize(surface)
	if norm == "" {
		return "", MatchUnmatched, false
	}
	if id, found := r.exact[norm]; found {
		return id, MatchExact, true
	}

	if id, found := r.resolvePrefix(norm); found {
		return id, MatchPrefix, true
	}

	if id, found := r.resolveFuzzy(norm); found {
		return id, MatchFuzzy, true
	}

	return "", MatchUnmatched, false
}

// resolvePrefix matches when the normalized surface is a prefix of a known
// synonym or vice versa. Every synonym is a candidate: there is no
// minimum-length or length-difference guard, so a very short surface can
// match many long synonyms.
func (r *Resolver) resolvePrefix(norm string) (string, bool) {
	type candidate struct{ id, syn string }
	var candidates []candidate

	for _, e := range r.entries {
		for _, syn := range e.Synonyms {
			s := normalize(syn)
			if s == norm {
				continue // already handled by the exact tier
			}
			if strings.HasPrefix(s, norm) || strings.HasPrefix(norm, s) {
				candidates = append(candidates, candidate{e.ID, s})
			}
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	// Longest candidate synonym wins; ties break lexicographically by ID.
	sort.Slice(candidates, func(i, j int) bool {
		li, lj := len(candidates[i].syn), len(candidates[j].syn)
		if li != lj {
			return li > lj
		}
		return candidates[i].id < candidates[j].id
	})
	return candidates[0].id, true
}

// resolveFuzzy matches the closest synonym by Levenshtein distance up to
// maxEditDistance, tie-broken lexicographically by ID for reproducibility.
func (r *Resolver) resolveFuzzy(norm string) (string, bool) {
	bestDist := r.maxEditDistance + 1
	var bestIDs []string

	for _, e := range r.entries {
		for _, syn := range e.Synonyms {
			d := levenshtein.ComputeDistance(norm, normalize(syn))
			if d > r.maxEditDistance {
				continue
			}
			if d < bestDist {
				bestDist = d
				bestIDs = []string{e.ID}
			} else if d == bestDist {
				bestIDs = append(bestIDs, e.ID)
			}
		}
	}
	if len(bestIDs) == 0 {
		return "", false
	}
	sort.Strings(bestIDs)
	return bestIDs[0], true
}
