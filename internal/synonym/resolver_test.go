package synonym

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testDict() []Entry {
	return []Entry{
		{ID: "D1", Synonyms: []string{"acetaminophen", "paracetamol", "tylenol"}},
		{ID: "D2", Synonyms: []string{"ibuprofen", "advil"}},
	}
}

func TestResolveExactMatch(t *testing.T) {
	r := New(testDict(), 2)
	id, kind, ok := r.Resolve("Tylenol")
	require.True(t, ok)
	require.Equal(t, "D1", id)
	require.Equal(t, MatchExact, kind)
}

func TestResolvePrefixMatch(t *testing.T) {
	r := New(testDict(), 2)
	id, kind, ok := r.Resolve("ibuprofe")
	require.True(t, ok)
	require.Equal(t, "D2", id)
	require.Equal(t, MatchPrefix, kind)
}

func TestResolveFuzzyMatch(t *testing.T) {
	r := New(testDict(), 2)
	id, kind, ok := r.Resolve("advyl")
	require.True(t, ok)
	require.Equal(t, "D2", id)
	require.Equal(t, MatchFuzzy, kind)
}

func TestResolveBeyondToleranceFails(t *testing.T) {
	r := New(testDict(), 2)
	_, kind, ok := r.Resolve("xyzzyplugh")
	require.False(t, ok)
	require.Equal(t, MatchUnmatched, kind)
}

func TestResolveEmptySurface(t *testing.T) {
	r := New(testDict(), 2)
	_, _, ok := r.Resolve("   ")
	require.False(t, ok)
}
