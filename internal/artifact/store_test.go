package artifact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	tbl := Table{
		Headers: []string{"drug_id", "event_id"},
		Rows:    [][]string{{"D1", "E1"}, {"D2", "E2"}},
	}

	hash, err := s.Write("run-1", "normalize", "contingency", "in-hash", 42, tbl)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	got, err := s.Read(hash)
	require.NoError(t, err)
	require.Equal(t, tbl.Headers, got.Headers)
	require.Equal(t, tbl.Rows, got.Rows)
}

func TestWriteIsContentAddressedAndIdempotent(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	tbl := Table{Headers: []string{"a"}, Rows: [][]string{{"1"}}}

	h1, err := s.Write("run-1", "normalize", "t", "in-hash", 1, tbl)
	require.NoError(t, err)
	h2, err := s.Write("run-2", "normalize", "t", "in-hash-2", 1, tbl)
	require.NoError(t, err)
	require.Equal(t, h1, h2, "identical contents must hash identically regardless of run")
}

func TestLookupFindsPriorOutput(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	tbl := Table{Headers: []string{"a"}, Rows: [][]string{{"1"}}}
	hash, err := s.Write("run-1", "embed", "clusters", "in-hash", 7, tbl)
	require.NoError(t, err)

	got, found, err := s.Lookup("embed", "clusters", "in-hash")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, hash, got)

	_, found, err = s.Lookup("embed", "clusters", "other-hash")
	require.NoError(t, err)
	require.False(t, found)
}
