package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalizeDrugSurfaceStripsDosage(t *testing.T) {
	require.Equal(t, "acetaminophen", CanonicalizeDrugSurface("Acetaminophen 500mg tablet"))
	require.Equal(t, "ibuprofen", CanonicalizeDrugSurface("IBUPROFEN 5 ml oral solution"))
}

func TestCanonicalizeEventSurface(t *testing.T) {
	require.Equal(t, "nausea", CanonicalizeEventSurface("  Nausea  "))
}
