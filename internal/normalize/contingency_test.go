package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBuildContingencyTinySynthetic reproduces a tiny worked example:
// D1/E1, D1/E1, D1/E2, D2/E2 across four reports in one quarter,
// expecting a=2, b=1, c=0, d=1 for (D1, E1).
func TestBuildContingencyTinySynthetic(t *testing.T) {
	idx := newQuarterIndex("2025Q1")
	idx.totalReports = 4

	idx.addDrug("D1", "R1")
	idx.addEvent("E1", "R1")
	idx.addDrug("D1", "R2")
	idx.addEvent("E1", "R2")
	idx.addDrug("D1", "R3")
	idx.addEvent("E2", "R3")
	idx.addDrug("D2", "R4")
	idx.addEvent("E2", "R4")

	cells := BuildContingency(idx, 0, true)

	var d1e1 *struct{ a, b, c, d int64 }
	for _, c := range cells {
		if c.DrugID == "D1" && c.EventID == "E1" {
			d1e1 = &struct{ a, b, c, d int64 }{c.A, c.B, c.C, c.D}
		}
	}
	require.NotNil(t, d1e1)
	require.Equal(t, int64(2), d1e1.a)
	require.Equal(t, int64(1), d1e1.b)
	require.Equal(t, int64(0), d1e1.c)
	require.Equal(t, int64(1), d1e1.d)
}

func TestBuildContingencyPrunesBelowMinA(t *testing.T) {
	idx := newQuarterIndex("2025Q1")
	idx.totalReports = 2
	idx.addDrug("D1", "R1")
	idx.addEvent("E1", "R1")
	idx.addDrug("D2", "R2")
	idx.addEvent("E2", "R2")

	cells := BuildContingency(idx, 3, false)
	require.Empty(t, cells, "a=1 rows must be pruned when minA=3 and dense=false")
}
