package normalize

import (
	"testing"

	"github.com/pvsignal/engine/internal/models"
	"github.com/stretchr/testify/require"
)

func TestDedupeKeepsHighestVersion(t *testing.T) {
	in := []models.ReportRecord{
		{ReportID: "R1", CaseID: "C1", Version: 1, ReceivedAt: "2025-01-01T00:00:00Z"},
		{ReportID: "R2", CaseID: "C1", Version: 2, ReceivedAt: "2025-02-01T00:00:00Z"},
	}
	out := Dedupe(in)
	require.Len(t, out, 1)
	require.Equal(t, "R2", out[0].ReportID)
}

func TestDedupeTiesBreakOnReceivedDateThenReportID(t *testing.T) {
	in := []models.ReportRecord{
		{ReportID: "R2", CaseID: "C1", Version: 1, ReceivedAt: "2025-01-01T00:00:00Z"},
		{ReportID: "R1", CaseID: "C1", Version: 1, ReceivedAt: "2025-01-01T00:00:00Z"},
	}
	out := Dedupe(in)
	require.Len(t, out, 1)
	require.Equal(t, "R1", out[0].ReportID)
}

func TestDedupeDistinctCasesBothKept(t *testing.T) {
	in := []models.ReportRecord{
		{ReportID: "R1", CaseID: "C1", Version: 1, ReceivedAt: "2025-01-01T00:00:00Z"},
		{ReportID: "R2", CaseID: "C2", Version: 1, ReceivedAt: "2025-01-01T00:00:00Z"},
	}
	out := Dedupe(in)
	require.Len(t, out, 2)
}
