package normalize

import (
	"sort"

	"github.com/pvsignal/engine/internal/models"
)

// Dedupe collapses reports sharing a case_id to the one with the highest
// version, ties broken by latest received date, then by lexicographic
// report_id, as required by the normalization algorithm.
func Dedupe(reports []models.ReportRecord) []models.ReportRecord {
	best := make(map[string]models.ReportRecord, len(reports))

	for _, r := range reports {
		existing, ok := best[r.CaseID]
		if !ok || isBetter(r, existing) {
			best[r.CaseID] = r
		}
	}

	out := make([]models.ReportRecord, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportID < out[j].ReportID })
	return out
}

// isBetter reports whether candidate should replace incumbent under the
// same case_id: higher version wins; equal version falls back to latest
// received date, then lexicographically smallest report_id.
func isBetter(candidate, incumbent models.ReportRecord) bool {
	if candidate.Version != incumbent.Version {
		return candidate.Version > incumbent.Version
	}
	if candidate.ReceivedAt != incumbent.ReceivedAt {
		return candidate.ReceivedAt > incumbent.ReceivedAt
	}
	return candidate.ReportID < incumbent.ReportID
}
