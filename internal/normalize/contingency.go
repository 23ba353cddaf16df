package normalize

import (
	"sort"

	"github.com/pvsignal/engine/internal/models"
)

// includedRole reports whether a drug role contributes to the "drug
// present" side of the 2x2 table. Concomitant is controlled separately by
// includeConcomitant since its default treatment is configuration, not a
// fixed policy.
func includedRole(role models.DrugRole, includeConcomitant bool) bool {
	switch role {
	case models.RolePrimarySuspect, models.RoleSecondarySuspect, models.RoleInteracting:
		return true
	case models.RoleConcomitant:
		return includeConcomitant
	default:
		return false
	}
}

// quarterIndex is the per-quarter membership index built while scanning
// reports once: which reports contain each canonical drug and each
// canonical event.
type quarterIndex struct {
	quarter      string
	totalReports int
	drugReports  map[string]map[string]struct{} // drug_id -> report_id set
	eventReports map[string]map[string]struct{} // event_id -> report_id set
}

func newQuarterIndex(quarter string) *quarterIndex {
	return &quarterIndex{
		quarter:      quarter,
		drugReports:  make(map[string]map[string]struct{}),
		eventReports: make(map[string]map[string]struct{}),
	}
}

func (qi *quarterIndex) addDrug(drugID, reportID string) {
	set, ok := qi.drugReports[drugID]
	if !ok {
		set = make(map[string]struct{})
		qi.drugReports[drugID] = set
	}
	set[reportID] = struct{}{}
}

func (qi *quarterIndex) addEvent(eventID, reportID string) {
	set, ok := qi.eventReports[eventID]
	if !ok {
		set = make(map[string]struct{})
		qi.eventReports[eventID] = set
	}
	set[reportID] = struct{}{}
}

// BuildContingency assembles 2x2 cells for every quarter in index. Only
// (drug, event) pairs with a >= 1 are materialized — pairs that never
// co-occur would be pruned by any realistic MIN_A anyway, and enumerating
// the full drug x event cartesian product per quarter is wasted work.
// When dense is true, rows with 0 < a < minA are kept instead of pruned.
// Pairs with a == 0 are never emitted, dense or not: "dense" here means
// "keep a < minA rows that do co-occur", not "emit pairs that never
// co-occur".
func BuildContingency(idx *quarterIndex, minA int, dense bool) []models.ContingencyCell {
	type key struct{ drug, event string }
	aCounts := make(map[key]int64)

	for drugID, reports := range idx.drugReports {
		for eventID, eventReports := range idx.eventReports {
			var a int64
			for rid := range reports {
				if _, ok := eventReports[rid]; ok {
					a++
				}
			}
			if a > 0 {
				aCounts[key{drugID, eventID}] = a
			}
		}
	}

	cells := make([]models.ContingencyCell, 0, len(aCounts))
	for k, a := range aCounts {
		drugTotal := int64(len(idx.drugReports[k.drug]))
		eventTotal := int64(len(idx.eventReports[k.event]))
		b := drugTotal - a
		c := eventTotal - a
		d := int64(idx.totalReports) - a - b - c

		if a < int64(minA) && !dense {
			continue
		}

		cells = append(cells, models.ContingencyCell{
			DrugID:      k.drug,
			EventID:     k.event,
			YearQuarter: idx.quarter,
			A:           a,
			B:           b,
			C:           c,
			D:           d,
		})
	}

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].DrugID != cells[j].DrugID {
			return cells[i].DrugID < cells[j].DrugID
		}
		return cells[i].EventID < cells[j].EventID
	})
	return cells
}
