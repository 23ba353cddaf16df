// Package normalize implements the Normalize stage: mapping raw case
// report rows to canonical drug/event identifiers and emitting the
// per-quarter 2x2 contingency tables those identifiers imply.
package normalize

import (
	"context"
	"fmt"
	"sort"

	"github.com/pvsignal/engine/internal/artifact"
	"github.com/pvsignal/engine/internal/logging"
	"github.com/pvsignal/engine/internal/models"
	"github.com/pvsignal/engine/internal/progress"
	"github.com/pvsignal/engine/internal/stage"
	"github.com/pvsignal/engine/internal/synonym"
)

// Stage is the Normalize pipeline stage.
type Stage struct {
	Source      ReportSource
	DrugDict    []synonym.Entry
	EventDict   []synonym.Entry
	MaxEditDist int
}

func (s *Stage) Name() string { return "normalize" }

// Run executes the full normalization algorithm: canonicalization,
// deduplication, role filtering, contingency assembly, and sparsity
// pruning, then writes the drugs, events, and contingency artifacts.
func (s *Stage) Run(ctx context.Context, rc *stage.RunContext) error {
	log := rc.Log
	if log == nil {
		log = logging.Get()
	}
	bus := rc.Bus
	if bus == nil {
		bus = progress.Noop()
	}

	raw, loadSkipped, err := s.Source.Load()
	if err != nil {
		return fmt.Errorf("normalize: load reports: %w", err)
	}

	skip := NewSkipCounter(rc.Config.MaxSkipRatio)
	for i := 0; i < loadSkipped; i++ {
		if err := skip.Observe(true); err != nil {
			return fmt.Errorf("normalize: %w", err)
		}
	}
	for i := 0; i < len(raw); i++ {
		if err := skip.Observe(false); err != nil {
			return fmt.Errorf("normalize: %w", err)
		}
	}

	reports := Dedupe(raw)
	log.Info("normalize: deduplicated reports", logging.Int("input", len(raw)), logging.Int("kept", len(reports)))

	drugResolver := synonym.New(s.DrugDict, s.MaxEditDist)
	eventResolver := synonym.New(s.EventDict, s.MaxEditDist)

	drugLabels := preferredLabels(s.DrugDict)
	eventLabels := preferredLabels(s.EventDict)

	drugSynonyms := make(map[string]map[string]struct{})
	eventSynonyms := make(map[string]map[string]struct{})

	quarters := make(map[string]*quarterIndex)

	reportsByQuarter := make(map[string][]models.ReportRecord)
	for _, r := range reports {
		reportsByQuarter[r.Quarter] = append(reportsByQuarter[r.Quarter], r)
	}

	quarterNames := make([]string, 0, len(reportsByQuarter))
	for q := range reportsByQuarter {
		quarterNames = append(quarterNames, q)
	}
	sort.Strings(quarterNames)

	var allCells []models.ContingencyCell

	for qi, quarter := range quarterNames {
		if stage.Cancelled(ctx) {
			return ctx.Err()
		}
		qreports := reportsByQuarter[quarter]
		idx := newQuarterIndex(quarter)
		idx.totalReports = len(qreports)

		for _, r := range qreports {
			for _, dm := range r.Drugs {
				if !includedRole(dm.Role, rc.Config.IncludeConcomitant) {
					continue
				}
				norm := CanonicalizeDrugSurface(dm.Surface)
				if norm == "" {
					continue
				}
				id := CanonicalID(drugResolver, "drug", norm)
				idx.addDrug(id, r.ReportID)
				recordSynonym(drugSynonyms, id, norm)
			}
			for _, surface := range r.Reactions {
				norm := CanonicalizeEventSurface(surface)
				if norm == "" {
					continue
				}
				id := CanonicalID(eventResolver, "event", norm)
				idx.addEvent(id, r.ReportID)
				recordSynonym(eventSynonyms, id, norm)
			}
		}

		cells := BuildContingency(idx, rc.Config.MinA, rc.Config.Dense)
		allCells = append(allCells, cells...)

		bus.Publish(progress.Event{
			Stage:     s.Name(),
			Partition: quarter,
			Done:      qi + 1,
			Total:     len(quarterNames),
			Message:   fmt.Sprintf("assembled %d contingency cells", len(cells)),
		})
		quarters[quarter] = idx
	}

	drugs := buildDrugTable(drugSynonyms, drugLabels)
	events := buildEventTable(eventSynonyms, eventLabels)

	sort.Slice(allCells, func(i, j int) bool {
		if allCells[i].DrugID != allCells[j].DrugID {
			return allCells[i].DrugID < allCells[j].DrugID
		}
		if allCells[i].EventID != allCells[j].EventID {
			return allCells[i].EventID < allCells[j].EventID
		}
		return allCells[i].YearQuarter < allCells[j].YearQuarter
	})

	if err := writeArtifacts(rc, drugs, events, allCells); err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	log.Info("normalize: complete",
		logging.Int("drugs", len(drugs)),
		logging.Int("events", len(events)),
		logging.Int("contingency_cells", len(allCells)),
		logging.Int("rows_skipped", skip.Skipped()),
	)
	return nil
}

func recordSynonym(m map[string]map[string]struct{}, id, surface string) {
	set, ok := m[id]
	if !ok {
		set = make(map[string]struct{})
		m[id] = set
	}
	set[surface] = struct{}{}
}

func preferredLabels(dict []synonym.Entry) map[string]string {
	labels := make(map[string]string, len(dict))
	for _, e := range dict {
		if len(e.Synonyms) > 0 {
			labels[e.ID] = e.Synonyms[0]
		}
	}
	return labels
}

func buildDrugTable(synonyms map[string]map[string]struct{}, labels map[string]string) []models.Drug {
	out := make([]models.Drug, 0, len(synonyms))
	for id, set := range synonyms {
		d := models.Drug{DrugID: id, Synonyms: sortedKeys(set)}
		if label, ok := labels[id]; ok {
			d.PreferredName = label
		} else if len(d.Synonyms) > 0 {
			d.PreferredName = d.Synonyms[0]
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DrugID < out[j].DrugID })
	return out
}

func buildEventTable(synonyms map[string]map[string]struct{}, labels map[string]string) []models.Event {
	out := make([]models.Event, 0, len(synonyms))
	for id, set := range synonyms {
		e := models.Event{EventID: id, SurfaceForms: sortedKeys(set)}
		if label, ok := labels[id]; ok {
			e.RepresentativeTerm = label
		} else if len(e.SurfaceForms) > 0 {
			e.RepresentativeTerm = e.SurfaceForms[0]
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func writeArtifacts(rc *stage.RunContext, drugs []models.Drug, events []models.Event, cells []models.ContingencyCell) error {
	inputHash := artifact.HashInputs("normalize", rc.RunID)

	drugRows := make([][]string, 0, len(drugs))
	for _, d := range drugs {
		drugRows = append(drugRows, []string{d.DrugID, d.PreferredName, joinSynonyms(d.Synonyms), d.ExternalCode})
	}
	if _, err := rc.Store.Write(rc.RunID, "normalize", "drugs", inputHash, rc.Config.Seed, artifact.Table{
		Headers: []string{"drug_id", "preferred_name", "synonyms", "external_code"},
		Rows:    drugRows,
	}); err != nil {
		return fmt.Errorf("write drugs: %w", err)
	}

	eventRows := make([][]string, 0, len(events))
	for _, e := range events {
		eventRows = append(eventRows, []string{e.EventID, e.RepresentativeTerm, joinSynonyms(e.SurfaceForms)})
	}
	if _, err := rc.Store.Write(rc.RunID, "normalize", "events", inputHash, rc.Config.Seed, artifact.Table{
		Headers: []string{"event_id", "representative_term", "surface_forms"},
		Rows:    eventRows,
	}); err != nil {
		return fmt.Errorf("write events: %w", err)
	}

	cellRows := make([][]string, 0, len(cells))
	for _, c := range cells {
		cellRows = append(cellRows, []string{
			c.DrugID, c.EventID, c.YearQuarter,
			fmt.Sprint(c.A), fmt.Sprint(c.B), fmt.Sprint(c.C), fmt.Sprint(c.D),
		})
	}
	if _, err := rc.Store.Write(rc.RunID, "normalize", "faers_norm", inputHash, rc.Config.Seed, artifact.Table{
		Headers: []string{"drug_id", "event_id", "year_quarter", "a", "b", "c", "d"},
		Rows:    cellRows,
	}); err != nil {
		return fmt.Errorf("write contingency table: %w", err)
	}
	return nil
}

func joinSynonyms(s []string) string {
	const sep = "|"
	out := ""
	for i, v := range s {
		if i > 0 {
			out += sep
		}
		out += v
	}
	return out
}
