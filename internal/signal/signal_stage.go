package signal

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/pvsignal/engine/internal/artifact"
	"github.com/pvsignal/engine/internal/logging"
	"github.com/pvsignal/engine/internal/models"
	"github.com/pvsignal/engine/internal/progress"
	"github.com/pvsignal/engine/internal/stage"
)

// Stage is the Signal pipeline stage.
type Stage struct {
	ContingencyTable string // content hash of Normalize's faers_norm artifact
}

func (s *Stage) Name() string { return "signal" }

type pairKey struct{ drug, event string }

func (s *Stage) Run(ctx context.Context, rc *stage.RunContext) error {
	log := rc.Log
	if log == nil {
		log = logging.Get()
	}
	bus := rc.Bus
	if bus == nil {
		bus = progress.Noop()
	}

	cells, err := readContingency(rc.Store, s.ContingencyTable)
	if err != nil {
		return fmt.Errorf("signal: %w", err)
	}

	byQuarter := make(map[string][]models.ContingencyCell)
	allByPair := make(map[pairKey]models.ContingencyCell)
	for _, c := range cells {
		byQuarter[c.YearQuarter] = append(byQuarter[c.YearQuarter], c)

		k := pairKey{c.DrugID, c.EventID}
		acc, ok := allByPair[k]
		if !ok {
			acc = models.ContingencyCell{DrugID: c.DrugID, EventID: c.EventID, YearQuarter: models.AggregateKey}
		}
		acc.A += c.A
		acc.B += c.B
		acc.C += c.C
		acc.D += c.D
		allByPair[k] = acc
	}

	partitions := make([]string, 0, len(byQuarter)+1)
	for q := range byQuarter {
		partitions = append(partitions, q)
	}
	sort.Strings(partitions)
	partitions = append(partitions, models.AggregateKey)

	allCells := make([]models.ContingencyCell, 0, len(allByPair))
	for _, c := range allByPair {
		allCells = append(allCells, c)
	}
	byQuarter[models.AggregateKey] = allCells

	// Each partition (one quarter, or the ALL aggregation) fits its own
	// shrinkage prior and shrinks its own rows independently, so
	// partitions can run concurrently — the same data-parallel-over-
	// partitions model random_forest.go uses for its trees, generalized
	// from per-tree training to per-quarter statistics.
	var wg sync.WaitGroup
	var mu sync.Mutex
	rowsByPartition := make(map[string][]models.SignalRow, len(partitions))

	for pi, partition := range partitions {
		if stage.Cancelled(ctx) {
			return ctx.Err()
		}
		wg.Add(1)
		go func(idx int, part string) {
			defer wg.Done()
			rows := computePartition(byQuarter[part], part)

			mu.Lock()
			rowsByPartition[part] = rows
			mu.Unlock()

			bus.Publish(progress.Event{
				Stage:     s.Name(),
				Partition: part,
				Done:      idx + 1,
				Total:     len(partitions),
				Message:   fmt.Sprintf("scored %d rows", len(rows)),
			})
		}(pi, partition)
	}
	wg.Wait()

	trendByPair := computeTrends(cells)

	var allRows []models.SignalRow
	for _, partition := range partitions {
		for _, row := range rowsByPartition[partition] {
			if row.YearQuarter == models.AggregateKey {
				t := trendByPair[pairKey{row.DrugID, row.EventID}]
				row.TrendQuarters = t.Quarters
				if t.Quarters >= MinQuartersForTrend {
					z := t.Z
					row.TrendZ = &z
				}
			}
			allRows = append(allRows, row)
		}
	}

	sort.Slice(allRows, func(i, j int) bool {
		if allRows[i].DrugID != allRows[j].DrugID {
			return allRows[i].DrugID < allRows[j].DrugID
		}
		if allRows[i].EventID != allRows[j].EventID {
			return allRows[i].EventID < allRows[j].EventID
		}
		return allRows[i].YearQuarter < allRows[j].YearQuarter
	})

	if err := writeSignals(rc, allRows); err != nil {
		return fmt.Errorf("signal: %w", err)
	}

	log.Info("signal: complete", logging.Int("rows", len(allRows)))
	return nil
}

// computePartition scores every cell within one partition (a quarter, or
// the ALL aggregation), fitting and applying a shrinkage prior local to
// that partition.
func computePartition(cells []models.ContingencyCell, partition string) []models.SignalRow {
	rows := make([]models.SignalRow, 0, len(cells))
	var logRORs, variances []float64
	var indices []int

	for i, c := range cells {
		row := models.SignalRow{
			DrugID:      c.DrugID,
			EventID:     c.EventID,
			YearQuarter: partition,
			A:           c.A, B: c.B, C: c.C, D: c.D,
			NReports: c.A + c.B + c.C + c.D,
		}
		if undefined, reason := Undefined(c.A, c.B, c.C, c.D); undefined {
			row.NullReason = models.NullReason(reason)
			rows = append(rows, row)
			continue
		}

		ror := ROR(c.A, c.B, c.C, c.D)
		ciLow, ciHigh := ConfidenceInterval(c.A, c.B, c.C, c.D)
		row.ROR = ror
		row.CILow = ciLow
		row.CIHigh = ciHigh
		row.BelowThreshold = !(ciLow > 1 && c.A >= 3)

		rows = append(rows, row)
		logRORs = append(logRORs, math.Log(ror))
		variances = append(variances, LogRORVariance(c.A, c.B, c.C, c.D))
		indices = append(indices, i)
	}

	if len(logRORs) == 0 {
		return rows
	}

	prior := FitPrior(logRORs, variances)
	for j, idx := range indices {
		// idx indexes both cells and rows: computePartition appends
		// exactly one row per cell, in order, whether or not it hit the
		// undefined branch above.
		rows[idx].RORShrunk = Shrink(logRORs[j], variances[j], prior)
	}
	return rows
}

// computeTrends fits a per-(drug,event) trend across quarters, partitioned
// over pairs with the same WaitGroup/Mutex fan-out as computePartition
// uses over partitions.
func computeTrends(cells []models.ContingencyCell) map[pairKey]Trend {
	byPair := make(map[pairKey][]models.ContingencyCell)
	for _, c := range cells {
		byPair[pairKey{c.DrugID, c.EventID}] = append(byPair[pairKey{c.DrugID, c.EventID}], c)
	}

	pairs := make([]pairKey, 0, len(byPair))
	for k := range byPair {
		pairs = append(pairs, k)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].drug != pairs[j].drug {
			return pairs[i].drug < pairs[j].drug
		}
		return pairs[i].event < pairs[j].event
	})

	var wg sync.WaitGroup
	var mu sync.Mutex
	out := make(map[pairKey]Trend, len(pairs))

	for _, k := range pairs {
		wg.Add(1)
		go func(key pairKey) {
			defer wg.Done()
			rows := byPair[key]
			sort.Slice(rows, func(i, j int) bool { return rows[i].YearQuarter < rows[j].YearQuarter })

			var logRORs, variances []float64
			for _, c := range rows {
				if undefined, _ := Undefined(c.A, c.B, c.C, c.D); undefined {
					continue
				}
				logRORs = append(logRORs, math.Log(ROR(c.A, c.B, c.C, c.D)))
				variances = append(variances, LogRORVariance(c.A, c.B, c.C, c.D))
			}

			trend, ok := FitTrend(logRORs, variances)
			if !ok {
				trend.Quarters = len(logRORs)
			}

			mu.Lock()
			out[key] = trend
			mu.Unlock()
		}(k)
	}
	wg.Wait()
	return out
}

func readContingency(store *artifact.Store, hash string) ([]models.ContingencyCell, error) {
	t, err := store.Read(hash)
	if err != nil {
		return nil, fmt.Errorf("read contingency table: %w", err)
	}
	out := make([]models.ContingencyCell, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) < 7 {
			continue
		}
		a, _ := strconv.ParseInt(row[3], 10, 64)
		b, _ := strconv.ParseInt(row[4], 10, 64)
		c, _ := strconv.ParseInt(row[5], 10, 64)
		d, _ := strconv.ParseInt(row[6], 10, 64)
		out = append(out, models.ContingencyCell{
			DrugID: row[0], EventID: row[1], YearQuarter: row[2],
			A: a, B: b, C: c, D: d,
		})
	}
	return out, nil
}

func writeSignals(rc *stage.RunContext, rows []models.SignalRow) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		trendZ := ""
		if r.TrendZ != nil {
			trendZ = strconv.FormatFloat(*r.TrendZ, 'f', 6, 64)
		}
		out = append(out, []string{
			r.DrugID, r.EventID, r.YearQuarter,
			strconv.FormatInt(r.A, 10),
			strconv.FormatFloat(r.ROR, 'f', 6, 64),
			strconv.FormatFloat(r.CILow, 'f', 6, 64),
			strconv.FormatFloat(r.CIHigh, 'f', 6, 64),
			strconv.FormatFloat(r.RORShrunk, 'f', 6, 64),
			strconv.FormatInt(r.NReports, 10),
			trendZ,
			strconv.Itoa(r.TrendQuarters),
			strconv.FormatBool(r.BelowThreshold),
			string(r.NullReason),
		})
	}
	inputHash := artifact.HashInputs("signal", rc.RunID)
	_, err := rc.Store.Write(rc.RunID, "signal", "signals", inputHash, rc.Config.Seed, artifact.Table{
		Headers: []string{"drug_id", "event_id", "year_quarter", "a", "ror", "ci_low", "ci_high",
			"ror_shrunk", "n_reports", "trend_z", "trend_quarters", "below_threshold", "null_reason"},
		Rows: out,
	})
	return err
}
