package rank

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pvsignal/engine/internal/artifact"
	"github.com/pvsignal/engine/internal/logging"
	"github.com/pvsignal/engine/internal/models"
	"github.com/pvsignal/engine/internal/stage"
)

// Stage is the Rank pipeline stage.
type Stage struct {
	SignalsTable   string // content hash of Signal's ALL-aggregation rows (signal table includes per-quarter too; Rank filters)
	RelationsTable string // content hash of Extract's relations artifact; "" if Extract did not run
	ClustersTable  string // content hash of Embed's event_clusters artifact; "" if Embed did not run
	DrugsTable     string
	EventsTable    string
}

func (s *Stage) Name() string { return "rank" }

func (s *Stage) Run(ctx context.Context, rc *stage.RunContext) error {
	log := rc.Log
	if log == nil {
		log = logging.Get()
	}

	allRows, err := readAllAggregationRows(rc.Store, s.SignalsTable)
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}

	relations, err := readRelations(rc.Store, s.RelationsTable)
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}
	litByPair := aggregateLiterature(relations, rc.Config.LitRecentYears)

	clusters, err := readClusters(rc.Store, s.ClustersTable)
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}
	clusterByEvent := make(map[string]string, len(clusters))
	for _, c := range clusters {
		clusterByEvent[c.EventID] = c.ClusterID
	}

	drugNames, err := readNames(rc.Store, s.DrugsTable)
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}
	eventNames, err := readNames(rc.Store, s.EventsTable)
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}

	// Count, per (drug, cluster), how many distinct events in that cluster
	// already have a signal against the same drug — the duplication guard.
	signalingMembers := make(map[string]map[string]map[string]struct{}) // drug -> cluster -> event set
	for _, row := range allRows {
		clusterID, ok := clusterByEvent[row.EventID]
		if !ok {
			continue
		}
		byCluster, ok := signalingMembers[row.DrugID]
		if !ok {
			byCluster = make(map[string]map[string]struct{})
			signalingMembers[row.DrugID] = byCluster
		}
		members, ok := byCluster[clusterID]
		if !ok {
			members = make(map[string]struct{})
			byCluster[clusterID] = members
		}
		members[row.EventID] = struct{}{}
	}

	ranked := make([]models.RankedSignal, 0, len(allRows))
	for _, row := range allRows {
		if stage.Cancelled(ctx) {
			return ctx.Err()
		}

		support := litByPair[pairKey{row.DrugID, row.EventID}]
		members := 1
		if clusterID, ok := clusterByEvent[row.EventID]; ok {
			members = len(signalingMembers[row.DrugID][clusterID])
		}

		f := Features{
			Stat:           StatFeature(row.RORShrunk, row.A),
			CI:             CIFeature(row.CILow),
			Trend:          TrendFeature(row.TrendZ),
			Lit:            LitFeature(support),
			ClusterPenalty: ClusterPenalty(members),
		}
		score := FinalScore(f, rc.Config.RankWeights)

		ranked = append(ranked, models.RankedSignal{
			DrugID:      row.DrugID,
			DrugName:    drugNames[row.DrugID],
			EventID:     row.EventID,
			EventTerm:   eventNames[row.EventID],
			A:           row.A,
			ROR:         row.ROR,
			CILow:       row.CILow,
			CIHigh:      row.CIHigh,
			RORShrunk:   row.RORShrunk,
			NQuarters:   row.TrendQuarters,
			TrendZ:      row.TrendZ,
			LitMentions: support.NMentions,
			FinalScore:  score,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		if ranked[i].A != ranked[j].A {
			return ranked[i].A > ranked[j].A
		}
		if ranked[i].DrugID != ranked[j].DrugID {
			return ranked[i].DrugID < ranked[j].DrugID
		}
		return ranked[i].EventID < ranked[j].EventID
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	if err := writeRanked(rc, ranked); err != nil {
		return fmt.Errorf("rank: %w", err)
	}

	log.Info("rank: complete", logging.Int("signals", len(ranked)))
	return nil
}

type pairKey struct{ drug, event string }

func readAllAggregationRows(store *artifact.Store, hash string) ([]models.SignalRow, error) {
	if hash == "" {
		return nil, nil
	}
	t, err := store.Read(hash)
	if err != nil {
		return nil, fmt.Errorf("read signals table: %w", err)
	}
	var out []models.SignalRow
	for _, row := range t.Rows {
		if len(row) < 13 || row[2] != models.AggregateKey {
			continue
		}
		a, _ := strconv.ParseInt(row[3], 10, 64)
		ror, _ := strconv.ParseFloat(row[4], 64)
		ciLow, _ := strconv.ParseFloat(row[5], 64)
		ciHigh, _ := strconv.ParseFloat(row[6], 64)
		rorShrunk, _ := strconv.ParseFloat(row[7], 64)
		nReports, _ := strconv.ParseInt(row[8], 10, 64)
		trendQuarters, _ := strconv.Atoi(row[10])
		belowThreshold, _ := strconv.ParseBool(row[11])

		sr := models.SignalRow{
			DrugID: row[0], EventID: row[1], YearQuarter: row[2], A: a,
			ROR: ror, CILow: ciLow, CIHigh: ciHigh, RORShrunk: rorShrunk,
			NReports: nReports, TrendQuarters: trendQuarters, BelowThreshold: belowThreshold,
			NullReason: models.NullReason(row[12]),
		}
		if row[9] != "" {
			if z, err := strconv.ParseFloat(row[9], 64); err == nil {
				sr.TrendZ = &z
			}
		}
		if sr.NullReason != "" {
			continue
		}
		out = append(out, sr)
	}
	return out, nil
}

func readRelations(store *artifact.Store, hash string) ([]models.RelationMention, error) {
	if hash == "" {
		return nil, nil
	}
	t, err := store.Read(hash)
	if err != nil {
		return nil, fmt.Errorf("read relations table: %w", err)
	}
	out := make([]models.RelationMention, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) < 7 {
			continue
		}
		conf, _ := strconv.ParseFloat(row[4], 64)
		year, _ := strconv.Atoi(row[6])
		out = append(out, models.RelationMention{
			PMID: row[0], SentenceID: row[1], DrugID: row[2], EventID: row[3],
			Confidence: conf, Polarity: models.Polarity(row[5]), Year: year,
		})
	}
	return out, nil
}

// currentYear anchors "recent" relative to the freshest literature seen
// rather than wall-clock time, keeping the stage a pure function of its
// inputs so a rerun on the same artifacts always reproduces the same score.
func currentYear(relations []models.RelationMention) int {
	max := 0
	for _, r := range relations {
		if r.Year > max {
			max = r.Year
		}
	}
	return max
}

func aggregateLiterature(relations []models.RelationMention, recentYears int) map[pairKey]models.LiteratureSupport {
	out := make(map[pairKey]models.LiteratureSupport)
	recentCounts := make(map[pairKey]int)
	cutoff := currentYear(relations) - recentYears

	for _, r := range relations {
		k := pairKey{r.DrugID, r.EventID}
		s := out[k]
		s.DrugID, s.EventID = r.DrugID, r.EventID
		s.NMentions++
		s.SumConfidence += r.Confidence
		out[k] = s
		if r.Year >= cutoff {
			recentCounts[k]++
		}
	}
	for k, s := range out {
		if s.NMentions > 0 {
			s.RecentFraction = float64(recentCounts[k]) / float64(s.NMentions)
			out[k] = s
		}
	}
	return out
}

func readClusters(store *artifact.Store, hash string) ([]models.EventCluster, error) {
	if hash == "" {
		return nil, nil
	}
	t, err := store.Read(hash)
	if err != nil {
		return nil, fmt.Errorf("read clusters table: %w", err)
	}
	out := make([]models.EventCluster, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) < 4 {
			continue
		}
		cohesion, _ := strconv.ParseFloat(row[3], 64)
		out = append(out, models.EventCluster{
			EventID: row[0], ClusterID: row[1], RepresentativeEventID: row[2], Cohesion: cohesion,
		})
	}
	return out, nil
}

func readNames(store *artifact.Store, hash string) (map[string]string, error) {
	out := make(map[string]string)
	if hash == "" {
		return out, nil
	}
	t, err := store.Read(hash)
	if err != nil {
		return nil, fmt.Errorf("read names table: %w", err)
	}
	for _, row := range t.Rows {
		if len(row) < 2 {
			continue
		}
		out[row[0]] = row[1]
	}
	return out, nil
}

func writeRanked(rc *stage.RunContext, ranked []models.RankedSignal) error {
	rows := make([][]string, 0, len(ranked))
	for _, r := range ranked {
		trendZ := ""
		if r.TrendZ != nil {
			trendZ = strconv.FormatFloat(*r.TrendZ, 'f', 6, 64)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Rank), r.DrugID, r.DrugName, r.EventID, r.EventTerm,
			strconv.FormatInt(r.A, 10),
			strconv.FormatFloat(r.ROR, 'f', 6, 64),
			strconv.FormatFloat(r.CILow, 'f', 6, 64),
			strconv.FormatFloat(r.CIHigh, 'f', 6, 64),
			strconv.FormatFloat(r.RORShrunk, 'f', 6, 64),
			strconv.Itoa(r.NQuarters),
			trendZ,
			strconv.Itoa(r.LitMentions),
			strconv.FormatFloat(r.FinalScore, 'f', 6, 64),
		})
	}
	inputHash := artifact.HashInputs("rank", rc.RunID)
	_, err := rc.Store.Write(rc.RunID, "rank", "signals_csv", inputHash, rc.Config.Seed, artifact.Table{
		Headers: strings.Split("rank,drug_id,drug_name,event_id,event_term,a,ror,ci_low,ci_high,ror_shrunk,n_quarters,trend_z,lit_mentions,final_score", ","),
		Rows:    rows,
	})
	return err
}
