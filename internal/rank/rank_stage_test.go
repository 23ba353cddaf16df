package rank

import (
	"context"
	"testing"

	"github.com/pvsignal/engine/internal/artifact"
	"github.com/pvsignal/engine/internal/config"
	"github.com/pvsignal/engine/internal/logging"
	"github.com/pvsignal/engine/internal/progress"
	"github.com/pvsignal/engine/internal/stage"
	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, store *artifact.Store, stg, name string, headers []string, rows [][]string) string {
	t.Helper()
	hash, err := store.Write("setup", stg, name, "setup:"+name, 0, artifact.Table{Headers: headers, Rows: rows})
	require.NoError(t, err)
	return hash
}

// TestRunRanksByFusedScoreAndAppliesClusterPenalty exercises the full
// artifact-store round trip: two signaling events clustered together under
// the same drug should each take a 1/2 cluster-dedup penalty, and the
// higher-fused-score row should rank first regardless of insertion order.
func TestRunRanksByFusedScoreAndAppliesClusterPenalty(t *testing.T) {
	store, err := artifact.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	signalsHash := writeTable(t, store, "signal", "signals",
		[]string{"drug_id", "event_id", "year_quarter", "a", "ror", "ci_low", "ci_high",
			"ror_shrunk", "n_reports", "trend_z", "trend_quarters", "below_threshold", "null_reason"},
		[][]string{
			{"D1", "E1", "ALL", "10", "5.0", "1.5", "10.0", "5.0", "100", "2.0", "4", "false", ""},
			{"D1", "E2", "ALL", "8", "4.0", "1.2", "8.0", "4.0", "80", "", "0", "false", ""},
			{"D2", "E3", "ALL", "2", "3.0", "0.9", "9.0", "3.0", "20", "", "0", "true", ""},
			{"D3", "E4", "ALL", "0", "0", "0", "0", "0", "0", "", "0", "true", "zero_margin_a_b"},
			// Per-quarter row for D1/E1 must be ignored by Rank, which only
			// reads the ALL aggregation.
			{"D1", "E1", "2024Q1", "3", "5.0", "1.1", "12.0", "4.8", "30", "", "0", "false", ""},
		})

	relationsHash := writeTable(t, store, "extract", "relations",
		[]string{"pmid", "sentence_id", "drug_id", "event_id", "confidence", "polarity", "year"},
		[][]string{
			{"PMID1", "PMID1:1", "D1", "E1", "0.8", "asserted", "2024"},
		})

	clustersHash := writeTable(t, store, "embed", "event_clusters",
		[]string{"event_id", "cluster_id", "representative_event_id", "cohesion"},
		[][]string{
			{"E1", "cluster:1", "E1", "0.9"},
			{"E2", "cluster:1", "E1", "0.9"},
			{"E3", "E3", "E3", "1.0"},
		})

	drugsHash := writeTable(t, store, "normalize", "drugs",
		[]string{"drug_id", "preferred_name", "synonyms", "external_code"},
		[][]string{
			{"D1", "DrugOne", "drug one", ""},
			{"D2", "DrugTwo", "drug two", ""},
		})

	eventsHash := writeTable(t, store, "normalize", "events",
		[]string{"event_id", "representative_term", "surface_forms"},
		[][]string{
			{"E1", "EventOne", ""},
			{"E2", "EventTwo", ""},
			{"E3", "EventThree", ""},
		})

	cfg := config.Default()
	rc := &stage.RunContext{
		RunID:  "run-1",
		Store:  store,
		Config: cfg,
		Log:    logging.Get(),
		Bus:    progress.Noop(),
	}

	s := &Stage{
		SignalsTable:   signalsHash,
		RelationsTable: relationsHash,
		ClustersTable:  clustersHash,
		DrugsTable:     drugsHash,
		EventsTable:    eventsHash,
	}
	require.NoError(t, s.Run(context.Background(), rc))

	outputHash, found, err := store.Lookup("rank", "signals_csv", artifact.HashInputs("rank", rc.RunID))
	require.NoError(t, err)
	require.True(t, found)

	out, err := store.Read(outputHash)
	require.NoError(t, err)
	require.Len(t, out.Rows, 3, "the null_reason row must be excluded")

	// Column order: rank,drug_id,drug_name,event_id,event_term,a,ror,ci_low,
	// ci_high,ror_shrunk,n_quarters,trend_z,lit_mentions,final_score
	require.Equal(t, "1", out.Rows[0][0])
	require.Equal(t, "D1", out.Rows[0][1])
	require.Equal(t, "DrugOne", out.Rows[0][2])
	require.Equal(t, "E1", out.Rows[0][3])
	require.Equal(t, "EventOne", out.Rows[0][4])
	require.Equal(t, "1", out.Rows[0][12]) // lit_mentions

	require.Equal(t, "2", out.Rows[1][0])
	require.Equal(t, "E2", out.Rows[1][3])

	require.Equal(t, "3", out.Rows[2][0])
	require.Equal(t, "D2", out.Rows[2][1])
	require.Equal(t, "E3", out.Rows[2][3])
}

func TestRunWithNoRelationsOrClustersStillRanks(t *testing.T) {
	store, err := artifact.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	signalsHash := writeTable(t, store, "signal", "signals",
		[]string{"drug_id", "event_id", "year_quarter", "a", "ror", "ci_low", "ci_high",
			"ror_shrunk", "n_reports", "trend_z", "trend_quarters", "below_threshold", "null_reason"},
		[][]string{
			{"D1", "E1", "ALL", "5", "2.0", "1.1", "4.0", "2.0", "50", "", "0", "false", ""},
		})
	drugsHash := writeTable(t, store, "normalize", "drugs",
		[]string{"drug_id", "preferred_name", "synonyms", "external_code"},
		[][]string{{"D1", "DrugOne", "", ""}})
	eventsHash := writeTable(t, store, "normalize", "events",
		[]string{"event_id", "representative_term", "surface_forms"},
		[][]string{{"E1", "EventOne", ""}})

	cfg := config.Default()
	rc := &stage.RunContext{RunID: "run-2", Store: store, Config: cfg, Log: logging.Get(), Bus: progress.Noop()}

	s := &Stage{SignalsTable: signalsHash, DrugsTable: drugsHash, EventsTable: eventsHash}
	require.NoError(t, s.Run(context.Background(), rc))

	outputHash, found, err := store.Lookup("rank", "signals_csv", artifact.HashInputs("rank", rc.RunID))
	require.NoError(t, err)
	require.True(t, found)

	out, err := store.Read(outputHash)
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	require.Equal(t, "1", out.Rows[0][0])
	require.Equal(t, "0", out.Rows[0][12]) // lit_mentions, no relations table at all
}
