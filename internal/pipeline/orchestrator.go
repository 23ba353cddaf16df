// Package pipeline wires the fixed five-stage DAG — Normalize ->
// {Embed, Extract, Signal} -> Rank — into a single run, propagating
// content hashes between stages through the artifact store rather than
// passing data in memory.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pvsignal/engine/internal/artifact"
	"github.com/pvsignal/engine/internal/config"
	"github.com/pvsignal/engine/internal/embed"
	"github.com/pvsignal/engine/internal/extract"
	"github.com/pvsignal/engine/internal/literature"
	"github.com/pvsignal/engine/internal/logging"
	"github.com/pvsignal/engine/internal/normalize"
	"github.com/pvsignal/engine/internal/progress"
	"github.com/pvsignal/engine/internal/rank"
	"github.com/pvsignal/engine/internal/signal"
	"github.com/pvsignal/engine/internal/stage"
	"github.com/pvsignal/engine/internal/synonym"
)

// Inputs bundles the external collaborators a run needs: raw report
// source, synonym dictionaries, and an optional literature source.
type Inputs struct {
	Reports    normalize.ReportSource
	DrugDict   []synonym.Entry
	EventDict  []synonym.Entry
	Literature literature.Source // literature.EmptySource{} if no corpus configured
}

// Result carries the content hashes of every artifact a run produced, so
// a caller (or a later resumed run) can address them directly.
type Result struct {
	RunID           string
	DrugsHash       string
	EventsHash      string
	ContingencyHash string
	ClustersHash    string
	RelationsHash   string
	SignalsHash     string
	RankedHash      string
}

// Run executes all five stages in dependency order against cfg, returning
// the artifact hashes produced. It is the outer CLI's only entry point
// into the core; fetch/serve/summarize/CLI parsing live outside this
// package.
func Run(ctx context.Context, cfg config.Config, in Inputs, bus *progress.Bus) (Result, error) {
	if bus == nil {
		bus = progress.Noop()
	}
	log := logging.Get()

	store, err := artifact.Open(cfg.ArtifactDir)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: open artifact store: %w", err)
	}
	defer store.Close()

	runID := uuid.NewString()
	rc := &stage.RunContext{RunID: runID, Store: store, Config: cfg, Log: log, Bus: bus}

	log.Info("pipeline: run starting", logging.String("run_id", runID))

	normalizeStage := &normalize.Stage{
		Source:      in.Reports,
		DrugDict:    in.DrugDict,
		EventDict:   in.EventDict,
		MaxEditDist: 2,
	}
	if err := normalizeStage.Run(ctx, rc); err != nil {
		return Result{}, fmt.Errorf("pipeline: normalize: %w", err)
	}
	drugsHash, eventsHash, contingencyHash, err := latestNormalizeHashes(store, runID)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: %w", err)
	}

	var clustersHash, relationsHash string

	embedStage := &embed.Stage{Provider: embed.NewHashEmbedder(64, cfg.Seed), EventsTable: eventsHash}
	if err := embedStage.Run(ctx, rc); err != nil {
		return Result{}, fmt.Errorf("pipeline: embed: %w", err)
	}
	if clustersHash, _, err = store.Lookup("embed", "event_clusters", artifact.HashInputs("embed", eventsHash)); err != nil {
		return Result{}, fmt.Errorf("pipeline: %w", err)
	}

	extractStage := &extract.Stage{Literature: in.Literature, DrugsTable: drugsHash, EventsTable: eventsHash}
	if err := extractStage.Run(ctx, rc); err != nil {
		return Result{}, fmt.Errorf("pipeline: extract: %w", err)
	}
	if relationsHash, _, err = store.Lookup("extract", "relations", artifact.HashInputs("extract", runID)); err != nil {
		return Result{}, fmt.Errorf("pipeline: %w", err)
	}

	signalStage := &signal.Stage{ContingencyTable: contingencyHash}
	if err := signalStage.Run(ctx, rc); err != nil {
		return Result{}, fmt.Errorf("pipeline: signal: %w", err)
	}
	signalsHash, _, err := store.Lookup("signal", "signals", artifact.HashInputs("signal", runID))
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: %w", err)
	}

	rankStage := &rank.Stage{
		SignalsTable: signalsHash, RelationsTable: relationsHash, ClustersTable: clustersHash,
		DrugsTable: drugsHash, EventsTable: eventsHash,
	}
	if err := rankStage.Run(ctx, rc); err != nil {
		return Result{}, fmt.Errorf("pipeline: rank: %w", err)
	}
	rankedHash, _, err := store.Lookup("rank", "signals_csv", artifact.HashInputs("rank", runID))
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: %w", err)
	}

	log.Info("pipeline: run complete", logging.String("run_id", runID))

	return Result{
		RunID: runID, DrugsHash: drugsHash, EventsHash: eventsHash, ContingencyHash: contingencyHash,
		ClustersHash: clustersHash, RelationsHash: relationsHash, SignalsHash: signalsHash, RankedHash: rankedHash,
	}, nil
}

func latestNormalizeHashes(store *artifact.Store, runID string) (drugs, events, contingency string, err error) {
	inputHash := artifact.HashInputs("normalize", runID)
	if drugs, _, err = store.Lookup("normalize", "drugs", inputHash); err != nil {
		return "", "", "", err
	}
	if events, _, err = store.Lookup("normalize", "events", inputHash); err != nil {
		return "", "", "", err
	}
	if contingency, _, err = store.Lookup("normalize", "faers_norm", inputHash); err != nil {
		return "", "", "", err
	}
	return drugs, events, contingency, nil
}
