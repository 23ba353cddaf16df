package embed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pvsignal/engine/internal/artifact"
	"github.com/pvsignal/engine/internal/logging"
	"github.com/pvsignal/engine/internal/models"
	"github.com/pvsignal/engine/internal/stage"
)

// Stage is the Embed pipeline stage: embed every event's representative
// term and surface forms, then cluster near-duplicates.
type Stage struct {
	Provider    Provider
	EventsTable string // content hash of Normalize's events artifact
}

func (s *Stage) Name() string { return "embed" }

func (s *Stage) Run(ctx context.Context, rc *stage.RunContext) error {
	log := rc.Log
	if log == nil {
		log = logging.Get()
	}

	events, err := readEvents(rc.Store, s.EventsTable)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	if stage.Cancelled(ctx) {
		return ctx.Err()
	}

	vectors := make(map[string][]float64, len(events))
	for _, e := range events {
		text := e.RepresentativeTerm
		if len(e.SurfaceForms) > 0 {
			text = e.RepresentativeTerm + " " + strings.Join(e.SurfaceForms, " ")
		}
		vectors[e.EventID] = s.Provider.Embed(text)
	}

	if stage.Cancelled(ctx) {
		return ctx.Err()
	}

	clusters := Cluster(events, vectors, rc.Config.ClusterThreshold, rc.Config.ClusterMinCohesion)

	rows := make([][]string, 0, len(clusters))
	for _, c := range clusters {
		rows = append(rows, []string{
			c.EventID, c.ClusterID, c.RepresentativeEventID,
			strconv.FormatFloat(c.Cohesion, 'f', 6, 64),
		})
	}

	inputHash := artifact.HashInputs("embed", s.EventsTable)
	if _, err := rc.Store.Write(rc.RunID, s.Name(), "event_clusters", inputHash, rc.Config.Seed, artifact.Table{
		Headers: []string{"event_id", "cluster_id", "representative_event_id", "cohesion"},
		Rows:    rows,
	}); err != nil {
		return fmt.Errorf("embed: write clusters: %w", err)
	}

	log.Info("embed: complete", logging.Int("events", len(events)), logging.Int("clusters", len(clusters)))
	return nil
}

func readEvents(store *artifact.Store, hash string) ([]models.Event, error) {
	t, err := store.Read(hash)
	if err != nil {
		return nil, fmt.Errorf("read events table: %w", err)
	}
	out := make([]models.Event, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) < 3 {
			continue
		}
		out = append(out, models.Event{
			EventID:            row[0],
			RepresentativeTerm: row[1],
			SurfaceForms:       splitSynonyms(row[2]),
		})
	}
	return out, nil
}

func splitSynonyms(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}
