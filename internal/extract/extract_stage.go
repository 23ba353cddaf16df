package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pvsignal/engine/internal/artifact"
	"github.com/pvsignal/engine/internal/literature"
	"github.com/pvsignal/engine/internal/logging"
	"github.com/pvsignal/engine/internal/models"
	"github.com/pvsignal/engine/internal/stage"
	"github.com/pvsignal/engine/internal/synonym"
)

// Stage is the Extract pipeline stage.
type Stage struct {
	Literature  literature.Source
	DrugsTable  string // content hash of Normalize's drugs artifact
	EventsTable string // content hash of Normalize's events artifact
}

func (s *Stage) Name() string { return "extract" }

func (s *Stage) Run(ctx context.Context, rc *stage.RunContext) error {
	log := rc.Log
	if log == nil {
		log = logging.Get()
	}

	drugEntries, err := readDictionary(rc.Store, s.DrugsTable)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	eventEntries, err := readDictionary(rc.Store, s.EventsTable)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	// Extract matches dictionary entries verbatim against running text, so
	// edit-distance tolerance is irrelevant here; 0 keeps ResolveExact the
	// only tier in play.
	drugResolver := synonym.New(drugEntries, 0)
	eventResolver := synonym.New(eventEntries, 0)

	var relations []models.RelationMention
	sentenceSeq := 0

	for {
		if stage.Cancelled(ctx) {
			return ctx.Err()
		}
		abs, ok, err := s.Literature.Next()
		if err != nil {
			return fmt.Errorf("extract: read literature source: %w", err)
		}
		if !ok {
			break
		}

		for _, sentence := range SplitSentences(abs.Text) {
			sentenceSeq++
			sentenceID := fmt.Sprintf("%s:%d", abs.PMID, sentenceSeq)
			tokens := Tokenize(sentence)

			drugSpans := DetectSpans(tokens, drugResolver, SpanDrug)
			eventSpans := DetectSpans(tokens, eventResolver, SpanEvent)
			if len(drugSpans) == 0 || len(eventSpans) == 0 {
				continue
			}
			spans := ResolveOverlaps(drugSpans, eventSpans)

			var drugs, events []Span
			for _, sp := range spans {
				if sp.Kind == SpanDrug {
					drugs = append(drugs, sp)
				} else {
					events = append(events, sp)
				}
			}

			for _, d := range drugs {
				for _, e := range events {
					feature := ComputeFeature(tokens, d, e)
					polarity := feature.Polarity()
					confidence := feature.Confidence() * PolarityWeight(polarity)
					if confidence < rc.Config.ExtractConfidenceFloor {
						continue
					}
					relations = append(relations, models.RelationMention{
						SentenceID:   sentenceID,
						PMID:         abs.PMID,
						DrugMention:  d.Surface,
						EventMention: e.Surface,
						DrugID:       d.ID,
						EventID:      e.ID,
						Confidence:   confidence,
						Polarity:     polarity,
						Year:         abs.Year,
					})
				}
			}
		}
	}

	if err := writeRelations(rc, relations); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	log.Info("extract: complete", logging.Int("relations", len(relations)))
	return nil
}

func readDictionary(store *artifact.Store, hash string) ([]synonym.Entry, error) {
	if hash == "" {
		return nil, nil
	}
	t, err := store.Read(hash)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	out := make([]synonym.Entry, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) < 3 {
			continue
		}
		id := row[0]
		syns := []string{row[1]}
		if row[2] != "" {
			syns = append(syns, strings.Split(row[2], "|")...)
		}
		out = append(out, synonym.Entry{ID: id, Synonyms: syns})
	}
	return out, nil
}

func writeRelations(rc *stage.RunContext, relations []models.RelationMention) error {
	rows := make([][]string, 0, len(relations))
	for _, r := range relations {
		rows = append(rows, []string{
			r.PMID, r.SentenceID, r.DrugID, r.EventID,
			strconv.FormatFloat(r.Confidence, 'f', 6, 64), string(r.Polarity),
			strconv.Itoa(r.Year),
		})
	}
	inputHash := artifact.HashInputs("extract", rc.RunID)
	_, err := rc.Store.Write(rc.RunID, "extract", "relations", inputHash, rc.Config.Seed, artifact.Table{
		Headers: []string{"pmid", "sentence_id", "drug_id", "event_id", "confidence", "polarity", "year"},
		Rows:    rows,
	})
	return err
}
