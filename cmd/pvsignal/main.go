// Command pvsignal runs one end-to-end signal-detection pipeline: it
// loads a config file, wires the report, synonym, and literature inputs
// it names, and executes Normalize -> {Embed, Extract, Signal} -> Rank.
// Ranked results land in the run's artifact store under "rank/signals_csv";
// this binary is a thin driver, not a general-purpose CLI.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pvsignal/engine/internal/config"
	"github.com/pvsignal/engine/internal/literature"
	"github.com/pvsignal/engine/internal/logging"
	"github.com/pvsignal/engine/internal/normalize"
	"github.com/pvsignal/engine/internal/pipeline"
	"github.com/pvsignal/engine/internal/synonym"
)

func main() {
	var (
		configPath     = flag.String("config", "", "path to a YAML config file, env vars override it")
		reportsCSV     = flag.String("reports", "", "path to the case-report CSV")
		drugsCSV       = flag.String("drugs", "", "path to the per-report drug-mention CSV")
		reactionsCSV   = flag.String("reactions", "", "path to the per-report reaction CSV")
		drugDictPath   = flag.String("drug-dict", "", "path to a drug synonym dictionary CSV (id,synonym)")
		eventDictPath  = flag.String("event-dict", "", "path to an event synonym dictionary CSV (id,synonym)")
		literaturePath = flag.String("literature", "", "path to a literature corpus file, empty for no corpus (Extract then writes an empty relations table)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	logger := logging.Get()

	if *reportsCSV == "" || *drugsCSV == "" || *reactionsCSV == "" {
		log.Fatal("reports, drugs, and reactions CSV paths are required")
	}

	drugDict, err := loadDictionary(*drugDictPath)
	if err != nil {
		log.Fatalf("failed to load drug dictionary: %v", err)
	}
	eventDict, err := loadDictionary(*eventDictPath)
	if err != nil {
		log.Fatalf("failed to load event dictionary: %v", err)
	}

	var litSource literature.Source = literature.EmptySource{}
	if *literaturePath != "" {
		fs, err := literature.OpenFileSource(*literaturePath)
		if err != nil {
			log.Fatalf("failed to open literature source: %v", err)
		}
		defer fs.Close()
		litSource = fs
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("received interrupt, cancelling run")
		cancel()
	}()

	inputs := pipeline.Inputs{
		Reports: normalize.CSVReportSource{
			ReportsPath:   *reportsCSV,
			DrugsPath:     *drugsCSV,
			ReactionsPath: *reactionsCSV,
		},
		DrugDict:   drugDict,
		EventDict:  eventDict,
		Literature: litSource,
	}

	result, err := pipeline.Run(ctx, cfg, inputs, nil)
	if err != nil {
		log.Fatalf("pipeline run failed: %v", err)
	}

	logger.Info("run complete",
		logging.String("run_id", result.RunID),
		logging.String("ranked_table", result.RankedHash),
	)
}

func loadDictionary(path string) ([]synonym.Entry, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return synonym.ReadDictionaryCSV(f)
}
