// cmd/tools/lead-batch/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"lead-qualifier-workers/internal/batch"
	"lead-qualifier-workers/internal/classifier"
	"lead-qualifier-workers/internal/common/config"
	"lead-qualifier-workers/internal/common/database"
	"lead-qualifier-workers/internal/common/logger"
	"lead-qualifier-workers/internal/scoring"
)

func main() {
	inputPath := flag.String("input", "", "Path to the lead CSV file (required)")
	outputPath := flag.String("output", "", "Path for the scored CSV (default: stdout)")
	appendDB := flag.Bool("append", false, "Also append results to the lead_batch_results table")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -input is required.")
		flag.Usage()
		os.Exit(1)
	}

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	intentClassifier := classifier.NewHTTPClassifier(
		&classifier.HTTPConfig{
			BaseURL:    cfg.Classifier.BaseURL,
			APIKey:     cfg.Classifier.APIKey,
			Model:      cfg.Classifier.Model,
			Timeout:    config.GetDuration(cfg.Classifier.Timeout),
			MaxRetries: cfg.Classifier.MaxRetries,
		},
		log,
	)

	engine := scoring.NewEngine(cfg.Scoring, intentClassifier, log)
	processor := batch.NewProcessor(engine, log)

	in, err := os.Open(*inputPath)
	if err != nil {
		zapLog.Fatal("failed to open input file", zap.Error(err))
	}
	defer in.Close()

	rows, err := batch.ReadLeads(in)
	if err != nil {
		zapLog.Fatal("batch rejected", zap.Error(err))
	}

	ctx := context.Background()
	results, err := processor.Process(ctx, rows)
	if err != nil {
		zapLog.Fatal("batch processing failed", zap.Error(err))
	}

	out := os.Stdout
	if *outputPath != "" {
		out, err = os.Create(*outputPath)
		if err != nil {
			zapLog.Fatal("failed to create output file", zap.Error(err))
		}
		defer out.Close()
	}

	if err := batch.WriteResults(out, results); err != nil {
		zapLog.Fatal("failed to write results", zap.Error(err))
	}

	if *appendDB {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("postgres failed", zap.Error(err))
		}
		defer pg.Close()

		if err := batch.AppendResults(ctx, pg.DB, results); err != nil {
			zapLog.Fatal("failed to append results", zap.Error(err))
		}
	}

	zapLog.Info("batch complete",
		zap.Int("rows", len(results)),
		zap.String("input", *inputPath),
	)
}
