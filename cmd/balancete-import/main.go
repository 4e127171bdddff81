// Command balancete-import ingests a CSV file or a Google Sheets range into
// the configured backend and prints the resulting summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"balancete/internal/analysis"
	"balancete/internal/cli"
	"balancete/internal/ingest"
	"balancete/internal/ingest/google"
	"balancete/internal/services"
)

func main() {
	file := flag.String("file", "", "path of a .csv/.txt ledger (or .xlsx/.xls when synthetic ingestion is enabled)")
	sheetRange := flag.String("sheet-range", "", "Google Sheets range to read, e.g. \"Balancete!A1:N40\"")
	name := flag.String("name", "", "entity name (defaults to \"Cliente N\" for new entities)")
	entityID := flag.String("entity", "", "existing entity id whose ledger is replaced")
	company := flag.String("company", "", "administrating company")
	period := flag.String("period", "", "period label, e.g. \"Janeiro a Dezembro 2024\"")
	flag.Parse()

	if (*file == "") == (*sheetRange == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -file or -sheet-range is required")
		flag.Usage()
		os.Exit(2)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backend := cli.InitBackend(ctx, logger, cfg)
	defer backend.Cleanup()

	ev := cli.InitEvents(logger, cfg, "balancete-import")
	defer ev.Publisher.Close()

	req := services.IngestRequest{
		EntityID: *entityID,
		Name:     *name,
		Company:  *company,
		Period:   *period,
	}

	var parser ingest.SpreadsheetParser
	if *sheetRange != "" {
		src, err := google.New(ctx, google.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets source", "error", err)
			os.Exit(1)
		}
		parser = src
		req.FileName = *sheetRange
		// The sheet is read by the parser; the content only marks the upload as non-empty.
		req.Content = []byte(*sheetRange)
	} else {
		content, err := os.ReadFile(*file)
		if err != nil {
			logger.Error("Failed to read file", "error", err, "path", *file)
			os.Exit(1)
		}
		parser = cli.NewParser(cfg)
		req.FileName = filepath.Base(*file)
		req.Content = content
	}

	svc := services.NewIngestService(backend.Repository, parser, ev.Publisher)
	entity, l, err := svc.Ingest(ctx, req)
	if err != nil {
		logger.Error("Import failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Ledger imported", "entity_id", entity.ID, "entity_name", entity.Name)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(analysis.Summarize(l)); err != nil {
		logger.Error("Failed to print summary", "error", err)
		os.Exit(1)
	}
}
