// Command import_runs copies bot batch runs into Postgres so offline
// botmatch results sit next to the server's own history.
//
// Usage:
//
//	go run ./cmd/import_runs/ --sqlite runs.db --batch <id> --db postgres://...
//	go run ./cmd/import_runs/ --input runs.jsonl --db postgres://...
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/salvo/internal/model"
	"github.com/freeeve/salvo/internal/repository"
	"github.com/freeeve/salvo/internal/repository/postgres"
	"github.com/freeeve/salvo/internal/repository/sqlite"
	"github.com/freeeve/salvo/pkg/battleship"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	inputFile := flag.String("input", "", "Path to a JSONL file of runs")
	sqlitePath := flag.String("sqlite", "", "Path to a botmatch SQLite run store")
	batchID := flag.String("batch", "", "Batch to copy from the SQLite store")
	dbURL := flag.String("db", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	flag.Parse()

	if (*inputFile == "") == (*sqlitePath == "") {
		log.Fatal().Msg("exactly one of --input or --sqlite is required")
	}
	if *sqlitePath != "" && *batchID == "" {
		log.Fatal().Msg("--batch is required with --sqlite")
	}
	if *dbURL == "" {
		log.Fatal().Msg("--db or DATABASE_URL is required")
	}

	ctx := context.Background()
	var runs []model.Run
	if *sqlitePath != "" {
		store, err := sqlite.NewRunStore(*sqlitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Open SQLite store")
		}
		runs, err = store.ListRuns(ctx, *batchID)
		store.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("List runs")
		}
	} else {
		f, err := os.Open(*inputFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Open input")
		}
		runs, err = readRuns(f)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("Read input")
		}
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := postgres.Connect(connCtx, *dbURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Connect to postgres")
	}
	defer db.Close()

	imported, skipped := importRuns(ctx, postgres.NewRunRepo(db), runs)
	log.Info().Int("imported", imported).Int("skipped", skipped).Msg("Done")
}

// readRuns parses one run per line, skipping blank and malformed lines.
func readRuns(r io.Reader) ([]model.Run, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var runs []model.Run
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var run model.Run
		if err := json.Unmarshal([]byte(text), &run); err != nil {
			log.Warn().Err(err).Int("line", line).Msg("Skip line (bad JSON)")
			continue
		}
		if err := validateRun(run); err != nil {
			log.Warn().Err(err).Int("line", line).Msg("Skip line")
			continue
		}
		runs = append(runs, run)
	}
	return runs, scanner.Err()
}

// validateRun checks the fields Postgres cannot check for us.
func validateRun(run model.Run) error {
	if run.ID == "" || run.BatchID == "" {
		return fmt.Errorf("run needs id and batch_id")
	}
	fleet, err := battleship.ParseFleet(run.Fleet)
	if err != nil {
		return err
	}
	if err := fleet.Validate(run.Size); err != nil {
		return err
	}
	if run.Layout != "" {
		ships, err := battleship.DecodeLayout(run.Layout)
		if err != nil {
			return err
		}
		if _, err := battleship.NewBoard(run.Size, ships); err != nil {
			return fmt.Errorf("layout: %w", err)
		}
	}
	if run.Moves < 0 || run.Moves > run.Size*run.Size {
		return fmt.Errorf("moves %d out of range", run.Moves)
	}
	return nil
}

// importRuns saves each run, counting the ones the destination rejects
// (usually because the ID is already there).
func importRuns(ctx context.Context, dst repository.RunRepository, runs []model.Run) (imported, skipped int) {
	for i := range runs {
		if err := dst.SaveRun(ctx, &runs[i]); err != nil {
			log.Warn().Err(err).Str("runId", runs[i].ID).Msg("Skip run")
			skipped++
			continue
		}
		imported++
	}
	return imported, skipped
}
