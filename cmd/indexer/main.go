package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/civicpulse/reporter/backend/internal/adapters/database"
	"github.com/civicpulse/reporter/backend/internal/adapters/search"
	"github.com/civicpulse/reporter/backend/internal/application/services"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/clients/postgres"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/clients/typesense"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/observability"
	"github.com/civicpulse/reporter/backend/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the issues collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	_ = godotenv.Load()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		var err error
		interval, err = time.ParseDuration(intervalValue)
		if err != nil || interval <= 0 {
			fmt.Fprintf(os.Stderr, "invalid interval %q\n", intervalValue)
			os.Exit(2)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Environment())

	if cfg.Storage.Backend != "postgres" {
		log.Fatal().Str("backend", cfg.Storage.Backend).Msg("the indexer reads issues from PostgreSQL; set STORAGE_BACKEND=postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if n, err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		} else {
			log.Info().Int("issues", n).Msg("reindex complete")
		}

		if interval <= 0 {
			return
		}
		reset = false
		log.Info().Dur("interval", interval).Msg("next reindex scheduled")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) (int, error) {
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return 0, err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return 0, err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Warn().Str("collection", typesense.IssuesCollection).Msg("deleting collection before reindex")
		if _, err := tsClient.Client().Collection(typesense.IssuesCollection).Delete(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to delete collection")
		}
	}

	adapter := search.NewTypesenseAdapter(tsClient)
	if err := adapter.InitSchema(ctx); err != nil {
		return 0, err
	}

	indexer := services.NewSearchIndexerService(database.NewIssueAdapter(pgClient), adapter, nil)
	return indexer.Reindex(ctx)
}
