package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/verifix/backend/internal/adapters/database"
	"github.com/verifix/backend/internal/adapters/search"
	"github.com/verifix/backend/internal/infrastructure/clients/openai"
	"github.com/verifix/backend/internal/infrastructure/clients/postgres"
	"github.com/verifix/backend/internal/infrastructure/clients/typesense"
	"github.com/verifix/backend/internal/infrastructure/observability"
	"github.com/verifix/backend/pkg/config"
)

func main() {
	var reset bool
	var reembed bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.BoolVar(&reembed, "reembed", false, "recompute embeddings instead of using stored vectors")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Server.Env)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset, reembed); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

// indexOnce pushes every stored question into the Typesense collection.
// Stored vectors are reused unless -reembed asks for fresh ones, which
// is needed after switching embedding models.
func indexOnce(ctx context.Context, cfg *config.Config, reset, reembed bool) error {
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	questionRepo := database.NewQuestionAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Msg("Reset requested, deleting questions collection")
		_, err := tsClient.Client().Collection(typesense.QuestionsCollection).Delete(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	if err := tsClient.InitSchema(ctx, cfg.Embedding.Dimension); err != nil {
		return err
	}

	index := search.NewTypesenseAdapter(tsClient)

	var embedder *openai.EmbeddingClient
	if reembed {
		embedder, err = openai.NewEmbeddingClient(&cfg.Embedding)
		if err != nil {
			return err
		}
	}

	questions, err := questionRepo.List(ctx)
	if err != nil {
		return err
	}

	log.Info().Int("count", len(questions)).Msg("Indexing questions")

	indexed := 0
	for _, q := range questions {
		if q == nil {
			continue
		}

		embedding := q.Embedding
		if reembed {
			embedding, err = embedder.Embed(ctx, q.Text)
			if err != nil {
				log.Error().Err(err).Str("question_id", q.ID).Msg("Failed to embed question")
				continue
			}
		}
		if len(embedding) == 0 {
			log.Warn().Str("question_id", q.ID).Msg("No embedding stored, rerun with -reembed")
			continue
		}

		if err := index.Upsert(ctx, q.ID, q.Text, q.SolutionID, embedding); err != nil {
			log.Error().Err(err).Str("question_id", q.ID).Msg("Failed to index question")
			continue
		}
		indexed++
	}

	log.Info().Int("indexed", indexed).Int("total", len(questions)).Msg("Indexing complete")
	return nil
}
