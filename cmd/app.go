package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iordanov05/AutoSMM/db"
	"github.com/iordanov05/AutoSMM/internal/config"
	"github.com/iordanov05/AutoSMM/internal/database"
	"github.com/iordanov05/AutoSMM/internal/generate"
	"github.com/iordanov05/AutoSMM/internal/index"
	"github.com/iordanov05/AutoSMM/internal/ingest"
	"github.com/iordanov05/AutoSMM/internal/log"
	"github.com/iordanov05/AutoSMM/internal/retrieval"
	"github.com/iordanov05/AutoSMM/internal/session"
	"github.com/iordanov05/AutoSMM/internal/store"
)

// App bundles the wired components the CLI commands run against.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Pool      *pgxpool.Pool
	Store     *store.Store
	Index     *index.Index
	Pipeline  *ingest.Pipeline
	Retriever *retrieval.Retriever
	Engine    *generate.Engine
	Sessions  *session.Store
}

// setupApp wires the full application: configuration, logger, migrated
// database pool, Genkit with the Google AI plugin, and the domain
// components on top. The returned cleanup closes the pool.
func setupApp(ctx context.Context) (*App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{Level: parseLevel(cfg.LogLevel), JSON: cfg.LogJSON})

	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Open(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { pool.Close() }

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		cleanup()
		return nil, nil, errors.New("initializing genkit with googleai provider")
	}
	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)

	st := store.New(pool, logger)
	ix := index.New(pool, embedder, logger)
	retriever := retrieval.New(ix, logger)

	engine, err := generate.New(generate.Config{
		Completer: generate.NewGenkitCompleter(g, cfg.ModelName, cfg.Temperature, cfg.MaxTokens),
		Retriever: retriever,
		Store:     st,
		Logger:    logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("creating generation engine: %w", err)
	}

	logger.Debug("application wired",
		"model", cfg.ModelName, "embedder", cfg.EmbedderModel)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Pool:      pool,
		Store:     st,
		Index:     ix,
		Pipeline:  ingest.New(st, ix, logger),
		Retriever: retriever,
		Engine:    engine,
		Sessions:  session.New(session.DefaultMaxTurns, logger),
	}, cleanup, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
