// sociald is the operational entry point for the social backend core: it
// connects the configured storage backend, ensures schema and indexes, and
// runs the follow-graph consistency check with an optional repair pass.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"social-backend/internal/config"
	"social-backend/internal/engagement"
	"social-backend/internal/logging"
	"social-backend/internal/notify"
	"social-backend/internal/socialgraph"
	"social-backend/internal/stats"
	"social-backend/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	reconcile := flag.Bool("reconcile", false, "repair follow-graph asymmetries instead of only reporting them")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		bootLogger := logging.New("info", true)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := stats.NewRecorder()

	connect := rec.Time("connect")
	st, err := openStore(ctx, cfg)
	connect()
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Backend).Msg("failed to connect storage")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("failed to close storage")
		}
	}()
	logger.Info().Str("backend", cfg.Backend).Msg("storage connected")

	ensure := rec.Time("ensure_schema")
	err = st.EnsureSchema(ctx)
	ensure()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	notifier := notify.NewService(st, logger)
	graph := socialgraph.New(st, notifier, logger)
	engine := engagement.NewEngine(st, notifier, logger, engagement.PageLimits{
		DefaultPageSize: cfg.Pagination.DefaultPageSize,
		MaxPageSize:     cfg.Pagination.MaxPageSize,
	})

	list := rec.Time("list_posts")
	page, err := engine.ListPosts(ctx, 1, cfg.Pagination.DefaultPageSize, store.DefaultSort())
	list()
	if err != nil {
		logger.Fatal().Err(err).Msg("post listing failed")
	}
	logger.Info().
		Int64("total_posts", page.Pagination.TotalPosts).
		Int("total_pages", page.Pagination.TotalPages).
		Int("page_size", page.Pagination.PostsPerPage).
		Msg("post listing summary")

	check := rec.Time("graph_check")
	asymmetries, err := graph.Check(ctx)
	check()
	if err != nil {
		logger.Fatal().Err(err).Msg("follow-graph check failed")
	}
	logger.Info().Int("asymmetries", len(asymmetries)).Msg("follow-graph check complete")

	if *reconcile && len(asymmetries) > 0 {
		sweep := rec.Time("graph_reconcile")
		repaired, err := graph.Reconcile(ctx)
		sweep()
		if err != nil {
			logger.Fatal().Err(err).Int("repaired", repaired).Msg("follow-graph reconcile failed")
		}
		logger.Info().Int("repaired", repaired).Msg("follow-graph reconcile complete")
	}

	for _, s := range rec.Snapshot() {
		logger.Info().
			Str("op", s.Op).
			Int64("count", s.Count).
			Dur("mean", s.Mean).
			Dur("p95", s.P95).
			Dur("p99", s.P99).
			Msg("operation latency")
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Backend {
	case "postgres":
		return store.NewSQLStore(ctx, store.DialectPostgres, cfg.Databases.Postgres)
	case "mysql":
		return store.NewSQLStore(ctx, store.DialectMySQL, cfg.Databases.MySQL)
	default:
		return store.NewMongoStore(ctx, cfg.Databases.Mongo, cfg.Databases.MongoDatabase)
	}
}
