package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"trivia-client/internal/app"
	"trivia-client/internal/config"
	"trivia-client/internal/infra/api"
	"trivia-client/internal/infra/local"
	"trivia-client/internal/infra/memory"
	pgoutbox "trivia-client/internal/infra/postgres"
	infraredis "trivia-client/internal/infra/redis"
	"trivia-client/internal/telemetry"
)

// stack is the wired object graph shared by every subcommand.
type stack struct {
	cfg       config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *telemetry.Metrics
	client    *api.Client
	settings  *local.SettingsStore
	submitter *app.Submitter
	source    *app.SourceAdapter
	service   *app.RoundService
	closers   []func()
}

func (r *stack) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.port != "" {
		cfg.Server.Port = opts.port
	}
	return cfg, cfg.Validate()
}

func buildRuntime(ctx context.Context, opts *rootOptions) (*stack, error) {
	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	rt := &stack{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	rt.metrics = telemetry.NewMetrics(rt.registry)
	rt.client = api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: config.TTLDuration(cfg.API.Timeout, 10*time.Second),
	})
	rt.settings = local.NewSettingsStore(cfg.Identity.Path)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var outbox app.Outbox = memory.NewOutbox()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		outbox = pgoutbox.NewOutbox(pool)
	} else {
		logger.Debug("no postgres configured, pending results are kept in memory only")
	}

	cacheTTL := config.TTLDuration(cfg.Questions.CacheTTL, 5*time.Minute)
	var feed app.QuestionFeed
	var rounds app.RoundRepository
	if redisClient != nil {
		feed = infraredis.NewFeedCache(redisClient, rt.client, cacheTTL)
		rounds = infraredis.NewRoundStore(redisClient, redisTTL)
	} else {
		feed = memory.NewFeedCache(rt.client, cacheTTL)
		rounds = memory.NewRoundStore()
	}

	normalizer := app.NewNormalizer(cfg.Questions.StrictCorrectness, logger, rt.metrics)
	rt.source = app.NewSourceAdapter(feed, normalizer, logger)
	rt.submitter = app.NewSubmitter(rt.client, rt.settings, outbox, logger, rt.metrics)
	rt.service = app.NewRoundService(rounds, rt.source, rt.submitter, rt.settings, app.RoundOptions{
		DisplayDelay: config.TTLDuration(cfg.Round.DisplayDelay, app.DefaultDisplayDelay),
		Logger:       logger,
		Metrics:      rt.metrics,
	}, cfg.Questions.EpisodeCount)
	return rt, nil
}
