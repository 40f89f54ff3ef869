// The main file of Waitingway.

package main

import (
	"Waitingway/internal/config"
	"Waitingway/internal/connection"
	"Waitingway/internal/cron"
	"Waitingway/internal/discord"
	"Waitingway/internal/envelope"
	"Waitingway/internal/metrics"
	"Waitingway/internal/subscription"
	"Waitingway/internal/travel"
	"Waitingway/internal/world"
	"Waitingway/pkg/cleanup"
	"Waitingway/pkg/db"
	"Waitingway/pkg/log"
	"Waitingway/pkg/validations"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.New("unknown").Fatal().Err(err).Msg("Waitingway couldn't load its configuration.")
	}
	logger := log.New(cfg.Version)
	logger.Info().Msgf("Welcome to Waitingway: v%s", cfg.Version)
	logger.Info().Msgf("Waitingway Environment: %s", cfg.Env)

	// This is the preferred mode used by gin server in DEV environment.
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	validations.RegisterCustomValidations()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sending a PING request to DB for connection status check.
	redisDB := db.NewDbConnection(cfg.Redis)
	if err := redisDB.CheckDbConnection(ctx, logger); err != nil {
		logger.Fatal().Err(err).Msg("Redis client couldn't PING the redis-server.")
	}
	pool, err := db.NewPostgresPool(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Postgres pool couldn't be created.")
	}
	catalog, err := world.Load(ctx, logger, world.NewRepository(pool))
	if err != nil {
		logger.Fatal().Err(err).Msg("World catalog couldn't be loaded.")
	}
	env, err := envelope.New(cfg.UpdatesKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Instance token envelope couldn't be created.")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	discordClient := discord.NewClient(cfg.Discord.APIURL, cfg.Discord.BotToken, logger)
	travelRepo := travel.NewRepository(pool)
	subscriptions := subscription.NewService(subscription.NewRepository(redisDB), subscription.NewDiscordNotifier(discordClient), cfg.PublishChunkSize, m, logger)

	// Background jobs stop once ctx is cancelled on shutdown.
	runner := cron.NewRunner(logger, m)
	refresher := travel.NewRefresher(cfg.Travel, travel.NewExecLauncher(), travelRepo, catalog, subscriptions, m, logger)
	cronDone := runner.Schedule(ctx, refresher)

	// Initializing the gin server.
	server := gin.New()
	Router(server, cfg, dependencies{
		redis:         redisDB,
		pool:          pool,
		catalog:       catalog,
		connections:   connection.NewRepository(pool),
		travel:        travelRepo,
		subscriptions: subscriptions,
		discord:       discordClient,
		envelope:      env,
		metrics:       m,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.SrvAddr + ":" + cfg.SrvPort,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux(registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ListenAndServe is a blocking operation, putting it a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Gin server stopped unexpectedly.")
		}
	}()
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server stopped unexpectedly.")
		}
	}()
	logger.Info().Str("addr", srv.Addr).Str("metrics", metricsSrv.Addr).Msg("Waitingway is up")

	// Graceful shutdown of Waitingway server triggered due to system interruptions.
	wait := cleanup.GracefulShutdown(context.Background(), logger, 10*time.Second, map[string]cleanup.Operation{
		"Cron": func(ctx context.Context) error {
			cancel()
			select {
			case <-cronDone:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		"Redis-server": func(ctx context.Context) error {
			return redisDB.CloseDbConnection(ctx)
		},
		"Postgres": func(ctx context.Context) error {
			pool.Close()
			return nil
		},
		"Gin": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
		"Metrics": func(ctx context.Context) error {
			return metricsSrv.Shutdown(ctx)
		},
	})
	<-wait
}
