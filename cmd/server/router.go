// List of all REST API endpoints being used by Waitingway can be found here.

package main

import (
	"Waitingway/internal/auth"
	"Waitingway/internal/config"
	"Waitingway/internal/connection"
	"Waitingway/internal/envelope"
	"Waitingway/internal/metrics"
	"Waitingway/internal/notification"
	"Waitingway/internal/subscription"
	"Waitingway/internal/travel"
	"Waitingway/internal/world"
	"Waitingway/pkg/db"
	"Waitingway/pkg/globalcontext"
	"Waitingway/pkg/log"
	"Waitingway/pkg/middlewares"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Everything the handlers are built from, constructed once in main.
type dependencies struct {
	redis         *db.RedisDB
	pool          db.PgxIface
	catalog       *world.Catalog
	connections   connection.Repository
	travel        travel.Repository
	subscriptions subscription.Service
	discord       notification.Messenger
	envelope      *envelope.Envelope
	metrics       *metrics.Metrics
}

func Router(router *gin.Engine, cfg *config.Config, deps dependencies, logger log.Logger) {
	// Global middlewares, ReqID and correlation ids first so every later log line carries them
	router.Use(globalcontext.UniqueIDMiddleware(logger))
	router.Use(middlewares.CorrelationMiddleware(logger))
	router.Use(middlewares.CORSMiddleware(cfg.CORSOrigin))
	// Forcing gin to use custom Logger instead of the default one.
	router.Use(log.LoggerGinExtension(logger))
	router.Use(gin.Recovery())

	// This is the route to default path
	router.GET("/", func(gctx *gin.Context) {
		gctx.String(http.StatusOK, "Welcome to Waitingway!")
	})
	router.GET("/api/health", health(deps, logger))

	authWithAcc := auth.AuthMiddleware(logger, cfg.ClientSecretHash, cfg.JWTSecret)

	loginNotifications := notification.NewLoginService(cfg.QueueSizeDMThreshold, deps.connections, deps.discord, deps.envelope, deps.metrics, logger)
	dutyNotifications := notification.NewDutyService(deps.connections, deps.discord, deps.envelope, deps.metrics, logger)
	notification.NotificationHandlers(router, "/api/queue/login/notifications", loginNotifications, authWithAcc, logger)
	notification.NotificationHandlers(router, "/api/queue/duty/notifications", dutyNotifications, authWithAcc, logger)

	subscription.SubscriptionHandlers(router, deps.subscriptions, deps.catalog, deps.connections, deps.travel, authWithAcc, logger)
	travel.StatesHandlers(router, deps.travel, deps.catalog, logger)
}

// health returns a handler reporting whether both stores answer.
func health(deps dependencies, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		status := gin.H{"redis": "ok", "postgres": "ok"}
		code := http.StatusOK
		if err := deps.redis.Client().Ping(gctx).Err(); err != nil {
			logger.WithCtx(gctx).Error().Err(err).Msg("Health check couldn't PING the redis-server.")
			status["redis"], code = "unavailable", http.StatusServiceUnavailable
		}
		if err := deps.pool.Ping(gctx); err != nil {
			logger.WithCtx(gctx).Error().Err(err).Msg("Health check couldn't ping postgres.")
			status["postgres"], code = "unavailable", http.StatusServiceUnavailable
		}
		gctx.JSON(code, status)
	}
}

// Returns the mux served on the metrics address.
func metricsMux(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	return mux
}
