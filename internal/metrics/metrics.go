// Prometheus collectors of Waitingway, registered once on the registerer handed in from main.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by every collector.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
)

// Metrics holds Prometheus metrics for Waitingway.
type Metrics struct {
	// Scheduled jobs
	CronRunsTotal   *prometheus.CounterVec
	CronRunDuration *prometheus.HistogramVec

	// Subscription delivery
	PublishDeliveriesTotal *prometheus.CounterVec
	SubscriptionsTotal     *prometheus.CounterVec

	// Notification fan-out
	NotificationDispatchesTotal *prometheus.CounterVec
	NotificationTokensTotal     *prometheus.CounterVec

	// Travel refresher
	TravelWorldsProhibited prometheus.Gauge
	TravelTimeSeconds      prometheus.Gauge
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CronRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waitingway_cron_runs_total",
			Help: "Scheduled job runs by outcome",
		}, []string{"job", "outcome"}),
		CronRunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "waitingway_cron_run_duration_seconds",
			Help:    "Wall clock duration of scheduled job runs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"job"}),
		PublishDeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waitingway_publish_deliveries_total",
			Help: "Subscriber deliveries attempted during publish by endpoint kind and outcome",
		}, []string{"endpoint", "outcome"}),
		SubscriptionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waitingway_subscriptions_total",
			Help: "Subscribe and unsubscribe calls that changed membership",
		}, []string{"action"}),
		NotificationDispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waitingway_notification_dispatches_total",
			Help: "Per recipient notification dispatches by kind, operation and outcome",
		}, []string{"kind", "operation", "outcome"}),
		NotificationTokensTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "waitingway_notification_tokens_total",
			Help: "Notification sessions sealed into tokens",
		}, []string{"kind"}),
		TravelWorldsProhibited: factory.NewGauge(prometheus.GaugeOpts{
			Name: "waitingway_travel_worlds_prohibited",
			Help: "Worlds with travel prohibited in the last successful refresh",
		}),
		TravelTimeSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "waitingway_travel_time_seconds",
			Help: "Average travel time reported in the last successful refresh",
		}),
	}
}

// Returns the /metrics handler serving everything gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
