package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wallet_ledger"

// Metrics collects ledger counters on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	movementsTotal      *prometheus.CounterVec
	movementDuration    *prometheus.HistogramVec
	movementRetries     *prometheus.CounterVec
	webhookEventsTotal  *prometheus.CounterVec
	outboxDeliveries    *prometheus.CounterVec
	outboxPurgedTotal   prometheus.Counter
	outboxLastPollUnix  prometheus.Gauge
	outboxLastBatchSize prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		movementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "movements_total",
				Help:      "Total money movements partitioned by type and result.",
			},
			[]string{"type", "result"},
		),
		movementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "movement_duration_seconds",
				Help:      "Time spent executing a money movement, including retries.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		movementRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "movement_retries_total",
				Help:      "Units of work retried after a concurrent balance modification.",
			},
			[]string{"type"},
		),
		webhookEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "webhook",
				Name:      "events_total",
				Help:      "Total webhook deliveries partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		outboxDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "outbox",
				Name:      "deliveries_total",
				Help:      "Post-commit effect deliveries partitioned by kind and result.",
			},
			[]string{"kind", "result"},
		),
		outboxPurgedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "outbox",
				Name:      "purged_total",
				Help:      "Total delivered outbox events removed by retention cleanup.",
			},
		),
		outboxLastPollUnix: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "outbox",
				Name:      "last_poll_unix",
				Help:      "Unix time of the most recent outbox poll.",
			},
		),
		outboxLastBatchSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "outbox",
				Name:      "last_batch_size",
				Help:      "Number of events claimed by the most recent outbox poll.",
			},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveMovement(txType, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.movementsTotal.WithLabelValues(txType, result).Inc()
	m.movementDuration.WithLabelValues(txType).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRetry(txType string) {
	if m == nil {
		return
	}
	m.movementRetries.WithLabelValues(txType).Inc()
}

func (m *Metrics) ObserveWebhook(outcome string) {
	if m == nil {
		return
	}
	m.webhookEventsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveOutboxPoll(claimed int) {
	if m == nil {
		return
	}
	m.outboxLastPollUnix.Set(float64(time.Now().UTC().Unix()))
	m.outboxLastBatchSize.Set(float64(claimed))
}

func (m *Metrics) ObserveOutboxDelivery(kind string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.outboxDeliveries.WithLabelValues(kind, "error").Inc()
		return
	}
	m.outboxDeliveries.WithLabelValues(kind, "success").Inc()
}

func (m *Metrics) ObserveOutboxPurge(deleted int64) {
	if m == nil || deleted <= 0 {
		return
	}
	m.outboxPurgedTotal.Add(float64(deleted))
}
