package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SolaceHarmony/SolaceCore-sub002/core/actor"
	"github.com/SolaceHarmony/SolaceCore-sub002/core/metrics"
)

// actorMetrics implements actor.ActorMetrics using Prometheus.
type actorMetrics struct {
	messageDuration *prometheus.HistogramVec
	messagesTotal   *prometheus.CounterVec
	receivedTotal   *prometheus.CounterVec
	timeoutsTotal   *prometheus.CounterVec
	portCount       *prometheus.GaugeVec
}

// NewActorMetrics creates a Prometheus implementation of ActorMetrics.
func NewActorMetrics(reg prometheus.Registerer) actor.ActorMetrics {
	m := &actorMetrics{
		messageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "solacecore_actor_message_duration_seconds",
			Help:    "Message handling time in seconds",
			Buckets: defaultBuckets,
		}, []string{"port"}),

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solacecore_actor_messages_total",
			Help: "Total number of messages processed",
		}, []string{"port", "success"}),

		receivedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solacecore_actor_messages_received_total",
			Help: "Total number of messages received",
		}, []string{"port"}),

		timeoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solacecore_actor_handler_timeouts_total",
			Help: "Total number of handlers abandoned at their deadline",
		}, []string{"port"}),

		portCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "solacecore_actor_ports",
			Help: "Number of registered ports",
		}, []string{"actor_id"}),
	}

	reg.MustRegister(
		m.messageDuration,
		m.messagesTotal,
		m.receivedTotal,
		m.timeoutsTotal,
		m.portCount,
	)

	return m
}

func (m *actorMetrics) MessageReceived(port string) {
	m.receivedTotal.WithLabelValues(port).Inc()
}

func (m *actorMetrics) MessageProcessed(port string, success bool) {
	m.messagesTotal.WithLabelValues(port, boolToStr(success)).Inc()
}

func (m *actorMetrics) MessageTimeout(port string) {
	m.timeoutsTotal.WithLabelValues(port).Inc()
}

func (m *actorMetrics) MessageDuration(port string) metrics.Timer {
	return newTimer(m.messageDuration.WithLabelValues(port))
}

func (m *actorMetrics) PortCount(actorID string, n int) {
	m.portCount.WithLabelValues(actorID).Set(float64(n))
}

var _ actor.ActorMetrics = (*actorMetrics)(nil)
