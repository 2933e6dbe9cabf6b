package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SolaceHarmony/SolaceCore-sub002/core/metrics"
)

// ConnectionCounters instruments connection routing loops, labeled by the
// source and target port names.
type ConnectionCounters struct {
	routed  *prometheus.CounterVec
	dropped *prometheus.CounterVec
}

// NewConnectionCounters creates and registers the connection counter
// families.
func NewConnectionCounters(reg prometheus.Registerer) *ConnectionCounters {
	c := &ConnectionCounters{
		routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solacecore_connection_messages_routed_total",
			Help: "Messages delivered into the target port",
		}, []string{"source", "target"}),

		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solacecore_connection_messages_dropped_total",
			Help: "Messages lost to transform or send failures",
		}, []string{"source", "target"}),
	}
	reg.MustRegister(c.routed, c.dropped)
	return c
}

// For returns the routed/dropped counter pair for one connection, ready to
// hand to connection.WithCounters.
func (c *ConnectionCounters) For(source, target string) (routed, dropped metrics.Counter) {
	return c.routed.WithLabelValues(source, target), c.dropped.WithLabelValues(source, target)
}
