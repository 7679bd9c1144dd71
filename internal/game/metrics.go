package game

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gameplay metrics. Registered on the default registry and served by the
// debug endpoint.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gunarena_tick_duration_seconds",
		Help:    "Duration of one lobby simulation tick",
		Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .02},
	})

	datagramsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gunarena_udp_datagrams_sent_total",
		Help: "Total UDP datagrams written to clients",
	})

	sendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gunarena_udp_send_errors_total",
		Help: "Total failed UDP writes",
	})
)

// ObserveTickDuration records how long one tick took.
func ObserveTickDuration(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// RecordDatagramSent counts one outbound datagram.
func RecordDatagramSent() {
	datagramsSent.Inc()
}

// RecordSendError counts one failed UDP write.
func RecordSendError() {
	sendErrors.Inc()
}
