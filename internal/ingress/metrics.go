package ingress

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	packetsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gunarena_udp_packets_received_total",
		Help: "Total UDP datagrams read from the gameplay socket",
	})

	packetsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gunarena_udp_packets_dropped_total",
		Help: "Total dropped inbound datagrams by reason",
	}, []string{"reason"})
)

func recordReceived() {
	packetsReceived.Inc()
}

func recordDropped(reason string) {
	packetsDropped.WithLabelValues(reason).Inc()
}
