package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chat",
		Subsystem: "consumer",
		Name:      "records_total",
		Help:      "Bus records pulled from the queue, by topic.",
	}, []string{"topic"})

	recordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chat",
		Subsystem: "consumer",
		Name:      "records_skipped_total",
		Help:      "Records skipped without a domain effect, by reason.",
	}, []string{"reason"})

	reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chat",
		Subsystem: "consumer",
		Name:      "reconnects_total",
		Help:      "Successful reconnects to the bus after a transport error.",
	})
)
