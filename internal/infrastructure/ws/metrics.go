package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeChannels = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chat",
		Subsystem: "ws",
		Name:      "active_channels",
		Help:      "Live channels currently registered, by routing key scope.",
	}, []string{"scope"})

	framesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chat",
		Subsystem: "ws",
		Name:      "frames_delivered_total",
		Help:      "Frames written to subscriber channels, by frame type.",
	}, []string{"type"})

	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chat",
		Subsystem: "ws",
		Name:      "frames_dropped_total",
		Help:      "Frames dropped because a channel was closed or its buffer full.",
	})
)
