package transport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "elementipelago"

// Metrics holds the transport collectors.
type Metrics struct {
	ConnectAttempts *prometheus.CounterVec
	FramesReceived  *prometheus.CounterVec
	FramesSent      prometheus.Counter
	Disconnects     *prometheus.CounterVec
	Connected       prometheus.Gauge
}

// NewMetrics creates the transport collectors and registers them on reg.
// A nil reg falls back to prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ConnectAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "transport",
				Name:      "connect_attempts_total",
				Help:      "Connection attempts per candidate URL.",
			},
			[]string{"scheme", "result"},
		),
		FramesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "transport",
				Name:      "frames_received_total",
				Help:      "Inbound websocket frames.",
			},
			[]string{"type"},
		),
		FramesSent: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "transport",
				Name:      "frames_sent_total",
				Help:      "Outbound text frames written successfully.",
			},
		),
		Disconnects: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "transport",
				Name:      "disconnects_total",
				Help:      "Connections torn down, by cause.",
			},
			[]string{"cause"},
		),
		Connected: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "transport",
				Name:      "connected",
				Help:      "1 while a connection is open.",
			},
		),
	}
}

func (m *Metrics) attempt(url, result string) {
	if m == nil {
		return
	}
	m.ConnectAttempts.WithLabelValues(schemeOf(url), result).Inc()
}

func (m *Metrics) received(kind string) {
	if m == nil {
		return
	}
	m.FramesReceived.WithLabelValues(kind).Inc()
}

func (m *Metrics) sent() {
	if m == nil {
		return
	}
	m.FramesSent.Inc()
}

func (m *Metrics) up() {
	if m == nil {
		return
	}
	m.Connected.Set(1)
}

func (m *Metrics) down(cause string) {
	if m == nil {
		return
	}
	m.Disconnects.WithLabelValues(cause).Inc()
	m.Connected.Set(0)
}
