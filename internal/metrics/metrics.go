package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for one endpoint. All methods are safe
// on a nil receiver so components can run without instrumentation.
type Metrics struct {
	registry           *prometheus.Registry
	commandsSent       *prometheus.CounterVec
	commandsReceived   *prometheus.CounterVec
	payloadsDropped    *prometheus.CounterVec
	publishFailures    prometheus.Counter
	outboxEvictions    prometheus.Counter
	actuatorRejections prometheus.Counter
	generatorFallbacks *prometheus.CounterVec
	sessionActive      prometheus.Gauge
	sessionGeneration  prometheus.Gauge
	devicesConnected   prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	commandsSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vibesync_commands_sent_total",
		Help: "Commands enqueued for publishing, by type",
	}, []string{"type"})
	commandsReceived := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vibesync_commands_received_total",
		Help: "Valid commands delivered to the playback state machine, by type",
	}, []string{"type"})
	payloadsDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vibesync_payloads_dropped_total",
		Help: "Channel payloads dropped before reaching the state machine, by reason",
	}, []string{"reason"})
	publishFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vibesync_publish_failures_total",
		Help: "Broker publish calls that failed",
	})
	outboxEvictions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vibesync_outbox_evictions_total",
		Help: "Queued commands evicted because the outbox was full",
	})
	actuatorRejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vibesync_actuator_rejections_total",
		Help: "Actuation requests the actuator refused",
	})
	generatorFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vibesync_generator_fallbacks_total",
		Help: "Pattern generations that fell back to the default pattern, by backend",
	}, []string{"backend"})
	sessionActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vibesync_session_active",
		Help: "1 while a playback session is active",
	})
	sessionGeneration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vibesync_session_generation",
		Help: "Current playback generation",
	})
	devicesConnected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vibesync_devices_connected",
		Help: "Actuator devices attached over websocket",
	})

	registry.MustRegister(
		commandsSent,
		commandsReceived,
		payloadsDropped,
		publishFailures,
		outboxEvictions,
		actuatorRejections,
		generatorFallbacks,
		sessionActive,
		sessionGeneration,
		devicesConnected,
	)

	return &Metrics{
		registry:           registry,
		commandsSent:       commandsSent,
		commandsReceived:   commandsReceived,
		payloadsDropped:    payloadsDropped,
		publishFailures:    publishFailures,
		outboxEvictions:    outboxEvictions,
		actuatorRejections: actuatorRejections,
		generatorFallbacks: generatorFallbacks,
		sessionActive:      sessionActive,
		sessionGeneration:  sessionGeneration,
		devicesConnected:   devicesConnected,
	}
}

func (m *Metrics) IncSent(kind string) {
	if m == nil {
		return
	}
	m.commandsSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncReceived(kind string) {
	if m == nil {
		return
	}
	m.commandsReceived.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncDropped(reason string) {
	if m == nil {
		return
	}
	m.payloadsDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncPublishFailures() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

func (m *Metrics) AddOutboxEvictions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.outboxEvictions.Add(float64(n))
}

func (m *Metrics) IncActuatorRejections() {
	if m == nil {
		return
	}
	m.actuatorRejections.Inc()
}

func (m *Metrics) IncGeneratorFallbacks(backend string) {
	if m == nil {
		return
	}
	m.generatorFallbacks.WithLabelValues(backend).Inc()
}

// SetSession mirrors the playback session into gauges.
func (m *Metrics) SetSession(active bool, generation uint64) {
	if m == nil {
		return
	}
	if active {
		m.sessionActive.Set(1)
	} else {
		m.sessionActive.Set(0)
	}
	m.sessionGeneration.Set(float64(generation))
}

func (m *Metrics) SetDevicesConnected(n int) {
	if m == nil {
		return
	}
	m.devicesConnected.Set(float64(n))
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
