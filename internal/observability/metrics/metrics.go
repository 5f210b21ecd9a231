package metrics

import "github.com/prometheus/client_golang/prometheus"

// VoiceMetrics exposes counters/histograms for the voice call flow.
type VoiceMetrics struct {
	turnsTotal     *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
	activeCalls    prometheus.Gauge
}

func NewVoiceMetrics(reg prometheus.Registerer) *VoiceMetrics {
	m := &VoiceMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nova",
			Subsystem: "voice",
			Name:      "turns_total",
			Help:      "Total conversation turns processed",
		}, []string{"language", "status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nova",
			Subsystem: "voice",
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nova",
			Subsystem: "voice",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of Twilio webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		activeCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nova",
			Subsystem: "voice",
			Name:      "active_calls",
			Help:      "Calls currently in progress",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.webhookLatency, m.activeCalls)
	return m
}

func (m *VoiceMetrics) ObserveTurn(language, status string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(language, status).Inc()
}

func (m *VoiceMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *VoiceMetrics) ObserveWebhookLatency(endpoint string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(endpoint).Observe(seconds)
}

func (m *VoiceMetrics) CallStarted() {
	if m == nil {
		return
	}
	m.activeCalls.Inc()
}

func (m *VoiceMetrics) CallEnded() {
	if m == nil {
		return
	}
	m.activeCalls.Dec()
}
