package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/logship/pkg/logship"
)

const namespace = "logship"

// FlushMetrics implements logship.EventHandler by recording flush outcomes.
type FlushMetrics struct {
	logship.BaseEventHandler

	flushes  *prometheus.CounterVec
	payloads *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	dropped  prometheus.Counter
	state    prometheus.Gauge
}

// NewFlushMetrics creates the collectors and registers them with reg.
func NewFlushMetrics(reg prometheus.Registerer) (*FlushMetrics, error) {
	m := &FlushMetrics{
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Flush attempts that reached storage, by backend and result.",
		}, []string{"backend", "result"}),
		payloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushed_payloads_total",
			Help:      "Payloads handed to storage, by backend and result.",
		}, []string{"backend", "result"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushed_bytes_total",
			Help:      "Payload bytes handed to storage, by backend and result.",
		}, []string{"backend", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Time spent in Store per flush.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"backend"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_payloads_total",
			Help:      "Payloads rejected because the appender was closed.",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "appender_state",
			Help:      "Appender lifecycle state (0 open, 1 closing, 2 closed).",
		}),
	}

	for _, c := range []prometheus.Collector{m.flushes, m.payloads, m.bytes, m.duration, m.dropped, m.state} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OnFlushSuccess implements logship.EventHandler.
func (m *FlushMetrics) OnFlushSuccess(e logship.FlushSuccessEvent) {
	m.observe(e.Backend, "success", e.Payloads, e.Bytes, e.Duration.Seconds())
}

// OnFlushError implements logship.EventHandler.
func (m *FlushMetrics) OnFlushError(e logship.FlushErrorEvent) {
	m.observe(e.Backend, "error", e.Payloads, e.Bytes, e.Duration.Seconds())
}

// OnDropped implements logship.EventHandler.
func (m *FlushMetrics) OnDropped(e logship.DroppedEvent) {
	m.dropped.Add(float64(e.Payloads))
}

// OnStateChange implements logship.EventHandler.
func (m *FlushMetrics) OnStateChange(e logship.StateChangeEvent) {
	m.state.Set(float64(e.Current))
}

func (m *FlushMetrics) observe(backend, result string, payloads, bytes int, seconds float64) {
	m.flushes.WithLabelValues(backend, result).Inc()
	m.payloads.WithLabelValues(backend, result).Add(float64(payloads))
	m.bytes.WithLabelValues(backend, result).Add(float64(bytes))
	m.duration.WithLabelValues(backend).Observe(seconds)
}
