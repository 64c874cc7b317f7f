package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"llmbridge/internal/handle"
)

// metrics are per-App collectors. They are exported only when a Registerer
// is supplied, so independent Apps never collide on registration.
type metrics struct {
	loads       *prometheus.CounterVec
	predictions *prometheus.CounterVec
	loaded      prometheus.Gauge
	predictDur  prometheus.Histogram

	reg prometheus.Registerer
}

func newMetrics() *metrics {
	return &metrics{
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "llmbridge",
				Subsystem: "bridge",
				Name:      "loads_total",
				Help:      "Model load attempts by result",
			},
			[]string{"result"},
		),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "llmbridge",
				Subsystem: "bridge",
				Name:      "predictions_total",
				Help:      "Predictions by result class",
			},
			[]string{"result"},
		),
		loaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "llmbridge",
			Subsystem: "bridge",
			Name:      "model_loaded",
			Help:      "1 while a model is loaded",
		}),
		predictDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "llmbridge",
			Subsystem: "bridge",
			Name:      "predict_duration_seconds",
			Help:      "Duration of successful predictions in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.loads, m.predictions, m.loaded, m.predictDur}
}

func (m *metrics) register(reg prometheus.Registerer) error {
	var err error
	var done []prometheus.Collector
	for _, c := range m.collectors() {
		if rerr := reg.Register(c); rerr != nil {
			err = multierr.Append(err, rerr)
			continue
		}
		done = append(done, c)
	}
	if err != nil {
		for _, c := range done {
			reg.Unregister(c)
		}
		return err
	}
	m.reg = reg
	return nil
}

func (m *metrics) unregister() error {
	if m.reg == nil {
		return nil
	}
	var err error
	for _, c := range m.collectors() {
		if !m.reg.Unregister(c) {
			err = multierr.Append(err, fmt.Errorf("unregister %T: not registered", c))
		}
	}
	m.reg = nil
	return err
}

// Publish implements handle.EventPublisher for the loaded gauge.
func (m *metrics) Publish(e handle.Event) {
	switch e.Name {
	case handle.EventLoadDone:
		m.loaded.Set(1)
	case handle.EventReplace, handle.EventUnload, handle.EventInvalidate, handle.EventLoadFailed:
		m.loaded.Set(0)
	}
}
