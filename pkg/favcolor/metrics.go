package favcolor

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricNamespace = "favcolor"

// Metrics counts pipeline activity. The zero registerer keeps the collectors
// private to the client.
type Metrics struct {
	outcomes *prometheus.CounterVec
	attempts prometheus.Counter
	rebuilds prometheus.Counter
}

// NewMetrics creates the pipeline collectors and registers them on registerer
// when it is non-nil. Collectors already registered there are reused.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "pipeline_outcomes_total",
			Help:      "Terminal pipeline states by state name.",
		}, []string{"state"}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "submission_attempts_total",
			Help:      "Envelopes handed to the signer for submission.",
		}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "pipeline_rebuilds_total",
			Help:      "Pipeline restarts caused by an expired anchor.",
		}),
	}
	if registerer == nil {
		return metrics, nil
	}

	var err error
	if metrics.outcomes, err = register(registerer, metrics.outcomes); err != nil {
		return nil, err
	}
	if metrics.attempts, err = register(registerer, metrics.attempts); err != nil {
		return nil, err
	}
	if metrics.rebuilds, err = register(registerer, metrics.rebuilds); err != nil {
		return nil, err
	}
	return metrics, nil
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) (T, error) {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

func (m *Metrics) observeOutcome(state PipelineState) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(string(state)).Inc()
}

func (m *Metrics) observeAttempt() {
	if m == nil {
		return
	}
	m.attempts.Inc()
}

func (m *Metrics) observeRebuild() {
	if m == nil {
		return
	}
	m.rebuilds.Inc()
}
