package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors counts gateway operations and inbound callbacks. A nil
// *Collectors records nothing.
type Collectors struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Callbacks  *prometheus.CounterVec
}

func New(namespace string, reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collectors{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_operations_total",
			Help:      "Gateway operations by provider, operation and outcome.",
		}, []string{"provider", "operation", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_operation_duration_ms",
			Help:      "Gateway operation latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"provider", "operation"}),
		Callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_callbacks_total",
			Help:      "Inbound gateway callbacks by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}

	register(reg, c.Operations, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			c.Operations = v
		}
	})
	register(reg, c.Duration, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.HistogramVec); ok {
			c.Duration = v
		}
	})
	register(reg, c.Callbacks, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			c.Callbacks = v
		}
	})
	return c
}

func (c *Collectors) ObserveOperation(provider, operation, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Operations.WithLabelValues(provider, operation, outcome).Inc()
	c.Duration.WithLabelValues(provider, operation).Observe(float64(elapsed) / float64(time.Millisecond))
}

func (c *Collectors) ObserveCallback(provider, outcome string) {
	if c == nil {
		return
	}
	c.Callbacks.WithLabelValues(provider, outcome).Inc()
}

func register(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			reuse(are.ExistingCollector)
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
