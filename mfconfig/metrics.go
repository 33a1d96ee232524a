package mfconfig

import "github.com/prometheus/client_golang/prometheus"

// Metrics is an optional set of Prometheus instruments the hierarchical
// driver (hierarchy.Driver) increments while it runs. Wiring is optional:
// the spec's Non-goals exclude visualisation and persistence but not
// observability of the engine itself, so a nil Metrics is valid and every
// method on it is a safe no-op.
//
// Grounded on the dshills-langgraph-go / jinterlante1206-AleutianLocal use of
// github.com/prometheus/client_golang for service instrumentation; there is
// no HTTP server in this engine, so Metrics only registers the instruments —
// exposing them on a /metrics endpoint is the caller's (external
// collaborator's) responsibility.
type Metrics struct {
	TrialsTotal       prometheus.Counter
	Codelength        prometheus.Histogram
	CoreLoopPasses    prometheus.Histogram
	NonconvergedTotal prometheus.Counter
}

// NewMetrics registers a standard instrument set on reg and returns the
// bundle. Pass the result as Config.Metrics. Passing a nil *Metrics to
// WithMetrics disables instrumentation entirely.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		TrialsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_total",
			Help:      "Number of hierarchical-driver trials completed.",
		}),
		Codelength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "codelength_bits",
			Help:      "Hierarchical codelength achieved per trial, in bits per step.",
			Buckets:   prometheus.DefBuckets,
		}),
		CoreLoopPasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "core_loop_passes",
			Help:      "Number of core-loop passes per partition() call.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		NonconvergedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nonconverged_flow_total",
			Help:      "Number of flow calculations that hit the iteration budget.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.TrialsTotal, m.Codelength, m.CoreLoopPasses, m.NonconvergedTotal)
	}

	return m
}

// ObserveTrial records one completed trial's hierarchical codelength.
func (m *Metrics) ObserveTrial(codelength float64) {
	if m == nil {
		return
	}
	m.TrialsTotal.Inc()
	m.Codelength.Observe(codelength)
}

// ObserveCoreLoopPasses records how many passes one partition() call took.
func (m *Metrics) ObserveCoreLoopPasses(n int) {
	if m == nil {
		return
	}
	m.CoreLoopPasses.Observe(float64(n))
}

// ObserveNonconverged records one NonconvergedFlow warning.
func (m *Metrics) ObserveNonconverged() {
	if m == nil {
		return
	}
	m.NonconvergedTotal.Inc()
}
