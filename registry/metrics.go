package registry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the registry's prometheus collectors. All methods are
// nil-receiver safe so an uninstrumented registry pays only a nil check.
type Metrics struct {
	ops         *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewMetrics builds the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disco",
			Name:      "registry_operations_total",
			Help:      "Registry operations completed successfully, by operation.",
		}, []string{"op"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disco",
			Name:      "registry_cache_hits_total",
			Help:      "Discovery reads answered from the read cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disco",
			Name:      "registry_cache_misses_total",
			Help:      "Discovery reads that had to consult the store.",
		}),
	}
	reg.MustRegister(m.ops, m.cacheHits, m.cacheMisses)
	return m
}

func (m *Metrics) op(name string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(name).Inc()
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) cacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}
