package buffer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PoolMetrics carries the pool's counters. They always count; Register hooks
// them into a prometheus registry when the embedding process exposes one.
type PoolMetrics struct {
	Hits       prometheus.Counter
	Misses     prometheus.Counter
	Evictions  prometheus.Counter
	WriteBacks prometheus.Counter
	Flushes    prometheus.Counter
}

func NewPoolMetrics() *PoolMetrics {
	return &PoolMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strata", Subsystem: "buffer", Name: "hits_total",
			Help: "Page requests served from a resident frame.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strata", Subsystem: "buffer", Name: "misses_total",
			Help: "Page requests that had to go to disk.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strata", Subsystem: "buffer", Name: "evictions_total",
			Help: "Frames reclaimed through the replacer.",
		}),
		WriteBacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strata", Subsystem: "buffer", Name: "write_backs_total",
			Help: "Dirty pages written to disk before their frame was reused.",
		}),
		Flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "strata", Subsystem: "buffer", Name: "flushes_total",
			Help: "Pages written to disk by an explicit flush.",
		}),
	}
}

func (m *PoolMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Hits, m.Misses, m.Evictions, m.WriteBacks, m.Flushes} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
