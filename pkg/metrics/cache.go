package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics counts read-through cache outcomes per cache name.
type CacheMetrics struct {
	lookups *prometheus.CounterVec
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by cache name and result (hit, miss, negative, error).",
	}, []string{"cache", "result"})
	reg.MustRegister(lookups)
	return &CacheMetrics{lookups: lookups}
}

func (m *CacheMetrics) Inc(cache, result string) {
	if m == nil || m.lookups == nil {
		return
	}
	m.lookups.WithLabelValues(normalizeLabel(cache), normalizeLabel(result)).Inc()
}
