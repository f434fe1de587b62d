package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics covers the fetch/cache path of the analytics pipeline.
type PipelineMetrics struct {
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	fetchTotal   *prometheus.CounterVec
	fetchRetries *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Cache reads that returned a live entry.",
	}, []string{"kind"})
	cacheMisses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Cache reads that found nothing or an expired entry.",
	}, []string{"kind"})
	fetchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_fetch_total",
		Help: "Wildberries API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	fetchRetries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_fetch_retries_total",
		Help: "Retried Wildberries API requests by endpoint.",
	}, []string{"endpoint"})
	reg.MustRegister(cacheHits, cacheMisses, fetchTotal, fetchRetries)
	return &PipelineMetrics{
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
		fetchTotal:   fetchTotal,
		fetchRetries: fetchRetries,
	}
}

// IncCacheHit increments the hit counter for the cache kind.
func (p *PipelineMetrics) IncCacheHit(kind string) {
	if p == nil || p.cacheHits == nil {
		return
	}
	p.cacheHits.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncCacheMiss increments the miss counter for the cache kind.
func (p *PipelineMetrics) IncCacheMiss(kind string) {
	if p == nil || p.cacheMisses == nil {
		return
	}
	p.cacheMisses.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncFetch records a finished request against an endpoint with its outcome.
func (p *PipelineMetrics) IncFetch(endpoint, outcome string) {
	if p == nil || p.fetchTotal == nil {
		return
	}
	p.fetchTotal.WithLabelValues(normalizeLabel(endpoint), normalizeLabel(outcome)).Inc()
}

// IncFetchRetry records a retried request against an endpoint.
func (p *PipelineMetrics) IncFetchRetry(endpoint string) {
	if p == nil || p.fetchRetries == nil {
		return
	}
	p.fetchRetries.WithLabelValues(normalizeLabel(endpoint)).Inc()
}
