package fx

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_cache_hits_total",
		Help: "FX rate cache hits by tier (memory, durable).",
	}, []string{"tier"})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fx_cache_misses_total",
		Help: "FX rate lookups that missed both cache tiers.",
	})

	fetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fx_fetches_total",
		Help: "Requests issued to the external FX rate service.",
	})

	fetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fx_fetch_errors_total",
		Help: "Failed FX rate service requests (network, status, parse, missing rate).",
	})
)
