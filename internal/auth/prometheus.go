package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushub_permission_cache_hits_total",
		Help: "Number of permission lookups served from the cache.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushub_permission_cache_misses_total",
		Help: "Number of permission lookups that had to hit the store.",
	})

	checkDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushub_permission_denials_total",
		Help: "Number of feature or route checks resolved as deny.",
	})
)
