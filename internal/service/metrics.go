package service

import "github.com/prometheus/client_golang/prometheus"

var lookupMisses = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "property_lookup_misses_total",
		Help: "Properties dropped from batch lookups",
	},
	[]string{"reason"}, // not_found / error
)

func init() { prometheus.MustRegister(lookupMisses) }
