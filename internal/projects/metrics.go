package projects

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// fetchOutcomes counts acquisition results by outcome: success, error, or
// skipped (no API configuration selected).
var fetchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "extd",
	Subsystem: "projects",
	Name:      "fetch_outcomes_total",
	Help:      "Project list acquisition outcomes.",
}, []string{"outcome"})
