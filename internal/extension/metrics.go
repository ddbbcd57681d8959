package extension

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var activations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "extd",
	Subsystem: "lifecycle",
	Name:      "activations_total",
	Help:      "Activation attempts by outcome.",
}, []string{"outcome"})

var deactivations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "extd",
	Subsystem: "lifecycle",
	Name:      "deactivations_total",
	Help:      "Deactivation runs.",
})
