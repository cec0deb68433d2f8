package services

import "github.com/prometheus/client_golang/prometheus"

// issueOps counts successful issue mutations by operation (create|update).
var issueOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "issues_operations_total",
		Help: "Total number of successful issue mutations.",
	},
	[]string{"op"},
)

func init() {
	prometheus.MustRegister(issueOps)
}
