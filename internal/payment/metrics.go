package payment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestCounter = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "payment_requests_total",
		Help: "Number of payment gateway calls, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

func observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}

	requestCounter.WithLabelValues(operation, outcome).Inc()
}
