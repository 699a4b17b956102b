package webhook_handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	intakeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printflow_webhook_intake_requests_total",
		Help: "Order intake webhook calls by source and outcome.",
	}, []string{"source", "outcome"})

	mondaySyncRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printflow_webhook_monday_sync_requests_total",
		Help: "Reverse-sync webhook calls from Monday by result.",
	}, []string{"result"})
)
