package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "writingway_registrations_total",
		Help: "Total number of successful user registrations.",
	})

	refreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "writingway_token_refreshes_total",
		Help: "Total number of successful token refreshes.",
	})

	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "writingway_token_verifications_total",
			Help: "Total number of token verification attempts by type and status.",
		},
		[]string{"type", "status"},
	)

	assistanceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "writingway_assistance_requests_total",
			Help: "Writing assistance requests by assistance type and caller kind.",
		},
		[]string{"assistance_type", "caller"},
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "writingway_project_exports_total",
			Help: "Project exports by format.",
		},
		[]string{"format"},
	)
)
