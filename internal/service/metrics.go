package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	meetingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visit_planner_meeting_transitions_total",
			Help: "Meeting status transitions by target status",
		},
		[]string{"status"},
	)

	seriesItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visit_planner_series_items_total",
			Help: "Per-doctor outcomes of weekly series creation",
		},
		[]string{"result"},
	)
)
