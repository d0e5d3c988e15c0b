// Package metrics holds the Prometheus collectors for the survey service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsInitiated counts sessions created, by the first participant's role.
	SessionsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairsurvey_sessions_initiated_total",
		Help: "Survey sessions initiated, by initiating role",
	}, []string{"role"})

	// JoinAttempts counts join requests by result.
	JoinAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairsurvey_join_attempts_total",
		Help: "Join attempts by result",
	}, []string{"result"})

	// Submissions counts answer submissions by result.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairsurvey_submissions_total",
		Help: "Answer submissions by result",
	}, []string{"result"})

	// AnalysisAttempts counts AI calls made by the report pipeline.
	AnalysisAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairsurvey_analysis_attempts_total",
		Help: "AI analysis attempts by result",
	}, []string{"result"})

	// PipelineRuns counts finished pipeline runs by final status.
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pairsurvey_pipeline_runs_total",
		Help: "Report pipeline runs by final status",
	}, []string{"status"})

	// PipelineDuration tracks end-to-end pipeline latency.
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pairsurvey_pipeline_duration_seconds",
		Help:    "Report pipeline duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4m
	})

	// PipelinesInFlight is the number of pipelines currently running.
	PipelinesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pairsurvey_pipelines_in_flight",
		Help: "Report pipelines currently running",
	})

	// StuckSessions is the last observed count of sessions stuck in PROCESSING.
	StuckSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pairsurvey_stuck_sessions",
		Help: "Sessions in PROCESSING longer than the configured threshold",
	})

	// StalledSessions is the last observed count of PENDING sessions whose
	// participants have all completed but whose report never started.
	StalledSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pairsurvey_stalled_sessions",
		Help: "Completed sessions still PENDING longer than the configured threshold",
	})
)
