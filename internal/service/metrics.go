package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_submissions_total",
			Help: "Total number of test submissions",
		},
		[]string{"status"}, // success, validation_error, not_found, storage_error
	)

	rankRecomputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "test_rank_recompute_duration_seconds",
			Help:    "Time spent recomputing and persisting ranks for one test",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	rankedAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "test_ranked_attempts",
			Help:    "Number of attempts ranked per recomputation",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)
