package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesObserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardscan_frames_observed_total",
			Help: "Preview frames fed through card detection",
		},
	)

	capturesStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardscan_captures_total",
			Help: "Capture attempts by trigger source",
		},
		[]string{"trigger"}, // trigger: auto, manual
	)

	capturesFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardscan_capture_failures_total",
			Help: "Capture attempts that failed before producing a result",
		},
	)

	captureDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardscan_capture_duration_seconds",
			Help:    "End to end capture episode duration",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardscan_stage_duration_seconds",
			Help:    "Per stage processing duration within a capture",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"stage"}, // stage: photo, normalize, enhance, extract
	)
)
