package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crabcups_runs_total",
		Help: "Simulation runs by final state",
	}, []string{"state"})

	movesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crabcups_moves_total",
		Help: "Moves simulated across all runs",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crabcups_run_duration_seconds",
		Help:    "Wall time of finished simulation runs",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	queuedRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crabcups_runs_queued",
		Help: "Runs waiting for the worker",
	})
)
