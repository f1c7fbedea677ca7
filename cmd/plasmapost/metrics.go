package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry *prometheus.Registry

	posted     prometheus.Counter
	lines      prometheus.Counter
	linearized prometheus.Counter
	streamed   prometheus.Counter
	failures   *prometheus.CounterVec
	busy       prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		posted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plasmapost",
			Name:      "programs_posted_total",
			Help:      "Toolpaths translated into G-code programs.",
		}),
		lines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plasmapost",
			Name:      "lines_emitted_total",
			Help:      "G-code lines written by the translator.",
		}),
		linearized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plasmapost",
			Name:      "arcs_linearized_total",
			Help:      "Arcs cut as straight segments.",
		}),
		streamed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plasmapost",
			Subsystem: "controller",
			Name:      "lines_streamed_total",
			Help:      "Lines handed to the controller.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plasmapost",
			Name:      "failures_total",
			Help:      "Failed requests by operation.",
		}, []string{"op"}),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plasmapost",
			Subsystem: "controller",
			Name:      "job_running",
			Help:      "1 while a job is streaming.",
		}),
	}
	m.registry.MustRegister(m.posted, m.lines, m.linearized, m.streamed, m.failures, m.busy)
	return m
}
