package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"heartbeatmonitor/internal/models"
)

const namespace = "heartbeatmonitor"

// Collector exports detection pass outcomes as Prometheus metrics.
// A nil *Collector is valid and records nothing.
type Collector struct {
	eventsAccepted prometheus.Counter
	eventsRejected prometheus.Counter
	alerts         *prometheus.CounterVec
	runs           prometheus.Counter
	lastRun        prometheus.Gauge
	services       prometheus.Gauge
}

// NewCollector creates the collector and registers it with reg
// (prometheus.DefaultRegisterer if nil).
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		eventsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_accepted_total",
			Help:      "Heartbeat records accepted by validation.",
		}),
		eventsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_rejected_total",
			Help:      "Heartbeat records discarded by validation.",
		}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts emitted by service.",
		}, []string{"service"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detection_runs_total",
			Help:      "Completed detection passes.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed detection pass.",
		}),
		services: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "services",
			Help:      "Distinct services seen in the last detection pass.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		c.eventsAccepted, c.eventsRejected, c.alerts, c.runs, c.lastRun, c.services,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveRun records one completed detection pass.
func (c *Collector) ObserveRun(report models.Report) {
	if c == nil {
		return
	}
	c.eventsAccepted.Add(float64(report.Accepted))
	c.eventsRejected.Add(float64(report.Rejected))
	for _, alert := range report.Alerts {
		c.alerts.WithLabelValues(alert.Service).Inc()
	}
	c.runs.Inc()
	c.lastRun.Set(float64(report.GeneratedAt.Unix()))
	c.services.Set(float64(report.Services))
}
