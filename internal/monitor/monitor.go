package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"heartbeatmonitor/internal/history"
	"heartbeatmonitor/internal/metrics"
	"heartbeatmonitor/internal/models"
)

// Source yields the raw heartbeat records for one detection pass.
type Source interface {
	Load(ctx context.Context) ([]models.RawEvent, error)
	Name() string
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithCollector records every run in the given Prometheus collector.
func WithCollector(c *metrics.Collector) Option {
	return func(m *Monitor) { m.collector = c }
}

// WithClock overrides the clock used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// Monitor periodically reloads the event source and reruns detection.
type Monitor struct {
	refresh   time.Duration
	source    Source
	detector  *Detector
	collector *metrics.Collector
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.RWMutex
	latest    *models.Report
	summaries []models.ServiceSummary

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates a monitor that reruns detection every refresh interval.
func New(refresh time.Duration, source Source, detector *Detector, opts ...Option) *Monitor {
	if refresh < time.Second {
		refresh = time.Second
	}

	m := &Monitor{
		refresh:  refresh,
		source:   source,
		detector: detector,
		logger:   zap.NewNop(),
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the refresh loop in a goroutine.
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		go m.run()
	})
}

// Stop requests loop termination and waits until it is done.
func (m *Monitor) Stop() {
	// A monitor that was never started has no loop to wait for.
	m.startOnce.Do(func() { close(m.doneCh) })
	m.stopOnce.Do(func() { close(m.stopCh) })
	<-m.doneCh
}

// RunOnce executes a single load, group and detect pass and returns its report.
func (m *Monitor) RunOnce(ctx context.Context) (models.Report, error) {
	raw, err := m.source.Load(ctx)
	if err != nil {
		return models.Report{}, fmt.Errorf("load events from %s: %w", m.source.Name(), err)
	}

	timeline := history.BuildWithRejects(raw, func(index int, record models.RawEvent, err error) {
		m.logger.Debug("discarding heartbeat record",
			zap.Int("index", index),
			zap.String("service", record.Service),
			zap.String("timestamp", record.Timestamp),
			zap.Error(err))
	})
	alerts := m.detector.Detect(timeline)
	if alerts == nil {
		alerts = []models.Alert{}
	}

	report := models.Report{
		GeneratedAt:     m.now().UTC(),
		Source:          m.source.Name(),
		IntervalSeconds: int(m.detector.Interval() / time.Second),
		AllowedMisses:   m.detector.AllowedMisses(),
		Accepted:        timeline.Accepted(),
		Rejected:        timeline.Rejected(),
		Services:        timeline.Len(),
		Alerts:          alerts,
	}
	summaries := metrics.ComputeServiceSummaries(timeline, alerts)

	m.mu.Lock()
	m.latest = &report
	m.summaries = summaries
	m.mu.Unlock()

	m.collector.ObserveRun(report)
	m.logger.Info("detection pass complete",
		zap.String("source", report.Source),
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", report.Rejected),
		zap.Int("services", report.Services),
		zap.Int("alerts", len(report.Alerts)))
	return report, nil
}

// Latest returns the most recent report if a pass has completed.
func (m *Monitor) Latest() (models.Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.latest == nil {
		return models.Report{}, false
	}
	return *m.latest, true
}

// Summaries returns the per-service summaries of the most recent pass.
func (m *Monitor) Summaries() []models.ServiceSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.summaries) == 0 {
		return nil
	}
	out := make([]models.ServiceSummary, len(m.summaries))
	copy(out, m.summaries)
	return out
}

func (m *Monitor) run() {
	defer close(m.doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-m.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := m.RunOnce(ctx); err != nil {
		m.logger.Warn("initial detection pass failed", zap.Error(err))
	}

	ticker := time.NewTicker(m.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := m.RunOnce(ctx); err != nil {
				m.logger.Warn("detection pass failed", zap.Error(err))
			}
		case <-m.stopCh:
			return
		}
	}
}
