package monitor

import (
	"errors"
	"time"

	"heartbeatmonitor/internal/history"
	"heartbeatmonitor/internal/models"
)

// ErrInvalidInterval is returned for a non-positive expected interval, which
// would never advance the expected-heartbeat clock.
var ErrInvalidInterval = errors.New("expected interval must be positive")

// Detector finds miss streaks in per-service heartbeat timelines.
type Detector struct {
	interval      time.Duration
	allowedMisses int
}

// NewDetector creates a detector. allowedMisses <= 0 is accepted and disables alerting.
func NewDetector(interval time.Duration, allowedMisses int) (*Detector, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	return &Detector{interval: interval, allowedMisses: allowedMisses}, nil
}

// Interval returns the expected heartbeat interval.
func (d *Detector) Interval() time.Duration { return d.interval }

// AllowedMisses returns the miss threshold.
func (d *Detector) AllowedMisses() int { return d.allowedMisses }

// Detect walks every service in first-seen order and returns alerts in the
// order they were discovered.
func (d *Detector) Detect(timeline *history.ServiceTimeline) []models.Alert {
	var alerts []models.Alert
	timeline.Range(func(service string, beats []time.Time) {
		alerts = d.detectService(alerts, service, beats)
	})
	return alerts
}

// detectService simulates the expected-heartbeat clock for one service. The
// first heartbeat seeds the clock. A streak raises one alert, at the slot where
// the miss count equals the threshold; an arrival at or after the expected slot
// resynchronises the clock and clears the streak.
func (d *Detector) detectService(alerts []models.Alert, service string, beats []time.Time) []models.Alert {
	if len(beats) == 0 {
		return alerts
	}

	expected := beats[0]
	missed := 0
	for _, actual := range beats[1:] {
		for expected.Add(d.interval).Before(actual) {
			expected = expected.Add(d.interval)
			missed++
			if missed == d.allowedMisses {
				alerts = append(alerts, models.Alert{Service: service, AlertAt: expected})
			}
		}
		if !actual.Before(expected) {
			expected = actual
			missed = 0
		}
	}
	return alerts
}
