package models

import (
	"time"

	"github.com/goccy/go-json"
)

// AlertTimeLayout renders alert instants at second precision with a literal Z.
const AlertTimeLayout = "2006-01-02T15:04:05Z"

// RawEvent is a heartbeat record exactly as decoded from the event source.
// Fields that were absent, null or not strings decode as empty.
type RawEvent struct {
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// UnmarshalJSON decodes a record without failing on fields of the wrong type,
// so one bad record never poisons the whole batch.
func (e *RawEvent) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// Not an object: keep it as an empty record for the validator to reject.
		*e = RawEvent{}
		return nil
	}
	*e = RawEvent{
		Service:   stringField(fields["service"]),
		Timestamp: stringField(fields["timestamp"]),
	}
	return nil
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Event is a validated heartbeat: a non-empty service and a parsed instant.
type Event struct {
	Service   string
	Timestamp time.Time
}

// Alert marks the instant a service's miss streak reached the threshold.
type Alert struct {
	Service string    `json:"service"`
	AlertAt time.Time `json:"alert_at"`
}

type alertJSON struct {
	Service string `json:"service"`
	AlertAt string `json:"alert_at"`
}

// MarshalJSON renders alert_at as YYYY-MM-DDTHH:MM:SSZ using the wall clock
// of the heartbeat's own offset; the Z is literal.
func (a Alert) MarshalJSON() ([]byte, error) {
	return json.Marshal(alertJSON{
		Service: a.Service,
		AlertAt: a.AlertAt.Format(AlertTimeLayout),
	})
}

// Report is the outcome of one detection pass.
type Report struct {
	GeneratedAt     time.Time `json:"generated_at"`
	Source          string    `json:"source"`
	IntervalSeconds int       `json:"interval_seconds"`
	AllowedMisses   int       `json:"allowed_misses"`
	Accepted        int       `json:"accepted"`
	Rejected        int       `json:"rejected"`
	Services        int       `json:"services"`
	Alerts          []Alert   `json:"alerts"`
}
