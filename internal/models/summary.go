package models

import "time"

// ServiceSummary aggregates heartbeat and alert counts for a single service.
type ServiceSummary struct {
	Service    string     `json:"service"`
	Heartbeats int        `json:"heartbeats"`
	FirstSeen  time.Time  `json:"first_seen"`
	LastSeen   time.Time  `json:"last_seen"`
	Alerts     int        `json:"alerts"`
	LastAlert  *time.Time `json:"last_alert,omitempty"`
}
