package metrics

import (
	"sort"
	"time"

	"heartbeatmonitor/internal/history"
	"heartbeatmonitor/internal/models"
)

// ComputeServiceSummaries aggregates heartbeat and alert counts per service,
// sorted by service name.
func ComputeServiceSummaries(timeline *history.ServiceTimeline, alerts []models.Alert) []models.ServiceSummary {
	type acc struct {
		alerts    int
		lastAlert time.Time
	}
	state := make(map[string]*acc)
	for _, alert := range alerts {
		target := state[alert.Service]
		if target == nil {
			target = &acc{}
			state[alert.Service] = target
		}
		target.alerts++
		if alert.AlertAt.After(target.lastAlert) {
			target.lastAlert = alert.AlertAt
		}
	}

	results := make([]models.ServiceSummary, 0, timeline.Len())
	timeline.Range(func(service string, beats []time.Time) {
		if len(beats) == 0 {
			return
		}
		summary := models.ServiceSummary{
			Service:    service,
			Heartbeats: len(beats),
			FirstSeen:  beats[0],
			LastSeen:   beats[len(beats)-1],
		}
		if data := state[service]; data != nil {
			summary.Alerts = data.alerts
			last := data.lastAlert
			summary.LastAlert = &last
		}
		results = append(results, summary)
	})
	if len(results) == 0 {
		return nil
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Service < results[j].Service
	})
	return results
}
