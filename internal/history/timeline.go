package history

import (
	"sort"
	"time"

	"heartbeatmonitor/internal/models"
)

// RejectFunc observes records discarded while building a timeline.
type RejectFunc func(index int, raw models.RawEvent, err error)

// ServiceTimeline maps each service to its heartbeats in ascending order.
// Services enumerate in the order they were first seen. A timeline is not
// modified after construction.
type ServiceTimeline struct {
	services []string
	beats    map[string][]time.Time
	accepted int
	rejected int
}

// Build validates raw records, drops the rejected ones and groups the rest
// per service.
func Build(raw []models.RawEvent) *ServiceTimeline {
	return BuildWithRejects(raw, nil)
}

// BuildWithRejects is Build with a callback for every discarded record.
func BuildWithRejects(raw []models.RawEvent, onReject RejectFunc) *ServiceTimeline {
	events := make([]models.Event, 0, len(raw))
	rejected := 0
	for i, record := range raw {
		event, err := ValidateEvent(record)
		if err != nil {
			rejected++
			if onReject != nil {
				onReject(i, record, err)
			}
			continue
		}
		events = append(events, event)
	}
	t := FromEvents(events)
	t.rejected = rejected
	return t
}

// FromEvents groups already validated events per service and sorts each group.
func FromEvents(events []models.Event) *ServiceTimeline {
	t := &ServiceTimeline{beats: make(map[string][]time.Time)}
	for _, event := range events {
		if _, ok := t.beats[event.Service]; !ok {
			t.services = append(t.services, event.Service)
		}
		t.beats[event.Service] = append(t.beats[event.Service], event.Timestamp)
	}
	for _, service := range t.services {
		samples := t.beats[service]
		if len(samples) > 1 {
			sort.Slice(samples, func(i, j int) bool {
				return samples[i].Before(samples[j])
			})
		}
	}
	t.accepted = len(events)
	return t
}

// Services returns service identifiers in first-seen order.
func (t *ServiceTimeline) Services() []string {
	if t == nil || len(t.services) == 0 {
		return nil
	}
	out := make([]string, len(t.services))
	copy(out, t.services)
	return out
}

// Heartbeats returns a copy of the ascending heartbeats recorded for service.
func (t *ServiceTimeline) Heartbeats(service string) []time.Time {
	if t == nil {
		return nil
	}
	samples := t.beats[service]
	if len(samples) == 0 {
		return nil
	}
	out := make([]time.Time, len(samples))
	copy(out, samples)
	return out
}

// Len reports the number of distinct services.
func (t *ServiceTimeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.services)
}

// Accepted reports how many records made it into the timeline.
func (t *ServiceTimeline) Accepted() int {
	if t == nil {
		return 0
	}
	return t.accepted
}

// Rejected reports how many records were discarded by validation.
func (t *ServiceTimeline) Rejected() int {
	if t == nil {
		return 0
	}
	return t.rejected
}

// Range calls fn for every service in first-seen order. fn must not modify beats.
func (t *ServiceTimeline) Range(fn func(service string, beats []time.Time)) {
	if t == nil {
		return
	}
	for _, service := range t.services {
		fn(service, t.beats[service])
	}
}
