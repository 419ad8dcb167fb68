package history

import (
	"errors"
	"fmt"
	"time"

	"heartbeatmonitor/internal/models"
)

// Rejection reasons reported by ValidateEvent.
var (
	ErrMissingService   = errors.New("missing service")
	ErrMissingTimestamp = errors.New("missing timestamp")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

var timestampLayouts = buildTimestampLayouts()

func buildTimestampLayouts() []string {
	layouts := make([]string, 0, 32)
	for _, sep := range []string{"T", " "} {
		for _, clock := range []string{"15:04:05", "15:04", "15"} {
			for _, zone := range []string{"Z07:00", "Z0700", "Z07", ""} {
				layouts = append(layouts, "2006-01-02"+sep+clock+zone)
			}
		}
	}
	// Basic format and reduced-precision dates.
	for _, zone := range []string{"Z07:00", "Z0700", "Z07", ""} {
		layouts = append(layouts, "20060102T150405"+zone, "20060102T1504"+zone)
	}
	return append(layouts, "2006-01-02", "20060102", "2006-01", "2006")
}

// ParseTimestamp parses an ISO-8601 date-time. An explicit offset is kept on
// the returned value, so comparisons use true instants while formatting shows
// the wall clock of the input. Naive values are read as UTC. Midnight written
// as hour 24 rolls over to the next day.
func ParseTimestamp(value string) (time.Time, error) {
	if ts, ok := parseLayouts(value); ok {
		return ts, nil
	}
	if ts, ok := parseEndOfDay(value); ok {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

func parseLayouts(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// parseEndOfDay accepts "YYYY-MM-DDT24[:00[:00]]" as midnight of the next day.
func parseEndOfDay(value string) (time.Time, bool) {
	if len(value) < 13 || (value[10] != 'T' && value[10] != ' ') || value[11:13] != "24" {
		return time.Time{}, false
	}
	ts, ok := parseLayouts(value[:11] + "00" + value[13:])
	if !ok || ts.Minute() != 0 || ts.Second() != 0 || ts.Nanosecond() != 0 {
		return time.Time{}, false
	}
	return ts.AddDate(0, 0, 1), true
}

// ValidateEvent converts a raw record into an Event or reports why it was rejected.
func ValidateEvent(raw models.RawEvent) (models.Event, error) {
	if raw.Service == "" {
		return models.Event{}, ErrMissingService
	}
	if raw.Timestamp == "" {
		return models.Event{}, ErrMissingTimestamp
	}
	ts, err := ParseTimestamp(raw.Timestamp)
	if err != nil {
		return models.Event{}, err
	}
	return models.Event{Service: raw.Service, Timestamp: ts}, nil
}
