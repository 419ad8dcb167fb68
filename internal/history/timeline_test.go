package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartbeatmonitor/internal/models"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 8, 4, hour, minute, 0, 0, time.UTC)
}

func TestBuild_GroupsAndSorts(t *testing.T) {
	raw := []models.RawEvent{
		{Service: "a", Timestamp: "2025-08-04T10:05:00Z"},
		{Service: "b", Timestamp: "2025-08-04T09:00:00Z"},
		{Service: "a", Timestamp: "2025-08-04T10:00:00Z"},
		{Service: "a", Timestamp: "2025-08-04T10:01:00Z"},
		{Service: "b", Timestamp: "2025-08-04T08:59:00Z"},
	}

	timeline := Build(raw)

	assert.Equal(t, []string{"a", "b"}, timeline.Services())
	assert.Equal(t, 2, timeline.Len())
	assert.Equal(t, 5, timeline.Accepted())
	assert.Equal(t, 0, timeline.Rejected())
	assert.Equal(t, []time.Time{at(10, 0), at(10, 1), at(10, 5)}, timeline.Heartbeats("a"))
	assert.Equal(t, []time.Time{at(8, 59), at(9, 0)}, timeline.Heartbeats("b"))
}

func TestBuild_TimelinesAreNonDecreasing(t *testing.T) {
	raw := []models.RawEvent{
		{Service: "svc", Timestamp: "2025-08-04T10:03:00Z"},
		{Service: "svc", Timestamp: "2025-08-04T10:01:00Z"},
		{Service: "svc", Timestamp: "2025-08-04T10:03:00Z"},
		{Service: "svc", Timestamp: "2025-08-04T12:00:00+02:00"},
		{Service: "svc", Timestamp: "2025-08-04T10:02:00"},
	}

	beats := Build(raw).Heartbeats("svc")
	require.Len(t, beats, 5)
	for i := 1; i < len(beats); i++ {
		assert.False(t, beats[i].Before(beats[i-1]), "index %d out of order", i)
	}
	assert.True(t, at(10, 0).Equal(beats[0]), "got %s", beats[0])
}

func TestBuild_DiscardsMalformedRecords(t *testing.T) {
	raw := []models.RawEvent{
		{Service: "b", Timestamp: "2025-08-04T10:00:00Z"},
		{Service: "b"},
		{Timestamp: "2025-08-04T10:02:00Z"},
		{Service: "b", Timestamp: "not-a-timestamp"},
	}

	var reasons []error
	var indexes []int
	timeline := BuildWithRejects(raw, func(index int, _ models.RawEvent, err error) {
		indexes = append(indexes, index)
		reasons = append(reasons, err)
	})

	assert.Equal(t, []string{"b"}, timeline.Services())
	assert.Equal(t, []time.Time{at(10, 0)}, timeline.Heartbeats("b"))
	assert.Equal(t, 1, timeline.Accepted())
	assert.Equal(t, 3, timeline.Rejected())
	assert.Equal(t, []int{1, 2, 3}, indexes)
	require.Len(t, reasons, 3)
	assert.ErrorIs(t, reasons[0], ErrMissingTimestamp)
	assert.ErrorIs(t, reasons[1], ErrMissingService)
	assert.ErrorIs(t, reasons[2], ErrInvalidTimestamp)
}

func TestBuild_Empty(t *testing.T) {
	timeline := Build(nil)

	assert.Equal(t, 0, timeline.Len())
	assert.Nil(t, timeline.Services())
	assert.Nil(t, timeline.Heartbeats("missing"))

	calls := 0
	timeline.Range(func(string, []time.Time) { calls++ })
	assert.Zero(t, calls)
}

func TestServiceTimeline_ReturnsCopies(t *testing.T) {
	timeline := FromEvents([]models.Event{
		{Service: "svc", Timestamp: at(10, 0)},
		{Service: "svc", Timestamp: at(10, 1)},
	})

	beats := timeline.Heartbeats("svc")
	beats[0] = at(23, 59)
	services := timeline.Services()
	services[0] = "changed"

	assert.Equal(t, at(10, 0), timeline.Heartbeats("svc")[0])
	assert.Equal(t, []string{"svc"}, timeline.Services())
}

func TestServiceTimeline_NilSafe(t *testing.T) {
	var timeline *ServiceTimeline

	assert.Zero(t, timeline.Len())
	assert.Zero(t, timeline.Accepted())
	assert.Zero(t, timeline.Rejected())
	assert.Nil(t, timeline.Services())
	assert.Nil(t, timeline.Heartbeats("svc"))
	timeline.Range(func(string, []time.Time) { t.Fatal("unexpected call") })
}
