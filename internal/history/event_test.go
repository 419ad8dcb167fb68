package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartbeatmonitor/internal/models"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 8, 4, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "zulu", input: "2025-08-04T10:00:00Z", want: want},
		{name: "naive", input: "2025-08-04T10:00:00", want: want},
		{name: "colon offset", input: "2025-08-04T12:00:00+02:00", want: want},
		{name: "compact offset", input: "2025-08-04T05:00:00-0500", want: want},
		{name: "hour offset", input: "2025-08-04T11:00:00+01", want: want},
		{name: "space separator", input: "2025-08-04 10:00:00Z", want: want},
		{name: "minute precision", input: "2025-08-04T10:00", want: want},
		{name: "hour precision", input: "2025-08-04T10", want: want},
		{name: "date only", input: "2025-08-04", want: time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)},
		{name: "fractional seconds", input: "2025-08-04T10:00:00.250Z", want: want.Add(250 * time.Millisecond)},
		{name: "basic format", input: "20250804T100000Z", want: want},
		{name: "basic format with offset", input: "20250804T120000+0200", want: want},
		{name: "basic format naive", input: "20250804T1000", want: want},
		{name: "basic date", input: "20250804", want: time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)},
		{name: "year and month", input: "2025-08", want: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)},
		{name: "year only", input: "2025", want: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "hour 24 rolls over", input: "2025-08-03T24:00:00Z", want: time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)},
		{name: "hour 24 short form", input: "2025-08-03T24:00", want: time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(tc.input)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestParseTimestamp_KeepsInputOffset(t *testing.T) {
	got, err := ParseTimestamp("2025-08-04T10:00:00+02:00")
	require.NoError(t, err)

	_, offset := got.Zone()
	assert.Equal(t, 2*3600, offset)
	assert.Equal(t, 10, got.Hour())
	assert.True(t, time.Date(2025, 8, 4, 8, 0, 0, 0, time.UTC).Equal(got))

	naive, err := ParseTimestamp("2025-08-04T10:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, naive.Location())
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, input := range []string{
		"not-a-timestamp",
		"2025-13-04T10:00:00Z",
		"2025-08-04T25:00:00Z",
		"04/08/2025 10:00",
		"2025-08-04T10:00:00Zjunk",
		" 2025-08-04T10:00:00Z",
		"2025-08-03T24:30:00Z",
		"2025-8",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseTimestamp(input)
			require.ErrorIs(t, err, ErrInvalidTimestamp)
		})
	}
}

func TestValidateEvent(t *testing.T) {
	testCases := []struct {
		name    string
		raw     models.RawEvent
		wantErr error
	}{
		{name: "valid", raw: models.RawEvent{Service: "svc", Timestamp: "2025-08-04T10:00:00Z"}},
		{name: "missing service", raw: models.RawEvent{Timestamp: "2025-08-04T10:00:00Z"}, wantErr: ErrMissingService},
		{name: "missing timestamp", raw: models.RawEvent{Service: "svc"}, wantErr: ErrMissingTimestamp},
		{name: "missing both", raw: models.RawEvent{}, wantErr: ErrMissingService},
		{name: "unparseable timestamp", raw: models.RawEvent{Service: "svc", Timestamp: "not-a-timestamp"}, wantErr: ErrInvalidTimestamp},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := ValidateEvent(tc.raw)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, models.Event{}, event)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "svc", event.Service)
			assert.Equal(t, time.Date(2025, 8, 4, 10, 0, 0, 0, time.UTC), event.Timestamp)
		})
	}
}
