package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "calbook-backend/pkg/errors"
)

const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//EN
BEGIN:VEVENT
UID:E1
SUMMARY:Kickoff
DESCRIPTION:Project kickoff meeting
LOCATION:Room 1
DTSTART:20240610T100000Z
DTEND:20240610T110000Z
END:VEVENT
BEGIN:VEVENT
UID:E2
SUMMARY:Weekly sync
DTSTART:20240606T100000Z
DTEND:20240606T110000Z
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE:20240620T100000Z
END:VEVENT
BEGIN:VEVENT
UID:offsite
SUMMARY:Team offsite
DTSTART;VALUE=DATE:20240620
DTEND;VALUE=DATE:20240621
END:VEVENT
BEGIN:VEVENT
SUMMARY:No UID here
DTSTART:20240601T090000Z
END:VEVENT
END:VCALENDAR
`

// stubParams serves fixed parameter values.
type stubParams struct {
	values map[string]string
	err    error
}

func (s *stubParams) GetParameter(ctx context.Context, name string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.values[name], nil
}

func feedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	// Real feeds arrive with CRLF line endings.
	body = strings.ReplaceAll(body, "\n", "\r\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchFeedParsesEvents(t *testing.T) {
	srv := feedServer(t, http.StatusOK, sampleICS)
	params := &stubParams{values: map[string]string{"/calbook/ical-url": srv.URL}}
	source := NewICSFeedSource(params, "/calbook/ical-url", zap.NewNop())

	feed, err := source.FetchFeed(context.Background())

	require.NoError(t, err)
	require.Len(t, feed.Events, 3, "the VEVENT without a UID is skipped")

	kickoff, ok := feed.FindByUID("E1")
	require.True(t, ok)
	assert.Equal(t, "Kickoff", kickoff.Summary)
	assert.Equal(t, "Project kickoff meeting", kickoff.Description)
	assert.Equal(t, "Room 1", kickoff.Location)
	assert.Equal(t, time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC), kickoff.Start)
	assert.Equal(t, time.Date(2024, 6, 10, 11, 0, 0, 0, time.UTC), kickoff.End)
	assert.False(t, kickoff.StartIsDate)
	assert.False(t, kickoff.IsRecurring())

	weekly, ok := feed.FindByUID("E2")
	require.True(t, ok)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=4", weekly.RecurrenceRule)
	assert.True(t, weekly.IsRecurring())
	require.Len(t, weekly.ExceptionDates, 1)
	assert.Equal(t, time.Date(2024, 6, 20, 10, 0, 0, 0, time.UTC), weekly.ExceptionDates[0])

	offsite, ok := feed.FindByUID("offsite")
	require.True(t, ok)
	assert.True(t, offsite.StartIsDate)
	assert.True(t, offsite.EndIsDate)
	assert.Equal(t, time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), offsite.Start)
}

func TestFetchFeedErrors(t *testing.T) {
	t.Run("parameter store failure", func(t *testing.T) {
		params := &stubParams{err: appErrors.NewUnavailableError("parameter store", assert.AnError)}
		source := NewICSFeedSource(params, "/calbook/ical-url", zap.NewNop())

		_, err := source.FetchFeed(context.Background())

		require.Error(t, err)
		assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeUnavailable))
	})

	t.Run("non-200 response", func(t *testing.T) {
		srv := feedServer(t, http.StatusBadGateway, "upstream broken")
		params := &stubParams{values: map[string]string{"/calbook/ical-url": srv.URL}}
		source := NewICSFeedSource(params, "/calbook/ical-url", zap.NewNop())

		_, err := source.FetchFeed(context.Background())

		require.Error(t, err)
		assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeUnavailable))
	})

	t.Run("unreachable host", func(t *testing.T) {
		params := &stubParams{values: map[string]string{"/calbook/ical-url": "http://127.0.0.1:1"}}
		source := NewICSFeedSource(params, "/calbook/ical-url", zap.NewNop())

		_, err := source.FetchFeed(context.Background())

		require.Error(t, err)
		assert.True(t, appErrors.IsType(err, appErrors.ErrorTypeUnavailable))
	})

	t.Run("unparseable payload", func(t *testing.T) {
		srv := feedServer(t, http.StatusOK, "this is not a calendar")
		params := &stubParams{values: map[string]string{"/calbook/ical-url": srv.URL}}
		source := NewICSFeedSource(params, "/calbook/ical-url", zap.NewNop())

		_, err := source.FetchFeed(context.Background())

		require.Error(t, err)
	})
}

func TestParseICSTime(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"20240613T100000Z", time.Date(2024, 6, 13, 10, 0, 0, 0, time.UTC)},
		{"20240613T100000", time.Date(2024, 6, 13, 10, 0, 0, 0, time.UTC)},
		{"20240613", time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseICSTime(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := parseICSTime("not-a-time")
	assert.Error(t, err)
}
