package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sw33tLie/mailhunt/pkg/platforms"
	"github.com/sw33tLie/mailhunt/pkg/record"
	"github.com/sw33tLie/mailhunt/pkg/whttp"
	gcalendar "google.golang.org/api/calendar/v3"
)

const embedPage = `<html><head><script>window.INITIAL_DATA = {"developerKey":"AIzaTEST","other":1};</script></head><body></body></html>`

const eventsBody = `{
  "kind": "calendar#events",
  "items": [
    {"summary": "Board meeting", "start": {"dateTime": "2026-10-01T09:00:00+02:00"}, "end": {"dateTime": "2026-10-01T10:30:00+02:00"}},
    {"summary": "Holiday", "start": {"date": "2026-12-24"}, "end": {"date": "2026-12-26"}},
    {"summary": "Broken", "start": {}}
  ]
}`

func newCalendarServer(t *testing.T, embed string, apiStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/calendar/u/0/embed":
			assert.Equal(t, "larry@example.com", r.URL.Query().Get("src"))
			w.Write([]byte(embed))
		case strings.HasSuffix(r.URL.Path, "/events"):
			assert.Equal(t, "AIzaTEST", r.URL.Query().Get("key"))
			assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
			assert.Equal(t, "250", r.URL.Query().Get("maxResults"))
			assert.Contains(t, r.Header.Get("Referer"), "/calendar/u/0/embed")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(apiStatus)
			if apiStatus == http.StatusOK {
				w.Write([]byte(eventsBody))
				return
			}
			w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newExtractor(t *testing.T, srv *httptest.Server) *Extractor {
	t.Helper()
	c, err := whttp.NewClient(whttp.Options{})
	require.NoError(t, err)
	e := NewExtractor(c, Options{BaseURL: srv.URL, APIBaseURL: srv.URL})
	e.now = func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestExtractPublicCalendar(t *testing.T) {
	e := newExtractor(t, newCalendarServer(t, embedPage, http.StatusOK))

	p, err := e.Extract(context.Background(), platforms.Target{Email: "larry@example.com"})
	require.NoError(t, err)

	signal := p.(*record.CalendarSignal)
	assert.True(t, signal.Status)
	require.Len(t, signal.Events, 2)

	assert.Equal(t, "Board meeting", signal.Events[0].Title)
	assert.Equal(t, time.Date(2026, 10, 1, 7, 0, 0, 0, time.UTC), signal.Events[0].StartUTC)
	assert.Equal(t, "1h30m0s", signal.Events[0].Duration)

	assert.Equal(t, "Holiday", signal.Events[1].Title)
	assert.Equal(t, time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC), signal.Events[1].StartUTC)
	assert.Equal(t, "48h0m0s", signal.Events[1].Duration)
}

func TestExtractPrivateCalendar(t *testing.T) {
	e := newExtractor(t, newCalendarServer(t, embedPage, http.StatusNotFound))

	_, err := e.Extract(context.Background(), platforms.Target{Email: "larry@example.com"})
	assert.Error(t, err)
}

func TestExtractWithoutDeveloperKey(t *testing.T) {
	e := newExtractor(t, newCalendarServer(t, "<html><script>var x = 1;</script></html>", http.StatusOK))

	_, err := e.Extract(context.Background(), platforms.Target{Email: "larry@example.com"})
	assert.True(t, errors.Is(err, ErrNoDeveloperKey))
}

func TestConvertEvent(t *testing.T) {
	tests := []struct {
		name     string
		event    *gcalendar.Event
		ok       bool
		duration string
	}{
		{name: "nil", event: nil, ok: false},
		{name: "no start", event: &gcalendar.Event{Summary: "x"}, ok: false},
		{
			name:     "no end",
			event:    &gcalendar.Event{Start: &gcalendar.EventDateTime{DateTime: "2026-01-01T10:00:00Z"}},
			ok:       true,
			duration: "",
		},
		{
			name: "timed",
			event: &gcalendar.Event{
				Start: &gcalendar.EventDateTime{DateTime: "2026-01-01T10:00:00Z"},
				End:   &gcalendar.EventDateTime{DateTime: "2026-01-01T10:45:00Z"},
			},
			ok:       true,
			duration: "45m0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := convertEvent(tt.event)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.duration, ev.Duration)
			}
		})
	}
}
