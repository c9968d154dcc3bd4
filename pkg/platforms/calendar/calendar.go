package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sw33tLie/mailhunt/internal/utils"
	"github.com/sw33tLie/mailhunt/pkg/platforms"
	"github.com/sw33tLie/mailhunt/pkg/record"
	"github.com/sw33tLie/mailhunt/pkg/whttp"
	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	DEFAULT_BASE_URL     = "https://calendar.google.com"
	DEFAULT_API_BASE_URL = "https://clients6.google.com"
	DEFAULT_LOOKBACK     = 365 * 24 * time.Hour
	DEFAULT_LOOKAHEAD    = 365 * 24 * time.Hour

	maxEvents = 250
)

var (
	ErrNoDeveloperKey = errors.New("developer key not found in calendar embed page")

	developerKeyRegex = regexp.MustCompile(`"developerKey"\s*:\s*"([^"]+)"`)
)

type Options struct {
	BaseURL    string
	APIBaseURL string
	Lookback   time.Duration
	Lookahead  time.Duration
}

// Extractor lists the public events of the target's primary calendar.
type Extractor struct {
	http      *whttp.Client
	base      string
	apiBase   string
	lookback  time.Duration
	lookahead time.Duration
	now       func() time.Time
}

func NewExtractor(c *whttp.Client, opts Options) *Extractor {
	if opts.BaseURL == "" {
		opts.BaseURL = DEFAULT_BASE_URL
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = DEFAULT_API_BASE_URL
	}
	if opts.Lookback <= 0 {
		opts.Lookback = DEFAULT_LOOKBACK
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = DEFAULT_LOOKAHEAD
	}
	return &Extractor{
		http:      c,
		base:      strings.TrimSuffix(opts.BaseURL, "/"),
		apiBase:   strings.TrimSuffix(opts.APIBaseURL, "/"),
		lookback:  opts.Lookback,
		lookahead: opts.Lookahead,
		now:       time.Now,
	}
}

func (e *Extractor) Source() platforms.Source { return platforms.SourceCalendar }

func (e *Extractor) Empty() record.Partial { return record.EmptyCalendar() }

func (e *Extractor) Extract(ctx context.Context, t platforms.Target) (record.Partial, error) {
	embedURL := e.embedURL(t.Email)
	key, err := e.developerKey(ctx, embedURL)
	if err != nil {
		return nil, err
	}

	events, err := e.listEvents(ctx, t.Email, key, embedURL)
	if err != nil {
		return nil, err
	}

	signal := record.EmptyCalendar()
	signal.Status = true
	signal.Events = events
	utils.Log.Debugf("[calendar] %d public events for %s", len(events), t.Email)
	return signal, nil
}

func (e *Extractor) embedURL(email string) string {
	q := url.Values{}
	q.Set("src", email)
	q.Set("hl", "en")
	return e.base + "/calendar/u/0/embed?" + q.Encode()
}

// developerKey scrapes the API key the embed page uses for its own calls.
func (e *Extractor) developerKey(ctx context.Context, embedURL string) (string, error) {
	res, err := e.http.Send(ctx, &whttp.WHTTPReq{Method: "GET", URL: embedURL})
	if err != nil {
		return "", fmt.Errorf("calendar embed request failed: %w", err)
	}
	if res.StatusCode != 200 {
		return "", fmt.Errorf("calendar embed returned status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.BodyString))
	if err != nil {
		return "", fmt.Errorf("could not parse calendar embed page: %w", err)
	}

	var key string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := developerKeyRegex.FindStringSubmatch(s.Text()); m != nil {
			key = m[1]
			return false
		}
		return true
	})
	if key == "" {
		return "", ErrNoDeveloperKey
	}
	return key, nil
}

func (e *Extractor) listEvents(ctx context.Context, email, key, referer string) ([]record.CalendarEvent, error) {
	svc, err := gcalendar.NewService(ctx,
		option.WithHTTPClient(e.http.StandardClient()),
		option.WithEndpoint(e.apiBase+"/calendar/v3/"),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create calendar service: %w", err)
	}

	// the SDK transport bypasses Send, so take a limiter token here
	if err := e.http.Wait(ctx); err != nil {
		return nil, err
	}

	now := e.now().UTC()
	call := svc.Events.List(email).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxEvents).
		TimeMin(now.Add(-e.lookback).Format(time.RFC3339)).
		TimeMax(now.Add(e.lookahead).Format(time.RFC3339)).
		TimeZone("UTC")
	call.Header().Set("Referer", referer)

	// option.WithHTTPClient drops API keys, so the key rides as a call option
	list, err := call.Context(ctx).Do(googleapi.QueryParameter("key", key))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusForbidden) {
			return nil, fmt.Errorf("calendar of %s is not public: %w", email, err)
		}
		return nil, fmt.Errorf("calendar events request failed: %w", err)
	}

	events := make([]record.CalendarEvent, 0, len(list.Items))
	for _, item := range list.Items {
		ev, ok := convertEvent(item)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// convertEvent handles both timed and all-day events.
func convertEvent(item *gcalendar.Event) (record.CalendarEvent, bool) {
	if item == nil {
		return record.CalendarEvent{}, false
	}
	start, ok := parseEventTime(item.Start)
	if !ok {
		return record.CalendarEvent{}, false
	}

	ev := record.CalendarEvent{Title: item.Summary, StartUTC: start}
	if end, ok := parseEventTime(item.End); ok && !end.Before(start) {
		ev.Duration = end.Sub(start).String()
	}
	return ev, true
}

func parseEventTime(t *gcalendar.EventDateTime) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	if t.DateTime != "" {
		v, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return v.UTC(), true
	}
	if t.Date != "" {
		v, err := time.Parse("2006-01-02", t.Date)
		if err != nil {
			return time.Time{}, false
		}
		return v.UTC(), true
	}
	return time.Time{}, false
}
