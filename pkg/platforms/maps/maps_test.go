package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sw33tLie/mailhunt/pkg/platforms"
	"github.com/sw33tLie/mailhunt/pkg/record"
	"github.com/sw33tLie/mailhunt/pkg/whttp"
)

// three reviews around Paris, one in Tokyo
const reviewsBody = `)]}'
[null,null,null,null,null,null,null,null,null,null,null,null,null,null,null,null,null,null,null,null,null,null,null,null,[[
 [[null,null,null,"great"],[[null,null,48.8584,2.2945],null,"Eiffel Tower"]],
 [[null,null,null,"nice"],[[null,null,48.8606,2.3376],null,"Louvre"]],
 [[null,null,null,"ok"],[[null,null,48.8530,2.3499],null,"Notre-Dame"]],
 [[null,null,null,"far"],[[null,null,35.6586,139.7454],null,"Tokyo Tower"]],
 [[null,null,null,"no place"],[]]
]]]`

func newMapsServer(t *testing.T, reviews string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/locationhistory/preview/mas":
			assert.True(t, strings.HasPrefix(r.URL.Query().Get("pb"), "!1s1076!"))
			w.Write([]byte(reviews))
		case "/reverse":
			assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
			if strings.HasPrefix(r.URL.Query().Get("lat"), "48.") {
				w.Write([]byte(`{"address":{"city":"Paris","country":"France"}}`))
				return
			}
			w.Write([]byte(`{"address":{"town":"Minato","country":"Japan"}}`))
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
	return NewExtractor(c, Options{BaseURL: srv.URL, GeocoderURL: srv.URL, RadiusKm: 30})
}

func TestExtractDensestCluster(t *testing.T) {
	e := newExtractor(t, newMapsServer(t, reviewsBody))

	p, err := e.Extract(context.Background(), platforms.Target{AccountID: "1076"})
	require.NoError(t, err)

	signal := p.(*record.MapsSignal)
	require.NotNil(t, signal.Confidence)
	assert.Equal(t, record.ConfidenceLittleHigh, *signal.Confidence)
	assert.Equal(t, []string{"Paris,France"}, signal.LocationNames)
}

func TestExtractWithoutReviews(t *testing.T) {
	e := newExtractor(t, newMapsServer(t, ")]}'\n[]"))

	p, err := e.Extract(context.Background(), platforms.Target{AccountID: "1076"})
	require.NoError(t, err)

	signal := p.(*record.MapsSignal)
	assert.Nil(t, signal.Confidence)
	assert.NotNil(t, signal.LocationNames)
	assert.Empty(t, signal.LocationNames)
}

func TestExtractBadPayload(t *testing.T) {
	e := newExtractor(t, newMapsServer(t, ")]}'\n<html>"))

	_, err := e.Extract(context.Background(), platforms.Target{AccountID: "1076"})
	assert.Error(t, err)
}

func TestParseReviews(t *testing.T) {
	reviews, err := ParseReviews(reviewsBody)
	require.NoError(t, err)
	require.Len(t, reviews, 4)
	assert.Equal(t, "Eiffel Tower", reviews[0].Place)
	assert.InDelta(t, 48.8584, reviews[0].Lat, 1e-9)
	assert.InDelta(t, 2.2945, reviews[0].Lng, 1e-9)
}

func TestCluster(t *testing.T) {
	tests := []struct {
		name    string
		reviews []Review
		percent float64
		centers int
	}{
		{name: "empty", reviews: nil, percent: 0, centers: 0},
		{name: "single", reviews: []Review{{Lat: 1, Lng: 1}}, percent: 100, centers: 1},
		{
			name:    "even split",
			reviews: []Review{{Lat: 48.85, Lng: 2.29}, {Lat: 48.86, Lng: 2.33}, {Lat: 35.65, Lng: 139.74}, {Lat: 35.66, Lng: 139.75}},
			percent: 50,
			centers: 2,
		},
		{
			name:    "three to one",
			reviews: []Review{{Lat: 48.85, Lng: 2.29}, {Lat: 48.86, Lng: 2.33}, {Lat: 48.85, Lng: 2.34}, {Lat: 35.65, Lng: 139.74}},
			percent: 75,
			centers: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			percent, centers := Cluster(tt.reviews, 30)
			assert.InDelta(t, tt.percent, percent, 1e-9)
			assert.Len(t, centers, tt.centers)
		})
	}
}

func TestDistance(t *testing.T) {
	// Paris to London is roughly 344 km
	d := Distance(Point{48.8566, 2.3522}, Point{51.5074, -0.1278})
	assert.InDelta(t, 344, d, 5)
	assert.Zero(t, Distance(Point{10, 10}, Point{10, 10}))
}
