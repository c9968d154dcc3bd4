package maps

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/sw33tLie/mailhunt/internal/utils"
	"github.com/sw33tLie/mailhunt/pkg/platforms"
	"github.com/sw33tLie/mailhunt/pkg/record"
	"github.com/sw33tLie/mailhunt/pkg/whttp"
	"github.com/tidwall/gjson"
)

const (
	DEFAULT_BASE_URL  = "https://www.google.com"
	DEFAULT_RADIUS_KM = 30

	// anti-JSON-hijacking prefix in front of every maps payload
	xssiPrefix = ")]}'"

	reviewsPB = "!1s%s!2m3!1s!7e81!15i14416!6m2!4b1!7b1!9m0!16m4!1i100!4b1!5b1"

	reviewsPath   = "24.0"
	placeNamePath = "1.2"
	latitudePath  = "1.0.2"
	longitudePath = "1.0.3"
)

type Options struct {
	BaseURL     string
	GeocoderURL string
	RadiusKm    float64
}

// Extractor locates an account through the places it reviewed.
type Extractor struct {
	http     *whttp.Client
	base     string
	radiusKm float64
	geocoder *Geocoder
}

// Review is one reviewed place with its coordinates.
type Review struct {
	Place string
	Lat   float64
	Lng   float64
}

func NewExtractor(c *whttp.Client, opts Options) *Extractor {
	if opts.BaseURL == "" {
		opts.BaseURL = DEFAULT_BASE_URL
	}
	if opts.RadiusKm <= 0 {
		opts.RadiusKm = DEFAULT_RADIUS_KM
	}
	return &Extractor{
		http:     c,
		base:     strings.TrimSuffix(opts.BaseURL, "/"),
		radiusKm: opts.RadiusKm,
		geocoder: NewGeocoder(c, opts.GeocoderURL),
	}
}

func (e *Extractor) Source() platforms.Source { return platforms.SourceMaps }

func (e *Extractor) Empty() record.Partial { return record.EmptyMaps() }

func (e *Extractor) Extract(ctx context.Context, t platforms.Target) (record.Partial, error) {
	reviews, err := e.fetchReviews(ctx, t.AccountID)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		utils.Log.Debugf("[maps] no located reviews for %s", t.AccountID)
		return e.Empty(), nil
	}

	percent, centers := Cluster(reviews, e.radiusKm)
	signal := record.EmptyMaps()
	signal.Confidence = record.ConfidenceFromPercent(percent)

	var names []string
	for _, c := range centers {
		town, country, err := e.geocoder.Reverse(ctx, c.Lat, c.Lng)
		if err != nil {
			utils.Log.Debugf("[maps] reverse geocoding %f,%f failed: %v", c.Lat, c.Lng, err)
			continue
		}
		if town == "" && country == "" {
			continue
		}
		names = append(names, town+","+country)
	}
	names = utils.Dedupe(names)
	sort.Strings(names)
	signal.LocationNames = names

	return signal, nil
}

func (e *Extractor) fetchReviews(ctx context.Context, accountID string) ([]Review, error) {
	q := url.Values{}
	q.Set("authuser", "0")
	q.Set("hl", "en")
	q.Set("gl", "us")
	q.Set("pb", fmt.Sprintf(reviewsPB, accountID))

	res, err := e.http.Send(ctx, &whttp.WHTTPReq{
		Method: "GET",
		URL:    e.base + "/locationhistory/preview/mas?" + q.Encode(),
	})
	if err != nil {
		return nil, fmt.Errorf("maps reviews request failed: %w", err)
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("maps reviews returned status %d", res.StatusCode)
	}
	return ParseReviews(res.BodyString)
}

// ParseReviews reads the reviews payload. Reviews without coordinates are dropped.
func ParseReviews(body string) ([]Review, error) {
	body = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(body), xssiPrefix))
	if body == "" {
		return nil, nil
	}
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("maps reviews payload is not valid JSON")
	}

	var reviews []Review
	for _, r := range gjson.Get(body, reviewsPath).Array() {
		lat, lng := r.Get(latitudePath), r.Get(longitudePath)
		if !lat.Exists() || !lng.Exists() {
			continue
		}
		reviews = append(reviews, Review{
			Place: r.Get(placeNamePath).String(),
			Lat:   lat.Float(),
			Lng:   lng.Float(),
		})
	}
	return reviews, nil
}
