package maps

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sw33tLie/mailhunt/pkg/whttp"
	"github.com/tidwall/gjson"
)

const DEFAULT_GEOCODER_URL = "https://nominatim.openstreetmap.org"

// address fields tried in order when naming a place
var townKeys = []string{"city", "town", "village", "municipality", "county"}

// Geocoder resolves coordinates to a town and country through a Nominatim API.
type Geocoder struct {
	http *whttp.Client
	base string
}

func NewGeocoder(c *whttp.Client, baseURL string) *Geocoder {
	if baseURL == "" {
		baseURL = DEFAULT_GEOCODER_URL
	}
	return &Geocoder{http: c, base: strings.TrimSuffix(baseURL, "/")}
}

func (g *Geocoder) Reverse(ctx context.Context, lat, lng float64) (town, country string, err error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("zoom", "10")
	q.Set("accept-language", "en")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))

	res, err := g.http.Send(ctx, &whttp.WHTTPReq{
		Method: "GET",
		URL:    g.base + "/reverse?" + q.Encode(),
	})
	if err != nil {
		return "", "", err
	}
	if res.StatusCode != 200 {
		return "", "", fmt.Errorf("geocoder returned status %d", res.StatusCode)
	}
	if e := gjson.Get(res.BodyString, "error"); e.Exists() {
		return "", "", fmt.Errorf("geocoder error: %s", e.String())
	}

	address := gjson.Get(res.BodyString, "address")
	for _, key := range townKeys {
		if v := address.Get(key).String(); v != "" {
			town = v
			break
		}
	}
	return town, address.Get("country").String(), nil
}
