package hunt

import (
	"time"

	"github.com/sw33tLie/mailhunt/pkg/avatar"
	"github.com/sw33tLie/mailhunt/pkg/platforms/calendar"
	"github.com/sw33tLie/mailhunt/pkg/platforms/maps"
	"github.com/sw33tLie/mailhunt/pkg/platforms/people"
	"github.com/sw33tLie/mailhunt/pkg/platforms/youtube"
	"github.com/sw33tLie/mailhunt/pkg/whttp"
)

const DEFAULT_CONCURRENCY = 3

// Endpoints overrides the upstream base URLs. Empty fields use the public ones.
type Endpoints struct {
	People      string
	Youtube     string
	Maps        string
	Calendar    string
	CalendarAPI string
	Geocoder    string
}

func (e Endpoints) withDefaults() Endpoints {
	def := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return Endpoints{
		People:      def(e.People, people.DEFAULT_BASE_URL),
		Youtube:     def(e.Youtube, youtube.DEFAULT_BASE_URL),
		Maps:        def(e.Maps, maps.DEFAULT_BASE_URL),
		Calendar:    def(e.Calendar, calendar.DEFAULT_BASE_URL),
		CalendarAPI: def(e.CalendarAPI, calendar.DEFAULT_API_BASE_URL),
		Geocoder:    def(e.Geocoder, maps.DEFAULT_GEOCODER_URL),
	}
}

// sessionHosts are the endpoints that get the session cookies.
// The geocoder is not operated by the platform and never sees them.
func (e Endpoints) sessionHosts() []string {
	return []string{e.People, e.Youtube, e.Maps, e.Calendar, e.CalendarAPI}
}

// Config is built once at startup and never mutated afterwards.
type Config struct {
	SessionPath string
	Endpoints   Endpoints

	Proxy             string
	Timeout           time.Duration
	Retries           int
	RequestsPerSecond float64

	YoutubeAlways      bool
	YoutubeMaxChannels int

	DefaultAvatarHashes []string
	AvatarThreshold     int

	MapsRadiusKm float64

	CalendarLookback  time.Duration
	CalendarLookahead time.Duration

	Concurrency int
}

func DefaultConfig() Config {
	return Config{
		SessionPath:         "session.json",
		Timeout:             whttp.DEFAULT_TIMEOUT,
		Retries:             0,
		YoutubeMaxChannels:  youtube.DEFAULT_MAX_CHANNELS,
		DefaultAvatarHashes: avatar.DefaultHashes,
		AvatarThreshold:     avatar.DefaultThreshold,
		MapsRadiusKm:        maps.DEFAULT_RADIUS_KM,
		CalendarLookback:    calendar.DEFAULT_LOOKBACK,
		CalendarLookahead:   calendar.DEFAULT_LOOKAHEAD,
		Concurrency:         DEFAULT_CONCURRENCY,
	}
}
