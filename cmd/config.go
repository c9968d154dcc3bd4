package cmd

import (
	"github.com/spf13/viper"
	"github.com/sw33tLie/mailhunt/pkg/hunt"
)

// hunterConfig turns the loaded viper settings into an immutable hunt.Config.
func hunterConfig(v *viper.Viper) hunt.Config {
	cfg := hunt.DefaultConfig()

	cfg.SessionPath = v.GetString("session.path")
	cfg.Endpoints = hunt.Endpoints{
		People:      v.GetString("endpoints.people"),
		Youtube:     v.GetString("endpoints.youtube"),
		Maps:        v.GetString("endpoints.maps"),
		Calendar:    v.GetString("endpoints.calendar"),
		CalendarAPI: v.GetString("endpoints.calendar_api"),
		Geocoder:    v.GetString("endpoints.geocoder"),
	}

	cfg.Proxy = v.GetString("http.proxy")
	if d := v.GetDuration("http.timeout"); d > 0 {
		cfg.Timeout = d
	}
	cfg.Retries = v.GetInt("http.retries")
	cfg.RequestsPerSecond = v.GetFloat64("http.rps")

	cfg.YoutubeAlways = v.GetBool("youtube.always")
	if n := v.GetInt("youtube.max_channels"); n > 0 {
		cfg.YoutubeMaxChannels = n
	}

	if hashes := v.GetStringSlice("avatar.default_hashes"); len(hashes) > 0 {
		cfg.DefaultAvatarHashes = hashes
	}
	if v.IsSet("avatar.threshold") {
		cfg.AvatarThreshold = v.GetInt("avatar.threshold")
	}

	if r := v.GetFloat64("maps.radius_km"); r > 0 {
		cfg.MapsRadiusKm = r
	}
	if d := v.GetDuration("calendar.lookback"); d > 0 {
		cfg.CalendarLookback = d
	}
	if d := v.GetDuration("calendar.lookahead"); d > 0 {
		cfg.CalendarLookahead = d
	}
	if n := v.GetInt("hunt.concurrency"); n > 0 {
		cfg.Concurrency = n
	}
	return cfg
}
