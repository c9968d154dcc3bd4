package hunt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sw33tLie/mailhunt/pkg/avatar"
	"github.com/sw33tLie/mailhunt/pkg/platforms"
	"github.com/sw33tLie/mailhunt/pkg/record"
	"github.com/sw33tLie/mailhunt/pkg/session"
)

const testSession = `{
  "hangouts_auth": "SAPISIDHASH h",
  "internal_auth": "SAPISIDHASH i",
  "keys": {"hangouts": "hkey", "internal": "ikey"},
  "cookies": {"SID": "sid", "HSID": "hsid"}
}`

func writeSession(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(testSession), 0o600))
	return path
}

type fakeResolver struct {
	accounts []record.Account
	err      error
	name     string
}

func (f *fakeResolver) Lookup(ctx context.Context, email string) ([]record.Account, error) {
	return f.accounts, f.err
}

func (f *fakeResolver) DisplayName(ctx context.Context, accountID string) (string, error) {
	return f.name, nil
}

type fakeExtractor struct {
	source  platforms.Source
	partial record.Partial
	err     error
	calls   int32
}

func (f *fakeExtractor) Source() platforms.Source { return f.source }

func (f *fakeExtractor) Empty() record.Partial {
	switch f.source {
	case platforms.SourceYoutube:
		return record.EmptyYoutube()
	case platforms.SourceMaps:
		return record.EmptyMaps()
	}
	return record.EmptyCalendar()
}

func (f *fakeExtractor) Extract(ctx context.Context, t platforms.Target) (record.Partial, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.partial, f.err
}

type fakeToolkit struct {
	resolver *fakeResolver
	youtube  *fakeExtractor
	maps     *fakeExtractor
	calendar *fakeExtractor
}

func newFakeToolkit() *fakeToolkit {
	conf := record.ConfidenceOkay
	return &fakeToolkit{
		resolver: &fakeResolver{
			accounts: []record.Account{{ID: "1076", Email: "larry@example.com", Person: `{"name":[{"displayName":"Larry"}]}`}},
		},
		youtube: &fakeExtractor{source: platforms.SourceYoutube, partial: &record.YoutubeSignal{
			Confidence:        &conf,
			Channels:          []record.Channel{{Name: "Larry", ProfileURL: "https://www.youtube.com/@larry"}},
			PossibleUsernames: []string{"larry"},
		}},
		maps:     &fakeExtractor{source: platforms.SourceMaps, partial: &record.MapsSignal{LocationNames: []string{"Paris,France"}}},
		calendar: &fakeExtractor{source: platforms.SourceCalendar, partial: &record.CalendarSignal{Status: true, Events: []record.CalendarEvent{}}},
	}
}

func (f *fakeToolkit) hunter(t *testing.T) *Hunter {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SessionPath = writeSession(t)
	h, err := NewHunter(cfg, WithToolkitFactory(func(cfg Config, sess *session.Session) (*Toolkit, error) {
		return &Toolkit{
			Resolver: f.resolver,
			// not in merge order
			Extractors: []platforms.Extractor{f.calendar, f.maps, f.youtube},
		}, nil
	}))
	require.NoError(t, err)
	return h
}

func TestHuntZeroMatches(t *testing.T) {
	f := newFakeToolkit()
	f.resolver.accounts = []record.Account{}

	res, err := f.hunter(t).Hunt(context.Background(), Query{Email: " Nobody@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "nobody@example.com", res.Email)
	assert.NotNil(t, res.Matches)
	assert.Empty(t, res.Matches)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"nobody@example.com","matches":[]}`, string(raw))
}

func TestHuntAllSources(t *testing.T) {
	f := newFakeToolkit()

	res, err := f.hunter(t).Hunt(context.Background(), Query{Email: "larry@example.com"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)

	u := res.Matches[0]
	assert.Equal(t, "Larry", u.Name)
	assert.Equal(t, "1076", u.AccountID)
	require.NotNil(t, u.Youtube)
	require.NotNil(t, u.Maps)
	require.NotNil(t, u.Calendar)
	assert.Equal(t, []string{"Paris,France"}, u.Maps.LocationNames)
	assert.True(t, u.Calendar.Status)
}

func TestHuntSourcesFilter(t *testing.T) {
	f := newFakeToolkit()

	res, err := f.hunter(t).Hunt(context.Background(), Query{
		Email:   "larry@example.com",
		Sources: platforms.NewSourceSet(platforms.SourceYoutube),
	})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)

	u := res.Matches[0]
	assert.NotNil(t, u.Youtube)
	assert.Nil(t, u.Maps)
	assert.Nil(t, u.Calendar)
	assert.Zero(t, atomic.LoadInt32(&f.maps.calls))
	assert.Zero(t, atomic.LoadInt32(&f.calendar.calls))

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"maps"`)
	assert.NotContains(t, string(raw), `"calendar"`)
}

func TestHuntPartialFailure(t *testing.T) {
	f := newFakeToolkit()
	f.maps.err = errors.New("reviews endpoint down")

	res, err := f.hunter(t).Hunt(context.Background(), Query{Email: "larry@example.com"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)

	u := res.Matches[0]
	assert.Equal(t, record.EmptyMaps(), u.Maps)
	require.NotNil(t, u.Youtube)
	assert.Len(t, u.Youtube.Channels, 1)
	assert.True(t, u.Calendar.Status)
}

func TestHuntErrorKinds(t *testing.T) {
	t.Run("invalid email", func(t *testing.T) {
		_, err := newFakeToolkit().hunter(t).Hunt(context.Background(), Query{Email: "not-an-email"})
		assert.Equal(t, KindInvalidInput, KindOf(err))
	})

	t.Run("missing session", func(t *testing.T) {
		h, err := NewHunter(Config{SessionPath: filepath.Join(t.TempDir(), "missing.json")})
		require.NoError(t, err)
		_, err = h.Hunt(context.Background(), Query{Email: "larry@example.com"})
		assert.Equal(t, KindConfiguration, KindOf(err))
		assert.True(t, errors.Is(err, session.ErrNotFound))
	})

	t.Run("upstream", func(t *testing.T) {
		f := newFakeToolkit()
		f.resolver.err = errors.New("connection refused")
		_, err := f.hunter(t).Hunt(context.Background(), Query{Email: "larry@example.com"})
		assert.Equal(t, KindUpstream, KindOf(err))
	})
}

func grayHalves() []byte {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if x < 16 {
				img.SetGray(x, y, color.Gray{Y: 20})
			} else {
				img.SetGray(x, y, color.Gray{Y: 230})
			}
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// Larry has a name, a default avatar and no reachability array.
func TestHuntLarryScenario(t *testing.T) {
	var youtubeHits int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/people/lookup":
			cookie, err := r.Cookie("SID")
			if assert.NoError(t, err) {
				assert.Equal(t, "sid", cookie.Value)
			}
			w.Write([]byte(`{
				"matches": [{"lookupId": "larry@example.com", "personId": ["1076"]}],
				"people": {"1076": {
					"personId": "1076",
					"name": [{"displayName": ""}, {"displayName": "Larry"}],
					"photo": [{"url": "` + srv.URL + `/photo"}],
					"metadata": {"lastUpdateTimeMicros": "1600000000000000"}
				}}
			}`))
		case "/v2/people":
			w.Write([]byte(`{"personResponse":[{"status":"SUCCESS","person":{}}]}`))
		case "/photo":
			w.Write(grayHalves())
		case "/results":
			atomic.AddInt32(&youtubeHits, 1)
			w.Write([]byte(`<html><script>var ytInitialData = {"contents":{}};</script></html>`))
		case "/locationhistory/preview/mas":
			w.Write([]byte(")]}'\n[]"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	hash, err := avatar.Hash(grayHalves())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.SessionPath = writeSession(t)
	cfg.DefaultAvatarHashes = []string{avatar.Format(hash)}
	cfg.Endpoints = Endpoints{
		People:      srv.URL,
		Youtube:     srv.URL,
		Maps:        srv.URL,
		Calendar:    srv.URL,
		CalendarAPI: srv.URL,
		Geocoder:    srv.URL,
	}

	h, err := NewHunter(cfg)
	require.NoError(t, err)

	res, err := h.Hunt(context.Background(), Query{Email: "larry@example.com"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)

	u := res.Matches[0]
	assert.Equal(t, "Larry", u.Name)
	assert.Equal(t, srv.URL+"/photo", u.AvatarURL)
	assert.True(t, u.IsDefaultAvatar)
	assert.Nil(t, u.IsBot)
	require.NotNil(t, u.LastUpdate)
	assert.Equal(t, int64(1600000000), u.LastUpdate.Unix())
	assert.Equal(t, []string{}, u.Services)
	assert.Equal(t, int32(1), atomic.LoadInt32(&youtubeHits))

	require.NotNil(t, u.Youtube)
	assert.Nil(t, u.Youtube.Confidence)
	assert.Equal(t, record.EmptyMaps(), u.Maps)
	// the embed page 404s, so the calendar degrades
	assert.Equal(t, record.EmptyCalendar(), u.Calendar)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"activated_google_services":[]`)
	assert.Contains(t, string(raw), `"is_default_profile_pic":true`)
}
