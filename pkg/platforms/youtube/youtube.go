package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/corona10/goimagehash"
	"github.com/sw33tLie/mailhunt/internal/utils"
	"github.com/sw33tLie/mailhunt/pkg/avatar"
	"github.com/sw33tLie/mailhunt/pkg/platforms"
	"github.com/sw33tLie/mailhunt/pkg/record"
	"github.com/sw33tLie/mailhunt/pkg/whttp"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DEFAULT_BASE_URL     = "https://www.youtube.com"
	PUBLIC_URL           = "https://www.youtube.com"
	DEFAULT_MAX_CHANNELS = 10

	// sp filter restricting search results to channels
	channelsOnlyFilter = "EgIQAg=="

	exactNameScore   = 2
	partialNameScore = 1
	avatarScore      = 2
	maxScore         = exactNameScore + avatarScore
	minMatchScore    = 2
)

type Options struct {
	BaseURL         string
	Always          bool
	AvatarThreshold int
	MaxChannels     int
}

// Extractor searches channels named like the target and scores them.
type Extractor struct {
	http        *whttp.Client
	base        string
	always      bool
	threshold   int
	maxChannels int
}

type candidate struct {
	name       string
	profileURL string
	avatarURL  string
	hash       *goimagehash.ImageHash
	score      int
}

func NewExtractor(c *whttp.Client, opts Options) *Extractor {
	if opts.BaseURL == "" {
		opts.BaseURL = DEFAULT_BASE_URL
	}
	if opts.MaxChannels <= 0 {
		opts.MaxChannels = DEFAULT_MAX_CHANNELS
	}
	return &Extractor{
		http:        c,
		base:        strings.TrimSuffix(opts.BaseURL, "/"),
		always:      opts.Always,
		threshold:   opts.AvatarThreshold,
		maxChannels: opts.MaxChannels,
	}
}

func (e *Extractor) Source() platforms.Source { return platforms.SourceYoutube }

func (e *Extractor) Empty() record.Partial { return record.EmptyYoutube() }

// Applicable needs a name. Given one, it runs when forced by config, when the
// account uses YouTube, or when reachability is unknown.
func (e *Extractor) Applicable(t platforms.Target) bool {
	if t.Name == "" {
		return false
	}
	return e.always || !t.ReachabilityKnown || t.HasService("youtube")
}

func (e *Extractor) Extract(ctx context.Context, t platforms.Target) (record.Partial, error) {
	candidates, err := e.searchChannels(ctx, t.Name)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		utils.Log.Debugf("[youtube] no channel named like %q", t.Name)
		return e.Empty(), nil
	}

	for i := range candidates {
		e.hashAvatar(ctx, &candidates[i])
	}

	targetHash := t.AvatarHash
	if t.AvatarIsDefault {
		// every default avatar looks alike, so it proves nothing
		targetHash = nil
	}

	return buildSignal(candidates, t.Name, targetHash, e.threshold), nil
}

func (e *Extractor) searchChannels(ctx context.Context, name string) ([]candidate, error) {
	q := url.Values{}
	q.Set("search_query", name)
	q.Set("sp", channelsOnlyFilter)

	res, err := e.http.Send(ctx, &whttp.WHTTPReq{
		Method:  "GET",
		URL:     e.base + "/results?" + q.Encode(),
		Headers: []whttp.WHTTPHeader{{Name: "Accept", Value: "text/html"}},
	})
	if err != nil {
		return nil, fmt.Errorf("youtube search failed: %w", err)
	}
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("youtube search returned status %d", res.StatusCode)
	}

	data, err := initialData(res.BodyString)
	if err != nil {
		return nil, err
	}
	return parseChannels(data, name, e.maxChannels), nil
}

func (e *Extractor) hashAvatar(ctx context.Context, c *candidate) {
	if c.avatarURL == "" {
		return
	}
	res, err := e.http.Send(ctx, &whttp.WHTTPReq{Method: "GET", URL: c.avatarURL})
	if err != nil || res.StatusCode != 200 {
		utils.Log.Debugf("[youtube] could not fetch avatar of %s", c.profileURL)
		return
	}
	h, err := avatar.Hash(res.BodyBytes)
	if err != nil {
		utils.Log.Debugf("[youtube] could not hash avatar of %s: %v", c.profileURL, err)
		return
	}
	c.hash = h
}

// initialData pulls the ytInitialData JSON blob out of a search page.
func initialData(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("could not parse youtube page: %w", err)
	}

	var data string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, "ytInitialData")
		if idx < 0 {
			return true
		}
		rest := text[idx:]
		start := strings.Index(rest, "{")
		if start < 0 {
			return true
		}
		rest = strings.TrimSuffix(strings.TrimSpace(rest[start:]), ";")
		if !gjson.Get(rest, "contents").Exists() {
			return true
		}
		data = rest
		return false
	})

	if data == "" {
		return "", fmt.Errorf("ytInitialData not found in youtube page")
	}
	return data, nil
}

func parseChannels(data, name string, limit int) []candidate {
	folded := fold(name)
	var out []candidate

	sections := gjson.Get(data, "contents.twoColumnSearchResultsRenderer.primaryContents.sectionListRenderer.contents").Array()
	for _, section := range sections {
		for _, item := range section.Get("itemSectionRenderer.contents").Array() {
			if len(out) >= limit {
				return out
			}
			ch := item.Get("channelRenderer")
			if !ch.Exists() {
				continue
			}

			title := ch.Get("title.simpleText").String()
			if title == "" || !strings.Contains(fold(title), folded) {
				continue
			}

			path := ch.Get("navigationEndpoint.browseEndpoint.canonicalBaseUrl").String()
			if path == "" {
				path = "/channel/" + ch.Get("channelId").String()
			}

			out = append(out, candidate{
				name:       title,
				profileURL: PUBLIC_URL + path,
				avatarURL:  avatarURL(ch.Get("thumbnail.thumbnails.0.url").String()),
			})
		}
	}
	return out
}

func avatarURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	// drop the size suffix to get the original picture
	return strings.SplitN(raw, "=", 2)[0]
}

func buildSignal(candidates []candidate, name string, targetHash *goimagehash.ImageHash, threshold int) *record.YoutubeSignal {
	folded := fold(name)
	best := 0
	for i := range candidates {
		c := &candidates[i]
		switch title := fold(c.name); {
		case title == folded:
			c.score += exactNameScore
		case strings.Contains(title, folded):
			c.score += partialNameScore
		}
		if targetHash != nil && avatar.Similar(c.hash, targetHash, threshold) {
			c.score += avatarScore
		}
		if c.score > best {
			best = c.score
		}
	}

	signal := record.EmptyYoutube()
	if best < minMatchScore {
		return signal
	}

	signal.Confidence = record.ConfidenceFromPercent(float64(best) / float64(maxScore) * 100)
	for _, c := range candidates {
		if c.score == best {
			signal.Channels = append(signal.Channels, record.Channel{Name: c.name, ProfileURL: c.profileURL})
		}
	}
	signal.PossibleUsernames = usernames(signal.Channels)
	return signal
}

// usernames extracts legacy /user/ names and @handles from channel URLs.
func usernames(channels []record.Channel) []string {
	var names []string
	for _, c := range channels {
		u, err := url.Parse(c.ProfileURL)
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(u.Path, "/user/"):
			names = append(names, strings.Trim(strings.TrimPrefix(u.Path, "/user/"), "/"))
		case strings.HasPrefix(u.Path, "/@"):
			names = append(names, strings.Trim(strings.TrimPrefix(u.Path, "/@"), "/"))
		}
	}
	return utils.Dedupe(names)
}

// fold lowercases and strips diacritics so "José" matches "jose".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
