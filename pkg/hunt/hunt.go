package hunt

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sw33tLie/mailhunt/internal/utils"
	"github.com/sw33tLie/mailhunt/pkg/avatar"
	"github.com/sw33tLie/mailhunt/pkg/metrics"
	"github.com/sw33tLie/mailhunt/pkg/platforms"
	"github.com/sw33tLie/mailhunt/pkg/platforms/calendar"
	"github.com/sw33tLie/mailhunt/pkg/platforms/maps"
	"github.com/sw33tLie/mailhunt/pkg/platforms/people"
	"github.com/sw33tLie/mailhunt/pkg/platforms/youtube"
	"github.com/sw33tLie/mailhunt/pkg/record"
	"github.com/sw33tLie/mailhunt/pkg/session"
	"github.com/sw33tLie/mailhunt/pkg/whttp"
	"golang.org/x/sync/errgroup"
)

// Query is one hunt request. The zero Sources means every optional source.
type Query struct {
	Email   string
	Sources platforms.SourceSet
}

// Resolver maps an email to accounts and accounts to names.
type Resolver interface {
	Lookup(ctx context.Context, email string) ([]record.Account, error)
	DisplayName(ctx context.Context, accountID string) (string, error)
}

// Toolkit is everything one hunt talks to. A new one is built per hunt.
type Toolkit struct {
	HTTP       *whttp.Client
	Resolver   Resolver
	Extractors []platforms.Extractor
}

type ToolkitFactory func(cfg Config, sess *session.Session) (*Toolkit, error)

type Option func(*Hunter)

// WithToolkitFactory replaces the upstream wiring, mostly for tests.
func WithToolkitFactory(f ToolkitFactory) Option {
	return func(h *Hunter) { h.newToolkit = f }
}

type Hunter struct {
	cfg        Config
	classifier *avatar.Classifier
	newToolkit ToolkitFactory
}

func NewHunter(cfg Config, opts ...Option) (*Hunter, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DEFAULT_CONCURRENCY
	}
	classifier, err := avatar.NewClassifier(cfg.DefaultAvatarHashes, cfg.AvatarThreshold)
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Op: "avatar hashes", Err: err}
	}

	h := &Hunter{cfg: cfg, classifier: classifier, newToolkit: DefaultToolkit}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// DefaultToolkit wires the real upstreams behind one fresh HTTP client.
func DefaultToolkit(cfg Config, sess *session.Session) (*Toolkit, error) {
	c, err := whttp.NewClient(whttp.Options{
		Proxy:             cfg.Proxy,
		Timeout:           cfg.Timeout,
		Retries:           cfg.Retries,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}

	ep := cfg.Endpoints.withDefaults()
	if err := c.SetCookies(sess.HTTPCookies(), ep.sessionHosts()...); err != nil {
		return nil, err
	}

	return &Toolkit{
		HTTP:     c,
		Resolver: people.NewClient(c, sess, ep.People),
		Extractors: []platforms.Extractor{
			youtube.NewExtractor(c, youtube.Options{
				BaseURL:         ep.Youtube,
				Always:          cfg.YoutubeAlways,
				AvatarThreshold: cfg.AvatarThreshold,
				MaxChannels:     cfg.YoutubeMaxChannels,
			}),
			maps.NewExtractor(c, maps.Options{
				BaseURL:     ep.Maps,
				GeocoderURL: ep.Geocoder,
				RadiusKm:    cfg.MapsRadiusKm,
			}),
			calendar.NewExtractor(c, calendar.Options{
				BaseURL:    ep.Calendar,
				APIBaseURL: ep.CalendarAPI,
				Lookback:   cfg.CalendarLookback,
				Lookahead:  cfg.CalendarLookahead,
			}),
		},
	}, nil
}

// Hunt resolves q.Email and enriches every matching account.
// Only account resolution can fail the whole hunt; optional sources degrade.
func (h *Hunter) Hunt(ctx context.Context, q Query) (result *record.HuntResult, err error) {
	start := time.Now()
	defer func() {
		metrics.HuntDuration.Observe(time.Since(start).Seconds())
		metrics.Hunts.WithLabelValues(string(KindOf(err))).Inc()
	}()

	email, err := ValidateEmail(q.Email)
	if err != nil {
		return nil, &Error{Kind: KindInvalidInput, Op: "validate email", Err: err}
	}

	sess, err := session.Load(ctx, h.cfg.SessionPath)
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Op: "load session", Err: err}
	}

	tk, err := h.newToolkit(h.cfg, sess)
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Op: "build client", Err: err}
	}

	accounts, err := tk.Resolver.Lookup(ctx, email)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Op: "resolve accounts", Err: err}
	}
	metrics.AccountsResolved.Add(float64(len(accounts)))
	utils.Log.Debugf("%s resolved to %d account(s)", email, len(accounts))

	result = &record.HuntResult{Email: email, Matches: make([]record.UserRecord, 0, len(accounts))}
	for _, acc := range accounts {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Kind: KindUpstream, Op: "hunt", Err: err}
		}
		result.Matches = append(result.Matches, h.huntAccount(ctx, tk, email, acc, q.Sources))
	}
	return result, nil
}

func (h *Hunter) huntAccount(ctx context.Context, tk *Toolkit, email string, acc record.Account, sources platforms.SourceSet) record.UserRecord {
	u, target := h.baseIdentity(ctx, tk, email, acc)

	partials := make([]record.Partial, len(tk.Extractors))
	var g errgroup.Group
	g.SetLimit(h.cfg.Concurrency)

	for i, ex := range tk.Extractors {
		if !sources.Includes(ex.Source()) {
			continue
		}
		if gated, ok := ex.(platforms.Gated); ok && !gated.Applicable(target) {
			utils.Log.Debugf("[%s] not applicable to account %s", ex.Source(), acc.ID)
			metrics.ExtractorRuns.WithLabelValues(string(ex.Source()), metrics.OutcomeSkipped).Inc()
			partials[i] = ex.Empty()
			continue
		}

		g.Go(func() error {
			partials[i] = runExtractor(ctx, ex, target)
			return nil
		})
	}
	// runExtractor never returns an error to the group
	_ = g.Wait()

	for _, s := range platforms.AllSources {
		for i, ex := range tk.Extractors {
			if ex.Source() == s && partials[i] != nil {
				partials[i].MergeInto(&u)
			}
		}
	}
	return u
}

// runExtractor turns any extractor failure into the source's empty shape.
func runExtractor(ctx context.Context, ex platforms.Extractor, t platforms.Target) record.Partial {
	source := string(ex.Source())

	p, err := ex.Extract(ctx, t)
	if err != nil {
		ferr := &Error{Kind: KindPartialSource, Op: source, Err: err}
		utils.Log.WithFields(logrus.Fields{
			"source":  source,
			"account": t.AccountID,
		}).Warnf("Source degraded to empty result: %v", ferr)
		metrics.ExtractorRuns.WithLabelValues(source, metrics.OutcomeFailed).Inc()
		return ex.Empty()
	}
	if p == nil {
		p = ex.Empty()
	}
	metrics.ExtractorRuns.WithLabelValues(source, metrics.OutcomeOK).Inc()
	return p
}
