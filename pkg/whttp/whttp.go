package whttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/sw33tLie/mailhunt/internal/utils"
	"github.com/weppos/publicsuffix-go/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	USER_AGENT      = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"
	DEFAULT_TIMEOUT = 30 * time.Second
	DEFAULT_BURST   = 5
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
	Body    string
}

type WHTTPRes struct {
	StatusCode int
	Header     http.Header
	BodyBytes  []byte
	BodyString string
}

// Options configures a Client. Zero values are usable.
type Options struct {
	Proxy             string
	Timeout           time.Duration
	Retries           int
	RequestsPerSecond float64
	UserAgent         string
}

// Client is the per-request HTTP client: one cookie jar, one limiter.
// It must not be shared between hunts, or session cookies would leak across them.
type Client struct {
	rc        *retryablehttp.Client
	limiter   *rate.Limiter
	userAgent string
}

func NewClient(opts Options) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.CookieJarList})
	if err != nil {
		return nil, err
	}

	rc := retryablehttp.NewClient()
	rc.Logger = leveledLogger{utils.Log.WithField("component", "whttp")}
	rc.RetryMax = opts.Retries
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Jar = jar
	rc.HTTPClient.Timeout = opts.Timeout
	if rc.HTTPClient.Timeout <= 0 {
		rc.HTTPClient.Timeout = DEFAULT_TIMEOUT
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		rc.HTTPClient.Transport = transport
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = USER_AGENT
	}

	return &Client{
		rc:        rc,
		limiter:   rate.NewLimiter(limit, DEFAULT_BURST),
		userAgent: ua,
	}, nil
}

// SetCookies seeds the jar for every given base URL.
func (c *Client) SetCookies(cookies []*http.Cookie, baseURLs ...string) error {
	for _, raw := range baseURLs {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid base URL %q: %w", raw, err)
		}
		c.rc.HTTPClient.Jar.SetCookies(u, cookies)
	}
	return nil
}

// StandardClient exposes the client to SDKs that want a plain *http.Client.
// Requests made through it share the jar and retry policy but not the limiter.
func (c *Client) StandardClient() *http.Client {
	return c.rc.StandardClient()
}

// Wait blocks until the outbound limiter lets one more request through.
func (c *Client) Wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

func (c *Client) Send(ctx context.Context, wReq *WHTTPReq) (*WHTTPRes, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	method := wReq.Method
	if method == "" {
		method = http.MethodGet
	}

	var body interface{}
	if wReq.Body != "" {
		body = strings.NewReader(wReq.Body)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, wReq.URL, body)
	if err != nil {
		return nil, err
	}

	// Set common headers
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en")

	// Set custom headers
	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := c.rc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &WHTTPRes{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		BodyBytes:  bodyBytes,
		BodyString: string(bodyBytes),
	}, nil
}

// leveledLogger adapts a logrus entry to retryablehttp.LeveledLogger.
type leveledLogger struct {
	entry *logrus.Entry
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Warn(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Warn(msg)
}

func (l leveledLogger) with(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.entry.WithFields(fields)
}
