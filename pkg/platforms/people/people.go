package people

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sw33tLie/mailhunt/internal/utils"
	"github.com/sw33tLie/mailhunt/pkg/record"
	"github.com/sw33tLie/mailhunt/pkg/session"
	"github.com/sw33tLie/mailhunt/pkg/whttp"
	"github.com/tidwall/gjson"
)

const (
	DEFAULT_BASE_URL = "https://people-pa.clients6.google.com"
	HANGOUTS_ORIGIN  = "https://hangouts.google.com"

	invalidCredentials = "invalid authentication credentials"
)

// ErrSessionExpired means the cookies or tokens in the session file are no longer accepted.
var ErrSessionExpired = errors.New("cookies/tokens seem expired, regenerate the session")

var lookupFields = []string{
	"person.email", "person.gender", "person.in_app_reachability", "person.metadata",
	"person.name", "person.phone", "person.photo", "person.read_only_profile_info",
	"person.organization", "person.location", "person.cover_photo",
}

var nameFields = []string{
	"person.metadata.best_display_name", "person.photo", "person.cover_photo",
	"person.email", "person.organization", "person.location",
}

type Client struct {
	http *whttp.Client
	sess *session.Session
	base string
}

func NewClient(c *whttp.Client, sess *session.Session, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DEFAULT_BASE_URL
	}
	return &Client{http: c, sess: sess, base: strings.TrimSuffix(baseURL, "/")}
}

func lookupBody(email, key string) string {
	form := url.Values{}
	form.Set("id", email)
	form.Set("type", "EMAIL")
	form.Set("matchType", "EXACT")
	form["extensionSet.extensionNames"] = []string{
		"HANGOUTS_ADDITIONAL_DATA", "HANGOUTS_OFF_NETWORK_GAIA_LOOKUP", "HANGOUTS_PHONE_DATA",
	}
	form.Set("coreIdParams.useRealtimeNotificationExpandedAcls", "true")
	form["requestMask.includeField.paths"] = lookupFields
	form["requestMask.includeContainer"] = []string{"PROFILE", "DOMAIN_PROFILE", "CONTACT"}
	form.Set("key", key)
	return form.Encode()
}

// Lookup returns every account matching email. No match is not an error.
func (c *Client) Lookup(ctx context.Context, email string) ([]record.Account, error) {
	res, err := c.http.Send(ctx, &whttp.WHTTPReq{
		Method: "POST",
		URL:    c.base + "/v2/people/lookup?key=" + url.QueryEscape(c.sess.Keys.Hangouts),
		Headers: []whttp.WHTTPHeader{
			{Name: "X-HTTP-Method-Override", Value: "GET"},
			{Name: "Authorization", Value: c.sess.HangoutsAuth},
			{Name: "Content-Type", Value: "application/x-www-form-urlencoded"},
			{Name: "Origin", Value: HANGOUTS_ORIGIN},
		},
		Body: lookupBody(email, c.sess.Keys.Hangouts),
	})
	if err != nil {
		return nil, fmt.Errorf("people lookup failed: %w", err)
	}

	if err := upstreamError(res); err != nil {
		return nil, err
	}

	body := res.BodyString
	if !gjson.Get(body, "matches").Exists() {
		utils.Log.Debugf("No account matches %s", email)
		return []record.Account{}, nil
	}

	persons := map[string]string{}
	gjson.Get(body, "people").ForEach(func(key, value gjson.Result) bool {
		persons[key.String()] = value.Raw
		return true
	})

	var accounts []record.Account
	for _, match := range gjson.Get(body, "matches").Array() {
		id := match.Get("personId.0").String()
		if id == "" {
			continue
		}
		person, ok := persons[id]
		if !ok {
			utils.Log.Warnf("Lookup returned person %s without a profile, skipping", id)
			continue
		}
		accounts = append(accounts, record.Account{
			ID:     id,
			Email:  match.Get("lookupId").String(),
			Person: person,
		})
	}
	if accounts == nil {
		accounts = []record.Account{}
	}
	return accounts, nil
}

// DisplayName asks the authenticated profile endpoint for the account's real name.
// An empty string with a nil error means the profile has no name.
func (c *Client) DisplayName(ctx context.Context, accountID string) (string, error) {
	q := url.Values{}
	q.Set("person_id", accountID)
	q["request_mask.include_container"] = []string{"PROFILE", "DOMAIN_PROFILE"}
	q["request_mask.include_field.paths"] = nameFields
	q.Set("core_id_params.enable_private_names", "true")
	q.Set("key", c.sess.Keys.Internal)

	res, err := c.http.Send(ctx, &whttp.WHTTPReq{
		Method:  "GET",
		URL:     c.base + "/v2/people?" + q.Encode(),
		Headers: []whttp.WHTTPHeader{{Name: "Authorization", Value: c.sess.InternalAuth}},
	})
	if err != nil {
		return "", fmt.Errorf("name lookup failed: %w", err)
	}
	if err := upstreamError(res); err != nil {
		return "", err
	}

	return gjson.Get(res.BodyString, "personResponse.0.person.name.0.displayName").String(), nil
}

func upstreamError(res *whttp.WHTTPRes) error {
	msg := gjson.Get(res.BodyString, "error.message")
	if msg.Exists() {
		if strings.Contains(strings.ToLower(msg.String()), invalidCredentials) {
			return ErrSessionExpired
		}
		return fmt.Errorf("people API error (status %d): %s", res.StatusCode, msg.String())
	}
	if res.StatusCode == 401 {
		return ErrSessionExpired
	}
	if res.StatusCode != 200 {
		return fmt.Errorf("people API returned status %d", res.StatusCode)
	}
	return nil
}
