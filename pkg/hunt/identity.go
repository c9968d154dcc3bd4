package hunt

import (
	"context"
	"strings"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/sw33tLie/mailhunt/internal/utils"
	"github.com/sw33tLie/mailhunt/pkg/avatar"
	"github.com/sw33tLie/mailhunt/pkg/platforms"
	"github.com/sw33tLie/mailhunt/pkg/record"
	"github.com/sw33tLie/mailhunt/pkg/whttp"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// legacy reachability tags and their current names
var legacyServices = map[string]string{
	"babel": "hangouts",
}

// baseIdentity fills the always-present fields of one account and returns
// the read-only target the optional extractors work from.
func (h *Hunter) baseIdentity(ctx context.Context, tk *Toolkit, email string, acc record.Account) (record.UserRecord, platforms.Target) {
	person := gjson.Parse(acc.Person)

	u := record.UserRecord{
		AccountID:  acc.ID,
		IsBot:      botFlag(person),
		LastUpdate: lastUpdate(person),
	}
	t := platforms.Target{Email: email, AccountID: acc.ID}

	u.Name = h.displayName(ctx, tk.Resolver, acc.ID, person)
	t.Name = u.Name

	services, known := activatedServices(person)
	u.Services = services
	t.Services = services
	t.ReachabilityKnown = known

	u.AvatarURL = person.Get("photo.0.url").String()
	if u.AvatarURL != "" {
		if hash, ok := fetchAvatarHash(ctx, tk.HTTP, u.AvatarURL); ok {
			t.AvatarHash = hash
			t.AvatarIsDefault = h.classifier.IsDefault(hash)
			u.IsDefaultAvatar = t.AvatarIsDefault
		}
	}

	return u, t
}

// displayName prefers the authenticated name lookup and falls back to the
// first displayName in the lookup profile.
func (h *Hunter) displayName(ctx context.Context, r Resolver, accountID string, person gjson.Result) string {
	name, err := r.DisplayName(ctx, accountID)
	if err != nil {
		utils.Log.Debugf("Name lookup for %s failed, falling back to the profile: %v", accountID, err)
	}
	if name = strings.TrimSpace(name); name != "" {
		return name
	}

	for _, n := range person.Get("name").Array() {
		if v := strings.TrimSpace(n.Get("displayName").String()); v != "" {
			return v
		}
	}
	return ""
}

func fetchAvatarHash(ctx context.Context, c *whttp.Client, url string) (hash *goimagehash.ImageHash, ok bool) {
	res, err := c.Send(ctx, &whttp.WHTTPReq{Method: "GET", URL: url})
	if err != nil {
		utils.Log.Debugf("Could not fetch avatar %s: %v", url, err)
		return nil, false
	}
	if res.StatusCode != 200 {
		utils.Log.Debugf("Avatar %s returned status %d", url, res.StatusCode)
		return nil, false
	}
	hash, err = avatar.Hash(res.BodyBytes)
	if err != nil {
		utils.Log.Debugf("Could not hash avatar %s: %v", url, err)
		return nil, false
	}
	return hash, true
}

// botFlag is nil when the profile carries no extended data at all.
func botFlag(person gjson.Result) *bool {
	ext := person.Get("extendedData")
	if !ext.Exists() {
		return nil
	}
	v := ext.Get("hangoutsExtendedData.isBot").Bool()
	return &v
}

func lastUpdate(person gjson.Result) *time.Time {
	micros := person.Get("metadata.lastUpdateTimeMicros")
	if !micros.Exists() || micros.Int() <= 0 {
		return nil
	}
	t := time.UnixMicro(micros.Int()).UTC()
	return &t
}

// activatedServices reads inAppReachability. known is false when the
// array is missing from the profile.
func activatedServices(person gjson.Result) (services []string, known bool) {
	services = []string{}
	reach := person.Get("inAppReachability")
	if !reach.Exists() {
		return services, false
	}

	title := cases.Title(language.English)
	var names []string
	for _, r := range reach.Array() {
		name := strings.ToLower(strings.TrimSpace(r.Get("appType").String()))
		if modern, ok := legacyServices[name]; ok {
			name = modern
		}
		names = append(names, title.String(name))
	}
	return utils.Dedupe(names), true
}
