package hunt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sw33tLie/mailhunt/pkg/record"
	"github.com/tidwall/gjson"
)

func TestActivatedServices(t *testing.T) {
	tests := []struct {
		name   string
		person string
		want   []string
		known  bool
	}{
		{name: "absent", person: `{}`, want: []string{}, known: false},
		{name: "empty", person: `{"inAppReachability":[]}`, want: []string{}, known: true},
		{name: "legacy tag", person: `{"inAppReachability":[{"appType":"BABEL"}]}`, want: []string{"Hangouts"}, known: true},
		{
			name:   "legacy and modern",
			person: `{"inAppReachability":[{"appType":"babel"},{"appType":"HANGOUTS"},{"appType":"YOUTUBE"}]}`,
			want:   []string{"Hangouts", "Youtube"},
			known:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := activatedServices(gjson.Parse(tt.person))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestBotFlag(t *testing.T) {
	assert.Nil(t, botFlag(gjson.Parse(`{}`)))

	flag := botFlag(gjson.Parse(`{"extendedData":{"hangoutsExtendedData":{"isBot":true}}}`))
	if assert.NotNil(t, flag) {
		assert.True(t, *flag)
	}

	flag = botFlag(gjson.Parse(`{"extendedData":{}}`))
	if assert.NotNil(t, flag) {
		assert.False(t, *flag)
	}
}

func TestLastUpdate(t *testing.T) {
	assert.Nil(t, lastUpdate(gjson.Parse(`{}`)))

	got := lastUpdate(gjson.Parse(`{"metadata":{"lastUpdateTimeMicros":"1600000000123456"}}`))
	if assert.NotNil(t, got) {
		assert.Equal(t, time.UnixMicro(1600000000123456).UTC(), *got)
		assert.Equal(t, time.UTC, got.Location())
	}
}

type failingResolver struct{}

func (failingResolver) Lookup(ctx context.Context, email string) ([]record.Account, error) {
	return nil, nil
}

func (failingResolver) DisplayName(ctx context.Context, accountID string) (string, error) {
	return "", errors.New("forbidden")
}

func TestDisplayName(t *testing.T) {
	h := &Hunter{}

	t.Run("authenticated name wins", func(t *testing.T) {
		r := &fakeResolver{name: "Larry Page"}
		got := h.displayName(context.Background(), r, "1076", gjson.Parse(`{"name":[{"displayName":"Larry"}]}`))
		assert.Equal(t, "Larry Page", got)
	})

	t.Run("falls back to the profile", func(t *testing.T) {
		got := h.displayName(context.Background(), failingResolver{}, "1076", gjson.Parse(`{"name":[{},{"displayName":"Larry"}]}`))
		assert.Equal(t, "Larry", got)
	})

	t.Run("no name anywhere", func(t *testing.T) {
		got := h.displayName(context.Background(), failingResolver{}, "1076", gjson.Parse(`{}`))
		assert.Empty(t, got)
	})
}
