package hunt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		want    string
		wantErr bool
	}{
		{email: "larry@example.com", want: "larry@example.com"},
		{email: "  Larry@Example.COM ", want: "larry@example.com"},
		{email: "larry@mail.example.co.uk", want: "larry@mail.example.co.uk"},
		{email: "larry@bücher.de", want: "larry@bücher.de"},
		{email: "", wantErr: true},
		{email: "larry", wantErr: true},
		{email: "@example.com", wantErr: true},
		{email: "larry@", wantErr: true},
		{email: "larry@@example.com", wantErr: true},
		{email: "larry@com", wantErr: true},
		{email: "larry@example.com/x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got, err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("outer: %w", &Error{Kind: KindUpstream, Op: "resolve accounts", Err: base})

	assert.Equal(t, KindUpstream, KindOf(err))
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, "outer: resolve accounts: boom", err.Error())
	assert.Equal(t, Kind(""), KindOf(base))
	assert.Equal(t, Kind(""), KindOf(nil))
}
