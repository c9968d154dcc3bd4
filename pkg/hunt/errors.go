package hunt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
	"golang.org/x/net/idna"
)

// Kind classifies a hunt failure for the boundaries.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindInvalidInput  Kind = "invalid_input"
	KindUpstream      Kind = "upstream"
	KindPartialSource Kind = "partial_source"
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var herr *Error
	if errors.As(err, &herr) {
		return herr.Kind
	}
	return ""
}

// ValidateEmail normalizes email and checks that its domain has a registrable suffix.
func ValidateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("email is empty")
	}

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return "", fmt.Errorf("malformed email %q", email)
	}
	if strings.ContainsAny(email, " \t\r\n/?#") {
		return "", fmt.Errorf("malformed email %q", email)
	}

	domain, err := idna.Lookup.ToASCII(email[at+1:])
	if err != nil {
		return "", fmt.Errorf("invalid email domain %q: %w", email[at+1:], err)
	}
	if _, err := publicsuffix.Domain(domain); err != nil {
		return "", fmt.Errorf("invalid email domain %q: %w", domain, err)
	}
	return email, nil
}
