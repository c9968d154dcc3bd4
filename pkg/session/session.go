// Package session reads the credential file produced by the token
// generator. The file is never written here.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"

	"github.com/sw33tLie/mailhunt/internal/utils"
)

var (
	// ErrNotFound means the session file has not been generated yet.
	ErrNotFound = errors.New("session file not found, generate cookies and tokens first")
	// ErrIncomplete means the file exists but lacks a required credential.
	ErrIncomplete = errors.New("session file is missing required credentials")
)

type Keys struct {
	Hangouts string `json:"hangouts"`
	Internal string `json:"internal"`
}

type Session struct {
	HangoutsAuth string            `json:"hangouts_auth"`
	InternalAuth string            `json:"internal_auth"`
	Keys         Keys              `json:"keys"`
	Cookies      map[string]string `json:"cookies"`
}

// Load reads the session under a shared lock.
func Load(ctx context.Context, path string) (*Session, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	lock := utils.NewFileLock(path)
	if err := lock.RLock(ctx); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("could not parse session file %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Session) validate() error {
	switch {
	case s.HangoutsAuth == "":
		return fmt.Errorf("%w: hangouts_auth", ErrIncomplete)
	case s.Keys.Hangouts == "":
		return fmt.Errorf("%w: keys.hangouts", ErrIncomplete)
	case len(s.Cookies) == 0:
		return fmt.Errorf("%w: cookies", ErrIncomplete)
	}
	return nil
}

// HTTPCookies returns the session cookies sorted by name.
func (s *Session) HTTPCookies() []*http.Cookie {
	names := make([]string, 0, len(s.Cookies))
	for name := range s.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{Name: name, Value: s.Cookies[name]})
	}
	return cookies
}
