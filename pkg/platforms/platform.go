package platforms

import (
	"context"
	"fmt"
	"strings"

	"github.com/corona10/goimagehash"
	"github.com/sw33tLie/mailhunt/pkg/record"
)

// Source names one optional data source.
type Source string

const (
	SourceMaps     Source = "maps"
	SourceYoutube  Source = "youtube"
	SourceCalendar Source = "calendar"
)

// AllSources lists every optional source in merge order.
var AllSources = []Source{SourceYoutube, SourceMaps, SourceCalendar}

// SourceSet is the inclusion filter of a query. The zero value means all sources.
type SourceSet uint8

const (
	includeYoutube SourceSet = 1 << iota
	includeMaps
	includeCalendar
)

func bitFor(s Source) SourceSet {
	switch s {
	case SourceYoutube:
		return includeYoutube
	case SourceMaps:
		return includeMaps
	case SourceCalendar:
		return includeCalendar
	}
	return 0
}

// NewSourceSet builds a set from explicit sources.
func NewSourceSet(sources ...Source) SourceSet {
	var set SourceSet
	for _, s := range sources {
		set |= bitFor(s)
	}
	return set
}

// ParseSources parses a comma-separated list like "maps,youtube".
// An empty string yields the zero set, meaning all sources.
func ParseSources(raw string) (SourceSet, error) {
	var set SourceSet
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		bit := bitFor(Source(part))
		if bit == 0 {
			return 0, fmt.Errorf("unknown source %q (available: maps, youtube, calendar)", part)
		}
		set |= bit
	}
	return set, nil
}

func (set SourceSet) Includes(s Source) bool {
	if set == 0 {
		return true
	}
	return set&bitFor(s) != 0
}

func (set SourceSet) String() string {
	var names []string
	for _, s := range AllSources {
		if set.Includes(s) {
			names = append(names, string(s))
		}
	}
	return strings.Join(names, ",")
}

// Target is what the base identity pass learned about one account.
// Extractors only read it.
type Target struct {
	Email     string
	AccountID string
	Name      string

	AvatarHash      *goimagehash.ImageHash
	AvatarIsDefault bool

	Services []string
	// ReachabilityKnown is false when the profile carried no reachability
	// array at all, which forces every name-based check on.
	ReachabilityKnown bool
}

// HasService reports whether a canonical service name was activated.
func (t Target) HasService(name string) bool {
	for _, s := range t.Services {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// Extractor fetches one optional source for one account.
type Extractor interface {
	Source() Source
	// Empty is the shape reported when the source yields nothing or fails.
	Empty() record.Partial
	Extract(ctx context.Context, t Target) (record.Partial, error)
}

// Gated is implemented by extractors that need more than an inclusion
// check before they run.
type Gated interface {
	Applicable(t Target) bool
}
