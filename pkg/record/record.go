package record

import (
	"time"
)

// Account is one candidate account matched by the people lookup.
// Person holds the raw profile JSON for that account.
type Account struct {
	ID     string
	Email  string
	Person string
}

type HuntResult struct {
	Email   string       `json:"email"`
	Matches []UserRecord `json:"matches"`
}

type UserRecord struct {
	Name            string     `json:"user_name,omitempty"`
	AccountID       string     `json:"google_id"`
	AvatarURL       string     `json:"profile_image_url"`
	IsDefaultAvatar bool       `json:"is_default_profile_pic"`
	IsBot           *bool      `json:"is_hangout_bot"`
	LastUpdate      *time.Time `json:"last_profile_update_time"`
	Services        []string   `json:"activated_google_services"`

	Youtube  *YoutubeSignal  `json:"youtube,omitempty"`
	Maps     *MapsSignal     `json:"maps,omitempty"`
	Calendar *CalendarSignal `json:"calendar,omitempty"`
}

type Channel struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
}

type YoutubeSignal struct {
	Confidence        *Confidence `json:"confidence"`
	Channels          []Channel   `json:"channels"`
	PossibleUsernames []string    `json:"possible_usernames"`
}

type MapsSignal struct {
	Confidence    *Confidence `json:"confidence"`
	LocationNames []string    `json:"location_names"`
}

type CalendarEvent struct {
	Title    string    `json:"title"`
	StartUTC time.Time `json:"start_utc"`
	Duration string    `json:"duration"`
}

type CalendarSignal struct {
	Status bool            `json:"status"`
	Events []CalendarEvent `json:"events"`
}

// Partial is what one optional source contributes to a UserRecord.
type Partial interface {
	MergeInto(u *UserRecord)
}

func (s *YoutubeSignal) MergeInto(u *UserRecord)  { u.Youtube = s }
func (s *MapsSignal) MergeInto(u *UserRecord)     { u.Maps = s }
func (s *CalendarSignal) MergeInto(u *UserRecord) { u.Calendar = s }

func EmptyYoutube() *YoutubeSignal {
	return &YoutubeSignal{Channels: []Channel{}, PossibleUsernames: []string{}}
}

func EmptyMaps() *MapsSignal {
	return &MapsSignal{LocationNames: []string{}}
}

func EmptyCalendar() *CalendarSignal {
	return &CalendarSignal{Status: false, Events: []CalendarEvent{}}
}
