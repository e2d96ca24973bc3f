package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for engagement dates and translation due
// dates.
const DateLayout = "2006-01-02"

// Language identifies the audience language of an engagement. LanguageAny is
// a filter wildcard, never stored.
type Language string

const (
	LanguageAny        Language = "any"
	LanguageEnglish    Language = "english"
	LanguageSpanish    Language = "spanish"
	LanguageFrench     Language = "french"
	LanguagePortuguese Language = "portuguese"
	LanguageItalian    Language = "italian"
	LanguageGerman     Language = "german"
	LanguagePersian    Language = "persian"
)

// Valid reports whether the value is a known language, wildcard included.
func (l Language) Valid() bool {
	switch l {
	case LanguageAny, LanguageEnglish, LanguageSpanish, LanguageFrench,
		LanguagePortuguese, LanguageItalian, LanguageGerman, LanguagePersian:
		return true
	}
	return false
}

// EngagementStatus tracks the instructor side of an engagement.
type EngagementStatus string

const (
	StatusPlanning  EngagementStatus = "planning"
	StatusInvited   EngagementStatus = "invited"
	StatusConfirmed EngagementStatus = "confirmed"
	StatusRejected  EngagementStatus = "rejected"
	StatusComplete  EngagementStatus = "complete"
)

func (s EngagementStatus) Valid() bool {
	switch s {
	case StatusPlanning, StatusInvited, StatusConfirmed, StatusRejected, StatusComplete:
		return true
	}
	return false
}

// HostStatus tracks the hosting venue's side of an engagement.
type HostStatus string

const (
	HostPlanning  HostStatus = "planning"
	HostInvited   HostStatus = "invited"
	HostConfirmed HostStatus = "confirmed"
	HostRejected  HostStatus = "rejected"
)

func (s HostStatus) Valid() bool {
	switch s {
	case HostPlanning, HostInvited, HostConfirmed, HostRejected:
		return true
	}
	return false
}

// FlyerStatus tracks the promotional flyer for an engagement.
type FlyerStatus string

const (
	FlyerPending  FlyerStatus = "pending"
	FlyerSent     FlyerStatus = "sent"
	FlyerComplete FlyerStatus = "complete"
)

func (s FlyerStatus) Valid() bool {
	switch s {
	case FlyerPending, FlyerSent, FlyerComplete:
		return true
	}
	return false
}

// Engagement is one speaking engagement. Number is the optional slot in the
// published running order; creating into an occupied slot shifts the later
// engagements up by one.
type Engagement struct {
	ID            uuid.UUID        `json:"id"`
	Instructor    string           `json:"instructor" validate:"required"`
	Host          string           `json:"host" validate:"required"`
	Date          string           `json:"date" validate:"required,date"`
	Language      Language         `json:"language" validate:"required,oneof=english spanish french portuguese italian german persian"`
	Title         string           `json:"title" validate:"required"`
	Part          int              `json:"part" validate:"min=1,ltefield=NumParts"`
	NumParts      int              `json:"num_parts" validate:"min=1"`
	Status        EngagementStatus `json:"status" validate:"required,oneof=planning invited confirmed rejected complete"`
	HostStatus    *HostStatus      `json:"host_status,omitempty" validate:"omitempty,oneof=planning invited confirmed rejected"`
	FlyerStatus   *FlyerStatus     `json:"flyer_status,omitempty" validate:"omitempty,oneof=pending sent complete"`
	Notes         *string          `json:"notes,omitempty"`
	Number        *int             `json:"number,omitempty" validate:"omitempty,min=1"`
	ActivityType  *string          `json:"activity_type,omitempty"`
	LastUpdatedBy *string          `json:"last_updated_by,omitempty"`
}

// Validate checks structure and field constraints.
func (e *Engagement) Validate() error {
	return validate.Struct(e)
}

// Sanitize strips HTML from every user-supplied text field. Runs on every
// write path before the engagement reaches a store.
func (e *Engagement) Sanitize() {
	e.Instructor = CleanString(e.Instructor)
	e.Host = CleanString(e.Host)
	e.Date = CleanString(e.Date)
	e.Title = CleanString(e.Title)
	e.Notes = cleanOptional(e.Notes)
	e.ActivityType = cleanOptional(e.ActivityType)
	e.LastUpdatedBy = cleanOptional(e.LastUpdatedBy)
}

// StampUpdate rewrites the attribution as "editor YYYY-MM-DD" so every write
// records who touched the record and when.
func (e *Engagement) StampUpdate(now time.Time) {
	editor := ""
	if e.LastUpdatedBy != nil {
		editor = *e.LastUpdatedBy
	}
	stamped := strings.TrimSpace(editor + " " + now.UTC().Format(DateLayout))
	e.LastUpdatedBy = &stamped
}

// Clone returns a deep copy, detaching the optional fields.
func (e *Engagement) Clone() *Engagement {
	clone := *e
	clone.HostStatus = cloneptr(e.HostStatus)
	clone.FlyerStatus = cloneptr(e.FlyerStatus)
	clone.Notes = cloneptr(e.Notes)
	clone.Number = cloneptr(e.Number)
	clone.ActivityType = cloneptr(e.ActivityType)
	clone.LastUpdatedBy = cloneptr(e.LastUpdatedBy)
	return &clone
}

func cloneptr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
