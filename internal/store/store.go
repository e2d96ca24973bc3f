// Package store defines the persistence contracts for the admin content:
// engagements, translations and the people rosters. Implementations live in
// the memory and postgres subpackages and must agree on the semantics spelled
// out here, renumbering included.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/koradi/koradi-admin/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrEngagementNotFound  = errors.New("engagement not found")
	ErrEngagementExists    = errors.New("engagement already exists")
	ErrTranslationNotFound = errors.New("translation not found")
	ErrTranslationExists   = errors.New("translation already exists")
	ErrRosterEntryNotFound = errors.New("roster entry not found")
	ErrUnknownRoster       = errors.New("unknown roster kind")
)

// EngagementStore persists speaking engagements and their running order.
type EngagementStore interface {
	// Create stores a new engagement. A zero ID is assigned; a non-zero ID is
	// kept, which is how backup restores preserve identity. When the
	// engagement claims an occupied number slot, every engagement numbered at
	// or above it shifts up by one first.
	Create(ctx context.Context, e *models.Engagement) error

	// List returns engagements matching the filter, numbered ones first in
	// ascending order, unnumbered ones after sorted by date.
	List(ctx context.Context, filter *EngagementFilter) ([]*models.Engagement, error)

	// Update replaces the stored engagement with the same ID. Claiming an
	// occupied number slot shifts the occupants up, just like Create.
	Update(ctx context.Context, e *models.Engagement) error

	// Delete removes an engagement. Deleting a numbered one shifts every
	// engagement numbered above it down by one.
	Delete(ctx context.Context, id uuid.UUID) error
}

// TranslationStore persists recordings moving through the pipeline.
type TranslationStore interface {
	// Create stores a new translation. A zero ID gets the next sequence
	// value, which is never reused within the store's lifetime; a non-zero ID
	// is kept and the sequence advanced past it.
	Create(ctx context.Context, t *models.Translation) error

	// List returns translations matching the filter, sorted by due date.
	List(ctx context.Context, filter *TranslationFilter) ([]*models.Translation, error)

	// Update replaces the stored translation with the same ID.
	Update(ctx context.Context, t *models.Translation) error

	Delete(ctx context.Context, id int64) error
}

// RosterStore persists the instructor, host and translator name rosters.
type RosterStore interface {
	// Add inserts a name. Adding a name that is already present is not an
	// error.
	Add(ctx context.Context, kind models.RosterKind, name string) error

	// List returns the roster sorted by name.
	List(ctx context.Context, kind models.RosterKind) ([]string, error)

	Remove(ctx context.Context, kind models.RosterKind, name string) error
}

// Stores bundles the three stores one backend provides.
type Stores struct {
	Engagements  EngagementStore
	Translations TranslationStore
	Rosters      RosterStore
}

// EngagementFilter narrows List results. Nil fields match everything;
// LanguageAny matches every language. Fields that are optional on the
// engagement only match when the engagement carries a value.
type EngagementFilter struct {
	Language     *models.Language
	Number       *int
	ActivityType *string
	Instructor   *string
	Host         *string
	Date         *string
	Status       *models.EngagementStatus
	HostStatus   *models.HostStatus
	FlyerStatus  *models.FlyerStatus
}

// Matches reports whether the engagement satisfies every set field.
func (f *EngagementFilter) Matches(e *models.Engagement) bool {
	if f == nil {
		return true
	}
	if f.Language != nil && *f.Language != models.LanguageAny && e.Language != *f.Language {
		return false
	}
	if f.Number != nil && (e.Number == nil || *e.Number != *f.Number) {
		return false
	}
	if f.ActivityType != nil && (e.ActivityType == nil || *e.ActivityType != *f.ActivityType) {
		return false
	}
	if f.Instructor != nil && e.Instructor != *f.Instructor {
		return false
	}
	if f.Host != nil && e.Host != *f.Host {
		return false
	}
	if f.Date != nil && e.Date != *f.Date {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.HostStatus != nil && (e.HostStatus == nil || *e.HostStatus != *f.HostStatus) {
		return false
	}
	if f.FlyerStatus != nil && (e.FlyerStatus == nil || *e.FlyerStatus != *f.FlyerStatus) {
		return false
	}
	return true
}

// TranslationFilter narrows List results. Name is a substring match; StageAny
// matches every stage; Translators matches on any overlap.
type TranslationFilter struct {
	ID          *int64
	Name        *string
	Stage       *models.Stage
	Translators []string
}

// Matches reports whether the translation satisfies every set field.
func (f *TranslationFilter) Matches(t *models.Translation) bool {
	if f == nil {
		return true
	}
	if f.ID != nil && t.ID != *f.ID {
		return false
	}
	if f.Name != nil && !strings.Contains(t.Name, *f.Name) {
		return false
	}
	if f.Stage != nil && *f.Stage != models.StageAny && t.Stage != *f.Stage {
		return false
	}
	if len(f.Translators) > 0 {
		overlap := false
		for _, want := range f.Translators {
			if slices.Contains(t.Translators, want) {
				overlap = true
				break
			}
		}
		if !overlap {
			return false
		}
	}
	return true
}
