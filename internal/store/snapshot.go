package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/koradi/koradi-admin/internal/models"
)

// Snapshot is the portable dump of everything the service manages. The
// backup system archives it and restores from it at boot.
type Snapshot struct {
	TakenAt      time.Time             `json:"taken_at"`
	Engagements  []*models.Engagement  `json:"engagements"`
	Translations []*models.Translation `json:"translations"`
	Instructors  []string              `json:"instructors"`
	Hosts        []string              `json:"hosts"`
	Translators  []string              `json:"translators"`
}

// TakeSnapshot reads every collection through the store interfaces, so it
// works against any backend.
func TakeSnapshot(ctx context.Context, s *Stores) (*Snapshot, error) {
	engagements, err := s.Engagements.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot engagements: %w", err)
	}

	translations, err := s.Translations.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot translations: %w", err)
	}

	snap := &Snapshot{
		TakenAt:      time.Now().UTC(),
		Engagements:  engagements,
		Translations: translations,
	}

	for _, kind := range models.RosterKinds() {
		names, err := s.Rosters.List(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", kind, err)
		}
		switch kind {
		case models.RosterInstructors:
			snap.Instructors = names
		case models.RosterHosts:
			snap.Hosts = names
		case models.RosterTranslators:
			snap.Translators = names
		}
	}

	return snap, nil
}

// RestoreSnapshot loads the snapshot into the stores, collection by
// collection, touching only collections that are currently empty. Existing
// data always wins over a backup.
func RestoreSnapshot(ctx context.Context, dst *Stores, snap *Snapshot) error {
	existing, err := dst.Engagements.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("restore engagements: %w", err)
	}
	if len(existing) == 0 && len(snap.Engagements) > 0 {
		for _, e := range snap.Engagements {
			if err := dst.Engagements.Create(ctx, e); err != nil {
				return fmt.Errorf("restore engagements: %w", err)
			}
		}
		log.Info().Int("count", len(snap.Engagements)).Msg("restored engagements from backup")
	}

	current, err := dst.Translations.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("restore translations: %w", err)
	}
	if len(current) == 0 && len(snap.Translations) > 0 {
		for _, t := range snap.Translations {
			if err := dst.Translations.Create(ctx, t); err != nil {
				return fmt.Errorf("restore translations: %w", err)
			}
		}
		log.Info().Int("count", len(snap.Translations)).Msg("restored translations from backup")
	}

	rosters := map[models.RosterKind][]string{
		models.RosterInstructors: snap.Instructors,
		models.RosterHosts:       snap.Hosts,
		models.RosterTranslators: snap.Translators,
	}
	for _, kind := range models.RosterKinds() {
		names, err := dst.Rosters.List(ctx, kind)
		if err != nil {
			return fmt.Errorf("restore %s: %w", kind, err)
		}
		if len(names) > 0 || len(rosters[kind]) == 0 {
			continue
		}
		for _, name := range rosters[kind] {
			if err := dst.Rosters.Add(ctx, kind, name); err != nil {
				return fmt.Errorf("restore %s: %w", kind, err)
			}
		}
		log.Info().Int("count", len(rosters[kind])).Str("roster", string(kind)).Msg("restored roster from backup")
	}

	return nil
}
