package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/koradi/koradi-admin/internal/models"
)

// RosterSeed is the YAML shape accepted by --seed-roster. The original
// deployment loaded instructors from a flat file once; the seed file folds
// all three rosters into one document.
type RosterSeed struct {
	Instructors []string `yaml:"instructors"`
	Hosts       []string `yaml:"hosts"`
	Translators []string `yaml:"translators"`
}

// LoadRosterSeed reads and parses a seed file.
func LoadRosterSeed(path string) (*RosterSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster seed: %w", err)
	}

	var seed RosterSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse roster seed %s: %w", path, err)
	}
	return &seed, nil
}

// SeedRosters adds every named person to the matching roster. Names are
// sanitized like any other write and blank entries are skipped. Adds are
// idempotent, so re-seeding an existing roster is harmless.
func SeedRosters(ctx context.Context, dst RosterStore, seed *RosterSeed) error {
	groups := map[models.RosterKind][]string{
		models.RosterInstructors: seed.Instructors,
		models.RosterHosts:       seed.Hosts,
		models.RosterTranslators: seed.Translators,
	}

	total := 0
	for _, kind := range models.RosterKinds() {
		for _, name := range groups[kind] {
			cleaned := strings.TrimSpace(models.CleanString(name))
			if cleaned == "" {
				continue
			}
			if err := dst.Add(ctx, kind, cleaned); err != nil {
				return fmt.Errorf("seed %s: %w", kind, err)
			}
			total++
		}
	}

	log.Info().Int("entries", total).Msg("rosters seeded")
	return nil
}
