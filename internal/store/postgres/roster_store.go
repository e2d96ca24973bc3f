package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/koradi/koradi-admin/internal/models"
	"github.com/koradi/koradi-admin/internal/store"
)

// RosterStore implements store.RosterStore using PostgreSQL. All three
// rosters share the roster_entries table, keyed by kind.
type RosterStore struct {
	pool *pgxpool.Pool
}

// NewRosterStore creates a new PostgreSQL-backed roster store.
func NewRosterStore(pool *pgxpool.Pool) *RosterStore {
	return &RosterStore{
		pool: pool,
	}
}

// Add inserts a name. Adding a name that is already present is not an error.
func (s *RosterStore) Add(ctx context.Context, kind models.RosterKind, name string) error {
	if !kind.Valid() {
		return store.ErrUnknownRoster
	}

	query := `
		INSERT INTO roster_entries (kind, name)
		VALUES ($1, $2)
		ON CONFLICT (kind, name) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query, kind, name)
	if err != nil {
		return fmt.Errorf("failed to add roster entry: %w", err)
	}

	log.Debug().
		Str("roster", string(kind)).
		Str("name", name).
		Msg("Added roster entry")

	return nil
}

// List returns the roster sorted by name.
func (s *RosterStore) List(ctx context.Context, kind models.RosterKind) ([]string, error) {
	if !kind.Valid() {
		return nil, store.ErrUnknownRoster
	}

	rows, err := s.pool.Query(ctx, `SELECT name FROM roster_entries WHERE kind = $1 ORDER BY name`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster entries: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster entries: %w", err)
	}

	return names, nil
}

// Remove deletes a name from the roster.
func (s *RosterStore) Remove(ctx context.Context, kind models.RosterKind, name string) error {
	if !kind.Valid() {
		return store.ErrUnknownRoster
	}

	result, err := s.pool.Exec(ctx, `DELETE FROM roster_entries WHERE kind = $1 AND name = $2`, kind, name)
	if err != nil {
		return fmt.Errorf("failed to remove roster entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrRosterEntryNotFound
	}

	log.Debug().
		Str("roster", string(kind)).
		Str("name", name).
		Msg("Removed roster entry")

	return nil
}
