package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/koradi/koradi-admin/internal/models"
	"github.com/koradi/koradi-admin/internal/store"
)

// slotLockID is the advisory lock that serializes number slot shifts.
// Arbitrary but stable; every transaction that renumbers takes it first.
const slotLockID = 1

// EngagementStore implements store.EngagementStore using PostgreSQL.
type EngagementStore struct {
	pool *pgxpool.Pool
}

// NewEngagementStore creates a new PostgreSQL-backed engagement store.
// It shares the connection pool with other stores.
func NewEngagementStore(pool *pgxpool.Pool) *EngagementStore {
	return &EngagementStore{
		pool: pool,
	}
}

// Create stores a new engagement. When its number slot is occupied, every
// engagement numbered at or above it shifts up by one first.
func (s *EngagementStore) Create(ctx context.Context, e *models.Engagement) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if e.Number != nil {
		if err := makeRoom(ctx, tx, *e.Number, e.ID); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO engagements (
			id, instructor, host, date, language, title,
			part, num_parts, status, host_status, flyer_status,
			notes, number, activity_type, last_updated_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`

	_, err = tx.Exec(ctx, query,
		e.ID,
		e.Instructor,
		e.Host,
		e.Date,
		e.Language,
		e.Title,
		e.Part,
		e.NumParts,
		e.Status,
		e.HostStatus,
		e.FlyerStatus,
		e.Notes,
		e.Number,
		e.ActivityType,
		e.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrEngagementExists
		}
		return fmt.Errorf("failed to create engagement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit engagement: %w", err)
	}

	log.Debug().
		Str("id", e.ID.String()).
		Msg("Created engagement")

	return nil
}

// makeRoom opens the requested slot by shifting every engagement numbered at
// or above it up one. The claimant itself never counts as an occupant, so an
// update that keeps its number is a no-op. The advisory lock keeps
// concurrent shifts serial; the deferred unique constraint lets rows pass
// through each other until commit.
func makeRoom(ctx context.Context, tx pgx.Tx, number int, claimant uuid.UUID) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, slotLockID); err != nil {
		return fmt.Errorf("failed to lock slot numbering: %w", err)
	}

	var occupied bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM engagements WHERE number = $1 AND id <> $2
		)
	`, number, claimant).Scan(&occupied)
	if err != nil {
		return fmt.Errorf("failed to check slot: %w", err)
	}
	if !occupied {
		return nil
	}

	_, err = tx.Exec(ctx, `UPDATE engagements SET number = number + 1 WHERE number >= $1`, number)
	if err != nil {
		return fmt.Errorf("failed to shift slots: %w", err)
	}
	return nil
}

// List returns engagements matching the filter, numbered ones first in
// ascending order, then the unnumbered sorted by date.
func (s *EngagementStore) List(ctx context.Context, filter *store.EngagementFilter) ([]*models.Engagement, error) {
	query := `
		SELECT
			id, instructor, host, date, language, title,
			part, num_parts, status, host_status, flyer_status,
			notes, number, activity_type, last_updated_by
		FROM engagements
	`

	var (
		clauses []string
		args    []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter != nil {
		if filter.Language != nil && *filter.Language != models.LanguageAny {
			add("language = $%d", *filter.Language)
		}
		// Fields that are optional on the engagement only match rows that
		// carry a value, which a plain equality on a NULL column gives us.
		if filter.Number != nil {
			add("number = $%d", *filter.Number)
		}
		if filter.ActivityType != nil {
			add("activity_type = $%d", *filter.ActivityType)
		}
		if filter.Instructor != nil {
			add("instructor = $%d", *filter.Instructor)
		}
		if filter.Host != nil {
			add("host = $%d", *filter.Host)
		}
		if filter.Date != nil {
			add("date = $%d", *filter.Date)
		}
		if filter.Status != nil {
			add("status = $%d", *filter.Status)
		}
		if filter.HostStatus != nil {
			add("host_status = $%d", *filter.HostStatus)
		}
		if filter.FlyerStatus != nil {
			add("flyer_status = $%d", *filter.FlyerStatus)
		}
	}

	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY number ASC NULLS LAST, date ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list engagements: %w", err)
	}
	defer rows.Close()

	var engagements []*models.Engagement
	for rows.Next() {
		e, err := scanEngagement(rows)
		if err != nil {
			return nil, err
		}
		engagements = append(engagements, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating engagements: %w", err)
	}

	return engagements, nil
}

func scanEngagement(row pgx.Row) (*models.Engagement, error) {
	var e models.Engagement
	err := row.Scan(
		&e.ID,
		&e.Instructor,
		&e.Host,
		&e.Date,
		&e.Language,
		&e.Title,
		&e.Part,
		&e.NumParts,
		&e.Status,
		&e.HostStatus,
		&e.FlyerStatus,
		&e.Notes,
		&e.Number,
		&e.ActivityType,
		&e.LastUpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan engagement: %w", err)
	}
	return &e, nil
}

// Update replaces the stored engagement with the same ID. Claiming an
// occupied number slot shifts the occupants up, just like Create.
func (s *EngagementStore) Update(ctx context.Context, e *models.Engagement) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if e.Number != nil {
		if err := makeRoom(ctx, tx, *e.Number, e.ID); err != nil {
			return err
		}
	}

	query := `
		UPDATE engagements SET
			instructor = $2,
			host = $3,
			date = $4,
			language = $5,
			title = $6,
			part = $7,
			num_parts = $8,
			status = $9,
			host_status = $10,
			flyer_status = $11,
			notes = $12,
			number = $13,
			activity_type = $14,
			last_updated_by = $15
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, query,
		e.ID,
		e.Instructor,
		e.Host,
		e.Date,
		e.Language,
		e.Title,
		e.Part,
		e.NumParts,
		e.Status,
		e.HostStatus,
		e.FlyerStatus,
		e.Notes,
		e.Number,
		e.ActivityType,
		e.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update engagement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrEngagementNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit engagement update: %w", err)
	}

	log.Debug().
		Str("id", e.ID.String()).
		Msg("Updated engagement")

	return nil
}

// Delete removes an engagement. Deleting a numbered one closes its slot by
// shifting every engagement numbered above it down one.
func (s *EngagementStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, slotLockID); err != nil {
		return fmt.Errorf("failed to lock slot numbering: %w", err)
	}

	var number *int
	err = tx.QueryRow(ctx, `DELETE FROM engagements WHERE id = $1 RETURNING number`, id).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrEngagementNotFound
		}
		return fmt.Errorf("failed to delete engagement: %w", err)
	}

	if number != nil {
		_, err = tx.Exec(ctx, `UPDATE engagements SET number = number - 1 WHERE number > $1`, *number)
		if err != nil {
			return fmt.Errorf("failed to close slot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit engagement delete: %w", err)
	}

	log.Debug().
		Str("id", id.String()).
		Msg("Deleted engagement")

	return nil
}
