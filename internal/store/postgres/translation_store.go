package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/koradi/koradi-admin/internal/models"
	"github.com/koradi/koradi-admin/internal/store"
)

// TranslationStore implements store.TranslationStore using PostgreSQL.
type TranslationStore struct {
	pool *pgxpool.Pool
}

// NewTranslationStore creates a new PostgreSQL-backed translation store.
// It shares the connection pool with other stores.
func NewTranslationStore(pool *pgxpool.Pool) *TranslationStore {
	return &TranslationStore{
		pool: pool,
	}
}

// Create stores a new translation. A zero ID gets the next sequence value; a
// non-zero ID is kept and the sequence advanced past it, so restored rows
// never collide with future assignments.
func (s *TranslationStore) Create(ctx context.Context, t *models.Translation) error {
	translators := t.Translators
	if translators == nil {
		translators = []string{}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if t.ID == 0 {
		query := `
			INSERT INTO translations (id, name, stage, translators, due_date, file_url, last_updated_by)
			VALUES (nextval('translations_id_seq'), $1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		err = tx.QueryRow(ctx, query,
			t.Name, t.Stage, translators, t.DueDate, t.FileURL, t.LastUpdatedBy,
		).Scan(&t.ID)
	} else {
		query := `
			INSERT INTO translations (id, name, stage, translators, due_date, file_url, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err = tx.Exec(ctx, query,
			t.ID, t.Name, t.Stage, translators, t.DueDate, t.FileURL, t.LastUpdatedBy,
		)
		if err == nil {
			// Jump the sequence past the explicit ID. GREATEST keeps it from
			// ever moving backwards.
			_, err = tx.Exec(ctx, `
				SELECT setval('translations_id_seq',
					GREATEST($1::bigint, (SELECT last_value FROM translations_id_seq)))
			`, t.ID)
		}
	}

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrTranslationExists
		}
		return fmt.Errorf("failed to create translation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit translation: %w", err)
	}

	log.Debug().
		Int64("id", t.ID).
		Msg("Created translation")

	return nil
}

// List returns translations matching the filter, sorted by due date.
func (s *TranslationStore) List(ctx context.Context, filter *store.TranslationFilter) ([]*models.Translation, error) {
	query := `
		SELECT id, name, stage, translators, due_date, file_url, last_updated_by
		FROM translations
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
		if filter.ID != nil {
			add("id = $%d", *filter.ID)
		}
		// Substring match, same as strings.Contains.
		if filter.Name != nil {
			add("strpos(name, $%d) > 0", *filter.Name)
		}
		if filter.Stage != nil && *filter.Stage != models.StageAny {
			add("stage = $%d", *filter.Stage)
		}
		if len(filter.Translators) > 0 {
			add("translators && $%d", filter.Translators)
		}
	}

	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY due_date ASC, id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	defer rows.Close()

	var translations []*models.Translation
	for rows.Next() {
		var t models.Translation
		err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Stage,
			&t.Translators,
			&t.DueDate,
			&t.FileURL,
			&t.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan translation: %w", err)
		}
		translations = append(translations, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating translations: %w", err)
	}

	return translations, nil
}

// Update replaces the stored translation with the same ID.
func (s *TranslationStore) Update(ctx context.Context, t *models.Translation) error {
	translators := t.Translators
	if translators == nil {
		translators = []string{}
	}

	query := `
		UPDATE translations SET
			name = $2,
			stage = $3,
			translators = $4,
			due_date = $5,
			file_url = $6,
			last_updated_by = $7
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		t.ID, t.Name, t.Stage, translators, t.DueDate, t.FileURL, t.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update translation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrTranslationNotFound
	}

	log.Debug().
		Int64("id", t.ID).
		Msg("Updated translation")

	return nil
}

// Delete removes a translation. Its ID is never handed out again.
func (s *TranslationStore) Delete(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM translations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete translation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrTranslationNotFound
	}

	log.Debug().
		Int64("id", id).
		Msg("Deleted translation")

	return nil
}
