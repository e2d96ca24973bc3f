// Package postgres holds the PostgreSQL store implementations. All stores
// share one pgx connection pool; the schema ships embedded and is applied by
// RunMigrations.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koradi/koradi-admin/internal/store"
)

// NewStores bundles PostgreSQL stores for all three collections on one
// shared pool.
func NewStores(pool *pgxpool.Pool) *store.Stores {
	return &store.Stores{
		Engagements:  NewEngagementStore(pool),
		Translations: NewTranslationStore(pool),
		Rosters:      NewRosterStore(pool),
	}
}
