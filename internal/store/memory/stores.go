// Package memory holds the in-memory store implementations, the default
// backend. They follow the original deployment model: everything lives in
// process memory and the periodic backup provides durability.
package memory

import (
	"github.com/koradi/koradi-admin/internal/store"
)

// NewStores bundles fresh in-memory stores for all three collections.
func NewStores() *store.Stores {
	return &store.Stores{
		Engagements:  NewEngagementStore(),
		Translations: NewTranslationStore(),
		Rosters:      NewRosterStore(),
	}
}
