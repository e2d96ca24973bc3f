package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/koradi/koradi-admin/internal/models"
	"github.com/koradi/koradi-admin/internal/store"
)

// RosterStore implements store.RosterStore using in-memory storage.
type RosterStore struct {
	mu sync.RWMutex

	rosters map[models.RosterKind]map[string]struct{}
}

// NewRosterStore creates in-memory rosters for all three kinds.
func NewRosterStore() *RosterStore {
	s := &RosterStore{
		rosters: make(map[models.RosterKind]map[string]struct{}),
	}
	for _, kind := range models.RosterKinds() {
		s.rosters[kind] = make(map[string]struct{})
	}
	return s
}

// Add inserts a name. Re-adding an existing name is a no-op.
func (s *RosterStore) Add(ctx context.Context, kind models.RosterKind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster, ok := s.rosters[kind]
	if !ok {
		return store.ErrUnknownRoster
	}

	roster[name] = struct{}{}
	return nil
}

// List returns the roster sorted by name.
func (s *RosterStore) List(ctx context.Context, kind models.RosterKind) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roster, ok := s.rosters[kind]
	if !ok {
		return nil, store.ErrUnknownRoster
	}

	names := make([]string, 0, len(roster))
	for name := range roster {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Remove deletes a name from the roster.
func (s *RosterStore) Remove(ctx context.Context, kind models.RosterKind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster, ok := s.rosters[kind]
	if !ok {
		return store.ErrUnknownRoster
	}
	if _, exists := roster[name]; !exists {
		return store.ErrRosterEntryNotFound
	}

	delete(roster, name)
	return nil
}
