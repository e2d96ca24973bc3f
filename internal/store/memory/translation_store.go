package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/koradi/koradi-admin/internal/models"
	"github.com/koradi/koradi-admin/internal/store"
)

// TranslationStore implements store.TranslationStore using in-memory
// storage.
type TranslationStore struct {
	mu sync.RWMutex

	translations map[int64]*models.Translation
	nextID       int64
}

// NewTranslationStore creates an empty in-memory translation store.
func NewTranslationStore() *TranslationStore {
	return &TranslationStore{
		translations: make(map[int64]*models.Translation),
		nextID:       1,
	}
}

// Create stores a new translation. A zero ID receives the next sequence
// value; deleting translations never frees their IDs for reuse.
func (s *TranslationStore) Create(ctx context.Context, t *models.Translation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clone to avoid external modifications
	clone := t.Clone()
	if clone.ID == 0 {
		clone.ID = s.nextID
	} else if _, exists := s.translations[clone.ID]; exists {
		return store.ErrTranslationExists
	}
	if clone.ID >= s.nextID {
		s.nextID = clone.ID + 1
	}

	s.translations[clone.ID] = clone

	// Hand the assigned ID back to the caller.
	t.ID = clone.ID
	return nil
}

// List returns translations matching the filter, sorted by due date.
func (s *TranslationStore) List(ctx context.Context, filter *store.TranslationFilter) ([]*models.Translation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Translation, 0, len(s.translations))
	for _, t := range s.translations {
		if !filter.Matches(t) {
			continue
		}
		// Clone to avoid external modifications
		result = append(result, t.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DueDate != result[j].DueDate {
			return result[i].DueDate < result[j].DueDate
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Update replaces the stored translation with the same ID.
func (s *TranslationStore) Update(ctx context.Context, t *models.Translation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.translations[t.ID]; !exists {
		return store.ErrTranslationNotFound
	}

	// Clone to avoid external modifications
	s.translations[t.ID] = t.Clone()
	return nil
}

// Delete removes a translation by ID.
func (s *TranslationStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.translations[id]; !exists {
		return store.ErrTranslationNotFound
	}

	delete(s.translations, id)
	return nil
}
