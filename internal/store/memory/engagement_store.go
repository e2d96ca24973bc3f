package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/koradi/koradi-admin/internal/models"
	"github.com/koradi/koradi-admin/internal/store"
)

// EngagementStore implements store.EngagementStore using in-memory storage.
// Contents live only as long as the process; durability comes from the
// backup system.
type EngagementStore struct {
	mu sync.RWMutex

	engagements map[uuid.UUID]*models.Engagement
}

// NewEngagementStore creates an empty in-memory engagement store.
func NewEngagementStore() *EngagementStore {
	return &EngagementStore{
		engagements: make(map[uuid.UUID]*models.Engagement),
	}
}

// Create stores a new engagement. When its number slot is occupied, every
// engagement numbered at or above it shifts up by one first.
func (s *EngagementStore) Create(ctx context.Context, e *models.Engagement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clone to avoid external modifications
	clone := e.Clone()
	if clone.ID == uuid.Nil {
		clone.ID = uuid.New()
	}
	if _, exists := s.engagements[clone.ID]; exists {
		return store.ErrEngagementExists
	}

	if clone.Number != nil {
		s.makeRoom(*clone.Number, clone.ID)
	}

	s.engagements[clone.ID] = clone

	// Hand the assigned ID back to the caller.
	e.ID = clone.ID
	return nil
}

// makeRoom opens slot n: when another engagement occupies it, every
// engagement numbered n or above moves up one. The claimant itself never
// counts as an occupant, so keeping a number on update is a no-op. Caller
// holds the write lock.
func (s *EngagementStore) makeRoom(n int, claimant uuid.UUID) {
	occupied := false
	for _, other := range s.engagements {
		if other.ID != claimant && other.Number != nil && *other.Number == n {
			occupied = true
			break
		}
	}
	if !occupied {
		return
	}

	// The claimant's old entry may shift here too; the caller overwrites it
	// right after.
	for _, other := range s.engagements {
		if other.Number != nil && *other.Number >= n {
			*other.Number++
		}
	}
}

// List returns engagements matching the filter, numbered ones first in
// ascending order, then the unnumbered sorted by date.
func (s *EngagementStore) List(ctx context.Context, filter *store.EngagementFilter) ([]*models.Engagement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Engagement, 0, len(s.engagements))
	for _, e := range s.engagements {
		if !filter.Matches(e) {
			continue
		}
		// Clone to avoid external modifications
		result = append(result, e.Clone())
	}

	sortEngagements(result)
	return result, nil
}

func sortEngagements(engagements []*models.Engagement) {
	sort.Slice(engagements, func(i, j int) bool {
		a, b := engagements[i], engagements[j]
		switch {
		case a.Number != nil && b.Number != nil:
			if *a.Number != *b.Number {
				return *a.Number < *b.Number
			}
			return a.Date < b.Date
		case a.Number != nil:
			return true
		case b.Number != nil:
			return false
		default:
			return a.Date < b.Date
		}
	})
}

// Update replaces the stored engagement with the same ID. Claiming an
// occupied number slot shifts the occupants up, just like Create.
func (s *EngagementStore) Update(ctx context.Context, e *models.Engagement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.engagements[e.ID]; !exists {
		return store.ErrEngagementNotFound
	}

	// Clone to avoid external modifications
	clone := e.Clone()
	if clone.Number != nil {
		s.makeRoom(*clone.Number, clone.ID)
	}
	s.engagements[clone.ID] = clone
	return nil
}

// Delete removes an engagement. Deleting a numbered one closes its slot by
// shifting every engagement numbered above it down one.
func (s *EngagementStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, exists := s.engagements[id]
	if !exists {
		return store.ErrEngagementNotFound
	}
	delete(s.engagements, id)

	if target.Number != nil {
		n := *target.Number
		for _, other := range s.engagements {
			if other.Number != nil && *other.Number > n {
				*other.Number--
			}
		}
	}

	return nil
}
