package office

import (
	"sort"
	"sync"
	"time"
)

// PresenceStore is the authoritative map of principals currently known to
// the office. It exclusively owns Principal records; callers always
// receive copies.
type PresenceStore struct {
	mu         sync.RWMutex
	principals map[string]*Principal
}

// NewPresenceStore constructs an empty presence store.
func NewPresenceStore() *PresenceStore {
	return &PresenceStore{principals: make(map[string]*Principal)}
}

// Add registers a new principal. Registering an id twice is an error.
func (s *PresenceStore) Add(p Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.principals[p.ID]; ok {
		return ErrAlreadyExists
	}
	record := p
	s.principals[p.ID] = &record
	return nil
}

// Get returns the principal with the given id.
func (s *PresenceStore) Get(id string) (Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.principals[id]
	if !ok {
		return Principal{}, ErrNotFound
	}
	return *record, nil
}

// List returns all principals ordered by login time, then id.
func (s *PresenceStore) List() []Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Principal, 0, len(s.principals))
	for _, record := range s.principals {
		out = append(out, *record)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LoggedInAt.Equal(out[j].LoggedInAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].LoggedInAt.Before(out[j].LoggedInAt)
	})
	return out
}

// SetStatus updates a principal's presence status and message.
func (s *PresenceStore) SetStatus(id string, status Status, message string, now time.Time) (Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.principals[id]
	if !ok {
		return Principal{}, ErrNotFound
	}
	record.Status = status
	record.StatusMessage = message
	record.UpdatedAt = now
	return *record, nil
}

// SetRoom reconciles a principal's room back-reference. An empty roomID
// clears it.
func (s *PresenceStore) SetRoom(id, roomID string, now time.Time) (Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.principals[id]
	if !ok {
		return Principal{}, ErrNotFound
	}
	record.RoomID = roomID
	record.UpdatedAt = now
	return *record, nil
}

// Remove deletes the principal record entirely. Employees leaving the
// office are marked offline instead; removal is for visitors.
func (s *PresenceStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.principals[id]; !ok {
		return ErrNotFound
	}
	delete(s.principals, id)
	return nil
}
