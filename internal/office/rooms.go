package office

import (
	"sort"
	"sync"
)

// RoomStore owns the room catalog and each room's participant list, which
// is the ground truth for occupancy. Principal back-references are
// reconciled by the coordinator on every membership mutation.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRoomStore constructs an empty room store.
func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*Room)}
}

// Add registers a new room.
func (s *RoomStore) Add(room Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; ok {
		return ErrAlreadyExists
	}
	record := room
	record.ParticipantIDs = append([]string(nil), room.ParticipantIDs...)
	s.rooms[room.ID] = &record
	return nil
}

// Get returns the room with the given id.
func (s *RoomStore) Get(id string) (Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.rooms[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	return copyRoom(record), nil
}

// List returns all rooms ordered by name, then id.
func (s *RoomStore) List() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Room, 0, len(s.rooms))
	for _, record := range s.rooms {
		out = append(out, copyRoom(record))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Join appends the principal to the room's participant list. Duplicate
// membership is rejected.
func (s *RoomStore) Join(roomID, principalID string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.rooms[roomID]
	if !ok {
		return Room{}, ErrNotFound
	}
	for _, id := range record.ParticipantIDs {
		if id == principalID {
			return Room{}, ErrAlreadyExists
		}
	}
	record.ParticipantIDs = append(record.ParticipantIDs, principalID)
	return copyRoom(record), nil
}

// Leave removes the principal from the room's participant list. Leaving a
// room the principal is not in is a no-op.
func (s *RoomStore) Leave(roomID, principalID string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.rooms[roomID]
	if !ok {
		return Room{}, ErrNotFound
	}
	for i, id := range record.ParticipantIDs {
		if id == principalID {
			record.ParticipantIDs = append(record.ParticipantIDs[:i], record.ParticipantIDs[i+1:]...)
			break
		}
	}
	return copyRoom(record), nil
}

// Remove deletes the room and returns its final state, occupants included,
// so the caller can reset each evicted principal.
func (s *RoomStore) Remove(id string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.rooms[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	delete(s.rooms, id)
	return copyRoom(record), nil
}

func copyRoom(record *Room) Room {
	out := *record
	out.ParticipantIDs = append([]string(nil), record.ParticipantIDs...)
	return out
}
