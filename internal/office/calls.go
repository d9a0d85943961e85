package office

import (
	"sync"
	"time"
)

// CallManager tracks live call sessions and unresolved incoming-call
// offers. Sessions hold participant ids independent of room membership; a
// session bound to a room carries the room id. At most one unresolved
// offer exists per target; a newer offer supersedes the older one from
// the target's viewpoint.
type CallManager struct {
	mu       sync.Mutex
	sessions map[string]*CallSession
	offers   map[string]*Offer
	idGen    func() string
	now      func() time.Time
}

// NewCallManager constructs an empty call manager.
func NewCallManager(idGen func() string, now func() time.Time) *CallManager {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CallManager{
		sessions: make(map[string]*CallSession),
		offers:   make(map[string]*Offer),
		idGen:    idGen,
		now:      now,
	}
}

// CreateSession starts an active session with the given participants.
func (m *CallManager) CreateSession(initiatorID, roomID string, participantIDs []string) CallSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := &CallSession{
		ID:             m.idGen(),
		InitiatorID:    initiatorID,
		RoomID:         roomID,
		ParticipantIDs: append([]string(nil), participantIDs...),
		State:          CallActive,
		StartedAt:      m.now(),
	}
	m.sessions[record.ID] = record
	return copySession(record)
}

// Session returns the live session with the given id.
func (m *CallManager) Session(id string) (CallSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.sessions[id]
	if !ok {
		return CallSession{}, false
	}
	return copySession(record), true
}

// SessionFor returns the live session containing the principal, if any.
func (m *CallManager) SessionFor(principalID string) (CallSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := m.sessionForLocked(principalID)
	if record == nil {
		return CallSession{}, false
	}
	return copySession(record), true
}

// SessionByRoom returns the live session bound to the room, if any.
func (m *CallManager) SessionByRoom(roomID string) (CallSession, bool) {
	if roomID == "" {
		return CallSession{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.sessions {
		if record.RoomID == roomID {
			return copySession(record), true
		}
	}
	return CallSession{}, false
}

// AddParticipant appends the principal to the session. Adding to an
// unknown session reports ErrNotFound; duplicates are rejected.
func (m *CallManager) AddParticipant(sessionID, principalID string) (CallSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.sessions[sessionID]
	if !ok {
		return CallSession{}, ErrNotFound
	}
	for _, id := range record.ParticipantIDs {
		if id == principalID {
			return CallSession{}, ErrAlreadyExists
		}
	}
	record.ParticipantIDs = append(record.ParticipantIDs, principalID)
	return copySession(record), nil
}

// RemoveParticipant takes the principal out of whichever session contains
// it. A session emptied by the removal transitions to Ended and is
// dropped; the returned copy reflects the final state. The bool reports
// whether the principal was in a session at all.
func (m *CallManager) RemoveParticipant(principalID string) (CallSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := m.sessionForLocked(principalID)
	if record == nil {
		return CallSession{}, false
	}
	for i, id := range record.ParticipantIDs {
		if id == principalID {
			record.ParticipantIDs = append(record.ParticipantIDs[:i], record.ParticipantIDs[i+1:]...)
			break
		}
	}
	if len(record.ParticipantIDs) == 0 {
		record.State = CallEnded
		delete(m.sessions, record.ID)
	}
	return copySession(record), true
}

// RemoveFromSession takes the principal out of one specific session,
// leaving any other session untouched. Used by room deletion, which must
// not terminate calls not bound to the room.
func (m *CallManager) RemoveFromSession(sessionID, principalID string) (CallSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.sessions[sessionID]
	if !ok {
		return CallSession{}, ErrNotFound
	}
	for i, id := range record.ParticipantIDs {
		if id == principalID {
			record.ParticipantIDs = append(record.ParticipantIDs[:i], record.ParticipantIDs[i+1:]...)
			break
		}
	}
	if len(record.ParticipantIDs) == 0 {
		record.State = CallEnded
		delete(m.sessions, record.ID)
	}
	return copySession(record), nil
}

// PutOffer installs an unresolved offer for its target, superseding any
// pending one. The displaced offer, when there was one, is returned so
// its caller can be told the ring ended.
func (m *CallManager) PutOffer(offer Offer) (Offer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var displaced Offer
	previous, had := m.offers[offer.TargetID]
	if had {
		displaced = *previous
	}
	record := offer
	m.offers[offer.TargetID] = &record
	return displaced, had
}

// PendingOffer returns the unresolved offer for the target without
// consuming it.
func (m *CallManager) PendingOffer(targetID string) (Offer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.offers[targetID]
	if !ok {
		return Offer{}, false
	}
	return *record, true
}

// TakeOffer resolves the target's pending offer by removing it. An offer
// is resolved exactly once; a second take reports no offer.
func (m *CallManager) TakeOffer(targetID string) (Offer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.offers[targetID]
	if !ok {
		return Offer{}, false
	}
	delete(m.offers, targetID)
	return *record, true
}

// DropOffersInvolving discards unresolved offers the principal is party
// to, as caller or target, and returns them. Used when the principal logs
// out or is evicted.
func (m *CallManager) DropOffersInvolving(principalID string) []Offer {
	m.mu.Lock()
	defer m.mu.Unlock()

	var dropped []Offer
	for target, record := range m.offers {
		if record.TargetID == principalID || record.CallerID == principalID {
			dropped = append(dropped, *record)
			delete(m.offers, target)
		}
	}
	return dropped
}

// ExpireOffers discards offers older than ttl and returns them. A zero
// ttl disables expiry.
func (m *CallManager) ExpireOffers(now time.Time, ttl time.Duration) []Offer {
	if ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []Offer
	for target, record := range m.offers {
		if now.Sub(record.CreatedAt) >= ttl {
			expired = append(expired, *record)
			delete(m.offers, target)
		}
	}
	return expired
}

func (m *CallManager) sessionForLocked(principalID string) *CallSession {
	for _, record := range m.sessions {
		for _, id := range record.ParticipantIDs {
			if id == principalID {
				return record
			}
		}
	}
	return nil
}

func copySession(record *CallSession) CallSession {
	out := *record
	out.ParticipantIDs = append([]string(nil), record.ParticipantIDs...)
	return out
}
