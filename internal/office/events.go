package office

import (
	"context"
	"time"
)

// EventType labels the outbound notifications pushed to clients.
type EventType string

const (
	// EventPolicyEviction tells a principal it was forced out by policy.
	EventPolicyEviction EventType = "policy-eviction"
	// EventIncomingCall delivers an unresolved call offer to its target.
	EventIncomingCall EventType = "incoming-call"
	// EventCallRejected tells a caller its offer was declined or lapsed.
	EventCallRejected EventType = "call-rejected"
	// EventCallParticipants announces a call's updated participant list.
	EventCallParticipants EventType = "call-participants"
	// EventRoomMembership announces a room's updated participant list.
	EventRoomMembership EventType = "room-membership"
)

// Event is a notification crossing the core boundary toward UI
// collaborators. RecipientID addresses a single principal; when empty the
// event concerns everyone (room and call membership changes).
type Event struct {
	Type         EventType
	RecipientID  string
	Reason       EvictionReason
	Offer        *Offer
	SessionID    string
	RoomID       string
	Participants []string
	At           time.Time
}

// Notifier consumes events emitted by the coordinator. Implementations
// must not block; delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event Event)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, event Event) {
	if f != nil {
		f(ctx, event)
	}
}
