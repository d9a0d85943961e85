// Package testfixtures assembles deterministic collaborators for office
// tests: a controllable clock, sequential id generation, an event
// recorder, and a fully wired coordinator over a small seeded directory.
package testfixtures

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/example/virtual-office/internal/office"
)

// EmployeePassword is the password every seeded directory account uses.
const EmployeePassword = "open-sesame"

// Seeded directory account ids.
const (
	MasterID = "emp-master"
	AdminID  = "emp-admin"
	AliceID  = "emp-alice"
	BobID    = "emp-bob"
)

// plainHashPrefix marks the stub credential format used in tests so the
// argon2 work factor stays out of the test suite.
const plainHashPrefix = "plain:"

// PlainVerifier compares stub hashes of the form "plain:<password>".
func PlainVerifier(hashedPassword, password string) error {
	if strings.TrimPrefix(hashedPassword, plainHashPrefix) == password &&
		strings.HasPrefix(hashedPassword, plainHashPrefix) {
		return nil
	}
	return office.ErrInvalidCredentials
}

// DirectoryAccounts returns the standard seeded accounts.
func DirectoryAccounts() []office.EmployeeAccount {
	hash := plainHashPrefix + EmployeePassword
	return []office.EmployeeAccount{
		{ID: MasterID, Email: "master@example.com", DisplayName: "Morgan Master", Role: office.RoleMaster, PasswordHash: hash},
		{ID: AdminID, Email: "admin@example.com", DisplayName: "Avery Admin", Role: office.RoleAdmin, PasswordHash: hash},
		{ID: AliceID, Email: "alice@example.com", DisplayName: "Alice", Role: office.RoleUser, PasswordHash: hash},
		{ID: BobID, Email: "bob@example.com", DisplayName: "Bob", Role: office.RoleUser, PasswordHash: hash},
	}
}

// EventRecorder is a thread-safe office.Notifier that retains every event
// and exposes a channel for waiting on asynchronous ones.
type EventRecorder struct {
	mu     sync.Mutex
	events []office.Event
	ch     chan office.Event
}

// NewEventRecorder constructs an empty recorder.
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{ch: make(chan office.Event, 128)}
}

// Notify implements office.Notifier. It never blocks; the channel drops
// when full.
func (r *EventRecorder) Notify(_ context.Context, event office.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()

	select {
	case r.ch <- event:
	default:
	}
}

// Events returns a copy of everything recorded so far.
func (r *EventRecorder) Events() []office.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]office.Event(nil), r.events...)
}

// ByType filters recorded events by type.
func (r *EventRecorder) ByType(eventType office.EventType) []office.Event {
	var out []office.Event
	for _, event := range r.Events() {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// WaitFor blocks until an event of the given type arrives or the timeout
// elapses.
func (r *EventRecorder) WaitFor(eventType office.EventType, timeout time.Duration) (office.Event, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case event := <-r.ch:
			if event.Type == eventType {
				return event, true
			}
		case <-deadline:
			return office.Event{}, false
		}
	}
}

// Office bundles a coordinator with its deterministic collaborators.
type Office struct {
	Coordinator *office.Coordinator
	Clock       *Clock
	IDs         *IDGenerator
	Events      *EventRecorder
	Invites     *office.InviteRegistry
	Presence    *office.PresenceStore
	Rooms       *office.RoomStore
	Calls       *office.CallManager
	Directory   *office.EmployeeDirectory
}

// OfficeOption adjusts the fixture before the coordinator is built.
type OfficeOption func(*office.CoordinatorConfig)

// WithPolicy sets the initial working-hours window.
func WithPolicy(policy office.WorkingHours) OfficeOption {
	return func(cfg *office.CoordinatorConfig) { cfg.Policy = policy }
}

// WithOfferTTL enables stale-offer expiry.
func WithOfferTTL(ttl time.Duration) OfficeOption {
	return func(cfg *office.CoordinatorConfig) { cfg.OfferTTL = ttl }
}

// WithResponder installs an automatic offer responder.
func WithResponder(responder *office.OfferResponder) OfficeOption {
	return func(cfg *office.CoordinatorConfig) { cfg.Responder = responder }
}

// NewOffice wires a coordinator over the seeded directory with a
// deterministic clock, sequential ids, and an event recorder.
func NewOffice(t interface{ Helper() }, opts ...OfficeOption) *Office {
	if t != nil {
		t.Helper()
	}

	clock := NewClock(time.Time{})
	ids := NewIDGenerator("id")
	events := NewEventRecorder()

	directory, err := office.NewEmployeeDirectory(DirectoryAccounts())
	if err != nil {
		panic(err)
	}

	invites := office.NewInviteRegistry(ids.Next, nil, clock.Now, nil)
	presence := office.NewPresenceStore()
	rooms := office.NewRoomStore()
	calls := office.NewCallManager(ids.Next, clock.Now)

	cfg := office.CoordinatorConfig{
		Directory:      directory,
		Invites:        invites,
		Presence:       presence,
		Rooms:          rooms,
		Calls:          calls,
		Notifier:       events,
		VerifyPassword: PlainVerifier,
		IDGenerator:    ids.Next,
		TokenGenerator: NewIDGenerator("token").Next,
		Now:            clock.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Office{
		Coordinator: office.NewCoordinator(cfg),
		Clock:       clock,
		IDs:         ids,
		Events:      events,
		Invites:     invites,
		Presence:    presence,
		Rooms:       rooms,
		Calls:       calls,
		Directory:   directory,
	}
}
