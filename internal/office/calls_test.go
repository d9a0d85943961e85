package office

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestCallManager() *CallManager {
	counter := 0
	return NewCallManager(func() string {
		counter++
		return fmt.Sprintf("call-%d", counter)
	}, fixedNow)
}

func TestCallManager_Sessions(t *testing.T) {
	t.Parallel()

	t.Run("creates and looks up sessions", func(t *testing.T) {
		t.Parallel()

		manager := newTestCallManager()
		session := manager.CreateSession("alice", "room-1", []string{"alice", "bob"})
		if session.State != CallActive {
			t.Fatalf("expected active session, got %q", session.State)
		}

		byID, ok := manager.Session(session.ID)
		if !ok || byID.InitiatorID != "alice" {
			t.Fatalf("expected session lookup by id, got %#v ok=%v", byID, ok)
		}
		byMember, ok := manager.SessionFor("bob")
		if !ok || byMember.ID != session.ID {
			t.Fatalf("expected session lookup by member, got %#v ok=%v", byMember, ok)
		}
		byRoom, ok := manager.SessionByRoom("room-1")
		if !ok || byRoom.ID != session.ID {
			t.Fatalf("expected session lookup by room, got %#v ok=%v", byRoom, ok)
		}
		if _, ok := manager.SessionByRoom(""); ok {
			t.Fatal("expected empty room id to match nothing")
		}
	})

	t.Run("adds participants uniquely", func(t *testing.T) {
		t.Parallel()

		manager := newTestCallManager()
		session := manager.CreateSession("alice", "", []string{"alice"})

		updated, err := manager.AddParticipant(session.ID, "bob")
		if err != nil {
			t.Fatalf("AddParticipant failed: %v", err)
		}
		if len(updated.ParticipantIDs) != 2 {
			t.Fatalf("expected two participants, got %v", updated.ParticipantIDs)
		}

		if _, err := manager.AddParticipant(session.ID, "bob"); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists for duplicate, got %v", err)
		}
		if _, err := manager.AddParticipant("missing", "carol"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown session, got %v", err)
		}
	})

	t.Run("ends the session when the last participant leaves", func(t *testing.T) {
		t.Parallel()

		manager := newTestCallManager()
		session := manager.CreateSession("alice", "", []string{"alice", "bob"})

		final, ok := manager.RemoveParticipant("alice")
		if !ok || final.State != CallActive {
			t.Fatalf("expected session to survive first removal, got %#v ok=%v", final, ok)
		}

		final, ok = manager.RemoveParticipant("bob")
		if !ok || final.State != CallEnded {
			t.Fatalf("expected ended session, got %#v ok=%v", final, ok)
		}
		if _, ok := manager.Session(session.ID); ok {
			t.Fatal("expected ended session to be dropped")
		}
		if _, ok := manager.RemoveParticipant("alice"); ok {
			t.Fatal("expected removal of absent principal to report no session")
		}
	})

	t.Run("removes from one session without touching others", func(t *testing.T) {
		t.Parallel()

		manager := newTestCallManager()
		roomCall := manager.CreateSession("alice", "room-1", []string{"alice", "bob"})
		directCall := manager.CreateSession("carol", "", []string{"carol", "dave"})

		if _, err := manager.RemoveFromSession(roomCall.ID, "alice"); err != nil {
			t.Fatalf("RemoveFromSession failed: %v", err)
		}
		if untouched, ok := manager.Session(directCall.ID); !ok || len(untouched.ParticipantIDs) != 2 {
			t.Fatalf("expected unrelated session untouched, got %#v ok=%v", untouched, ok)
		}
	})
}

func TestCallManager_Offers(t *testing.T) {
	t.Parallel()

	t.Run("a newer offer supersedes the pending one", func(t *testing.T) {
		t.Parallel()

		manager := newTestCallManager()
		if _, had := manager.PutOffer(Offer{ID: "offer-1", CallerID: "alice", TargetID: "carol"}); had {
			t.Fatal("expected no displaced offer on the first put")
		}
		displaced, had := manager.PutOffer(Offer{ID: "offer-2", CallerID: "bob", TargetID: "carol"})
		if !had || displaced.ID != "offer-1" {
			t.Fatalf("expected the first offer to be displaced, got %#v had=%v", displaced, had)
		}

		pending, ok := manager.PendingOffer("carol")
		if !ok || pending.ID != "offer-2" {
			t.Fatalf("expected the newer offer to win, got %#v ok=%v", pending, ok)
		}
	})

	t.Run("an offer resolves exactly once", func(t *testing.T) {
		t.Parallel()

		manager := newTestCallManager()
		manager.PutOffer(Offer{ID: "offer-1", CallerID: "alice", TargetID: "bob"})

		taken, ok := manager.TakeOffer("bob")
		if !ok || taken.ID != "offer-1" {
			t.Fatalf("expected first take to win, got %#v ok=%v", taken, ok)
		}
		if _, ok := manager.TakeOffer("bob"); ok {
			t.Fatal("expected second take to find nothing")
		}
	})

	t.Run("drops offers the departing principal is party to", func(t *testing.T) {
		t.Parallel()

		manager := newTestCallManager()
		manager.PutOffer(Offer{ID: "offer-1", CallerID: "alice", TargetID: "bob"})
		manager.PutOffer(Offer{ID: "offer-2", CallerID: "bob", TargetID: "carol"})
		manager.PutOffer(Offer{ID: "offer-3", CallerID: "dave", TargetID: "erin"})

		dropped := manager.DropOffersInvolving("bob")
		if len(dropped) != 2 {
			t.Fatalf("expected both of bob's offers dropped, got %#v", dropped)
		}
		if _, ok := manager.PendingOffer("erin"); !ok {
			t.Fatal("expected unrelated offer to survive")
		}
	})

	t.Run("expires offers older than the ttl", func(t *testing.T) {
		t.Parallel()

		now := fixedNow()
		manager := newTestCallManager()
		manager.PutOffer(Offer{ID: "offer-1", CallerID: "alice", TargetID: "bob", CreatedAt: now.Add(-time.Minute)})
		manager.PutOffer(Offer{ID: "offer-2", CallerID: "alice", TargetID: "carol", CreatedAt: now})

		expired := manager.ExpireOffers(now, 30*time.Second)
		if len(expired) != 1 || expired[0].ID != "offer-1" {
			t.Fatalf("expected only the stale offer to expire, got %#v", expired)
		}
		if _, ok := manager.PendingOffer("carol"); !ok {
			t.Fatal("expected fresh offer to survive")
		}

		if expired := manager.ExpireOffers(now.Add(time.Hour), 0); expired != nil {
			t.Fatalf("expected zero ttl to disable expiry, got %#v", expired)
		}
	})
}
