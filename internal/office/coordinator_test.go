package office_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/virtual-office/internal/office"
	"github.com/example/virtual-office/internal/testfixtures"
)

func loginEmployee(t *testing.T, o *testfixtures.Office, email string) office.LoginResult {
	t.Helper()

	result, err := o.Coordinator.Login(context.Background(), office.LoginParams{
		Mode:     office.LoginEmployee,
		Email:    email,
		Password: testfixtures.EmployeePassword,
	})
	if err != nil {
		t.Fatalf("login for %s failed: %v", email, err)
	}
	return result
}

func adminActor() office.Principal {
	return office.Principal{ID: testfixtures.AdminID, Role: office.RoleAdmin}
}

func loginVisitor(t *testing.T, o *testfixtures.Office, displayName string) office.LoginResult {
	t.Helper()

	invite, err := o.Coordinator.CreateInvite(context.Background(), adminActor(), time.Hour)
	if err != nil {
		t.Fatalf("invite creation failed: %v", err)
	}
	result, err := o.Coordinator.Login(context.Background(), office.LoginParams{
		Mode:        office.LoginVisitor,
		InviteCode:  invite.Code,
		DisplayName: displayName,
	})
	if err != nil {
		t.Fatalf("visitor login failed: %v", err)
	}
	return result
}

func addRoom(t *testing.T, o *testfixtures.Office, name string, kind office.RoomKind) office.Room {
	t.Helper()

	room, err := o.Coordinator.CreateRoom(context.Background(), adminActor(), office.RoomInput{
		Name: name, Kind: kind, Capacity: 8,
	})
	if err != nil {
		t.Fatalf("room creation failed: %v", err)
	}
	return room
}

func sameMembers(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]bool, len(got))
	for _, id := range got {
		seen[id] = true
	}
	for _, id := range want {
		if !seen[id] {
			return false
		}
	}
	return true
}

func TestCoordinator_Login(t *testing.T) {
	t.Parallel()

	t.Run("admits an employee and issues a token", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		result := loginEmployee(t, o, "alice@example.com")

		if result.Principal.ID != testfixtures.AliceID {
			t.Fatalf("expected alice, got %q", result.Principal.ID)
		}
		if result.Principal.Status != office.StatusOnline {
			t.Fatalf("expected online status, got %q", result.Principal.Status)
		}
		if result.Token == "" {
			t.Fatal("expected a session token")
		}

		validated, err := o.Coordinator.ValidateToken(context.Background(), result.Token)
		if err != nil {
			t.Fatalf("ValidateToken failed: %v", err)
		}
		if validated.ID != testfixtures.AliceID {
			t.Fatalf("token resolved to %q", validated.ID)
		}
	})

	t.Run("rejects bad employee credentials", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		_, err := o.Coordinator.Login(context.Background(), office.LoginParams{
			Mode:     office.LoginEmployee,
			Email:    "alice@example.com",
			Password: "wrong",
		})
		if !errors.Is(err, office.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("does not duplicate a re-logging-in employee", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		loginEmployee(t, o, "alice@example.com")
		loginEmployee(t, o, "alice@example.com")

		count := 0
		for _, p := range o.Coordinator.ListPresence(context.Background()) {
			if p.ID == testfixtures.AliceID {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("expected one presence record, got %d", count)
		}
	})

	t.Run("denies a regular employee outside working hours", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t, testfixtures.WithPolicy(office.WorkingHours{Enabled: true, Start: 9 * 60, End: 18 * 60}))
		o.Clock.Set(time.Date(2026, time.March, 3, 19, 0, 0, 0, time.UTC))

		_, err := o.Coordinator.Login(context.Background(), office.LoginParams{
			Mode:     office.LoginEmployee,
			Email:    "alice@example.com",
			Password: testfixtures.EmployeePassword,
		})
		if !errors.Is(err, office.ErrOutsideWorkingHours) {
			t.Fatalf("expected ErrOutsideWorkingHours, got %v", err)
		}

		// Exempt roles still get in.
		loginEmployee(t, o, "master@example.com")
	})

	t.Run("admits a visitor through an invite code", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		result := loginVisitor(t, o, "Guest")

		if result.Principal.Role != office.RoleVisitor {
			t.Fatalf("expected visitor role, got %q", result.Principal.Role)
		}
		if result.Principal.InviteID == "" {
			t.Fatal("expected the invite binding to be recorded")
		}
	})

	t.Run("requires a visitor display name", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		_, err := o.Coordinator.Login(context.Background(), office.LoginParams{
			Mode:       office.LoginVisitor,
			InviteCode: "ABC123",
		})
		var vErr *office.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("a visitor denied by working hours keeps the code", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t, testfixtures.WithPolicy(office.WorkingHours{Enabled: true, Start: 9 * 60, End: 18 * 60}))
		invite, err := o.Coordinator.CreateInvite(context.Background(), adminActor(), 24*time.Hour)
		if err != nil {
			t.Fatalf("invite creation failed: %v", err)
		}

		o.Clock.Set(time.Date(2026, time.March, 3, 19, 0, 0, 0, time.UTC))
		_, err = o.Coordinator.Login(context.Background(), office.LoginParams{
			Mode:        office.LoginVisitor,
			InviteCode:  invite.Code,
			DisplayName: "Guest",
		})
		if !errors.Is(err, office.ErrOutsideWorkingHours) {
			t.Fatalf("expected ErrOutsideWorkingHours, got %v", err)
		}

		o.Clock.Set(time.Date(2026, time.March, 4, 9, 30, 0, 0, time.UTC))
		if _, err := o.Coordinator.Login(context.Background(), office.LoginParams{
			Mode:        office.LoginVisitor,
			InviteCode:  invite.Code,
			DisplayName: "Guest",
		}); err != nil {
			t.Fatalf("expected unburned code to work the next morning: %v", err)
		}
	})

	t.Run("rejects an unknown login mode", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		_, err := o.Coordinator.Login(context.Background(), office.LoginParams{Mode: "ldap"})
		var vErr *office.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestCoordinator_Logout(t *testing.T) {
	t.Parallel()

	t.Run("marks an employee offline and revokes the token", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		result := loginEmployee(t, o, "alice@example.com")
		room := addRoom(t, o, "Lobby", office.RoomFixed)
		if _, err := o.Coordinator.EnterRoom(context.Background(), result.Principal.ID, room.ID); err != nil {
			t.Fatalf("EnterRoom failed: %v", err)
		}

		if err := o.Coordinator.Logout(context.Background(), result.Principal.ID); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}

		stored, err := o.Presence.Get(testfixtures.AliceID)
		if err != nil {
			t.Fatalf("expected the employee record to remain: %v", err)
		}
		if stored.Status != office.StatusOffline || stored.RoomID != "" {
			t.Fatalf("expected offline roomless record, got %#v", stored)
		}
		if _, err := o.Coordinator.ValidateToken(context.Background(), result.Token); !errors.Is(err, office.ErrUnauthorized) {
			t.Fatalf("expected revoked token, got %v", err)
		}

		refreshed, err := o.Rooms.Get(room.ID)
		if err != nil {
			t.Fatalf("room lookup failed: %v", err)
		}
		if len(refreshed.ParticipantIDs) != 0 {
			t.Fatalf("expected the room to be vacated, got %#v", refreshed.ParticipantIDs)
		}
	})

	t.Run("removes a visitor and retires the invite", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		result := loginVisitor(t, o, "Guest")

		if err := o.Coordinator.Logout(context.Background(), result.Principal.ID); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}

		if _, err := o.Presence.Get(result.Principal.ID); !errors.Is(err, office.ErrNotFound) {
			t.Fatalf("expected visitor record removed, got %v", err)
		}
		invite, ok := o.Invites.Get(result.Principal.InviteID)
		if !ok {
			t.Fatal("expected the invite to remain for audit")
		}
		if invite.Redeemable(o.Clock.Now()) {
			t.Fatal("expected the retired invite to be unusable")
		}
	})

	t.Run("fails for an unknown principal", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		if err := o.Coordinator.Logout(context.Background(), "ghost"); !errors.Is(err, office.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCoordinator_UpdateStatus(t *testing.T) {
	t.Parallel()

	o := testfixtures.NewOffice(t)
	result := loginEmployee(t, o, "alice@example.com")

	updated, err := o.Coordinator.UpdateStatus(context.Background(), result.Principal.ID, office.StatusAway, " back at 3 ")
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if updated.Status != office.StatusAway || updated.StatusMessage != "back at 3" {
		t.Fatalf("unexpected update: %#v", updated)
	}

	_, err = o.Coordinator.UpdateStatus(context.Background(), result.Principal.ID, "sleeping", "")
	var vErr *office.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestCoordinator_EnterRoom(t *testing.T) {
	t.Parallel()

	t.Run("seats the principal and joins the room call", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		room := addRoom(t, o, "Lobby", office.RoomFixed)

		entered, err := o.Coordinator.EnterRoom(context.Background(), alice.Principal.ID, room.ID)
		if err != nil {
			t.Fatalf("EnterRoom failed: %v", err)
		}
		if !sameMembers(entered.ParticipantIDs, alice.Principal.ID) {
			t.Fatalf("unexpected occupants: %#v", entered.ParticipantIDs)
		}

		stored, err := o.Presence.Get(alice.Principal.ID)
		if err != nil {
			t.Fatalf("presence lookup failed: %v", err)
		}
		if stored.RoomID != room.ID || stored.Status != office.StatusInMeeting {
			t.Fatalf("expected in-meeting back-reference, got %#v", stored)
		}

		session, ok := o.Calls.SessionByRoom(room.ID)
		if !ok || !sameMembers(session.ParticipantIDs, alice.Principal.ID) {
			t.Fatalf("expected a room-bound session, got %#v ok=%v", session, ok)
		}
	})

	t.Run("rejects re-entering the current room", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		room := addRoom(t, o, "Lobby", office.RoomFixed)

		if _, err := o.Coordinator.EnterRoom(context.Background(), alice.Principal.ID, room.ID); err != nil {
			t.Fatalf("EnterRoom failed: %v", err)
		}
		if _, err := o.Coordinator.EnterRoom(context.Background(), alice.Principal.ID, room.ID); !errors.Is(err, office.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("locks an empty private room", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		room := addRoom(t, o, "War Room", office.RoomPrivate)

		if _, err := o.Coordinator.EnterRoom(context.Background(), alice.Principal.ID, room.ID); !errors.Is(err, office.ErrRoomLocked) {
			t.Fatalf("expected ErrRoomLocked, got %v", err)
		}
	})

	t.Run("switching rooms leaves the previous one", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		lobby := addRoom(t, o, "Lobby", office.RoomFixed)
		workshop := addRoom(t, o, "Workshop", office.RoomFixed)

		if _, err := o.Coordinator.EnterRoom(context.Background(), alice.Principal.ID, lobby.ID); err != nil {
			t.Fatalf("EnterRoom lobby failed: %v", err)
		}
		if _, err := o.Coordinator.EnterRoom(context.Background(), alice.Principal.ID, workshop.ID); err != nil {
			t.Fatalf("EnterRoom workshop failed: %v", err)
		}

		previous, err := o.Rooms.Get(lobby.ID)
		if err != nil {
			t.Fatalf("room lookup failed: %v", err)
		}
		if len(previous.ParticipantIDs) != 0 {
			t.Fatalf("expected the lobby vacated, got %#v", previous.ParticipantIDs)
		}
		stored, err := o.Presence.Get(alice.Principal.ID)
		if err != nil {
			t.Fatalf("presence lookup failed: %v", err)
		}
		if stored.RoomID != workshop.ID {
			t.Fatalf("expected the workshop back-reference, got %q", stored.RoomID)
		}
	})
}

func TestCoordinator_DirectCalls(t *testing.T) {
	t.Parallel()

	t.Run("ringing then accept yields exactly the two parties", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")

		started, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID)
		if err != nil {
			t.Fatalf("StartDirectCall failed: %v", err)
		}
		if !sameMembers(started.ParticipantIDs, alice.Principal.ID) {
			t.Fatalf("expected only the initiator before accept, got %#v", started.ParticipantIDs)
		}

		caller, _ := o.Presence.Get(alice.Principal.ID)
		if caller.Status != office.StatusBusy {
			t.Fatalf("expected busy initiator, got %q", caller.Status)
		}

		ringing := o.Events.ByType(office.EventIncomingCall)
		if len(ringing) != 1 || ringing[0].RecipientID != bob.Principal.ID {
			t.Fatalf("expected one incoming-call event for bob, got %#v", ringing)
		}

		session, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID)
		if err != nil {
			t.Fatalf("AcceptCall failed: %v", err)
		}
		if !sameMembers(session.ParticipantIDs, alice.Principal.ID, bob.Principal.ID) {
			t.Fatalf("expected exactly the two parties, got %#v", session.ParticipantIDs)
		}
		if session.ID != started.ID {
			t.Fatalf("expected the accept to join the initiator's session")
		}
	})

	t.Run("reject leaves no call state and reports to the caller", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")

		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); err != nil {
			t.Fatalf("StartDirectCall failed: %v", err)
		}
		if err := o.Coordinator.RejectCall(context.Background(), bob.Principal.ID); err != nil {
			t.Fatalf("RejectCall failed: %v", err)
		}

		rejected := o.Events.ByType(office.EventCallRejected)
		if len(rejected) != 1 || rejected[0].RecipientID != alice.Principal.ID {
			t.Fatalf("expected a rejection notice for alice, got %#v", rejected)
		}
		if _, ok := o.Calls.SessionFor(bob.Principal.ID); ok {
			t.Fatal("expected bob to stay out of any session")
		}

		// The offer is consumed; a late accept finds nothing.
		if _, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID); !errors.Is(err, office.ErrNoPendingOffer) {
			t.Fatalf("expected ErrNoPendingOffer, got %v", err)
		}
	})

	t.Run("reject then re-offer then accept builds exactly one pair", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")

		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); err != nil {
			t.Fatalf("first call failed: %v", err)
		}
		if err := o.Coordinator.RejectCall(context.Background(), bob.Principal.ID); err != nil {
			t.Fatalf("RejectCall failed: %v", err)
		}
		if err := o.Coordinator.LeaveCall(context.Background(), alice.Principal.ID); err != nil {
			t.Fatalf("LeaveCall failed: %v", err)
		}

		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); err != nil {
			t.Fatalf("second call failed: %v", err)
		}
		session, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID)
		if err != nil {
			t.Fatalf("AcceptCall failed: %v", err)
		}
		if !sameMembers(session.ParticipantIDs, alice.Principal.ID, bob.Principal.ID) {
			t.Fatalf("expected exactly {alice, bob}, got %#v", session.ParticipantIDs)
		}
	})

	t.Run("validates the call request", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")

		var vErr *office.ValidationError
		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, alice.Principal.ID); !errors.As(err, &vErr) {
			t.Fatalf("expected validation error for self-call, got %v", err)
		}
		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, "ghost"); !errors.Is(err, office.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown target, got %v", err)
		}

		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); err != nil {
			t.Fatalf("StartDirectCall failed: %v", err)
		}
		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); !errors.Is(err, office.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists while already in a call, got %v", err)
		}
	})

	t.Run("a departing caller takes the offer with them", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")

		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); err != nil {
			t.Fatalf("StartDirectCall failed: %v", err)
		}
		if err := o.Coordinator.Logout(context.Background(), alice.Principal.ID); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}
		if _, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID); !errors.Is(err, office.ErrNoPendingOffer) {
			t.Fatalf("expected ErrNoPendingOffer after the caller left, got %v", err)
		}
	})
}

func TestCoordinator_RoomOffers(t *testing.T) {
	t.Parallel()

	t.Run("accepting a room-bound offer seeds a locked private room", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")
		master := loginEmployee(t, o, "master@example.com")
		room := addRoom(t, o, "War Room", office.RoomPrivate)

		if _, err := o.Coordinator.OfferIncomingCall(context.Background(), alice.Principal.ID, bob.Principal.ID, room.ID); err != nil {
			t.Fatalf("OfferIncomingCall failed: %v", err)
		}
		session, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID)
		if err != nil {
			t.Fatalf("AcceptCall failed: %v", err)
		}
		if session.RoomID != room.ID {
			t.Fatalf("expected a room-bound session, got %q", session.RoomID)
		}
		if !sameMembers(session.ParticipantIDs, alice.Principal.ID, bob.Principal.ID) {
			t.Fatalf("expected both parties in the session, got %#v", session.ParticipantIDs)
		}

		occupied, err := o.Rooms.Get(room.ID)
		if err != nil {
			t.Fatalf("room lookup failed: %v", err)
		}
		if !sameMembers(occupied.ParticipantIDs, alice.Principal.ID, bob.Principal.ID) {
			t.Fatalf("expected both parties seated, got %#v", occupied.ParticipantIDs)
		}

		// The room is no longer empty, so a walk-in entry now succeeds.
		if _, err := o.Coordinator.EnterRoom(context.Background(), master.Principal.ID, room.ID); err != nil {
			t.Fatalf("expected walk-in entry into the occupied private room: %v", err)
		}
	})

	t.Run("a newer offer supersedes the pending one", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")
		master := loginEmployee(t, o, "master@example.com")

		if _, err := o.Coordinator.OfferIncomingCall(context.Background(), alice.Principal.ID, bob.Principal.ID, ""); err != nil {
			t.Fatalf("first offer failed: %v", err)
		}
		if _, err := o.Coordinator.OfferIncomingCall(context.Background(), master.Principal.ID, bob.Principal.ID, ""); err != nil {
			t.Fatalf("second offer failed: %v", err)
		}

		rejected := o.Events.ByType(office.EventCallRejected)
		if len(rejected) != 1 || rejected[0].RecipientID != alice.Principal.ID {
			t.Fatalf("expected a rejection notice for the displaced caller, got %#v", rejected)
		}
		if rejected[0].Offer == nil || rejected[0].Offer.CallerID != alice.Principal.ID {
			t.Fatalf("expected the displaced offer in the notice, got %#v", rejected[0].Offer)
		}

		session, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID)
		if err != nil {
			t.Fatalf("AcceptCall failed: %v", err)
		}
		if !sameMembers(session.ParticipantIDs, master.Principal.ID, bob.Principal.ID) {
			t.Fatalf("expected the superseding caller's session, got %#v", session.ParticipantIDs)
		}
	})

	t.Run("a second accept folds into the caller's session", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")
		master := loginEmployee(t, o, "master@example.com")

		if _, err := o.Coordinator.OfferIncomingCall(context.Background(), alice.Principal.ID, bob.Principal.ID, ""); err != nil {
			t.Fatalf("first offer failed: %v", err)
		}
		first, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID)
		if err != nil {
			t.Fatalf("first accept failed: %v", err)
		}

		if _, err := o.Coordinator.OfferIncomingCall(context.Background(), alice.Principal.ID, master.Principal.ID, ""); err != nil {
			t.Fatalf("second offer failed: %v", err)
		}
		second, err := o.Coordinator.AcceptCall(context.Background(), master.Principal.ID)
		if err != nil {
			t.Fatalf("second accept failed: %v", err)
		}

		if second.ID != first.ID {
			t.Fatalf("expected one session for the caller, got %q and %q", first.ID, second.ID)
		}
		if !sameMembers(second.ParticipantIDs, alice.Principal.ID, bob.Principal.ID, master.Principal.ID) {
			t.Fatalf("expected all three in one session, got %#v", second.ParticipantIDs)
		}

		if err := o.Coordinator.LeaveCall(context.Background(), alice.Principal.ID); err != nil {
			t.Fatalf("LeaveCall failed: %v", err)
		}
		if session, ok := o.Calls.SessionFor(alice.Principal.ID); ok {
			t.Fatalf("expected alice out of every session, still in %q %#v", session.ID, session.ParticipantIDs)
		}
		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); err != nil {
			t.Fatalf("expected alice free to call again, got %v", err)
		}
	})

	t.Run("accepting moves the target out of their current call", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")
		master := loginEmployee(t, o, "master@example.com")

		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); err != nil {
			t.Fatalf("StartDirectCall failed: %v", err)
		}
		old, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID)
		if err != nil {
			t.Fatalf("accept failed: %v", err)
		}

		if _, err := o.Coordinator.OfferIncomingCall(context.Background(), master.Principal.ID, bob.Principal.ID, ""); err != nil {
			t.Fatalf("offer failed: %v", err)
		}
		fresh, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID)
		if err != nil {
			t.Fatalf("accept failed: %v", err)
		}

		if fresh.ID == old.ID {
			t.Fatal("expected a distinct session with the new caller")
		}
		if !sameMembers(fresh.ParticipantIDs, master.Principal.ID, bob.Principal.ID) {
			t.Fatalf("expected exactly {master, bob}, got %#v", fresh.ParticipantIDs)
		}
		current, ok := o.Calls.SessionFor(bob.Principal.ID)
		if !ok || current.ID != fresh.ID {
			t.Fatalf("expected bob only in the new session, got %#v ok=%v", current, ok)
		}
		remaining, ok := o.Calls.Session(old.ID)
		if !ok || !sameMembers(remaining.ParticipantIDs, alice.Principal.ID) {
			t.Fatalf("expected alice alone in the old session, got %#v ok=%v", remaining, ok)
		}
	})

	t.Run("accepting a ringing direct call leaves the target's old call", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")
		master := loginEmployee(t, o, "master@example.com")

		if _, err := o.Coordinator.OfferIncomingCall(context.Background(), master.Principal.ID, bob.Principal.ID, ""); err != nil {
			t.Fatalf("offer failed: %v", err)
		}
		if _, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID); err != nil {
			t.Fatalf("accept failed: %v", err)
		}

		started, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID)
		if err != nil {
			t.Fatalf("StartDirectCall failed: %v", err)
		}
		session, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID)
		if err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if session.ID != started.ID || !sameMembers(session.ParticipantIDs, alice.Principal.ID, bob.Principal.ID) {
			t.Fatalf("expected bob joined to the ringing session, got %#v", session)
		}
		if current, ok := o.Calls.SessionFor(bob.Principal.ID); !ok || current.ID != started.ID {
			t.Fatalf("expected a single membership for bob, got %#v ok=%v", current, ok)
		}
	})
}

func TestCoordinator_InviteToCall(t *testing.T) {
	t.Parallel()

	o := testfixtures.NewOffice(t)
	alice := loginEmployee(t, o, "alice@example.com")
	bob := loginEmployee(t, o, "bob@example.com")
	master := loginEmployee(t, o, "master@example.com")

	if _, err := o.Coordinator.InviteToCall(context.Background(), alice.Principal.ID, []string{bob.Principal.ID}); !errors.Is(err, office.ErrNoActiveCall) {
		t.Fatalf("expected ErrNoActiveCall outside a call, got %v", err)
	}

	if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); err != nil {
		t.Fatalf("StartDirectCall failed: %v", err)
	}
	if _, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID); err != nil {
		t.Fatalf("AcceptCall failed: %v", err)
	}

	result, err := o.Coordinator.InviteToCall(context.Background(), alice.Principal.ID, []string{
		master.Principal.ID,   // valid target
		alice.Principal.ID,    // self
		bob.Principal.ID,      // already in the call
		"ghost",               // unknown
	})
	if err != nil {
		t.Fatalf("InviteToCall failed: %v", err)
	}
	if !sameMembers(result.OfferedIDs, master.Principal.ID) {
		t.Fatalf("expected only master to be offered, got %#v", result.OfferedIDs)
	}
	if !sameMembers(result.SkippedIDs, alice.Principal.ID, bob.Principal.ID, "ghost") {
		t.Fatalf("unexpected skip list: %#v", result.SkippedIDs)
	}

	session, err := o.Coordinator.AcceptCall(context.Background(), master.Principal.ID)
	if err != nil {
		t.Fatalf("AcceptCall for the invitee failed: %v", err)
	}
	if !sameMembers(session.ParticipantIDs, alice.Principal.ID, bob.Principal.ID, master.Principal.ID) {
		t.Fatalf("expected all three in the session, got %#v", session.ParticipantIDs)
	}
}

func TestCoordinator_LeaveCall(t *testing.T) {
	t.Parallel()

	o := testfixtures.NewOffice(t)
	alice := loginEmployee(t, o, "alice@example.com")
	bob := loginEmployee(t, o, "bob@example.com")

	if err := o.Coordinator.LeaveCall(context.Background(), alice.Principal.ID); !errors.Is(err, office.ErrNoActiveCall) {
		t.Fatalf("expected ErrNoActiveCall with nothing to leave, got %v", err)
	}

	if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); err != nil {
		t.Fatalf("StartDirectCall failed: %v", err)
	}
	if _, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID); err != nil {
		t.Fatalf("AcceptCall failed: %v", err)
	}

	if err := o.Coordinator.LeaveCall(context.Background(), alice.Principal.ID); err != nil {
		t.Fatalf("LeaveCall failed: %v", err)
	}
	restored, err := o.Presence.Get(alice.Principal.ID)
	if err != nil {
		t.Fatalf("presence lookup failed: %v", err)
	}
	if restored.Status != office.StatusOnline {
		t.Fatalf("expected online after leaving, got %q", restored.Status)
	}

	remaining, ok := o.Calls.SessionFor(bob.Principal.ID)
	if !ok || !sameMembers(remaining.ParticipantIDs, bob.Principal.ID) {
		t.Fatalf("expected bob alone in the session, got %#v ok=%v", remaining, ok)
	}
}

func TestCoordinator_Administration(t *testing.T) {
	t.Parallel()

	t.Run("room management requires an administrator", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		user := office.Principal{ID: testfixtures.AliceID, Role: office.RoleUser}

		if _, err := o.Coordinator.CreateRoom(context.Background(), user, office.RoomInput{Name: "X", Kind: office.RoomFixed}); !errors.Is(err, office.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for CreateRoom, got %v", err)
		}
		if err := o.Coordinator.DeleteRoom(context.Background(), user, "room-1"); !errors.Is(err, office.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for DeleteRoom, got %v", err)
		}
		if _, err := o.Coordinator.CreateInvite(context.Background(), user, time.Hour); !errors.Is(err, office.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for CreateInvite, got %v", err)
		}
		if _, err := o.Coordinator.ListInvites(context.Background(), user); !errors.Is(err, office.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for ListInvites, got %v", err)
		}
		if err := o.Coordinator.SetWorkingHours(context.Background(), user, office.WorkingHours{}); !errors.Is(err, office.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for SetWorkingHours, got %v", err)
		}
	})

	t.Run("validates room input", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		_, err := o.Coordinator.CreateRoom(context.Background(), adminActor(), office.RoomInput{Name: " ", Kind: "open", Capacity: -1})
		var vErr *office.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"name", "kind", "capacity"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s field error, got %#v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("deleting a room resets its occupants", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		room := addRoom(t, o, "Lobby", office.RoomFixed)
		ids := make([]string, 0, 3)
		for _, email := range []string{"alice@example.com", "bob@example.com", "master@example.com"} {
			result := loginEmployee(t, o, email)
			if _, err := o.Coordinator.EnterRoom(context.Background(), result.Principal.ID, room.ID); err != nil {
				t.Fatalf("EnterRoom failed for %s: %v", email, err)
			}
			ids = append(ids, result.Principal.ID)
		}

		if err := o.Coordinator.DeleteRoom(context.Background(), adminActor(), room.ID); err != nil {
			t.Fatalf("DeleteRoom failed: %v", err)
		}

		for _, id := range ids {
			stored, err := o.Presence.Get(id)
			if err != nil {
				t.Fatalf("presence lookup failed: %v", err)
			}
			if stored.RoomID != "" || stored.Status != office.StatusOnline {
				t.Fatalf("expected %s reset to online and roomless, got %#v", id, stored)
			}
		}
		if _, err := o.Rooms.Get(room.ID); !errors.Is(err, office.ErrNotFound) {
			t.Fatalf("expected the room to be gone, got %v", err)
		}
	})

	t.Run("rejects a wraparound working-hours window", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		err := o.Coordinator.SetWorkingHours(context.Background(), adminActor(), office.WorkingHours{Enabled: true, Start: 22 * 60, End: 6 * 60})
		var vErr *office.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}

		if err := o.Coordinator.SetWorkingHours(context.Background(), adminActor(), office.WorkingHours{Enabled: true, Start: 9 * 60, End: 18 * 60}); err != nil {
			t.Fatalf("SetWorkingHours failed: %v", err)
		}
		policy := o.Coordinator.WorkingHoursPolicy()
		if !policy.Enabled || policy.Start != 9*60 || policy.End != 18*60 {
			t.Fatalf("unexpected policy: %#v", policy)
		}
	})
}

func TestCoordinator_Sweeps(t *testing.T) {
	t.Parallel()

	t.Run("working-hours sweep evicts non-exempt principals", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t, testfixtures.WithPolicy(office.WorkingHours{Enabled: true, Start: 9 * 60, End: 18 * 60}))
		alice := loginEmployee(t, o, "alice@example.com")
		master := loginEmployee(t, o, "master@example.com")

		o.Clock.Set(time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC))
		o.Coordinator.SweepWorkingHours(context.Background())

		evictedAlice, err := o.Presence.Get(alice.Principal.ID)
		if err != nil {
			t.Fatalf("presence lookup failed: %v", err)
		}
		if evictedAlice.Status != office.StatusOffline {
			t.Fatalf("expected alice forced offline, got %q", evictedAlice.Status)
		}
		stillMaster, err := o.Presence.Get(master.Principal.ID)
		if err != nil {
			t.Fatalf("presence lookup failed: %v", err)
		}
		if stillMaster.Status != office.StatusOnline {
			t.Fatalf("expected the master untouched, got %q", stillMaster.Status)
		}

		evictions := o.Events.ByType(office.EventPolicyEviction)
		if len(evictions) != 1 || evictions[0].RecipientID != alice.Principal.ID || evictions[0].Reason != office.EvictionOutsideWorkingHours {
			t.Fatalf("unexpected eviction events: %#v", evictions)
		}

		if _, err := o.Coordinator.ValidateToken(context.Background(), alice.Token); !errors.Is(err, office.ErrUnauthorized) {
			t.Fatalf("expected the evicted session revoked, got %v", err)
		}

		// A second sweep finds nothing new to evict.
		o.Coordinator.SweepWorkingHours(context.Background())
		if got := len(o.Events.ByType(office.EventPolicyEviction)); got != 1 {
			t.Fatalf("expected the sweep to be idempotent, got %d evictions", got)
		}
	})

	t.Run("invite sweep cuts visitors whose invites expired", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t)
		invite, err := o.Coordinator.CreateInvite(context.Background(), adminActor(), 30*time.Minute)
		if err != nil {
			t.Fatalf("invite creation failed: %v", err)
		}
		visitor, err := o.Coordinator.Login(context.Background(), office.LoginParams{
			Mode:        office.LoginVisitor,
			InviteCode:  invite.Code,
			DisplayName: "Guest",
		})
		if err != nil {
			t.Fatalf("visitor login failed: %v", err)
		}

		o.Clock.Advance(29 * time.Minute)
		o.Coordinator.SweepInvites(context.Background())
		if _, err := o.Presence.Get(visitor.Principal.ID); err != nil {
			t.Fatalf("expected the visitor to remain inside the window: %v", err)
		}

		o.Clock.Advance(2 * time.Minute)
		o.Coordinator.SweepInvites(context.Background())
		if _, err := o.Presence.Get(visitor.Principal.ID); !errors.Is(err, office.ErrNotFound) {
			t.Fatalf("expected the visitor removed, got %v", err)
		}

		evictions := o.Events.ByType(office.EventPolicyEviction)
		if len(evictions) != 1 || evictions[0].Reason != office.EvictionInviteExpired {
			t.Fatalf("unexpected eviction events: %#v", evictions)
		}
	})

	t.Run("invite sweep expires stale offers", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t, testfixtures.WithOfferTTL(30*time.Second))
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")

		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); err != nil {
			t.Fatalf("StartDirectCall failed: %v", err)
		}

		o.Clock.Advance(time.Minute)
		o.Coordinator.SweepInvites(context.Background())

		if _, err := o.Coordinator.AcceptCall(context.Background(), bob.Principal.ID); !errors.Is(err, office.ErrNoPendingOffer) {
			t.Fatalf("expected the lapsed offer consumed, got %v", err)
		}
		rejected := o.Events.ByType(office.EventCallRejected)
		if len(rejected) != 1 || rejected[0].RecipientID != alice.Principal.ID {
			t.Fatalf("expected a lapse notice for the caller, got %#v", rejected)
		}
	})
}

func TestCoordinator_OfferResponder(t *testing.T) {
	t.Parallel()

	t.Run("auto-accepts after the delay", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t, testfixtures.WithResponder(&office.OfferResponder{
			Decide: func(office.Offer) bool { return true },
			Delay:  5 * time.Millisecond,
		}))
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")

		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); err != nil {
			t.Fatalf("StartDirectCall failed: %v", err)
		}

		if _, ok := o.Events.WaitFor(office.EventCallParticipants, time.Second); !ok {
			t.Fatal("expected the responder to resolve the offer")
		}
		session, ok := o.Calls.SessionFor(bob.Principal.ID)
		if !ok || !sameMembers(session.ParticipantIDs, alice.Principal.ID, bob.Principal.ID) {
			t.Fatalf("expected both parties joined, got %#v ok=%v", session, ok)
		}
	})

	t.Run("auto-rejects when the decision says no", func(t *testing.T) {
		t.Parallel()

		o := testfixtures.NewOffice(t, testfixtures.WithResponder(&office.OfferResponder{
			Decide: func(office.Offer) bool { return false },
			Delay:  5 * time.Millisecond,
		}))
		alice := loginEmployee(t, o, "alice@example.com")
		bob := loginEmployee(t, o, "bob@example.com")

		if _, err := o.Coordinator.StartDirectCall(context.Background(), alice.Principal.ID, bob.Principal.ID); err != nil {
			t.Fatalf("StartDirectCall failed: %v", err)
		}

		event, ok := o.Events.WaitFor(office.EventCallRejected, time.Second)
		if !ok {
			t.Fatal("expected the responder to reject the offer")
		}
		if event.RecipientID != alice.Principal.ID {
			t.Fatalf("expected the rejection delivered to the caller, got %q", event.RecipientID)
		}
		if _, ok := o.Calls.SessionFor(bob.Principal.ID); ok {
			t.Fatal("expected no session for the target")
		}
	})
}
