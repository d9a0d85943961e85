package office

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// OfferResponder resolves incoming-call offers without waiting for an
// explicit accept or reject command. Decide is consulted once per offer
// after Delay has elapsed; a true outcome accepts, false rejects. Leaving
// the coordinator's responder nil keeps offers pending until the target
// resolves them.
type OfferResponder struct {
	Decide func(offer Offer) bool
	Delay  time.Duration
}

// CoordinatorConfig wires a Coordinator's collaborators. Nil stores are
// replaced with fresh ones; nil generators with safe defaults.
type CoordinatorConfig struct {
	Directory      *EmployeeDirectory
	Invites        *InviteRegistry
	Presence       *PresenceStore
	Rooms          *RoomStore
	Calls          *CallManager
	Policy         WorkingHours
	Notifier       Notifier
	VerifyPassword PasswordVerifier
	IDGenerator    func() string
	TokenGenerator func() string
	Now            func() time.Time
	OfferTTL       time.Duration
	Responder      *OfferResponder
	Logger         *slog.Logger
}

// Coordinator is the single mutation authority over presence, rooms, and
// calls. All commands and policy sweeps serialize on one mutex so every
// transition that touches both a principal and a room happens in one
// atomic step; the invite registry additionally serializes its own
// redemption check-and-set.
type Coordinator struct {
	mu             sync.Mutex
	directory      *EmployeeDirectory
	invites        *InviteRegistry
	presence       *PresenceStore
	rooms          *RoomStore
	calls          *CallManager
	policy         WorkingHours
	notifier       Notifier
	verifyPassword PasswordVerifier
	idGen          func() string
	tokenGen       func() string
	now            func() time.Time
	offerTTL       time.Duration
	responder      *OfferResponder
	tokens         map[string]string
	logger         *slog.Logger
}

// NewCoordinator constructs a coordinator from the given configuration.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = func() string { return "" }
	}
	if cfg.TokenGenerator == nil {
		cfg.TokenGenerator = cfg.IDGenerator
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.VerifyPassword == nil {
		cfg.VerifyPassword = VerifyPassword
	}
	if cfg.Presence == nil {
		cfg.Presence = NewPresenceStore()
	}
	if cfg.Rooms == nil {
		cfg.Rooms = NewRoomStore()
	}
	if cfg.Calls == nil {
		cfg.Calls = NewCallManager(cfg.IDGenerator, cfg.Now)
	}
	if cfg.Invites == nil {
		cfg.Invites = NewInviteRegistry(cfg.IDGenerator, nil, cfg.Now, cfg.Logger)
	}
	return &Coordinator{
		directory:      cfg.Directory,
		invites:        cfg.Invites,
		presence:       cfg.Presence,
		rooms:          cfg.Rooms,
		calls:          cfg.Calls,
		policy:         cfg.Policy,
		notifier:       cfg.Notifier,
		verifyPassword: cfg.VerifyPassword,
		idGen:          cfg.IDGenerator,
		tokenGen:       cfg.TokenGenerator,
		now:            cfg.Now,
		offerTTL:       cfg.OfferTTL,
		responder:      cfg.Responder,
		tokens:         make(map[string]string),
		logger:         defaultLogger(cfg.Logger),
	}
}

func (c *Coordinator) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, c.logger, "Coordinator", operation, attrs...)
}

func (c *Coordinator) emit(ctx context.Context, event Event) {
	if c.notifier == nil {
		return
	}
	event.At = c.now()
	c.notifier.Notify(ctx, event)
}

// Login admits a principal into the office. Employees authenticate
// against the directory; visitors redeem an invite code. Both are checked
// against the working-hours window before anything is mutated, so a
// denied visitor does not burn their code.
func (c *Coordinator) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	logger := c.loggerWith(ctx, "Login", "mode", string(params.Mode))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"principal_id", result.Principal.ID,
			"role", string(result.Principal.Role),
		).InfoContext(ctx, "login succeeded")
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var principal Principal

	switch params.Mode {
	case LoginEmployee:
		var account EmployeeAccount
		account, err = c.directory.Authenticate(ctx, params.Email, params.Password, c.verifyPassword)
		if err != nil {
			return
		}

		candidate := Principal{
			ID:          account.ID,
			DisplayName: account.DisplayName,
			Role:        account.Role,
			Status:      StatusOnline,
			LoggedInAt:  now,
			UpdatedAt:   now,
		}
		if decision := EvaluateAdmission(candidate, c.policy, nil, now); !decision.Admitted {
			err = ErrOutsideWorkingHours
			return
		}

		existing, getErr := c.presence.Get(account.ID)
		if getErr == nil {
			principal, err = c.presence.SetStatus(existing.ID, StatusOnline, existing.StatusMessage, now)
			if err != nil {
				return
			}
		} else {
			principal = candidate
			if err = c.presence.Add(principal); err != nil {
				return
			}
		}

	case LoginVisitor:
		displayName := strings.TrimSpace(params.DisplayName)
		if displayName == "" {
			vErr := &ValidationError{}
			vErr.add("displayName", "display name is required")
			err = vErr
			return
		}
		if !c.policy.Admits(now) {
			err = ErrOutsideWorkingHours
			return
		}

		var invite VisitorInvite
		var principalID string
		invite, principalID, err = c.invites.Redeem(ctx, params.InviteCode)
		if err != nil {
			return
		}

		principal = Principal{
			ID:          principalID,
			DisplayName: displayName,
			Role:        RoleVisitor,
			Status:      StatusOnline,
			InviteID:    invite.ID,
			LoggedInAt:  now,
			UpdatedAt:   now,
		}
		if err = c.presence.Add(principal); err != nil {
			return
		}

	default:
		vErr := &ValidationError{}
		vErr.add("mode", "unknown login mode")
		err = vErr
		return
	}

	token := c.tokenGen()
	c.tokens[token] = principal.ID
	result = LoginResult{Principal: principal, Token: token}
	return
}

// Logout reverses login. Any call and room membership is torn down first;
// visitors are removed and their invite retired, employees are marked
// offline. All session tokens for the principal are revoked.
func (c *Coordinator) Logout(ctx context.Context, principalID string) error {
	logger := c.loggerWith(ctx, "Logout", "principal_id", principalID)

	c.mu.Lock()
	defer c.mu.Unlock()

	principal, err := c.presence.Get(principalID)
	if err != nil {
		logger.ErrorContext(ctx, "logout failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	c.departLocked(ctx, principal)
	logger.InfoContext(ctx, "logout completed", "role", string(principal.Role))
	return nil
}

// ValidateToken resolves a session token to its principal.
func (c *Coordinator) ValidateToken(ctx context.Context, token string) (Principal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	principalID, ok := c.tokens[strings.TrimSpace(token)]
	if !ok {
		return Principal{}, ErrUnauthorized
	}
	principal, err := c.presence.Get(principalID)
	if err != nil {
		return Principal{}, ErrUnauthorized
	}
	if principal.Status == StatusOffline {
		return Principal{}, ErrUnauthorized
	}
	return principal, nil
}

// UpdateStatus is a pure presence mutation with no policy gating.
func (c *Coordinator) UpdateStatus(ctx context.Context, principalID string, status Status, message string) (Principal, error) {
	if !status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", fmt.Sprintf("unknown status %q", status))
		return Principal{}, vErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	principal, err := c.presence.SetStatus(principalID, status, strings.TrimSpace(message), c.now())
	if err != nil {
		return Principal{}, err
	}
	c.loggerWith(ctx, "UpdateStatus", "principal_id", principalID, "status", string(status)).
		InfoContext(ctx, "status updated")
	return principal, nil
}

// EnterRoom places the principal into a room. A private room with no
// occupants is locked; its first occupant arrives by accepting a call
// offer bound to the room. Entering a room while inside another one
// leaves the old room first.
func (c *Coordinator) EnterRoom(ctx context.Context, principalID, roomID string) (room Room, err error) {
	logger := c.loggerWith(ctx, "EnterRoom", "principal_id", principalID, "room_id", roomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "room entry denied", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room entered")
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	principal, err := c.presence.Get(principalID)
	if err != nil {
		return Room{}, err
	}
	room, err = c.rooms.Get(roomID)
	if err != nil {
		return Room{}, err
	}
	if principal.RoomID == roomID {
		return Room{}, ErrAlreadyExists
	}
	if room.Kind == RoomPrivate && len(room.ParticipantIDs) == 0 {
		return Room{}, ErrRoomLocked
	}

	if err = c.seatLocked(ctx, principal, roomID); err != nil {
		return Room{}, err
	}
	if _, err = c.joinRoomCallLocked(ctx, roomID, principalID); err != nil {
		return Room{}, err
	}
	return c.rooms.Get(roomID)
}

// LeaveCall exits the principal's current call and room, restoring the
// online status. A principal in neither a call nor a room has nothing to
// leave.
func (c *Coordinator) LeaveCall(ctx context.Context, principalID string) error {
	logger := c.loggerWith(ctx, "LeaveCall", "principal_id", principalID)

	c.mu.Lock()
	defer c.mu.Unlock()

	principal, err := c.presence.Get(principalID)
	if err != nil {
		logger.ErrorContext(ctx, "leave call failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	_, inCall := c.calls.SessionFor(principalID)
	if !inCall && principal.RoomID == "" {
		logger.ErrorContext(ctx, "leave call failed", "error", ErrNoActiveCall, "error_kind", ErrorKind(ErrNoActiveCall))
		return ErrNoActiveCall
	}

	c.exitCallLocked(ctx, principal, true)
	logger.InfoContext(ctx, "call left")
	return nil
}

// StartDirectCall begins an outbound call: the initiator's session is
// active immediately, while the target sees a parallel ringing offer
// referencing it.
func (c *Coordinator) StartDirectCall(ctx context.Context, initiatorID, targetID string) (session CallSession, err error) {
	logger := c.loggerWith(ctx, "StartDirectCall", "initiator_id", initiatorID, "target_id", targetID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "direct call failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", session.ID).InfoContext(ctx, "direct call started")
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	if initiatorID == targetID {
		vErr := &ValidationError{}
		vErr.add("targetId", "cannot call yourself")
		err = vErr
		return
	}
	initiator, err := c.presence.Get(initiatorID)
	if err != nil {
		return
	}
	if _, err = c.presence.Get(targetID); err != nil {
		return
	}
	if _, inCall := c.calls.SessionFor(initiatorID); inCall {
		err = ErrAlreadyExists
		return
	}

	now := c.now()
	session = c.calls.CreateSession(initiatorID, "", []string{initiatorID})
	if _, err = c.presence.SetStatus(initiatorID, StatusBusy, initiator.StatusMessage, now); err != nil {
		return
	}

	offer := Offer{
		ID:        c.idGen(),
		CallerID:  initiatorID,
		TargetID:  targetID,
		SessionID: session.ID,
		CreatedAt: now,
	}
	c.placeOfferLocked(ctx, offer)
	return
}

// OfferIncomingCall rings a single target, optionally binding the
// eventual session to a room. No session state exists until the target
// accepts.
func (c *Coordinator) OfferIncomingCall(ctx context.Context, callerID, targetID, roomID string) (offer Offer, err error) {
	logger := c.loggerWith(ctx, "OfferIncomingCall", "caller_id", callerID, "target_id", targetID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "offer failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("offer_id", offer.ID).InfoContext(ctx, "offer placed")
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	if callerID == targetID {
		vErr := &ValidationError{}
		vErr.add("targetId", "cannot call yourself")
		err = vErr
		return
	}
	if _, err = c.presence.Get(callerID); err != nil {
		return
	}
	if _, err = c.presence.Get(targetID); err != nil {
		return
	}
	if roomID != "" {
		if _, err = c.rooms.Get(roomID); err != nil {
			return
		}
	}

	offer = Offer{
		ID:        c.idGen(),
		CallerID:  callerID,
		TargetID:  targetID,
		RoomID:    roomID,
		CreatedAt: c.now(),
	}
	c.placeOfferLocked(ctx, offer)
	return
}

// AcceptCall resolves the target's pending offer into call participation:
// joining the referenced session, the room-bound session, the caller's
// current session, or a fresh session binding caller and target. A
// principal holds at most one session membership, so accepting detaches
// the target from any other call first. An offer bound to a room seats
// both parties in it, which is how a locked private room gains its first
// occupants.
func (c *Coordinator) AcceptCall(ctx context.Context, targetID string) (session CallSession, err error) {
	logger := c.loggerWith(ctx, "AcceptCall", "target_id", targetID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "accept failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", session.ID).InfoContext(ctx, "offer accepted")
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	target, err := c.presence.Get(targetID)
	if err != nil {
		return
	}
	offer, ok := c.calls.TakeOffer(targetID)
	if !ok {
		err = ErrNoPendingOffer
		return
	}
	caller, callerErr := c.presence.Get(offer.CallerID)
	if callerErr != nil {
		// The caller departed while ringing; the offer dies with them.
		err = ErrNotFound
		return
	}

	now := c.now()

	if offer.RoomID != "" {
		if err = c.seatLocked(ctx, caller, offer.RoomID); err != nil {
			return
		}
		if err = c.seatLocked(ctx, target, offer.RoomID); err != nil {
			return
		}
	}

	switch {
	case offer.SessionID != "":
		if _, alive := c.calls.Session(offer.SessionID); !alive {
			// The session ended while the offer was ringing.
			err = ErrNoActiveCall
			return
		}
		if current, inCall := c.calls.SessionFor(targetID); inCall && current.ID != offer.SessionID {
			c.exitCallLocked(ctx, target, false)
		}
		session, err = c.calls.AddParticipant(offer.SessionID, targetID)
		if err != nil {
			return
		}
	case offer.RoomID != "":
		if existing, bound := c.calls.SessionByRoom(offer.RoomID); bound {
			session, err = c.calls.AddParticipant(existing.ID, targetID)
			if err != nil {
				return
			}
		} else {
			session = c.calls.CreateSession(offer.CallerID, offer.RoomID, []string{offer.CallerID, targetID})
		}
	default:
		destination, callerInCall := c.calls.SessionFor(offer.CallerID)
		if current, inCall := c.calls.SessionFor(targetID); inCall && (!callerInCall || current.ID != destination.ID) {
			c.exitCallLocked(ctx, target, false)
		}
		if callerInCall {
			session, err = c.calls.AddParticipant(destination.ID, targetID)
			if err != nil {
				return
			}
		} else {
			session = c.calls.CreateSession(offer.CallerID, "", []string{offer.CallerID, targetID})
		}
	}

	status := StatusBusy
	if offer.RoomID != "" {
		status = StatusInMeeting
	}
	if _, err = c.presence.SetStatus(targetID, status, target.StatusMessage, now); err != nil {
		return
	}
	if caller.Status != StatusInMeeting {
		if _, err = c.presence.SetStatus(caller.ID, status, caller.StatusMessage, now); err != nil {
			return
		}
	}

	if offer.RoomID != "" {
		room, roomErr := c.rooms.Get(offer.RoomID)
		if roomErr == nil {
			c.emit(ctx, Event{Type: EventRoomMembership, RoomID: room.ID, Participants: room.ParticipantIDs})
		}
	}
	c.emit(ctx, Event{Type: EventCallParticipants, SessionID: session.ID, Participants: session.ParticipantIDs})
	return
}

// RejectCall discards the target's pending offer and reports the refusal
// to the caller. No call state is created or mutated.
func (c *Coordinator) RejectCall(ctx context.Context, targetID string) error {
	logger := c.loggerWith(ctx, "RejectCall", "target_id", targetID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.presence.Get(targetID); err != nil {
		logger.ErrorContext(ctx, "reject failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	offer, ok := c.calls.TakeOffer(targetID)
	if !ok {
		logger.ErrorContext(ctx, "reject failed", "error", ErrNoPendingOffer, "error_kind", ErrorKind(ErrNoPendingOffer))
		return ErrNoPendingOffer
	}

	c.emit(ctx, Event{Type: EventCallRejected, RecipientID: offer.CallerID, Offer: &offer})
	logger.With("offer_id", offer.ID).InfoContext(ctx, "offer rejected")
	return nil
}

// InviteToCall rings each target individually on behalf of a call
// participant. The round is fire-and-forget: the call proceeds whatever
// the outcomes, acceptances append asynchronously, rejections are
// reported back to the inviter, and unknown targets are skipped.
func (c *Coordinator) InviteToCall(ctx context.Context, inviterID string, targetIDs []string) (result InviteToCallResult, err error) {
	logger := c.loggerWith(ctx, "InviteToCall", "inviter_id", inviterID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "call invitation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("offered", len(result.OfferedIDs), "skipped", len(result.SkippedIDs)).
			InfoContext(ctx, "call invitations placed")
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err = c.presence.Get(inviterID); err != nil {
		return
	}
	session, inCall := c.calls.SessionFor(inviterID)
	if !inCall {
		err = ErrNoActiveCall
		return
	}

	now := c.now()
	for _, targetID := range targetIDs {
		if targetID == inviterID || containsID(session.ParticipantIDs, targetID) {
			result.SkippedIDs = append(result.SkippedIDs, targetID)
			continue
		}
		if _, getErr := c.presence.Get(targetID); getErr != nil {
			result.SkippedIDs = append(result.SkippedIDs, targetID)
			continue
		}
		offer := Offer{
			ID:        c.idGen(),
			CallerID:  inviterID,
			TargetID:  targetID,
			RoomID:    session.RoomID,
			SessionID: session.ID,
			CreatedAt: now,
		}
		c.placeOfferLocked(ctx, offer)
		result.OfferedIDs = append(result.OfferedIDs, targetID)
	}
	return
}

// CreateRoom registers a new room. Administrators only.
func (c *Coordinator) CreateRoom(ctx context.Context, actor Principal, input RoomInput) (room Room, err error) {
	logger := c.loggerWith(ctx, "CreateRoom", "actor_id", actor.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "room creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !actor.Role.CanAdminister() {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	if !input.Kind.Valid() {
		vErr.add("kind", fmt.Sprintf("unknown room kind %q", input.Kind))
	}
	if input.Capacity < 0 {
		vErr.add("capacity", "capacity must not be negative")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	room = Room{
		ID:        c.idGen(),
		Name:      name,
		Kind:      input.Kind,
		Capacity:  input.Capacity,
		CreatedAt: c.now(),
	}
	if err = c.rooms.Add(room); err != nil {
		room = Room{}
		return
	}
	return
}

// DeleteRoom evicts every occupant, resetting each to online with no
// room, then removes the room. Calls not bound to the room are left
// untouched. Administrators only.
func (c *Coordinator) DeleteRoom(ctx context.Context, actor Principal, roomID string) (err error) {
	logger := c.loggerWith(ctx, "DeleteRoom", "actor_id", actor.ID, "room_id", roomID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "room deletion failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room deleted")
	}()

	if !actor.Role.CanAdminister() {
		return ErrUnauthorized
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.rooms.Remove(roomID)
	if err != nil {
		return err
	}

	now := c.now()
	boundSession, bound := c.calls.SessionByRoom(roomID)
	for _, participantID := range room.ParticipantIDs {
		if bound {
			if final, rmErr := c.calls.RemoveFromSession(boundSession.ID, participantID); rmErr == nil && final.State != CallEnded {
				c.emit(ctx, Event{Type: EventCallParticipants, SessionID: final.ID, Participants: final.ParticipantIDs})
			}
		}
		principal, getErr := c.presence.Get(participantID)
		if getErr != nil {
			continue
		}
		if _, err = c.presence.SetRoom(participantID, "", now); err != nil {
			return err
		}
		if _, err = c.presence.SetStatus(participantID, StatusOnline, principal.StatusMessage, now); err != nil {
			return err
		}
	}

	c.emit(ctx, Event{Type: EventRoomMembership, RoomID: roomID, Participants: nil})
	return nil
}

// SetWorkingHours replaces the office admission window. Violators are
// picked up by the next audit sweep. Administrators only.
func (c *Coordinator) SetWorkingHours(ctx context.Context, actor Principal, policy WorkingHours) error {
	logger := c.loggerWith(ctx, "SetWorkingHours", "actor_id", actor.ID)

	if !actor.Role.CanAdminister() {
		logger.ErrorContext(ctx, "policy update rejected", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}
	if policy.Enabled {
		vErr := &ValidationError{}
		if policy.Start < 0 || policy.Start >= 24*60 {
			vErr.add("start", "start must be a minute of day")
		}
		if policy.End <= 0 || policy.End > 24*60 {
			vErr.add("end", "end must be a minute of day")
		}
		if policy.Start >= policy.End {
			vErr.add("end", "end must be after start; windows do not wrap past midnight")
		}
		if vErr.HasErrors() {
			logger.ErrorContext(ctx, "policy update rejected", "error", vErr, "error_kind", ErrorKind(vErr))
			return vErr
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.policy = policy
	logger.With("enabled", policy.Enabled, "start", policy.Start, "end", policy.End).
		InfoContext(ctx, "working hours updated")
	return nil
}

// WorkingHoursPolicy returns the current admission window.
func (c *Coordinator) WorkingHoursPolicy() WorkingHours {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policy
}

// CreateInvite issues a visitor invite. Administrators only.
func (c *Coordinator) CreateInvite(ctx context.Context, actor Principal, duration time.Duration) (VisitorInvite, error) {
	if !actor.Role.CanAdminister() {
		return VisitorInvite{}, ErrUnauthorized
	}
	return c.invites.Issue(ctx, actor.ID, duration)
}

// ListInvites returns the currently valid invites. Administrators only.
func (c *Coordinator) ListInvites(ctx context.Context, actor Principal) ([]VisitorInvite, error) {
	if !actor.Role.CanAdminister() {
		return nil, ErrUnauthorized
	}
	return c.invites.ListActive(ctx), nil
}

// ListPresence returns all principals currently known to the office.
func (c *Coordinator) ListPresence(ctx context.Context) []Principal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presence.List()
}

// ListRooms returns the room catalog with current occupancy.
func (c *Coordinator) ListRooms(ctx context.Context) []Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms.List()
}

// SweepWorkingHours evicts every present, non-exempt principal once the
// office is outside its admission window.
func (c *Coordinator) SweepWorkingHours(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.policy.Enabled {
		return
	}
	now := c.now()
	for _, principal := range c.presence.List() {
		if principal.Status == StatusOffline {
			continue
		}
		decision := EvaluateAdmission(principal, c.policy, c.inviteForLocked(principal), now)
		if !decision.Admitted && decision.Reason == EvictionOutsideWorkingHours {
			c.evictLocked(ctx, principal, decision.Reason)
		}
	}
}

// SweepInvites evicts visitors whose invites have expired and discards
// offers that outlived the configured TTL.
func (c *Coordinator) SweepInvites(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, principal := range c.presence.List() {
		if principal.Role != RoleVisitor {
			continue
		}
		invite := c.inviteForLocked(principal)
		if invite == nil || invite.Expired(now) {
			c.evictLocked(ctx, principal, EvictionInviteExpired)
		}
	}

	for _, offer := range c.calls.ExpireOffers(now, c.offerTTL) {
		stale := offer
		c.emit(ctx, Event{Type: EventCallRejected, RecipientID: stale.CallerID, Offer: &stale})
	}
}

// evictLocked forces the principal out by policy: the violation notice is
// pushed first, then the same teardown as a voluntary logout runs.
func (c *Coordinator) evictLocked(ctx context.Context, principal Principal, reason EvictionReason) {
	c.loggerWith(ctx, "Evict", "principal_id", principal.ID, "reason", string(reason)).
		InfoContext(ctx, "principal evicted by policy")

	c.emit(ctx, Event{Type: EventPolicyEviction, RecipientID: principal.ID, Reason: reason})
	c.departLocked(ctx, principal)
}

// departLocked is the shared exit path for logout and eviction.
func (c *Coordinator) departLocked(ctx context.Context, principal Principal) {
	for _, dropped := range c.calls.DropOffersInvolving(principal.ID) {
		if dropped.CallerID != principal.ID {
			stale := dropped
			c.emit(ctx, Event{Type: EventCallRejected, RecipientID: stale.CallerID, Offer: &stale})
		}
	}

	c.exitCallLocked(ctx, principal, false)

	now := c.now()
	if principal.Role == RoleVisitor {
		_ = c.presence.Remove(principal.ID)
		if principal.InviteID != "" {
			c.invites.Retire(ctx, principal.InviteID)
		}
	} else {
		_, _ = c.presence.SetRoom(principal.ID, "", now)
		_, _ = c.presence.SetStatus(principal.ID, StatusOffline, "", now)
	}

	for token, principalID := range c.tokens {
		if principalID == principal.ID {
			delete(c.tokens, token)
		}
	}
}

// exitCallLocked removes the principal from its session and room in one
// atomic step, keeping the room participant list and the principal's
// back-reference consistent.
func (c *Coordinator) exitCallLocked(ctx context.Context, principal Principal, setOnline bool) {
	session, inCall := c.calls.RemoveParticipant(principal.ID)

	if principal.RoomID != "" {
		if room, err := c.rooms.Leave(principal.RoomID, principal.ID); err == nil {
			c.emit(ctx, Event{Type: EventRoomMembership, RoomID: room.ID, Participants: room.ParticipantIDs})
		}
	}

	now := c.now()
	_, _ = c.presence.SetRoom(principal.ID, "", now)
	if setOnline {
		_, _ = c.presence.SetStatus(principal.ID, StatusOnline, principal.StatusMessage, now)
	}

	if inCall && session.State != CallEnded {
		c.emit(ctx, Event{Type: EventCallParticipants, SessionID: session.ID, Participants: session.ParticipantIDs})
	}
}

// seatLocked places the principal into the room, leaving any previous
// room or call first, and reconciles status and back-reference. It does
// not touch call sessions for the new room. The room lock is not checked
// here; callers decide whether the entry path may seed an empty private
// room.
func (c *Coordinator) seatLocked(ctx context.Context, principal Principal, roomID string) error {
	if principal.RoomID == roomID {
		return nil
	}
	if principal.RoomID != "" {
		c.exitCallLocked(ctx, principal, false)
	} else if _, inCall := c.calls.SessionFor(principal.ID); inCall {
		c.exitCallLocked(ctx, principal, false)
	}

	room, err := c.rooms.Join(roomID, principal.ID)
	if err != nil {
		return err
	}

	now := c.now()
	if _, err := c.presence.SetRoom(principal.ID, roomID, now); err != nil {
		return err
	}
	if _, err := c.presence.SetStatus(principal.ID, StatusInMeeting, principal.StatusMessage, now); err != nil {
		return err
	}

	c.emit(ctx, Event{Type: EventRoomMembership, RoomID: room.ID, Participants: room.ParticipantIDs})
	return nil
}

// joinRoomCallLocked adds the principal to the room's bound session,
// creating it with the room's current occupants when absent.
func (c *Coordinator) joinRoomCallLocked(ctx context.Context, roomID, principalID string) (CallSession, error) {
	var session CallSession
	if existing, bound := c.calls.SessionByRoom(roomID); bound {
		joined, err := c.calls.AddParticipant(existing.ID, principalID)
		if err != nil {
			return CallSession{}, err
		}
		session = joined
	} else {
		room, err := c.rooms.Get(roomID)
		if err != nil {
			return CallSession{}, err
		}
		session = c.calls.CreateSession(principalID, roomID, room.ParticipantIDs)
	}

	c.emit(ctx, Event{Type: EventCallParticipants, SessionID: session.ID, Participants: session.ParticipantIDs})
	return session, nil
}

// placeOfferLocked installs the offer, notifies the target, and, when an
// auto-responder is configured, schedules its resolution. A displaced
// offer from another caller is reported back as rejected, the same signal
// the logout and expiry paths send.
func (c *Coordinator) placeOfferLocked(ctx context.Context, offer Offer) {
	if displaced, had := c.calls.PutOffer(offer); had && displaced.CallerID != offer.CallerID {
		stale := displaced
		c.emit(ctx, Event{Type: EventCallRejected, RecipientID: stale.CallerID, Offer: &stale})
	}
	pending := offer
	c.emit(ctx, Event{Type: EventIncomingCall, RecipientID: offer.TargetID, Offer: &pending})
	c.scheduleResponder(offer)
}

// scheduleResponder resolves the offer through the configured decision
// function after its delay. The offer may have been superseded or
// resolved by then, in which case the task is a no-op.
func (c *Coordinator) scheduleResponder(offer Offer) {
	responder := c.responder
	if responder == nil || responder.Decide == nil {
		return
	}

	time.AfterFunc(responder.Delay, func() {
		ctx := context.Background()
		if pending, ok := c.calls.PendingOffer(offer.TargetID); !ok || pending.ID != offer.ID {
			return
		}
		if responder.Decide(offer) {
			if _, err := c.AcceptCall(ctx, offer.TargetID); err != nil {
				c.loggerWith(ctx, "OfferResponder", "offer_id", offer.ID).
					ErrorContext(ctx, "auto-accept failed", "error", err, "error_kind", ErrorKind(err))
			}
			return
		}
		if err := c.RejectCall(ctx, offer.TargetID); err != nil {
			c.loggerWith(ctx, "OfferResponder", "offer_id", offer.ID).
				ErrorContext(ctx, "auto-reject failed", "error", err, "error_kind", ErrorKind(err))
		}
	})
}

// inviteForLocked resolves a visitor's bound invite, nil when absent.
func (c *Coordinator) inviteForLocked(principal Principal) *VisitorInvite {
	if principal.InviteID == "" {
		return nil
	}
	invite, ok := c.invites.Get(principal.InviteID)
	if !ok {
		return nil
	}
	return &invite
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
