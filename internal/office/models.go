package office

import "time"

// Role classifies a principal's standing inside the office.
type Role string

const (
	// RoleMaster is the office owner.
	RoleMaster Role = "master"
	// RoleAdmin may manage rooms, invites, and office policy.
	RoleAdmin Role = "admin"
	// RoleUser is a regular employee.
	RoleUser Role = "user"
	// RoleVisitor is a temporary guest admitted through an invite code.
	RoleVisitor Role = "visitor"
)

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool {
	switch r {
	case RoleMaster, RoleAdmin, RoleUser, RoleVisitor:
		return true
	}
	return false
}

// Exempt reports whether the role bypasses the working-hours window.
func (r Role) Exempt() bool {
	return r == RoleMaster || r == RoleAdmin
}

// CanAdminister reports whether the role may perform office administration.
func (r Role) CanAdminister() bool {
	return r == RoleMaster || r == RoleAdmin
}

// Status is a principal's presence state.
type Status string

const (
	StatusOnline    Status = "online"
	StatusBusy      Status = "busy"
	StatusAway      Status = "away"
	StatusOffline   Status = "offline"
	StatusInMeeting Status = "in-meeting"
)

// Valid reports whether the status is one of the defined values.
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusBusy, StatusAway, StatusOffline, StatusInMeeting:
		return true
	}
	return false
}

// Principal is an authenticated actor currently known to the office.
//
// RoomID is a back-reference only; the room's participant list is the
// ground truth and the two are reconciled on every mutation.
type Principal struct {
	ID            string
	DisplayName   string
	Role          Role
	Status        Status
	StatusMessage string
	RoomID        string
	InviteID      string
	LoggedInAt    time.Time
	UpdatedAt     time.Time
}

// VisitorInvite is a time-boxed, single-use visitor credential.
//
// An invite is redeemable iff the current time is before ExpiresAt and
// UsedBy is unset. Invites are retained after expiry for audit listings.
type VisitorInvite struct {
	ID        string
	Code      string
	CreatorID string
	CreatedAt time.Time
	Duration  time.Duration
	ExpiresAt time.Time
	UsedBy    string
}

// Redeemable reports whether the invite can still be exchanged for a
// visitor principal at the given instant.
func (i VisitorInvite) Redeemable(now time.Time) bool {
	return i.UsedBy == "" && now.Before(i.ExpiresAt)
}

// Expired reports whether the invite's validity window has passed.
func (i VisitorInvite) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// RoomKind distinguishes always-open rooms from invitation-seeded ones.
type RoomKind string

const (
	// RoomFixed always admits entry.
	RoomFixed RoomKind = "fixed"
	// RoomPrivate rejects entry while empty; the first occupant arrives
	// through an accepted call offer bound to the room.
	RoomPrivate RoomKind = "private"
)

// Valid reports whether the kind is one of the defined values.
func (k RoomKind) Valid() bool {
	return k == RoomFixed || k == RoomPrivate
}

// Room is a shared space principals can occupy. ParticipantIDs is the
// authoritative membership list, ordered by arrival, no duplicates.
// Capacity is advisory and not enforced as a hard cap.
type Room struct {
	ID             string
	Name           string
	Kind           RoomKind
	Capacity       int
	ParticipantIDs []string
	CreatedAt      time.Time
}

// CallState is the lifecycle state of a call session.
type CallState string

const (
	CallRinging CallState = "ringing"
	CallActive  CallState = "active"
	CallEnded   CallState = "ended"
)

// CallSession is ephemeral state for an active call. Participants are
// principal ids and are tracked independently of room membership; RoomID
// is set only for room-bound calls.
type CallSession struct {
	ID             string
	InitiatorID    string
	RoomID         string
	ParticipantIDs []string
	State          CallState
	StartedAt      time.Time
}

// Offer is a transient incoming-call proposal scoped to exactly one
// target. It exists only while unresolved; accept and reject consume it.
// SessionID is set when the offer invites the target into an existing
// call, otherwise acceptance creates a fresh session.
type Offer struct {
	ID        string
	CallerID  string
	TargetID  string
	RoomID    string
	SessionID string
	CreatedAt time.Time
}

// WorkingHours is the office-wide admission window. Start and End are
// minutes of day; wraparound past midnight is not supported, so Start
// must be strictly less than End whenever the window is enabled.
type WorkingHours struct {
	Enabled bool
	Start   int
	End     int
}

// Admits reports whether the window allows presence at the given
// instant. A disabled window admits everyone.
func (w WorkingHours) Admits(now time.Time) bool {
	if !w.Enabled {
		return true
	}
	minute := now.Hour()*60 + now.Minute()
	return minute >= w.Start && minute < w.End
}

// LoginMode selects the credential type presented at login.
type LoginMode string

const (
	// LoginEmployee authenticates against the employee directory.
	LoginEmployee LoginMode = "employee"
	// LoginVisitor redeems a visitor invite code.
	LoginVisitor LoginMode = "visitor"
)

// LoginParams carries the credentials for either login mode.
type LoginParams struct {
	Mode        LoginMode
	Email       string
	Password    string
	InviteCode  string
	DisplayName string
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Principal Principal
	Token     string
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Kind     RoomKind
	Capacity int
}

// InviteToCallResult reports the per-target outcome of a mid-call
// invitation round. Unknown or already participating targets are
// reported as skipped, never fatal.
type InviteToCallResult struct {
	OfferedIDs []string
	SkippedIDs []string
}
