package office

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("office: unauthorized")
	// ErrNotFound is returned when the requested principal, room, or invite does not exist.
	ErrNotFound = errors.New("office: not found")
	// ErrAlreadyExists is returned when a record with the same identity is already registered.
	ErrAlreadyExists = errors.New("office: already exists")
	// ErrInvalidCredentials is returned when employee authentication fails.
	ErrInvalidCredentials = errors.New("office: invalid credentials")
	// ErrInvalidInviteCode is returned when no invite carries the presented code.
	ErrInvalidInviteCode = errors.New("office: invalid invite code")
	// ErrInviteExpired is returned when an invite's validity window has passed.
	ErrInviteExpired = errors.New("office: invite expired")
	// ErrInviteUsed is returned when an invite has already been redeemed,
	// including by the loser of a concurrent redemption race.
	ErrInviteUsed = errors.New("office: invite already used")
	// ErrCodeCollision is returned when invite code generation cannot find a free code.
	ErrCodeCollision = errors.New("office: invite code collision")
	// ErrOutsideWorkingHours is returned when office policy denies presence at the current time.
	ErrOutsideWorkingHours = errors.New("office: outside working hours")
	// ErrRoomLocked is returned when entering a private room that has no occupants yet.
	ErrRoomLocked = errors.New("office: room locked")
	// ErrNoActiveCall is returned when a call operation requires the principal to be in a call.
	ErrNoActiveCall = errors.New("office: no active call")
	// ErrNoPendingOffer is returned when accepting or rejecting without an unresolved offer.
	ErrNoPendingOffer = errors.New("office: no pending offer")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
