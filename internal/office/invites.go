package office

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	inviteCodeLength  = 6
	inviteCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// codeGenerationAttempts bounds regeneration when a freshly drawn code
	// collides with a currently valid invite.
	codeGenerationAttempts = 8
)

// RandomInviteCode draws a 6-character uppercase alphanumeric code from
// crypto/rand.
func RandomInviteCode() string {
	var b strings.Builder
	b.Grow(inviteCodeLength)
	max := big.NewInt(int64(len(inviteCodeCharset)))
	for i := 0; i < inviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is unrecoverable for credential issuance.
			panic(fmt.Sprintf("office: invite code generation: %v", err))
		}
		b.WriteByte(inviteCodeCharset[n.Int64()])
	}
	return b.String()
}

// InviteRegistry issues, validates, and retires visitor invite codes. It
// exclusively owns VisitorInvite records and serializes redemption so that
// at most one redeemer can ever bind a given code, regardless of how
// callers interleave.
type InviteRegistry struct {
	mu      sync.Mutex
	invites map[string]*VisitorInvite
	idGen   func() string
	codeGen func() string
	now     func() time.Time
	logger  *slog.Logger
}

// NewInviteRegistry constructs a registry with the provided dependencies.
// A nil codeGen falls back to RandomInviteCode; a nil now falls back to
// time.Now.
func NewInviteRegistry(idGen, codeGen func() string, now func() time.Time, logger *slog.Logger) *InviteRegistry {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if codeGen == nil {
		codeGen = RandomInviteCode
	}
	if now == nil {
		now = time.Now
	}
	return &InviteRegistry{
		invites: make(map[string]*VisitorInvite),
		idGen:   idGen,
		codeGen: codeGen,
		now:     now,
		logger:  defaultLogger(logger),
	}
}

func (r *InviteRegistry) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, r.logger, "InviteRegistry", operation, attrs...)
}

// Issue creates a new invite valid for the given duration. The generated
// code is unique among currently valid (unexpired) invites; colliding
// draws are regenerated.
func (r *InviteRegistry) Issue(ctx context.Context, creatorID string, duration time.Duration) (invite VisitorInvite, err error) {
	logger := r.loggerWith(ctx, "Issue", "creator_id", creatorID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to issue invite", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("invite_id", invite.ID, "expires_at", invite.ExpiresAt).InfoContext(ctx, "invite issued")
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(creatorID) == "" {
		vErr.add("creatorId", "creator is required")
	}
	if duration <= 0 {
		vErr.add("duration", "duration must be positive")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	var code string
	for attempt := 0; ; attempt++ {
		if attempt == codeGenerationAttempts {
			err = ErrCodeCollision
			return
		}
		code = r.codeGen()
		if r.findByCodeLocked(code, now) == nil {
			break
		}
	}

	record := &VisitorInvite{
		ID:        r.idGen(),
		Code:      code,
		CreatorID: creatorID,
		CreatedAt: now,
		Duration:  duration,
		ExpiresAt: now.Add(duration),
	}
	r.invites[record.ID] = record

	invite = *record
	return
}

// Redeem exchanges a code for a freshly minted visitor principal id. The
// check-and-set on UsedBy happens under the registry lock, so concurrent
// attempts on the same code yield exactly one winner; losers observe
// ErrInviteUsed.
func (r *InviteRegistry) Redeem(ctx context.Context, code string) (invite VisitorInvite, principalID string, err error) {
	logger := r.loggerWith(ctx, "Redeem")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to redeem invite", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("invite_id", invite.ID, "principal_id", principalID).InfoContext(ctx, "invite redeemed")
	}()

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		err = ErrInvalidInviteCode
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	record := r.findByCodeAnyLocked(code)
	if record == nil {
		err = ErrInvalidInviteCode
		return
	}
	if record.Expired(now) {
		err = ErrInviteExpired
		return
	}
	if record.UsedBy != "" {
		err = ErrInviteUsed
		return
	}

	principalID = r.idGen()
	record.UsedBy = principalID
	invite = *record
	return
}

// Retire forces the invite out of circulation: expiry is moved to now and
// the binding is cleared. Retiring an unknown or already retired invite is
// a no-op.
func (r *InviteRegistry) Retire(ctx context.Context, inviteID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.invites[inviteID]
	if !ok {
		return
	}

	now := r.now()
	if now.Before(record.ExpiresAt) {
		record.ExpiresAt = now
	}
	record.UsedBy = ""

	r.loggerWith(ctx, "Retire", "invite_id", inviteID).InfoContext(ctx, "invite retired")
}

// Get returns the invite with the given id.
func (r *InviteRegistry) Get(inviteID string) (VisitorInvite, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.invites[inviteID]
	if !ok {
		return VisitorInvite{}, false
	}
	return *record, true
}

// ListActive returns unexpired invites for administrative display, ordered
// by creation time.
func (r *InviteRegistry) ListActive(ctx context.Context) []VisitorInvite {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	active := make([]VisitorInvite, 0, len(r.invites))
	for _, record := range r.invites {
		if !record.Expired(now) {
			active = append(active, *record)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].ID < active[j].ID
		}
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active
}

// findByCodeLocked returns the currently valid invite carrying the code.
func (r *InviteRegistry) findByCodeLocked(code string, now time.Time) *VisitorInvite {
	for _, record := range r.invites {
		if record.Code == code && !record.Expired(now) {
			return record
		}
	}
	return nil
}

// findByCodeAnyLocked returns the newest invite carrying the code,
// expired or not, so redemption of a stale code reports Expired rather
// than InvalidCode.
func (r *InviteRegistry) findByCodeAnyLocked(code string) *VisitorInvite {
	var newest *VisitorInvite
	for _, record := range r.invites {
		if record.Code != code {
			continue
		}
		if newest == nil || record.CreatedAt.After(newest.CreatedAt) {
			newest = record
		}
	}
	return newest
}
