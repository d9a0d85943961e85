package office

import (
	"context"
	"log/slog"
	"time"
)

// EvictionReason names the policy that forced a principal out.
type EvictionReason string

const (
	// EvictionOutsideWorkingHours means the office is closed for the principal's role.
	EvictionOutsideWorkingHours EvictionReason = "OutsideWorkingHours"
	// EvictionInviteExpired means the visitor's invite ran out mid-session.
	EvictionInviteExpired EvictionReason = "InviteExpired"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Admitted bool
	Reason   EvictionReason
}

// EvaluateAdmission decides whether the principal may be, or remain,
// inside the office at the given instant. Exempt roles bypass the
// working-hours window but visitors remain subject to invite expiry.
// A nil invite for a visitor counts as expired: a visitor with no valid
// credential has no standing.
func EvaluateAdmission(p Principal, policy WorkingHours, invite *VisitorInvite, now time.Time) Decision {
	if !p.Role.Exempt() && !policy.Admits(now) {
		return Decision{Reason: EvictionOutsideWorkingHours}
	}
	if p.Role == RoleVisitor {
		if invite == nil || invite.Expired(now) {
			return Decision{Reason: EvictionInviteExpired}
		}
	}
	return Decision{Admitted: true}
}

// GateSweeper periodically audits all present principals against office
// policy, firing the coordinator's sweeps on two cadences: working hours
// on the order of minutes, invite expiry on the order of seconds so
// short-lived visitor sessions are cut promptly.
type GateSweeper struct {
	coordinator    *Coordinator
	hoursInterval  time.Duration
	inviteInterval time.Duration
	logger         *slog.Logger
}

// NewGateSweeper constructs a sweeper over the given coordinator.
// Non-positive intervals fall back to one minute and five seconds.
func NewGateSweeper(coordinator *Coordinator, hoursInterval, inviteInterval time.Duration, logger *slog.Logger) *GateSweeper {
	if hoursInterval <= 0 {
		hoursInterval = time.Minute
	}
	if inviteInterval <= 0 {
		inviteInterval = 5 * time.Second
	}
	return &GateSweeper{
		coordinator:    coordinator,
		hoursInterval:  hoursInterval,
		inviteInterval: inviteInterval,
		logger:         defaultLogger(logger),
	}
}

// Run drives both audit cadences until the context is cancelled.
func (g *GateSweeper) Run(ctx context.Context) error {
	hours := time.NewTicker(g.hoursInterval)
	defer hours.Stop()
	invites := time.NewTicker(g.inviteInterval)
	defer invites.Stop()

	g.logger.InfoContext(ctx, "gate sweeper started",
		"working_hours_interval", g.hoursInterval,
		"invite_interval", g.inviteInterval,
	)

	for {
		select {
		case <-ctx.Done():
			g.logger.InfoContext(ctx, "gate sweeper stopped")
			return ctx.Err()
		case <-hours.C:
			g.coordinator.SweepWorkingHours(ctx)
		case <-invites.C:
			g.coordinator.SweepInvites(ctx)
		}
	}
}
