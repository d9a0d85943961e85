package httpapi

import (
	"time"

	"github.com/example/virtual-office/internal/office"
)

type principalView struct {
	ID            string `json:"id"`
	DisplayName   string `json:"displayName"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	StatusMessage string `json:"statusMessage,omitempty"`
	RoomID        string `json:"roomId,omitempty"`
}

func toPrincipalView(p office.Principal) principalView {
	return principalView{
		ID:            p.ID,
		DisplayName:   p.DisplayName,
		Role:          string(p.Role),
		Status:        string(p.Status),
		StatusMessage: p.StatusMessage,
		RoomID:        p.RoomID,
	}
}

type roomView struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Kind           string   `json:"kind"`
	Capacity       int      `json:"capacity"`
	ParticipantIDs []string `json:"participantIds"`
}

func toRoomView(room office.Room) roomView {
	participants := room.ParticipantIDs
	if participants == nil {
		participants = []string{}
	}
	return roomView{
		ID:             room.ID,
		Name:           room.Name,
		Kind:           string(room.Kind),
		Capacity:       room.Capacity,
		ParticipantIDs: participants,
	}
}

type inviteView struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	CreatedAt string `json:"createdAt"`
	ExpiresAt string `json:"expiresAt"`
	UsedBy    string `json:"usedBy,omitempty"`
}

func toInviteView(invite office.VisitorInvite) inviteView {
	return inviteView{
		ID:        invite.ID,
		Code:      invite.Code,
		CreatedAt: invite.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt: invite.ExpiresAt.UTC().Format(time.RFC3339),
		UsedBy:    invite.UsedBy,
	}
}

type sessionView struct {
	ID             string   `json:"id"`
	InitiatorID    string   `json:"initiatorId"`
	RoomID         string   `json:"roomId,omitempty"`
	ParticipantIDs []string `json:"participantIds"`
	State          string   `json:"state"`
}

func toSessionView(session office.CallSession) sessionView {
	participants := session.ParticipantIDs
	if participants == nil {
		participants = []string{}
	}
	return sessionView{
		ID:             session.ID,
		InitiatorID:    session.InitiatorID,
		RoomID:         session.RoomID,
		ParticipantIDs: participants,
		State:          string(session.State),
	}
}

type offerView struct {
	ID        string `json:"id"`
	CallerID  string `json:"callerId"`
	TargetID  string `json:"targetId"`
	RoomID    string `json:"roomId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

func toOfferView(offer office.Offer) offerView {
	return offerView{
		ID:        offer.ID,
		CallerID:  offer.CallerID,
		TargetID:  offer.TargetID,
		RoomID:    offer.RoomID,
		SessionID: offer.SessionID,
	}
}

type policyView struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

func toPolicyView(policy office.WorkingHours) policyView {
	return policyView{
		Enabled: policy.Enabled,
		Start:   office.FormatClock(policy.Start),
		End:     office.FormatClock(policy.End),
	}
}

type eventView struct {
	Type         string     `json:"type"`
	Reason       string     `json:"reason,omitempty"`
	RoomID       string     `json:"roomId,omitempty"`
	SessionID    string     `json:"sessionId,omitempty"`
	Participants []string   `json:"participants,omitempty"`
	Offer        *offerView `json:"offer,omitempty"`
	At           string     `json:"at"`
}

func toEventView(event office.Event) eventView {
	view := eventView{
		Type:         string(event.Type),
		Reason:       string(event.Reason),
		RoomID:       event.RoomID,
		SessionID:    event.SessionID,
		Participants: event.Participants,
		At:           event.At.UTC().Format(time.RFC3339),
	}
	if event.Offer != nil {
		offer := toOfferView(*event.Offer)
		view.Offer = &offer
	}
	return view
}
