package models

import "github.com/google/uuid"

// RequestKind names one of the request workflows.
type RequestKind string

const (
	RequestKindMatch      RequestKind = "match"
	RequestKindJoin       RequestKind = "join"
	RequestKindInvitation RequestKind = "invitation"
)

// RequestStatus defines the lifecycle state of a request. Every status but pending is terminal.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// MatchProposal is the payload of a match request between two teams.
type MatchProposal struct {
	ProposedDate Date   `json:"proposed_date"`
	ProposedTime string `json:"proposed_time"`
	GroundName   string `json:"ground_name"`
	District     string `json:"district"`
	Village      string `json:"village"`
	MatchType    string `json:"match_type"`
	Message      string `json:"message,omitempty"`
}

// JoinPayload is the payload of a player's request to join a team.
type JoinPayload struct {
	Message string `json:"message,omitempty"`
}

// InvitationPayload is the payload of a captain's invitation to a player.
type InvitationPayload struct {
	InvitedBy uuid.UUID `json:"invited_by"`
	Message   string    `json:"message,omitempty"`
}
