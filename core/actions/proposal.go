// Package actions implements the propose, confirm, execute cycle for
// state-changing operations. Nothing mutates the store until the user has
// confirmed a server-held proposal.
package actions

import (
	"time"

	"github.com/google/uuid"
)

// DefaultProposalTTL bounds how long a proposal stays confirmable.
const DefaultProposalTTL = 5 * time.Minute

// Proposal is a fully-parameterized action awaiting user confirmation. The
// server keeps it; the client only ever sees its type, id, and display
// message, and echoes the first two back to confirm.
type Proposal struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	SessionID string         `json:"-"`
	Params    map[string]any `json:"data"`
	Message   string         `json:"message"`
	CreatedAt time.Time      `json:"-"`
	ExpiresAt time.Time      `json:"-"`
}

// NewProposal builds a proposal with a fresh id and the default TTL.
func NewProposal(sessionID, actionType, message string, params map[string]any) *Proposal {
	now := time.Now().UTC()
	return &Proposal{
		ID:        uuid.New().String(),
		Type:      actionType,
		SessionID: sessionID,
		Params:    params,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(DefaultProposalTTL),
	}
}

// Expired reports whether the proposal's confirmation window has closed.
func (p *Proposal) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Result statuses.
const (
	StatusSuccess = "success"
	StatusPending = "pending"
	StatusFailed  = "failed"
)

// Result is the outcome of one executed action.
type Result struct {
	Type    string         `json:"type"`
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
