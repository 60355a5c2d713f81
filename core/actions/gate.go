package actions

import (
	"sync"
	"time"

	"github.com/pulsehq/pulse/core/errors"
)

// ErrStale is returned when a confirmation references no live proposal:
// nothing pending, a superseded or expired proposal, or mismatched
// identifiers. The confirmation is a no-op in every such case.
var ErrStale = errors.New(errors.KindStaleConfirmation,
	"that action is no longer pending, nothing was changed")

// Gate holds at most one pending proposal per session. A new proposal
// silently replaces the previous one, and Take removes the proposal
// atomically so a double confirmation can only execute once.
type Gate struct {
	mu      sync.Mutex
	pending map[string]*Proposal
	now     func() time.Time
}

// NewGate returns an empty gate.
func NewGate() *Gate {
	return &Gate{
		pending: make(map[string]*Proposal),
		now:     time.Now,
	}
}

// Put stores the proposal as the session's pending action, superseding any
// previous proposal for that session.
func (g *Gate) Put(p *Proposal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending[p.SessionID] = p
}

// Take claims the pending proposal for execution. Both the type and the id
// must match what the server stored, and the proposal must still be within
// its confirmation window. On success the slot is cleared before returning,
// so no second caller can claim the same proposal.
func (g *Gate) Take(sessionID, proposalType, proposalID string) (*Proposal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.pending[sessionID]
	if !ok {
		return nil, ErrStale
	}
	if p.Expired(g.now()) {
		delete(g.pending, sessionID)
		return nil, ErrStale
	}
	if p.Type != proposalType || p.ID != proposalID {
		return nil, ErrStale
	}

	delete(g.pending, sessionID)
	return p, nil
}

// Pending returns the session's live proposal, or nil.
func (g *Gate) Pending(sessionID string) *Proposal {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.pending[sessionID]
	if !ok {
		return nil
	}
	if p.Expired(g.now()) {
		delete(g.pending, sessionID)
		return nil
	}
	return p
}

// Clear drops the session's pending proposal, if any. Used when a session
// ends or the user walks away from the action.
func (g *Gate) Clear(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, sessionID)
}

// Sweep removes expired proposals and reports how many were dropped.
func (g *Gate) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	dropped := 0
	for sessionID, p := range g.pending {
		if p.Expired(now) {
			delete(g.pending, sessionID)
			dropped++
		}
	}
	return dropped
}
