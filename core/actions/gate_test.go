package actions

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehq/pulse/core/errors"
)

func TestGateHoldsOneProposalPerSession(t *testing.T) {
	g := NewGate()

	first := NewProposal("sess-1", "approve_pto", "Approve?", nil)
	second := NewProposal("sess-1", "deny_pto", "Deny?", nil)
	g.Put(first)
	g.Put(second)

	// The first proposal was superseded; confirming it is a no-op.
	_, err := g.Take("sess-1", first.Type, first.ID)
	assert.ErrorIs(t, err, ErrStale)

	got, err := g.Take("sess-1", second.Type, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestGateDoubleConfirmClaimsOnce(t *testing.T) {
	g := NewGate()
	p := NewProposal("sess-1", "approve_pto", "Approve?", nil)
	g.Put(p)

	var mu sync.Mutex
	claimed := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Take("sess-1", p.Type, p.ID); err == nil {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, claimed, "exactly one confirmation may claim the proposal")
}

func TestGateRejectsMismatchedIdentifiers(t *testing.T) {
	g := NewGate()
	p := NewProposal("sess-1", "approve_pto", "Approve?", nil)
	g.Put(p)

	_, err := g.Take("sess-1", "deny_pto", p.ID)
	assert.ErrorIs(t, err, ErrStale)

	_, err = g.Take("sess-1", p.Type, "some-other-id")
	assert.ErrorIs(t, err, ErrStale)

	_, err = g.Take("sess-2", p.Type, p.ID)
	assert.ErrorIs(t, err, ErrStale)

	// The mismatches above must not have consumed the real proposal.
	_, err = g.Take("sess-1", p.Type, p.ID)
	assert.NoError(t, err)
}

func TestGateExpiresProposals(t *testing.T) {
	g := NewGate()
	p := NewProposal("sess-1", "approve_pto", "Approve?", nil)
	g.Put(p)

	g.now = func() time.Time { return p.ExpiresAt.Add(time.Second) }

	_, err := g.Take("sess-1", p.Type, p.ID)
	assert.ErrorIs(t, err, ErrStale)
	assert.True(t, errors.IsKind(err, errors.KindStaleConfirmation))
	assert.Nil(t, g.Pending("sess-1"))
}

func TestGateSweepDropsExpired(t *testing.T) {
	g := NewGate()
	live := NewProposal("sess-live", "approve_pto", "Approve?", nil)
	dead := NewProposal("sess-dead", "deny_pto", "Deny?", nil)
	dead.ExpiresAt = time.Now().Add(-time.Minute)
	g.Put(live)
	g.Put(dead)

	assert.Equal(t, 1, g.Sweep())
	assert.NotNil(t, g.Pending("sess-live"))
	assert.Nil(t, g.Pending("sess-dead"))
}
