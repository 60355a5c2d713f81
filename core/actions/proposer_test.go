package actions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehq/pulse/core/errors"
)

func TestProposePTODecisionExtractsRequestID(t *testing.T) {
	s := fixtureStore(t)
	p := NewProposer(s)

	proposal, err := p.Propose(context.Background(), "sess-1", "approve_pto",
		"please approve PTO request #123", managerConv())
	require.NoError(t, err)

	assert.Equal(t, "approve_pto", proposal.Type)
	assert.Equal(t, "123", proposal.Params["request_id"])
	assert.Contains(t, proposal.Message, "Avery Quinn")
	assert.Contains(t, proposal.Message, "3.0 days")
	assert.False(t, proposal.Expired(time.Now()))
}

func TestProposeWithoutRequestIDFailsValidation(t *testing.T) {
	s := fixtureStore(t)
	p := NewProposer(s)

	_, err := p.Propose(context.Background(), "sess-1", "approve_pto",
		"approve that vacation thing", managerConv())
	assert.True(t, errors.IsKind(err, errors.KindActionValidation))
}

func TestProposeUnknownRequestFailsValidation(t *testing.T) {
	s := fixtureStore(t)
	p := NewProposer(s)

	_, err := p.Propose(context.Background(), "sess-1", "deny_pto",
		"deny request #999", managerConv())
	assert.True(t, errors.IsKind(err, errors.KindActionValidation))
}

func TestProposeScheduleInterviewResolvesCandidate(t *testing.T) {
	s := fixtureStore(t)
	p := NewProposer(s)

	proposal, err := p.Propose(context.Background(), "sess-1", "schedule_interview",
		"schedule an interview with Jordan for Tuesday", managerConv())
	require.NoError(t, err)

	assert.Equal(t, "c-1", proposal.Params["candidate_id"])
	assert.Equal(t, "e-mgr", proposal.Params["interviewer"])
	assert.Contains(t, proposal.Message, "Jordan Reyes")

	when, err := time.Parse(time.RFC3339, proposal.Params["when"].(string))
	require.NoError(t, err)
	assert.Equal(t, time.Tuesday, when.Weekday())
	assert.Equal(t, 10, when.Hour())
}

func TestProposeMoveStageNeedsAKnownStage(t *testing.T) {
	s := fixtureStore(t)
	p := NewProposer(s)
	ctx := context.Background()

	proposal, err := p.Propose(ctx, "sess-1", "move_candidate_stage",
		"move Jordan to the offer stage", managerConv())
	require.NoError(t, err)
	assert.Equal(t, "OFFER", proposal.Params["stage"])

	_, err = p.Propose(ctx, "sess-1", "move_candidate_stage",
		"move Jordan forward", managerConv())
	assert.True(t, errors.IsKind(err, errors.KindActionValidation))
}

func TestProposeCreateEmployeeExtractsFields(t *testing.T) {
	s := fixtureStore(t)
	p := NewProposer(s)

	proposal, err := p.Propose(context.Background(), "sess-1", "create_employee",
		"create an employee named Casey Lin with email casey@example.com in sales", managerConv())
	require.NoError(t, err)

	assert.Equal(t, "Casey Lin", proposal.Params["name"])
	assert.Equal(t, "casey@example.com", proposal.Params["email"])
	assert.Equal(t, "Sales", proposal.Params["department"])
}

func TestProposeAssignToolChecksStock(t *testing.T) {
	s := fixtureStore(t)
	p := NewProposer(s)
	ctx := context.Background()

	proposal, err := p.Propose(ctx, "sess-1", "assign_tool",
		"assign a laptop to Avery", managerConv())
	require.NoError(t, err)
	assert.Equal(t, "t-1", proposal.Params["tool_id"])
	assert.Equal(t, "e-1", proposal.Params["employee_id"])

	require.NoError(t, s.Tools().AdjustAvailable(ctx, "t-1", -1))
	_, err = p.Propose(ctx, "sess-1", "assign_tool",
		"assign a laptop to Avery", managerConv())
	assert.True(t, errors.IsKind(err, errors.KindActionValidation))
}

func TestProposeUnknownActionType(t *testing.T) {
	s := fixtureStore(t)
	p := NewProposer(s)

	_, err := p.Propose(context.Background(), "sess-1", "launch_rockets", "do it", managerConv())
	assert.True(t, errors.IsKind(err, errors.KindUnknownAction))
}
