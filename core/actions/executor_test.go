package actions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/errors"
	"github.com/pulsehq/pulse/core/notify"
	"github.com/pulsehq/pulse/core/store"
)

func fixtureStore(t *testing.T) store.DataStore {
	t.Helper()
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Employees().Create(ctx, &store.Employee{
		ID: "e-1", UserID: "u-1", Name: "Avery Quinn", Email: "avery@example.com", Department: "Engineering",
	}))
	require.NoError(t, s.Employees().Create(ctx, &store.Employee{
		ID: "e-mgr", UserID: "u-mgr", Name: "Blake Morgan", Email: "blake@example.com", Department: "Engineering",
	}))
	require.NoError(t, s.PTO().Create(ctx, &store.PTORequest{
		ID: "123", EmployeeID: "e-1", Days: 3,
		StartDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.Candidates().Create(ctx, &store.Candidate{
		ID: "c-1", Name: "Jordan Reyes", Email: "jordan@example.com", Stage: "SCREENING",
	}))
	require.NoError(t, s.Tools().Create(ctx, &store.Tool{ID: "t-1", Name: "laptop", Available: 1}))
	require.NoError(t, s.Documents().Create(ctx, &store.Document{
		ID: "d-1", EmployeeID: "e-1", Title: "Onboarding Checklist",
	}))
	return s
}

func managerConv() *conversation.Context {
	return &conversation.Context{
		UserID:     "u-mgr",
		Role:       conversation.RoleManager,
		EmployeeID: "e-mgr",
	}
}

func employeeConv() *conversation.Context {
	return &conversation.Context{
		UserID:     "u-1",
		Role:       conversation.RoleEmployee,
		EmployeeID: "e-1",
	}
}

func TestApprovePTOExecutesOnceThroughGate(t *testing.T) {
	s := fixtureStore(t)
	recorder := notify.NewRecorder()
	exec := NewExecutor(s, recorder, ExecutorConfig{})
	gate := NewGate()
	proposer := NewProposer(s)
	ctx := context.Background()

	p, err := proposer.Propose(ctx, "sess-1", "approve_pto", "approve PTO request #123", managerConv())
	require.NoError(t, err)
	assert.Contains(t, p.Message, "Avery Quinn")
	gate.Put(p)

	claimed, err := gate.Take("sess-1", p.Type, p.ID)
	require.NoError(t, err)

	result, err := exec.Execute(ctx, claimed, managerConv())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)

	req, err := s.PTO().Get(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, store.PTOStatusApproved, req.Status)
	assert.Equal(t, "e-mgr", req.DecidedBy)

	// A second confirmation of the same proposal is stale and changes
	// nothing.
	_, err = gate.Take("sess-1", p.Type, p.ID)
	assert.ErrorIs(t, err, ErrStale)

	sent := recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "avery@example.com", sent[0].To)
}

func TestApproveAlreadyDecidedFailsSafely(t *testing.T) {
	s := fixtureStore(t)
	exec := NewExecutor(s, notify.NewRecorder(), ExecutorConfig{})
	ctx := context.Background()
	require.NoError(t, s.PTO().SetStatus(ctx, "123", store.PTOStatusDenied, "e-other"))

	p := NewProposal("sess-1", "approve_pto", "Approve?", map[string]any{"request_id": "123"})
	result, err := exec.Execute(ctx, p, managerConv())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.Message, "already been decided")

	req, err := s.PTO().Get(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, store.PTOStatusDenied, req.Status, "the earlier decision stands")
}

func TestUnknownActionIsRejected(t *testing.T) {
	s := fixtureStore(t)
	exec := NewExecutor(s, notify.NewRecorder(), ExecutorConfig{})

	p := NewProposal("sess-1", "launch_rockets", "Launch?", nil)
	_, err := exec.Execute(context.Background(), p, managerConv())
	assert.True(t, errors.IsKind(err, errors.KindUnknownAction))
}

func TestAssignToolDecrementsStockAtomically(t *testing.T) {
	s := fixtureStore(t)
	exec := NewExecutor(s, notify.NewRecorder(), ExecutorConfig{})
	ctx := context.Background()

	p := NewProposal("sess-1", "assign_tool", "Assign?", map[string]any{
		"tool_id": "t-1", "employee_id": "e-1",
	})
	result, err := exec.Execute(ctx, p, managerConv())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)

	tool, err := s.Tools().Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 0, tool.Available)

	// Stock is gone; a second assignment fails without partial writes.
	again := NewProposal("sess-1", "assign_tool", "Assign?", map[string]any{
		"tool_id": "t-1", "employee_id": "e-mgr",
	})
	result, err = exec.Execute(ctx, again, managerConv())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)

	_, err = s.Tools().OpenAssignment(ctx, "t-1", "e-mgr")
	assert.ErrorIs(t, err, store.ErrNotFound, "no orphaned assignment after the failed attempt")
}

func TestReturnToolRestoresStock(t *testing.T) {
	s := fixtureStore(t)
	exec := NewExecutor(s, notify.NewRecorder(), ExecutorConfig{})
	ctx := context.Background()

	assign := NewProposal("sess-1", "assign_tool", "Assign?", map[string]any{
		"tool_id": "t-1", "employee_id": "e-1",
	})
	_, err := exec.Execute(ctx, assign, managerConv())
	require.NoError(t, err)

	open, err := s.Tools().OpenAssignment(ctx, "t-1", "e-1")
	require.NoError(t, err)

	ret := NewProposal("sess-1", "return_tool", "Return?", map[string]any{
		"assignment_id": open.ID, "tool_id": "t-1",
	})
	result, err := exec.Execute(ctx, ret, employeeConv())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)

	tool, err := s.Tools().Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 1, tool.Available)
}

func TestCreateEmployeeBundlesOnboarding(t *testing.T) {
	s := fixtureStore(t)
	recorder := notify.NewRecorder()
	exec := NewExecutor(s, recorder, ExecutorConfig{})
	ctx := context.Background()

	p := NewProposal("sess-1", "create_employee", "Create?", map[string]any{
		"name": "Casey Lin", "email": "casey@example.com", "department": "Sales",
	})
	result, err := exec.Execute(ctx, p, managerConv())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)

	id, ok := result.Details["employee_id"].(string)
	require.True(t, ok)

	docs, err := s.Documents().ListByEmployee(ctx, id)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Onboarding Checklist", docs[0].Title)

	contracts, err := s.Contracts().ListByEmployee(ctx, id)
	require.NoError(t, err)
	assert.Len(t, contracts, 1)

	sent := recorder.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "casey@example.com", sent[0].To)
}

func TestMarkDocumentViewedOwnershipGuard(t *testing.T) {
	s := fixtureStore(t)
	exec := NewExecutor(s, notify.NewRecorder(), ExecutorConfig{})
	ctx := context.Background()

	// The manager does not own e-1's document.
	p := NewProposal("sess-1", "mark_document_viewed", "Mark?", map[string]any{"document_id": "d-1"})
	result, err := exec.Execute(ctx, p, managerConv())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)

	p = NewProposal("sess-1", "mark_document_viewed", "Mark?", map[string]any{"document_id": "d-1"})
	result, err = exec.Execute(ctx, p, employeeConv())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)

	doc, err := s.Documents().Get(ctx, "d-1")
	require.NoError(t, err)
	assert.NotNil(t, doc.ViewedAt)
}

func TestExecutorAuditsEveryOutcome(t *testing.T) {
	s := fixtureStore(t)
	exec := NewExecutor(s, notify.NewRecorder(), ExecutorConfig{})
	ctx := context.Background()

	ok := NewProposal("sess-1", "approve_pto", "Approve?", map[string]any{"request_id": "123"})
	_, err := exec.Execute(ctx, ok, managerConv())
	require.NoError(t, err)

	bad := NewProposal("sess-1", "approve_pto", "Approve?", map[string]any{"request_id": "missing"})
	_, err = exec.Execute(ctx, bad, managerConv())
	require.NoError(t, err)

	records, err := s.Audit().Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, StatusFailed, records[0].Status)
	assert.Equal(t, StatusSuccess, records[1].Status)
	assert.Equal(t, "u-mgr", records[0].ActorID)
}
