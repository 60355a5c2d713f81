package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEmployee(t *testing.T, s DataStore, id string) {
	t.Helper()
	require.NoError(t, s.Employees().Create(context.Background(), &Employee{
		ID:         id,
		UserID:     "u-" + id,
		Name:       "Person " + id,
		Email:      id + "@example.com",
		Department: "Engineering",
		StartDate:  time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC),
	}))
}

func TestPTOBalanceCountsOnlyApproved(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedEmployee(t, s, "e-1")

	mk := func(id, status string, days float64) {
		require.NoError(t, s.PTO().Create(ctx, &PTORequest{
			ID:         id,
			EmployeeID: "e-1",
			StartDate:  time.Now(),
			EndDate:    time.Now().Add(48 * time.Hour),
			Days:       days,
			Status:     status,
		}))
	}
	mk("p-1", PTOStatusApproved, 3)
	mk("p-2", PTOStatusPending, 5)
	mk("p-3", PTOStatusDenied, 2)

	bal, err := s.PTO().Balance(ctx, "e-1")
	require.NoError(t, err)
	assert.Equal(t, float64(3), bal.Used)
	assert.Equal(t, float64(defaultAccrual-3), bal.Remaining)
}

func TestPTOSetStatusStampsDecision(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedEmployee(t, s, "e-1")

	require.NoError(t, s.PTO().Create(ctx, &PTORequest{ID: "p-1", EmployeeID: "e-1", Days: 2}))
	require.NoError(t, s.PTO().SetStatus(ctx, "p-1", PTOStatusApproved, "e-mgr"))

	r, err := s.PTO().Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, PTOStatusApproved, r.Status)
	assert.Equal(t, "e-mgr", r.DecidedBy)
	require.NotNil(t, r.DecidedAt)

	assert.ErrorIs(t, s.PTO().SetStatus(ctx, "missing", PTOStatusDenied, "e-mgr"), ErrNotFound)
}

func TestToolStockNeverGoesNegative(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Tools().Create(ctx, &Tool{ID: "t-1", Name: "Laptop", Available: 1}))
	require.NoError(t, s.Tools().AdjustAvailable(ctx, "t-1", -1))
	assert.ErrorIs(t, s.Tools().AdjustAvailable(ctx, "t-1", -1), ErrNoStock)

	tool, err := s.Tools().Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 0, tool.Available)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedEmployee(t, s, "e-1")
	require.NoError(t, s.Tools().Create(ctx, &Tool{ID: "t-1", Name: "Badge", Available: 2}))

	err := s.WithinTx(ctx, func(tx DataStore) error {
		if err := tx.Tools().AdjustAvailable(ctx, "t-1", -1); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	tool, err := s.Tools().Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 2, tool.Available, "failed transaction must not leave partial writes")
}

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedEmployee(t, s, "e-1")
	require.NoError(t, s.Tools().Create(ctx, &Tool{ID: "t-1", Name: "Badge", Available: 2}))

	err := s.WithinTx(ctx, func(tx DataStore) error {
		if err := tx.Tools().AdjustAvailable(ctx, "t-1", -1); err != nil {
			return err
		}
		return tx.Tools().CreateAssignment(ctx, &ToolAssignment{
			ID:         "a-1",
			ToolID:     "t-1",
			EmployeeID: "e-1",
			AssignedAt: time.Now(),
		})
	})
	require.NoError(t, err)

	tool, err := s.Tools().Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 1, tool.Available)

	open, err := s.Tools().OpenAssignment(ctx, "t-1", "e-1")
	require.NoError(t, err)
	assert.Nil(t, open.ReturnedAt)
}

func TestCloseAssignmentIsIdempotentGuarded(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedEmployee(t, s, "e-1")
	require.NoError(t, s.Tools().CreateAssignment(ctx, &ToolAssignment{
		ID: "a-1", ToolID: "t-1", EmployeeID: "e-1", AssignedAt: time.Now(),
	}))

	require.NoError(t, s.Tools().CloseAssignment(ctx, "a-1", time.Now()))
	assert.ErrorIs(t, s.Tools().CloseAssignment(ctx, "a-1", time.Now()), ErrAlreadySet)
}

func TestCandidateStageValidation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Candidates().Create(ctx, &Candidate{ID: "c-1", Name: "Jordan", Stage: "APPLIED"}))

	require.NoError(t, s.Candidates().SetStage(ctx, "c-1", "INTERVIEW"))
	assert.ErrorIs(t, s.Candidates().SetStage(ctx, "c-1", "LIMBO"), ErrStageUnknown)

	c, err := s.Candidates().Get(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "INTERVIEW", c.Stage)
}

func TestHeadcountGroupsByDepartment(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedEmployee(t, s, "e-1")
	seedEmployee(t, s, "e-2")
	require.NoError(t, s.Employees().Create(ctx, &Employee{
		ID: "e-3", UserID: "u-e-3", Name: "Sales Person", Email: "x@example.com", Department: "Sales",
	}))

	stats, err := s.Employees().Headcount(ctx)
	require.NoError(t, err)

	byDept := make(map[string]int)
	for _, st := range stats {
		byDept[st.Department] = st.Count
	}
	assert.Equal(t, 2, byDept["Engineering"])
	assert.Equal(t, 1, byDept["Sales"])
}

func TestAuditRecentReturnsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Audit().Append(ctx, &AuditRecord{
			ID:         fmt.Sprintf("au-%d", i),
			SessionID:  "sess-1",
			ActorID:    "u-1",
			ActionType: "approve_pto",
			Status:     "success",
			CreatedAt:  time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	recent, err := s.Audit().Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "au-2", recent[0].ID)
	assert.Equal(t, "au-1", recent[1].ID)
}

func TestGetReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedEmployee(t, s, "e-1")

	first, err := s.Employees().Get(ctx, "e-1")
	require.NoError(t, err)
	first.Name = "mutated"

	second, err := s.Employees().Get(ctx, "e-1")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", second.Name)
}
