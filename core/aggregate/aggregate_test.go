package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/intent"
	"github.com/pulsehq/pulse/core/store"
)

func seededStore(t *testing.T) store.DataStore {
	t.Helper()
	s := store.NewMemoryStore()
	ctx := context.Background()

	employees := []*store.Employee{
		{ID: "e-1", UserID: "u-1", Name: "Avery", Email: "avery@example.com", Department: "Engineering", ManagerID: "e-2", Salary: 95000},
		{ID: "e-2", UserID: "u-2", Name: "Blake", Email: "blake@example.com", Department: "Engineering", Salary: 120000},
		{ID: "e-3", UserID: "u-3", Name: "Casey", Email: "casey@example.com", Department: "Sales", ManagerID: "e-2", Salary: 80000},
	}
	for _, e := range employees {
		require.NoError(t, s.Employees().Create(ctx, e))
	}

	require.NoError(t, s.PTO().Create(ctx, &store.PTORequest{
		ID: "p-1", EmployeeID: "e-1", Days: 4, Status: store.PTOStatusApproved,
		StartDate: time.Now(), EndDate: time.Now(),
	}))
	require.NoError(t, s.Policies().Create(ctx, &store.Policy{
		ID: "pol-1", Title: "Time Off", Summary: "25 days per year.",
	}))
	require.NoError(t, s.Candidates().Create(ctx, &store.Candidate{
		ID: "c-1", Name: "Jordan Reyes", Email: "jordan@example.com", Stage: "INTERVIEW", Interviewer: "e-1",
	}))
	require.NoError(t, s.Candidates().Create(ctx, &store.Candidate{
		ID: "c-2", Name: "Sam Okafor", Email: "sam@example.com", Stage: "SCREENING",
	}))
	return s
}

func convFor(role conversation.Role, employeeID string) *conversation.Context {
	return &conversation.Context{
		UserID:     "u-" + employeeID,
		Role:       role,
		Department: "Engineering",
		EmployeeID: employeeID,
	}
}

func TestSelfScopePinsToCallerIdentity(t *testing.T) {
	a := NewAggregator(seededStore(t), Config{})

	it := &intent.Intent{
		Kind:        intent.KindInformation,
		Scope:       intent.ScopeSelf,
		DataSources: []string{intent.SourcePTO},
	}

	// The message might have named someone else; only the context identity
	// matters here.
	res, err := a.Collect(context.Background(), it, convFor(conversation.RoleEmployee, "e-1"))
	require.NoError(t, err)

	views, ok := res.Data[intent.SourcePTO].([]ptoView)
	require.True(t, ok)
	require.Len(t, views, 1)
	assert.Equal(t, "Avery", views[0].Employee)
	assert.Equal(t, float64(4), views[0].Balance.Used)
}

func TestTeamScopeCoversDirectReportsOnly(t *testing.T) {
	a := NewAggregator(seededStore(t), Config{})

	it := &intent.Intent{
		Kind:        intent.KindInformation,
		Scope:       intent.ScopeTeam,
		DataSources: []string{intent.SourcePTO},
	}

	res, err := a.Collect(context.Background(), it, convFor(conversation.RoleManager, "e-2"))
	require.NoError(t, err)

	views, ok := res.Data[intent.SourcePTO].([]ptoView)
	require.True(t, ok)
	names := make([]string, 0, len(views))
	for _, v := range views {
		names = append(names, v.Employee)
	}
	assert.ElementsMatch(t, []string{"Avery", "Casey"}, names)
}

func TestEmployeeViewsOmitSalary(t *testing.T) {
	a := NewAggregator(seededStore(t), Config{})

	it := &intent.Intent{
		Kind:        intent.KindInformation,
		Scope:       intent.ScopeTeam,
		DataSources: []string{intent.SourceEmployees},
	}

	res, err := a.Collect(context.Background(), it, convFor(conversation.RoleManager, "e-2"))
	require.NoError(t, err)
	require.Contains(t, res.Data, intent.SourceEmployees)

	// The generic employee view is a named struct without a salary field;
	// reaching salary requires the salary category and its own grant.
	assert.NotContains(t, res.Failed, intent.SourceEmployees)
}

func TestCompanyScopeReturnsAggregatesNotRecords(t *testing.T) {
	a := NewAggregator(seededStore(t), Config{})

	it := &intent.Intent{
		Kind:        intent.KindReport,
		Scope:       intent.ScopeCompany,
		DataSources: []string{intent.SourceEmployees, intent.SourceStats},
	}

	res, err := a.Collect(context.Background(), it, convFor(conversation.RoleAdmin, "e-2"))
	require.NoError(t, err)

	stats, ok := res.Data[intent.SourceStats].([]store.HeadcountStat)
	require.True(t, ok)
	assert.Len(t, stats, 2)
}

func TestFailedSourceIsReportedNotFatal(t *testing.T) {
	a := NewAggregator(seededStore(t), Config{})

	it := &intent.Intent{
		Kind:        intent.KindInformation,
		Scope:       intent.ScopeSelf,
		DataSources: []string{intent.SourcePolicies, "holograms"},
	}

	res, err := a.Collect(context.Background(), it, convFor(conversation.RoleEmployee, "e-1"))
	require.NoError(t, err)

	assert.Contains(t, res.Data, intent.SourcePolicies)
	assert.Contains(t, res.Failed, "holograms")
}

func TestSelfScopeCandidatesLimitedToOwnInterviews(t *testing.T) {
	a := NewAggregator(seededStore(t), Config{})

	it := &intent.Intent{
		Kind:        intent.KindInformation,
		Scope:       intent.ScopeSelf,
		DataSources: []string{intent.SourceCandidates},
	}

	res, err := a.Collect(context.Background(), it, convFor(conversation.RoleEmployee, "e-1"))
	require.NoError(t, err)

	mine, ok := res.Data[intent.SourceCandidates].([]*store.Candidate)
	require.True(t, ok)
	require.Len(t, mine, 1)
	assert.Equal(t, "Jordan Reyes", mine[0].Name)

	// A caller with no interviews sees nothing, not the pipeline.
	res, err = a.Collect(context.Background(), it, convFor(conversation.RoleEmployee, "e-3"))
	require.NoError(t, err)
	none, ok := res.Data[intent.SourceCandidates].([]*store.Candidate)
	require.True(t, ok)
	assert.Empty(t, none)
}

func TestTeamScopeCandidatesCoverPipeline(t *testing.T) {
	a := NewAggregator(seededStore(t), Config{})

	it := &intent.Intent{
		Kind:        intent.KindInformation,
		Scope:       intent.ScopeTeam,
		DataSources: []string{intent.SourceCandidates},
	}

	res, err := a.Collect(context.Background(), it, convFor(conversation.RoleManager, "e-2"))
	require.NoError(t, err)

	all, ok := res.Data[intent.SourceCandidates].([]*store.Candidate)
	require.True(t, ok)
	assert.Len(t, all, 2)
}

func TestCompanySalaryIsAveragedByDepartment(t *testing.T) {
	a := NewAggregator(seededStore(t), Config{})

	it := &intent.Intent{
		Kind:        intent.KindReport,
		Scope:       intent.ScopeCompany,
		DataSources: []string{intent.SourceSalary},
	}

	res, err := a.Collect(context.Background(), it, convFor(conversation.RoleAdmin, "e-2"))
	require.NoError(t, err)

	byDept, ok := res.Data[intent.SourceSalary].([]departmentSalary)
	require.True(t, ok)

	averages := make(map[string]float64)
	for _, d := range byDept {
		averages[d.Department] = d.Average
	}
	assert.InDelta(t, 107500, averages["Engineering"], 0.01)
	assert.InDelta(t, 80000, averages["Sales"], 0.01)
}
